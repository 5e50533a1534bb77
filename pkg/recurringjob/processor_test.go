package recurringjob

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/bcaldwell/ledgerline/pkg/dbutils"
	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/recurrence"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

const user = "alice"

func setup(t *testing.T, today string) (*Processor, *store.Store, *bun.DB, *finance.Account) {
	t.Helper()
	ctx := context.Background()

	db, err := dbutils.CreateSQLiteClient("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	require.NoError(t, s.Migrate(ctx))

	account := &finance.Account{Name: "Chequing", Type: finance.Checking, Currency: "USD", Balance: decimal.NewFromInt(5000)}
	require.NoError(t, s.CreateAccount(ctx, user, account))

	p := NewProcessor(s)
	p.Now = func() time.Time { return mustDate(today) }

	return p, s, db, account
}

func mustDate(s string) time.Time {
	d, err := finance.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestProcessPostsMissedOccurrences(t *testing.T) {
	ctx := context.Background()
	p, s, _, account := setup(t, "2024-04-10")

	rent := &finance.RecurringTransaction{
		AccountID: account.ID, Description: "Rent", Category: "Housing",
		Amount: decimal.NewFromInt(1000), Type: finance.Expense,
		Frequency: recurrence.Monthly, NextDueDate: mustDate("2024-01-31"),
	}
	require.NoError(t, s.CreateRecurring(ctx, user, rent))

	result, err := p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 3, result.Posted)

	posted, err := s.ListTransactions(ctx, user, store.TransactionFilter{RecurringID: rent.ID})
	require.NoError(t, err)
	require.Len(t, posted, 3)

	dates := []time.Time{}
	for _, tx := range posted {
		dates = append(dates, tx.Date.UTC())
		assert.Equal(t, "Housing", tx.Category)
	}
	assert.ElementsMatch(t, []time.Time{mustDate("2024-01-31"), mustDate("2024-02-29"), mustDate("2024-03-31")}, dates)

	got, err := s.GetRecurring(ctx, user, rent.ID)
	require.NoError(t, err)
	assert.Equal(t, mustDate("2024-04-30"), got.NextDueDate.UTC())

	a, err := s.GetAccount(ctx, user, account.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2000).Equal(a.Balance))

	// a second run on the same day has nothing left to post
	result, err = p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Posted)
}

func TestProcessStopsAtEndDate(t *testing.T) {
	ctx := context.Background()
	p, s, _, account := setup(t, "2024-02-01")

	end := mustDate("2024-01-15")
	gym := &finance.RecurringTransaction{
		AccountID: account.ID, Description: "Gym", Amount: decimal.NewFromInt(10), Type: finance.Expense,
		Frequency: recurrence.Weekly, NextDueDate: mustDate("2024-01-01"), EndDate: &end,
	}
	require.NoError(t, s.CreateRecurring(ctx, user, gym))

	result, err := p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Posted)
	assert.Equal(t, 1, result.Finished)

	got, err := s.GetRecurring(ctx, user, gym.ID)
	require.NoError(t, err)
	assert.True(t, got.Paused)
	assert.Equal(t, mustDate("2024-01-22"), got.NextDueDate.UTC())
}

func TestProcessIgnoresFutureAndPaused(t *testing.T) {
	ctx := context.Background()
	p, s, _, account := setup(t, "2024-01-10")

	future := &finance.RecurringTransaction{
		AccountID: account.ID, Description: "Later", Amount: decimal.NewFromInt(1), Type: finance.Income,
		Frequency: recurrence.Daily, NextDueDate: mustDate("2024-01-11"),
	}
	require.NoError(t, s.CreateRecurring(ctx, user, future))

	paused := &finance.RecurringTransaction{
		AccountID: account.ID, Description: "Paused", Amount: decimal.NewFromInt(1), Type: finance.Income,
		Frequency: recurrence.Daily, NextDueDate: mustDate("2024-01-01"), Paused: true,
	}
	require.NoError(t, s.CreateRecurring(ctx, user, paused))

	result, err := p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
}

func TestProcessSkipsUnknownFrequency(t *testing.T) {
	ctx := context.Background()
	p, s, db, account := setup(t, "2024-01-10")

	broken := &finance.RecurringTransaction{
		ID: "broken", UserID: user, AccountID: account.ID, Description: "Broken",
		Amount: decimal.NewFromInt(1), Type: finance.Expense,
		Frequency: recurrence.Frequency("fortnightly"), NextDueDate: mustDate("2024-01-01"),
	}
	_, err := db.NewInsert().Model(broken).Exec(ctx)
	require.NoError(t, err)

	result, err := p.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Posted)

	got, err := s.GetRecurring(ctx, user, "broken")
	require.NoError(t, err)
	assert.Equal(t, mustDate("2024-01-01"), got.NextDueDate.UTC())
}

func TestProcessKeepsMonthEndAnchor(t *testing.T) {
	ctx := context.Background()
	p, s, _, account := setup(t, "2024-01-31")

	rent := &finance.RecurringTransaction{
		AccountID: account.ID, Description: "Rent",
		Amount: decimal.NewFromInt(100), Type: finance.Expense,
		Frequency: recurrence.Monthly, NextDueDate: mustDate("2024-01-31"),
	}
	require.NoError(t, s.CreateRecurring(ctx, user, rent))

	runs := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}
	for _, run := range runs {
		p.Now = func() time.Time { return mustDate(run) }

		result, err := p.Process(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Posted, run)
	}

	posted, err := s.ListTransactions(ctx, user, store.TransactionFilter{RecurringID: rent.ID})
	require.NoError(t, err)

	dates := []time.Time{}
	for _, tx := range posted {
		dates = append(dates, tx.Date.UTC())
	}

	expected := []time.Time{}
	for _, run := range runs {
		expected = append(expected, mustDate(run))
	}
	assert.ElementsMatch(t, expected, dates)

	got, err := s.GetRecurring(ctx, user, rent.ID)
	require.NoError(t, err)
	assert.Equal(t, mustDate("2024-06-30"), got.NextDueDate.UTC())
	assert.Equal(t, mustDate("2024-01-31"), got.AnchorDate.UTC())
}

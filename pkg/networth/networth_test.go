package networth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcaldwell/ledgerline/pkg/dbutils"
	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

type staticRates map[string]string

func (r staticRates) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := r[from+"_"+to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for %s_%s", from, to)
	}
	return decimal.RequireFromString(rate), nil
}

func mustDate(s string) time.Time {
	d, err := finance.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRunForUser(t *testing.T) {
	ctx := context.Background()
	const user = "alice"

	db, err := dbutils.CreateSQLiteClient("")
	require.NoError(t, err)
	defer db.Close()

	s := store.New(db)
	require.NoError(t, s.Migrate(ctx))

	usd := &finance.Account{Name: "Chequing", Type: finance.Checking, Currency: "USD", Balance: dec("1000")}
	require.NoError(t, s.CreateAccount(ctx, user, usd))
	cad := &finance.Account{Name: "Savings", Type: finance.Savings, Currency: "CAD", Balance: dec("100")}
	require.NoError(t, s.CreateAccount(ctx, user, cad))
	old := &finance.Account{Name: "Old", Type: finance.Cash, Currency: "USD", Balance: dec("5"), Archived: true}
	require.NoError(t, s.CreateAccount(ctx, user, old))

	require.NoError(t, s.CreateTransaction(ctx, user, &finance.Transaction{
		AccountID: usd.ID, Date: mustDate("2024-01-09"), Amount: dec("100"), Type: finance.Expense,
	}))

	purchased := mustDate("2024-01-09")
	require.NoError(t, s.CreateInvestment(ctx, user, &finance.Investment{
		Symbol: "VTI", Quantity: dec("2"), PurchasePrice: dec("100"), Currency: "USD", PurchaseDate: &purchased,
	}))

	job := NewJob(s, staticRates{"CAD_USD": "0.75"}, "USD")
	job.BackfillDays = 2
	job.Now = func() time.Time { return mustDate("2024-01-10").Add(15 * time.Hour) }

	require.NoError(t, job.Run(ctx))

	snapshots, err := s.ListSnapshots(ctx, user, usd.ID, mustDate("2024-01-01"), mustDate("2024-01-31"))
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.True(t, dec("1000").Equal(snapshots[0].Balance))
	assert.True(t, dec("900").Equal(snapshots[1].Balance))
	assert.True(t, dec("900").Equal(snapshots[2].Balance))
	assert.Equal(t, finance.SnapshotKey(mustDate("2024-01-08"), user, usd.ID), snapshots[0].Key)

	archived, err := s.ListSnapshots(ctx, user, old.ID, mustDate("2024-01-01"), mustDate("2024-01-31"))
	require.NoError(t, err)
	assert.Empty(t, archived)

	history, err := s.ListNetWorth(ctx, user, mustDate("2024-01-01"), mustDate("2024-01-31"))
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.True(t, dec("1075").Equal(history[0].Total))
	assert.True(t, dec("1175").Equal(history[1].Total))
	assert.True(t, dec("1175").Equal(history[2].Total))
	assert.True(t, dec("1100").Equal(history[2].Breakdown["USD"]))
	assert.True(t, dec("100").Equal(history[2].Breakdown["CAD"]))

	// rerunning replaces rows instead of duplicating them
	require.NoError(t, job.Run(ctx))
	history, err = s.ListNetWorth(ctx, user, mustDate("2024-01-01"), mustDate("2024-01-31"))
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestRunMissingRate(t *testing.T) {
	ctx := context.Background()

	db, err := dbutils.CreateSQLiteClient("")
	require.NoError(t, err)
	defer db.Close()

	s := store.New(db)
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.CreateAccount(ctx, "bob", &finance.Account{Name: "Euro", Type: finance.Checking, Currency: "EUR"}))

	job := NewJob(s, staticRates{}, "USD")
	assert.ErrorContains(t, job.Run(ctx), "no rate for EUR_USD")
}

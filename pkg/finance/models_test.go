package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bcaldwell/ledgerline/pkg/recurrence"
)

func ptr[T any](v T) *T {
	return &v
}

func TestTransactionEffectOn(t *testing.T) {
	amount := decimal.RequireFromString("25.50")

	income := Transaction{AccountID: "a", Type: Income, Amount: amount}
	expense := Transaction{AccountID: "a", Type: Expense, Amount: amount}
	transfer := Transaction{AccountID: "a", TransferAccountID: ptr("b"), Type: Transfer, Amount: amount}

	assert.True(t, income.EffectOn("a").Equal(amount))
	assert.True(t, expense.EffectOn("a").Equal(amount.Neg()))
	assert.True(t, transfer.EffectOn("a").Equal(amount.Neg()))
	assert.True(t, transfer.EffectOn("b").Equal(amount))
	assert.True(t, income.EffectOn("b").IsZero())
	assert.Equal(t, []string{"a", "b"}, transfer.AccountIDs())
	assert.Equal(t, []string{"a"}, expense.AccountIDs())
}

func TestTransactionValidate(t *testing.T) {
	base := func() Transaction {
		return Transaction{
			AccountID: "a",
			Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Amount:    decimal.NewFromInt(10),
			Type:      Expense,
		}
	}

	tx := base()
	assert.NoError(t, tx.Validate())

	tx = base()
	tx.Amount = decimal.Zero
	assert.ErrorIs(t, tx.Validate(), ErrInvalid)

	tx = base()
	tx.Type = Transfer
	assert.ErrorIs(t, tx.Validate(), ErrInvalid)

	tx.TransferAccountID = ptr("a")
	assert.ErrorIs(t, tx.Validate(), ErrInvalid)

	tx.TransferAccountID = ptr("b")
	assert.NoError(t, tx.Validate())

	tx = base()
	tx.TransferAccountID = ptr("b")
	assert.ErrorIs(t, tx.Validate(), ErrInvalid)
}

func TestRecurringOccurrencesHonoursEndDate(t *testing.T) {
	end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	r := RecurringTransaction{
		Frequency:   recurrence.Weekly,
		NextDueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     &end,
		Type:        Expense,
		Amount:      decimal.NewFromInt(5),
	}

	got := r.Occurrences(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	assert.Len(t, got, 3)

	r.Paused = true
	assert.Empty(t, r.Occurrences(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.ActiveOn(end))
}

func TestRecurringOccurrencesFollowAnchorDay(t *testing.T) {
	r := RecurringTransaction{
		Frequency:   recurrence.Monthly,
		NextDueDate: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		AnchorDate:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Type:        Expense,
		Amount:      decimal.NewFromInt(5),
	}

	got := r.Occurrences(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, []time.Time{
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}, got)

	next, ok := r.NextAfter(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), next)

	// rows stored before the anchor was tracked fall back to the due date
	r.AnchorDate = time.Time{}
	next, _ = r.NextAfter(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC), next)
}

func TestRecurringMonthlyAmount(t *testing.T) {
	r := RecurringTransaction{Frequency: recurrence.Weekly, Type: Expense, Amount: decimal.NewFromInt(30)}
	assert.Equal(t, "-130", r.MonthlyAmount().String())

	r = RecurringTransaction{Frequency: recurrence.Quarterly, Type: Income, Amount: decimal.NewFromInt(300)}
	assert.Equal(t, "100", r.MonthlyAmount().String())
}

func TestBudgetAppliesTo(t *testing.T) {
	b := Budget{}
	assert.True(t, b.AppliesTo(time.Now()))

	month := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	b.Month = &month
	assert.True(t, b.AppliesTo(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)))
	assert.False(t, b.AppliesTo(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAccountTypeValid(t *testing.T) {
	for _, typ := range []AccountType{Checking, Savings, Credit, InvestmentAccount, Cash, Loan} {
		assert.True(t, typ.Valid(), typ)
	}
	assert.Equal(t, AccountType("investment"), InvestmentAccount)
	assert.False(t, AccountType("brokerage").Valid())
}

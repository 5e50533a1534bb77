package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/recurrence"
)

type BalanceProjection struct {
	AccountID string    `json:"account_id"`
	From      time.Time `json:"from"`
	Target    time.Time `json:"target"`
	// Current is the balance at the end of From. The stored ledger balance
	// already includes future dated rows, so those are backed out here.
	Current            decimal.Decimal `json:"current"`
	FutureTransactions decimal.Decimal `json:"future_transactions"`
	Recurring          decimal.Decimal `json:"recurring"`
	Projected          decimal.Decimal `json:"projected"`
	Occurrences        []Occurrence    `json:"occurrences"`
}

// ProjectBalance projects an account balance through target: the balance as
// of from, plus transactions dated in (from, target], plus recurring
// occurrences in [from, target].
func ProjectBalance(account finance.Account, transactions []finance.Transaction, recurring []finance.RecurringTransaction, from, target time.Time) BalanceProjection {
	from = recurrence.Date(from)
	target = recurrence.Date(target)

	current := account.Balance
	future := decimal.Zero

	for i := range transactions {
		t := &transactions[i]
		if !t.Date.After(from) {
			continue
		}

		effect := t.EffectOn(account.ID)
		current = current.Sub(effect)
		if !t.Date.After(target) {
			future = future.Add(effect)
		}
	}

	occurrences := expand(recurring, from, target, func(r *finance.RecurringTransaction) bool {
		return r.AccountID == account.ID
	})
	recurringTotal := Total(occurrences)

	return BalanceProjection{
		AccountID:          account.ID,
		From:               from,
		Target:             target,
		Current:            finance.Round(current, 2),
		FutureTransactions: finance.Round(future, 2),
		Recurring:          finance.Round(recurringTotal, 2),
		Projected:          finance.Round(current.Add(future).Add(recurringTotal), 2),
		Occurrences:        occurrences,
	}
}

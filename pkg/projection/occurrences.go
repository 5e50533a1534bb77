// Package projection turns ledger rows into forward looking views: balance
// projections, the recurring payments calendar, cash-flow forecasts and
// progress summaries. Nothing in here touches the database.
package projection

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
)

// Occurrence is one projected instance of a recurring transaction.
type Occurrence struct {
	Date        time.Time               `json:"date"`
	RecurringID string                  `json:"recurring_id"`
	AccountID   string                  `json:"account_id"`
	Description string                  `json:"description"`
	Category    string                  `json:"category,omitempty"`
	Type        finance.TransactionType `json:"type"`
	// Amount is signed: negative for expenses.
	Amount decimal.Decimal `json:"amount"`
}

func expand(recurring []finance.RecurringTransaction, start, end time.Time, keep func(*finance.RecurringTransaction) bool) []Occurrence {
	occurrences := []Occurrence{}

	for i := range recurring {
		r := &recurring[i]
		if keep != nil && !keep(r) {
			continue
		}

		for _, date := range r.Occurrences(start, end) {
			occurrences = append(occurrences, Occurrence{
				Date:        date,
				RecurringID: r.ID,
				AccountID:   r.AccountID,
				Description: r.Description,
				Category:    r.Category,
				Type:        r.Type,
				Amount:      r.SignedAmount(),
			})
		}
	}

	slices.SortStableFunc(occurrences, func(a, b Occurrence) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Description, b.Description)
	})

	return occurrences
}

// CalendarMonth lists every recurring occurrence inside the given month.
func CalendarMonth(recurring []finance.RecurringTransaction, year int, month time.Month) []Occurrence {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return expand(recurring, start, finance.MonthEnd(start), nil)
}

// Upcoming lists recurring occurrences in the next days, starting at from.
func Upcoming(recurring []finance.RecurringTransaction, from time.Time, days int) []Occurrence {
	if days < 1 {
		return []Occurrence{}
	}
	return expand(recurring, from, from.AddDate(0, 0, days-1), nil)
}

// Total sums the signed amounts.
func Total(occurrences []Occurrence) decimal.Decimal {
	total := decimal.Zero
	for _, o := range occurrences {
		total = total.Add(o.Amount)
	}
	return total
}

package projection

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/recurrence"
)

type ItemWithDate interface {
	ItemDate() time.Time
}

// EnsureOrderedForDate appends one item per missing day between the last item
// and date, each derived from its predecessor. Returns items unchanged when
// the last item is already at or after date.
func EnsureOrderedForDate[T ItemWithDate](date time.Time, newT func(time.Time, *T) T, items []T) []T {
	if len(items) == 0 {
		return append(items, newT(date, nil))
	}

	last := items[len(items)-1]
	for d := last.ItemDate().AddDate(0, 0, 1); !d.After(date); d = d.AddDate(0, 0, 1) {
		last = newT(d, &last)
		items = append(items, last)
	}

	return items
}

type BalancePoint struct {
	Date    time.Time       `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

func (p BalancePoint) ItemDate() time.Time {
	return p.Date
}

// DailyBalances reconstructs the closing balance of every day in [from, to]
// from the account's current balance and its transactions.
func DailyBalances(account finance.Account, transactions []finance.Transaction, from, to time.Time) []BalancePoint {
	from = recurrence.Date(from)
	to = recurrence.Date(to)
	if to.Before(from) {
		return []BalancePoint{}
	}

	sorted := slices.Clone(transactions)
	slices.SortStableFunc(sorted, func(a, b finance.Transaction) int {
		return a.Date.Compare(b.Date)
	})

	// balance before from: back out everything dated on or after it
	opening := account.Balance
	for i := range sorted {
		if !sorted[i].Date.Before(from) {
			opening = opening.Sub(sorted[i].EffectOn(account.ID))
		}
	}

	carry := func(t time.Time, last *BalancePoint) BalancePoint {
		if last == nil {
			return BalancePoint{Date: t, Balance: opening}
		}
		return BalancePoint{Date: t, Balance: last.Balance}
	}

	points := EnsureOrderedForDate(from, carry, []BalancePoint{})

	for i := range sorted {
		t := &sorted[i]
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}

		points = EnsureOrderedForDate(recurrence.Date(t.Date), carry, points)
		last := &points[len(points)-1]
		last.Balance = finance.Round(last.Balance.Add(t.EffectOn(account.ID)), 2)
	}

	return EnsureOrderedForDate(to, carry, points)
}

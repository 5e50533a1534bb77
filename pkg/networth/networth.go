// Package networth records daily account balances and net worth for every
// user, converted into the base currency.
package networth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"k8s.io/klog"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/projection"
	"github.com/bcaldwell/ledgerline/pkg/recurrence"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

type RateSource interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

type Job struct {
	store        *store.Store
	rates        RateSource
	baseCurrency string
	// BackfillDays rewrites this many days before today on every run, which
	// picks up back-dated transactions.
	BackfillDays int
	Now          func() time.Time
}

func NewJob(s *store.Store, rates RateSource, baseCurrency string) *Job {
	return &Job{store: s, rates: rates, baseCurrency: baseCurrency, Now: time.Now}
}

func (j *Job) Run(ctx context.Context) error {
	users, err := j.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var errs []error
	for _, user := range users {
		if err := j.RunForUser(ctx, user); err != nil {
			slog.Error("failed to snapshot user", "user", user, "err", err)
			errs = append(errs, fmt.Errorf("user %s: %w", user, err))
		}
	}

	return errors.Join(errs...)
}

// RunForUser writes the snapshots and net worth rows of one user for the
// backfill window ending today.
func (j *Job) RunForUser(ctx context.Context, userID string) error {
	today := recurrence.Date(j.Now().UTC())
	from := today.AddDate(0, 0, -j.BackfillDays)

	accounts, err := j.store.ListAccounts(ctx, userID)
	if err != nil {
		return err
	}

	snapshots := []finance.AccountSnapshot{}
	for _, account := range accounts {
		if account.Archived {
			continue
		}

		s, err := j.accountSnapshots(ctx, account, from, today)
		if err != nil {
			return fmt.Errorf("account %s: %w", account.Name, err)
		}
		snapshots = append(snapshots, s...)
	}

	if err := j.store.UpsertSnapshots(ctx, snapshots); err != nil {
		return err
	}
	klog.Infof("Wrote %d account snapshots for %s\n", len(snapshots), userID)

	holdings, err := j.store.ListInvestments(ctx, userID)
	if err != nil {
		return err
	}

	rows, err := j.netWorth(ctx, userID, snapshots, holdings, from, today)
	if err != nil {
		return err
	}

	if err := j.store.UpsertNetWorth(ctx, rows); err != nil {
		return err
	}
	slog.Info("wrote net worth", "user", userID, "rows", len(rows))

	return nil
}

func (j *Job) accountSnapshots(ctx context.Context, account finance.Account, from, to time.Time) ([]finance.AccountSnapshot, error) {
	// everything from the window start on, future dated rows included, since
	// the stored balance already counts them
	transactions, err := j.store.ListTransactions(ctx, account.UserID, store.TransactionFilter{AccountID: account.ID, From: &from})
	if err != nil {
		return nil, err
	}

	rate, err := j.rates.Rate(ctx, account.Currency, j.baseCurrency)
	if err != nil {
		return nil, err
	}

	points := projection.DailyBalances(account, transactions, from, to)
	snapshots := make([]finance.AccountSnapshot, 0, len(points))

	for _, p := range points {
		snapshots = append(snapshots, finance.AccountSnapshot{
			Key:          finance.SnapshotKey(p.Date, account.UserID, account.ID),
			UserID:       account.UserID,
			AccountID:    account.ID,
			AccountName:  account.Name,
			Date:         p.Date,
			Currency:     account.Currency,
			Balance:      p.Balance,
			BaseCurrency: j.baseCurrency,
			BaseBalance:  finance.Round(p.Balance.Mul(rate), 2),
		})
	}

	return snapshots, nil
}

// netWorth totals the snapshots per day. Holdings have no price history, so
// they count at their current price from their purchase date on.
func (j *Job) netWorth(ctx context.Context, userID string, snapshots []finance.AccountSnapshot, holdings []finance.Investment, from, to time.Time) ([]finance.NetWorth, error) {
	newRow := func(t time.Time, _ *finance.NetWorth) finance.NetWorth {
		return finance.NetWorth{
			Key:          finance.NetWorthKey(t, userID),
			UserID:       userID,
			Date:         t,
			BaseCurrency: j.baseCurrency,
			Total:        decimal.Zero,
			Breakdown:    map[string]decimal.Decimal{},
		}
	}

	rows := projection.EnsureOrderedForDate(to, newRow, projection.EnsureOrderedForDate(from, newRow, []finance.NetWorth{}))
	index := func(date time.Time) int {
		return int(recurrence.Date(date).Sub(from).Hours() / 24)
	}

	sorted := slices.Clone(snapshots)
	slices.SortStableFunc(sorted, func(a, b finance.AccountSnapshot) int {
		return a.Date.Compare(b.Date)
	})

	for _, s := range sorted {
		i := index(s.Date)
		if i < 0 || i >= len(rows) {
			continue
		}
		addToRow(&rows[i], s.Currency, s.Balance, s.BaseBalance)
	}

	for _, h := range holdings {
		rate, err := j.rates.Rate(ctx, h.Currency, j.baseCurrency)
		if err != nil {
			return nil, fmt.Errorf("holding %s: %w", h.Symbol, err)
		}

		value := h.MarketValue()
		base := finance.Round(value.Mul(rate), 2)

		for i := range rows {
			if h.PurchaseDate != nil && rows[i].Date.Before(recurrence.Date(*h.PurchaseDate)) {
				continue
			}
			addToRow(&rows[i], h.Currency, value, base)
		}
	}

	// clean up values
	for i := range rows {
		rows[i].Total = finance.Round(rows[i].Total, 2)
		for currency, amount := range rows[i].Breakdown {
			rows[i].Breakdown[currency] = finance.Round(amount, 2)
		}
	}

	return rows, nil
}

func addToRow(row *finance.NetWorth, currency string, native, base decimal.Decimal) {
	row.Total = row.Total.Add(base)
	row.Breakdown[currency] = row.Breakdown[currency].Add(native)
}

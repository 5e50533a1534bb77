// Package recurringjob posts the transactions recurring rules have come due
// for and moves each rule's anchor forward.
package recurringjob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/klog"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/recurrence"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

type Processor struct {
	store *store.Store
	// Now is overridable for tests
	Now func() time.Time
}

func NewProcessor(s *store.Store) *Processor {
	return &Processor{store: s, Now: time.Now}
}

// Result counts what a run did.
type Result struct {
	Processed int
	Posted    int
	Finished  int
	Skipped   int
}

func (p *Processor) Run(ctx context.Context) error {
	_, err := p.Process(ctx)
	return err
}

// Process posts every occurrence up to today of every due rule. Each rule is
// handled in its own database transaction; a failing rule is logged and the
// rest still run.
func (p *Processor) Process(ctx context.Context) (Result, error) {
	today := recurrence.Date(p.Now().UTC())
	result := Result{}

	due, err := p.store.ListDueRecurring(ctx, today)
	if err != nil {
		return result, fmt.Errorf("failed to list due recurring transactions: %w", err)
	}

	klog.Infof("Found %d recurring transactions due on or before %s\n", len(due), today.Format(finance.DateFormat))

	var errs []error
	for i := range due {
		r := &due[i]

		if !r.Frequency.Valid() {
			slog.Warn("skipping recurring transaction with unknown frequency", "id", r.ID, "frequency", r.Frequency)
			result.Skipped++
			continue
		}

		posted, finished, err := p.processOne(ctx, r, today)
		if err != nil {
			slog.Error("failed to process recurring transaction", "id", r.ID, "err", err)
			errs = append(errs, fmt.Errorf("recurring %s: %w", r.ID, err))
			continue
		}

		result.Processed++
		result.Posted += posted
		if finished {
			result.Finished++
		}
	}

	klog.Infof("Posted %d transactions from %d recurring transactions\n", result.Posted, result.Processed)

	return result, errors.Join(errs...)
}

func (p *Processor) processOne(ctx context.Context, due *finance.RecurringTransaction, today time.Time) (posted int, finished bool, err error) {
	err = p.store.InTx(ctx, func(ctx context.Context, tx *store.Store) error {
		posted, finished = 0, false

		// re-read inside the transaction so a concurrent run cannot post twice
		r, err := tx.GetRecurring(ctx, due.UserID, due.ID)
		if err != nil {
			return err
		}
		if r.Paused || r.NextDueDate.After(today) {
			return nil
		}

		end := today
		if r.EndDate != nil && r.EndDate.Before(end) {
			end = *r.EndDate
		}

		dates := r.Occurrences(r.NextDueDate, end)
		for _, date := range dates {
			t := transactionFor(r, date)
			if err := tx.CreateTransaction(ctx, r.UserID, t); err != nil {
				return fmt.Errorf("failed to post occurrence on %s: %w", date.Format(finance.DateFormat), err)
			}
			posted++
		}

		next := r.NextDueDate
		if len(dates) > 0 {
			var ok bool
			next, ok = r.NextAfter(dates[len(dates)-1])
			if !ok {
				return fmt.Errorf("%w: %q", recurrence.ErrUnknownFrequency, r.Frequency)
			}
		}

		finished = r.EndDate != nil && next.After(*r.EndDate)
		return tx.AdvanceRecurring(ctx, r, next, finished)
	})

	return posted, finished, err
}

func transactionFor(r *finance.RecurringTransaction, date time.Time) *finance.Transaction {
	id := r.ID
	return &finance.Transaction{
		AccountID:   r.AccountID,
		RecurringID: &id,
		Date:        date,
		Description: r.Description,
		Payee:       r.Payee,
		Category:    r.Category,
		Amount:      r.Amount,
		Type:        r.Type,
	}
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/recurrence"
)

func (s *Store) CreateRecurring(ctx context.Context, userID string, r *finance.RecurringTransaction) error {
	r.UserID = userID
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.checkAccounts(ctx, userID, r.AccountID); err != nil {
		return err
	}

	r.ID = newID()
	r.CreatedAt = now()
	r.NextDueDate = recurrence.Date(r.NextDueDate)
	r.AnchorDate = r.NextDueDate
	r.Amount = finance.Round(r.Amount, 2)

	if _, err := s.db.NewInsert().Model(r).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert recurring transaction: %w", err)
	}
	return nil
}

func (s *Store) GetRecurring(ctx context.Context, userID, id string) (*finance.RecurringTransaction, error) {
	return getOwned[finance.RecurringTransaction](ctx, s.db, userID, id)
}

func (s *Store) ListRecurring(ctx context.Context, userID string) ([]finance.RecurringTransaction, error) {
	return listOwned[finance.RecurringTransaction](ctx, s.db, userID, "r.next_due_date ASC", "r.description ASC")
}

func (s *Store) UpdateRecurring(ctx context.Context, userID string, r *finance.RecurringTransaction) error {
	r.UserID = userID
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.checkAccounts(ctx, userID, r.AccountID); err != nil {
		return err
	}

	r.NextDueDate = recurrence.Date(r.NextDueDate)
	r.AnchorDate = r.NextDueDate
	r.Amount = finance.Round(r.Amount, 2)

	err := updateOwned(ctx, s.db, userID, r.ID, r,
		"account_id", "description", "payee", "category", "amount", "type",
		"frequency", "next_due_date", "anchor_date", "end_date", "paused")
	if err != nil {
		return err
	}

	updated, err := s.GetRecurring(ctx, userID, r.ID)
	if err != nil {
		return err
	}
	*r = *updated
	return nil
}

func (s *Store) DeleteRecurring(ctx context.Context, userID, id string) error {
	return deleteOwned[finance.RecurringTransaction](ctx, s.db, userID, id)
}

// ListDueRecurring returns unpaused recurring transactions of every user whose
// next due date is on or before date.
func (s *Store) ListDueRecurring(ctx context.Context, date time.Time) ([]finance.RecurringTransaction, error) {
	rows := []finance.RecurringTransaction{}
	err := s.db.NewSelect().Model(&rows).
		Where("r.paused = ?", false).
		Where("r.next_due_date <= ?", date).
		Order("r.next_due_date ASC", "r.id ASC").
		Scan(ctx)
	return rows, err
}

// AdvanceRecurring moves the next due date, leaving the anchor alone, pausing the recurrence once it has
// run past its end date.
func (s *Store) AdvanceRecurring(ctx context.Context, r *finance.RecurringTransaction, next time.Time, finished bool) error {
	r.NextDueDate = next
	r.Paused = r.Paused || finished

	return updateOwned(ctx, s.db, r.UserID, r.ID, r, "next_due_date", "paused")
}

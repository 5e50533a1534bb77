package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
)

func (s *Store) CreateGoal(ctx context.Context, userID string, g *finance.SavingsGoal) error {
	g.UserID = userID
	if err := g.Validate(); err != nil {
		return err
	}
	if g.AccountID != nil {
		if err := s.checkAccounts(ctx, userID, *g.AccountID); err != nil {
			return err
		}
	}

	g.ID = newID()
	g.CreatedAt = now()

	if _, err := s.db.NewInsert().Model(g).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert savings goal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (*finance.SavingsGoal, error) {
	return getOwned[finance.SavingsGoal](ctx, s.db, userID, id)
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]finance.SavingsGoal, error) {
	return listOwned[finance.SavingsGoal](ctx, s.db, userID, "g.name ASC")
}

func (s *Store) UpdateGoal(ctx context.Context, userID string, g *finance.SavingsGoal) error {
	g.UserID = userID
	if err := g.Validate(); err != nil {
		return err
	}
	if g.AccountID != nil {
		if err := s.checkAccounts(ctx, userID, *g.AccountID); err != nil {
			return err
		}
	}

	err := updateOwned(ctx, s.db, userID, g.ID, g, "name", "target_amount", "current_amount", "target_date", "account_id")
	if err != nil {
		return err
	}

	updated, err := s.GetGoal(ctx, userID, g.ID)
	if err != nil {
		return err
	}
	*g = *updated
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	return deleteOwned[finance.SavingsGoal](ctx, s.db, userID, id)
}

// Contribute adds amount to the goal's saved total. Negative amounts withdraw,
// but never below zero.
func (s *Store) Contribute(ctx context.Context, userID, id string, amount decimal.Decimal) (*finance.SavingsGoal, error) {
	var goal *finance.SavingsGoal

	err := s.InTx(ctx, func(ctx context.Context, tx *Store) error {
		g, err := tx.GetGoal(ctx, userID, id)
		if err != nil {
			return err
		}

		g.CurrentAmount = finance.Round(g.CurrentAmount.Add(amount), 2)
		if g.CurrentAmount.IsNegative() {
			return fmt.Errorf("%w: withdrawal exceeds saved amount", finance.ErrInvalid)
		}

		if err := updateOwned(ctx, tx.db, userID, id, g, "current_amount"); err != nil {
			return err
		}
		goal = g
		return nil
	})

	return goal, err
}

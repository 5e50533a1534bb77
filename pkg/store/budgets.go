package store

import (
	"context"
	"fmt"

	"github.com/bcaldwell/ledgerline/pkg/finance"
)

func (s *Store) CreateBudget(ctx context.Context, userID string, b *finance.Budget) error {
	b.UserID = userID
	if err := b.Validate(); err != nil {
		return err
	}

	b.ID = newID()
	b.CreatedAt = now()

	if _, err := s.db.NewInsert().Model(b).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id string) (*finance.Budget, error) {
	return getOwned[finance.Budget](ctx, s.db, userID, id)
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]finance.Budget, error) {
	return listOwned[finance.Budget](ctx, s.db, userID, "b.category ASC")
}

func (s *Store) UpdateBudget(ctx context.Context, userID string, b *finance.Budget) error {
	b.UserID = userID
	if err := b.Validate(); err != nil {
		return err
	}

	if err := updateOwned(ctx, s.db, userID, b.ID, b, "category", "amount", "month"); err != nil {
		return err
	}

	updated, err := s.GetBudget(ctx, userID, b.ID)
	if err != nil {
		return err
	}
	*b = *updated
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	return deleteOwned[finance.Budget](ctx, s.db, userID, id)
}

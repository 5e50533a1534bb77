package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
)

func (s *Store) CreateInvestment(ctx context.Context, userID string, i *finance.Investment) error {
	i.UserID = userID
	if err := i.Validate(); err != nil {
		return err
	}
	if i.AccountID != nil {
		if err := s.checkAccounts(ctx, userID, *i.AccountID); err != nil {
			return err
		}
	}

	i.ID = newID()
	i.UpdatedAt = now()
	if i.CurrentPrice.IsZero() {
		i.CurrentPrice = i.PurchasePrice
	}

	if _, err := s.db.NewInsert().Model(i).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert investment: %w", err)
	}
	return nil
}

func (s *Store) GetInvestment(ctx context.Context, userID, id string) (*finance.Investment, error) {
	return getOwned[finance.Investment](ctx, s.db, userID, id)
}

func (s *Store) ListInvestments(ctx context.Context, userID string) ([]finance.Investment, error) {
	return listOwned[finance.Investment](ctx, s.db, userID, "i.symbol ASC")
}

func (s *Store) UpdateInvestment(ctx context.Context, userID string, i *finance.Investment) error {
	i.UserID = userID
	if err := i.Validate(); err != nil {
		return err
	}
	if i.AccountID != nil {
		if err := s.checkAccounts(ctx, userID, *i.AccountID); err != nil {
			return err
		}
	}

	i.UpdatedAt = now()
	err := updateOwned(ctx, s.db, userID, i.ID, i,
		"account_id", "symbol", "name", "quantity", "purchase_price", "current_price",
		"currency", "purchase_date", "updated_at")
	if err != nil {
		return err
	}

	updated, err := s.GetInvestment(ctx, userID, i.ID)
	if err != nil {
		return err
	}
	*i = *updated
	return nil
}

func (s *Store) DeleteInvestment(ctx context.Context, userID, id string) error {
	return deleteOwned[finance.Investment](ctx, s.db, userID, id)
}

// UpdatePrice records the latest quote for a holding.
func (s *Store) UpdatePrice(ctx context.Context, userID, id string, price decimal.Decimal) (*finance.Investment, error) {
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", finance.ErrInvalid)
	}

	i := &finance.Investment{ID: id, CurrentPrice: price, UpdatedAt: now()}
	if err := updateOwned(ctx, s.db, userID, id, i, "current_price", "updated_at"); err != nil {
		return nil, err
	}

	return s.GetInvestment(ctx, userID, id)
}

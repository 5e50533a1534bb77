package store

import (
	"context"
	"fmt"

	"github.com/bcaldwell/ledgerline/pkg/finance"
)

func (s *Store) CreateAccount(ctx context.Context, userID string, a *finance.Account) error {
	a.UserID = userID
	if err := a.Validate(); err != nil {
		return err
	}

	a.ID = newID()
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt
	a.Balance = finance.Round(a.Balance, 2)

	if _, err := s.db.NewInsert().Model(a).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID, id string) (*finance.Account, error) {
	return getOwned[finance.Account](ctx, s.db, userID, id)
}

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]finance.Account, error) {
	return listOwned[finance.Account](ctx, s.db, userID, "a.name ASC")
}

// UpdateAccount writes the descriptive fields. The balance only moves through
// transactions.
func (s *Store) UpdateAccount(ctx context.Context, userID string, a *finance.Account) error {
	a.UserID = userID
	if err := a.Validate(); err != nil {
		return err
	}

	a.UpdatedAt = now()
	err := updateOwned(ctx, s.db, userID, a.ID, a, "name", "type", "currency", "institution", "archived", "updated_at")
	if err != nil {
		return err
	}

	updated, err := s.GetAccount(ctx, userID, a.ID)
	if err != nil {
		return err
	}
	*a = *updated
	return nil
}

// DeleteAccount removes an account together with its transactions and
// recurring transactions. Transfers touching it are removed as well and
// reverted on the other account. Goals and holdings linked to it are kept
// and unlinked.
func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.InTx(ctx, func(ctx context.Context, tx *Store) error {
		if _, err := tx.GetAccount(ctx, userID, id); err != nil {
			return err
		}

		transactions, err := tx.ListTransactions(ctx, userID, TransactionFilter{AccountID: id})
		if err != nil {
			return err
		}

		for i := range transactions {
			if err := tx.deleteTransaction(ctx, userID, &transactions[i]); err != nil {
				return err
			}
		}

		_, err = tx.db.NewDelete().Model((*finance.RecurringTransaction)(nil)).
			Where("account_id = ?", id).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return err
		}

		for _, model := range []interface{}{(*finance.SavingsGoal)(nil), (*finance.Investment)(nil)} {
			_, err = tx.db.NewUpdate().Model(model).
				Set("account_id = NULL").
				Where("account_id = ?", id).
				Where("user_id = ?", userID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to unlink %T: %w", model, err)
			}
		}

		return deleteOwned[finance.Account](ctx, tx.db, userID, id)
	})
}

// ListUsers returns every user owning at least one account.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	users := []string{}
	err := s.db.NewSelect().Model((*finance.Account)(nil)).
		ColumnExpr("DISTINCT a.user_id").
		Order("a.user_id").
		Scan(ctx, &users)
	return users, err
}

func (s *Store) checkAccounts(ctx context.Context, userID string, ids ...string) error {
	for _, id := range ids {
		if _, err := s.GetAccount(ctx, userID, id); err != nil {
			return fmt.Errorf("account %s: %w", id, err)
		}
	}
	return nil
}

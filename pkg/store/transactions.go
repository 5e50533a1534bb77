package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/bcaldwell/ledgerline/pkg/finance"
)

type TransactionFilter struct {
	// AccountID matches both sides of a transfer.
	AccountID   string
	From        *time.Time
	To          *time.Time
	Category    string
	RecurringID string
	Type        finance.TransactionType
	Limit       int
	Offset      int
}

// CreateTransaction inserts t and moves the balances it touches.
func (s *Store) CreateTransaction(ctx context.Context, userID string, t *finance.Transaction) error {
	t.UserID = userID
	if err := t.Validate(); err != nil {
		return err
	}

	return s.InTx(ctx, func(ctx context.Context, tx *Store) error {
		return tx.insertTransaction(ctx, t)
	})
}

func (s *Store) insertTransaction(ctx context.Context, t *finance.Transaction) error {
	if err := s.checkAccounts(ctx, t.UserID, t.AccountIDs()...); err != nil {
		return err
	}

	t.ID = newID()
	t.CreatedAt = now()
	t.Amount = finance.Round(t.Amount, 2)

	if _, err := s.db.NewInsert().Model(t).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return s.applyBalance(ctx, t, false)
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (*finance.Transaction, error) {
	return getOwned[finance.Transaction](ctx, s.db, userID, id)
}

func (s *Store) ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]finance.Transaction, error) {
	rows := []finance.Transaction{}
	q := s.db.NewSelect().Model(&rows).Where("t.user_id = ?", userID)

	if filter.AccountID != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("t.account_id = ?", filter.AccountID).
				WhereOr("t.transfer_account_id = ?", filter.AccountID)
		})
	}
	if filter.From != nil {
		q = q.Where("t.date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("t.date <= ?", *filter.To)
	}
	if filter.Category != "" {
		q = q.Where("t.category = ?", filter.Category)
	}
	if filter.RecurringID != "" {
		q = q.Where("t.recurring_id = ?", filter.RecurringID)
	}
	if filter.Type != "" {
		q = q.Where("t.type = ?", filter.Type)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	err := q.Order("t.date DESC", "t.created_at DESC").Scan(ctx)
	return rows, err
}

// UpdateTransaction replaces t, reverting the old balance effect and applying
// the new one.
func (s *Store) UpdateTransaction(ctx context.Context, userID string, t *finance.Transaction) error {
	t.UserID = userID
	if err := t.Validate(); err != nil {
		return err
	}

	return s.InTx(ctx, func(ctx context.Context, tx *Store) error {
		old, err := tx.GetTransaction(ctx, userID, t.ID)
		if err != nil {
			return err
		}

		if err := tx.checkAccounts(ctx, userID, t.AccountIDs()...); err != nil {
			return err
		}

		if err := tx.applyBalance(ctx, old, true); err != nil {
			return err
		}

		t.CreatedAt = old.CreatedAt
		t.RecurringID = old.RecurringID
		t.ImportKey = old.ImportKey
		t.Amount = finance.Round(t.Amount, 2)

		err = updateOwned(ctx, tx.db, userID, t.ID, t,
			"account_id", "transfer_account_id", "date", "description", "payee", "category",
			"amount", "type", "memo", "tags")
		if err != nil {
			return err
		}

		return tx.applyBalance(ctx, t, false)
	})
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.InTx(ctx, func(ctx context.Context, tx *Store) error {
		t, err := tx.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		return tx.deleteTransaction(ctx, userID, t)
	})
}

func (s *Store) deleteTransaction(ctx context.Context, userID string, t *finance.Transaction) error {
	if err := deleteOwned[finance.Transaction](ctx, s.db, userID, t.ID); err != nil {
		return err
	}
	return s.applyBalance(ctx, t, true)
}

// UpsertImported writes transactions keyed by ImportKey: new keys are
// inserted, known keys are updated in place. Rows without a key are rejected.
func (s *Store) UpsertImported(ctx context.Context, userID string, transactions []finance.Transaction) (inserted int, updated int, err error) {
	err = s.InTx(ctx, func(ctx context.Context, tx *Store) error {
		for i := range transactions {
			t := &transactions[i]
			t.UserID = userID

			if t.ImportKey == nil || *t.ImportKey == "" {
				return fmt.Errorf("%w: imported transaction without import key", finance.ErrInvalid)
			}
			if err := t.Validate(); err != nil {
				return fmt.Errorf("import key %s: %w", *t.ImportKey, err)
			}

			existing := new(finance.Transaction)
			err := tx.db.NewSelect().Model(existing).
				Where("t.user_id = ?", userID).
				Where("t.import_key = ?", *t.ImportKey).
				Scan(ctx)

			switch err = notFound(err); {
			case err == ErrNotFound:
				if err := tx.insertTransaction(ctx, t); err != nil {
					return err
				}
				inserted++
			case err != nil:
				return err
			default:
				t.ID = existing.ID
				if err := tx.UpdateTransaction(ctx, userID, t); err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})

	return inserted, updated, err
}

// SpendByCategory sums expenses per category over [from, to].
func (s *Store) SpendByCategory(ctx context.Context, userID string, from, to time.Time) (map[string]decimal.Decimal, error) {
	var rows []struct {
		Category string          `bun:"category"`
		Total    decimal.Decimal `bun:"total"`
	}

	err := s.db.NewSelect().Model((*finance.Transaction)(nil)).
		ColumnExpr("t.category AS category").
		ColumnExpr("SUM(t.amount) AS total").
		Where("t.user_id = ?", userID).
		Where("t.type = ?", finance.Expense).
		Where("t.date >= ?", from).
		Where("t.date <= ?", to).
		Group("t.category").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	spent := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		spent[r.Category] = finance.Round(r.Total, 2)
	}
	return spent, nil
}

func (s *Store) applyBalance(ctx context.Context, t *finance.Transaction, revert bool) error {
	for _, id := range t.AccountIDs() {
		delta := t.EffectOn(id)
		if revert {
			delta = delta.Neg()
		}

		_, err := s.db.NewUpdate().Model((*finance.Account)(nil)).
			Set("balance = balance + ?", delta).
			Set("updated_at = ?", now()).
			Where("id = ?", id).
			Where("user_id = ?", t.UserID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update balance of account %s: %w", id, err)
		}
	}
	return nil
}

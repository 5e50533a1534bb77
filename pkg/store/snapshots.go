package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bcaldwell/ledgerline/pkg/dbutils"
	"github.com/bcaldwell/ledgerline/pkg/finance"
)

// UpsertSnapshots writes account snapshots in batches, replacing rows with the
// same key.
func (s *Store) UpsertSnapshots(ctx context.Context, snapshots []finance.AccountSnapshot) error {
	model := (*finance.AccountSnapshot)(nil)

	for i := 0; i < len(snapshots); i += s.batchSize {
		endIndex := min(len(snapshots), i+s.batchSize)

		records := snapshots[i:endIndex]
		_, err := s.db.NewInsert().
			Model(&records).
			On("CONFLICT (key) DO UPDATE").
			Set(dbutils.TableSetString(s.db, model, "key")).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("error writing account snapshots: %w", err)
		}
	}

	return nil
}

func (s *Store) UpsertNetWorth(ctx context.Context, rows []finance.NetWorth) error {
	if len(rows) == 0 {
		return nil
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (key) DO UPDATE").
		Set("total = EXCLUDED.total").
		Set("breakdown = EXCLUDED.breakdown").
		Set("base_currency = EXCLUDED.base_currency").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to write net worth: %w", err)
	}
	return nil
}

func (s *Store) ListNetWorth(ctx context.Context, userID string, from, to time.Time) ([]finance.NetWorth, error) {
	rows := []finance.NetWorth{}
	err := s.db.NewSelect().Model(&rows).
		Where("n.user_id = ?", userID).
		Where("n.date >= ?", from).
		Where("n.date <= ?", to).
		Order("n.date ASC").
		Scan(ctx)
	return rows, err
}

func (s *Store) ListSnapshots(ctx context.Context, userID, accountID string, from, to time.Time) ([]finance.AccountSnapshot, error) {
	rows := []finance.AccountSnapshot{}
	err := s.db.NewSelect().Model(&rows).
		Where("s.user_id = ?", userID).
		Where("s.account_id = ?", accountID).
		Where("s.date >= ?", from).
		Where("s.date <= ?", to).
		Order("s.date ASC").
		Scan(ctx)
	return rows, err
}

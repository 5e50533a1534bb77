// Package store persists ledger rows with bun. Every query that serves a user
// is scoped by user_id, so another user's row behaves exactly like a missing
// one.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/bcaldwell/ledgerline/pkg/finance"
)

var ErrNotFound = errors.New("not found")

const defaultBatchSize = 1000

type Store struct {
	db        bun.IDB
	batchSize int
}

func New(db bun.IDB) *Store {
	return &Store{db: db, batchSize: defaultBatchSize}
}

// WithBatchSize sets how many rows a bulk upsert writes per statement.
func (s *Store) WithBatchSize(n int) *Store {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// InTx runs fn against a store bound to a single database transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: tx, batchSize: s.batchSize})
	})
}

var models = []interface{}{
	(*finance.Account)(nil),
	(*finance.Transaction)(nil),
	(*finance.RecurringTransaction)(nil),
	(*finance.Budget)(nil),
	(*finance.SavingsGoal)(nil),
	(*finance.Investment)(nil),
	(*finance.AccountSnapshot)(nil),
	(*finance.NetWorth)(nil),
}

type index struct {
	model   interface{}
	name    string
	unique  bool
	columns []string
}

var indexes = []index{
	{(*finance.Account)(nil), "accounts_user_idx", false, []string{"user_id"}},
	{(*finance.Transaction)(nil), "transactions_user_date_idx", false, []string{"user_id", "date"}},
	{(*finance.Transaction)(nil), "transactions_account_idx", false, []string{"account_id"}},
	{(*finance.Transaction)(nil), "transactions_import_key_idx", true, []string{"user_id", "import_key"}},
	{(*finance.RecurringTransaction)(nil), "recurring_due_idx", false, []string{"next_due_date"}},
	{(*finance.Budget)(nil), "budgets_user_idx", false, []string{"user_id"}},
	{(*finance.SavingsGoal)(nil), "savings_goals_user_idx", false, []string{"user_id"}},
	{(*finance.Investment)(nil), "investments_user_idx", false, []string{"user_id"}},
	{(*finance.AccountSnapshot)(nil), "account_snapshots_user_date_idx", false, []string{"user_id", "date"}},
	{(*finance.NetWorth)(nil), "networth_user_date_idx", false, []string{"user_id", "date"}},
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, model := range models {
		_, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	for _, idx := range indexes {
		q := s.db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists()
		if idx.unique {
			q = q.Unique()
		}

		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

func newID() string {
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func getOwned[T any](ctx context.Context, db bun.IDB, userID, id string) (*T, error) {
	m := new(T)
	err := db.NewSelect().Model(m).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func listOwned[T any](ctx context.Context, db bun.IDB, userID string, order ...string) ([]T, error) {
	rows := []T{}
	err := db.NewSelect().Model(&rows).
		Where("?TableAlias.user_id = ?", userID).
		Order(order...).
		Scan(ctx)
	return rows, err
}

func deleteOwned[T any](ctx context.Context, db bun.IDB, userID, id string) error {
	res, err := db.NewDelete().Model((*T)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return affected(res)
}

// updateOwned writes the given columns of m, which must carry its ID.
func updateOwned(ctx context.Context, db bun.IDB, userID, id string, m interface{}, columns ...string) error {
	res, err := db.NewUpdate().Model(m).
		Column(columns...).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return affected(res)
}

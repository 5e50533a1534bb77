package dbutils

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"k8s.io/klog"

	_ "modernc.org/sqlite" // register sqlite driver
)

const MemoryDSN = ":memory:"

// CreateSQLiteClient opens a local sqlite database, for running without a
// postgres server. An empty path opens an in-memory database.
func CreateSQLiteClient(path string) (*bun.DB, error) {
	dsn := MemoryDSN
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
		dsn = "file:" + path + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// sqlite serializes writers, and an in-memory database only lives as
	// long as its single connection
	sqldb.SetMaxOpenConns(1)

	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	klog.V(1).Infof("Opened sqlite database %s\n", dsn)

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

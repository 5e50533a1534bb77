package dbutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type upsertModel struct {
	bun.BaseModel `bun:"table:upsert_models"`
	Key           string `bun:",pk"`
	Name          string
	Balance       float64
}

func TestTableSetString(t *testing.T) {
	db, err := CreateSQLiteClient("")
	require.NoError(t, err)
	defer db.Close()

	set := TableSetString(db, (*upsertModel)(nil), "key")
	assert.Equal(t, "name = EXCLUDED.name, balance = EXCLUDED.balance", set)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	c := Config{}
	require.NoError(t, Parse([]byte(`
database:
  driver: sqlite
currency:
  base: CAD
  conversions:
    USD_CAD: 1.35
ynab:
  budgets:
    - name: Household
      userId: user-1
  tags:
    regexMatch: "^[a-z]+$"
`), &c))

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "X-User-Id", c.Server.UserHeader)
	assert.Equal(t, 10*time.Second, c.Server.ShutdownDuration())
	assert.Equal(t, "./ledgerline.db", c.Database.Path)
	assert.Equal(t, 1000, c.Database.BatchSize)
	assert.Equal(t, "@daily", c.Recurring.UpdateFrequency)
	assert.Equal(t, 6, c.Forecast.Months)
	assert.Equal(t, "CAD", c.Currency.Base)
	assert.Equal(t, 1.35, c.Currency.Conversions["USD_CAD"])
	require.Len(t, c.Ynab.Budgets, 1)
	assert.Equal(t, "user-1", c.Ynab.Budgets[0].UserID)
	assert.Equal(t, "^[a-z]+$", c.Ynab.Tags.RegexMatch)
}

func TestReadConfigFromEnv(t *testing.T) {
	t.Setenv("LEDGERLINE_TEST_CONFIG", "server:\n  addr: 127.0.0.1:9000\n")
	t.Setenv("SQL_HOST", "db.internal")
	t.Setenv("DATABASE_URL", "postgres://u:p@db.internal/ledgerline")

	missing := filepath.Join(t.TempDir(), "secrets.ejson")
	require.NoError(t, ReadConfig("LEDGERLINE_TEST_CONFIG", "does-not-exist.yml", missing))

	assert.Equal(t, "127.0.0.1:9000", CurrentServerConfig().Addr)
	assert.Equal(t, "db.internal", CurrentSqlSecrets().SqlHost)
	assert.Equal(t, "postgres://u:p@db.internal/ledgerline", CurrentSecrets().DatabaseURL)
}

func TestReadConfigMissingFile(t *testing.T) {
	os.Unsetenv("LEDGERLINE_MISSING_CONFIG")
	err := ReadConfig("LEDGERLINE_MISSING_CONFIG", filepath.Join(t.TempDir(), "nope.yml"), "")
	assert.Error(t, err)
}

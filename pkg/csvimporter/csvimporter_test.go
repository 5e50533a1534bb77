package csvimporter

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/dbutils"
	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

const user = "alice"

func setup(t *testing.T, conf *config.CSVConfig) (*Importer, *store.Store, *finance.Account, *finance.Account) {
	t.Helper()
	ctx := context.Background()

	db, err := dbutils.CreateSQLiteClient("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	require.NoError(t, s.Migrate(ctx))

	checking := &finance.Account{Name: "Chequing", Type: finance.Checking, Currency: "USD"}
	require.NoError(t, s.CreateAccount(ctx, user, checking))
	savings := &finance.Account{Name: "Savings", Type: finance.Savings, Currency: "USD"}
	require.NoError(t, s.CreateAccount(ctx, user, savings))

	if conf.DateFormat == "" {
		conf.DateFormat = "2006-01-02"
	}

	importer, err := NewImporter(s, conf, "")
	require.NoError(t, err)
	return importer, s, checking, savings
}

const export = `Date,Description,Category,Amount,Notes,Transfer Account
2024-01-02,Coffee Shop,Dining,-4.50,"work, Team Lunch",
2024-01-02,Coffee Shop,Dining,-4.50,,
2024-01-03,Employer,Salary,"$1,200.00",,
2024-01-04,Transfer to savings,,-100,,Savings
2024-01-05,Broken,,abc,,
2024-01-06,Nothing,,0,,
`

func TestImport(t *testing.T) {
	ctx := context.Background()
	conf := &config.CSVConfig{ColumnTranslation: map[string]string{"payee": "Description", "memo": "Notes"}}
	importer, s, checking, savings := setup(t, conf)

	result, err := importer.Import(ctx, user, checking.ID, strings.NewReader(export))
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 4, Skipped: 2}, result)

	a, err := s.GetAccount(ctx, user, checking.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1091").Equal(a.Balance))

	b, err := s.GetAccount(ctx, user, savings.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(b.Balance))

	transactions, err := s.ListTransactions(ctx, user, store.TransactionFilter{AccountID: checking.ID})
	require.NoError(t, err)
	require.Len(t, transactions, 4)

	byType := map[finance.TransactionType]int{}
	for _, tx := range transactions {
		byType[tx.Type]++
		if tx.Memo == "work, Team Lunch" {
			assert.Equal(t, []string{"work"}, tx.Tags)
		}
	}
	assert.Equal(t, map[finance.TransactionType]int{finance.Expense: 2, finance.Income: 1, finance.Transfer: 1}, byType)

	// importing the same export again changes nothing
	result, err = importer.Import(ctx, user, checking.ID, strings.NewReader(export))
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 4, Skipped: 2}, result)

	a, err = s.GetAccount(ctx, user, checking.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1091").Equal(a.Balance))
}

func TestImportFileInvertedAmounts(t *testing.T) {
	ctx := context.Background()
	conf := &config.CSVConfig{DateFormat: "01/02/2006", InvertAmounts: true}
	importer, s, checking, _ := setup(t, conf)

	path := filepath.Join(t.TempDir(), "card.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,payee,amount\n03/15/2024,Store,25.10\n03/16/2024,Refund,(5.00)\n"), 0o600))

	result, err := importer.ImportFile(ctx, user, checking.ID, path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)

	a, err := s.GetAccount(ctx, user, checking.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-20.10").Equal(a.Balance))
}

func TestImportOtherUsersAccount(t *testing.T) {
	importer, _, checking, _ := setup(t, &config.CSVConfig{})

	_, err := importer.Import(context.Background(), "bob", checking.ID, strings.NewReader("date,payee,amount\n"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAmountColumns(t *testing.T) {
	conf := &config.CSVConfig{}
	row := &CSVTransaction{
		record:    []string{"12.00", ""},
		headerMap: generateHeaderMap([]string{"Outflow", "Inflow"}),
		regex:     regexp.MustCompile(defaultRegex),
		conf:      conf,
	}

	amount, err := row.Amount()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-12).Equal(amount))
}

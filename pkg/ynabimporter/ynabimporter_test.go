package ynabimporter

import (
	"context"
	"regexp"
	"testing"

	"github.com/davidsteinsland/ynab-go/ynab"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/dbutils"
	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

type fakeClient struct {
	budgets      []Budget
	accounts     []Account
	categories   map[string]string
	transactions []ynab.TransactionDetail
}

func (f fakeClient) Budgets() ([]Budget, error) {
	return f.budgets, nil
}

func (f fakeClient) Accounts(string) ([]Account, error) {
	return f.accounts, nil
}

func (f fakeClient) Categories(string) (map[string]string, error) {
	return f.categories, nil
}

func (f fakeClient) Transactions(string) ([]ynab.TransactionDetail, error) {
	return f.transactions, nil
}

func strPtr(s string) *string {
	return &s
}

func detail(id, date, account, payee string) ynab.TransactionDetail {
	return ynab.TransactionDetail{
		TransactionSummary: ynab.TransactionSummary{Id: id, Date: date, AccountId: account},
		PayeeName:          payee,
	}
}

func newFakeClient() fakeClient {
	t1 := detail("t1", "2023-12-31", "y-check", "Old")
	t1.Amount = -10000

	t2 := detail("t2", "2024-01-05", "y-check", "Grocer")
	t2.Amount = -50000
	t2.CategoryName = "Food"
	t2.Memo = strPtr("Weekly, groceries, not a tag!")

	t3 := detail("t3", "2024-01-06", "y-check", "Employer")
	t3.Amount = 1000000
	t3.CategoryName = "Inflow"

	t4 := detail("t4", "2024-01-07", "y-check", "Mall")
	t4.Amount = -100000
	t4.SubTransactions = []ynab.SubTransaction{
		{Id: "s1", Amount: -60000, CategoryId: strPtr("c1")},
		{Id: "s2", Amount: -40000, CategoryId: strPtr("c2"), Memo: strPtr("gift")},
	}

	t5 := detail("t5", "2024-01-08", "y-check", "Transfer : Savings")
	t5.Amount = -200000
	t5.TransferAccountId = strPtr("y-save")

	t6 := detail("t6", "2024-01-08", "y-save", "Transfer : Chequing")
	t6.Amount = 200000
	t6.TransferAccountId = strPtr("y-check")

	return fakeClient{
		budgets: []Budget{{ID: "b1", Name: "main", Currency: "CAD"}},
		accounts: []Account{
			{ID: "y-check", Name: "Chequing", Type: "checking", Balance: 950000},
			{ID: "y-save", Name: "Savings", Type: "savings", Balance: 200000},
		},
		categories:   map[string]string{"c1": "Dining", "c2": "Gifts"},
		transactions: []ynab.TransactionDetail{t1, t2, t3, t4, t5, t6},
	}
}

func newTestImporter(t *testing.T, client Client) (*Importer, *store.Store) {
	t.Helper()

	db, err := dbutils.CreateSQLiteClient("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	require.NoError(t, s.Migrate(context.Background()))

	conf := &config.YnabConfig{}
	conf.Tags.Enabled = true

	importer, err := NewImporter(client, s, conf)
	require.NoError(t, err)
	return importer, s
}

func TestImportBudget(t *testing.T) {
	ctx := context.Background()
	importer, s := newTestImporter(t, newFakeClient())

	budget := config.Budget{Name: "main", ID: "b1", UserID: "alice", ImportAfterDate: "01-01-2024", Currency: "CAD"}

	result, err := importer.ImportBudget(ctx, budget)
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 5, Skipped: 2, AccountsCreated: 2}, result)

	accounts, err := s.ListAccounts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	balances := map[string]decimal.Decimal{}
	ids := map[string]string{}
	for _, a := range accounts {
		balances[a.Name] = a.Balance
		ids[a.Name] = a.ID
		assert.Equal(t, "CAD", a.Currency)
	}
	assert.True(t, decimal.NewFromInt(950).Equal(balances["Chequing"]))
	assert.True(t, decimal.NewFromInt(200).Equal(balances["Savings"]))

	transactions, err := s.ListTransactions(ctx, "alice", store.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, transactions, 5)

	byKey := map[string]finance.Transaction{}
	for _, tx := range transactions {
		byKey[*tx.ImportKey] = tx
	}

	assert.Equal(t, []string{"weekly", "groceries"}, byKey["ynab:t2"].Tags)
	assert.Equal(t, finance.Income, byKey["ynab:t3"].Type)
	assert.Equal(t, "Dining", byKey["ynab:s1"].Category)
	assert.Equal(t, "gift", byKey["ynab:s2"].Memo)

	transfer := byKey["ynab:t5"]
	assert.Equal(t, finance.Transfer, transfer.Type)
	assert.Equal(t, ids["Chequing"], transfer.AccountID)
	require.NotNil(t, transfer.TransferAccountID)
	assert.Equal(t, ids["Savings"], *transfer.TransferAccountID)

	// a second import updates in place
	result, err = importer.ImportBudget(ctx, budget)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 5, Skipped: 2}, result)

	a, err := s.GetAccount(ctx, "alice", ids["Chequing"])
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(950).Equal(a.Balance))
}

func TestRunDetectsBudgetID(t *testing.T) {
	importer, s := newTestImporter(t, newFakeClient())

	conf := config.CurrentYnabConfig()
	*conf = config.YnabConfig{Budgets: []config.Budget{{Name: "main", UserID: "bob"}}}
	t.Cleanup(func() { *conf = config.YnabConfig{} })

	require.NoError(t, importer.Run(context.Background()))
	assert.Equal(t, "b1", conf.Budgets[0].ID)
	assert.Equal(t, "CAD", conf.Budgets[0].Currency)

	accounts, err := s.ListAccounts(context.Background(), "bob")
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestRunUnknownBudget(t *testing.T) {
	importer, _ := newTestImporter(t, newFakeClient())

	conf := config.CurrentYnabConfig()
	*conf = config.YnabConfig{Budgets: []config.Budget{{Name: "missing", UserID: "bob"}}}
	t.Cleanup(func() { *conf = config.YnabConfig{} })

	assert.ErrorContains(t, importer.Run(context.Background()), "unable to find ID for budget: missing")
}

func TestTagsList(t *testing.T) {
	regex := regexp.MustCompile(defaultRegex)

	assert.Equal(t, []string{"travel", "work-trip"}, tagsList(regex, " Travel,work-trip , two words"))
	assert.Nil(t, tagsList(regex, ""))
	assert.Nil(t, tagsList(nil, "travel"))
}

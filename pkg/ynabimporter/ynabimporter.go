// Package ynabimporter pulls accounts and transactions out of YNAB budgets
// into a user's ledger. Re-running an import updates rows in place.
package ynabimporter

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/davidsteinsland/ynab-go/ynab"
	"k8s.io/klog"

	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

var defaultRegex = "^[A-Za-z0-9]([A-Za-z0-9\\-\\_]+)?$"

// Client is the slice of the YNAB API the importer reads.
type Client interface {
	Budgets() ([]Budget, error)
	Accounts(budgetID string) ([]Account, error)
	Categories(budgetID string) (map[string]string, error)
	Transactions(budgetID string) ([]ynab.TransactionDetail, error)
}

type Budget struct {
	ID       string
	Name     string
	Currency string
}

type Account struct {
	ID     string
	Name   string
	Type   string
	Closed bool
	// Balance in milliunits
	Balance int64
}

type apiClient struct {
	*ynab.Client
}

func NewAPIClient(accessToken string) Client {
	return apiClient{ynab.NewDefaultClient(accessToken)}
}

func (c apiClient) Budgets() ([]Budget, error) {
	budgets, err := c.BudgetService.List()
	if err != nil {
		return nil, err
	}

	out := make([]Budget, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, Budget{ID: b.Id, Name: b.Name, Currency: b.CurrencyFormat.IsoCode})
	}
	return out, nil
}

func (c apiClient) Accounts(budgetID string) ([]Account, error) {
	accounts, err := c.AccountsService.List(budgetID)
	if err != nil {
		return nil, err
	}

	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, Account{ID: a.Id, Name: a.Name, Type: a.Type, Closed: a.Closed, Balance: int64(a.Balance)})
	}
	return out, nil
}

func (c apiClient) Categories(budgetID string) (map[string]string, error) {
	categoryGroups, err := c.CategoriesService.List(budgetID)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	for _, categoryGroup := range categoryGroups {
		for _, category := range categoryGroup.Categories {
			names[category.Id] = category.Name
		}
	}
	return names, nil
}

func (c apiClient) Transactions(budgetID string) ([]ynab.TransactionDetail, error) {
	// the transactions endpoint carries the sub transaction data
	return c.TransactionsService.List(budgetID)
}

type Importer struct {
	client Client
	store  *store.Store
	regex  *regexp.Regexp
}

func NewImporter(client Client, s *store.Store, conf *config.YnabConfig) (*Importer, error) {
	regexPattern := conf.Tags.RegexMatch
	if regexPattern == "" {
		regexPattern = defaultRegex
	}

	regex, err := regexp.Compile(regexPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid tag regex %q: %w", regexPattern, err)
	}

	if !conf.Tags.Enabled {
		regex = nil
	}

	return &Importer{client: client, store: s, regex: regex}, nil
}

// Run imports every configured budget.
func (importer *Importer) Run(ctx context.Context) error {
	conf := config.CurrentYnabConfig()

	if err := importer.detectBudgetIDs(conf); err != nil {
		return fmt.Errorf("error detecting budget IDs: %w", err)
	}

	for _, b := range conf.Budgets {
		result, err := importer.ImportBudget(ctx, b)
		if err != nil {
			return fmt.Errorf("failed to import budget %s: %w", b.Name, err)
		}

		klog.Infof("Imported budget %s: %d inserted, %d updated, %d accounts created\n", b.Name, result.Inserted, result.Updated, result.AccountsCreated)
	}

	return nil
}

func (importer *Importer) detectBudgetIDs(conf *config.YnabConfig) error {
	var budgets []Budget

	for i, budgetConfig := range conf.Budgets {
		if budgetConfig.UserID == "" {
			return fmt.Errorf("budget %s has no userId", budgetConfig.Name)
		}
		if budgetConfig.ID != "" && budgetConfig.Currency != "" {
			continue
		}

		if budgets == nil {
			var err error
			budgets, err = importer.client.Budgets()
			if err != nil {
				return err
			}
		}

		found := false
		for _, b := range budgets {
			if budgetConfig.ID == b.ID || (budgetConfig.ID == "" && budgetConfig.Name == b.Name) {
				conf.Budgets[i].ID = b.ID
				if budgetConfig.Currency == "" {
					conf.Budgets[i].Currency = b.Currency
				}

				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("unable to find ID for budget: %s", budgetConfig.Name)
		}
	}

	return nil
}

type Result struct {
	Inserted        int
	Updated         int
	Skipped         int
	AccountsCreated int
}

// ImportBudget imports one budget whose ID is already known.
func (importer *Importer) ImportBudget(ctx context.Context, budget config.Budget) (Result, error) {
	result := Result{}

	importAfterDate := time.Time{}
	if budget.ImportAfterDate != "" {
		var err error
		importAfterDate, err = time.Parse("01-02-2006", budget.ImportAfterDate)
		if err != nil {
			return result, fmt.Errorf("failed to parse import after date %s: %w", budget.ImportAfterDate, err)
		}
	}

	accounts, err := importer.client.Accounts(budget.ID)
	if err != nil {
		return result, fmt.Errorf("error getting accounts: %w", err)
	}

	categories, err := importer.client.Categories(budget.ID)
	if err != nil {
		return result, fmt.Errorf("unable to get categories for budget %s: %w", budget.Name, err)
	}

	details, err := importer.client.Transactions(budget.ID)
	if err != nil {
		return result, fmt.Errorf("error getting transactions: %w", err)
	}

	converter := transactionConverter{regex: importer.regex, categories: categories, importAfter: importAfterDate}
	transactions, skipped, err := converter.convert(details)
	if err != nil {
		return result, err
	}
	result.Skipped = skipped

	currency := budget.Currency
	if currency == "" {
		currency = config.CurrentCurrencyConfig().Base
	}

	mapped, created, err := importer.ensureAccounts(ctx, budget.UserID, currency, accounts, transactions)
	if err != nil {
		return result, err
	}
	result.AccountsCreated = created

	if err := remap(transactions, mapped); err != nil {
		return result, err
	}

	result.Inserted, result.Updated, err = importer.store.UpsertImported(ctx, budget.UserID, transactions)
	if err != nil {
		return result, err
	}

	importer.checkBalances(ctx, budget.UserID, accounts, mapped)

	return result, nil
}

package ynabimporter

import (
	"context"
	"fmt"
	"log/slog"

	"k8s.io/klog"

	"github.com/bcaldwell/ledgerline/pkg/finance"
)

var accountTypes = map[string]finance.AccountType{
	"checking":       finance.Checking,
	"savings":        finance.Savings,
	"cash":           finance.Cash,
	"creditCard":     finance.Credit,
	"lineOfCredit":   finance.Credit,
	"otherAsset":     finance.InvestmentAccount,
	"otherLiability": finance.Loan,
	"mortgage":       finance.Loan,
	"autoLoan":       finance.Loan,
	"studentLoan":    finance.Loan,
	"personalLoan":   finance.Loan,
	"medicalDebt":    finance.Loan,
	"otherDebt":      finance.Loan,
}

func accountType(ynabType string) finance.AccountType {
	if t, ok := accountTypes[ynabType]; ok {
		return t
	}
	return finance.Checking
}

// ensureAccounts maps every YNAB account onto the user's account of the same
// name, creating the missing ones. A created account opens at the YNAB
// balance minus what the imported transactions will add, so it ends up
// matching YNAB.
func (importer *Importer) ensureAccounts(ctx context.Context, userID, currency string, accounts []Account, transactions []finance.Transaction) (map[string]string, int, error) {
	existing, err := importer.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	byName := map[string]string{}
	for _, a := range existing {
		byName[a.Name] = a.ID
	}

	mapped := map[string]string{}
	created := 0

	for _, account := range accounts {
		if id, ok := byName[account.Name]; ok {
			mapped[account.ID] = id
			continue
		}

		opening := milliunits(account.Balance)
		for i := range transactions {
			opening = opening.Sub(transactions[i].EffectOn(account.ID))
		}

		a := &finance.Account{
			Name:        account.Name,
			Type:        accountType(account.Type),
			Currency:    currency,
			Balance:     opening,
			Institution: "YNAB",
			Archived:    account.Closed,
		}
		if err := importer.store.CreateAccount(ctx, userID, a); err != nil {
			return nil, created, fmt.Errorf("failed to create account %s: %w", account.Name, err)
		}

		klog.Infof("Created account %s for %s\n", account.Name, userID)
		mapped[account.ID] = a.ID
		byName[a.Name] = a.ID
		created++
	}

	return mapped, created, nil
}

func (importer *Importer) checkBalances(ctx context.Context, userID string, accounts []Account, mapped map[string]string) {
	for _, account := range accounts {
		a, err := importer.store.GetAccount(ctx, userID, mapped[account.ID])
		if err != nil {
			slog.Warn("failed to load imported account", "account", account.Name, "err", err)
			continue
		}

		expected := finance.Round(milliunits(account.Balance), 2)
		if !a.Balance.Equal(expected) {
			slog.Warn("account balance didn't add up in the end", "account", account.Name, "expected", expected, "actual", a.Balance, "diff", expected.Sub(a.Balance).StringFixed(2))
		}
	}
}

package ynabimporter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/davidsteinsland/ynab-go/ynab"
	"github.com/shopspring/decimal"
	"k8s.io/klog"

	"github.com/bcaldwell/ledgerline/pkg/finance"
)

const importKeyPrefix = "ynab:"

func milliunits(amount int64) decimal.Decimal {
	return decimal.New(amount, -3)
}

type transactionConverter struct {
	regex       *regexp.Regexp
	categories  map[string]string
	importAfter time.Time
}

// convert maps YNAB transactions onto ledger rows. Account ids are still YNAB
// ids at this point. Split transactions become one row per sub transaction,
// and a transfer is only taken from its outflow side since YNAB records both.
func (c transactionConverter) convert(details []ynab.TransactionDetail) ([]finance.Transaction, int, error) {
	transactions := []finance.Transaction{}
	skipped := 0

	for i := range details {
		detail := &details[i]

		date, err := time.Parse(finance.DateFormat, detail.Date)
		if err != nil {
			return nil, skipped, fmt.Errorf("failed to parse transaction date: %w", err)
		}

		if date.Before(c.importAfter) {
			skipped++
			continue
		}

		memo := ""
		if detail.Memo != nil {
			memo = *detail.Memo
		}

		if len(detail.SubTransactions) == 0 {
			t, ok := c.row(detail.Id, date, int64(detail.Amount), detail.AccountId, detail.TransferAccountId, detail.PayeeName, detail.CategoryName, memo)
			if !ok {
				skipped++
				continue
			}
			transactions = append(transactions, t)
			continue
		}

		for j := range detail.SubTransactions {
			sub := &detail.SubTransactions[j]

			subMemo := memo
			if sub.Memo != nil && *sub.Memo != "" {
				subMemo = *sub.Memo
			}

			category := ""
			if sub.CategoryId != nil {
				category = c.categories[*sub.CategoryId]
			}

			t, ok := c.row(sub.Id, date, int64(sub.Amount), detail.AccountId, sub.TransferAccountId, detail.PayeeName, category, subMemo)
			if !ok {
				skipped++
				continue
			}
			transactions = append(transactions, t)
		}
	}

	return transactions, skipped, nil
}

func (c transactionConverter) row(id string, date time.Time, amount int64, accountID string, transferAccountID *string, payee, category, memo string) (finance.Transaction, bool) {
	if amount == 0 {
		klog.V(2).Infof("Skipping zero amount transaction %s\n", id)
		return finance.Transaction{}, false
	}

	// check if its a transfer first so all transfer ins arent reported as income
	transactionType := finance.Expense
	switch {
	case transferAccountID != nil && amount > 0:
		return finance.Transaction{}, false
	case transferAccountID != nil:
		transactionType = finance.Transfer
		category = ""
	case amount > 0:
		transactionType = finance.Income
	}

	key := importKeyPrefix + id
	t := finance.Transaction{
		AccountID:   accountID,
		Date:        date,
		Description: payee,
		Payee:       payee,
		Category:    category,
		Amount:      milliunits(amount).Abs(),
		Type:        transactionType,
		Memo:        memo,
		Tags:        tagsList(c.regex, memo),
		ImportKey:   &key,
	}
	if transactionType == finance.Transfer {
		to := *transferAccountID
		t.TransferAccountID = &to
	}

	return t, true
}

// remap swaps YNAB account ids for ledger account ids.
func remap(transactions []finance.Transaction, accounts map[string]string) error {
	for i := range transactions {
		t := &transactions[i]

		id, ok := accounts[t.AccountID]
		if !ok {
			return fmt.Errorf("transaction %s references unknown account %s", *t.ImportKey, t.AccountID)
		}
		t.AccountID = id

		if t.TransferAccountID != nil {
			id, ok := accounts[*t.TransferAccountID]
			if !ok {
				return fmt.Errorf("transaction %s references unknown account %s", *t.ImportKey, *t.TransferAccountID)
			}
			t.TransferAccountID = &id
		}
	}

	return nil
}

func tagsList(regex *regexp.Regexp, memo string) []string {
	if regex == nil {
		return nil
	}

	var tags []string
	parts := strings.Split(memo, ",")
	for _, s := range parts {
		// remove spaces and convert to lowercase
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && regex.MatchString(s) {
			tags = append(tags, s)
		}
	}
	return tags
}

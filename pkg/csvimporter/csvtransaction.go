package csvimporter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/finance"
)

type CSVTransaction struct {
	record []string
	// map of header name to index. Header name needs to be lower case to be matched
	headerMap map[string]int
	regex     *regexp.Regexp
	conf      *config.CSVConfig
}

func (t *CSVTransaction) Date() (time.Time, error) {
	raw := t.getKey("date")

	date, err := time.Parse(t.conf.DateFormat, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q with format %s", raw, t.conf.DateFormat)
	}
	return date, nil
}

func (t *CSVTransaction) Payee() string {
	return strings.TrimSpace(t.getKey("payee"))
}

func (t *CSVTransaction) Category() string {
	return strings.TrimSpace(t.getKey("category"))
}

func (t *CSVTransaction) Memo() string {
	return strings.TrimSpace(t.getKey("memo"))
}

// Amount parses the signed amount, tolerating currency symbols and thousands
// separators. Exports with separate outflow and inflow columns are combined.
func (t *CSVTransaction) Amount() (decimal.Decimal, error) {
	amountString := t.getKey("amount")
	if amountString == "" {
		outflow, err := parseAmount(t.getKey("outflow"))
		if err != nil {
			return decimal.Zero, err
		}
		inflow, err := parseAmount(t.getKey("inflow"))
		if err != nil {
			return decimal.Zero, err
		}
		return inflow.Sub(outflow), nil
	}

	amount, err := parseAmount(amountString)
	if err != nil {
		return decimal.Zero, err
	}

	if t.conf.InvertAmounts {
		amount = amount.Neg()
	}
	return amount, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.Trim(s, "()")
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount %q", s)
	}

	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

func (t *CSVTransaction) Tags() []string {
	tagsString := t.getKey("tags")
	if tagsString != "" {
		tags := []string{}
		for _, tag := range strings.Split(tagsString, ",") {
			if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
				tags = append(tags, tag)
			}
		}
		return tags
	}

	return tagsList(t.regex, t.Memo())
}

// Transaction builds the ledger row for accountID. A negative row whose payee
// mentions a transfer and whose transfer account column names one of the
// user's accounts becomes a transfer. Returns nil for zero amount rows.
func (t *CSVTransaction) Transaction(accountID string, accountsByName map[string]string) (*finance.Transaction, error) {
	date, err := t.Date()
	if err != nil {
		return nil, err
	}

	amount, err := t.Amount()
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, nil
	}

	tx := &finance.Transaction{
		AccountID:   accountID,
		Date:        date,
		Description: t.Payee(),
		Payee:       t.Payee(),
		Category:    t.Category(),
		Amount:      finance.Round(amount.Abs(), 2),
		Memo:        t.Memo(),
		Tags:        t.Tags(),
		Type:        finance.Expense,
	}
	if tx.Description == "" {
		tx.Description = tx.Memo
	}

	switch {
	case amount.IsPositive():
		tx.Type = finance.Income
	case strings.Contains(strings.ToLower(t.Payee()), "transfer"):
		if to, ok := accountsByName[strings.ToLower(strings.TrimSpace(t.getKey("transfer account")))]; ok && to != accountID {
			tx.Type = finance.Transfer
			tx.TransferAccountID = &to
			tx.Category = ""
		}
	}

	key := t.IndexKey(accountID, date, amount)
	tx.ImportKey = &key

	return tx, nil
}

func (t *CSVTransaction) IndexKey(accountID string, date time.Time, amount decimal.Decimal) string {
	indexKeys := []string{
		"csv:" + accountID, date.Format(finance.DateFormat), amount.StringFixed(2), t.Payee(),
	}

	return strings.Join(indexKeys, "-")
}

func (t *CSVTransaction) getKey(column string) string {
	if columnNameFromConfig, ok := t.conf.ColumnTranslation[column]; ok {
		column = columnNameFromConfig
	}

	column = strings.ToLower(column)

	if i, ok := t.headerMap[column]; ok && i < len(t.record) {
		return t.record[i]
	}
	return ""
}

func tagsList(regex *regexp.Regexp, memo string) []string {
	var tags []string

	for _, s := range strings.Split(memo, ",") {
		// remove spaces and convert to lowercase
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && regex.MatchString(s) {
			tags = append(tags, s)
		}
	}

	return tags
}

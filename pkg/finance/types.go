package finance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateFormat = "2006-01-02"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

type TransactionType string

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

func (t TransactionType) String() string {
	return string(t)
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense || t == Transfer
}

type AccountType string

const (
	Checking          AccountType = "checking"
	Savings           AccountType = "savings"
	Credit            AccountType = "credit"
	InvestmentAccount AccountType = "investment"
	Cash              AccountType = "cash"
	Loan              AccountType = "loan"
)

func (t AccountType) Valid() bool {
	switch t {
	case Checking, Savings, Credit, InvestmentAccount, Cash, Loan:
		return true
	}
	return false
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, invalid("date %q must be formatted as %s", s, DateFormat)
	}
	return t, nil
}

// ParseMonth parses YYYY-MM and returns the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, invalid("month %q must be formatted as YYYY-MM", s)
	}
	return t, nil
}

// Today is the current calendar date in UTC.
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// Round rounds to the given number of decimal places (2 for currency).
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// Sum adds up amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, amounts...)
}

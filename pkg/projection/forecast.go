package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/recurrence"
)

const (
	DefaultForecastMonths = 6
	DefaultLookbackMonths = 6
)

type ForecastOptions struct {
	// Months to forecast, starting with the month containing From.
	Months int
	// Lookback is how many whole months before From feed the baseline.
	Lookback int
}

type MonthForecast struct {
	Month            time.Time       `json:"month"`
	BaselineIncome   decimal.Decimal `json:"baseline_income"`
	BaselineExpenses decimal.Decimal `json:"baseline_expenses"`
	RecurringIncome  decimal.Decimal `json:"recurring_income"`
	RecurringExpense decimal.Decimal `json:"recurring_expenses"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	Net              decimal.Decimal `json:"net"`
	EndingBalance    decimal.Decimal `json:"ending_balance"`
}

// Baseline is the average monthly one-off income and spend.
type Baseline struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Months   int             `json:"months"`
}

// HistoricalBaseline averages non-recurring income and expenses over the
// months in [start, end) that have any activity. Transfers move money between
// the user's own accounts and are ignored.
func HistoricalBaseline(history []finance.Transaction, start, end time.Time) Baseline {
	income := decimal.Zero
	expenses := decimal.Zero
	months := map[time.Time]struct{}{}

	for i := range history {
		t := &history[i]
		if t.Date.Before(start) || !t.Date.Before(end) || t.RecurringID != nil {
			continue
		}

		switch t.Type {
		case finance.Income:
			income = income.Add(t.Amount)
		case finance.Expense:
			expenses = expenses.Add(t.Amount)
		default:
			continue
		}
		months[finance.MonthStart(recurrence.Date(t.Date))] = struct{}{}
	}

	if len(months) == 0 {
		return Baseline{Income: decimal.Zero, Expenses: decimal.Zero}
	}

	n := decimal.NewFromInt(int64(len(months)))
	return Baseline{
		Income:   finance.Round(income.Div(n), 2),
		Expenses: finance.Round(expenses.Div(n), 2),
		Months:   len(months),
	}
}

// CashFlowForecast projects monthly income, expenses and the running balance.
// Each month is the historical baseline plus the recurring occurrences that
// land in it. The first month only counts what is left of it from From on.
func CashFlowForecast(opening decimal.Decimal, history []finance.Transaction, recurring []finance.RecurringTransaction, from time.Time, opts ForecastOptions) []MonthForecast {
	if opts.Months <= 0 {
		opts.Months = DefaultForecastMonths
	}
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookbackMonths
	}

	from = recurrence.Date(from)
	firstMonth := finance.MonthStart(from)
	baseline := HistoricalBaseline(history, firstMonth.AddDate(0, -opts.Lookback, 0), firstMonth)

	forecast := make([]MonthForecast, 0, opts.Months)
	balance := opening

	for i := 0; i < opts.Months; i++ {
		monthStart := firstMonth.AddDate(0, i, 0)
		monthEnd := finance.MonthEnd(monthStart)

		windowStart := monthStart
		share := decimal.NewFromInt(1)
		if i == 0 {
			windowStart = from
			total := recurrence.DaysIn(monthStart.Year(), monthStart.Month())
			remaining := total - from.Day() + 1
			share = decimal.NewFromInt(int64(remaining)).Div(decimal.NewFromInt(int64(total)))
		}

		m := MonthForecast{
			Month:            monthStart,
			BaselineIncome:   finance.Round(baseline.Income.Mul(share), 2),
			BaselineExpenses: finance.Round(baseline.Expenses.Mul(share), 2),
			RecurringIncome:  decimal.Zero,
			RecurringExpense: decimal.Zero,
		}

		for _, o := range expand(recurring, windowStart, monthEnd, nil) {
			if o.Amount.IsNegative() {
				m.RecurringExpense = m.RecurringExpense.Add(o.Amount.Neg())
			} else {
				m.RecurringIncome = m.RecurringIncome.Add(o.Amount)
			}
		}

		m.Income = m.BaselineIncome.Add(m.RecurringIncome)
		m.Expenses = m.BaselineExpenses.Add(m.RecurringExpense)
		m.Net = m.Income.Sub(m.Expenses)
		balance = balance.Add(m.Net)
		m.EndingBalance = finance.Round(balance, 2)

		forecast = append(forecast, m)
	}

	return forecast
}

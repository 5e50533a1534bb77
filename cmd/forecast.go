package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/projection"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

var flagMonths int

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Print the monthly cash flow forecast for a user",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVar(&flagUser, "user", "", "user to forecast")
	forecastCmd.Flags().IntVar(&flagMonths, "months", 0, "months to forecast (defaults to forecast.months)")
	rootCmd.AddCommand(forecastCmd)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	negStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

func runForecast(cmd *cobra.Command, _ []string) error {
	if flagUser == "" {
		return errors.New("--user is required")
	}

	ctx := cmd.Context()
	db, s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	conf := config.CurrentConfig().Forecast
	months := flagMonths
	if months <= 0 {
		months = conf.Months
	}

	accounts, err := s.ListAccounts(ctx, flagUser)
	if err != nil {
		return err
	}

	opening := decimal.Zero
	for _, a := range accounts {
		if !a.Archived {
			opening = opening.Add(a.Balance)
		}
	}

	today := finance.Today()
	historyStart := finance.MonthStart(today).AddDate(0, -conf.Lookback, 0)
	history, err := s.ListTransactions(ctx, flagUser, store.TransactionFilter{From: &historyStart, To: &today})
	if err != nil {
		return err
	}

	recurring, err := s.ListRecurring(ctx, flagUser)
	if err != nil {
		return err
	}

	forecast := projection.CashFlowForecast(opening, history, recurring, today, projection.ForecastOptions{
		Months:   months,
		Lookback: conf.Lookback,
	})

	fmt.Println(titleStyle.Render(fmt.Sprintf("Cash flow forecast for %s, opening balance %s", flagUser, opening.StringFixed(2))))
	fmt.Println(renderForecast(forecast))
	return nil
}

func renderForecast(forecast []projection.MonthForecast) string {
	headers := []string{"Month", "Income", "Expenses", "Recurring", "Net", "Balance"}
	rows := make([][]string, 0, len(forecast))
	for _, m := range forecast {
		rows = append(rows, []string{
			m.Month.Format("Jan 2006"),
			m.Income.StringFixed(2),
			m.Expenses.StringFixed(2),
			m.RecurringIncome.Sub(m.RecurringExpense).StringFixed(2),
			m.Net.StringFixed(2),
			m.EndingBalance.StringFixed(2),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(cellStyle.Width(widths[i] + 2).Render(headerStyle.Render(h)))
	}
	b.WriteString("\n")

	for _, row := range rows {
		for i, cell := range row {
			style := cellStyle.Width(widths[i] + 2)
			if i > 0 {
				style = style.Align(lipgloss.Right)
			}
			if strings.HasPrefix(cell, "-") {
				cell = negStyle.Render(cell)
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteString("\n")
	}

	return b.String()
}

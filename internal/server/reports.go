package server

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/projection"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

type forecastResponse struct {
	From           time.Time                  `json:"from"`
	OpeningBalance decimal.Decimal            `json:"opening_balance"`
	Months         []projection.MonthForecast `json:"months"`
}

// cashFlowForecast sums the balances of every unarchived account, or only
// ?account=, and projects them forward. Amounts are not converted between
// currencies.
func (s *Server) cashFlowForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r)
	today := s.today()

	months, err := queryInt(r, "months", s.forecast.Months, 1, 60)
	if err != nil {
		writeError(w, err)
		return
	}
	accountID := r.URL.Query().Get("account")

	accounts, err := s.store.ListAccounts(ctx, user)
	if err != nil {
		writeError(w, err)
		return
	}

	opening := decimal.Zero
	found := accountID == ""
	for _, a := range accounts {
		if accountID != "" {
			if a.ID == accountID {
				opening = a.Balance
				found = true
			}
			continue
		}
		if !a.Archived {
			opening = opening.Add(a.Balance)
		}
	}
	if !found {
		writeError(w, store.ErrNotFound)
		return
	}

	historyStart := finance.MonthStart(today).AddDate(0, -s.forecast.Lookback, 0)
	history, err := s.store.ListTransactions(ctx, user, store.TransactionFilter{AccountID: accountID, From: &historyStart, To: &today})
	if err != nil {
		writeError(w, err)
		return
	}

	recurring, err := s.store.ListRecurring(ctx, user)
	if err != nil {
		writeError(w, err)
		return
	}
	if accountID != "" {
		scoped := recurring[:0]
		for _, rt := range recurring {
			if rt.AccountID == accountID {
				scoped = append(scoped, rt)
			}
		}
		recurring = scoped
	}

	writeJSON(w, http.StatusOK, forecastResponse{
		From:           today,
		OpeningBalance: opening,
		Months: projection.CashFlowForecast(opening, history, recurring, today, projection.ForecastOptions{
			Months:   months,
			Lookback: s.forecast.Lookback,
		}),
	})
}

func (s *Server) netWorthHistory(w http.ResponseWriter, r *http.Request) {
	today := s.today()

	from, err := queryDate(r, "from", today.AddDate(0, 0, -30))
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := queryDate(r, "to", today)
	if err != nil {
		writeError(w, err)
		return
	}
	if to.Before(from) {
		writeError(w, invalidf("to is before from"))
		return
	}

	rows, err := s.store.ListNetWorth(r.Context(), userID(r), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/projection"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

type accountRequest struct {
	Name        string              `json:"name"`
	Type        finance.AccountType `json:"type"`
	Currency    string              `json:"currency"`
	Balance     decimal.Decimal     `json:"balance"`
	Institution string              `json:"institution"`
	Archived    bool                `json:"archived"`
}

func (req accountRequest) model() *finance.Account {
	return &finance.Account{
		Name:        req.Name,
		Type:        req.Type,
		Currency:    req.Currency,
		Balance:     req.Balance,
		Institution: req.Institution,
		Archived:    req.Archived,
	}
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	a := req.model()
	if err := s.store.CreateAccount(r.Context(), userID(r), a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAccount(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// updateAccount ignores the balance in the body, balances only move through
// transactions.
func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	a := req.model()
	a.ID = chi.URLParam(r, "id")
	if err := s.store.UpdateAccount(r.Context(), userID(r), a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAccount(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// accountProjection projects the balance to ?date=, the end of the current
// month by default.
func (s *Server) accountProjection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r)
	today := s.today()

	target, err := queryDate(r, "date", finance.MonthEnd(today))
	if err != nil {
		writeError(w, err)
		return
	}
	if target.Before(today) {
		writeError(w, invalidf("date must not be in the past"))
		return
	}

	account, err := s.store.GetAccount(ctx, user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	transactions, err := s.store.ListTransactions(ctx, user, store.TransactionFilter{AccountID: account.ID, From: &today})
	if err != nil {
		writeError(w, err)
		return
	}

	recurring, err := s.store.ListRecurring(ctx, user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projection.ProjectBalance(*account, transactions, recurring, today, target))
}

// accountHistory returns daily closing balances, the last 30 days by default.
func (s *Server) accountHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r)
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
	if to.Sub(from).Hours() > 24*3660 {
		writeError(w, invalidf("history is limited to 10 years"))
		return
	}

	account, err := s.store.GetAccount(ctx, user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	// every row from the window start on, the stored balance counts all of them
	transactions, err := s.store.ListTransactions(ctx, user, store.TransactionFilter{AccountID: account.ID, From: &from})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projection.DailyBalances(*account, transactions, from, to))
}

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

type transactionRequest struct {
	AccountID         string                  `json:"account_id"`
	TransferAccountID *string                 `json:"transfer_account_id"`
	Date              string                  `json:"date"`
	Description       string                  `json:"description"`
	Payee             string                  `json:"payee"`
	Category          string                  `json:"category"`
	Amount            decimal.Decimal         `json:"amount"`
	Type              finance.TransactionType `json:"type"`
	Memo              string                  `json:"memo"`
	Tags              []string                `json:"tags"`
}

func (req transactionRequest) model() (*finance.Transaction, error) {
	date, err := finance.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	transferAccountID := req.TransferAccountID
	if transferAccountID != nil && *transferAccountID == "" {
		transferAccountID = nil
	}

	return &finance.Transaction{
		AccountID:         req.AccountID,
		TransferAccountID: transferAccountID,
		Date:              date,
		Description:       req.Description,
		Payee:             req.Payee,
		Category:          req.Category,
		Amount:            req.Amount,
		Type:              req.Type,
		Memo:              req.Memo,
		Tags:              req.Tags,
	}, nil
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.TransactionFilter{
		AccountID:   q.Get("account_id"),
		Category:    q.Get("category"),
		RecurringID: q.Get("recurring_id"),
		Type:        finance.TransactionType(q.Get("type")),
	}

	if filter.Type != "" && !filter.Type.Valid() {
		writeError(w, invalidf("unknown transaction type %q", filter.Type))
		return
	}

	var err error
	if filter.From, err = queryOptionalDate(r, "from"); err != nil {
		writeError(w, err)
		return
	}
	if filter.To, err = queryOptionalDate(r, "to"); err != nil {
		writeError(w, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit", 0, 0, 10000); err != nil {
		writeError(w, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0, 0, 1<<30); err != nil {
		writeError(w, err)
		return
	}

	transactions, err := s.store.ListTransactions(r.Context(), userID(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := req.model()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.CreateTransaction(r.Context(), userID(r), t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTransaction(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := req.model()
	if err != nil {
		writeError(w, err)
		return
	}
	t.ID = chi.URLParam(r, "id")

	if err := s.store.UpdateTransaction(r.Context(), userID(r), t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTransaction(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

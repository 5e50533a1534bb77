package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/projection"
)

type investmentRequest struct {
	AccountID     *string         `json:"account_id"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	Currency      string          `json:"currency"`
	PurchaseDate  *string         `json:"purchase_date"`
}

func (req investmentRequest) model() (*finance.Investment, error) {
	purchased, err := optionalDate(req.PurchaseDate)
	if err != nil {
		return nil, err
	}

	accountID := req.AccountID
	if accountID != nil && *accountID == "" {
		accountID = nil
	}

	return &finance.Investment{
		AccountID:     accountID,
		Symbol:        req.Symbol,
		Name:          req.Name,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		CurrentPrice:  req.CurrentPrice,
		Currency:      req.Currency,
		PurchaseDate:  purchased,
	}, nil
}

func (s *Server) listInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := s.store.ListInvestments(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investments)
}

func (s *Server) createInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	i, err := req.model()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.CreateInvestment(r.Context(), userID(r), i); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, i)
}

func (s *Server) getInvestment(w http.ResponseWriter, r *http.Request) {
	i, err := s.store.GetInvestment(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

func (s *Server) updateInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	i, err := req.model()
	if err != nil {
		writeError(w, err)
		return
	}
	i.ID = chi.URLParam(r, "id")

	if err := s.store.UpdateInvestment(r.Context(), userID(r), i); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

func (s *Server) deleteInvestment(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteInvestment(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

func (s *Server) updateInvestmentPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	i, err := s.store.UpdatePrice(r.Context(), userID(r), chi.URLParam(r, "id"), req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

func (s *Server) investmentSummary(w http.ResponseWriter, r *http.Request) {
	investments, err := s.store.ListInvestments(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.PortfolioSummary(investments))
}

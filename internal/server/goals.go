package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/projection"
)

type goalRequest struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    *string         `json:"target_date"`
	AccountID     *string         `json:"account_id"`
}

func (req goalRequest) model() (*finance.SavingsGoal, error) {
	target, err := optionalDate(req.TargetDate)
	if err != nil {
		return nil, err
	}

	accountID := req.AccountID
	if accountID != nil && *accountID == "" {
		accountID = nil
	}

	return &finance.SavingsGoal{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    target,
		AccountID:     accountID,
	}, nil
}

// listGoals returns every goal with its progress.
func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.ListGoals(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	today := s.today()
	statuses := make([]projection.GoalStatus, 0, len(goals))
	for _, g := range goals {
		statuses = append(statuses, projection.GoalProgress(g, today))
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	g, err := req.model()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.CreateGoal(r.Context(), userID(r), g); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projection.GoalProgress(*g, s.today()))
}

func (s *Server) getGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.GetGoal(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.GoalProgress(*g, s.today()))
}

func (s *Server) updateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	g, err := req.model()
	if err != nil {
		writeError(w, err)
		return
	}
	g.ID = chi.URLParam(r, "id")

	if err := s.store.UpdateGoal(r.Context(), userID(r), g); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.GoalProgress(*g, s.today()))
}

func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteGoal(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) contributeGoal(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Amount.IsZero() {
		writeError(w, invalidf("amount must not be 0"))
		return
	}

	g, err := s.store.Contribute(r.Context(), userID(r), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.GoalProgress(*g, s.today()))
}

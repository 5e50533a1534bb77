package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/projection"
)

type budgetRequest struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	// Month is YYYY-MM, empty for a budget covering every month
	Month string `json:"month"`
}

func (req budgetRequest) model() (*finance.Budget, error) {
	b := &finance.Budget{Category: req.Category, Amount: req.Amount}
	if req.Month != "" {
		month, err := finance.ParseMonth(req.Month)
		if err != nil {
			return nil, err
		}
		b.Month = &month
	}
	return b, nil
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.store.ListBudgets(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) createBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	b, err := req.model()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.CreateBudget(r.Context(), userID(r), b); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBudget(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) updateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	b, err := req.model()
	if err != nil {
		writeError(w, err)
		return
	}
	b.ID = chi.URLParam(r, "id")

	if err := s.store.UpdateBudget(r.Context(), userID(r), b); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) deleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBudget(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// budgetProgress compares budgets with spend in ?month=YYYY-MM, the current
// month by default.
func (s *Server) budgetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r)

	month := finance.MonthStart(s.today())
	if raw := r.URL.Query().Get("month"); raw != "" {
		var err error
		if month, err = finance.ParseMonth(raw); err != nil {
			writeError(w, err)
			return
		}
	}

	budgets, err := s.store.ListBudgets(ctx, user)
	if err != nil {
		writeError(w, err)
		return
	}

	spent, err := s.store.SpendByCategory(ctx, user, month, finance.MonthEnd(month))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Month    time.Time                 `json:"month"`
		Progress []projection.BudgetStatus `json:"progress"`
	}{month, projection.BudgetProgress(budgets, spent, month)})
}

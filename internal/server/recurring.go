package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/projection"
	"github.com/bcaldwell/ledgerline/pkg/recurrence"
)

type recurringRequest struct {
	AccountID   string                  `json:"account_id"`
	Description string                  `json:"description"`
	Payee       string                  `json:"payee"`
	Category    string                  `json:"category"`
	Amount      decimal.Decimal         `json:"amount"`
	Type        finance.TransactionType `json:"type"`
	Frequency   string                  `json:"frequency"`
	NextDueDate string                  `json:"next_due_date"`
	EndDate     *string                 `json:"end_date"`
	Paused      bool                    `json:"paused"`
}

func (req recurringRequest) model() (*finance.RecurringTransaction, error) {
	frequency, err := recurrence.ParseFrequency(req.Frequency)
	if err != nil {
		return nil, invalidf("%s", err.Error())
	}

	next, err := finance.ParseDate(req.NextDueDate)
	if err != nil {
		return nil, err
	}

	end, err := optionalDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	return &finance.RecurringTransaction{
		AccountID:   req.AccountID,
		Description: req.Description,
		Payee:       req.Payee,
		Category:    req.Category,
		Amount:      req.Amount,
		Type:        req.Type,
		Frequency:   frequency,
		NextDueDate: next,
		EndDate:     end,
		Paused:      req.Paused,
	}, nil
}

func (s *Server) listRecurring(w http.ResponseWriter, r *http.Request) {
	recurring, err := s.store.ListRecurring(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recurring)
}

func (s *Server) createRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rt, err := req.model()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.CreateRecurring(r.Context(), userID(r), rt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (s *Server) getRecurring(w http.ResponseWriter, r *http.Request) {
	rt, err := s.store.GetRecurring(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (s *Server) updateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rt, err := req.model()
	if err != nil {
		writeError(w, err)
		return
	}
	rt.ID = chi.URLParam(r, "id")

	if err := s.store.UpdateRecurring(r.Context(), userID(r), rt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (s *Server) deleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRecurring(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type occurrencesResponse struct {
	Occurrences []projection.Occurrence `json:"occurrences"`
	Total       decimal.Decimal         `json:"total"`
}

// recurringCalendar lists the occurrences of ?month=YYYY-MM, the current month
// by default.
func (s *Server) recurringCalendar(w http.ResponseWriter, r *http.Request) {
	month := finance.MonthStart(s.today())
	if raw := r.URL.Query().Get("month"); raw != "" {
		var err error
		if month, err = finance.ParseMonth(raw); err != nil {
			writeError(w, err)
			return
		}
	}

	recurring, err := s.store.ListRecurring(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	occurrences := projection.CalendarMonth(recurring, month.Year(), month.Month())
	writeJSON(w, http.StatusOK, occurrencesResponse{Occurrences: occurrences, Total: projection.Total(occurrences)})
}

// recurringUpcoming lists occurrences in the next ?days= days, 30 by default.
func (s *Server) recurringUpcoming(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 30, 1, 366)
	if err != nil {
		writeError(w, err)
		return
	}

	recurring, err := s.store.ListRecurring(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	occurrences := projection.Upcoming(recurring, s.today(), days)
	writeJSON(w, http.StatusOK, occurrencesResponse{Occurrences: occurrences, Total: projection.Total(occurrences)})
}

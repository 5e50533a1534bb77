// Package server exposes the ledger over a JSON HTTP API. Requests are
// authenticated upstream; the proxy passes the user id in a header.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"k8s.io/klog"

	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

type Server struct {
	store    *store.Store
	conf     config.ServerConfig
	forecast config.ForecastConfig
	router   chi.Router
	// Now is overridable for tests
	Now func() time.Time
}

func New(s *store.Store, conf *config.Config) *Server {
	srv := &Server{
		store:    s,
		conf:     conf.Server,
		forecast: conf.Forecast,
		Now:      time.Now,
	}
	srv.router = srv.routes()
	return srv
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireUser)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.listAccounts)
			r.Post("/", s.createAccount)
			r.Get("/{id}", s.getAccount)
			r.Put("/{id}", s.updateAccount)
			r.Delete("/{id}", s.deleteAccount)
			r.Get("/{id}/projection", s.accountProjection)
			r.Get("/{id}/history", s.accountHistory)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.listTransactions)
			r.Post("/", s.createTransaction)
			r.Get("/{id}", s.getTransaction)
			r.Put("/{id}", s.updateTransaction)
			r.Delete("/{id}", s.deleteTransaction)
		})

		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", s.listRecurring)
			r.Post("/", s.createRecurring)
			r.Get("/calendar", s.recurringCalendar)
			r.Get("/upcoming", s.recurringUpcoming)
			r.Get("/{id}", s.getRecurring)
			r.Put("/{id}", s.updateRecurring)
			r.Delete("/{id}", s.deleteRecurring)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.listBudgets)
			r.Post("/", s.createBudget)
			r.Get("/progress", s.budgetProgress)
			r.Get("/{id}", s.getBudget)
			r.Put("/{id}", s.updateBudget)
			r.Delete("/{id}", s.deleteBudget)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.listGoals)
			r.Post("/", s.createGoal)
			r.Get("/{id}", s.getGoal)
			r.Put("/{id}", s.updateGoal)
			r.Delete("/{id}", s.deleteGoal)
			r.Post("/{id}/contribute", s.contributeGoal)
		})

		r.Route("/investments", func(r chi.Router) {
			r.Get("/", s.listInvestments)
			r.Post("/", s.createInvestment)
			r.Get("/summary", s.investmentSummary)
			r.Get("/{id}", s.getInvestment)
			r.Put("/{id}", s.updateInvestment)
			r.Delete("/{id}", s.deleteInvestment)
			r.Put("/{id}/price", s.updateInvestmentPrice)
		})

		r.Get("/forecast", s.cashFlowForecast)
		r.Get("/networth", s.netWorthHistory)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.conf.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		klog.Infof("Listening on %s\n", s.conf.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.conf.ShutdownDuration())
	defer cancel()

	klog.Info("Shutting down server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) today() time.Time {
	now := s.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		klog.V(1).Infof("%s %s %d %dB %s [%s]\n", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

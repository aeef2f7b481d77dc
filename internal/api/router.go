// Package api assembles the HTTP surface of the ledger service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerbook/internal/analysis"
	"github.com/dvloznov/ledgerbook/internal/api/handlers"
	"github.com/dvloznov/ledgerbook/internal/api/middleware"
	"github.com/dvloznov/ledgerbook/internal/jobs"
	"github.com/dvloznov/ledgerbook/internal/ledger"
	"github.com/dvloznov/ledgerbook/internal/metrics"
)

// Deps are the components the router serves.
type Deps struct {
	Ledger            *ledger.Store
	Coordinator       *analysis.Coordinator
	Jobs              jobs.JobStore
	Metrics           *metrics.Metrics
	LowStockThreshold int64
	Log               zerolog.Logger
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Log, d.Metrics))
	r.Use(middleware.CORS())

	ledgerHandler := handlers.NewLedgerHandler(d.Ledger, d.Log)
	reportsHandler := handlers.NewReportsHandler(d.Ledger, d.LowStockThreshold, d.Log)
	analysisHandler := handlers.NewAnalysisHandler(d.Coordinator, d.Ledger, d.Log)
	jobsHandler := handlers.NewJobsHandler(d.Jobs, d.Log)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", ledgerHandler.ListTransactions)
			r.Post("/", ledgerHandler.CreateTransaction)
			r.Delete("/{id}", ledgerHandler.DeleteTransaction)
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", ledgerHandler.ListProducts)
			r.Post("/", ledgerHandler.CreateProduct)
			r.Delete("/{id}", ledgerHandler.DeleteProduct)
		})
		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", ledgerHandler.ListContacts)
			r.Post("/", ledgerHandler.CreateContact)
			r.Delete("/{id}", ledgerHandler.DeleteContact)
		})

		r.Get("/dashboard", reportsHandler.Dashboard)
		r.Get("/inventory/low-stock", reportsHandler.LowStock)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/profit-loss", reportsHandler.ProfitAndLoss)
			r.Get("/recommendations", analysisHandler.GetRecommendations)
			r.Post("/recommendations", analysisHandler.StartRecommendations)
		})

		r.Route("/risk", func(r chi.Router) {
			r.Get("/", analysisHandler.GetRisk)
			r.Get("/status", analysisHandler.RiskStatus)
			r.Post("/analyze", analysisHandler.StartRisk)
			r.Delete("/analyze", analysisHandler.CancelRisk)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobsHandler.ListJobs)
			r.Get("/{id}", jobsHandler.GetJob)
		})
	})

	return r
}

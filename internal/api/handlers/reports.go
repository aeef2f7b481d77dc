package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerbook/internal/api/middleware"
	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/dvloznov/ledgerbook/internal/ledger"
	"github.com/dvloznov/ledgerbook/internal/report"
)

// ReportsHandler serves views derived from the ledger.
type ReportsHandler struct {
	store     *ledger.Store
	threshold int64
	log       zerolog.Logger
}

// NewReportsHandler creates a new reports handler. threshold is the default
// low-stock threshold.
func NewReportsHandler(store *ledger.Store, threshold int64, log zerolog.Logger) *ReportsHandler {
	if threshold <= 0 {
		threshold = report.DefaultLowStockThreshold
	}
	return &ReportsHandler{
		store:     store,
		threshold: threshold,
		log:       log,
	}
}

// Dashboard handles GET /api/dashboard
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	middleware.WriteJSON(w, http.StatusOK, report.Dashboard(snap.Transactions, snap.Products, snap.Risk, h.threshold))
}

// ProfitAndLoss handles GET /api/reports/profit-loss. ?format=text returns
// the printable statement.
func (h *ReportsHandler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	stmt := report.ProfitAndLoss(h.store.Transactions())

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := stmt.Render(w, time.Now()); err != nil {
			h.log.Error().Err(err).Msg("Failed to render statement")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusOK, stmt)
}

// LowStock handles GET /api/inventory/low-stock
func (h *ReportsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.threshold
	if s := r.URL.Query().Get("threshold"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			middleware.WriteFieldError(w, "threshold", "Invalid threshold")
			return
		}
		threshold = n
	}

	items := report.LowStockItems(h.store.Products(), threshold)
	if items == nil {
		items = []domain.Product{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"threshold": threshold,
		"products":  items,
		"count":     len(items),
	})
}

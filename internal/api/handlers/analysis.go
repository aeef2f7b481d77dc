package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerbook/internal/analysis"
	"github.com/dvloznov/ledgerbook/internal/api/middleware"
	"github.com/dvloznov/ledgerbook/internal/jobs"
	"github.com/dvloznov/ledgerbook/internal/ledger"
)

// AnalysisHandler handles risk assessment and recommendation endpoints.
type AnalysisHandler struct {
	coord *analysis.Coordinator
	store *ledger.Store
	log   zerolog.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(coord *analysis.Coordinator, store *ledger.Store, log zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		coord: coord,
		store: store,
		log:   log,
	}
}

// GetRisk handles GET /api/risk
func (h *AnalysisHandler) GetRisk(w http.ResponseWriter, r *http.Request) {
	ra := h.store.RiskAssessment()
	if ra == nil {
		middleware.WriteError(w, http.StatusNotFound, "No risk assessment yet")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ra)
}

// StartRisk handles POST /api/risk/analyze
func (h *AnalysisHandler) StartRisk(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, jobs.JobTypeRiskAssessment)
}

// RiskStatus handles GET /api/risk/status
func (h *AnalysisHandler) RiskStatus(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.coord.Status(jobs.JobTypeRiskAssessment))
}

// CancelRisk handles DELETE /api/risk/analyze
func (h *AnalysisHandler) CancelRisk(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{
		"cancelled": h.coord.Cancel(jobs.JobTypeRiskAssessment),
	})
}

// StartRecommendations handles POST /api/reports/recommendations
func (h *AnalysisHandler) StartRecommendations(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, jobs.JobTypeRecommendation)
}

// GetRecommendations handles GET /api/reports/recommendations
func (h *AnalysisHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.coord.Status(jobs.JobTypeRecommendation))
}

func (h *AnalysisHandler) start(w http.ResponseWriter, r *http.Request, kind jobs.JobType) {
	jobID, err := h.coord.Start(r.Context(), kind)
	if errors.Is(err, analysis.ErrAnalysisPending) {
		middleware.WriteError(w, http.StatusConflict, "Analysis already in progress")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("kind", string(kind)).Msg("Failed to start analysis")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to start analysis")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(analysis.StateLoading),
	})
}

package compliance

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles compliance HTTP requests
type Handler struct {
	service *Service
	scanJob *ScanJob
	log     zerolog.Logger
}

// NewHandler creates a new compliance handler
func NewHandler(service *Service, scanJob *ScanJob, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		scanJob: scanJob,
		log:     log.With().Str("handler", "compliance").Logger(),
	}
}

// Routes mounts the compliance routes
func (h *Handler) Routes(r chi.Router) {
	r.Route("/compliance", func(r chi.Router) {
		r.Post("/scan", h.HandleTriggerScan)
		r.Get("/alerts", h.HandleGetAlerts)
		r.Get("/stats", h.HandleGetStats)
		r.Get("/households/{householdID}/alerts", h.HandleGetHouseholdAlerts)
	})
}

// HandleTriggerScan handles POST /api/compliance/scan
// Runs one manual firing of the scheduled scan job body.
func (h *Handler) HandleTriggerScan(w http.ResponseWriter, r *http.Request) {
	if err := h.scanJob.Run(); err != nil {
		h.log.Error().Err(err).Msg("Manual compliance scan failed")
		http.Error(w, "Compliance scan failed: data source unavailable", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"status": "completed",
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetAlerts handles GET /api/compliance/alerts?advisor_id=
func (h *Handler) HandleGetAlerts(w http.ResponseWriter, r *http.Request) {
	advisorID := optionalQueryParam(r, "advisor_id")

	alerts, err := h.service.ScanAdvisorPortfolios(r.Context(), advisorID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to scan portfolios")
		http.Error(w, "Failed to scan portfolios", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": alerts,
		"metadata": map[string]interface{}{
			"count":     len(alerts),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetStats handles GET /api/compliance/stats?advisor_id=
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	advisorID := optionalQueryParam(r, "advisor_id")

	stats, err := h.service.GetComplianceStats(r.Context(), advisorID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute compliance stats")
		http.Error(w, "Failed to compute compliance stats", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": stats,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetHouseholdAlerts handles GET /api/compliance/households/{householdID}/alerts
func (h *Handler) HandleGetHouseholdAlerts(w http.ResponseWriter, r *http.Request) {
	householdID := chi.URLParam(r, "householdID")
	if householdID == "" {
		http.Error(w, "householdID is required", http.StatusBadRequest)
		return
	}

	alerts, err := h.service.GetHouseholdAlerts(r.Context(), householdID)
	if err != nil {
		h.log.Error().Err(err).Str("household_id", householdID).Msg("Failed to get household alerts")
		http.Error(w, "Failed to get household alerts", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": alerts,
		"metadata": map[string]interface{}{
			"household_id": householdID,
			"count":        len(alerts),
			"timestamp":    time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func optionalQueryParam(r *http.Request, key string) *string {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}
	return &value
}

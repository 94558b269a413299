package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"brandpulse/internal/domain/detect"
)

// DetectHandler handles outlier detection HTTP requests.
type DetectHandler struct {
	engine detect.Engine
}

// NewDetectHandler creates a new detection handler.
func NewDetectHandler(engine detect.Engine) *DetectHandler {
	return &DetectHandler{engine: engine}
}

// Run triggers a full detection pass for the account set. Optional query
// parameters multiplier, sigma and lookback_days override the configured
// thresholds for this run only.
func (h *DetectHandler) Run(w http.ResponseWriter, r *http.Request) {
	accountSetID := chi.URLParam(r, "accountSet")
	if accountSetID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing account set", nil)
		return
	}

	var opts detect.RunOptions
	if v := r.URL.Query().Get("multiplier"); v != "" {
		multiplier, err := strconv.ParseFloat(v, 64)
		if err != nil || multiplier <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid multiplier", err)
			return
		}
		opts.MultiplierThreshold = &multiplier
	}
	if v := r.URL.Query().Get("sigma"); v != "" {
		sigma, err := strconv.ParseFloat(v, 64)
		if err != nil || sigma <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid sigma", err)
			return
		}
		opts.SigmaThreshold = &sigma
	}
	if v := r.URL.Query().Get("lookback_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid lookback_days", err)
			return
		}
		opts.LookbackDays = &days
	}

	result, err := h.engine.Run(r.Context(), accountSetID, opts)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Detection run failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Outliers returns the currently flagged posts for the account set, sorted
// by outlier score descending.
func (h *DetectHandler) Outliers(w http.ResponseWriter, r *http.Request) {
	accountSetID := chi.URLParam(r, "accountSet")
	if accountSetID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing account set", nil)
		return
	}

	outliers, err := h.engine.Outliers(r.Context(), accountSetID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get outliers", err)
		return
	}

	respondWithJSON(w, http.StatusOK, outliers)
}

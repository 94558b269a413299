package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"brandpulse/internal/domain/trend"
)

// TrendHandler handles trend, radar and gap HTTP requests.
type TrendHandler struct {
	analyzer trend.Analyzer
	radar    trend.Radar
	gaps     trend.GapAnalyzer
}

// NewTrendHandler creates a new trend handler.
func NewTrendHandler(analyzer trend.Analyzer, radar trend.Radar, gaps trend.GapAnalyzer) *TrendHandler {
	return &TrendHandler{
		analyzer: analyzer,
		radar:    radar,
		gaps:     gaps,
	}
}

// CaptureSnapshot captures today's daily trend snapshot.
func (h *TrendHandler) CaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	accountSetID := chi.URLParam(r, "accountSet")
	if accountSetID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing account set", nil)
		return
	}

	snap, err := h.analyzer.CaptureSnapshot(r.Context(), accountSetID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to capture trend snapshot", err)
		return
	}

	respondWithJSON(w, http.StatusOK, snap)
}

// GetTrends returns the velocity-classified trend report. The optional
// weeks query parameter overrides the configured lookback.
func (h *TrendHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	accountSetID := chi.URLParam(r, "accountSet")
	if accountSetID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing account set", nil)
		return
	}

	weeks := 0
	if v := r.URL.Query().Get("weeks"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid weeks", err)
			return
		}
		weeks = parsed
	}

	report, err := h.analyzer.Trends(r.Context(), accountSetID, weeks)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get trends", err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// CaptureRadarSnapshot captures this hour's radar snapshots.
func (h *TrendHandler) CaptureRadarSnapshot(w http.ResponseWriter, r *http.Request) {
	accountSetID := chi.URLParam(r, "accountSet")
	if accountSetID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing account set", nil)
		return
	}

	tracked, err := h.radar.CaptureSnapshot(r.Context(), accountSetID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to capture radar snapshot", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"tracked_items": tracked})
}

// GetRadar returns the ranked radar list. Optional query parameters limit
// and hours override the configured defaults.
func (h *TrendHandler) GetRadar(w http.ResponseWriter, r *http.Request) {
	accountSetID := chi.URLParam(r, "accountSet")
	if accountSetID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing account set", nil)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	var lookback time.Duration
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid hours", err)
			return
		}
		lookback = time.Duration(parsed) * time.Hour
	}

	scores, err := h.radar.TopTrends(r.Context(), accountSetID, limit, lookback)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get radar trends", err)
		return
	}

	respondWithJSON(w, http.StatusOK, scores)
}

// GetGaps returns the gap analysis; refresh=true bypasses the cache.
func (h *TrendHandler) GetGaps(w http.ResponseWriter, r *http.Request) {
	accountSetID := chi.URLParam(r, "accountSet")
	if accountSetID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing account set", nil)
		return
	}

	force := r.URL.Query().Get("refresh") == "true"

	result, err := h.gaps.Analyze(r.Context(), accountSetID, force)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to analyze gaps", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

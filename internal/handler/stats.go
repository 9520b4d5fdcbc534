package handler

import (
	"log/slog"
	"net/http"

	"remod3/internal/httputil"
	"remod3/internal/stats"
)

// StatsHandler proxies coding-activity statistics
type StatsHandler struct {
	client *stats.Client
	logger *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(client *stats.Client, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{client: client, logger: logger}
}

// Get returns the cached activity summary
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.client.IsConfigured() {
		httputil.RespondError(w, http.StatusServiceUnavailable, "stats are not available")
		return
	}

	payload, err := h.client.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats fetch failed", "error", err)
		httputil.RespondError(w, http.StatusBadGateway, "upstream stats provider failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

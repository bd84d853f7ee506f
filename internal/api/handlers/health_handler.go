package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db       Pinger
	provider string
	log      *zap.Logger
}

func NewHealthHandler(db Pinger, provider string, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, provider: provider, log: log}
}

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	LLMProvider string `json:"llm_provider"`
}

// Health answers 200 while the database responds and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "healthy", Database: "connected", LLMProvider: h.provider}
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health check: database unreachable", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

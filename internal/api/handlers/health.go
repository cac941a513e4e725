package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	datastore Pinger
	timeout   time.Duration
}

func NewHealthHandler(datastore Pinger) *HealthHandler {
	return &HealthHandler{datastore: datastore, timeout: 2 * time.Second}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Live reports that the process is serving requests.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, healthResponse{Status: "healthy", Timestamp: time.Now().Unix()})
}

// Ready reports whether the datastore answers a ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"datastore": "healthy"}
	status, code := "healthy", http.StatusOK

	if err := h.datastore.Ping(ctx); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Datastore readiness check failed")
		checks["datastore"] = "unhealthy"
		status, code = "degraded", http.StatusServiceUnavailable
	}

	writeHealth(w, code, healthResponse{Status: status, Timestamp: time.Now().Unix(), Checks: checks})
}

func writeHealth(w http.ResponseWriter, code int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

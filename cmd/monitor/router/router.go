// Package router configures the monitor's HTTP API.
//
// Routes configured:
//   - GET /status/current?plant=<name> - Latest snapshot for a plant
//   - GET /history?plant=<name> - Current epoch records, oldest first
//   - GET /healthz - Health check endpoint (returns 200 OK)
//   - GET /readyz - Readiness, 503 until the first snapshot is published
//   - GET /metrics - Prometheus metrics endpoint
//
// Snapshots older than the stale threshold carry an X-Plantwater-Stale header.
package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/plantwater/pkg/client"
	"github.com/HatiCode/plantwater/pkg/httpx"
	"github.com/HatiCode/plantwater/pkg/storage"
)

// Monitor provides the stored records of a plant and readiness of the
// sampling loop.
type Monitor interface {
	History(plant string) (storage.History, bool)
	Ready() error
}

// SetupRoutes configures HTTP endpoints for the monitor.
func SetupRoutes(store storage.Store, mon Monitor, staleAfter time.Duration, logger *slog.Logger) *http.ServeMux {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", httpx.HealthHandler())
	mux.Handle("GET /readyz", httpx.HealthHandlerWithCheck(mon.Ready))
	mux.HandleFunc("GET /status/current", handleGetStatus(store, staleAfter, logger))
	mux.HandleFunc("GET /history", handleGetHistory(mon, logger))
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// handleGetStatus returns a handler for GET /status/current?plant=<name>.
func handleGetStatus(store storage.Store, staleAfter time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plant := r.URL.Query().Get("plant")
		if plant == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "plant parameter required")
			return
		}

		snap, found, err := store.GetLatest(plant)
		if err != nil {
			logger.Error("failed to get snapshot", "plant", plant, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("no snapshot for plant %q", plant))
			return
		}

		if client.IsStale(snap, staleAfter) {
			w.Header().Set(client.StaleHeader, "true")
		}

		if err := httpx.WriteJSON(w, http.StatusOK, snap); err != nil {
			logger.Error("failed to write snapshot", "plant", plant, "error", err)
		}
	}
}

// handleGetHistory returns a handler for GET /history?plant=<name>.
func handleGetHistory(mon Monitor, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plant := r.URL.Query().Get("plant")
		if plant == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "plant parameter required")
			return
		}

		h, found := mon.History(plant)
		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("no history for plant %q", plant))
			return
		}
		if err := httpx.WriteJSON(w, http.StatusOK, h); err != nil {
			logger.Error("failed to write history", "plant", plant, "error", err)
		}
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/kazmiyai/favuls/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: time.Since(start).Seconds(),
		})
	}
}

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz is ready only when the backing store answers: a reachable server
// with an unreachable store cannot serve a single operation.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}

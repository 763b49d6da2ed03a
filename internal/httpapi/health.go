package httpapi

import (
	"context"
	"net/http"
	"time"

	"little-lemon/internal/httpx"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Broker   string `json:"broker"`
}

func healthHandler(db, broker Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Database: "ok", Broker: "disabled"}
		status := http.StatusOK

		if err := db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if broker != nil {
			resp.Broker = "ok"
			if err := broker.Ping(ctx); err != nil {
				// Events are best effort; a broker outage does not fail health.
				resp.Broker = "unavailable"
			}
		}

		httpx.WriteJSON(w, status, resp)
	}
}

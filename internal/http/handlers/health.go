package handlers

import (
	"context"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if a.Generator != nil {
		resp["strategy"] = a.Generator.StrategyName()
	}
	if a.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ping(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("health check: database unreachable")
			resp["status"] = "degraded"
			resp["database"] = "unreachable"
			a.json(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = "ok"
	}
	a.json(w, http.StatusOK, resp)
}

// MetricsHandler serves the Prometheus registry.
func (a *App) MetricsHandler() http.Handler {
	return a.Metrics.Handler()
}

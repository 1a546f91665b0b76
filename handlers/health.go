package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Healthz runs every registered check with a short deadline. Any failure turns
// the response into a 503.
func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(a.Health))
	for name := range a.Health {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := envelope{}
	for _, name := range names {
		if err := a.Health[name](ctx); err != nil {
			a.logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, envelope{"status": state, "checks": checks})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/dashboard"
)

// Dashboard returns the rendered view of the current snapshot.
func (a *API) Dashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.Build(a.state.Snapshot(), a.state.Catalog()))
}

// Snapshot returns the raw store snapshot.
func (a *API) Snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.state.Snapshot())
}

// Catalog lists the parameters selectable for one output kind.
func (a *API) Catalog(w http.ResponseWriter, _ *http.Request, rawKind string) {
	kind, err := catalog.ParseKind(rawKind)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_kind", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":   kind,
		"groups": a.state.Catalog().ListByCategory(kind),
	})
}

// Parameter returns one catalog definition.
func (a *API) Parameter(w http.ResponseWriter, _ *http.Request, rawKind string, id int) {
	kind, err := catalog.ParseKind(rawKind)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_kind", err.Error())
		return
	}
	def, err := a.state.Catalog().Lookup(kind, id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown_parameter", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// Stats reports polling counters.
func (a *API) Stats(w http.ResponseWriter, _ *http.Request) {
	if a.stats == nil {
		writeError(w, http.StatusNotFound, "poller_disabled", "Polling is not running")
		return
	}
	stats := a.stats.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"cycles":           stats.Cycles,
		"skipped_ticks":    stats.SkippedTicks,
		"last_duration_ms": stats.LastDuration.Milliseconds(),
		"last_cycle":       stats.LastCycle,
		"live_clients":     a.live.ClientCount(),
	})
}

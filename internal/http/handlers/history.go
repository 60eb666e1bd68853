package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultHistoryWindow = 24 * time.Hour

// HistorySamples returns recorded readings of one environment field.
func (a *API) HistorySamples(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusNotFound, "history_disabled", "History recording is disabled")
		return
	}
	field := strings.TrimSpace(r.URL.Query().Get("field"))
	if field == "" {
		writeError(w, http.StatusBadRequest, "invalid_field", "field is required")
		return
	}
	since, limit, ok := historyWindow(w, r)
	if !ok {
		return
	}
	items, err := a.history.ListSamples(r.Context(), field, since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// HistoryOutputs returns recorded levels of one output channel.
func (a *API) HistoryOutputs(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusNotFound, "history_disabled", "History recording is disabled")
		return
	}
	channel := strings.TrimSpace(r.URL.Query().Get("channel"))
	if channel == "" {
		writeError(w, http.StatusBadRequest, "invalid_channel", "channel is required")
		return
	}
	since, limit, ok := historyWindow(w, r)
	if !ok {
		return
	}
	items, err := a.history.ListOutputSamples(r.Context(), channel, since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// HistoryEvents returns recent device events, newest first.
func (a *API) HistoryEvents(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusNotFound, "history_disabled", "History recording is disabled")
		return
	}
	_, limit, ok := historyWindow(w, r)
	if !ok {
		return
	}
	items, err := a.history.ListEvents(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// historyWindow parses ?since=<RFC3339|duration>&limit=<n>.
func historyWindow(w http.ResponseWriter, r *http.Request) (time.Time, int, bool) {
	since := time.Now().Add(-defaultHistoryWindow)
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			since = time.Now().Add(-d)
		} else if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			since = ts
		} else {
			writeError(w, http.StatusBadRequest, "invalid_since", "since must be RFC3339 or a duration like 6h")
			return time.Time{}, 0, false
		}
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return time.Time{}, 0, false
		}
		limit = value
	}
	return since, limit, true
}

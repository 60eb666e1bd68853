package handlers

import (
	"net/http"
	"strconv"

	"github.com/earth-module/tem-dashboard/internal/catalog"
)

type assignInput struct {
	ParamID *int `json:"param_id"`
}

type locationInput struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	City string   `json:"city"`
}

type keyInput struct {
	Key string `json:"key"`
}

type confirmInput struct {
	Confirm bool `json:"confirm"`
}

// Assign routes a parameter to an output channel. The path carries the
// channel number as printed on the module, starting at 1.
func (a *API) Assign(w http.ResponseWriter, r *http.Request, rawKind, rawIndex string) {
	kind, err := catalog.ParseKind(rawKind)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_kind", err.Error())
		return
	}
	number, err := strconv.Atoi(rawIndex)
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "invalid_index", "index must be a positive integer")
		return
	}
	var payload assignInput
	if err := decodeJSON(r, &payload); err != nil || payload.ParamID == nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "param_id is required")
		return
	}
	if err := a.actions.Assign(r.Context(), kind, number-1, *payload.ParamID); err != nil {
		a.writeActionError(w, "assign", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) SetLocation(w http.ResponseWriter, r *http.Request) {
	var payload locationInput
	if err := decodeJSON(r, &payload); err != nil || payload.Lat == nil || payload.Lng == nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "lat and lng are required")
		return
	}
	if err := a.actions.SetLocation(r.Context(), *payload.Lat, *payload.Lng, payload.City); err != nil {
		a.writeActionError(w, "location", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) SaveKey(w http.ResponseWriter, r *http.Request, provider string) {
	var payload keyInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.actions.SaveKey(r.Context(), provider, payload.Key); err != nil {
		a.writeActionError(w, "save_key", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) DeleteKey(w http.ResponseWriter, r *http.Request, provider string) {
	var payload confirmInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.actions.DeleteKey(r.Context(), provider, payload.Confirm); err != nil {
		a.writeActionError(w, "delete_key", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) Restart(w http.ResponseWriter, r *http.Request) {
	var payload confirmInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.actions.Restart(r.Context(), payload.Confirm); err != nil {
		a.writeActionError(w, "restart", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) ResetWiFi(w http.ResponseWriter, r *http.Request) {
	var payload confirmInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.actions.ResetWiFi(r.Context(), payload.Confirm); err != nil {
		a.writeActionError(w, "reset_wifi", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) CheckUpdate(w http.ResponseWriter, r *http.Request) {
	info, err := a.actions.CheckUpdate(r.Context())
	if err != nil {
		a.writeActionError(w, "check_update", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Refresh triggers an immediate polling cycle.
func (a *API) Refresh(w http.ResponseWriter, _ *http.Request) {
	a.actions.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

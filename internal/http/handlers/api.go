package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/model"
	"github.com/earth-module/tem-dashboard/internal/poller"
	"github.com/earth-module/tem-dashboard/internal/service"
	"github.com/earth-module/tem-dashboard/internal/state"
	"github.com/earth-module/tem-dashboard/internal/storage"
	"github.com/earth-module/tem-dashboard/internal/temapi"
)

// Actions is implemented by *service.Service.
type Actions interface {
	Assign(ctx context.Context, kind catalog.Kind, index, id int) error
	SaveKey(ctx context.Context, provider, key string) error
	DeleteKey(ctx context.Context, provider string, confirm bool) error
	SetLocation(ctx context.Context, lat, lng float64, city string) error
	ResetWiFi(ctx context.Context, confirm bool) error
	Restart(ctx context.Context, confirm bool) error
	CheckUpdate(ctx context.Context) (model.UpdateInfo, error)
	Refresh()
}

// StateSource is implemented by *state.Store.
type StateSource interface {
	Snapshot() state.Snapshot
	Subscribe() (<-chan state.Snapshot, func())
	Catalog() *catalog.Catalog
}

// StatsProvider is implemented by *poller.Poller.
type StatsProvider interface {
	Stats() poller.Stats
}

// History is implemented by *storage.Repository.
type History interface {
	ListSamples(ctx context.Context, field string, since time.Time, limit int) ([]storage.Sample, error)
	ListOutputSamples(ctx context.Context, channel string, since time.Time, limit int) ([]storage.OutputSample, error)
	ListEvents(ctx context.Context, limit int) ([]storage.Event, error)
}

// API groups HTTP handlers and dependencies.
type API struct {
	actions   Actions
	state     StateSource
	stats     StatsProvider
	history   History
	live      *LiveHub
	logger    *slog.Logger
	staticDir string
}

// New creates HTTP handlers with explicit dependencies. history may be nil
// when recording is disabled.
func New(
	actions Actions,
	source StateSource,
	stats StatsProvider,
	history History,
	live *LiveHub,
	logger *slog.Logger,
	staticDir string,
) *API {
	return &API{
		actions:   actions,
		state:     source,
		stats:     stats,
		history:   history,
		live:      live,
		logger:    logger,
		staticDir: staticDir,
	}
}

// Logger returns request logger used by HTTP middleware.
func (a *API) Logger() *slog.Logger {
	return a.logger
}

// Health reports service liveness and the module connection state.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	snap := a.state.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"connection": snap.Connection,
		"online":     snap.Connection.Online(),
	})
}

// Static serves frontend assets and SPA fallback.
func (a *API) Static(w http.ResponseWriter, r *http.Request) {
	if a.staticDir == "" {
		writeError(w, http.StatusNotFound, "frontend_missing", "Frontend dist not found")
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}
	cleanPath := strings.TrimPrefix(filepath.Clean("/"+path), "/")
	fullPath := filepath.Join(a.staticDir, cleanPath)
	if info, err := os.Stat(fullPath); err == nil && !info.IsDir() {
		http.ServeFile(w, r, fullPath)
		return
	}
	http.ServeFile(w, r, filepath.Join(a.staticDir, "index.html"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// writeActionError maps service and device errors to HTTP responses.
func (a *API) writeActionError(w http.ResponseWriter, action string, err error) {
	var validation *service.ValidationError
	var statusErr *temapi.StatusError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "invalid_"+validation.Field, validation.Error())
	case errors.Is(err, service.ErrUnknownParameter):
		writeError(w, http.StatusUnprocessableEntity, "unknown_parameter", err.Error())
	case errors.Is(err, service.ErrUnknownChannel):
		writeError(w, http.StatusNotFound, "unknown_channel", err.Error())
	case errors.Is(err, service.ErrConfirmationRequired):
		writeError(w, http.StatusPreconditionRequired, "confirmation_required", "Set confirm to true to proceed")
	case errors.As(err, &statusErr):
		a.logger.Warn("device rejected request", "action", action, "err", err)
		writeError(w, http.StatusBadGateway, "device_error", err.Error())
	case temapi.IsUnreachable(err):
		a.logger.Warn("device unreachable", "action", action, "err", err)
		writeError(w, http.StatusGatewayTimeout, "device_unreachable", "Module did not respond")
	default:
		a.logger.Error("action failed", "action", action, "err", err)
		writeError(w, http.StatusBadGateway, action+"_failed", err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

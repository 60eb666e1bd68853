package httpapi

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// LogProvider supplies the logger the request middleware writes to.
type LogProvider interface {
	Logger() *slog.Logger
}

func providerLogger(provider LogProvider) *slog.Logger {
	if provider != nil && provider.Logger() != nil {
		return provider.Logger().With("component", "http")
	}
	return slog.Default().With("component", "http")
}

// AccessLog writes one line per request. Health probes go to debug; a live
// feed session is logged once it closes, with the session length.
func AccessLog(provider LogProvider) func(http.Handler) http.Handler {
	logger := providerLogger(provider)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startedAt := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level, msg := slog.LevelInfo, "http request"
			switch {
			case r.URL.Path == "/healthz":
				level = slog.LevelDebug
			case rec.upgraded:
				msg = "live session closed"
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, msg,
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.size,
				"duration_ms", time.Since(startedAt).Milliseconds(),
			)
		})
	}
}

// prefixHeaders name the mount point a reverse proxy serves the dashboard
// under, most specific first.
var prefixHeaders = []string{"X-Forwarded-Prefix", "X-Ingress-Path"}

// StripPathPrefix removes the proxy mount point so routes match as if the
// dashboard were served from the root.
func StripPathPrefix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, header := range prefixHeaders {
			prefix := strings.TrimRight(strings.TrimSpace(r.Header.Get(header)), "/")
			if prefix == "" {
				continue
			}
			if r.URL.Path != prefix && !strings.HasPrefix(r.URL.Path, prefix+"/") {
				continue
			}
			r.URL.Path = strings.TrimPrefix(r.URL.Path, prefix)
			if r.URL.Path == "" {
				r.URL.Path = "/"
			}
			r.URL.RawPath = ""
			break
		}
		next.ServeHTTP(w, r)
	})
}

// Recoverer turns a handler panic into the API's JSON error envelope.
func Recoverer(provider LogProvider) func(http.Handler) http.Handler {
	logger := providerLogger(provider)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				requestID := middleware.GetReqID(r.Context())
				logger.Error("handler panic",
					"panic", fmt.Sprint(recovered),
					"request_id", requestID,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{
						"code":       "internal_error",
						"message":    "the dashboard hit an internal error",
						"request_id": requestID,
					},
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status   int
	size     int
	upgraded bool
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(body []byte) (int, error) {
	n, err := w.ResponseWriter.Write(body)
	w.size += n
	return n, err
}

// Hijack lets the live feed upgrade through the access log.
func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	w.upgraded = true
	return hijacker.Hijack()
}

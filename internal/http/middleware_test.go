package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

type bufferLogger struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *bufferLogger) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *bufferLogger) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *bufferLogger) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(b, nil))
}

func TestStripPathPrefix(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		path   string
		want   string
	}{
		{name: "forwarded prefix", header: "X-Forwarded-Prefix", value: "/tem/", path: "/tem/api/dashboard", want: "/api/dashboard"},
		{name: "ingress root", header: "X-Ingress-Path", value: "/ingress/abc", path: "/ingress/abc", want: "/"},
		{name: "partial segment kept", header: "X-Forwarded-Prefix", value: "/te", path: "/tem/api/stats", want: "/tem/api/stats"},
		{name: "no header", path: "/api/catalog/cv", want: "/api/catalog/cv"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := StripPathPrefix(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Path
			}))
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Fatalf("path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecovererWritesErrorEnvelope(t *testing.T) {
	logs := &bufferLogger{}
	h := middleware.RequestID(Recoverer(logs)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("snapshot missing")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "internal_error" || body.Error.RequestID == "" {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if !strings.Contains(logs.String(), "snapshot missing") {
		t.Fatalf("panic not logged: %s", logs.String())
	}
}

func TestAccessLogLevels(t *testing.T) {
	logs := &bufferLogger{}
	h := AccessLog(logs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/refresh" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if logs.String() != "" {
		t.Fatalf("health probe logged at info: %s", logs.String())
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	out := logs.String()
	for _, want := range []string{"level=WARN", "component=http", "path=/api/refresh", "status=502"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %q: %s", want, out)
		}
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

type fakeModule struct {
	mu       sync.Mutex
	restarts int
	params   map[string]string
}

func (f *fakeModule) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"deviceID":"abc123","version":"2.1.0","rssi":-58,"freeHeap":130000,"uptime":7200}`))
	})
	mux.HandleFunc("/api/cv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cv1":0.5,"cv2":0,"gate1":1,"gate2":0,"cv1param":0,"cv2param":1,"gate1param":8,"gate2param":3}`))
	})
	mux.HandleFunc("/api/weather", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"temperature":18.4,"humidity":64}`))
	})
	mux.HandleFunc("/api/keys", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hasOpenWeather":true,"hasNasa":false}`))
	})
	mux.HandleFunc("/api/restart", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.restarts++
		f.mu.Unlock()
		_, _ = w.Write([]byte("Restarting"))
	})
	mux.HandleFunc("/api/params", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		if f.params == nil {
			f.params = map[string]string{}
		}
		for k := range r.PostForm {
			f.params[k] = r.PostForm.Get(k)
		}
		f.mu.Unlock()
		_, _ = w.Write([]byte("OK"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestParamsCommand(t *testing.T) {
	out, err := execute(t, "params", "gate")
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	for _, want := range []string{"GATE", "Gate Logic", "Day/Night", ">0° ON, <-5° OFF"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Temperature") {
		t.Fatalf("cv parameters listed for gate:\n%s", out)
	}
}

func TestStatusCommand(t *testing.T) {
	module := &fakeModule{}
	srv := module.server(t)

	out, err := execute(t, "status", "--host", srv.URL)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	for _, want := range []string{"[connected]", "2.1.0", "-58 dBm", "2h", "18.4°C", "CV 1", "2.50V", "GATE 1", "HIGH", "Rain/Snow"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRestartNeedsYes(t *testing.T) {
	module := &fakeModule{}
	srv := module.server(t)

	_, err := execute(t, "restart", "--host", srv.URL)
	if !errors.Is(err, errNeedsYes) {
		t.Fatalf("restart without --yes: err = %v", err)
	}
	if _, err := execute(t, "restart", "--host", srv.URL, "--yes"); err != nil {
		t.Fatalf("restart --yes: %v", err)
	}
	module.mu.Lock()
	defer module.mu.Unlock()
	if module.restarts != 1 {
		t.Fatalf("restarts = %d", module.restarts)
	}
}

func TestAssignCommandUsesChannelNumber(t *testing.T) {
	module := &fakeModule{}
	srv := module.server(t)

	out, err := execute(t, "assign", "cv", "1", "10", "--host", srv.URL)
	if err != nil {
		t.Fatalf("assign: %v\n%s", err, out)
	}
	if !strings.Contains(out, "cv1 → Moon Phase") {
		t.Fatalf("output = %q", out)
	}
	module.mu.Lock()
	defer module.mu.Unlock()
	if len(module.params) != 1 || module.params["cv1"] != "10" {
		t.Fatalf("module params = %v", module.params)
	}

	if _, err := execute(t, "assign", "cv", "0", "10", "--host", srv.URL); err == nil {
		t.Fatalf("channel 0 should be rejected")
	}
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWithWriterFormats(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, slog.LevelInfo, "json").Info("cycle done", "component", "poller")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json output: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "cycle done" || entry["component"] != "poller" {
		t.Fatalf("entry = %v", entry)
	}

	buf.Reset()
	logger := NewWithWriter(&buf, slog.LevelWarn, "text")
	logger.Info("hidden")
	logger.Warn("shown", "err", "timeout")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") || !strings.Contains(out, "err=timeout") {
		t.Fatalf("text output = %q", out)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tem.log")
	logger, closer, err := OpenFile(path, slog.LevelDebug, "text")
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	logger.Debug("written to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Fatalf("log file = %q", data)
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatal("expected default logger for empty context")
	}
	logger := Discard()
	if FromContext(NewContext(context.Background(), logger)) != logger {
		t.Fatal("expected stored logger")
	}
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/earth-module/tem-dashboard/internal/state"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("", "")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Device.BaseURL() != "http://tem.local" {
		t.Fatalf("base url = %q", cfg.Device.BaseURL())
	}
	if cfg.Device.PollInterval != 2*time.Second || cfg.Device.OfflineThreshold != 3 {
		t.Fatalf("device = %+v", cfg.Device)
	}
	if cfg.OutputLayout() != state.DefaultLayout {
		t.Fatalf("layout = %+v", cfg.OutputLayout())
	}
	if cfg.HistoryEnabled() || cfg.MQTTEnabled() {
		t.Fatal("history and mqtt must be off by default")
	}
	if cfg.LogLevel() != slog.LevelInfo || cfg.Log.Format != FormatJSON {
		t.Fatalf("log = %+v", cfg.Log)
	}
}

func TestLoadPrecedence(t *testing.T) {
	yamlPath := writeFile(t, "tem.yaml", strings.Join([]string{
		"device:",
		"  host: 192.168.4.1",
		"  poll_interval: 5s",
		"  layout: legacy",
		"history:",
		"  db_path: /tmp/history.db",
		"mqtt:",
		"  broker: tcp://broker:1883",
		"  topic: studio/tem/",
		"log:",
		"  level: debug",
	}, "\n"))
	envPath := writeFile(t, ".env", "TEM_POLL_INTERVAL=4s\nLOG_FORMAT=text\nTEM_OFFLINE_THRESHOLD=5\n")
	t.Setenv("TEM_POLL_INTERVAL", "3s")
	// godotenv writes into the process environment; register cleanups.
	for _, key := range []string{"LOG_FORMAT", "TEM_OFFLINE_THRESHOLD"} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}

	cfg, err := load(yamlPath, envPath)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Device.BaseURL() != "http://192.168.4.1" {
		t.Fatalf("base url = %q", cfg.Device.BaseURL())
	}
	// Process environment wins over .env, which wins over YAML.
	if cfg.Device.PollInterval != 3*time.Second {
		t.Fatalf("poll interval = %s", cfg.Device.PollInterval)
	}
	if cfg.Log.Format != FormatText || cfg.Device.OfflineThreshold != 5 {
		t.Fatalf("env file not applied: %+v %+v", cfg.Log, cfg.Device)
	}
	if cfg.OutputLayout() != state.LegacyLayout {
		t.Fatalf("layout = %+v", cfg.OutputLayout())
	}
	if !cfg.HistoryEnabled() || cfg.DBDir() != "/tmp" {
		t.Fatalf("history = %+v", cfg.History)
	}
	if !cfg.MQTTEnabled() || cfg.MQTT.Topic != "studio/tem" {
		t.Fatalf("mqtt = %+v", cfg.MQTT)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Fatalf("log level = %v", cfg.LogLevel())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := load(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
	if _, err := load("", filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env must be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		check   func(*testing.T, Config)
	}{
		{
			name:   "clamps poll interval",
			mutate: func(c *Config) { c.Device.PollInterval = time.Millisecond },
			check: func(t *testing.T, c Config) {
				if c.Device.PollInterval != 250*time.Millisecond {
					t.Fatalf("poll interval = %s", c.Device.PollInterval)
				}
			},
		},
		{
			name:   "restores threshold",
			mutate: func(c *Config) { c.Device.OfflineThreshold = 0 },
			check: func(t *testing.T, c Config) {
				if c.Device.OfflineThreshold != state.DefaultOfflineThreshold {
					t.Fatalf("threshold = %d", c.Device.OfflineThreshold)
				}
			},
		},
		{
			name:   "layout case",
			mutate: func(c *Config) { c.Device.Layout = " Legacy " },
			check: func(t *testing.T, c Config) {
				if c.Device.Layout != LayoutLegacy {
					t.Fatalf("layout = %q", c.Device.Layout)
				}
			},
		},
		{name: "unknown layout", mutate: func(c *Config) { c.Device.Layout = "eurorack" }, wantErr: true},
		{name: "unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{
			name: "retention shorter than interval",
			mutate: func(c *Config) {
				c.History.SampleInterval = time.Hour
				c.History.Retention = time.Minute
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

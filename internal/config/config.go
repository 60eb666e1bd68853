package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/earth-module/tem-dashboard/internal/model"
	"github.com/earth-module/tem-dashboard/internal/state"
)

const (
	defaultHost             = "tem.local"
	defaultPollInterval     = 2 * time.Second
	defaultUpdateCheckDelay = 3 * time.Second
	defaultHTTPAddr         = ":8099"
	defaultSampleInterval   = time.Minute
	defaultRetention        = 7 * 24 * time.Hour
	defaultMQTTClientID     = "tem-dashboard"
	defaultMQTTTopic        = "tem"

	LayoutDefault = "default"
	LayoutLegacy  = "legacy"

	FormatJSON = "json"
	FormatText = "text"
)

// Config stores runtime settings. Sources apply in order: defaults, YAML
// file, .env file, process environment. CLI flags are applied by the caller.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	HTTP    HTTPConfig    `yaml:"http"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

type DeviceConfig struct {
	model.Endpoint `yaml:",inline"`

	OfflineThreshold int           `yaml:"offline_threshold"`
	Layout           string        `yaml:"layout"`
	UpdateCheckDelay time.Duration `yaml:"update_check_delay"`
	SkipUpdateCheck  bool          `yaml:"skip_update_check"`
}

type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// HistoryConfig controls sample recording. An empty DBPath disables it.
type HistoryConfig struct {
	DBPath         string        `yaml:"db_path"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	Retention      time.Duration `yaml:"retention"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File receives logs instead of stderr; the terminal dashboard needs it.
	File string `yaml:"file"`
}

// MQTTConfig enables the state feed when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	Retain   bool   `yaml:"retain"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Device: DeviceConfig{
			Endpoint: model.Endpoint{
				Host:         defaultHost,
				PollInterval: defaultPollInterval,
			},
			OfflineThreshold: state.DefaultOfflineThreshold,
			Layout:           LayoutDefault,
			UpdateCheckDelay: defaultUpdateCheckDelay,
		},
		HTTP: HTTPConfig{Addr: defaultHTTPAddr},
		History: HistoryConfig{
			SampleInterval: defaultSampleInterval,
			Retention:      defaultRetention,
		},
		Log: LogConfig{Level: "info", Format: FormatJSON},
		MQTT: MQTTConfig{
			ClientID: defaultMQTTClientID,
			Topic:    defaultMQTTTopic,
			Retain:   true,
		},
	}
}

// Load reads path (optional; TEM_CONFIG when empty) and ./.env, then applies
// environment overrides and validates.
func Load(path string) (Config, error) {
	if path == "" {
		path = getenv("TEM_CONFIG", "")
	}
	return load(path, ".env")
}

func load(path, envFile string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if envFile != "" {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	d := &c.Device
	d.Host = getenv("TEM_BASE_URL", d.Host)
	d.SSL = parseBool("TEM_SSL", d.SSL)
	d.VerifyTLS = parseBool("TEM_VERIFY_TLS", d.VerifyTLS)
	d.PollInterval = parseDuration("TEM_POLL_INTERVAL", d.PollInterval)
	d.OfflineThreshold = parseInt("TEM_OFFLINE_THRESHOLD", d.OfflineThreshold)
	d.Layout = getenv("TEM_LAYOUT", d.Layout)
	d.UpdateCheckDelay = parseDuration("TEM_UPDATE_CHECK_DELAY", d.UpdateCheckDelay)
	d.SkipUpdateCheck = parseBool("TEM_SKIP_UPDATE_CHECK", d.SkipUpdateCheck)

	c.HTTP.Addr = getenv("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.StaticDir = getenv("STATIC_DIR", c.HTTP.StaticDir)

	c.History.DBPath = getenv("DB_PATH", c.History.DBPath)
	c.History.SampleInterval = parseDuration("HISTORY_SAMPLE_INTERVAL", c.History.SampleInterval)
	c.History.Retention = parseDuration("HISTORY_RETENTION", c.History.Retention)

	c.Log.Level = getenv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getenv("LOG_FORMAT", c.Log.Format)
	c.Log.File = getenv("LOG_FILE", c.Log.File)

	c.MQTT.Broker = getenv("MQTT_BROKER", c.MQTT.Broker)
	c.MQTT.ClientID = getenv("MQTT_CLIENT_ID", c.MQTT.ClientID)
	c.MQTT.Username = getenv("MQTT_USERNAME", c.MQTT.Username)
	c.MQTT.Password = getenv("MQTT_PASSWORD", c.MQTT.Password)
	c.MQTT.Topic = getenv("MQTT_TOPIC", c.MQTT.Topic)
	c.MQTT.Retain = parseBool("MQTT_RETAIN", c.MQTT.Retain)
}

// Validate normalises values in place and rejects settings that cannot work.
func (c *Config) Validate() error {
	d := &c.Device
	d.Host = strings.TrimSpace(d.Host)
	if d.Host == "" {
		d.Host = defaultHost
	}
	d.PollInterval = d.EffectivePollInterval()
	if d.OfflineThreshold < 1 {
		d.OfflineThreshold = state.DefaultOfflineThreshold
	}
	if d.UpdateCheckDelay < 0 {
		d.UpdateCheckDelay = 0
	}
	d.Layout = strings.ToLower(strings.TrimSpace(d.Layout))
	switch d.Layout {
	case "":
		d.Layout = LayoutDefault
	case LayoutDefault, LayoutLegacy:
	default:
		return fmt.Errorf("invalid layout %q: want %s or %s", d.Layout, LayoutDefault, LayoutLegacy)
	}

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = defaultHTTPAddr
	}

	if c.History.SampleInterval <= 0 {
		c.History.SampleInterval = defaultSampleInterval
	}
	if c.History.Retention <= 0 {
		c.History.Retention = defaultRetention
	}
	if c.History.Retention < c.History.SampleInterval {
		return fmt.Errorf("history retention %s is shorter than sample interval %s", c.History.Retention, c.History.SampleInterval)
	}

	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "":
		c.Log.Format = FormatJSON
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("invalid log format %q: want %s or %s", c.Log.Format, FormatJSON, FormatText)
	}

	c.MQTT.Topic = strings.Trim(strings.TrimSpace(c.MQTT.Topic), "/")
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = defaultMQTTTopic
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = defaultMQTTClientID
	}
	return nil
}

// OutputLayout maps the layout name to channel counts.
func (c Config) OutputLayout() state.Layout {
	if c.Device.Layout == LayoutLegacy {
		return state.LegacyLayout
	}
	return state.DefaultLayout
}

func (c Config) LogLevel() slog.Level {
	return parseLogLevel(c.Log.Level)
}

func (c Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.History.DBPath) != ""
}

func (c Config) MQTTEnabled() bool {
	return strings.TrimSpace(c.MQTT.Broker) != ""
}

// DBDir returns the target directory for the history database.
func (c Config) DBDir() string {
	return filepath.Dir(c.History.DBPath)
}

func getenv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func parseBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

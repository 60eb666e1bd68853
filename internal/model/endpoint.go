package model

import (
	"net/url"
	"strings"
	"time"
)

// Endpoint describes where the module's REST API is reachable.
type Endpoint struct {
	Host         string        `json:"host" yaml:"host"`
	SSL          bool          `json:"ssl" yaml:"ssl"`
	VerifyTLS    bool          `json:"verify_tls" yaml:"verify_tls"`
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
}

const minPollInterval = 250 * time.Millisecond

// EffectivePollInterval clamps the configured interval to a sane floor.
func (e Endpoint) EffectivePollInterval() time.Duration {
	if e.PollInterval <= 0 {
		return 2 * time.Second
	}
	if e.PollInterval < minPollInterval {
		return minPollInterval
	}
	return e.PollInterval
}

// BaseURL returns the API root without a trailing slash. The module serves
// its endpoints under /api, so an explicit /api suffix is stripped.
func (e Endpoint) BaseURL() string {
	defaultScheme := "https"
	if !e.SSL {
		defaultScheme = "http"
	}

	raw := strings.TrimSpace(e.Host)
	if raw == "" {
		return defaultScheme + "://tem.local"
	}
	if !strings.Contains(raw, "://") {
		raw = defaultScheme + "://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		host := strings.TrimSpace(e.Host)
		host = strings.TrimPrefix(strings.TrimPrefix(host, "http://"), "https://")
		host = strings.Trim(host, "/")
		return defaultScheme + "://" + host
	}

	scheme := strings.TrimSpace(parsed.Scheme)
	if scheme == "" {
		scheme = defaultScheme
	}
	path := strings.TrimSuffix(strings.TrimSpace(parsed.Path), "/")
	path = strings.TrimSuffix(path, "/api")
	return scheme + "://" + parsed.Host + path
}

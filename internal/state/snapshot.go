package state

import (
	"time"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/model"
)

type Connection string

const (
	ConnectionConnected Connection = "connected"
	ConnectionOffline   Connection = "offline"
)

// Online reports whether the module answered recently.
func (c Connection) Online() bool {
	return c == ConnectionConnected
}

// Layout is the number of output channels per kind.
type Layout struct {
	CV   int `json:"cv" yaml:"cv"`
	Gate int `json:"gate" yaml:"gate"`
}

var (
	// DefaultLayout is the current hardware: 2 CV + 2 GATE.
	DefaultLayout = Layout{CV: 2, Gate: 2}
	// LegacyLayout is the first hardware revision: 4 CV.
	LegacyLayout = Layout{CV: 4}
)

// Count returns the channel count for kind.
func (l Layout) Count(kind catalog.Kind) int {
	if kind == catalog.KindGate {
		return l.Gate
	}
	return l.CV
}

var (
	defaultCVParams   = []int{catalog.ParamTemperature, catalog.ParamHumidity, catalog.ParamPressure, catalog.ParamWindSpeed}
	defaultGateParams = []int{catalog.ParamPrecipitation, catalog.ParamWindSpeed}
)

func defaultParam(kind catalog.Kind, index int) int {
	params := defaultCVParams
	if kind == catalog.KindGate {
		params = defaultGateParams
	}
	return params[index%len(params)]
}

// Channel is one output assignment with its last reported level.
type Channel struct {
	Kind catalog.Kind `json:"kind"`
	// Index is 0-based within the kind; Name is the module's 1-based name.
	Index   int    `json:"index"`
	Name    string `json:"name"`
	ParamID int    `json:"param_id"`
	// Level is nil until the module has reported it.
	Level *float64 `json:"level"`
	// Pending is set by an optimistic local assignment until the module
	// reports the channel's parameter again.
	Pending bool `json:"pending"`
}

// Location is the module's configured position.
type Location struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	City  string  `json:"city,omitempty"`
	Known bool    `json:"known"`
}

// KeyStatus holds API-key presence; key material is never stored.
type KeyStatus struct {
	Loaded         bool `json:"loaded"`
	HasOpenWeather bool `json:"has_openweather"`
	HasNasa        bool `json:"has_nasa"`
}

// Snapshot is a read-only copy of the store.
type Snapshot struct {
	Revision      uint64              `json:"revision"`
	Env           model.Environment   `json:"env"`
	Outputs       []Channel           `json:"outputs"`
	Device        model.StatusPayload `json:"device"`
	Location      Location            `json:"location"`
	Keys          KeyStatus           `json:"keys"`
	Connection    Connection          `json:"connection"`
	FailureStreak int                 `json:"failure_streak"`
	LastUpdate    time.Time           `json:"last_update"`
	LastAttempt   time.Time           `json:"last_attempt"`
	Update        model.UpdateInfo    `json:"update"`
}

// Channel returns the output for (kind, 0-based index).
func (s Snapshot) Channel(kind catalog.Kind, index int) (Channel, bool) {
	for _, ch := range s.Outputs {
		if ch.Kind == kind && ch.Index == index {
			return ch, true
		}
	}
	return Channel{}, false
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Env = s.Env.Clone()
	out.Outputs = make([]Channel, len(s.Outputs))
	for i, ch := range s.Outputs {
		if ch.Level != nil {
			level := *ch.Level
			ch.Level = &level
		}
		out.Outputs[i] = ch
	}
	out.Device = cloneStatus(s.Device)
	return out
}

func cloneStatus(in model.StatusPayload) model.StatusPayload {
	return model.StatusPayload{
		DeviceID:  clonePtr(in.DeviceID),
		Version:   clonePtr(in.Version),
		IP:        clonePtr(in.IP),
		SSID:      clonePtr(in.SSID),
		RSSI:      clonePtr(in.RSSI),
		FreeHeap:  clonePtr(in.FreeHeap),
		Uptime:    clonePtr(in.Uptime),
		Latitude:  clonePtr(in.Latitude),
		Longitude: clonePtr(in.Longitude),
		CityName:  clonePtr(in.CityName),
	}
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

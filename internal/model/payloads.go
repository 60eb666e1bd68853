package model

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Value is one environmental slot. The zero Value is the "unknown"
// placeholder used before the module has reported the field.
type Value struct {
	Num     float64
	Text    string
	Textual bool
	Known   bool
}

// Number builds a known numeric value.
func Number(v float64) Value { return Value{Num: v, Known: true} }

// Text builds a known textual value.
func Text(s string) Value { return Value{Text: s, Textual: true, Known: true} }

// Float reports the numeric value and whether it is usable for arithmetic.
func (v Value) Float() (float64, bool) {
	if !v.Known || v.Textual {
		return 0, false
	}
	if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
		return 0, false
	}
	return v.Num, true
}

// MarshalJSON renders placeholders as null so API consumers can tell them
// apart from zero.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case !v.Known:
		return []byte("null"), nil
	case v.Textual:
		return json.Marshal(v.Text)
	case math.IsNaN(v.Num) || math.IsInf(v.Num, 0):
		return []byte("null"), nil
	default:
		return json.Marshal(v.Num)
	}
}

func valueFromAny(raw any) (Value, bool) {
	switch t := raw.(type) {
	case nil:
		return Value{}, false
	case float64:
		return Number(t), true
	case bool:
		if t {
			return Number(1), true
		}
		return Number(0), true
	case string:
		return Text(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Text(t.String()), true
		}
		return Number(f), true
	default:
		return Text(fmt.Sprintf("%v", t)), true
	}
}

// StatusPayload mirrors GET /api/status. Every field is optional so a merge
// can tell "absent" from "zero".
type StatusPayload struct {
	DeviceID  *string  `json:"deviceID,omitempty"`
	Version   *string  `json:"version,omitempty"`
	IP        *string  `json:"ip,omitempty"`
	SSID      *string  `json:"ssid,omitempty"`
	RSSI      *int     `json:"rssi,omitempty"`
	FreeHeap  *int64   `json:"freeHeap,omitempty"`
	Uptime    *int64   `json:"uptime,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	CityName  *string  `json:"cityName,omitempty"`
}

// KeysPayload mirrors GET /api/keys.
type KeysPayload struct {
	HasOpenWeather *bool   `json:"hasOpenWeather,omitempty"`
	HasNasa        *bool   `json:"hasNasa,omitempty"`
	OpenWeatherKey *string `json:"openWeatherKey,omitempty"`
	NasaKey        *string `json:"nasaKey,omitempty"`
}

// WeatherPayload mirrors GET /api/weather: a flat object of environmental
// fields. HasData is the optional explicit "real data" flag.
type WeatherPayload struct {
	Fields  map[string]Value
	HasData *bool
}

func (p *WeatherPayload) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Fields = make(map[string]Value, len(raw))
	for key, item := range raw {
		if key == "hasData" {
			if b, ok := item.(bool); ok {
				p.HasData = &b
			}
			continue
		}
		if v, ok := valueFromAny(item); ok {
			p.Fields[key] = v
		}
	}
	return nil
}

func (p WeatherPayload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+1)
	for key, v := range p.Fields {
		out[key] = v
	}
	if p.HasData != nil {
		out["hasData"] = *p.HasData
	}
	return json.Marshal(out)
}

var outputKeyPattern = regexp.MustCompile(`^(cv|gate)([1-9][0-9]?)(param)?$`)

// OutputsPayload mirrors GET /api/cv. Keys depend on the hardware revision
// (cv1..cv4, or cv1, cv2, gate1, gate2), so they are kept by channel name.
type OutputsPayload struct {
	Levels map[string]float64
	Params map[string]int
}

func (p *OutputsPayload) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Levels = map[string]float64{}
	p.Params = map[string]int{}
	for key, item := range raw {
		match := outputKeyPattern.FindStringSubmatch(key)
		if match == nil || item == nil {
			continue
		}
		channel := match[1] + match[2]
		if match[3] != "" {
			if id, ok := paramID(item); ok {
				p.Params[channel] = id
			}
			continue
		}
		p.Levels[channel] = levelOf(item)
	}
	return nil
}

func (p OutputsPayload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Levels)+len(p.Params))
	for channel, level := range p.Levels {
		out[channel] = level
	}
	for channel, id := range p.Params {
		out[channel+"param"] = id
	}
	return json.Marshal(out)
}

// levelOf accepts float, boolean and numeric-string encodings. Anything else
// is reported as NaN and rendered as a safe zero downstream.
func levelOf(item any) float64 {
	switch t := item.(type) {
	case float64:
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func paramID(item any) (int, bool) {
	switch t := item.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(t))
		return id, err == nil
	default:
		return 0, false
	}
}

// UpdateCheck mirrors GET /api/check-update.
type UpdateCheck struct {
	CheckURL        string `json:"checkUrl,omitempty"`
	CurrentVersion  string `json:"currentVersion"`
	UpdateWizardURL string `json:"updateWizardUrl"`
}

// WizardCheck mirrors the chained GET <checkUrl> response.
type WizardCheck struct {
	UpdateAvailable      bool   `json:"updateAvailable"`
	CurrentLatestVersion string `json:"currentLatestVersion"`
}

// UpdateInfo combines both update-check responses.
type UpdateInfo struct {
	Available      bool   `json:"available"`
	CurrentVersion string `json:"current_version"`
	LatestVersion  string `json:"latest_version,omitempty"`
	WizardURL      string `json:"wizard_url,omitempty"`
	Checked        bool   `json:"checked"`
}

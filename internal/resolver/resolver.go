package resolver

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/model"
)

// Placeholder is shown for values that are unknown. It is never "0".
const Placeholder = "---"

// UnknownLabel names an output whose assigned id is not in the catalog.
const UnknownLabel = "Unknown"

// ErrUnavailable means there is no displayable value for a parameter.
var ErrUnavailable = errors.New("value unavailable")

// legacyPlaceholder is the dash the module reports before a provider answered.
const legacyPlaceholder = "-"

// Reading is a formatted parameter value.
type Reading struct {
	Text  string  `json:"text"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
	// Icon is the moon glyph index, -1 for other parameters.
	Icon int `json:"icon"`
}

func (r Reading) String() string { return r.Text + r.Unit }

// Resolve formats the live value of parameter (kind, id) from env.
func Resolve(cat *catalog.Catalog, kind catalog.Kind, id int, env model.Environment) (Reading, error) {
	def, err := cat.Lookup(kind, id)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ResolveDefinition(def, env)
}

// ResolveDefinition formats def against env.
func ResolveDefinition(def catalog.Definition, env model.Environment) (Reading, error) {
	if len(def.Sources) == 0 {
		return Reading{}, fmt.Errorf("%w: %s has no live source", ErrUnavailable, def.Name)
	}
	if def.Composite() {
		return composite(def, env)
	}

	slot := env.Get(def.Sources[0])
	if !slot.Known {
		return Reading{}, fmt.Errorf("%w: %s not reported", ErrUnavailable, def.Sources[0])
	}
	v, ok := numeric(slot)
	if !ok && slot.Textual {
		text := strings.TrimSpace(slot.Text)
		if text == "" || text == legacyPlaceholder {
			return Reading{}, fmt.Errorf("%w: %s not reported", ErrUnavailable, def.Sources[0])
		}
		return Reading{Text: text, Unit: def.Unit, Icon: -1}, nil
	}
	if !ok {
		return Reading{}, fmt.Errorf("%w: %s is not a number", ErrUnavailable, def.Sources[0])
	}

	if def.Format == catalog.FormatMoon {
		icon := MoonIcon(v)
		return Reading{Text: MoonGlyph(icon), Unit: def.Unit, Value: v, Icon: icon}, nil
	}
	return Reading{Text: FormatFixed(v, def.Decimals), Unit: def.Unit, Value: v, Icon: -1}, nil
}

// composite sums the source fields; missing addends count as zero, but at
// least one addend must be known.
func composite(def catalog.Definition, env model.Environment) (Reading, error) {
	var (
		sum   float64
		known bool
	)
	for _, field := range def.Sources {
		if v, ok := numeric(env.Get(field)); ok {
			sum += v
			known = true
		}
	}
	if !known {
		return Reading{}, fmt.Errorf("%w: no addend of %s reported", ErrUnavailable, def.Name)
	}
	return Reading{Text: FormatFixed(sum, def.Decimals), Unit: def.Unit, Value: sum, Icon: -1}, nil
}

// numeric returns slot as a finite number. Text that parses as a number
// counts as one.
func numeric(slot model.Value) (float64, bool) {
	if v, ok := slot.Float(); ok {
		return v, true
	}
	if !slot.Known || !slot.Textual {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(slot.Text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatFixed renders v with a fixed number of decimals. Negative zero
// renders without a sign.
func FormatFixed(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	out := strconv.FormatFloat(v, 'f', decimals, 64)
	if strings.HasPrefix(out, "-") && strings.Trim(out, "-0.") == "" {
		return out[1:]
	}
	return out
}

// Display renders a Resolve result, substituting the placeholder on error.
func Display(r Reading, err error) string {
	if err != nil {
		return Placeholder
	}
	return r.String()
}

// Label returns the parameter name or UnknownLabel.
func Label(cat *catalog.Catalog, kind catalog.Kind, id int) string {
	def, err := cat.Lookup(kind, id)
	if err != nil {
		return UnknownLabel
	}
	return def.Name
}

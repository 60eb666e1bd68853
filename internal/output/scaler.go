package output

import (
	"math"
	"strconv"

	"github.com/earth-module/tem-dashboard/internal/catalog"
)

const (
	// FullScaleVolts is the CV output voltage at level 1.
	FullScaleVolts = 5.0
	// GateThreshold is exclusive: a level of exactly 0.5 is LOW.
	GateThreshold = 0.5
)

// Display is the rendered state of one output channel.
type Display struct {
	Text string  `json:"text"`
	Bar  float64 `json:"bar_percent"`
	High bool    `json:"high"`
}

// Sanitize maps NaN and infinities to the safe zero level.
func Sanitize(level float64) float64 {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return 0
	}
	return level
}

// Level dereferences a reported level; nil means "not reported" and is 0.
func Level(level *float64) float64 {
	if level == nil {
		return 0
	}
	return Sanitize(*level)
}

// Voltage converts a normalized level to volts.
func Voltage(level float64) float64 {
	return Sanitize(level) * FullScaleVolts
}

// VoltageText renders Voltage with two decimals, e.g. "2.50V".
func VoltageText(level float64) string {
	v := Voltage(level)
	text := strconv.FormatFloat(v, 'f', 2, 64)
	if text == "-0.00" {
		text = "0.00"
	}
	return text + "V"
}

// BarPercent converts a level to a bar fill clamped to [0,100].
func BarPercent(level float64) float64 {
	pct := Sanitize(level) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

func GateHigh(level float64) bool {
	return Sanitize(level) > GateThreshold
}

func GateText(level float64) string {
	if GateHigh(level) {
		return "HIGH"
	}
	return "LOW"
}

func GateBarPercent(level float64) float64 {
	if GateHigh(level) {
		return 100
	}
	return 0
}

// Render produces the display for a channel of the given kind.
func Render(kind catalog.Kind, level float64) Display {
	if kind == catalog.KindGate {
		return Display{Text: GateText(level), Bar: GateBarPercent(level), High: GateHigh(level)}
	}
	return Display{Text: VoltageText(level), Bar: BarPercent(level), High: GateHigh(level)}
}

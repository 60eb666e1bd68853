package resolver

import "math"

var moonGlyphs = [8]string{"🌑", "🌒", "🌓", "🌔", "🌕", "🌖", "🌗", "🌘"}

// MoonIcon maps phase in [0,1] to one of 8 buckets using round-half-up.
// Out-of-range phases are clamped so 1.0 selects the last icon.
func MoonIcon(phase float64) int {
	if math.IsNaN(phase) {
		return 0
	}
	idx := math.Floor(phase*7 + 0.5)
	if idx < 0 {
		return 0
	}
	if idx > 7 {
		return 7
	}
	return int(idx)
}

// MoonGlyph returns the glyph for an icon index.
func MoonGlyph(icon int) string {
	if icon < 0 || icon >= len(moonGlyphs) {
		return moonGlyphs[4]
	}
	return moonGlyphs[icon]
}

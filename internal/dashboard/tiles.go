package dashboard

import (
	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/model"
	"github.com/earth-module/tem-dashboard/internal/resolver"
)

// Tile is one environmental reading shown in the weather grid.
type Tile struct {
	Field     string `json:"field"`
	Label     string `json:"label"`
	Text      string `json:"text"`
	Unit      string `json:"unit"`
	Available bool   `json:"available"`
}

type tileSpec struct {
	field    string
	label    string
	unit     string
	decimals int
	moon     bool
}

var tileSpecs = []tileSpec{
	{field: catalog.FieldTemperature, label: "Temperature", unit: "°C", decimals: 1},
	{field: catalog.FieldHumidity, label: "Humidity", unit: "%"},
	{field: catalog.FieldPressure, label: "Pressure", unit: "hPa"},
	{field: catalog.FieldWindSpeed, label: "Wind", unit: "m/s", decimals: 1},
	{field: catalog.FieldVisibility, label: "Visibility", unit: "km", decimals: 1},
	{field: catalog.FieldCloudCover, label: "Clouds", unit: "%"},
	{field: catalog.FieldUVIndex, label: "UV Index"},
	{field: catalog.FieldMoonPhase, label: "Moon", moon: true},
	{field: catalog.FieldSolarElevation, label: "Sun Angle", unit: "°"},
	{field: catalog.FieldSolarWindSpeed, label: "Solar Wind", unit: "km/s"},
	{field: catalog.FieldKpIndex, label: "Kp Index"},
	{field: catalog.FieldDewPoint, label: "Dew Point", unit: "°C", decimals: 1},
}

// Tiles renders the weather grid in its fixed order.
func Tiles(env model.Environment) []Tile {
	tiles := make([]Tile, 0, len(tileSpecs))
	for _, spec := range tileSpecs {
		tile := Tile{Field: spec.field, Label: spec.label, Unit: spec.unit, Text: resolver.Placeholder}
		v := env.Get(spec.field)
		switch {
		case !v.Known:
		case v.Textual:
			if v.Text != "" && v.Text != "-" {
				tile.Text, tile.Available = v.Text, true
			}
		default:
			f, ok := v.Float()
			if !ok {
				break
			}
			if spec.moon {
				tile.Text = resolver.MoonGlyph(resolver.MoonIcon(f))
			} else {
				tile.Text = resolver.FormatFixed(f, spec.decimals)
			}
			tile.Available = true
		}
		tiles = append(tiles, tile)
	}
	return tiles
}

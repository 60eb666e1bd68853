package dashboard

import (
	"math"
	"testing"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/model"
	"github.com/earth-module/tem-dashboard/internal/resolver"
	"github.com/earth-module/tem-dashboard/internal/state"
)

func TestFormatDevice(t *testing.T) {
	id, rssi := "3F2A", -67
	heap, uptime := int64(260000), int64(2*86400+5*3600+59)
	lat, lng := 52.520008, 13.404954

	got := FormatDevice(model.StatusPayload{
		DeviceID:  &id,
		RSSI:      &rssi,
		FreeHeap:  &heap,
		Uptime:    &uptime,
		Latitude:  &lat,
		Longitude: &lng,
	})
	want := DeviceInfo{
		Hostname:    "tem-3F2A.local",
		Signal:      "-67 dBm",
		Memory:      "50% used",
		Uptime:      "2d 5h",
		Coordinates: "52.5200°, 13.4050°",
	}
	if got != want {
		t.Fatalf("FormatDevice = %+v, want %+v", got, want)
	}
}

func TestUptime(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{3599, "0h"},
		{7200, "2h"},
		{86400, "1d 0h"},
		{90061, "1d 1h"},
	}
	for _, tt := range tests {
		if got := Uptime(tt.seconds); got != tt.want {
			t.Fatalf("Uptime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestHostnameUnknown(t *testing.T) {
	if got := Hostname(""); got != "tem-unknown.local" {
		t.Fatalf("Hostname = %q", got)
	}
}

func TestTilesOrderAndPlaceholders(t *testing.T) {
	env := model.NewEnvironment(catalog.Default().Fields())
	env[catalog.FieldTemperature] = model.Number(21.46)
	env[catalog.FieldPressure] = model.Number(math.NaN())
	env[catalog.FieldMoonPhase] = model.Number(0.5)
	env[catalog.FieldVisibility] = model.Text("-")
	env[catalog.FieldUVIndex] = model.Number(0)

	tiles := Tiles(env)
	if len(tiles) != 12 {
		t.Fatalf("tiles = %d, want 12", len(tiles))
	}
	if tiles[0].Label != "Temperature" || tiles[11].Label != "Dew Point" {
		t.Fatalf("tile order = %q ... %q", tiles[0].Label, tiles[11].Label)
	}

	byField := map[string]Tile{}
	for _, tile := range tiles {
		byField[tile.Field] = tile
	}
	checks := []struct {
		field     string
		text      string
		available bool
	}{
		{catalog.FieldTemperature, "21.5", true},
		{catalog.FieldHumidity, resolver.Placeholder, false},
		{catalog.FieldPressure, resolver.Placeholder, false},
		{catalog.FieldVisibility, resolver.Placeholder, false},
		{catalog.FieldUVIndex, "0", true},
		{catalog.FieldMoonPhase, resolver.MoonGlyph(4), true},
	}
	for _, c := range checks {
		tile := byField[c.field]
		if tile.Text != c.text || tile.Available != c.available {
			t.Fatalf("tile %s = %+v, want %q available=%v", c.field, tile, c.text, c.available)
		}
	}
}

func TestBuildCards(t *testing.T) {
	cat := catalog.Default()
	store := state.New(cat, state.Options{})
	store.Merge(state.Partial{
		Outputs: &model.OutputsPayload{
			Levels: map[string]float64{"cv1": 0.5, "gate1": 0.9},
			Params: map[string]int{"cv1": catalog.ParamHumidity, "gate1": catalog.ParamPrecipitation},
		},
		Weather: &model.WeatherPayload{Fields: map[string]model.Value{
			catalog.FieldHumidity: model.Number(55.4),
			catalog.FieldRain1h:   model.Number(0.3),
			catalog.FieldSnow1h:   model.Number(0),
		}},
	})

	view := Build(store.Snapshot(), cat)
	if len(view.Cards) != 4 {
		t.Fatalf("cards = %d, want 4", len(view.Cards))
	}

	cv1 := view.Cards[0]
	if cv1.Index != 0 || cv1.Channel != "cv1" || cv1.Title != "CV 1" || cv1.Output.Text != "2.50V" || cv1.Output.Bar != 50 {
		t.Fatalf("cv1 = %+v", cv1)
	}
	if cv1.ParamLabel != "Humidity" || cv1.Actual != "55%" {
		t.Fatalf("cv1 label/actual = %q %q", cv1.ParamLabel, cv1.Actual)
	}

	cv2 := view.Cards[1]
	if cv2.Reported || cv2.Output.Text != "0.00V" {
		t.Fatalf("unreported cv2 = %+v", cv2)
	}

	gate1 := view.Cards[2]
	if gate1.Channel != "gate1" || gate1.Title != "GATE 1" || gate1.Output.Text != "HIGH" || gate1.Actual != "0.3mm" {
		t.Fatalf("gate1 = %+v", gate1)
	}
	if len(gate1.Options) != 1 || len(gate1.Options[0].Options) != 5 {
		t.Fatalf("gate options = %+v", gate1.Options)
	}
}

func TestCVOptionsGroupedByCategory(t *testing.T) {
	groups := Options(catalog.Default(), catalog.KindCV, catalog.ParamDewPoint)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	var selected []Option
	for _, g := range groups {
		for _, o := range g.Options {
			if o.Selected {
				selected = append(selected, o)
			}
		}
	}
	if len(selected) != 1 || selected[0].ID != catalog.ParamDewPoint || !selected[0].IsNew {
		t.Fatalf("selected = %+v", selected)
	}
	if selected[0].Detail != "-20,30°C" {
		t.Fatalf("range label = %q", selected[0].Detail)
	}
}

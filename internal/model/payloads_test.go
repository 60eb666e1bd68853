package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestOutputsPayloadParsesBothRevisions(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantLevels map[string]float64
		wantParams map[string]int
	}{
		{
			name:       "two cv two gate",
			body:       `{"cv1":0.25,"cv2":1,"gate1":true,"gate2":0,"cv1param":6,"cv2param":1,"gate1param":8,"gate2param":3}`,
			wantLevels: map[string]float64{"cv1": 0.25, "cv2": 1, "gate1": 1, "gate2": 0},
			wantParams: map[string]int{"cv1": 6, "cv2": 1, "gate1": 8, "gate2": 3},
		},
		{
			name:       "four cv legacy",
			body:       `{"cv1":0.1,"cv2":0.2,"cv3":0.3,"cv4":0.4}`,
			wantLevels: map[string]float64{"cv1": 0.1, "cv2": 0.2, "cv3": 0.3, "cv4": 0.4},
			wantParams: map[string]int{},
		},
		{
			name:       "unknown keys and nulls are ignored",
			body:       `{"cv1":null,"foo":1,"cv2param":"12"}`,
			wantLevels: map[string]float64{},
			wantParams: map[string]int{"cv2": 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p OutputsPayload
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(p.Levels) != len(tt.wantLevels) {
				t.Fatalf("levels = %v, want %v", p.Levels, tt.wantLevels)
			}
			for k, want := range tt.wantLevels {
				if got, ok := p.Levels[k]; !ok || got != want {
					t.Fatalf("level %s = %v (present %v), want %v", k, got, ok, want)
				}
			}
			if len(p.Params) != len(tt.wantParams) {
				t.Fatalf("params = %v, want %v", p.Params, tt.wantParams)
			}
			for k, want := range tt.wantParams {
				if got := p.Params[k]; got != want {
					t.Fatalf("param %s = %d, want %d", k, got, want)
				}
			}
		})
	}
}

func TestOutputsPayloadNonNumericLevelIsNaN(t *testing.T) {
	var p OutputsPayload
	if err := json.Unmarshal([]byte(`{"cv1":"high"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !math.IsNaN(p.Levels["cv1"]) {
		t.Fatalf("expected NaN for non-numeric level, got %v", p.Levels["cv1"])
	}
}

func TestWeatherPayloadKeepsTextAndFlag(t *testing.T) {
	var p WeatherPayload
	body := `{"temperature":21.5,"humidity":"-","moonPhase":0.5,"kpIndex":null,"hasData":false}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.HasData == nil || *p.HasData {
		t.Fatalf("expected hasData=false to be captured")
	}
	if v := p.Fields["temperature"]; !v.Known || v.Num != 21.5 {
		t.Fatalf("temperature = %+v", v)
	}
	if v := p.Fields["humidity"]; !v.Textual || v.Text != "-" {
		t.Fatalf("humidity = %+v", v)
	}
	if _, ok := p.Fields["kpIndex"]; ok {
		t.Fatalf("null field must be treated as absent")
	}
}

func TestValueMarshalPlaceholderIsNull(t *testing.T) {
	body, err := json.Marshal(map[string]Value{"a": {}, "b": Number(0), "c": Text("x")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != `{"a":null,"b":0,"c":"x"}` {
		t.Fatalf("unexpected json: %s", body)
	}
}

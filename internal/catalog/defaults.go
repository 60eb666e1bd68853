package catalog

// Snapshot field names as reported by GET /api/weather.
const (
	FieldTemperature    = "temperature"
	FieldHumidity       = "humidity"
	FieldPressure       = "pressure"
	FieldWindSpeed      = "windSpeed"
	FieldVisibility     = "visibility"
	FieldCloudCover     = "cloudCover"
	FieldDewPoint       = "dewPoint"
	FieldUVIndex        = "uvIndex"
	FieldRain1h         = "rain1h"
	FieldSnow1h         = "snow1h"
	FieldMoonPhase      = "moonPhase"
	FieldSolarElevation = "solarElevation"
	FieldSolarWindSpeed = "solarWindSpeed"
	FieldKpIndex        = "kpIndex"
	FieldLat            = "lat"
	FieldLng            = "lng"
)

// Parameter ids persisted by the module firmware.
const (
	ParamTemperature    = 0
	ParamHumidity       = 1
	ParamPressure       = 2
	ParamWindSpeed      = 3
	ParamVisibility     = 4
	ParamCloudCover     = 5
	ParamDewPoint       = 6
	ParamUVIndex        = 7
	ParamPrecipitation  = 8
	ParamMoonPhase      = 10
	ParamSolarElevation = 11
	ParamSolarWind      = 12
	ParamKpIndex        = 13
	ParamFlare          = 14
)

var defaultDefinitions = []Definition{
	{ID: ParamTemperature, Kind: KindCV, Name: "Temperature", Unit: "°C", Range: [2]float64{-10, 40}, Category: CategoryWeather, Decimals: 1, Sources: []string{FieldTemperature}},
	{ID: ParamHumidity, Kind: KindCV, Name: "Humidity", Unit: "%", Range: [2]float64{0, 100}, Category: CategoryWeather, Decimals: 0, Sources: []string{FieldHumidity}},
	{ID: ParamPressure, Kind: KindCV, Name: "Pressure", Unit: "hPa", Range: [2]float64{950, 1050}, Category: CategoryWeather, Decimals: 0, Sources: []string{FieldPressure}},
	{ID: ParamWindSpeed, Kind: KindCV, Name: "Wind Speed", Unit: "m/s", Range: [2]float64{0, 20}, Category: CategoryWeather, Decimals: 1, Sources: []string{FieldWindSpeed}},
	{ID: ParamVisibility, Kind: KindCV, Name: "Visibility", Unit: "km", Range: [2]float64{0, 10}, Category: CategoryWeather, Decimals: 1, Sources: []string{FieldVisibility}},
	{ID: ParamCloudCover, Kind: KindCV, Name: "Cloud Cover", Unit: "%", Range: [2]float64{0, 100}, Category: CategoryWeather, Decimals: 0, Sources: []string{FieldCloudCover}},
	{ID: ParamDewPoint, Kind: KindCV, Name: "Dew Point", Unit: "°C", Range: [2]float64{-20, 30}, Category: CategoryWeather, IsNew: true, Decimals: 1, Sources: []string{FieldDewPoint}},
	{ID: ParamUVIndex, Kind: KindCV, Name: "UV Index", Range: [2]float64{0, 11}, Category: CategoryWeather, IsNew: true, Decimals: 0, Sources: []string{FieldUVIndex}},
	{ID: ParamMoonPhase, Kind: KindCV, Name: "Moon Phase", Range: [2]float64{0, 1}, Category: CategoryCelestial, Format: FormatMoon, Sources: []string{FieldMoonPhase}},
	{ID: ParamSolarElevation, Kind: KindCV, Name: "Solar Elevation", Unit: "°", Range: [2]float64{-90, 90}, Category: CategoryCelestial, Decimals: 0, Sources: []string{FieldSolarElevation}},
	{ID: ParamSolarWind, Kind: KindCV, Name: "Solar Wind", Unit: "km/s", Range: [2]float64{250, 800}, Category: CategorySpace, IsNew: true, Decimals: 0, Sources: []string{FieldSolarWindSpeed}},
	{ID: ParamKpIndex, Kind: KindCV, Name: "Kp Index", Range: [2]float64{0, 9}, Category: CategorySpace, IsNew: true, Decimals: 0, Sources: []string{FieldKpIndex}},

	// Gate logic runs on the module; the text is shown to the operator only.
	{ID: ParamPrecipitation, Kind: KindGate, Name: "Rain/Snow", Unit: "mm", Logic: ">1mm ON, <0.2mm OFF", Category: CategoryWeather, Decimals: 1, Sources: []string{FieldRain1h, FieldSnow1h}},
	{ID: ParamWindSpeed, Kind: KindGate, Name: "Wind", Unit: "m/s", Logic: ">10m/s ON, <7m/s OFF", Category: CategoryWeather, Decimals: 1, Sources: []string{FieldWindSpeed}},
	{ID: ParamSolarElevation, Kind: KindGate, Name: "Day/Night", Unit: "°", Logic: ">0° ON, <-5° OFF", Category: CategoryCelestial, Decimals: 0, Sources: []string{FieldSolarElevation}},
	{ID: ParamKpIndex, Kind: KindGate, Name: "Storm", Logic: "Kp>5 ON, Kp<4 OFF", Category: CategorySpace, IsNew: true, Decimals: 0, Sources: []string{FieldKpIndex}},
	{ID: ParamFlare, Kind: KindGate, Name: "Flare", Logic: "M+ ON, C- OFF", Category: CategorySpace, IsNew: true},
}

// Default returns the catalog shipped with the current module firmware.
func Default() *Catalog {
	c, err := New(defaultDefinitions)
	if err != nil {
		panic(err)
	}
	return c
}

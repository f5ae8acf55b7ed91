package airquality

import "time"

// Snapshot is the latest city-level reading from the air-quality aggregator.
// It is replaced wholesale on every successful fetch.
type Snapshot struct {
	City         string    `json:"city"`
	AQI          int       `json:"aqi"`
	TemperatureC float64   `json:"temperatureC"`
	ObservedAt   time.Time `json:"observedAt,omitempty"`
}

// DeviceReading is one sensor row from the telemetry endpoint.
type DeviceReading struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Location     Location  `json:"location"`
	LocationRaw  string    `json:"locationRaw"`
	Time         time.Time `json:"time"`
	PM10         float64   `json:"pm10"`
	PM25         float64   `json:"pm25"`
	TemperatureC float64   `json:"temperatureC"`
}

// Pollutant identifies a particulate matter size class.
type Pollutant string

const (
	PM10 Pollutant = "pm10"
	PM25 Pollutant = "pm25"
)

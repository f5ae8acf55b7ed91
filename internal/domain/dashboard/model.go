package dashboard

import (
	"time"

	"github.com/yanqian/airboard/internal/domain/airquality"
	"github.com/yanqian/airboard/pkg/metrics"
)

// Source names used in logs, metrics and the status endpoint.
const (
	SourceAirQuality = "air_quality"
	SourceDevices    = "devices"
)

// Status is the fetch state of one source.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// AirQualityState is the published state of the air-quality source. A failed state keeps
// the last good snapshot.
type AirQualityState struct {
	Status    Status               `json:"status"`
	Snapshot  *airquality.Snapshot `json:"snapshot,omitempty"`
	Error     string               `json:"error,omitempty"`
	UpdatedAt time.Time            `json:"updatedAt,omitempty"`
	CheckedAt time.Time            `json:"checkedAt,omitempty"`
}

// DeviceState is the published state of the device source. A failed state carries no
// devices.
type DeviceState struct {
	Status    Status                     `json:"status"`
	Devices   []airquality.DeviceReading `json:"devices"`
	Error     string                     `json:"error,omitempty"`
	UpdatedAt time.Time                  `json:"updatedAt,omitempty"`
	CheckedAt time.Time                  `json:"checkedAt,omitempty"`
}

// LoadingAirQuality is the state before the first response of an activation.
func LoadingAirQuality() AirQualityState {
	return AirQualityState{Status: StatusLoading}
}

// LoadingDevices is the state before the first response of an activation.
func LoadingDevices() DeviceState {
	return DeviceState{Status: StatusLoading, Devices: []airquality.DeviceReading{}}
}

// Stats reports poller lifecycle and per-source counters.
type Stats struct {
	Running    bool                   `json:"running"`
	Generation uint64                 `json:"generation"`
	AirQuality metrics.SourceSnapshot `json:"airQuality"`
	Devices    metrics.SourceSnapshot `json:"devices"`
}

// View is the presentation model of the whole dashboard page.
type View struct {
	Title       string            `json:"title"`
	AirQuality  AirQualityCard    `json:"airQuality"`
	Devices     DeviceSection     `json:"devices"`
	Legend      []airquality.Tier `json:"legend"`
	Map         MapSettings       `json:"map"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// AirQualityCard backs the AQI and temperature cards.
type AirQualityCard struct {
	Status    Status               `json:"status"`
	Snapshot  *airquality.Snapshot `json:"snapshot,omitempty"`
	Tier      *airquality.Tier     `json:"tier,omitempty"`
	Error     string               `json:"error,omitempty"`
	Stale     bool                 `json:"stale"`
	UpdatedAt time.Time            `json:"updatedAt,omitempty"`
}

// DeviceSection backs the map.
type DeviceSection struct {
	Status    Status    `json:"status"`
	Markers   []Marker  `json:"markers"`
	Notice    string    `json:"notice,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Marker is one device pin and its popup content.
type Marker struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Position     airquality.Location `json:"position"`
	LocationRaw  string              `json:"locationRaw"`
	Time         time.Time           `json:"time"`
	PM10         Measurement         `json:"pm10"`
	PM25         Measurement         `json:"pm25"`
	TemperatureC float64             `json:"temperatureC"`
	Links        []GraphLink         `json:"links"`
}

// Measurement is a particulate value with its display band.
type Measurement struct {
	Value float64         `json:"value"`
	Band  airquality.Band `json:"band"`
}

// MapSettings positions the map widget.
type MapSettings struct {
	Center airquality.Location `json:"center"`
	Zoom   int                 `json:"zoom"`
}

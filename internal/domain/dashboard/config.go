package dashboard

import (
	"time"

	"github.com/yanqian/airboard/internal/domain/airquality"
)

// RefreshInterval is the wait between the end of one fetch and the start of the next, per source.
const RefreshInterval = 10 * time.Second

// DeviceUnavailableNotice replaces the map markers after a failed device fetch.
const DeviceUnavailableNotice = "Device data is currently unavailable, please try again later."

// Config holds runtime knobs for the dashboard domain.
type Config struct {
	Title        string
	MapCenter    airquality.Location
	MapZoom      int
	FetchTimeout time.Duration
	StoreTimeout time.Duration
}

package dashboard

import (
	"context"

	"github.com/yanqian/airboard/internal/domain/airquality"
)

// AirQualityClient fetches the aggregator snapshot.
type AirQualityClient interface {
	FetchAirQuality(ctx context.Context) (airquality.Snapshot, error)
}

// DeviceClient fetches the device telemetry list.
type DeviceClient interface {
	FetchDevices(ctx context.Context) ([]airquality.DeviceReading, error)
}

// Store is the read model the poller publishes into and the transport reads from.
// Missing entries read back as the loading state.
type Store interface {
	SaveAirQuality(ctx context.Context, state AirQualityState) error
	SaveDevices(ctx context.Context, state DeviceState) error
	AirQuality(ctx context.Context) (AirQualityState, error)
	Devices(ctx context.Context) (DeviceState, error)
}

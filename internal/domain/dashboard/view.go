package dashboard

import (
	"fmt"
	"strings"

	"github.com/yanqian/airboard/internal/domain/airquality"
	apperrors "github.com/yanqian/airboard/pkg/errors"
)

// Graph durations offered in every device popup.
const (
	Graph24h = "24h"
	Graph7d  = "7d"
)

var graphURLs = map[string]string{
	Graph24h: "https://grafana.vtbg.com/d/BHuEDmJ7k/last_24_h?orgId=1",
	Graph7d:  "https://grafana.vtbg.com/d/8_jiKmJ7k/last-7d?orgId=1",
}

// GraphLink opens a fixed external dashboard for one duration.
type GraphLink struct {
	Duration string `json:"duration"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

// GraphLinks lists the available durations in display order.
func GraphLinks() []GraphLink {
	return []GraphLink{
		{Duration: Graph24h, Label: "Last 24 hours", URL: graphURLs[Graph24h]},
		{Duration: Graph7d, Label: "Last 7 days", URL: graphURLs[Graph7d]},
	}
}

// GraphURL resolves a duration selector to its external dashboard.
func GraphURL(duration string) (string, error) {
	url, ok := graphURLs[strings.ToLower(strings.TrimSpace(duration))]
	if !ok {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("duration must be %s or %s", Graph24h, Graph7d), nil)
	}
	return url, nil
}

// BuildAirQualityCard derives the card content from the source state.
func BuildAirQualityCard(state AirQualityState) AirQualityCard {
	card := AirQualityCard{
		Status:    state.Status,
		Error:     state.Error,
		UpdatedAt: state.UpdatedAt,
	}
	if state.Snapshot != nil {
		snap := *state.Snapshot
		tier := airquality.Classify(snap.AQI)
		card.Snapshot = &snap
		card.Tier = &tier
		card.Stale = state.Status == StatusFailed
	}
	return card
}

// BuildDeviceSection derives the map markers from the source state.
func BuildDeviceSection(state DeviceState) DeviceSection {
	section := DeviceSection{
		Status:    state.Status,
		Markers:   make([]Marker, 0, len(state.Devices)),
		Error:     state.Error,
		UpdatedAt: state.UpdatedAt,
	}
	if state.Status == StatusFailed {
		section.Notice = DeviceUnavailableNotice
		return section
	}
	for _, reading := range state.Devices {
		section.Markers = append(section.Markers, buildMarker(reading))
	}
	return section
}

func buildMarker(reading airquality.DeviceReading) Marker {
	// Both kinds are known, so classification cannot fail.
	pm10, _ := airquality.ClassifyParticulate(reading.PM10, airquality.PM10)
	pm25, _ := airquality.ClassifyParticulate(reading.PM25, airquality.PM25)
	return Marker{
		ID:           reading.ID,
		Name:         reading.Name,
		Position:     reading.Location,
		LocationRaw:  reading.LocationRaw,
		Time:         reading.Time,
		PM10:         Measurement{Value: reading.PM10, Band: pm10},
		PM25:         Measurement{Value: reading.PM25, Band: pm25},
		TemperatureC: reading.TemperatureC,
		Links:        GraphLinks(),
	}
}

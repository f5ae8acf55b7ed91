package airquality

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParseLocation parses the telemetry "lat,lng" field.
func ParseLocation(raw string) (Location, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != 2 {
		return Location{}, fmt.Errorf("location %q: expected \"lat,lng\"", raw)
	}
	lat, err := parseCoordinate(parts[0], 90)
	if err != nil {
		return Location{}, fmt.Errorf("location %q latitude: %w", raw, err)
	}
	lng, err := parseCoordinate(parts[1], 180)
	if err != nil {
		return Location{}, fmt.Errorf("location %q longitude: %w", raw, err)
	}
	return Location{Lat: lat, Lng: lng}, nil
}

func parseCoordinate(value string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, fmt.Errorf("%v out of range ±%v", v, limit)
	}
	return v, nil
}

// String renders the pair back in the upstream format.
func (l Location) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

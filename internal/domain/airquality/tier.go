package airquality

import (
	"fmt"
	"strings"

	apperrors "github.com/yanqian/airboard/pkg/errors"
)

// Tier is one of the five US EPA AQI severity bands shown on the dashboard.
type Tier struct {
	Level       int    `json:"level"`
	Key         string `json:"key"`
	Label       string `json:"label"`
	Range       string `json:"range"`
	Description string `json:"description"`
	Advice      string `json:"advice"`
	Color       string `json:"color"`
	Background  string `json:"background"`
	Icon        string `json:"icon"`
	// Max is the inclusive upper bound; the last tier has none.
	Max *int `json:"max,omitempty"`
}

var tiers = []Tier{
	{
		Level:       1,
		Key:         "good",
		Label:       "Good",
		Range:       "0-50",
		Description: "Air quality is satisfactory and poses little or no risk.",
		Advice:      "A good time to air out your home.",
		Color:       "#00c853",
		Background:  "#f1f8e9",
		Icon:        "😊",
		Max:         intPtr(50),
	},
	{
		Level:       2,
		Key:         "moderate",
		Label:       "Moderate",
		Range:       "51-100",
		Description: "Sensitive people should avoid prolonged outdoor exposure.",
		Advice:      "With respiratory symptoms such as coughing or shortness of breath, stay indoors.",
		Color:       "#ffd600",
		Background:  "#fff8e1",
		Icon:        "😐",
		Max:         intPtr(100),
	},
	{
		Level:       3,
		Key:         "unhealthy_sensitive",
		Label:       "Unhealthy for sensitive groups",
		Range:       "101-150",
		Description: "Sensitive groups may experience health effects.",
		Advice:      "People with respiratory conditions should limit time outdoors.",
		Color:       "#ff9100",
		Background:  "#fff3e0",
		Icon:        "😷",
		Max:         intPtr(150),
	},
	{
		Level:       4,
		Key:         "unhealthy",
		Label:       "Unhealthy",
		Range:       "151-200",
		Description: "Everyone may begin to experience health effects.",
		Advice:      "Sensitive groups may experience more serious health effects.",
		Color:       "#ff3d00",
		Background:  "#ffebee",
		Icon:        "🤢",
		Max:         intPtr(200),
	},
	{
		Level:       5,
		Key:         "very_unhealthy",
		Label:       "Very unhealthy",
		Range:       "201+",
		Description: "Health warnings of emergency conditions. The entire population is likely to be affected.",
		Advice:      "Avoid all outdoor activity.",
		Color:       "#b71c1c",
		Background:  "#ffcdd2",
		Icon:        "😨",
	},
}

// Tiers returns the legend in ascending severity.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Classify maps an AQI value onto its tier. Bounds are inclusive on the lower tier and
// the input is not clamped, so negative values land in tier 1.
func Classify(aqi int) Tier {
	switch {
	case aqi <= 50:
		return tiers[0]
	case aqi <= 100:
		return tiers[1]
	case aqi <= 150:
		return tiers[2]
	case aqi <= 200:
		return tiers[3]
	default:
		return tiers[4]
	}
}

// Band is a particulate concentration class used to color a single reading.
type Band struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
}

var bands = []Band{
	{Key: "good", Label: "Good", Color: "#00c853"},
	{Key: "moderate", Label: "Moderate", Color: "#ffd600"},
	{Key: "unhealthy_sensitive", Label: "Unhealthy for sensitive groups", Color: "#ff9100"},
	{Key: "unhealthy", Label: "Unhealthy", Color: "#ff3d00"},
	{Key: "very_unhealthy", Label: "Very unhealthy", Color: "#b71c1c"},
	{Key: "hazardous", Label: "Hazardous", Color: "#6a1b9a"},
}

// Upper bounds (µg/m³, inclusive) of the first five bands per pollutant.
var bandLimits = map[Pollutant][5]float64{
	PM10: {20, 50, 100, 200, 300},
	PM25: {10, 25, 50, 100, 150},
}

// ClassifyParticulate buckets a concentration using the thresholds of its pollutant.
func ClassifyParticulate(value float64, kind Pollutant) (Band, error) {
	limits, ok := bandLimits[kind]
	if !ok {
		return Band{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unknown pollutant %q", kind), nil)
	}
	for i, limit := range limits {
		if value <= limit {
			return bands[i], nil
		}
	}
	return bands[len(bands)-1], nil
}

// ParsePollutant accepts the spellings used by clients ("pm10", "PM2.5", "pm25").
func ParsePollutant(raw string) (Pollutant, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), ".", "")) {
	case "pm10":
		return PM10, nil
	case "pm25":
		return PM25, nil
	}
	return "", apperrors.Wrap(apperrors.CodeInvalidInput, "kind must be pm10 or pm25", nil)
}

func intPtr(v int) *int { return &v }

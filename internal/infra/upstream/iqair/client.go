package iqair

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yanqian/airboard/internal/domain/airquality"
	"github.com/yanqian/airboard/internal/infra/upstream"
)

const (
	defaultBaseURL = "https://iqairbackend.thedrop.top"
	airQualityPath = "/api/air-quality"
)

// Client fetches the city snapshot from the IQAir proxy backend.
type Client struct {
	baseURL string
	http    *resty.Client
}

// NewClient builds an API client. An empty baseURL selects the public backend.
func NewClient(baseURL string, timeout time.Duration) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(url, "/"),
		http:    upstream.NewRESTClient(timeout),
	}
}

// FetchAirQuality retrieves the current city AQI and temperature.
func (c *Client) FetchAirQuality(ctx context.Context) (airquality.Snapshot, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.baseURL + airQualityPath)
	if err != nil {
		return airquality.Snapshot{}, fmt.Errorf("air quality request failed: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return airquality.Snapshot{}, fmt.Errorf("air quality request error: status=%d body=%s", resp.StatusCode(), truncate(resp.Body(), 512))
	}

	var raw apiResponse
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return airquality.Snapshot{}, fmt.Errorf("decode air quality response: %w", err)
	}
	return normalize(raw)
}

type apiResponse struct {
	Status string   `json:"status"`
	Data   *apiData `json:"data"`
}

type apiData struct {
	Message string      `json:"message"`
	City    string      `json:"city"`
	State   string      `json:"state"`
	Country string      `json:"country"`
	Current *apiCurrent `json:"current"`
}

type apiCurrent struct {
	Pollution struct {
		TS    string   `json:"ts"`
		AQIUS *float64 `json:"aqius"`
	} `json:"pollution"`
	Weather struct {
		TS string   `json:"ts"`
		TP *float64 `json:"tp"`
	} `json:"weather"`
}

func normalize(raw apiResponse) (airquality.Snapshot, error) {
	if raw.Status != "" && !strings.EqualFold(raw.Status, "success") {
		msg := raw.Status
		if raw.Data != nil && raw.Data.Message != "" {
			msg = raw.Data.Message
		}
		return airquality.Snapshot{}, fmt.Errorf("air quality api error: %s", msg)
	}
	if raw.Data == nil || raw.Data.Current == nil {
		return airquality.Snapshot{}, fmt.Errorf("air quality response missing current data")
	}
	current := raw.Data.Current
	if current.Pollution.AQIUS == nil {
		return airquality.Snapshot{}, fmt.Errorf("air quality response missing aqius")
	}
	if current.Weather.TP == nil {
		return airquality.Snapshot{}, fmt.Errorf("air quality response missing temperature")
	}
	return airquality.Snapshot{
		City:         strings.TrimSpace(raw.Data.City),
		AQI:          int(math.Round(*current.Pollution.AQIUS)),
		TemperatureC: *current.Weather.TP,
		ObservedAt:   parseTime(current.Pollution.TS),
	}, nil
}

func parseTime(value string) time.Time {
	if strings.TrimSpace(value) == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func truncate(body []byte, limit int) string {
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}

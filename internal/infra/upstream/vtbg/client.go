package vtbg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yanqian/airboard/internal/domain/airquality"
	"github.com/yanqian/airboard/internal/infra/upstream"
	"github.com/yanqian/airboard/pkg/util"
)

const defaultBaseURL = "https://api.vtbg.com"

// Client fetches sensor telemetry from the device API.
type Client struct {
	baseURL string
	http    *resty.Client
	logger  *slog.Logger
}

// NewClient builds an API client. An empty baseURL selects the public endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(url, "/"),
		http:    upstream.NewRESTClient(timeout),
		logger:  logger.With("component", "vtbg.client"),
	}
}

// FetchDevices retrieves the current device list. Rows whose location cannot be parsed
// are dropped.
func (c *Client) FetchDevices(ctx context.Context) ([]airquality.DeviceReading, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("device request failed: %w", err)
	}
	if resp.StatusCode() >= 300 {
		body := resp.Body()
		if len(body) > 512 {
			body = body[:512]
		}
		return nil, fmt.Errorf("device request error: status=%d body=%s", resp.StatusCode(), string(body))
	}

	var rows []deviceRow
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("decode device response: %w", err)
	}
	return c.normalize(rows), nil
}

type deviceRow struct {
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	Location string          `json:"location"`
	Time     json.RawMessage `json:"time"`
	PM10     json.RawMessage `json:"pm10"`
	PM25     json.RawMessage `json:"pm25"`
	Temp     json.RawMessage `json:"temp"`
}

func (c *Client) normalize(rows []deviceRow) []airquality.DeviceReading {
	readings := make([]airquality.DeviceReading, 0, len(rows))
	for i, row := range rows {
		id := coerceString(row.ID)
		loc, err := airquality.ParseLocation(row.Location)
		if err != nil {
			c.logger.Warn("dropping device with invalid location", "index", i, "id", id, "location", row.Location, "error", err)
			continue
		}
		readings = append(readings, airquality.DeviceReading{
			ID:           firstNonEmpty(id, strconv.Itoa(i)),
			Name:         strings.TrimSpace(row.Name),
			Location:     loc,
			LocationRaw:  strings.TrimSpace(row.Location),
			Time:         coerceTime(row.Time),
			PM10:         coerceFloat(row.PM10),
			PM25:         coerceFloat(row.PM25),
			TemperatureC: coerceFloat(row.Temp),
		})
	}
	return readings
}

// coerceString accepts a JSON string or number.
func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

// coerceFloat accepts a JSON number or numeric string; anything else reads as zero.
func coerceFloat(raw json.RawMessage) float64 {
	s := coerceString(raw)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// coerceTime accepts RFC 3339, naive ISO timestamps (read as UTC) and epoch seconds or
// milliseconds.
func coerceTime(raw json.RawMessage) time.Time {
	s := coerceString(raw)
	if s == "" {
		return time.Time{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return util.FromEpoch(n)
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/airboard/internal/domain/airquality"
	"github.com/yanqian/airboard/internal/domain/dashboard"
	"github.com/yanqian/airboard/internal/infra/config"
	"github.com/yanqian/airboard/internal/infra/reference"
	apperrors "github.com/yanqian/airboard/pkg/errors"
)

func TestRouter_DashboardSuccess(t *testing.T) {
	svc := &stubDashboard{view: sampleView()}

	recorder := performRequest(http.MethodGet, "/api/v1/dashboard", newRouterUnderTest(t, svc, &stubPoller{}, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotEmpty(t, recorder.Header().Get(requestIDHeader))

	var got dashboard.View
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "Test board", got.Title)
	require.Equal(t, 72, got.AirQuality.Snapshot.AQI)
	require.Len(t, got.Devices.Markers, 1)
}

func TestRouter_DashboardStoreError(t *testing.T) {
	svc := &stubDashboard{err: apperrors.Wrap(apperrors.CodeStore, "failed to load air quality state", errors.New("dial tcp"))}

	recorder := performRequest(http.MethodGet, "/api/v1/dashboard", newRouterUnderTest(t, svc, &stubPoller{}, nil))
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, apperrors.CodeStore, errBody["error"]["code"])
	require.Contains(t, errBody["error"]["message"], "failed to load air quality state")
}

func TestRouter_ClassifyAQI(t *testing.T) {
	server := newRouterUnderTest(t, &stubDashboard{}, &stubPoller{}, nil)

	recorder := performRequest(http.MethodGet, "/api/v1/classify?aqi=120", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var tier airquality.Tier
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &tier))
	require.Equal(t, 3, tier.Level)

	recorder = performRequest(http.MethodGet, "/api/v1/classify?aqi=high", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, apperrors.CodeInvalidInput, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_ClassifyParticulate(t *testing.T) {
	server := newRouterUnderTest(t, &stubDashboard{}, &stubPoller{}, nil)

	recorder := performRequest(http.MethodGet, "/api/v1/classify/particulate?kind=pm2.5&value=151", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var body struct {
		Kind string          `json:"kind"`
		Band airquality.Band `json:"band"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, "pm25", body.Kind)
	require.Equal(t, "hazardous", body.Band.Key)

	recorder = performRequest(http.MethodGet, "/api/v1/classify/particulate?kind=o3&value=1", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = performRequest(http.MethodGet, "/api/v1/classify/particulate?kind=pm10&value=lots", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_GraphRedirect(t *testing.T) {
	server := newRouterUnderTest(t, &stubDashboard{}, &stubPoller{}, nil)

	recorder := performRequest(http.MethodGet, "/api/v1/graphs/7d", server)
	require.Equal(t, http.StatusFound, recorder.Code)
	require.Contains(t, recorder.Header().Get("Location"), "last-7d")

	recorder = performRequest(http.MethodGet, "/api/v1/graphs/30d", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_PollerLifecycle(t *testing.T) {
	poller := &stubPoller{}
	server := newRouterUnderTest(t, &stubDashboard{}, poller, nil)

	recorder := performRequest(http.MethodPost, "/api/v1/poller/start", server)
	require.Equal(t, http.StatusAccepted, recorder.Code)

	recorder = performRequest(http.MethodPost, "/api/v1/poller/start", server)
	require.Equal(t, http.StatusConflict, recorder.Code)
	require.Equal(t, apperrors.CodeAlreadyRunning, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
	require.Equal(t, int32(2), poller.starts.Load())

	recorder = performRequest(http.MethodPost, "/api/v1/poller/stop", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, int32(1), poller.stops.Load())
}

func TestRouter_RefreshUpstreamFailureIsNotReplayed(t *testing.T) {
	poller := &stubPoller{airFailures: 1}
	svc := &stubDashboard{view: sampleView()}

	recorder := performRequest(http.MethodPost, "/api/v1/refresh/air-quality", newRouterUnderTest(t, svc, poller, nil))
	require.Equal(t, http.StatusBadGateway, recorder.Code)
	require.Equal(t, apperrors.CodeUpstream, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
	require.Equal(t, int32(1), poller.airFetches.Load())
}

func TestRouter_RefreshConflict(t *testing.T) {
	poller := &stubPoller{deviceErr: apperrors.Wrap(apperrors.CodeFetchInProgress, "device fetch already in progress", nil)}

	recorder := performRequest(http.MethodPost, "/api/v1/refresh/devices", newRouterUnderTest(t, &stubDashboard{}, poller, nil))
	require.Equal(t, http.StatusConflict, recorder.Code)
	require.Equal(t, int32(1), poller.deviceFetches.Load())
}

func TestRouter_IndexPage(t *testing.T) {
	server := newRouterUnderTest(t, &stubDashboard{view: sampleView()}, &stubPoller{}, nil)

	recorder := performRequest(http.MethodGet, "/", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Header().Get("Content-Type"), "text/html")
	body := recorder.Body.String()
	require.Contains(t, body, "<title>Test board</title>")
	require.Contains(t, body, "Moderate")
	require.Contains(t, body, "22.5°C")
	require.Contains(t, body, `id="map"`)

	recorder = performRequest(http.MethodGet, "/partials/cards", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `id="cards"`)
	require.NotContains(t, recorder.Body.String(), "<html")
}

func TestRouter_IndexPageStaleAndLoading(t *testing.T) {
	view := sampleView()
	view.AirQuality.Stale = true
	view.AirQuality.Status = dashboard.StatusFailed
	view.AirQuality.Error = "air quality fetch failed: timeout"
	server := newRouterUnderTest(t, &stubDashboard{view: view}, &stubPoller{}, nil)

	body := performRequest(http.MethodGet, "/partials/cards", server).Body.String()
	require.Contains(t, body, "Showing the last known reading")

	loading := sampleView()
	loading.AirQuality = dashboard.AirQualityCard{Status: dashboard.StatusLoading}
	server = newRouterUnderTest(t, &stubDashboard{view: loading}, &stubPoller{}, nil)
	body = performRequest(http.MethodGet, "/partials/cards", server).Body.String()
	require.Contains(t, body, "Loading air quality")
}

func TestRouter_AboutAndChart(t *testing.T) {
	server := newRouterUnderTest(t, &stubDashboard{view: sampleView()}, &stubPoller{}, nil)

	recorder := performRequest(http.MethodGet, "/about", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "About the air quality index")

	recorder = performRequest(http.MethodGet, "/charts/particulates", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "PM10")
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := newRouterUnderTest(t, &stubDashboard{}, &stubPoller{}, cfg)

	require.Equal(t, http.StatusOK, performRequest(http.MethodGet, "/api/v1/tiers", server).Code)
	recorder := performRequest(http.MethodGet, "/api/v1/tiers", server)
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
	require.Equal(t, "60", recorder.Header().Get("Retry-After"))

	// Liveness checks are not limited.
	require.Equal(t, http.StatusOK, performRequest(http.MethodGet, "/healthz", server).Code)
}

func TestRouter_RequestIDAndCORS(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.AllowedOrigins = []string{"https://board.example"}
	server := newRouterUnderTest(t, &stubDashboard{}, &stubPoller{}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	req.Header.Set("Origin", "https://board.example")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	require.Equal(t, "https://board.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard", nil)
	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	server := newRouterUnderTest(t, &stubDashboard{}, &stubPoller{}, nil)

	recorder := performRequest(http.MethodGet, "/api/v1/nope", server)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	body := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, apperrors.CodeNotFound, body["error"]["code"])
	require.Equal(t, "no route for GET /api/v1/nope", body["error"]["message"])
}

func TestClientBuckets(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	buckets := newClientBuckets(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 2}, func() time.Time { return now })

	for i := 0; i < 2; i++ {
		_, ok := buckets.take("10.0.0.1")
		require.True(t, ok)
	}
	wait, ok := buckets.take("10.0.0.1")
	require.False(t, ok)
	require.Equal(t, time.Second, wait)

	// Clients are limited independently.
	_, ok = buckets.take("10.0.0.2")
	require.True(t, ok)

	now = now.Add(time.Second)
	_, ok = buckets.take("10.0.0.1")
	require.True(t, ok)

	now = now.Add(10 * time.Minute)
	_, ok = buckets.take("10.0.0.3")
	require.True(t, ok)
	require.Len(t, buckets.buckets, 1)
}

func performRequest(method, path string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(""))
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Stream: config.StreamConfig{
			DefaultInterval: 50 * time.Millisecond,
			MinInterval:     10 * time.Millisecond,
			MaxInterval:     time.Second,
		},
	}
}

func newRouterUnderTest(t *testing.T, svc dashboard.Service, poller PollerController, cfg *config.Config) *http.Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	guide, err := reference.NewGuide()
	require.NoError(t, err)
	pages, err := NewPages(guide)
	require.NoError(t, err)
	handler := NewHandler(cfg, svc, poller, pages, newTestLogger())
	return NewRouter(cfg, handler, newTestLogger())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func sampleView() dashboard.View {
	snap := airquality.Snapshot{City: "Shumen", AQI: 72, TemperatureC: 22.5}
	devices := dashboard.BuildDeviceSection(dashboard.DeviceState{
		Status: dashboard.StatusReady,
		Devices: []airquality.DeviceReading{{
			ID:          "1",
			Name:        "Center",
			Location:    airquality.Location{Lat: 43.067, Lng: 25.62},
			LocationRaw: "43.067,25.620",
			PM10:        14,
			PM25:        7,
		}},
	})
	return dashboard.View{
		Title:      "Test board",
		AirQuality: dashboard.BuildAirQualityCard(dashboard.AirQualityState{Status: dashboard.StatusReady, Snapshot: &snap}),
		Devices:    devices,
		Legend:     airquality.Tiers(),
		Map:        dashboard.MapSettings{Center: airquality.Location{Lat: 43.067, Lng: 25.62}, Zoom: 13},
	}
}

type stubDashboard struct {
	view dashboard.View
	err  error
}

func (s *stubDashboard) View(context.Context) (dashboard.View, error) {
	return s.view, s.err
}

func (s *stubDashboard) AirQuality(context.Context) (dashboard.AirQualityCard, error) {
	return s.view.AirQuality, s.err
}

func (s *stubDashboard) Devices(context.Context) (dashboard.DeviceSection, error) {
	return s.view.Devices, s.err
}

func (s *stubDashboard) Stats() dashboard.Stats {
	return dashboard.Stats{}
}

type stubPoller struct {
	running       atomic.Bool
	starts        atomic.Int32
	stops         atomic.Int32
	airFetches    atomic.Int32
	deviceFetches atomic.Int32
	airFailures   int32
	deviceErr     error
}

func (s *stubPoller) Start(context.Context) error {
	s.starts.Add(1)
	if !s.running.CompareAndSwap(false, true) {
		return apperrors.Wrap(apperrors.CodeAlreadyRunning, "poller is already running", nil)
	}
	return nil
}

func (s *stubPoller) Stop() {
	s.stops.Add(1)
	s.running.Store(false)
}

func (s *stubPoller) FetchAirQuality(context.Context) error {
	if s.airFetches.Add(1) <= s.airFailures {
		return apperrors.Wrap(apperrors.CodeUpstream, "air quality fetch failed", errors.New("status=502"))
	}
	return nil
}

func (s *stubPoller) FetchDevices(context.Context) error {
	s.deviceFetches.Add(1)
	return s.deviceErr
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

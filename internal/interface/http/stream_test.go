package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/airboard/internal/domain/dashboard"
	apperrors "github.com/yanqian/airboard/pkg/errors"
)

type streamMessage struct {
	Type  string          `json:"type"`
	Data  *dashboard.View `json:"data"`
	Error string          `json:"error"`
}

func dialStream(t *testing.T, svc dashboard.Service, query string) *websocket.Conn {
	t.Helper()
	server := newRouterUnderTest(t, svc, &stubPoller{}, nil)
	srv := httptest.NewServer(server.Handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestStream_SendsInitialAndPeriodicState(t *testing.T) {
	conn := dialStream(t, &stubDashboard{view: sampleView()}, "?interval=20ms")

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg streamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, "state", msg.Type)
		require.NotNil(t, msg.Data)
		require.Equal(t, 72, msg.Data.AirQuality.Snapshot.AQI)
	}
}

func TestStream_ReportsStoreErrors(t *testing.T) {
	svc := &stubDashboard{err: apperrors.Wrap(apperrors.CodeStore, "failed to load device state", nil)}
	conn := dialStream(t, svc, "")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "error", msg.Type)
	require.Contains(t, msg.Error, "failed to load device state")
}

func TestParseInterval(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{stream: testConfig().Stream}

	cases := map[string]time.Duration{
		"":                   50 * time.Millisecond,
		"?interval=200ms":    200 * time.Millisecond,
		"?interval_ms=300":   300 * time.Millisecond,
		"?interval=1h":       50 * time.Millisecond,
		"?interval=1ms":      50 * time.Millisecond,
		"?interval=bogus":    50 * time.Millisecond,
		"?interval_ms=-5":    50 * time.Millisecond,
		"?interval_ms=10000": 50 * time.Millisecond,
	}
	for query, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/ws"+query, nil)
		require.Equal(t, want, h.parseInterval(c), query)
	}
}

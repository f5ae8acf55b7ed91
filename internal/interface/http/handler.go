package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/airboard/internal/domain/airquality"
	"github.com/yanqian/airboard/internal/domain/dashboard"
	"github.com/yanqian/airboard/internal/infra/charts"
	"github.com/yanqian/airboard/internal/infra/config"
	apperrors "github.com/yanqian/airboard/pkg/errors"
)

// PollerController is the write side of the dashboard exposed over HTTP.
type PollerController interface {
	Start(ctx context.Context) error
	Stop()
	FetchAirQuality(ctx context.Context) error
	FetchDevices(ctx context.Context) error
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	dashboardSvc dashboard.Service
	poller       PollerController
	pages        *Pages
	stream       config.StreamConfig
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, dashboardSvc dashboard.Service, poller PollerController, pages *Pages, logger *slog.Logger) *Handler {
	return &Handler{
		dashboardSvc: dashboardSvc,
		poller:       poller,
		pages:        pages,
		stream:       cfg.Stream,
		logger:       logger.With("component", "http.handler"),
	}
}

// Dashboard returns the full view model.
func (h *Handler) Dashboard(c *gin.Context) {
	view, err := h.dashboardSvc.View(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, view)
}

// AirQuality returns the AQI and temperature card.
func (h *Handler) AirQuality(c *gin.Context) {
	card, err := h.dashboardSvc.AirQuality(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, card)
}

// Devices returns the map markers.
func (h *Handler) Devices(c *gin.Context) {
	section, err := h.dashboardSvc.Devices(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, section)
}

// Tiers returns the AQI legend.
func (h *Handler) Tiers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tiers": airquality.Tiers()})
}

// ClassifyAQI maps ?aqi=N onto its tier.
func (h *Handler) ClassifyAQI(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("aqi"))
	aqi, err := strconv.Atoi(raw)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "aqi must be an integer", err))
		return
	}
	c.JSON(http.StatusOK, airquality.Classify(aqi))
}

// ClassifyParticulate maps ?kind=pm10|pm25&value=X onto its band.
func (h *Handler) ClassifyParticulate(c *gin.Context) {
	kind, err := airquality.ParsePollutant(c.Query("kind"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(c.Query("value")), 64)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "value must be a number", err))
		return
	}
	band, err := airquality.ClassifyParticulate(value, kind)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "value": value, "band": band})
}

// Graph redirects to the external dashboard for the requested duration.
func (h *Handler) Graph(c *gin.Context) {
	target, err := dashboard.GraphURL(c.Param("duration"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.Redirect(http.StatusFound, target)
}

// Status reports poller lifecycle and fetch counters.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboardSvc.Stats())
}

// StartPoller activates the background refresh loops.
func (h *Handler) StartPoller(c *gin.Context) {
	// The loops outlive this request.
	if err := h.poller.Start(context.WithoutCancel(c.Request.Context())); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusAccepted, h.dashboardSvc.Stats())
}

// StopPoller deactivates the background refresh loops.
func (h *Handler) StopPoller(c *gin.Context) {
	h.poller.Stop()
	c.JSON(http.StatusOK, h.dashboardSvc.Stats())
}

// RefreshAirQuality fetches the air-quality source now.
func (h *Handler) RefreshAirQuality(c *gin.Context) {
	if err := h.poller.FetchAirQuality(c.Request.Context()); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	h.AirQuality(c)
}

// RefreshDevices fetches the device source now.
func (h *Handler) RefreshDevices(c *gin.Context) {
	if err := h.poller.FetchDevices(c.Request.Context()); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	h.Devices(c)
}

// ParticulateChart renders the device particulates as a chart page.
func (h *Handler) ParticulateChart(c *gin.Context) {
	section, err := h.dashboardSvc.Devices(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	page, err := charts.RenderParticulates("Particulate matter", section.Markers)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "chart_failed", "failed to render chart", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// NotFound answers unknown routes with the JSON error envelope.
func (h *Handler) NotFound(c *gin.Context) {
	err := apperrors.Wrap(apperrors.CodeNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path, nil)
	abortWithError(c, fromAppError(err))
}

// Health is a liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

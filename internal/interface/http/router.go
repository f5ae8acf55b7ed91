package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/airboard/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	limit := rateLimitMiddleware(cfg.HTTP.RateLimit, logger)

	router.NoRoute(handler.NotFound)
	router.GET("/healthz", handler.Health)
	router.GET("/ws", handler.Stream)

	pages := router.Group("/", limit)
	{
		pages.GET("", handler.Index)
		pages.GET("about", handler.About)
		pages.GET("partials/cards", handler.CardsPartial)
		pages.GET("charts/particulates", handler.ParticulateChart)
	}

	api := router.Group("/api/v1", limit)
	{
		api.GET("/dashboard", handler.Dashboard)
		api.GET("/air-quality", handler.AirQuality)
		api.GET("/devices", handler.Devices)
		api.GET("/tiers", handler.Tiers)
		api.GET("/classify", handler.ClassifyAQI)
		api.GET("/classify/particulate", handler.ClassifyParticulate)
		api.GET("/graphs/:duration", handler.Graph)
		api.GET("/status", handler.Status)
		api.POST("/refresh/air-quality", handler.RefreshAirQuality)
		api.POST("/refresh/devices", handler.RefreshDevices)
		api.POST("/poller/start", handler.StartPoller)
		api.POST("/poller/stop", handler.StopPoller)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

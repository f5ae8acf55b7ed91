package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/airboard/internal/bootstrap"
	"github.com/yanqian/airboard/internal/domain/airquality"
	"github.com/yanqian/airboard/internal/domain/dashboard"
	"github.com/yanqian/airboard/internal/infra/config"
	"github.com/yanqian/airboard/internal/infra/snapshotstore"
	"github.com/yanqian/airboard/internal/infra/upstream/iqair"
	"github.com/yanqian/airboard/internal/infra/upstream/vtbg"
	httpiface "github.com/yanqian/airboard/internal/interface/http"
)

func provideDashboardConfig(cfg *config.Config) dashboard.Config {
	// Validate already checked the map center.
	center, _ := airquality.ParseLocation(cfg.Dashboard.MapCenter)
	return dashboard.Config{
		Title:        cfg.Dashboard.Title,
		MapCenter:    center,
		MapZoom:      cfg.Dashboard.MapZoom,
		FetchTimeout: cfg.Upstream.Timeout,
		StoreTimeout: cfg.Store.Timeout,
	}
}

func provideAirQualityClient(cfg *config.Config) *iqair.Client {
	return iqair.NewClient(cfg.Upstream.AirQualityBaseURL, cfg.Upstream.Timeout)
}

func provideDeviceClient(cfg *config.Config, logger *slog.Logger) *vtbg.Client {
	return vtbg.NewClient(cfg.Upstream.DeviceBaseURL, cfg.Upstream.Timeout, logger)
}

func provideSnapshotStore(cfg *config.Config, logger *slog.Logger) dashboard.Store {
	if cfg.Store.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return snapshotstore.NewMemoryStore(cfg.Store.TTL)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return snapshotstore.NewMemoryStore(cfg.Store.TTL)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
		} else {
			logger.Info("dashboard valkey store enabled", "addr", cfg.Store.Valkey.Addr)
			return snapshotstore.NewValkeyStore(client, cfg.Store.Valkey.Prefix, cfg.Store.TTL)
		}
	}
	return snapshotstore.NewMemoryStore(cfg.Store.TTL)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Store.Valkey.Addr, "://") {
		return valkey.ParseURL(cfg.Store.Valkey.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Store.Valkey.Addr}}, nil
}

func providePoller(cfg dashboard.Config, airClient *iqair.Client, deviceClient *vtbg.Client, store dashboard.Store, logger *slog.Logger) *dashboard.Poller {
	return dashboard.NewPoller(cfg, airClient, deviceClient, store, logger)
}

func provideDashboardService(cfg dashboard.Config, store dashboard.Store, poller *dashboard.Poller, logger *slog.Logger) dashboard.Service {
	return dashboard.NewService(cfg, store, poller, logger)
}

func providePollerController(poller *dashboard.Poller) httpiface.PollerController {
	return poller
}

func provideAppPoller(poller *dashboard.Poller) bootstrap.Poller {
	return poller
}

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/airboard/internal/bootstrap"
	"github.com/yanqian/airboard/internal/infra/config"
	"github.com/yanqian/airboard/internal/infra/reference"
	httpiface "github.com/yanqian/airboard/internal/interface/http"
	"github.com/yanqian/airboard/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideDashboardConfig,
		provideAirQualityClient,
		provideDeviceClient,
		provideSnapshotStore,
		providePoller,
		provideDashboardService,
		providePollerController,
		provideAppPoller,
		reference.NewGuide,
		httpiface.NewPages,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}

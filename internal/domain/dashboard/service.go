package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/airboard/internal/domain/airquality"
	apperrors "github.com/yanqian/airboard/pkg/errors"
	"github.com/yanqian/airboard/pkg/util"
)

// Service exposes the read side of the dashboard.
type Service interface {
	View(ctx context.Context) (View, error)
	AirQuality(ctx context.Context) (AirQualityCard, error)
	Devices(ctx context.Context) (DeviceSection, error)
	Stats() Stats
}

// StatsSource reports poller counters.
type StatsSource interface {
	Stats() Stats
}

type service struct {
	cfg    Config
	store  Store
	stats  StatsSource
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires up the dashboard read model.
func NewService(cfg Config, store Store, stats StatsSource, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		store:  store,
		stats:  stats,
		logger: logger.With("component", "dashboard.service"),
		now:    util.NowUTC,
	}
}

func (s *service) View(ctx context.Context) (View, error) {
	card, err := s.AirQuality(ctx)
	if err != nil {
		return View{}, err
	}
	section, err := s.Devices(ctx)
	if err != nil {
		return View{}, err
	}
	return View{
		Title:       s.cfg.Title,
		AirQuality:  card,
		Devices:     section,
		Legend:      airquality.Tiers(),
		Map:         MapSettings{Center: s.cfg.MapCenter, Zoom: s.cfg.MapZoom},
		GeneratedAt: s.now(),
	}, nil
}

func (s *service) AirQuality(ctx context.Context) (AirQualityCard, error) {
	state, err := s.store.AirQuality(ctx)
	if err != nil {
		s.logger.Error("load air quality state failed", "error", err)
		return AirQualityCard{}, apperrors.Wrap(apperrors.CodeStore, "failed to load air quality state", err)
	}
	return BuildAirQualityCard(state), nil
}

func (s *service) Devices(ctx context.Context) (DeviceSection, error) {
	state, err := s.store.Devices(ctx)
	if err != nil {
		s.logger.Error("load device state failed", "error", err)
		return DeviceSection{}, apperrors.Wrap(apperrors.CodeStore, "failed to load device state", err)
	}
	return BuildDeviceSection(state), nil
}

func (s *service) Stats() Stats {
	if s.stats == nil {
		return Stats{}
	}
	return s.stats.Stats()
}

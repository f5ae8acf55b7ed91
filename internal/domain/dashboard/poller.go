package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/airboard/internal/domain/airquality"
	apperrors "github.com/yanqian/airboard/pkg/errors"
	"github.com/yanqian/airboard/pkg/metrics"
	"github.com/yanqian/airboard/pkg/util"
)

// Poller refreshes both upstream sources on independent loops while active and
// publishes each result into the Store.
type Poller struct {
	airClient    AirQualityClient
	deviceClient DeviceClient
	store        Store
	logger       *slog.Logger
	interval     time.Duration
	fetchTimeout time.Duration
	storeTimeout time.Duration
	now          func() time.Time

	mu      sync.Mutex
	current *activation
	running bool
	gen     uint64
	wg      sync.WaitGroup

	air     atomic.Pointer[AirQualityState]
	devices atomic.Pointer[DeviceState]

	airWriter    storeWriter
	deviceWriter storeWriter

	airStats    metrics.SourceStats
	deviceStats metrics.SourceStats
}

// activation scopes one Start..Stop span. Results are applied only while their
// activation is still current.
type activation struct {
	gen        uint64
	ctx        context.Context
	cancel     context.CancelFunc
	airBusy    atomic.Bool
	deviceBusy atomic.Bool
}

// NewPoller builds an idle poller.
func NewPoller(cfg Config, airClient AirQualityClient, deviceClient DeviceClient, store Store, logger *slog.Logger) *Poller {
	p := &Poller{
		airClient:    airClient,
		deviceClient: deviceClient,
		store:        store,
		logger:       logger.With("component", "dashboard.poller"),
		interval:     RefreshInterval,
		fetchTimeout: cfg.FetchTimeout,
		storeTimeout: cfg.StoreTimeout,
		now:          util.NowUTC,
	}
	p.current = p.idleLocked()
	airState, deviceState := LoadingAirQuality(), LoadingDevices()
	p.air.Store(&airState)
	p.devices.Store(&deviceState)
	return p
}

// Start resets both sources to loading and begins polling. Each source is fetched
// immediately and then again RefreshInterval after each fetch completes.
// Cancelling ctx has the same effect as Stop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return apperrors.Wrap(apperrors.CodeAlreadyRunning, "poller is already running", nil)
	}

	p.gen++
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	act := &activation{gen: p.gen, ctx: runCtx, cancel: cancel}
	p.current = act
	p.running = true

	airState, deviceState := LoadingAirQuality(), LoadingDevices()
	p.air.Store(&airState)
	p.devices.Store(&deviceState)

	stop := context.AfterFunc(ctx, func() { p.stopActivation(act) })
	context.AfterFunc(runCtx, func() { stop() })

	p.wg.Add(2)
	p.mu.Unlock()

	p.persistAir()
	p.persistDevices()

	go p.loop(act, SourceAirQuality, p.fetchAirQuality)
	go p.loop(act, SourceDevices, p.fetchDevices)

	p.logger.Info("poller started", "generation", act.gen, "interval", p.interval.String())
	return nil
}

// Stop halts scheduling without waiting for requests in flight. Their results are
// discarded when they arrive. Calling Stop on an idle poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	act := p.current
	p.mu.Unlock()
	p.stopActivation(act)
}

// Wait blocks until every loop of every stopped activation has returned.
func (p *Poller) Wait() {
	p.wg.Wait()
}

// Running reports whether an activation is live.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stats reports lifecycle and per-source counters.
func (p *Poller) Stats() Stats {
	p.mu.Lock()
	running, gen := p.running, p.gen
	p.mu.Unlock()
	return Stats{
		Running:    running,
		Generation: gen,
		AirQuality: p.airStats.Snapshot(),
		Devices:    p.deviceStats.Snapshot(),
	}
}

func (p *Poller) airQualityState() AirQualityState {
	return *p.air.Load()
}

func (p *Poller) deviceState() DeviceState {
	return *p.devices.Load()
}

// FetchAirQuality runs one air-quality fetch now. The outcome is recorded in the
// published state and returned. It fails with fetch_in_progress when a fetch for the
// same source has not finished yet.
func (p *Poller) FetchAirQuality(ctx context.Context) error {
	return p.fetchAirQuality(ctx, p.activation())
}

// FetchDevices runs one device fetch now. See FetchAirQuality.
func (p *Poller) FetchDevices(ctx context.Context) error {
	return p.fetchDevices(ctx, p.activation())
}

func (p *Poller) activation() *activation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// idleLocked returns an activation for manual fetches outside Start..Stop.
func (p *Poller) idleLocked() *activation {
	ctx, cancel := context.WithCancel(context.Background())
	return &activation{gen: p.gen, ctx: ctx, cancel: cancel}
}

func (p *Poller) stopActivation(act *activation) {
	p.mu.Lock()
	if p.current != act || !p.running {
		p.mu.Unlock()
		return
	}
	act.cancel()
	p.gen++
	p.current = p.idleLocked()
	p.running = false
	p.mu.Unlock()
	p.logger.Info("poller stopped", "generation", act.gen)
}

func (p *Poller) loop(act *activation, source string, fetch func(context.Context, *activation) error) {
	defer p.wg.Done()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-act.ctx.Done():
			return
		case <-timer.C:
		}
		// Requests outlive Stop; their results are dropped by the generation check.
		if err := fetch(context.WithoutCancel(act.ctx), act); err != nil && apperrors.IsCode(err, apperrors.CodeFetchInProgress) {
			p.logger.Debug("fetch skipped", "source", source, "generation", act.gen)
		}
		timer.Reset(p.interval)
	}
}

func (p *Poller) fetchAirQuality(ctx context.Context, act *activation) error {
	if !act.airBusy.CompareAndSwap(false, true) {
		return apperrors.Wrap(apperrors.CodeFetchInProgress, "air quality fetch already in progress", nil)
	}
	defer act.airBusy.Store(false)

	attempt := uuid.NewString()
	p.airStats.Attempt()
	reqCtx, cancel := p.requestContext(ctx)
	defer cancel()

	started := p.now()
	snapshot, fetchErr := p.airClient.FetchAirQuality(reqCtx)
	finished := p.now()
	logger := p.logger.With(
		"source", SourceAirQuality,
		"attempt", attempt,
		"generation", act.gen,
		"latency_ms", finished.Sub(started).Milliseconds(),
	)

	applied := p.applyAir(act, func(prev AirQualityState) AirQualityState {
		if fetchErr != nil {
			next := prev
			next.Status = StatusFailed
			next.Error = fetchErr.Error()
			next.CheckedAt = finished
			return next
		}
		snap := snapshot
		return AirQualityState{Status: StatusReady, Snapshot: &snap, UpdatedAt: finished, CheckedAt: finished}
	})
	if !applied {
		p.airStats.Discard()
		logger.Info("air quality result discarded", "reason", "stale generation")
		return nil
	}

	if fetchErr != nil {
		p.airStats.Failure(finished)
		logger.Warn("air quality fetch failed", "error", fetchErr)
		return apperrors.Wrap(apperrors.CodeUpstream, "air quality fetch failed", fetchErr)
	}
	p.airStats.Success(finished)
	logger.Info("air quality fetched", "city", snapshot.City, "aqi", snapshot.AQI)
	return nil
}

func (p *Poller) fetchDevices(ctx context.Context, act *activation) error {
	if !act.deviceBusy.CompareAndSwap(false, true) {
		return apperrors.Wrap(apperrors.CodeFetchInProgress, "device fetch already in progress", nil)
	}
	defer act.deviceBusy.Store(false)

	attempt := uuid.NewString()
	p.deviceStats.Attempt()
	reqCtx, cancel := p.requestContext(ctx)
	defer cancel()

	started := p.now()
	readings, fetchErr := p.deviceClient.FetchDevices(reqCtx)
	finished := p.now()
	logger := p.logger.With(
		"source", SourceDevices,
		"attempt", attempt,
		"generation", act.gen,
		"latency_ms", finished.Sub(started).Milliseconds(),
	)

	applied := p.applyDevices(act, func(DeviceState) DeviceState {
		if fetchErr != nil {
			return DeviceState{
				Status:    StatusFailed,
				Devices:   []airquality.DeviceReading{},
				Error:     fetchErr.Error(),
				CheckedAt: finished,
			}
		}
		list := make([]airquality.DeviceReading, len(readings))
		copy(list, readings)
		return DeviceState{Status: StatusReady, Devices: list, UpdatedAt: finished, CheckedAt: finished}
	})
	if !applied {
		p.deviceStats.Discard()
		logger.Info("device result discarded", "reason", "stale generation")
		return nil
	}

	if fetchErr != nil {
		p.deviceStats.Failure(finished)
		logger.Warn("device fetch failed", "error", fetchErr)
		return apperrors.Wrap(apperrors.CodeUpstream, "device fetch failed", fetchErr)
	}
	p.deviceStats.Success(finished)
	logger.Info("devices fetched", "count", len(readings))
	return nil
}

func (p *Poller) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.fetchTimeout > 0 {
		return context.WithTimeout(ctx, p.fetchTimeout)
	}
	return context.WithCancel(ctx)
}

// applyAir publishes the next state unless act has been superseded. The store write
// happens after mu is released so a slow store never stalls the other source or the
// lifecycle calls.
func (p *Poller) applyAir(act *activation, next func(AirQualityState) AirQualityState) bool {
	p.mu.Lock()
	if p.current != act {
		p.mu.Unlock()
		return false
	}
	state := next(*p.air.Load())
	p.air.Store(&state)
	p.mu.Unlock()

	p.persistAir()
	return true
}

func (p *Poller) applyDevices(act *activation, next func(DeviceState) DeviceState) bool {
	p.mu.Lock()
	if p.current != act {
		p.mu.Unlock()
		return false
	}
	state := next(*p.devices.Load())
	p.devices.Store(&state)
	p.mu.Unlock()

	p.persistDevices()
	return true
}

func (p *Poller) persistAir() {
	p.airWriter.flush(func() {
		ctx, cancel := p.storeContext()
		defer cancel()
		if err := p.store.SaveAirQuality(ctx, p.airQualityState()); err != nil {
			p.logger.Warn("persist air quality state failed", "error", err)
		}
	})
}

func (p *Poller) persistDevices() {
	p.deviceWriter.flush(func() {
		ctx, cancel := p.storeContext()
		defer cancel()
		if err := p.store.SaveDevices(ctx, p.deviceState()); err != nil {
			p.logger.Warn("persist device state failed", "error", err)
		}
	})
}

// storeWriter serializes the store writes of one source. A flush that arrives while
// another is writing only marks the state dirty; the active writer saves again before
// it returns, so the store ends with the newest published state.
type storeWriter struct {
	mu      sync.Mutex
	active  bool
	pending bool
}

func (w *storeWriter) flush(save func()) {
	w.mu.Lock()
	w.pending = true
	if w.active {
		w.mu.Unlock()
		return
	}
	w.active = true
	for w.pending {
		w.pending = false
		w.mu.Unlock()
		save()
		w.mu.Lock()
	}
	w.active = false
	w.mu.Unlock()
}

func (p *Poller) storeContext() (context.Context, context.CancelFunc) {
	if p.storeTimeout > 0 {
		return context.WithTimeout(context.Background(), p.storeTimeout)
	}
	return context.WithCancel(context.Background())
}

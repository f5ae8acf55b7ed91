package snapshotstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/airboard/internal/domain/dashboard"
)

type entry[T any] struct {
	payload   T
	expiresAt time.Time
}

// MemoryStore keeps the latest per-source state in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	air     *entry[dashboard.AirQualityState]
	devices *entry[dashboard.DeviceState]
	now     func() time.Time
}

// NewMemoryStore constructs a store backed by process memory. A positive ttl makes
// entries read back as loading once they are older than ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now}
}

// SaveAirQuality implements dashboard.Store.
func (s *MemoryStore) SaveAirQuality(_ context.Context, state dashboard.AirQualityState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.air = &entry[dashboard.AirQualityState]{payload: state, expiresAt: s.expiry()}
	return nil
}

// SaveDevices implements dashboard.Store.
func (s *MemoryStore) SaveDevices(_ context.Context, state dashboard.DeviceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = &entry[dashboard.DeviceState]{payload: state, expiresAt: s.expiry()}
	return nil
}

// AirQuality implements dashboard.Store.
func (s *MemoryStore) AirQuality(context.Context) (dashboard.AirQualityState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.air == nil || s.expired(s.air.expiresAt) {
		return dashboard.LoadingAirQuality(), nil
	}
	return s.air.payload, nil
}

// Devices implements dashboard.Store.
func (s *MemoryStore) Devices(context.Context) (dashboard.DeviceState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.devices == nil || s.expired(s.devices.expiresAt) {
		return dashboard.LoadingDevices(), nil
	}
	return s.devices.payload, nil
}

func (s *MemoryStore) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *MemoryStore) expired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ dashboard.Store = (*MemoryStore)(nil)

package snapshotstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/airboard/internal/domain/dashboard"
)

// ValkeyStore shares the per-source state through a Valkey-compatible database so
// several replicas can serve the dashboard from one poller.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "airboard"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ValkeyStore) SaveAirQuality(ctx context.Context, state dashboard.AirQualityState) error {
	return s.save(ctx, s.key(dashboard.SourceAirQuality), state)
}

func (s *ValkeyStore) SaveDevices(ctx context.Context, state dashboard.DeviceState) error {
	return s.save(ctx, s.key(dashboard.SourceDevices), state)
}

func (s *ValkeyStore) AirQuality(ctx context.Context) (dashboard.AirQualityState, error) {
	state := dashboard.LoadingAirQuality()
	if _, err := s.load(ctx, s.key(dashboard.SourceAirQuality), &state); err != nil {
		return dashboard.AirQualityState{}, err
	}
	return state, nil
}

func (s *ValkeyStore) Devices(ctx context.Context) (dashboard.DeviceState, error) {
	state := dashboard.LoadingDevices()
	found, err := s.load(ctx, s.key(dashboard.SourceDevices), &state)
	if err != nil {
		return dashboard.DeviceState{}, err
	}
	if found && state.Devices == nil {
		state.Devices = dashboard.LoadingDevices().Devices
	}
	return state, nil
}

func (s *ValkeyStore) save(ctx context.Context, key string, state any) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(key).Value(string(payload))
	var cmd valkey.Completed
	if s.ttl > 0 {
		ttl := s.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) load(ctx context.Context, key string, out any) (bool, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *ValkeyStore) key(source string) string {
	return fmt.Sprintf("%s:state:%s", s.prefix, source)
}

var _ dashboard.Store = (*ValkeyStore)(nil)

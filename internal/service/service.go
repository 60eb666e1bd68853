package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/model"
	"github.com/earth-module/tem-dashboard/internal/state"
	"github.com/earth-module/tem-dashboard/internal/temapi"
)

// MaskedKey is what the module returns in place of a stored key. Submitting
// it back would overwrite the real key with the mask.
const MaskedKey = "••••••••••••"

// DeviceClient is the write side of the module API.
type DeviceClient interface {
	SetParam(ctx context.Context, channel string, id int) error
	SaveKey(ctx context.Context, provider, key string) error
	DeleteKey(ctx context.Context, provider string) error
	SetLocation(ctx context.Context, lat, lng float64) error
	ResetWiFi(ctx context.Context) error
	Restart(ctx context.Context) error
	CheckUpdate(ctx context.Context) (model.UpdateInfo, error)
}

// Refresher is satisfied by *poller.Poller.
type Refresher interface {
	TriggerRefresh()
}

// Service applies user-initiated actions to the module and mirrors their
// effect in the store.
type Service struct {
	client    DeviceClient
	store     *state.Store
	refresher Refresher
	logger    *slog.Logger
}

func New(client DeviceClient, store *state.Store, refresher Refresher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, store: store, refresher: refresher, logger: logger.With("component", "service")}
}

func (s *Service) Store() *state.Store {
	return s.store
}

// Assign routes parameter id to the output (kind, 0-based index). The store is
// updated before the module confirms; a refused request rolls it back.
func (s *Service) Assign(ctx context.Context, kind catalog.Kind, index, id int) error {
	if _, err := s.store.Catalog().Lookup(kind, id); err != nil {
		return fmt.Errorf("%w: %s %d", ErrUnknownParameter, kind, id)
	}
	current, ok := s.store.Snapshot().Channel(kind, index)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, kind.ChannelName(index))
	}

	s.store.AssignOptimistic(kind, index, id)
	channel := kind.ChannelName(index)
	if err := s.client.SetParam(ctx, channel, id); err != nil {
		s.store.RestoreAssignment(kind, index, current.ParamID)
		s.logger.Warn("assignment failed", "channel", channel, "param", id, "err", err)
		return fmt.Errorf("assign %s: %w", channel, err)
	}
	s.logger.Info("output assigned", "channel", channel, "param", id)
	s.refresh()
	return nil
}

// SaveKey stores an API key. Empty or masked input is rejected locally.
func (s *Service) SaveKey(ctx context.Context, provider, key string) error {
	provider, err := normalizeProvider(provider)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" || key == MaskedKey {
		return &ValidationError{Field: "key", Reason: "enter a new API key"}
	}
	if err := s.client.SaveKey(ctx, provider, key); err != nil {
		return fmt.Errorf("save %s key: %w", provider, err)
	}
	s.setKeyPresence(provider, true)
	s.logger.Info("api key saved", "provider", provider)
	return nil
}

func (s *Service) DeleteKey(ctx context.Context, provider string, confirm bool) error {
	provider, err := normalizeProvider(provider)
	if err != nil {
		return err
	}
	if !confirm {
		return ErrConfirmationRequired
	}
	if err := s.client.DeleteKey(ctx, provider); err != nil {
		return fmt.Errorf("delete %s key: %w", provider, err)
	}
	s.setKeyPresence(provider, false)
	s.logger.Info("api key deleted", "provider", provider)
	return nil
}

// SetLocation validates and stores the module's position.
func (s *Service) SetLocation(ctx context.Context, lat, lng float64, city string) error {
	if err := ValidateLocation(lat, lng); err != nil {
		return err
	}
	if err := s.client.SetLocation(ctx, lat, lng); err != nil {
		return fmt.Errorf("set location: %w", err)
	}
	s.store.SetLocation(lat, lng, strings.TrimSpace(city))
	s.logger.Info("location updated", "lat", lat, "lng", lng)
	s.refresh()
	return nil
}

// ResetWiFi puts the module back into access-point mode. It is sent once
// and never retried.
func (s *Service) ResetWiFi(ctx context.Context, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}
	if err := s.client.ResetWiFi(ctx); err != nil {
		return fmt.Errorf("reset wifi: %w", err)
	}
	s.logger.Info("wifi reset requested")
	return nil
}

// Restart reboots the module. It is sent once and never retried.
func (s *Service) Restart(ctx context.Context, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}
	if err := s.client.Restart(ctx); err != nil {
		return fmt.Errorf("restart: %w", err)
	}
	s.logger.Info("restart requested")
	return nil
}

func (s *Service) CheckUpdate(ctx context.Context) (model.UpdateInfo, error) {
	info, err := s.client.CheckUpdate(ctx)
	if err != nil {
		return model.UpdateInfo{}, fmt.Errorf("check update: %w", err)
	}
	s.store.SetUpdate(info)
	return info, nil
}

// Refresh requests an immediate polling cycle.
func (s *Service) Refresh() {
	s.refresh()
}

func (s *Service) refresh() {
	if s.refresher != nil {
		s.refresher.TriggerRefresh()
	}
}

func (s *Service) setKeyPresence(provider string, present bool) {
	keys := s.store.Snapshot().Keys
	switch provider {
	case temapi.ProviderOpenWeather:
		keys.HasOpenWeather = present
	case temapi.ProviderNasa:
		keys.HasNasa = present
	}
	s.store.SetKeyPresence(keys.HasOpenWeather, keys.HasNasa)
}

// ValidateLocation checks coordinate ranges.
func ValidateLocation(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return &ValidationError{Field: "lat", Reason: "must be between -90 and 90"}
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return &ValidationError{Field: "lng", Reason: "must be between -180 and 180"}
	}
	return nil
}

func normalizeProvider(provider string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(provider)); p {
	case temapi.ProviderOpenWeather, temapi.ProviderNasa:
		return p, nil
	default:
		return "", &ValidationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}
}

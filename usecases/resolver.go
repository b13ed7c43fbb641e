package usecases

import (
	"context"
	"errors"
	"strconv"

	"siar-server/entities"
	"siar-server/logs"
	"siar-server/metrics"
	"siar-server/repositories"
	"siar-server/weather"
)

// WeatherLookup reports current weather and never fails; see weather.Gate.
type WeatherLookup interface {
	Lookup(ctx context.Context, city, countryCode string) (*weather.Report, weather.Condition)
}

// DeviceConfig is what a device polls from /api/configuracion.
type DeviceConfig struct {
	UmbralMin           *int            `json:"umbral_min,omitempty"`
	UmbralMax           *int            `json:"umbral_max,omitempty"`
	ScheduledModeActive bool            `json:"modo_programado_activo"`
	Schedules           []ScheduleEntry `json:"horarios"`
}

type ScheduleEntry struct {
	Time     string `json:"hora"`
	Days     []int  `json:"dias"`
	Duration int    `json:"duracion"`
}

// ResolveConfiguration merges configuration, schedules and weather. cfg may be
// nil. Schedules are listed regardless of rain or automatic mode.
func ResolveConfiguration(cfg *entities.Configuration, schedules []entities.Schedule, cond weather.Condition) DeviceConfig {
	out := DeviceConfig{Schedules: []ScheduleEntry{}}

	if cfg != nil && cfg.ActiveProfile != nil {
		lo, hi := cfg.ActiveProfile.MinMoisture, cfg.ActiveProfile.MaxMoisture
		out.UmbralMin, out.UmbralMax = &lo, &hi
		out.ScheduledModeActive = cfg.AutoMode && !cond.IsRaining()
	}

	for _, s := range schedules {
		if !s.Active {
			continue
		}
		if s.Profile == nil {
			logs.Logger.WithField("schedule_id", s.ID).Warn("schedule without profile skipped")
			continue
		}
		out.Schedules = append(out.Schedules, ScheduleEntry{
			Time:     s.TimeOfDay,
			Days:     s.Days(),
			Duration: s.Profile.DurationSeconds,
		})
	}
	return out
}

type ResolverUseCase struct {
	store   repositories.Store
	weather WeatherLookup
}

func NewResolverUseCase(store repositories.Store, w WeatherLookup) *ResolverUseCase {
	return &ResolverUseCase{store: store, weather: w}
}

// ForDeviceKey builds the payload for the device holding key.
func (uc *ResolverUseCase) ForDeviceKey(ctx context.Context, key string) (DeviceConfig, error) {
	d, err := deviceByKey(ctx, uc.store, key)
	if err != nil {
		return DeviceConfig{}, err
	}
	cfg, cond, err := uc.resolve(ctx, d)
	if err != nil {
		return DeviceConfig{}, err
	}
	metrics.ConfigDeliveries.WithLabelValues(strconv.FormatBool(cond.IsRaining())).Inc()
	return cfg, nil
}

// Preview is the same payload for the dashboard.
func (uc *ResolverUseCase) Preview(ctx context.Context, userID, deviceID string) (DeviceConfig, error) {
	d, err := ownedDevice(ctx, uc.store, userID, deviceID)
	if err != nil {
		return DeviceConfig{}, err
	}
	cfg, _, err := uc.resolve(ctx, d)
	return cfg, err
}

func (uc *ResolverUseCase) resolve(ctx context.Context, d *entities.Device) (DeviceConfig, weather.Condition, error) {
	cfg, err := uc.store.Configurations().GetByDeviceID(ctx, d.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		cfg, err = nil, nil
	}
	if err != nil {
		return DeviceConfig{}, weather.Unknown, err
	}

	schedules, err := uc.store.Schedules().ListActiveByDeviceID(ctx, d.ID)
	if err != nil {
		return DeviceConfig{}, weather.Unknown, err
	}

	cond := weatherFor(ctx, uc.store, uc.weather, d.UserID)
	return ResolveConfiguration(cfg, schedules, cond), cond, nil
}

// weatherFor looks up the owner's location. Any failure is Unknown.
func weatherFor(ctx context.Context, store repositories.Store, w WeatherLookup, userID string) weather.Condition {
	_, cond := reportFor(ctx, store, w, userID)
	return cond
}

func reportFor(ctx context.Context, store repositories.Store, w WeatherLookup, userID string) (*weather.Report, weather.Condition) {
	if w == nil {
		return nil, weather.Unknown
	}
	u, err := store.Users().GetByID(ctx, userID)
	if err != nil {
		logs.Logger.WithField("user_id", userID).Warnf("weather: owner lookup failed: %v", err)
		return nil, weather.Unknown
	}
	return w.Lookup(ctx, u.City, u.CountryCode)
}

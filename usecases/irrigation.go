package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"siar-server/entities"
	"siar-server/logs"
	"siar-server/repositories"

	"github.com/sirupsen/logrus"
)

type ProfileInput struct {
	Name            string `json:"nombre_perfil"`
	Description     string `json:"descripcion"`
	MinMoisture     int    `json:"umbral_humedad_min"`
	MaxMoisture     int    `json:"umbral_humedad_max"`
	DurationSeconds int    `json:"duracion_riego_seg"`
}

type ScheduleInput struct {
	ProfileID string `json:"perfil_id"`
	TimeOfDay string `json:"hora_riego"`
	Weekdays  []int  `json:"dias_semana"`
	Active    *bool  `json:"activo"`
}

type IrrigationUseCase struct {
	store   repositories.Store
	weather WeatherLookup
	now     func() time.Time
}

func NewIrrigationUseCase(store repositories.Store, w WeatherLookup) *IrrigationUseCase {
	return &IrrigationUseCase{store: store, weather: w, now: time.Now}
}

// ============= Profiles =============

func (uc *IrrigationUseCase) CreateProfile(ctx context.Context, userID string, in ProfileInput) (*entities.Profile, error) {
	p := &entities.Profile{
		UserID:          userID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		MinMoisture:     in.MinMoisture,
		MaxMoisture:     in.MaxMoisture,
		DurationSeconds: in.DurationSeconds,
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := uc.store.Profiles().Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

func (uc *IrrigationUseCase) ListProfiles(ctx context.Context, userID string) ([]entities.Profile, error) {
	return uc.store.Profiles().GetByUserID(ctx, userID)
}

func (uc *IrrigationUseCase) GetProfile(ctx context.Context, userID, id string) (*entities.Profile, error) {
	return ownedProfile(ctx, uc.store, userID, id)
}

func (uc *IrrigationUseCase) UpdateProfile(ctx context.Context, userID, id string, in ProfileInput) (*entities.Profile, error) {
	var out *entities.Profile
	err := uc.store.Atomic(ctx, func(tx repositories.Store) error {
		p, err := ownedProfile(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		p.Name = strings.TrimSpace(in.Name)
		p.Description = in.Description
		p.MinMoisture = in.MinMoisture
		p.MaxMoisture = in.MaxMoisture
		p.DurationSeconds = in.DurationSeconds
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		if err := tx.Profiles().Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteProfile refuses profiles still referenced by a configuration or schedule.
func (uc *IrrigationUseCase) DeleteProfile(ctx context.Context, userID, id string) error {
	return uc.store.Atomic(ctx, func(tx repositories.Store) error {
		if _, err := ownedProfile(ctx, tx, userID, id); err != nil {
			return err
		}
		inUse, err := tx.Profiles().InUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return ErrProfileInUse
		}
		return tx.Profiles().Delete(ctx, id)
	})
}

func ownedProfile(ctx context.Context, store repositories.Store, userID, id string) (*entities.Profile, error) {
	p, err := store.Profiles().GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrProfileNotFound)
	}
	if p.UserID != userID {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// ============= Configuration =============

// Configuration returns the device setup, or the defaults when none exists yet.
func (uc *IrrigationUseCase) Configuration(ctx context.Context, userID, deviceID string) (*entities.Configuration, error) {
	if _, err := ownedDevice(ctx, uc.store, userID, deviceID); err != nil {
		return nil, err
	}
	cfg, err := uc.store.Configurations().GetByDeviceID(ctx, deviceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &entities.Configuration{DeviceID: deviceID, AutoMode: true}, nil
	}
	return cfg, err
}

// ApplyProfile activates a profile on a device and turns automatic mode on.
func (uc *IrrigationUseCase) ApplyProfile(ctx context.Context, userID, deviceID, profileID string) (*entities.Configuration, error) {
	var out *entities.Configuration
	err := uc.store.Atomic(ctx, func(tx repositories.Store) error {
		if _, err := lockOwned(ctx, tx, userID, deviceID); err != nil {
			return err
		}
		p, err := ownedProfile(ctx, tx, userID, profileID)
		if err != nil {
			return err
		}
		cfg, err := configurationFor(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		cfg.ActiveProfileID = &p.ID
		cfg.AutoMode = true
		if err := tx.Configurations().Save(ctx, cfg); err != nil {
			return err
		}
		cfg.ActiveProfile = p
		out = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}
	logs.Logger.WithFields(logrus.Fields{"device_id": deviceID, "profile_id": profileID}).Info("profile applied")
	return out, nil
}

// SetAutoMode toggles automatic mode. Enabling requires a reachable device
// and no rain at the owner's location.
func (uc *IrrigationUseCase) SetAutoMode(ctx context.Context, userID, deviceID string, enabled bool) (*entities.Configuration, error) {
	if enabled {
		if weatherFor(ctx, uc.store, uc.weather, userID).IsRaining() {
			return nil, fmt.Errorf("%w: it is raining", ErrAutoModeBlocked)
		}
	}

	var out *entities.Configuration
	err := uc.store.Atomic(ctx, func(tx repositories.Store) error {
		d, err := lockOwned(ctx, tx, userID, deviceID)
		if err != nil {
			return err
		}
		if enabled && !d.Status.Active() {
			return fmt.Errorf("%w: device is %s", ErrAutoModeBlocked, d.Status)
		}
		cfg, err := configurationFor(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		cfg.AutoMode = enabled
		if err := tx.Configurations().Save(ctx, cfg); err != nil {
			return err
		}
		out = cfg
		return nil
	})
	return out, err
}

// ============= Schedules =============

// SaveSchedule creates or overwrites the single schedule of a device.
func (uc *IrrigationUseCase) SaveSchedule(ctx context.Context, userID, deviceID string, in ScheduleInput) (*entities.Schedule, error) {
	hhmm, err := entities.ParseTimeOfDay(in.TimeOfDay)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	days, err := entities.EncodeWeekdays(in.Weekdays)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}

	var out *entities.Schedule
	err = uc.store.Atomic(ctx, func(tx repositories.Store) error {
		if _, err := lockOwned(ctx, tx, userID, deviceID); err != nil {
			return err
		}
		p, err := ownedProfile(ctx, tx, userID, in.ProfileID)
		if err != nil {
			return err
		}
		cfg, err := configurationFor(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if cfg.ID == "" {
			if err := tx.Configurations().Save(ctx, cfg); err != nil {
				return err
			}
		}
		s := &entities.Schedule{
			DeviceID:  deviceID,
			ProfileID: p.ID,
			TimeOfDay: hhmm,
			Weekdays:  days,
			Active:    active,
		}
		if err := tx.Schedules().Upsert(ctx, s); err != nil {
			return err
		}
		s.Profile = p
		out = s
		return nil
	})
	return out, err
}

func (uc *IrrigationUseCase) GetSchedule(ctx context.Context, userID, deviceID string) (*entities.Schedule, error) {
	if _, err := ownedDevice(ctx, uc.store, userID, deviceID); err != nil {
		return nil, err
	}
	s, err := uc.store.Schedules().GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, orNotFound(err, ErrScheduleNotFound)
	}
	return s, nil
}

// ============= Device log =============

// LogIrrigation records a watering the device performed. A present humidity
// marks it as sensor triggered.
func (uc *IrrigationUseCase) LogIrrigation(ctx context.Context, key string, seconds float64, humidity *float64) (*entities.Event, error) {
	if seconds < 0 {
		return nil, fmt.Errorf("%w: duracion_seg must not be negative", ErrValidation)
	}
	d, err := deviceByKey(ctx, uc.store, key)
	if err != nil {
		return nil, err
	}

	dur := strconv.FormatFloat(seconds, 'f', -1, 64)
	ev := &entities.Event{
		DeviceID:        d.ID,
		Type:            entities.EventScheduledWatering,
		Description:     fmt.Sprintf("Riego programado. Duración: %ss", dur),
		DurationSeconds: &seconds,
		Timestamp:       uc.now().UTC(),
	}
	if humidity != nil {
		ev.Type = entities.EventSensorWatering
		ev.Description = fmt.Sprintf("Riego por sensor (humedad %s%%). Duración: %ss",
			strconv.FormatFloat(*humidity, 'f', -1, 64), dur)
	}

	if err := uc.store.Events().Append(ctx, ev); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}
	return ev, nil
}

// ============= Device views =============

func (uc *IrrigationUseCase) LatestReading(ctx context.Context, userID, deviceID string) (*entities.MoistureReading, error) {
	if _, err := ownedDevice(ctx, uc.store, userID, deviceID); err != nil {
		return nil, err
	}
	r, err := uc.store.Readings().LatestByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, orNotFound(err, ErrReadingNotFound)
	}
	return r, nil
}

func (uc *IrrigationUseCase) RecentEvents(ctx context.Context, userID, deviceID string, limit int) ([]entities.Event, error) {
	if _, err := ownedDevice(ctx, uc.store, userID, deviceID); err != nil {
		return nil, err
	}
	return uc.store.Events().ListByDeviceID(ctx, deviceID, limit)
}

func lockOwned(ctx context.Context, tx repositories.Store, userID, deviceID string) (*entities.Device, error) {
	d, err := tx.Devices().Lock(ctx, deviceID)
	if err != nil {
		return nil, orNotFound(err, ErrDeviceNotFound)
	}
	if d.UserID != userID {
		return nil, ErrDeviceNotFound
	}
	return d, nil
}

// configurationFor loads the device configuration or a fresh unsaved default.
func configurationFor(ctx context.Context, tx repositories.Store, deviceID string) (*entities.Configuration, error) {
	cfg, err := tx.Configurations().GetByDeviceID(ctx, deviceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &entities.Configuration{DeviceID: deviceID, AutoMode: true}, nil
	}
	return cfg, err
}

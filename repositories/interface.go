package repositories

import (
	"context"
	"errors"
	"time"

	"siar-server/entities"
)

// ErrNotFound is returned by every lookup that matches no row.
var ErrNotFound = errors.New("record not found")

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

type DeviceRepository interface {
	Create(ctx context.Context, device *entities.Device) error
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	GetByAPIKey(ctx context.Context, key string) (*entities.Device, error)
	GetByUserID(ctx context.Context, userID string) ([]entities.Device, error)
	GetAll(ctx context.Context) ([]entities.Device, error)
	// Lock re-reads the row for update; only meaningful inside Atomic.
	Lock(ctx context.Context, id string) (*entities.Device, error)
	UpdateLiveness(ctx context.Context, device *entities.Device) error
}

type ConfigurationRepository interface {
	GetByDeviceID(ctx context.Context, deviceID string) (*entities.Configuration, error)
	Save(ctx context.Context, cfg *entities.Configuration) error
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *entities.Profile) error
	GetByID(ctx context.Context, id string) (*entities.Profile, error)
	GetByUserID(ctx context.Context, userID string) ([]entities.Profile, error)
	Update(ctx context.Context, profile *entities.Profile) error
	Delete(ctx context.Context, id string) error
	InUse(ctx context.Context, id string) (bool, error)
}

type ScheduleRepository interface {
	GetByDeviceID(ctx context.Context, deviceID string) (*entities.Schedule, error)
	// Upsert keeps a single schedule per device: an existing row is overwritten.
	Upsert(ctx context.Context, schedule *entities.Schedule) error
	ListActiveByDeviceID(ctx context.Context, deviceID string) ([]entities.Schedule, error)
}

type ReadingRepository interface {
	Create(ctx context.Context, reading *entities.MoistureReading) error
	LatestByDeviceID(ctx context.Context, deviceID string) (*entities.MoistureReading, error)
}

type EventRepository interface {
	Append(ctx context.Context, event *entities.Event) error
	ListByDeviceID(ctx context.Context, deviceID string, limit int) ([]entities.Event, error)
	// ListWatering returns riego* events, optionally from since onwards.
	ListWatering(ctx context.Context, deviceID string, since *time.Time) ([]entities.Event, error)
}

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Users() UserRepository
	Devices() DeviceRepository
	Configurations() ConfigurationRepository
	Profiles() ProfileRepository
	Schedules() ScheduleRepository
	Readings() ReadingRepository
	Events() EventRepository

	// Atomic runs fn in one transaction; any error rolls everything back.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

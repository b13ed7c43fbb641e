package repositories

import (
	"context"
	"errors"

	"siar-server/db"

	"gorm.io/gorm"
)

type pgStore struct {
	db db.Database
}

func NewPgStore(database db.Database) Store {
	return &pgStore{db: database}
}

func (s *pgStore) Users() UserRepository                   { return NewUserPgRepository(s.db) }
func (s *pgStore) Devices() DeviceRepository               { return NewDevicePgRepository(s.db) }
func (s *pgStore) Configurations() ConfigurationRepository { return NewConfigurationPgRepository(s.db) }
func (s *pgStore) Profiles() ProfileRepository             { return NewProfilePgRepository(s.db) }
func (s *pgStore) Schedules() ScheduleRepository           { return NewSchedulePgRepository(s.db) }
func (s *pgStore) Readings() ReadingRepository             { return NewReadingPgRepository(s.db) }
func (s *pgStore) Events() EventRepository                 { return NewEventPgRepository(s.db) }

func (s *pgStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: &txDatabase{tx: tx}})
	})
}

// txDatabase exposes a transaction through db.Database.
type txDatabase struct {
	tx *gorm.DB
}

func (t *txDatabase) GetDB() *gorm.DB { return t.tx }
func (t *txDatabase) Close() error    { return nil }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

package repositories

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"siar-server/confs"
	"siar-server/db"
	"siar-server/entities"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The gorm suite runs against an embedded PostgreSQL when SIAR_PG_TESTS=1.
const pgTestPort = 5434

var pgTestDB db.Database

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() || os.Getenv("SIAR_PG_TESTS") != "1" {
		os.Exit(m.Run())
	}

	dir, err := os.MkdirTemp("", "siar-pg-")
	if err != nil {
		fmt.Println("temp dir:", err)
		os.Exit(1)
	}
	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Port(pgTestPort).
		Database("siar_test").
		Username("siar").
		Password("siar").
		RuntimePath(dir + "/runtime").
		DataPath(dir + "/data"))
	if err := pg.Start(); err != nil {
		fmt.Println("start embedded postgres:", err)
		os.Exit(1)
	}

	pgTestDB, err = db.Connect(&confs.Config{
		DBDriver: "postgres",
		DBURL:    fmt.Sprintf("host=localhost user=siar password=siar dbname=siar_test port=%d sslmode=disable TimeZone=UTC", pgTestPort),
	})
	code := 1
	if err != nil {
		fmt.Println("connect:", err)
	} else {
		code = m.Run()
		_ = pgTestDB.Close()
	}
	_ = pg.Stop()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestPgStore(t *testing.T) Store {
	t.Helper()
	if pgTestDB == nil {
		t.Skip("set SIAR_PG_TESTS=1 to run against embedded PostgreSQL")
	}
	return NewPgStore(pgTestDB)
}

type pgFixture struct {
	user    *entities.User
	device  *entities.Device
	profile *entities.Profile
}

func seed(t *testing.T, s Store) pgFixture {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().Format("150405.000000000")

	u := &entities.User{Username: "ana" + suffix, Email: "ana" + suffix + "@example.com", FullName: "Ana", PasswordHash: "x"}
	require.NoError(t, s.Users().Create(ctx, u))
	d := &entities.Device{UserID: u.ID, Name: "Huerto"}
	require.NoError(t, s.Devices().Create(ctx, d))
	p := &entities.Profile{UserID: u.ID, Name: "Huerto", MinMoisture: 25, MaxMoisture: 60, DurationSeconds: 10}
	require.NoError(t, s.Profiles().Create(ctx, p))
	return pgFixture{user: u, device: d, profile: p}
}

func TestPgProfileZeroThreshold(t *testing.T) {
	s := newTestPgStore(t)
	f := seed(t, s)
	ctx := context.Background()

	p := &entities.Profile{UserID: f.user.ID, Name: "Cactus", MinMoisture: 0, MaxMoisture: 20, DurationSeconds: 5}
	require.NoError(t, p.Validate())
	require.NoError(t, s.Profiles().Create(ctx, p))

	got, err := s.Profiles().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.MinMoisture)
	assert.Equal(t, 20, got.MaxMoisture)
	assert.Equal(t, 5, got.DurationSeconds)
}

func TestPgScheduleUpsertKeepsOneRow(t *testing.T) {
	s := newTestPgStore(t)
	f := seed(t, s)
	ctx := context.Background()

	first := &entities.Schedule{DeviceID: f.device.ID, ProfileID: f.profile.ID, TimeOfDay: "06:30", Weekdays: "1,3,5", Active: true}
	require.NoError(t, s.Schedules().Upsert(ctx, first))
	second := &entities.Schedule{DeviceID: f.device.ID, ProfileID: f.profile.ID, TimeOfDay: "18:00", Weekdays: "2", Active: false}
	require.NoError(t, s.Schedules().Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, pgTestDB.GetDB().Model(&entities.Schedule{}).Where("device_id = ?", f.device.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := s.Schedules().GetByDeviceID(ctx, f.device.ID)
	require.NoError(t, err)
	assert.Equal(t, "18:00", got.TimeOfDay)
	assert.Equal(t, []int{2}, got.Days())
	assert.False(t, got.Active)
	require.NotNil(t, got.Profile)

	active, err := s.Schedules().ListActiveByDeviceID(ctx, f.device.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPgListWatering(t *testing.T) {
	s := newTestPgStore(t)
	f := seed(t, s)
	ctx := context.Background()
	base := time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)
	secs := 7.5

	for _, e := range []*entities.Event{
		{DeviceID: f.device.ID, Type: entities.EventScheduledWatering, Description: "Riego programado. Duración: 15s", Timestamp: base.Add(2 * time.Hour)},
		{DeviceID: f.device.ID, Type: entities.EventSensorWatering, DurationSeconds: &secs, Timestamp: base},
		{DeviceID: f.device.ID, Type: "estado_online", Timestamp: base.Add(time.Hour)},
		{DeviceID: f.device.ID, Type: entities.EventSensorWatering, Description: "10s", Timestamp: base.AddDate(0, 0, -3)},
	} {
		require.NoError(t, s.Events().Append(ctx, e))
	}

	since := base.Add(-time.Hour)
	events, err := s.Events().ListWatering(ctx, f.device.ID, &since)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entities.EventSensorWatering, events[0].Type)
	require.NotNil(t, events[0].DurationSeconds)
	assert.InDelta(t, 7.5, *events[0].DurationSeconds, 1e-9)
	assert.Equal(t, entities.EventScheduledWatering, events[1].Type)

	all, err := s.Events().ListWatering(ctx, f.device.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPgUpdateLivenessInAtomic(t *testing.T) {
	s := newTestPgStore(t)
	f := seed(t, s)
	ctx := context.Background()
	hb := time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Atomic(ctx, func(tx Store) error {
		d, err := tx.Devices().Lock(ctx, f.device.ID)
		if err != nil {
			return err
		}
		d.Status = entities.StateOnline
		d.LastHeartbeat = &hb
		return tx.Devices().UpdateLiveness(ctx, d)
	}))

	got, err := s.Devices().GetByID(ctx, f.device.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StateOnline, got.Status)
	require.NotNil(t, got.LastHeartbeat)
	assert.True(t, hb.Equal(*got.LastHeartbeat))

	boom := errors.New("boom")
	err = s.Atomic(ctx, func(tx Store) error {
		d, err := tx.Devices().Lock(ctx, f.device.ID)
		if err != nil {
			return err
		}
		d.Status = entities.StateError
		if err := tx.Devices().UpdateLiveness(ctx, d); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err = s.Devices().GetByID(ctx, f.device.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StateOnline, got.Status)

	_, err = s.Devices().Lock(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

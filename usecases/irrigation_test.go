package usecases

import (
	"context"
	"testing"
	"time"

	"siar-server/entities"
	"siar-server/weather"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfileRejectsInvertedBand(t *testing.T) {
	f := newFixture(t)
	uc := NewIrrigationUseCase(f.store, nil)
	ctx := context.Background()

	_, err := uc.CreateProfile(ctx, f.user.ID, ProfileInput{Name: "Seco", MinMoisture: 60, MaxMoisture: 25, DurationSeconds: 10})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, entities.ErrInvalidProfile)
	assert.Contains(t, err.Error(), "must be lower than")

	profiles, err := uc.ListProfiles(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestProfileLifecycle(t *testing.T) {
	f := newFixture(t)
	uc := NewIrrigationUseCase(f.store, nil)
	ctx := context.Background()

	p, err := uc.CreateProfile(ctx, f.user.ID, ProfileInput{Name: "Tomates", MinMoisture: 30, MaxMoisture: 70, DurationSeconds: 12})
	require.NoError(t, err)

	_, err = uc.GetProfile(ctx, "intruder", p.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = uc.UpdateProfile(ctx, f.user.ID, p.ID, ProfileInput{Name: "Tomates", MinMoisture: 80, MaxMoisture: 70, DurationSeconds: 12})
	assert.ErrorIs(t, err, ErrValidation)
	stored, err := uc.GetProfile(ctx, f.user.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.MinMoisture)

	updated, err := uc.UpdateProfile(ctx, f.user.ID, p.ID, ProfileInput{Name: "Tomates", MinMoisture: 35, MaxMoisture: 70, DurationSeconds: 15})
	require.NoError(t, err)
	assert.Equal(t, 15, updated.DurationSeconds)

	_, err = uc.ApplyProfile(ctx, f.user.ID, f.device.ID, p.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, uc.DeleteProfile(ctx, f.user.ID, p.ID), ErrProfileInUse)

	other, err := uc.CreateProfile(ctx, f.user.ID, ProfileInput{Name: "Libre", MinMoisture: 10, MaxMoisture: 20, DurationSeconds: 5})
	require.NoError(t, err)
	require.NoError(t, uc.DeleteProfile(ctx, f.user.ID, other.ID))
	_, err = uc.GetProfile(ctx, f.user.ID, other.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestApplyProfileCreatesConfiguration(t *testing.T) {
	f := newFixture(t)
	uc := NewIrrigationUseCase(f.store, nil)
	ctx := context.Background()
	p := f.profile(t, 25, 60, 10)

	cfg, err := uc.Configuration(ctx, f.user.ID, f.device.ID)
	require.NoError(t, err)
	assert.Empty(t, cfg.ID)
	assert.True(t, cfg.AutoMode)

	cfg, err = uc.ApplyProfile(ctx, f.user.ID, f.device.ID, p.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.ID)
	require.NotNil(t, cfg.ActiveProfileID)
	assert.Equal(t, p.ID, *cfg.ActiveProfileID)

	stored, err := f.store.Configurations().GetByDeviceID(ctx, f.device.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ActiveProfile)
	assert.Equal(t, 60, stored.ActiveProfile.MaxMoisture)

	_, err = uc.ApplyProfile(ctx, "intruder", f.device.ID, p.ID)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestSetAutoMode(t *testing.T) {
	f := newFixture(t)
	w := &fakeWeather{cond: weather.NotRaining}
	uc := NewIrrigationUseCase(f.store, w)
	ctx := context.Background()

	_, err := uc.SetAutoMode(ctx, f.user.ID, f.device.ID, true)
	assert.ErrorIs(t, err, ErrAutoModeBlocked, "offline device")

	f.setDevice(t, entities.StateOnline, ptr(t0))
	w.cond = weather.Raining
	_, err = uc.SetAutoMode(ctx, f.user.ID, f.device.ID, true)
	assert.ErrorIs(t, err, ErrAutoModeBlocked, "raining")

	cfg, err := uc.SetAutoMode(ctx, f.user.ID, f.device.ID, false)
	require.NoError(t, err)
	assert.False(t, cfg.AutoMode)

	w.cond = weather.Unknown
	cfg, err = uc.SetAutoMode(ctx, f.user.ID, f.device.ID, true)
	require.NoError(t, err)
	assert.True(t, cfg.AutoMode)
}

func TestSecondScheduleOverwritesFirst(t *testing.T) {
	f := newFixture(t)
	uc := NewIrrigationUseCase(f.store, nil)
	ctx := context.Background()
	p := f.profile(t, 25, 60, 10)

	first, err := uc.SaveSchedule(ctx, f.user.ID, f.device.ID, ScheduleInput{ProfileID: p.ID, TimeOfDay: "6:00", Weekdays: []int{1, 3, 5}})
	require.NoError(t, err)
	assert.True(t, first.Active)

	second, err := uc.SaveSchedule(ctx, f.user.ID, f.device.ID, ScheduleInput{ProfileID: p.ID, TimeOfDay: "18:30", Weekdays: []int{7}})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := f.store.Schedules().ListActiveByDeviceID(ctx, f.device.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "18:30", list[0].TimeOfDay)
	assert.Equal(t, []int{7}, list[0].Days())

	// schedule creation also creates the configuration
	_, err = f.store.Configurations().GetByDeviceID(ctx, f.device.ID)
	assert.NoError(t, err)
}

func TestSaveScheduleValidation(t *testing.T) {
	f := newFixture(t)
	uc := NewIrrigationUseCase(f.store, nil)
	ctx := context.Background()
	p := f.profile(t, 25, 60, 10)

	_, err := uc.SaveSchedule(ctx, f.user.ID, f.device.ID, ScheduleInput{ProfileID: p.ID, TimeOfDay: "25:00", Weekdays: []int{1}})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = uc.SaveSchedule(ctx, f.user.ID, f.device.ID, ScheduleInput{ProfileID: p.ID, TimeOfDay: "06:00", Weekdays: []int{8}})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = uc.SaveSchedule(ctx, f.user.ID, f.device.ID, ScheduleInput{ProfileID: "missing", TimeOfDay: "06:00", Weekdays: []int{1}})
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = uc.GetSchedule(ctx, f.user.ID, f.device.ID)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
	_, err = f.store.Configurations().GetByDeviceID(ctx, f.device.ID)
	assert.Error(t, err, "failed upsert leaves no configuration behind")
}

func TestLogIrrigation(t *testing.T) {
	f := newFixture(t)
	uc := NewIrrigationUseCase(f.store, nil)
	uc.now = func() time.Time { return t0 }
	ctx := context.Background()

	ev, err := uc.LogIrrigation(ctx, f.device.APIKey, 7.5, ptr(22.0))
	require.NoError(t, err)
	assert.Equal(t, entities.EventSensorWatering, ev.Type)
	assert.Contains(t, ev.Description, "7.5s")

	ev, err = uc.LogIrrigation(ctx, f.device.APIKey, 15, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.EventScheduledWatering, ev.Type)
	assert.Contains(t, ev.Description, "15s")
	require.NotNil(t, ev.DurationSeconds)
	assert.Equal(t, 15.0, *ev.DurationSeconds)

	_, err = uc.LogIrrigation(ctx, "nope", 15, nil)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	events, err := uc.RecentEvents(ctx, f.user.ID, f.device.ID, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestLatestReading(t *testing.T) {
	f := newFixture(t)
	uc := NewIrrigationUseCase(f.store, nil)
	ctx := context.Background()

	_, err := uc.LatestReading(ctx, f.user.ID, f.device.ID)
	assert.ErrorIs(t, err, ErrReadingNotFound)

	require.NoError(t, f.store.Readings().Create(ctx, &entities.MoistureReading{DeviceID: f.device.ID, Value: 33, Timestamp: t0}))
	require.NoError(t, f.store.Readings().Create(ctx, &entities.MoistureReading{DeviceID: f.device.ID, Value: 41, Timestamp: t0.Add(time.Second)}))

	r, err := uc.LatestReading(ctx, f.user.ID, f.device.ID)
	require.NoError(t, err)
	assert.Equal(t, 41.0, r.Value)
}

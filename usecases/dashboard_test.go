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

func TestOverviewEvaluatesEveryDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := t0.Add(-time.Hour)
	f.setDevice(t, entities.StateWatering, &old)

	second := &entities.Device{UserID: f.user.ID, Name: "Patio"}
	require.NoError(t, f.store.Devices().Create(ctx, second))

	clock := t0
	liveness, _ := newLiveness(f, &clock)
	w := &fakeWeather{report: &weather.Report{Temp: 24, MainCondition: "Rain"}, cond: weather.Raining}
	uc := NewDashboardUseCase(f.store, liveness, w)

	all, err := uc.Overview(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, s := range all {
		assert.Equal(t, entities.StateOffline, s.Status)
		assert.True(t, s.IsRaining)
		assert.True(t, s.AutoMode)
	}
	assert.Equal(t, 1, w.calls)

	one, err := uc.DeviceStatus(ctx, f.user.ID, f.device.ID)
	require.NoError(t, err)
	assert.Equal(t, 24, one.Weather.Temp)
	assert.Equal(t, "raining", one.Condition)
}

func TestOverviewWithoutDevices(t *testing.T) {
	f := newFixture(t)
	clock := t0
	liveness, _ := newLiveness(f, &clock)
	uc := NewDashboardUseCase(f.store, liveness, &fakeWeather{})

	all, err := uc.Overview(context.Background(), "no-devices")
	require.NoError(t, err)
	assert.Empty(t, all)
}

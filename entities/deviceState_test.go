package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextHeartbeat(t *testing.T) {
	cases := []struct {
		from    DeviceState
		want    DeviceState
		changed bool
	}{
		{StateOffline, StateOnline, true},
		{StateOnline, StateOnline, false},
		{StateWatering, StateWatering, false},
		{StateOfflineManual, StateOfflineManual, false},
		{StateError, StateError, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from), func(t *testing.T) {
			next, changed, err := Next(tc.from, TriggerHeartbeat)
			require.NoError(t, err)
			assert.Equal(t, tc.want, next)
			assert.Equal(t, tc.changed, changed)
		})
	}
}

func TestNextTimeoutIsIdempotent(t *testing.T) {
	next, changed, err := Next(StateWatering, TriggerTimeout)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StateOffline, next)

	again, changed, err := Next(next, TriggerTimeout)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StateOffline, again)

	for _, s := range []DeviceState{StateOfflineManual, StateError} {
		got, changed, err := Next(s, TriggerTimeout)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, s, got)
	}
}

func TestNextSelfReport(t *testing.T) {
	next, changed, err := Next(StateOffline, TriggerReportWatering)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StateWatering, next)

	next, changed, err = Next(StateError, TriggerReportOnline)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StateOnline, next)

	_, changed, err = Next(StateOnline, TriggerReportOnline)
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = Next(StateOfflineManual, TriggerReportOnline)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestNextManualToggle(t *testing.T) {
	next, changed, err := Next(StateWatering, TriggerManualDisable)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StateOfflineManual, next)

	_, changed, err = Next(StateOfflineManual, TriggerManualDisable)
	require.NoError(t, err)
	assert.False(t, changed)

	next, changed, err = Next(StateOfflineManual, TriggerManualEnable)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StateOffline, next)

	_, changed, err = Next(StateOnline, TriggerManualEnable)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestNextRejectsUnknown(t *testing.T) {
	_, _, err := Next(DeviceState("Desconocido"), TriggerHeartbeat)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = Next(StateOnline, Trigger(99))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReportTrigger(t *testing.T) {
	_, ok := ReportTrigger(StateOffline)
	assert.False(t, ok)
	_, ok = ReportTrigger(StateOfflineManual)
	assert.False(t, ok)
	tr, ok := ReportTrigger(StateWatering)
	assert.True(t, ok)
	assert.Equal(t, TriggerReportWatering, tr)
}

func TestDeviceStale(t *testing.T) {
	now := time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)
	d := &Device{}
	assert.True(t, d.Stale(now, 30*time.Second))

	hb := now.Add(-10 * time.Second)
	d.LastHeartbeat = &hb
	assert.False(t, d.Stale(now, 30*time.Second))

	old := now.Add(-31 * time.Second)
	d.LastHeartbeat = &old
	assert.True(t, d.Stale(now, 30*time.Second))
}

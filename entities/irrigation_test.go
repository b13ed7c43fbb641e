package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestProfileValidate(t *testing.T) {
	ok := Profile{Name: "Huerto", MinMoisture: 25, MaxMoisture: 60, DurationSeconds: 10}
	assert.NoError(t, ok.Validate())

	inverted := Profile{Name: "Huerto", MinMoisture: 60, MaxMoisture: 25, DurationSeconds: 10}
	err := inverted.Validate()
	assert.ErrorIs(t, err, ErrInvalidProfile)
	assert.Contains(t, err.Error(), "must be lower than")

	equal := Profile{Name: "Huerto", MinMoisture: 40, MaxMoisture: 40, DurationSeconds: 10}
	assert.ErrorIs(t, equal.Validate(), ErrInvalidProfile)

	noDuration := Profile{Name: "Huerto", MinMoisture: 25, MaxMoisture: 60}
	assert.ErrorIs(t, noDuration.Validate(), ErrInvalidProfile)

	outOfRange := Profile{Name: "Huerto", MinMoisture: 25, MaxMoisture: 120, DurationSeconds: 5}
	assert.ErrorIs(t, outOfRange.Validate(), ErrInvalidProfile)
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("6:30")
	require.NoError(t, err)
	assert.Equal(t, "06:30", got)

	got, err = ParseTimeOfDay("18:05:00")
	require.NoError(t, err)
	assert.Equal(t, "18:05", got)

	_, err = ParseTimeOfDay("25:00")
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestWeekdaysRoundTrip(t *testing.T) {
	enc, err := EncodeWeekdays([]int{5, 1, 3, 3})
	require.NoError(t, err)
	assert.Equal(t, "1,3,5", enc)

	s := Schedule{Weekdays: enc}
	assert.Equal(t, []int{1, 3, 5}, s.Days())

	_, err = EncodeWeekdays(nil)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
	_, err = EncodeWeekdays([]int{0})
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	legacy := Schedule{Weekdays: "1, 3,x,9"}
	assert.Equal(t, []int{1, 3}, legacy.Days())
}

func TestProfileInsertKeepsZeroThreshold(t *testing.T) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=siar dbname=siar sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true})
	require.NoError(t, err)

	p := Profile{UserID: "u1", Name: "Cactus", MinMoisture: 0, MaxMoisture: 20, DurationSeconds: 10}
	require.NoError(t, p.Validate())

	stmt := gdb.Create(&p).Statement
	assert.Equal(t, 0, p.MinMoisture)
	assert.Equal(t, 20, p.MaxMoisture)
	assert.Contains(t, stmt.Vars, interface{}(0))
	assert.NotContains(t, stmt.Vars, interface{}(25))
}

package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"siar-server/entities"
	"siar-server/repositories"
	"siar-server/weather"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)

type fakeWeather struct {
	report *weather.Report
	cond   weather.Condition
	calls  int
}

func (f *fakeWeather) Lookup(ctx context.Context, city, countryCode string) (*weather.Report, weather.Condition) {
	f.calls++
	return f.report, f.cond
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]interface{}
}

func (n *recordingNotifier) Notify(userID string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = make(map[string][]interface{})
	}
	n.sent[userID] = append(n.sent[userID], payload)
}

type fixture struct {
	store  repositories.Store
	user   *entities.User
	device *entities.Device
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repositories.NewMemoryStore()

	user := &entities.User{Username: "ana", Email: "ana@example.com", FullName: "Ana", City: "San Salvador", CountryCode: "SV"}
	require.NoError(t, store.Users().Create(ctx, user))

	device := &entities.Device{UserID: user.ID, Name: "Huerto"}
	require.NoError(t, store.Devices().Create(ctx, device))

	return &fixture{store: store, user: user, device: device}
}

func (f *fixture) setDevice(t *testing.T, status entities.DeviceState, heartbeat *time.Time) {
	t.Helper()
	f.device.Status = status
	f.device.LastHeartbeat = heartbeat
	require.NoError(t, f.store.Devices().UpdateLiveness(context.Background(), f.device))
}

func (f *fixture) reload(t *testing.T) *entities.Device {
	t.Helper()
	d, err := f.store.Devices().GetByID(context.Background(), f.device.ID)
	require.NoError(t, err)
	return d
}

func (f *fixture) events(t *testing.T) []entities.Event {
	t.Helper()
	ev, err := f.store.Events().ListByDeviceID(context.Background(), f.device.ID, 100)
	require.NoError(t, err)
	return ev
}

func (f *fixture) profile(t *testing.T, min, max, dur int) *entities.Profile {
	t.Helper()
	p := &entities.Profile{UserID: f.user.ID, Name: "Huerto", MinMoisture: min, MaxMoisture: max, DurationSeconds: dur}
	require.NoError(t, f.store.Profiles().Create(context.Background(), p))
	return p
}

var errEventsDown = errors.New("events unavailable")

// brokenEvents fails every event append, inside or outside Atomic.
type brokenEvents struct {
	repositories.Store
}

func (s brokenEvents) Events() repositories.EventRepository {
	return failingEventRepo{s.Store.Events()}
}

func (s brokenEvents) Atomic(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.Store.Atomic(ctx, func(tx repositories.Store) error {
		return fn(brokenEvents{tx})
	})
}

type failingEventRepo struct {
	repositories.EventRepository
}

func (failingEventRepo) Append(context.Context, *entities.Event) error { return errEventsDown }

func ptr[T any](v T) *T { return &v }

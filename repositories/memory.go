package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"siar-server/entities"
)

// ErrDuplicate is returned by the memory store on unique key violations.
var ErrDuplicate = errors.New("duplicate key")

type memData struct {
	users     map[string]entities.User
	devices   map[string]entities.Device
	configs   map[string]entities.Configuration // by device id
	profiles  map[string]entities.Profile
	schedules map[string]entities.Schedule // by device id
	readings  []entities.MoistureReading
	events    []entities.Event
}

func newMemData() *memData {
	return &memData{
		users:     make(map[string]entities.User),
		devices:   make(map[string]entities.Device),
		configs:   make(map[string]entities.Configuration),
		profiles:  make(map[string]entities.Profile),
		schedules: make(map[string]entities.Schedule),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.devices {
		c.devices[k] = v
	}
	for k, v := range d.configs {
		c.configs[k] = v
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.schedules {
		c.schedules[k] = v
	}
	c.readings = append([]entities.MoistureReading(nil), d.readings...)
	c.events = append([]entities.Event(nil), d.events...)
	return c
}

// memStore keeps everything in process. Atomic serialises units of work
// and restores a snapshot when fn fails.
type memStore struct {
	mu   *sync.Mutex
	data **memData
	inTx bool
	now  func() time.Time
}

// NewMemoryStore returns a Store that does not persist across restarts.
func NewMemoryStore() Store {
	d := newMemData()
	return &memStore{mu: &sync.Mutex{}, data: &d, now: time.Now}
}

func (s *memStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) d() *memData { return *s.data }

func (s *memStore) Users() UserRepository                   { return memUsers{s} }
func (s *memStore) Devices() DeviceRepository               { return memDevices{s} }
func (s *memStore) Configurations() ConfigurationRepository { return memConfigurations{s} }
func (s *memStore) Profiles() ProfileRepository             { return memProfiles{s} }
func (s *memStore) Schedules() ScheduleRepository           { return memSchedules{s} }
func (s *memStore) Readings() ReadingRepository             { return memReadings{s} }
func (s *memStore) Events() EventRepository                 { return memEvents{s} }

func (s *memStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d().clone()
	if err := fn(&memStore{mu: s.mu, data: s.data, inTx: true, now: s.now}); err != nil {
		*s.data = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *entities.User) error {
	defer r.s.lock()()
	for _, u := range r.s.d().users {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if err := user.BeforeCreate(nil); err != nil {
		return err
	}
	user.CreatedAt, user.UpdatedAt = r.s.now(), r.s.now()
	r.s.d().users[user.ID] = *user
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id string) (*entities.User, error) {
	defer r.s.lock()()
	u, ok := r.s.d().users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r memUsers) find(match func(entities.User) bool) (*entities.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.d().users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.find(func(u entities.User) bool { return u.Username == username })
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.find(func(u entities.User) bool { return u.Email == email })
}

type memDevices struct{ s *memStore }

func (r memDevices) Create(ctx context.Context, device *entities.Device) error {
	defer r.s.lock()()
	if err := device.BeforeCreate(nil); err != nil {
		return err
	}
	for _, d := range r.s.d().devices {
		if d.APIKey == device.APIKey {
			return ErrDuplicate
		}
	}
	device.CreatedAt, device.UpdatedAt = r.s.now(), r.s.now()
	stored := *device
	stored.Configuration = nil
	r.s.d().devices[device.ID] = stored
	return nil
}

func (r memDevices) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	defer r.s.lock()()
	d, ok := r.s.d().devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r memDevices) GetByAPIKey(ctx context.Context, key string) (*entities.Device, error) {
	defer r.s.lock()()
	for _, d := range r.s.d().devices {
		if d.APIKey == key {
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (r memDevices) list(match func(entities.Device) bool) []entities.Device {
	defer r.s.lock()()
	out := []entities.Device{}
	for _, d := range r.s.d().devices {
		if match(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r memDevices) GetByUserID(ctx context.Context, userID string) ([]entities.Device, error) {
	return r.list(func(d entities.Device) bool { return d.UserID == userID }), nil
}

func (r memDevices) GetAll(ctx context.Context) ([]entities.Device, error) {
	return r.list(func(entities.Device) bool { return true }), nil
}

func (r memDevices) Lock(ctx context.Context, id string) (*entities.Device, error) {
	return r.GetByID(ctx, id)
}

func (r memDevices) UpdateLiveness(ctx context.Context, device *entities.Device) error {
	defer r.s.lock()()
	d, ok := r.s.d().devices[device.ID]
	if !ok {
		return ErrNotFound
	}
	d.Status = device.Status
	d.LastHeartbeat = device.LastHeartbeat
	d.UpdatedAt = r.s.now()
	r.s.d().devices[device.ID] = d
	return nil
}

type memConfigurations struct{ s *memStore }

func (r memConfigurations) GetByDeviceID(ctx context.Context, deviceID string) (*entities.Configuration, error) {
	defer r.s.lock()()
	c, ok := r.s.d().configs[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	c.ActiveProfile = nil
	if c.ActiveProfileID != nil {
		if p, ok := r.s.d().profiles[*c.ActiveProfileID]; ok {
			c.ActiveProfile = &p
		}
	}
	return &c, nil
}

func (r memConfigurations) Save(ctx context.Context, cfg *entities.Configuration) error {
	defer r.s.lock()()
	if existing, ok := r.s.d().configs[cfg.DeviceID]; ok {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	} else {
		_ = cfg.BeforeCreate(nil)
		cfg.CreatedAt = r.s.now()
	}
	cfg.UpdatedAt = r.s.now()
	stored := *cfg
	stored.ActiveProfile = nil
	r.s.d().configs[cfg.DeviceID] = stored
	return nil
}

type memProfiles struct{ s *memStore }

func (r memProfiles) Create(ctx context.Context, profile *entities.Profile) error {
	defer r.s.lock()()
	_ = profile.BeforeCreate(nil)
	profile.CreatedAt, profile.UpdatedAt = r.s.now(), r.s.now()
	r.s.d().profiles[profile.ID] = *profile
	return nil
}

func (r memProfiles) GetByID(ctx context.Context, id string) (*entities.Profile, error) {
	defer r.s.lock()()
	p, ok := r.s.d().profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r memProfiles) GetByUserID(ctx context.Context, userID string) ([]entities.Profile, error) {
	defer r.s.lock()()
	out := []entities.Profile{}
	for _, p := range r.s.d().profiles {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memProfiles) Update(ctx context.Context, profile *entities.Profile) error {
	defer r.s.lock()()
	if _, ok := r.s.d().profiles[profile.ID]; !ok {
		return ErrNotFound
	}
	profile.UpdatedAt = r.s.now()
	r.s.d().profiles[profile.ID] = *profile
	return nil
}

func (r memProfiles) Delete(ctx context.Context, id string) error {
	defer r.s.lock()()
	delete(r.s.d().profiles, id)
	return nil
}

func (r memProfiles) InUse(ctx context.Context, id string) (bool, error) {
	defer r.s.lock()()
	for _, c := range r.s.d().configs {
		if c.ActiveProfileID != nil && *c.ActiveProfileID == id {
			return true, nil
		}
	}
	for _, sc := range r.s.d().schedules {
		if sc.ProfileID == id {
			return true, nil
		}
	}
	return false, nil
}

type memSchedules struct{ s *memStore }

func (r memSchedules) withProfile(sc entities.Schedule) entities.Schedule {
	sc.Profile = nil
	if p, ok := r.s.d().profiles[sc.ProfileID]; ok {
		sc.Profile = &p
	}
	return sc
}

func (r memSchedules) GetByDeviceID(ctx context.Context, deviceID string) (*entities.Schedule, error) {
	defer r.s.lock()()
	sc, ok := r.s.d().schedules[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	sc = r.withProfile(sc)
	return &sc, nil
}

func (r memSchedules) Upsert(ctx context.Context, schedule *entities.Schedule) error {
	defer r.s.lock()()
	if existing, ok := r.s.d().schedules[schedule.DeviceID]; ok {
		schedule.ID = existing.ID
		schedule.CreatedAt = existing.CreatedAt
	} else {
		_ = schedule.BeforeCreate(nil)
		schedule.CreatedAt = r.s.now()
	}
	schedule.UpdatedAt = r.s.now()
	stored := *schedule
	stored.Profile = nil
	r.s.d().schedules[schedule.DeviceID] = stored
	return nil
}

func (r memSchedules) ListActiveByDeviceID(ctx context.Context, deviceID string) ([]entities.Schedule, error) {
	defer r.s.lock()()
	out := []entities.Schedule{}
	if sc, ok := r.s.d().schedules[deviceID]; ok && sc.Active {
		out = append(out, r.withProfile(sc))
	}
	return out, nil
}

type memReadings struct{ s *memStore }

func (r memReadings) Create(ctx context.Context, reading *entities.MoistureReading) error {
	defer r.s.lock()()
	_ = reading.BeforeCreate(nil)
	r.s.d().readings = append(r.s.d().readings, *reading)
	return nil
}

func (r memReadings) LatestByDeviceID(ctx context.Context, deviceID string) (*entities.MoistureReading, error) {
	defer r.s.lock()()
	var latest *entities.MoistureReading
	for i := range r.s.d().readings {
		rd := r.s.d().readings[i]
		if rd.DeviceID == deviceID && (latest == nil || !rd.Timestamp.Before(latest.Timestamp)) {
			latest = &rd
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

type memEvents struct{ s *memStore }

func (r memEvents) Append(ctx context.Context, event *entities.Event) error {
	defer r.s.lock()()
	_ = event.BeforeCreate(nil)
	r.s.d().events = append(r.s.d().events, *event)
	return nil
}

func (r memEvents) ListByDeviceID(ctx context.Context, deviceID string, limit int) ([]entities.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	defer r.s.lock()()
	out := []entities.Event{}
	for i := len(r.s.d().events) - 1; i >= 0 && len(out) < limit; i-- {
		if e := r.s.d().events[i]; e.DeviceID == deviceID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r memEvents) ListWatering(ctx context.Context, deviceID string, since *time.Time) ([]entities.Event, error) {
	defer r.s.lock()()
	out := []entities.Event{}
	for _, e := range r.s.d().events {
		if e.DeviceID != deviceID || !strings.HasPrefix(e.Type, entities.WateringEventPrefix) {
			continue
		}
		if since != nil && e.Timestamp.Before(*since) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

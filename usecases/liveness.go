package usecases

import (
	"context"
	"fmt"
	"time"

	"siar-server/entities"
	"siar-server/logs"
	"siar-server/metrics"
	"siar-server/repositories"

	"github.com/sirupsen/logrus"
)

// StateChange is pushed to the owner's dashboard after a committed transition.
type StateChange struct {
	Type     string               `json:"type"`
	DeviceID string               `json:"device_id"`
	From     entities.DeviceState `json:"from"`
	To       entities.DeviceState `json:"to"`
	Trigger  string               `json:"trigger"`
	At       time.Time            `json:"at"`
}

type LivenessUseCase struct {
	store    repositories.Store
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
}

func NewLivenessUseCase(store repositories.Store, notifier Notifier, timeout time.Duration) *LivenessUseCase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LivenessUseCase{store: store, notifier: notifier, timeout: timeout, now: time.Now}
}

// RecordReading stores a moisture sample. The reading is the heartbeat.
func (uc *LivenessUseCase) RecordReading(ctx context.Context, key string, humidity float64) (*entities.MoistureReading, error) {
	if humidity < 0 || humidity > 100 {
		return nil, fmt.Errorf("%w: humedad %v must be within 0-100", ErrValidation, humidity)
	}
	d, err := deviceByKey(ctx, uc.store, key)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	reading := &entities.MoistureReading{DeviceID: d.ID, Value: humidity, Timestamp: now}
	var change *StateChange
	err = uc.store.Atomic(ctx, func(tx repositories.Store) error {
		locked, err := tx.Devices().Lock(ctx, d.ID)
		if err != nil {
			return orNotFound(err, ErrDeviceNotFound)
		}
		if err := tx.Readings().Create(ctx, reading); err != nil {
			return err
		}
		change, err = uc.apply(ctx, tx, locked, entities.TriggerHeartbeat, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.Heartbeats.Inc()
	uc.publish(d.UserID, change)
	return reading, nil
}

// ReportStatus applies a device's own announcement of its state.
func (uc *LivenessUseCase) ReportStatus(ctx context.Context, key, status string) (*entities.Device, error) {
	state, ok := entities.ParseDeviceState(status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	trigger, ok := entities.ReportTrigger(state)
	if !ok {
		return nil, fmt.Errorf("%w: a device cannot report %q", ErrValidation, status)
	}
	d, err := deviceByKey(ctx, uc.store, key)
	if err != nil {
		return nil, err
	}
	return uc.transition(ctx, d, trigger)
}

// SetManualStatus is the owner's maintenance switch. enabled=false parks
// the device in offline_manual.
func (uc *LivenessUseCase) SetManualStatus(ctx context.Context, userID, deviceID string, enabled bool) (*entities.Device, error) {
	d, err := ownedDevice(ctx, uc.store, userID, deviceID)
	if err != nil {
		return nil, err
	}
	trigger := entities.TriggerManualDisable
	if enabled {
		trigger = entities.TriggerManualEnable
	}
	return uc.transition(ctx, d, trigger)
}

// CurrentStatus is the dashboard status read: the timeout is evaluated first.
func (uc *LivenessUseCase) CurrentStatus(ctx context.Context, userID, deviceID string) (*entities.Device, error) {
	d, err := ownedDevice(ctx, uc.store, userID, deviceID)
	if err != nil {
		return nil, err
	}
	return uc.EvaluateTimeout(ctx, d)
}

// StatusByUser evaluates every device of userID.
func (uc *LivenessUseCase) StatusByUser(ctx context.Context, userID string) ([]entities.Device, error) {
	devices, err := uc.store.Devices().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]entities.Device, 0, len(devices))
	for i := range devices {
		d, err := uc.EvaluateTimeout(ctx, &devices[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// EvaluateTimeout moves a stale online/regando device to offline. Nothing is
// written for devices that are fresh or already inactive.
func (uc *LivenessUseCase) EvaluateTimeout(ctx context.Context, d *entities.Device) (*entities.Device, error) {
	if !d.Status.Active() || !d.Stale(uc.now(), uc.timeout) {
		return d, nil
	}
	return uc.transition(ctx, d, entities.TriggerTimeout)
}

// Sweep runs the timeout evaluation over all devices and returns how many
// went offline.
func (uc *LivenessUseCase) Sweep(ctx context.Context) (int, error) {
	devices, err := uc.store.Devices().GetAll(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range devices {
		before := devices[i].Status
		d, err := uc.EvaluateTimeout(ctx, &devices[i])
		if err != nil {
			logs.Logger.WithField("device_id", devices[i].ID).Errorf("timeout sweep: %v", err)
			continue
		}
		if d.Status != before {
			n++
		}
	}
	return n, nil
}

func (uc *LivenessUseCase) transition(ctx context.Context, d *entities.Device, trigger entities.Trigger) (*entities.Device, error) {
	var (
		out    *entities.Device
		change *StateChange
	)
	err := uc.store.Atomic(ctx, func(tx repositories.Store) error {
		locked, err := tx.Devices().Lock(ctx, d.ID)
		if err != nil {
			return orNotFound(err, ErrDeviceNotFound)
		}
		// another writer may have refreshed the heartbeat since the read
		if trigger == entities.TriggerTimeout && !locked.Stale(uc.now(), uc.timeout) {
			out = locked
			return nil
		}
		change, err = uc.apply(ctx, tx, locked, trigger, uc.now().UTC())
		out = locked
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.publish(d.UserID, change)
	return out, nil
}

// apply runs the state machine on a locked device and persists the result,
// appending an estado_<new> event when the state moved.
func (uc *LivenessUseCase) apply(ctx context.Context, tx repositories.Store, d *entities.Device, trigger entities.Trigger, now time.Time) (*StateChange, error) {
	from := d.Status
	next, changed, err := entities.Next(from, trigger)
	if err != nil {
		return nil, err
	}

	if trigger == entities.TriggerHeartbeat {
		hb := now
		d.LastHeartbeat = &hb
	}
	if !changed && trigger != entities.TriggerHeartbeat {
		return nil, nil
	}
	d.Status = next
	if err := tx.Devices().UpdateLiveness(ctx, d); err != nil {
		return nil, err
	}
	if !changed {
		return nil, nil
	}

	ev := &entities.Event{
		DeviceID:    d.ID,
		Type:        entities.StateEventPrefix + string(next),
		Description: fmt.Sprintf("%s -> %s (%s)", from, next, trigger),
		Timestamp:   now,
	}
	if err := tx.Events().Append(ctx, ev); err != nil {
		return nil, err
	}

	metrics.StateTransitions.WithLabelValues(trigger.String(), string(next)).Inc()
	logs.Logger.WithFields(logrus.Fields{
		"device_id": d.ID,
		"from":      from,
		"to":        next,
		"trigger":   trigger.String(),
	}).Info("device state changed")

	return &StateChange{
		Type:     "device_status",
		DeviceID: d.ID,
		From:     from,
		To:       next,
		Trigger:  trigger.String(),
		At:       now,
	}, nil
}

func (uc *LivenessUseCase) publish(userID string, change *StateChange) {
	if change != nil {
		uc.notifier.Notify(userID, change)
	}
}

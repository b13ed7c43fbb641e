package entities

import (
	"errors"
	"fmt"
)

// DeviceState is the connectivity state of a device.
type DeviceState string

const (
	StateOnline        DeviceState = "online"
	StateOffline       DeviceState = "offline"
	StateOfflineManual DeviceState = "offline_manual"
	StateWatering      DeviceState = "regando"
	StateError         DeviceState = "error"
)

var ErrInvalidTransition = errors.New("invalid state transition")

// Trigger is what asks the state machine to move.
type Trigger int

const (
	TriggerHeartbeat Trigger = iota
	TriggerReportOnline
	TriggerReportWatering
	TriggerReportError
	TriggerTimeout
	TriggerManualDisable
	TriggerManualEnable
)

func (t Trigger) String() string {
	switch t {
	case TriggerHeartbeat:
		return "heartbeat"
	case TriggerReportOnline:
		return "report_online"
	case TriggerReportWatering:
		return "report_regando"
	case TriggerReportError:
		return "report_error"
	case TriggerTimeout:
		return "timeout"
	case TriggerManualDisable:
		return "manual_disable"
	case TriggerManualEnable:
		return "manual_enable"
	}
	return fmt.Sprintf("trigger(%d)", int(t))
}

// ParseDeviceState accepts the stored string form of a state.
func ParseDeviceState(s string) (DeviceState, bool) {
	switch st := DeviceState(s); st {
	case StateOnline, StateOffline, StateOfflineManual, StateWatering, StateError:
		return st, true
	}
	return "", false
}

// ReportTrigger maps a state a device may announce about itself to its trigger.
func ReportTrigger(s DeviceState) (Trigger, bool) {
	switch s {
	case StateOnline:
		return TriggerReportOnline, true
	case StateWatering:
		return TriggerReportWatering, true
	case StateError:
		return TriggerReportError, true
	}
	return 0, false
}

// Next applies trigger to current. changed is false for the documented
// no-op edges (heartbeat while online, timeout while offline, ...). Any
// edge that is not part of the machine returns ErrInvalidTransition.
func Next(current DeviceState, trigger Trigger) (next DeviceState, changed bool, err error) {
	if _, ok := ParseDeviceState(string(current)); !ok {
		return current, false, fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, current)
	}

	switch trigger {
	case TriggerHeartbeat:
		if current == StateOffline {
			return StateOnline, true, nil
		}
		return current, false, nil

	case TriggerReportOnline, TriggerReportWatering, TriggerReportError:
		if current == StateOfflineManual {
			return current, false, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, trigger, current)
		}
		target := map[Trigger]DeviceState{
			TriggerReportOnline:   StateOnline,
			TriggerReportWatering: StateWatering,
			TriggerReportError:    StateError,
		}[trigger]
		return target, target != current, nil

	case TriggerTimeout:
		if current == StateOnline || current == StateWatering {
			return StateOffline, true, nil
		}
		return current, false, nil

	case TriggerManualDisable:
		return StateOfflineManual, current != StateOfflineManual, nil

	case TriggerManualEnable:
		if current == StateOfflineManual {
			return StateOffline, true, nil
		}
		return current, false, nil
	}

	return current, false, fmt.Errorf("%w: %s", ErrInvalidTransition, trigger)
}

// Active reports whether the device is currently reachable.
func (s DeviceState) Active() bool {
	return s == StateOnline || s == StateWatering
}

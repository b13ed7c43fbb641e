package main

import (
	"fmt"
	"time"
)

const defaultSensorDuration = 10

type wateringKind int

const (
	noWatering wateringKind = iota
	sensorWatering
	scheduledWatering
)

type decision struct {
	kind    wateringKind
	seconds int
	slotKey string
	reason  string
}

// isoWeekday returns 1=Mon..7=Sun.
func isoWeekday(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 7
	}
	return int(t.Weekday())
}

// decide plays the firmware loop: a schedule slot due this minute wins,
// then emergency watering below umbral_min when automatic mode is active.
// fired holds slot keys already run so a slot fires once per minute.
func decide(cfg *deviceConfig, humidity float64, now time.Time, fired map[string]bool) decision {
	if cfg == nil {
		return decision{}
	}

	hhmm := now.Format("15:04")
	today := isoWeekday(now)
	for _, s := range cfg.Schedules {
		if s.Time != hhmm || s.Duration <= 0 {
			continue
		}
		for _, d := range s.Days {
			if d != today {
				continue
			}
			key := now.Format("2006-01-02 ") + hhmm
			if fired[key] {
				return decision{}
			}
			return decision{
				kind:    scheduledWatering,
				seconds: s.Duration,
				slotKey: key,
				reason:  fmt.Sprintf("horario %s", hhmm),
			}
		}
	}

	if cfg.ScheduledModeActive && cfg.UmbralMin != nil && humidity < float64(*cfg.UmbralMin) {
		secs := defaultSensorDuration
		if len(cfg.Schedules) > 0 && cfg.Schedules[0].Duration > 0 {
			secs = cfg.Schedules[0].Duration
		}
		return decision{
			kind:    sensorWatering,
			seconds: secs,
			reason:  fmt.Sprintf("humedad %.1f%% < %d%%", humidity, *cfg.UmbralMin),
		}
	}
	return decision{}
}

// drift dries the soil a little every tick and never leaves 0..100.
func drift(humidity, step float64) float64 {
	humidity -= step
	if humidity < 0 {
		return 0
	}
	if humidity > 100 {
		return 100
	}
	return humidity
}

// afterWatering raises humidity proportional to the run, capped at umbral_max.
func afterWatering(humidity float64, seconds int, cfg *deviceConfig) float64 {
	humidity += float64(seconds) * 3
	ceil := 100.0
	if cfg != nil && cfg.UmbralMax != nil {
		ceil = float64(*cfg.UmbralMax)
	}
	if humidity > ceil {
		humidity = ceil
	}
	return humidity
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Heartbeats = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "siar",
		Name:      "heartbeats_total",
		Help:      "Moisture readings accepted as device heartbeats.",
	})

	StateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siar",
		Name:      "state_transitions_total",
		Help:      "Device state changes by trigger and target state.",
	}, []string{"trigger", "to"})

	WeatherLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siar",
		Name:      "weather_lookups_total",
		Help:      "Weather lookups by outcome (ok, cached, failed).",
	}, []string{"result"})

	ConfigDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siar",
		Name:      "config_deliveries_total",
		Help:      "Configuration payloads served to devices.",
	}, []string{"raining"})

	// UnparsedDurations grows on every Total/Weekly read that meets a legacy
	// event without a duration, so it tracks reads, not distinct events.
	UnparsedDurations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "siar",
		Name:      "unparsed_watering_durations_total",
		Help:      "Watering events read without a recoverable duration, counted once per consumption read.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siar",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})
)

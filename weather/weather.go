package weather

import (
	"context"
	"errors"
	"strings"

	"siar-server/cache"
	"siar-server/logs"
	"siar-server/metrics"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable means no weather data could be obtained.
var ErrUnavailable = errors.New("weather unavailable")

// Condition is the rain classification of the current weather.
type Condition int

const (
	Unknown Condition = iota
	NotRaining
	Raining
)

func (c Condition) String() string {
	switch c {
	case Raining:
		return "raining"
	case NotRaining:
		return "not_raining"
	}
	return "unknown"
}

// IsRaining is false for Unknown: a failed lookup never suppresses watering.
func (c Condition) IsRaining() bool { return c == Raining }

// Report is the current weather at a location.
type Report struct {
	Temp          int    `json:"temp"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	MainCondition string `json:"main_condition"`
}

// Provider looks up the current weather for a city and ISO country code.
type Provider interface {
	Current(ctx context.Context, city, countryCode string) (*Report, error)
}

var precipitation = map[string]bool{
	"rain":         true,
	"drizzle":      true,
	"thunderstorm": true,
	"snow":         true,
}

// Classify maps a report to a Condition. A nil report is Unknown.
func Classify(r *Report) Condition {
	if r == nil {
		return Unknown
	}
	if precipitation[strings.ToLower(strings.TrimSpace(r.MainCondition))] {
		return Raining
	}
	return NotRaining
}

// Gate wraps a Provider with caching and fail-open classification.
type Gate struct {
	provider Provider
	cache    *cache.TTLCache[Report]
}

func NewGate(provider Provider, c *cache.TTLCache[Report]) *Gate {
	return &Gate{provider: provider, cache: c}
}

// CacheStats reports the lookup cache counters, nil without a cache.
func (g *Gate) CacheStats() map[string]interface{} {
	if g == nil || g.cache == nil {
		return nil
	}
	return g.cache.Stats()
}

// Purge drops expired cached reports.
func (g *Gate) Purge() int {
	if g == nil || g.cache == nil {
		return 0
	}
	return g.cache.Purge()
}

// Lookup never fails: on any error the report is nil and the condition Unknown.
func (g *Gate) Lookup(ctx context.Context, city, countryCode string) (*Report, Condition) {
	if g == nil || g.provider == nil || city == "" || countryCode == "" {
		return nil, Unknown
	}

	key := strings.ToLower(city) + "," + strings.ToUpper(countryCode)
	if g.cache != nil {
		if r, ok := g.cache.Get(key); ok {
			metrics.WeatherLookups.WithLabelValues("cached").Inc()
			return &r, Classify(&r)
		}
	}

	r, err := g.provider.Current(ctx, city, countryCode)
	if err != nil || r == nil {
		metrics.WeatherLookups.WithLabelValues("failed").Inc()
		logs.Logger.WithFields(logrus.Fields{"city": city, "country": countryCode}).
			Warnf("weather lookup failed, assuming no rain: %v", err)
		return nil, Unknown
	}

	metrics.WeatherLookups.WithLabelValues("ok").Inc()
	if g.cache != nil {
		g.cache.Set(key, *r)
	}
	return r, Classify(r)
}

package usecases

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"siar-server/entities"
	"siar-server/logs"
	"siar-server/metrics"
	"siar-server/repositories"

	"github.com/sirupsen/logrus"
)

var durationPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)s`)

var weekdayAbbrev = [...]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

// EventSeconds is the watering duration of e: the structured field when set,
// else the first "<number>s" in the description.
func EventSeconds(e entities.Event) (float64, bool) {
	if e.DurationSeconds != nil {
		return *e.DurationSeconds, true
	}
	m := durationPattern.FindStringSubmatch(e.Description)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Liters converts seconds of pumping to liters, rounded to one decimal.
func Liters(seconds, flowRate float64) float64 {
	return math.Round(seconds*flowRate*10) / 10
}

type Consumption struct {
	Events       int     `json:"eventos"`
	TotalSeconds float64 `json:"total_segundos"`
	TotalLiters  float64 `json:"total_litros"`
}

type DailyConsumption struct {
	Label  string  `json:"dia"`
	Date   string  `json:"fecha"`
	Liters float64 `json:"litros"`
}

type ConsumptionUseCase struct {
	store    repositories.Store
	flowRate float64
	loc      *time.Location
	now      func() time.Time
}

func NewConsumptionUseCase(store repositories.Store, flowRate float64, loc *time.Location) *ConsumptionUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &ConsumptionUseCase{store: store, flowRate: flowRate, loc: loc, now: time.Now}
}

func (uc *ConsumptionUseCase) Total(ctx context.Context, userID, deviceID string) (*Consumption, error) {
	if _, err := ownedDevice(ctx, uc.store, userID, deviceID); err != nil {
		return nil, err
	}
	events, err := uc.store.Events().ListWatering(ctx, deviceID, nil)
	if err != nil {
		return nil, fmt.Errorf("list watering events: %w", err)
	}

	out := &Consumption{Events: len(events)}
	for _, e := range events {
		out.TotalSeconds += uc.seconds(e)
	}
	out.TotalLiters = Liters(out.TotalSeconds, uc.flowRate)
	return out, nil
}

// Weekly returns seven calendar days ending today, oldest first.
func (uc *ConsumptionUseCase) Weekly(ctx context.Context, userID, deviceID string) ([]DailyConsumption, error) {
	if _, err := ownedDevice(ctx, uc.store, userID, deviceID); err != nil {
		return nil, err
	}

	y, m, d := uc.now().In(uc.loc).Date()
	start := time.Date(y, m, d-6, 0, 0, 0, 0, uc.loc)
	since := start.UTC()

	events, err := uc.store.Events().ListWatering(ctx, deviceID, &since)
	if err != nil {
		return nil, fmt.Errorf("list watering events: %w", err)
	}

	seconds := make([]float64, 7)
	for _, e := range events {
		ey, em, ed := e.Timestamp.In(uc.loc).Date()
		idx := int(time.Date(ey, em, ed, 0, 0, 0, 0, uc.loc).Sub(start).Hours() / 24)
		if idx < 0 || idx > 6 {
			continue
		}
		seconds[idx] += uc.seconds(e)
	}

	out := make([]DailyConsumption, 7)
	for i := range out {
		day := start.AddDate(0, 0, i)
		out[i] = DailyConsumption{
			Label:  fmt.Sprintf("%s %02d", weekdayAbbrev[day.Weekday()], day.Day()),
			Date:   day.Format("2006-01-02"),
			Liters: Liters(seconds[i], uc.flowRate),
		}
	}
	return out, nil
}

func (uc *ConsumptionUseCase) seconds(e entities.Event) float64 {
	s, ok := EventSeconds(e)
	if !ok {
		metrics.UnparsedDurations.Inc()
		logs.Logger.WithFields(logrus.Fields{"event_id": e.ID, "device_id": e.DeviceID}).
			Debug("watering event without a parseable duration, counted as 0")
	}
	return s
}

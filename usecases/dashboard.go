package usecases

import (
	"context"
	"errors"
	"time"

	"siar-server/entities"
	"siar-server/repositories"
	"siar-server/weather"
)

type WeatherView struct {
	Weather   *weather.Report `json:"weather"`
	IsRaining bool            `json:"is_raining"`
	Condition string          `json:"condition"`
}

type DeviceStatus struct {
	DeviceID      string               `json:"device_id"`
	Name          string               `json:"nombre_dispositivo"`
	Status        entities.DeviceState `json:"estado_actual"`
	LastHeartbeat *time.Time           `json:"last_heartbeat"`
	AutoMode      bool                 `json:"modo_automatico"`
	WeatherView
}

// DashboardUseCase assembles the polled status views.
type DashboardUseCase struct {
	store    repositories.Store
	liveness *LivenessUseCase
	weather  WeatherLookup
}

func NewDashboardUseCase(store repositories.Store, liveness *LivenessUseCase, w WeatherLookup) *DashboardUseCase {
	return &DashboardUseCase{store: store, liveness: liveness, weather: w}
}

func (uc *DashboardUseCase) Weather(ctx context.Context, userID string) WeatherView {
	report, cond := reportFor(ctx, uc.store, uc.weather, userID)
	return WeatherView{Weather: report, IsRaining: cond.IsRaining(), Condition: cond.String()}
}

// DeviceStatus evaluates the timeout before reporting.
func (uc *DashboardUseCase) DeviceStatus(ctx context.Context, userID, deviceID string) (*DeviceStatus, error) {
	d, err := uc.liveness.CurrentStatus(ctx, userID, deviceID)
	if err != nil {
		return nil, err
	}
	w := uc.Weather(ctx, userID)
	return uc.view(ctx, d, w)
}

// Overview is the status of every device of userID, oldest device first.
func (uc *DashboardUseCase) Overview(ctx context.Context, userID string) ([]DeviceStatus, error) {
	devices, err := uc.liveness.StatusByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]DeviceStatus, 0, len(devices))
	if len(devices) == 0 {
		return out, nil
	}
	w := uc.Weather(ctx, userID)
	for i := range devices {
		v, err := uc.view(ctx, &devices[i], w)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (uc *DashboardUseCase) view(ctx context.Context, d *entities.Device, w WeatherView) (*DeviceStatus, error) {
	autoMode := true
	cfg, err := uc.store.Configurations().GetByDeviceID(ctx, d.ID)
	switch {
	case err == nil:
		autoMode = cfg.AutoMode
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}

	return &DeviceStatus{
		DeviceID:      d.ID,
		Name:          d.Name,
		Status:        d.Status,
		LastHeartbeat: d.LastHeartbeat,
		AutoMode:      autoMode,
		WeatherView:   w,
	}, nil
}

package repositories

import (
	"context"
	"errors"

	"siar-server/db"
	"siar-server/entities"
)

type schedulePgRepository struct {
	db db.Database
}

func NewSchedulePgRepository(database db.Database) ScheduleRepository {
	return &schedulePgRepository{db: database}
}

func (r *schedulePgRepository) GetByDeviceID(ctx context.Context, deviceID string) (*entities.Schedule, error) {
	var schedule entities.Schedule
	err := r.db.GetDB().WithContext(ctx).
		Preload("Profile").
		Where("device_id = ?", deviceID).
		First(&schedule).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &schedule, nil
}

func (r *schedulePgRepository) Upsert(ctx context.Context, schedule *entities.Schedule) error {
	existing, err := r.GetByDeviceID(ctx, schedule.DeviceID)
	switch {
	case errors.Is(err, ErrNotFound):
		return r.db.GetDB().WithContext(ctx).Omit("Profile").Create(schedule).Error
	case err != nil:
		return err
	}

	schedule.ID = existing.ID
	schedule.CreatedAt = existing.CreatedAt
	return r.db.GetDB().WithContext(ctx).Omit("Profile").Save(schedule).Error
}

func (r *schedulePgRepository) ListActiveByDeviceID(ctx context.Context, deviceID string) ([]entities.Schedule, error) {
	var schedules []entities.Schedule
	err := r.db.GetDB().WithContext(ctx).
		Preload("Profile").
		Where("device_id = ? AND active = ?", deviceID, true).
		Order("time_of_day ASC").
		Find(&schedules).Error
	return schedules, err
}

package repositories

import (
	"context"
	"time"

	"siar-server/db"
	"siar-server/entities"
)

type eventPgRepository struct {
	db db.Database
}

func NewEventPgRepository(database db.Database) EventRepository {
	return &eventPgRepository{db: database}
}

func (r *eventPgRepository) Append(ctx context.Context, event *entities.Event) error {
	return r.db.GetDB().WithContext(ctx).Create(event).Error
}

func (r *eventPgRepository) ListByDeviceID(ctx context.Context, deviceID string, limit int) ([]entities.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	var events []entities.Event
	err := r.db.GetDB().WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *eventPgRepository) ListWatering(ctx context.Context, deviceID string, since *time.Time) ([]entities.Event, error) {
	q := r.db.GetDB().WithContext(ctx).
		Where("device_id = ? AND type LIKE ?", deviceID, entities.WateringEventPrefix+"%")
	if since != nil {
		q = q.Where("timestamp >= ?", *since)
	}
	var events []entities.Event
	err := q.Order("timestamp ASC").Find(&events).Error
	return events, err
}

package repositories

import (
	"context"

	"siar-server/db"
	"siar-server/entities"
)

type readingPgRepository struct {
	db db.Database
}

func NewReadingPgRepository(database db.Database) ReadingRepository {
	return &readingPgRepository{db: database}
}

func (r *readingPgRepository) Create(ctx context.Context, reading *entities.MoistureReading) error {
	return r.db.GetDB().WithContext(ctx).Create(reading).Error
}

func (r *readingPgRepository) LatestByDeviceID(ctx context.Context, deviceID string) (*entities.MoistureReading, error) {
	var reading entities.MoistureReading
	err := r.db.GetDB().WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("timestamp DESC").
		First(&reading).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &reading, nil
}

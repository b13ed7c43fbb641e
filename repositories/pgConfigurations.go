package repositories

import (
	"context"

	"siar-server/db"
	"siar-server/entities"
)

type configurationPgRepository struct {
	db db.Database
}

func NewConfigurationPgRepository(database db.Database) ConfigurationRepository {
	return &configurationPgRepository{db: database}
}

func (r *configurationPgRepository) GetByDeviceID(ctx context.Context, deviceID string) (*entities.Configuration, error) {
	var cfg entities.Configuration
	err := r.db.GetDB().WithContext(ctx).
		Preload("ActiveProfile").
		Where("device_id = ?", deviceID).
		First(&cfg).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &cfg, nil
}

func (r *configurationPgRepository) Save(ctx context.Context, cfg *entities.Configuration) error {
	// Omit associations so the profile row is never rewritten from here.
	return r.db.GetDB().WithContext(ctx).Omit("ActiveProfile").Save(cfg).Error
}

package repositories

import (
	"context"

	"siar-server/db"
	"siar-server/entities"

	"gorm.io/gorm/clause"
)

type devicePgRepository struct {
	db db.Database
}

func NewDevicePgRepository(database db.Database) DeviceRepository {
	return &devicePgRepository{db: database}
}

func (r *devicePgRepository) Create(ctx context.Context, device *entities.Device) error {
	return r.db.GetDB().WithContext(ctx).Create(device).Error
}

func (r *devicePgRepository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	var device entities.Device
	if err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&device).Error; err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

func (r *devicePgRepository) GetByAPIKey(ctx context.Context, key string) (*entities.Device, error) {
	var device entities.Device
	if err := r.db.GetDB().WithContext(ctx).Where("api_key = ?", key).First(&device).Error; err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

func (r *devicePgRepository) GetByUserID(ctx context.Context, userID string) ([]entities.Device, error) {
	var devices []entities.Device
	err := r.db.GetDB().WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&devices).Error
	return devices, err
}

func (r *devicePgRepository) GetAll(ctx context.Context) ([]entities.Device, error) {
	var devices []entities.Device
	err := r.db.GetDB().WithContext(ctx).Order("created_at ASC").Find(&devices).Error
	return devices, err
}

func (r *devicePgRepository) Lock(ctx context.Context, id string) (*entities.Device, error) {
	var device entities.Device
	err := r.db.GetDB().WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&device).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

func (r *devicePgRepository) UpdateLiveness(ctx context.Context, device *entities.Device) error {
	return r.db.GetDB().WithContext(ctx).Model(&entities.Device{}).
		Where("id = ?", device.ID).
		Updates(map[string]interface{}{
			"status":         device.Status,
			"last_heartbeat": device.LastHeartbeat,
		}).Error
}

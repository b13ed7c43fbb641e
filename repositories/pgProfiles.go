package repositories

import (
	"context"

	"siar-server/db"
	"siar-server/entities"
)

type profilePgRepository struct {
	db db.Database
}

func NewProfilePgRepository(database db.Database) ProfileRepository {
	return &profilePgRepository{db: database}
}

func (r *profilePgRepository) Create(ctx context.Context, profile *entities.Profile) error {
	return r.db.GetDB().WithContext(ctx).Create(profile).Error
}

func (r *profilePgRepository) GetByID(ctx context.Context, id string) (*entities.Profile, error) {
	var profile entities.Profile
	if err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (r *profilePgRepository) GetByUserID(ctx context.Context, userID string) ([]entities.Profile, error) {
	var profiles []entities.Profile
	err := r.db.GetDB().WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&profiles).Error
	return profiles, err
}

func (r *profilePgRepository) Update(ctx context.Context, profile *entities.Profile) error {
	return r.db.GetDB().WithContext(ctx).Save(profile).Error
}

func (r *profilePgRepository) Delete(ctx context.Context, id string) error {
	return r.db.GetDB().WithContext(ctx).Where("id = ?", id).Delete(&entities.Profile{}).Error
}

func (r *profilePgRepository) InUse(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.GetDB().WithContext(ctx).Model(&entities.Configuration{}).
		Where("active_profile_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := r.db.GetDB().WithContext(ctx).Model(&entities.Schedule{}).
		Where("profile_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

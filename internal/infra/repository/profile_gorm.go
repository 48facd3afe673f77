package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	domainrepo "storefront/internal/repository"

	"gorm.io/gorm"
)

type profileGormRepository struct {
	db *gorm.DB
}

// DI
func NewProfileGormRepository(db *gorm.DB) domainrepo.ProfileRepository {
	return &profileGormRepository{db: db}
}

func (r *profileGormRepository) Create(ctx context.Context, profile model.Profile) error {
	return r.db.WithContext(ctx).Create(&profile).Error
}

func (r *profileGormRepository) FindByUserID(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile

	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&p).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Profile{}, domainrepo.ErrNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func (r *profileGormRepository) Update(ctx context.Context, profile model.Profile) error {
	result := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ?", profile.ID).
		Select("first_name", "last_name", "phone").
		Updates(profile)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

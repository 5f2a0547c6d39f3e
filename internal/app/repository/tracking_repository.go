package repository

import (
	"context"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"gorm.io/gorm"
)

// TrackingRepository defines the data access contract for tracking param sets.
type TrackingRepository interface {
	Create(ctx context.Context, set *model.TrackingParamSet) error
	Update(ctx context.Context, set *model.TrackingParamSet) error
	GetCurrent(ctx context.Context, platformID uint) (*model.TrackingParamSet, error)
	GetForPlatform(ctx context.Context, platformID uint, ownerID string) (*model.TrackingParamSet, error)
	GetOwned(ctx context.Context, id uint, ownerID string) (*model.TrackingParamSet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.TrackingParamSet, error)
	Delete(ctx context.Context, id uint, ownerID string) error
}

type trackingRepository struct {
	db *gorm.DB
}

// NewTrackingRepository returns a GORM-backed TrackingRepository.
func NewTrackingRepository(db *gorm.DB) TrackingRepository {
	return &trackingRepository{db: db}
}

func (r *trackingRepository) Create(ctx context.Context, set *model.TrackingParamSet) error {
	return translate(r.db.WithContext(ctx).Create(set).Error, nil)
}

func (r *trackingRepository) Update(ctx context.Context, set *model.TrackingParamSet) error {
	result := r.db.WithContext(ctx).
		Model(set).
		Select("params", "is_active").
		Updates(set)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTrackingSetNotFound
	}
	return nil
}

// GetCurrent returns the most recently created active set of a platform.
func (r *trackingRepository) GetCurrent(ctx context.Context, platformID uint) (*model.TrackingParamSet, error) {
	var set model.TrackingParamSet
	err := r.db.WithContext(ctx).
		Where("platform_id = ? AND is_active = ?", platformID, true).
		Order("created_at DESC").
		Order("id DESC").
		First(&set).Error
	if err != nil {
		return nil, translate(err, ErrTrackingSetNotFound)
	}
	return &set, nil
}

func (r *trackingRepository) GetForPlatform(ctx context.Context, platformID uint, ownerID string) (*model.TrackingParamSet, error) {
	var set model.TrackingParamSet
	err := r.db.WithContext(ctx).
		Where("platform_id = ? AND owner_id = ?", platformID, ownerID).
		Order("id ASC").
		First(&set).Error
	if err != nil {
		return nil, translate(err, ErrTrackingSetNotFound)
	}
	return &set, nil
}

func (r *trackingRepository) GetOwned(ctx context.Context, id uint, ownerID string) (*model.TrackingParamSet, error) {
	var set model.TrackingParamSet
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&set).Error
	if err != nil {
		return nil, translate(err, ErrTrackingSetNotFound)
	}
	return &set, nil
}

func (r *trackingRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.TrackingParamSet, error) {
	var result []model.TrackingParamSet
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *trackingRepository) Delete(ctx context.Context, id uint, ownerID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.TrackingParamSet{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTrackingSetNotFound
	}
	return nil
}

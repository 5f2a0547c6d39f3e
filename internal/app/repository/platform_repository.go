package repository

import (
	"context"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"gorm.io/gorm"
)

// PlatformRepository defines the data access contract for platforms.
type PlatformRepository interface {
	Create(ctx context.Context, platform *model.Platform) error
	GetOwned(ctx context.Context, id uint, ownerID string) (*model.Platform, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Platform, error)
	SlugExists(ctx context.Context, ownerID, slug string) (bool, error)
	Update(ctx context.Context, platform *model.Platform) error
	Delete(ctx context.Context, id uint, ownerID string) error
}

type platformRepository struct {
	db *gorm.DB
}

// NewPlatformRepository returns a GORM-backed PlatformRepository.
func NewPlatformRepository(db *gorm.DB) PlatformRepository {
	return &platformRepository{db: db}
}

func (r *platformRepository) Create(ctx context.Context, platform *model.Platform) error {
	return translate(r.db.WithContext(ctx).Create(platform).Error, nil)
}

func (r *platformRepository) GetOwned(ctx context.Context, id uint, ownerID string) (*model.Platform, error) {
	var platform model.Platform
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&platform).Error
	if err != nil {
		return nil, translate(err, ErrPlatformNotFound)
	}
	return &platform, nil
}

func (r *platformRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Platform, error) {
	var result []model.Platform
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *platformRepository) SlugExists(ctx context.Context, ownerID, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Platform{}).
		Where("owner_id = ? AND slug = ?", ownerID, slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *platformRepository) Update(ctx context.Context, platform *model.Platform) error {
	result := r.db.WithContext(ctx).
		Model(&model.Platform{}).
		Where("id = ? AND owner_id = ?", platform.ID, platform.OwnerID).
		Updates(map[string]interface{}{"name": platform.Name})
	if result.Error != nil {
		return translate(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return ErrPlatformNotFound
	}
	return nil
}

// Delete removes the platform together with its tracking sets and
// personalized tags.
func (r *platformRepository) Delete(ctx context.Context, id uint, ownerID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Platform{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPlatformNotFound
		}
		if err := tx.Where("platform_id = ?", id).Delete(&model.TrackingParamSet{}).Error; err != nil {
			return err
		}
		return tx.Where("platform_id = ?", id).Delete(&model.PersonalizedTag{}).Error
	})
}

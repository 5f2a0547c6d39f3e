package repository

import (
	"context"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"gorm.io/gorm"
)

// TagRepository defines the data access contract for personalized tags.
type TagRepository interface {
	Create(ctx context.Context, tag *model.PersonalizedTag) error
	Update(ctx context.Context, tag *model.PersonalizedTag) error
	Exists(ctx context.Context, userID string, platformID uint) (bool, error)
	GetActive(ctx context.Context, userID string, platformID uint) (*model.PersonalizedTag, error)
	GetOwned(ctx context.Context, id uint, userID string) (*model.PersonalizedTag, error)
	ListByUser(ctx context.Context, userID string) ([]model.PersonalizedTag, error)
	Delete(ctx context.Context, id uint, userID string) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a GORM-backed TagRepository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *model.PersonalizedTag) error {
	return translate(r.db.WithContext(ctx).Create(tag).Error, nil)
}

func (r *tagRepository) Update(ctx context.Context, tag *model.PersonalizedTag) error {
	result := r.db.WithContext(ctx).
		Model(&model.PersonalizedTag{}).
		Where("id = ? AND user_id = ?", tag.ID, tag.UserID).
		Updates(map[string]interface{}{
			"first_name_tag": tag.FirstNameTag,
			"last_name_tag":  tag.LastNameTag,
			"date_tag":       tag.DateTag,
			"email_tag":      tag.EmailTag,
			"footer1":        tag.Footer1,
			"footer2":        tag.Footer2,
			"is_active":      tag.IsActive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}

func (r *tagRepository) Exists(ctx context.Context, userID string, platformID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.PersonalizedTag{}).
		Where("user_id = ? AND platform_id = ?", userID, platformID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *tagRepository) GetActive(ctx context.Context, userID string, platformID uint) (*model.PersonalizedTag, error) {
	var tag model.PersonalizedTag
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND platform_id = ? AND is_active = ?", userID, platformID, true).
		First(&tag).Error
	if err != nil {
		return nil, translate(err, ErrTagNotFound)
	}
	return &tag, nil
}

func (r *tagRepository) GetOwned(ctx context.Context, id uint, userID string) (*model.PersonalizedTag, error) {
	var tag model.PersonalizedTag
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&tag).Error
	if err != nil {
		return nil, translate(err, ErrTagNotFound)
	}
	return &tag, nil
}

func (r *tagRepository) ListByUser(ctx context.Context, userID string) ([]model.PersonalizedTag, error) {
	var result []model.PersonalizedTag
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("platform_id ASC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *tagRepository) Delete(ctx context.Context, id uint, userID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.PersonalizedTag{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}

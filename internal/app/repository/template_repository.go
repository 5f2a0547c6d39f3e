package repository

import (
	"context"
	"strings"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"gorm.io/gorm"
)

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	OwnerID  string
	Query    string
	IsPublic *bool
	Limit    int
	Offset   int
}

// TemplateRepository defines the data access contract for email templates.
type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.EmailTemplate) error
	GetByID(ctx context.Context, id uint) (*model.EmailTemplate, error)
	GetByCode(ctx context.Context, code string) (*model.EmailTemplate, error)
	List(ctx context.Context, filter TemplateFilter) ([]model.EmailTemplate, int64, error)
	Update(ctx context.Context, tpl *model.EmailTemplate) error
	UpdatePreview(ctx context.Context, id uint, path string) error
	SetVisibility(ctx context.Context, ids []uint, public bool) (int64, error)
	Delete(ctx context.Context, id uint, ownerID string) error
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository returns a GORM-backed TemplateRepository.
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, tpl *model.EmailTemplate) error {
	return translate(r.db.WithContext(ctx).Create(tpl).Error, nil)
}

func (r *templateRepository) GetByID(ctx context.Context, id uint) (*model.EmailTemplate, error) {
	var tpl model.EmailTemplate
	if err := r.db.WithContext(ctx).First(&tpl, id).Error; err != nil {
		return nil, translate(err, ErrTemplateNotFound)
	}
	return &tpl, nil
}

func (r *templateRepository) GetByCode(ctx context.Context, code string) (*model.EmailTemplate, error) {
	var tpl model.EmailTemplate
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&tpl).Error
	if err != nil {
		return nil, translate(err, ErrTemplateNotFound)
	}
	return &tpl, nil
}

func (r *templateRepository) List(ctx context.Context, filter TemplateFilter) ([]model.EmailTemplate, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.EmailTemplate{})
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.IsPublic != nil {
		q = q.Where("is_public = ?", *filter.IsPublic)
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		like := "%" + term + "%"
		q = q.Where("title ILIKE ? OR subject ILIKE ? OR from_name ILIKE ? OR code ILIKE ?", like, like, like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var result []model.EmailTemplate
	if err := q.Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// Update writes the editable fields. The code is never part of an update.
func (r *templateRepository) Update(ctx context.Context, tpl *model.EmailTemplate) error {
	result := r.db.WithContext(ctx).
		Model(&model.EmailTemplate{}).
		Where("id = ? AND owner_id = ?", tpl.ID, tpl.OwnerID).
		Updates(map[string]interface{}{
			"title":     tpl.Title,
			"subject":   tpl.Subject,
			"from_name": tpl.FromName,
			"body_html": tpl.BodyHTML,
			"body_text": tpl.BodyText,
			"is_public": tpl.IsPublic,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return r.db.WithContext(ctx).First(tpl, tpl.ID).Error
}

func (r *templateRepository) UpdatePreview(ctx context.Context, id uint, path string) error {
	return r.db.WithContext(ctx).
		Model(&model.EmailTemplate{}).
		Where("id = ?", id).
		UpdateColumn("preview_path", path).Error
}

func (r *templateRepository) SetVisibility(ctx context.Context, ids []uint, public bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.EmailTemplate{}).
		Where("id IN ?", ids).
		Update("is_public", public)
	return result.RowsAffected, result.Error
}

func (r *templateRepository) Delete(ctx context.Context, id uint, ownerID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.EmailTemplate{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/danger-5344/templa-socialV2/internal/app/repository"
)

// TagService manages personalized merge tags, one per (user, platform).
type TagService interface {
	CreateTag(ctx context.Context, input TagInput) (*model.PersonalizedTag, error)
	UpdateTag(ctx context.Context, id uint, input TagInput) (*model.PersonalizedTag, error)
	ListTags(ctx context.Context, userID string) ([]model.PersonalizedTag, error)
	DeleteTag(ctx context.Context, id uint, userID string) error
}

// TagInput captures the editable fields of a personalized tag.
type TagInput struct {
	UserID       string
	PlatformID   uint
	FirstNameTag string
	LastNameTag  string
	DateTag      string
	EmailTag     string
	Footer1      string
	Footer2      string
	IsActive     bool
}

type tagService struct {
	tags      repository.TagRepository
	platforms repository.PlatformRepository
}

func NewTagService(tags repository.TagRepository, platforms repository.PlatformRepository) TagService {
	return &tagService{tags: tags, platforms: platforms}
}

func (s *tagService) CreateTag(ctx context.Context, input TagInput) (*model.PersonalizedTag, error) {
	if _, err := s.platforms.GetOwned(ctx, input.PlatformID, input.UserID); err != nil {
		return nil, fmt.Errorf("load platform: %w", err)
	}

	exists, err := s.tags.Exists(ctx, input.UserID, input.PlatformID)
	if err != nil {
		return nil, fmt.Errorf("check tag: %w", err)
	}
	if exists {
		return nil, conflictError("a personalized tag already exists for this platform")
	}

	tag := &model.PersonalizedTag{UserID: input.UserID, PlatformID: input.PlatformID}
	applyTagInput(tag, input)
	if err := s.tags.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("a personalized tag already exists for this platform")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

func (s *tagService) UpdateTag(ctx context.Context, id uint, input TagInput) (*model.PersonalizedTag, error) {
	tag, err := s.tags.GetOwned(ctx, id, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("load tag: %w", err)
	}
	applyTagInput(tag, input)
	if err := s.tags.Update(ctx, tag); err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return tag, nil
}

func (s *tagService) ListTags(ctx context.Context, userID string) ([]model.PersonalizedTag, error) {
	tags, err := s.tags.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *tagService) DeleteTag(ctx context.Context, id uint, userID string) error {
	if err := s.tags.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

func applyTagInput(tag *model.PersonalizedTag, input TagInput) {
	tag.FirstNameTag = input.FirstNameTag
	tag.LastNameTag = input.LastNameTag
	tag.DateTag = input.DateTag
	tag.EmailTag = input.EmailTag
	tag.Footer1 = input.Footer1
	tag.Footer2 = input.Footer2
	tag.IsActive = input.IsActive
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/danger-5344/templa-socialV2/internal/app/repository"
	"github.com/gosimple/slug"
)

const maxSlugAttempts = 1000

// PlatformService manages a user's platforms and their tracking parameters.
type PlatformService interface {
	CreatePlatform(ctx context.Context, ownerID, name string) (*model.Platform, error)
	ListPlatforms(ctx context.Context, ownerID string) ([]model.Platform, error)
	RenamePlatform(ctx context.Context, id uint, ownerID, name string) (*model.Platform, error)
	// DeletePlatform also removes the platform's tracking sets and tags.
	DeletePlatform(ctx context.Context, id uint, ownerID string) error

	SaveTrackingParams(ctx context.Context, input SaveTrackingInput) (*model.TrackingParamSet, error)
	ListTrackingParams(ctx context.Context, ownerID string) ([]model.TrackingParamSet, error)
	GetTrackingParams(ctx context.Context, id uint, ownerID string) (*model.TrackingParamSet, error)
	DeleteTrackingParams(ctx context.Context, id uint, ownerID string) error
}

// SaveTrackingInput carries the raw JSON object of query parameters for a platform.
type SaveTrackingInput struct {
	OwnerID    string
	PlatformID uint
	RawParams  string
	IsActive   *bool
}

type platformService struct {
	platforms repository.PlatformRepository
	tracking  repository.TrackingRepository
}

// NewPlatformService returns a PlatformService backed by the given repositories.
func NewPlatformService(platforms repository.PlatformRepository, tracking repository.TrackingRepository) PlatformService {
	return &platformService{platforms: platforms, tracking: tracking}
}

func (s *platformService) CreatePlatform(ctx context.Context, ownerID, name string) (*model.Platform, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("platform name is required")
	}

	base := slug.Make(name)
	if base == "" {
		base = "platform"
	}
	candidate, err := s.uniqueSlug(ctx, ownerID, base)
	if err != nil {
		return nil, fmt.Errorf("derive slug: %w", err)
	}

	platform := &model.Platform{OwnerID: ownerID, Name: name, Slug: candidate}
	if err := s.platforms.Create(ctx, platform); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("platform %q already exists", name)
		}
		return nil, fmt.Errorf("create platform: %w", err)
	}
	return platform, nil
}

// uniqueSlug appends -1, -2, ... to base until it is free for the owner.
func (s *platformService) uniqueSlug(ctx context.Context, ownerID, base string) (string, error) {
	candidate := base
	for i := 1; i <= maxSlugAttempts; i++ {
		taken, err := s.platforms.SlugExists(ctx, ownerID, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", conflictError("no free slug for %q", base)
}

func (s *platformService) ListPlatforms(ctx context.Context, ownerID string) ([]model.Platform, error) {
	platforms, err := s.platforms.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	return platforms, nil
}

func (s *platformService) RenamePlatform(ctx context.Context, id uint, ownerID, name string) (*model.Platform, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("platform name is required")
	}

	platform, err := s.platforms.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load platform: %w", err)
	}
	platform.Name = name
	if err := s.platforms.Update(ctx, platform); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("platform %q already exists", name)
		}
		return nil, fmt.Errorf("update platform: %w", err)
	}
	return platform, nil
}

func (s *platformService) DeletePlatform(ctx context.Context, id uint, ownerID string) error {
	if err := s.platforms.Delete(ctx, id, ownerID); err != nil {
		return fmt.Errorf("delete platform: %w", err)
	}
	return nil
}

// SaveTrackingParams keeps one set per (platform, owner): the existing set is
// overwritten, otherwise a new one is created.
func (s *platformService) SaveTrackingParams(ctx context.Context, input SaveTrackingInput) (*model.TrackingParamSet, error) {
	params, err := model.ParseQueryParams(input.RawParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.platforms.GetOwned(ctx, input.PlatformID, input.OwnerID); err != nil {
		return nil, fmt.Errorf("load platform: %w", err)
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	set, err := s.tracking.GetForPlatform(ctx, input.PlatformID, input.OwnerID)
	switch {
	case errors.Is(err, repository.ErrTrackingSetNotFound):
		set = &model.TrackingParamSet{
			PlatformID: input.PlatformID,
			OwnerID:    input.OwnerID,
			Params:     params,
			IsActive:   active,
		}
		if err := s.tracking.Create(ctx, set); err != nil {
			return nil, fmt.Errorf("create tracking params: %w", err)
		}
		return set, nil
	case err != nil:
		return nil, fmt.Errorf("load tracking params: %w", err)
	}

	set.Params = params
	set.IsActive = active
	if err := s.tracking.Update(ctx, set); err != nil {
		return nil, fmt.Errorf("update tracking params: %w", err)
	}
	return set, nil
}

func (s *platformService) ListTrackingParams(ctx context.Context, ownerID string) ([]model.TrackingParamSet, error) {
	sets, err := s.tracking.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tracking params: %w", err)
	}
	return sets, nil
}

func (s *platformService) GetTrackingParams(ctx context.Context, id uint, ownerID string) (*model.TrackingParamSet, error) {
	set, err := s.tracking.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get tracking params: %w", err)
	}
	return set, nil
}

func (s *platformService) DeleteTrackingParams(ctx context.Context, id uint, ownerID string) error {
	if err := s.tracking.Delete(ctx, id, ownerID); err != nil {
		return fmt.Errorf("delete tracking params: %w", err)
	}
	return nil
}

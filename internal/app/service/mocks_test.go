package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/danger-5344/templa-socialV2/internal/app/repository"
)

type mockPlatformRepository struct {
	createFn     func(ctx context.Context, platform *model.Platform) error
	getOwnedFn   func(ctx context.Context, id uint, ownerID string) (*model.Platform, error)
	slugExistsFn func(ctx context.Context, ownerID, slug string) (bool, error)
	updateFn     func(ctx context.Context, platform *model.Platform) error
	deleteFn     func(ctx context.Context, id uint, ownerID string) error
}

func (m *mockPlatformRepository) Create(ctx context.Context, platform *model.Platform) error {
	if m.createFn != nil {
		return m.createFn(ctx, platform)
	}
	return nil
}

func (m *mockPlatformRepository) GetOwned(ctx context.Context, id uint, ownerID string) (*model.Platform, error) {
	if m.getOwnedFn != nil {
		return m.getOwnedFn(ctx, id, ownerID)
	}
	return nil, repository.ErrPlatformNotFound
}

func (m *mockPlatformRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Platform, error) {
	return nil, nil
}

func (m *mockPlatformRepository) SlugExists(ctx context.Context, ownerID, slug string) (bool, error) {
	if m.slugExistsFn != nil {
		return m.slugExistsFn(ctx, ownerID, slug)
	}
	return false, nil
}

func (m *mockPlatformRepository) Update(ctx context.Context, platform *model.Platform) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, platform)
	}
	return nil
}

func (m *mockPlatformRepository) Delete(ctx context.Context, id uint, ownerID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, ownerID)
	}
	return nil
}

type mockTrackingRepository struct {
	createFn         func(ctx context.Context, set *model.TrackingParamSet) error
	updateFn         func(ctx context.Context, set *model.TrackingParamSet) error
	getCurrentFn     func(ctx context.Context, platformID uint) (*model.TrackingParamSet, error)
	getForPlatformFn func(ctx context.Context, platformID uint, ownerID string) (*model.TrackingParamSet, error)
}

func (m *mockTrackingRepository) Create(ctx context.Context, set *model.TrackingParamSet) error {
	if m.createFn != nil {
		return m.createFn(ctx, set)
	}
	return nil
}

func (m *mockTrackingRepository) Update(ctx context.Context, set *model.TrackingParamSet) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, set)
	}
	return nil
}

func (m *mockTrackingRepository) GetCurrent(ctx context.Context, platformID uint) (*model.TrackingParamSet, error) {
	if m.getCurrentFn != nil {
		return m.getCurrentFn(ctx, platformID)
	}
	return nil, repository.ErrTrackingSetNotFound
}

func (m *mockTrackingRepository) GetForPlatform(ctx context.Context, platformID uint, ownerID string) (*model.TrackingParamSet, error) {
	if m.getForPlatformFn != nil {
		return m.getForPlatformFn(ctx, platformID, ownerID)
	}
	return nil, repository.ErrTrackingSetNotFound
}

func (m *mockTrackingRepository) GetOwned(ctx context.Context, id uint, ownerID string) (*model.TrackingParamSet, error) {
	return nil, repository.ErrTrackingSetNotFound
}

func (m *mockTrackingRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.TrackingParamSet, error) {
	return nil, nil
}

func (m *mockTrackingRepository) Delete(ctx context.Context, id uint, ownerID string) error {
	return nil
}

type mockTagRepository struct {
	createFn    func(ctx context.Context, tag *model.PersonalizedTag) error
	existsFn    func(ctx context.Context, userID string, platformID uint) (bool, error)
	getActiveFn func(ctx context.Context, userID string, platformID uint) (*model.PersonalizedTag, error)
}

func (m *mockTagRepository) Create(ctx context.Context, tag *model.PersonalizedTag) error {
	if m.createFn != nil {
		return m.createFn(ctx, tag)
	}
	return nil
}

func (m *mockTagRepository) Update(ctx context.Context, tag *model.PersonalizedTag) error {
	return nil
}

func (m *mockTagRepository) Exists(ctx context.Context, userID string, platformID uint) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, userID, platformID)
	}
	return false, nil
}

func (m *mockTagRepository) GetActive(ctx context.Context, userID string, platformID uint) (*model.PersonalizedTag, error) {
	if m.getActiveFn != nil {
		return m.getActiveFn(ctx, userID, platformID)
	}
	return nil, repository.ErrTagNotFound
}

func (m *mockTagRepository) GetOwned(ctx context.Context, id uint, userID string) (*model.PersonalizedTag, error) {
	return nil, repository.ErrTagNotFound
}

func (m *mockTagRepository) ListByUser(ctx context.Context, userID string) ([]model.PersonalizedTag, error) {
	return nil, nil
}

func (m *mockTagRepository) Delete(ctx context.Context, id uint, userID string) error {
	return nil
}

type mockTemplateRepository struct {
	createFn        func(ctx context.Context, tpl *model.EmailTemplate) error
	getByIDFn       func(ctx context.Context, id uint) (*model.EmailTemplate, error)
	getByCodeFn     func(ctx context.Context, code string) (*model.EmailTemplate, error)
	listFn          func(ctx context.Context, filter repository.TemplateFilter) ([]model.EmailTemplate, int64, error)
	updateFn        func(ctx context.Context, tpl *model.EmailTemplate) error
	updatePreviewFn func(ctx context.Context, id uint, path string) error
	setVisibilityFn func(ctx context.Context, ids []uint, public bool) (int64, error)
}

func (m *mockTemplateRepository) Create(ctx context.Context, tpl *model.EmailTemplate) error {
	if m.createFn != nil {
		return m.createFn(ctx, tpl)
	}
	return nil
}

func (m *mockTemplateRepository) GetByID(ctx context.Context, id uint) (*model.EmailTemplate, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrTemplateNotFound
}

func (m *mockTemplateRepository) GetByCode(ctx context.Context, code string) (*model.EmailTemplate, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, repository.ErrTemplateNotFound
}

func (m *mockTemplateRepository) List(ctx context.Context, filter repository.TemplateFilter) ([]model.EmailTemplate, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockTemplateRepository) Update(ctx context.Context, tpl *model.EmailTemplate) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, tpl)
	}
	return nil
}

func (m *mockTemplateRepository) UpdatePreview(ctx context.Context, id uint, path string) error {
	if m.updatePreviewFn != nil {
		return m.updatePreviewFn(ctx, id, path)
	}
	return nil
}

func (m *mockTemplateRepository) SetVisibility(ctx context.Context, ids []uint, public bool) (int64, error) {
	if m.setVisibilityFn != nil {
		return m.setVisibilityFn(ctx, ids, public)
	}
	return int64(len(ids)), nil
}

func (m *mockTemplateRepository) Delete(ctx context.Context, id uint, ownerID string) error {
	return nil
}

// memUsage counts uses in memory like the single-statement upsert does.
type memUsage struct {
	mu     sync.Mutex
	counts map[string]int64
	used   []uint
}

func (m *memUsage) Record(ctx context.Context, userID string, templateID uint, at time.Time) (*model.TemplateUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int64)
	}
	key := fmt.Sprintf("%s/%d", userID, templateID)
	m.counts[key]++
	return &model.TemplateUsage{UserID: userID, TemplateID: templateID, UsedCount: m.counts[key], LastUsedAt: at}, nil
}

func (m *memUsage) UsedTemplateIDs(ctx context.Context, userID string, templateIDs []uint) ([]uint, error) {
	return m.used, nil
}

type mockLinkFinder struct {
	getFn func(ctx context.Context, id uint) (*model.OfferLink, error)
}

func (m *mockLinkFinder) GetActiveLink(ctx context.Context, id uint) (*model.OfferLink, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, repository.ErrOfferLinkNotFound
}

type recordingPublisher struct {
	events []model.TemplateUsedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event model.TemplateUsedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type hookFunc func(ctx context.Context, tpl *model.EmailTemplate, change TemplateChange) error

func (f hookFunc) AfterTemplateSaved(ctx context.Context, tpl *model.EmailTemplate, change TemplateChange) error {
	return f(ctx, tpl, change)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/danger-5344/templa-socialV2/internal/app/personalize"
	"github.com/danger-5344/templa-socialV2/internal/app/repository"
	metrics "github.com/danger-5344/templa-socialV2/internal/infra/prometheus"
	nanoid "github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
)

const (
	PublicPageSize = 9
	OwnedPageSize  = 5

	codeAlphabet     = "0123456789ABCDEF"
	maxCodeAttempts  = 5
	defaultPopularN  = 10
	maxPopularResult = 50
)

// Identity is the caller of a service operation.
type Identity struct {
	UserID string
	Staff  bool
}

// TemplateChange describes a successful template write.
type TemplateChange struct {
	Created     bool
	BodyChanged bool
}

// TemplateHook runs after a template write has been committed. Errors are
// logged and never undo the write.
type TemplateHook interface {
	AfterTemplateSaved(ctx context.Context, tpl *model.EmailTemplate, change TemplateChange) error
}

// UsagePublisher emits usage events for asynchronous consumers.
type UsagePublisher interface {
	Publish(ctx context.Context, event model.TemplateUsedEvent) error
}

// ActiveLinkFinder loads an active offer link with its offer and network.
type ActiveLinkFinder interface {
	GetActiveLink(ctx context.Context, id uint) (*model.OfferLink, error)
}

// TemplateInput captures the editable fields of a template.
type TemplateInput struct {
	Title    string
	Subject  string
	FromName string
	BodyHTML string
	BodyText string
	IsPublic bool
}

// ListTemplatesInput filters template listings. Status is "public",
// "private" or empty for both; it only applies to owned listings.
type ListTemplatesInput struct {
	Query  string
	Status string
	Page   int
}

// TemplatePage is one page of templates.
type TemplatePage struct {
	Items    []model.EmailTemplate `json:"items"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	// UsedIDs lists the templates of this page the caller already used.
	UsedIDs []uint `json:"used_ids"`
}

// TemplateDetail is a template together with the placeholders it contains.
type TemplateDetail struct {
	Template     *model.EmailTemplate `json:"template"`
	Placeholders []string             `json:"placeholders"`
}

// UseTemplateInput selects what a template is personalized with.
type UseTemplateInput struct {
	TemplateID  uint
	PlatformID  *uint
	OfferLinkID *uint
	FallbackURL string
}

// UseTemplateResult is the personalized output plus the updated counter.
type UseTemplateResult struct {
	TemplateID    uint              `json:"template_id"`
	TemplateCode  string            `json:"template_code"`
	HTML          string            `json:"html"`
	Text          string            `json:"text"`
	CTAURL        string            `json:"cta_url"`
	AppliedParams model.QueryParams `json:"applied_params"`
	UsedCount     int64             `json:"used_count"`
	LastUsedAt    time.Time         `json:"last_used_at"`
}

// PopularTemplate pairs a template with its usage score.
type PopularTemplate struct {
	Template model.EmailTemplate `json:"template"`
	Uses     int64               `json:"uses"`
}

// TemplateService covers template authoring and personalization.
type TemplateService interface {
	CreateTemplate(ctx context.Context, who Identity, input TemplateInput) (*model.EmailTemplate, error)
	UpdateTemplate(ctx context.Context, who Identity, id uint, input TemplateInput) (*model.EmailTemplate, error)
	DeleteTemplate(ctx context.Context, who Identity, id uint) error
	GetTemplate(ctx context.Context, who Identity, id uint) (*TemplateDetail, error)
	GetTemplateByCode(ctx context.Context, who Identity, code string) (*TemplateDetail, error)
	ListPublic(ctx context.Context, who Identity, input ListTemplatesInput) (*TemplatePage, error)
	ListOwned(ctx context.Context, who Identity, input ListTemplatesInput) (*TemplatePage, error)
	SetVisibility(ctx context.Context, who Identity, ids []uint, public bool) (int64, error)
	UseTemplate(ctx context.Context, who Identity, input UseTemplateInput) (*UseTemplateResult, error)
	Popular(ctx context.Context, who Identity, n int) ([]PopularTemplate, error)
}

// TemplateDeps wires the template service.
type TemplateDeps struct {
	Templates  repository.TemplateRepository
	Platforms  repository.PlatformRepository
	Links      ActiveLinkFinder
	Usage      repository.UsageRepository
	Popularity repository.PopularityRepository
	Resolver   *personalize.Resolver
	Publisher  UsagePublisher
	Hooks      []TemplateHook
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

type templateService struct {
	deps    TemplateDeps
	newCode func() string
	logger  *zap.Logger
}

// NewTemplateService validates deps and returns a TemplateService.
func NewTemplateService(deps TemplateDeps) (TemplateService, error) {
	if deps.Templates == nil || deps.Resolver == nil || deps.Usage == nil {
		return nil, errors.New("template service: templates, resolver and usage are required")
	}
	gen, err := nanoid.CustomASCII(codeAlphabet, model.TemplateCodeLength)
	if err != nil {
		return nil, fmt.Errorf("template service: code generator: %w", err)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &templateService{deps: deps, newCode: gen, logger: logger}, nil
}

func (s *templateService) CreateTemplate(ctx context.Context, who Identity, input TemplateInput) (*model.EmailTemplate, error) {
	if err := validateTemplateInput(input); err != nil {
		return nil, err
	}

	tpl := &model.EmailTemplate{OwnerID: who.UserID}
	applyTemplateInput(tpl, input)

	var err error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		tpl.Code = s.newCode()
		err = s.deps.Templates.Create(ctx, tpl)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		s.logger.Warn("template code collision", zap.String("code", tpl.Code))
	}
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}

	s.runHooks(ctx, tpl, TemplateChange{Created: true, BodyChanged: true})
	return tpl, nil
}

func (s *templateService) UpdateTemplate(ctx context.Context, who Identity, id uint, input TemplateInput) (*model.EmailTemplate, error) {
	if err := validateTemplateInput(input); err != nil {
		return nil, err
	}

	tpl, err := s.deps.Templates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if tpl.OwnerID != who.UserID {
		return nil, fmt.Errorf("update template: %w", repository.ErrTemplateNotFound)
	}

	bodyChanged := tpl.BodyHTML != input.BodyHTML || tpl.BodyText != input.BodyText
	applyTemplateInput(tpl, input)
	if err := s.deps.Templates.Update(ctx, tpl); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}

	s.runHooks(ctx, tpl, TemplateChange{BodyChanged: bodyChanged})
	return tpl, nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, who Identity, id uint) error {
	if err := s.deps.Templates.Delete(ctx, id, who.UserID); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

func (s *templateService) GetTemplate(ctx context.Context, who Identity, id uint) (*TemplateDetail, error) {
	tpl, err := s.loadUsable(ctx, who, id)
	if err != nil {
		return nil, err
	}
	return &TemplateDetail{
		Template:     tpl,
		Placeholders: personalize.DetectAll(tpl.BodyHTML, tpl.BodyText),
	}, nil
}

// GetTemplateByCode looks a template up by its public code, case-insensitively.
func (s *templateService) GetTemplateByCode(ctx context.Context, who Identity, code string) (*TemplateDetail, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != model.TemplateCodeLength {
		return nil, fmt.Errorf("get template: %w", repository.ErrTemplateNotFound)
	}
	tpl, err := s.deps.Templates.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if !canUse(who, tpl) {
		return nil, ErrForbidden
	}
	return &TemplateDetail{
		Template:     tpl,
		Placeholders: personalize.DetectAll(tpl.BodyHTML, tpl.BodyText),
	}, nil
}

func (s *templateService) ListPublic(ctx context.Context, who Identity, input ListTemplatesInput) (*TemplatePage, error) {
	public := true
	page := normalizePage(input.Page)
	items, total, err := s.deps.Templates.List(ctx, repository.TemplateFilter{
		Query:    input.Query,
		IsPublic: &public,
		Limit:    PublicPageSize,
		Offset:   (page - 1) * PublicPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list public templates: %w", err)
	}

	result := &TemplatePage{Items: items, Total: total, Page: page, PageSize: PublicPageSize}
	if who.UserID != "" && len(items) > 0 {
		ids := make([]uint, len(items))
		for i := range items {
			ids[i] = items[i].ID
		}
		used, err := s.deps.Usage.UsedTemplateIDs(ctx, who.UserID, ids)
		if err != nil {
			return nil, fmt.Errorf("load template usage: %w", err)
		}
		result.UsedIDs = used
	}
	return result, nil
}

func (s *templateService) ListOwned(ctx context.Context, who Identity, input ListTemplatesInput) (*TemplatePage, error) {
	filter := repository.TemplateFilter{OwnerID: who.UserID, Query: input.Query}
	switch strings.ToLower(strings.TrimSpace(input.Status)) {
	case "":
	case "public", "active":
		public := true
		filter.IsPublic = &public
	case "private", "inactive":
		public := false
		filter.IsPublic = &public
	default:
		return nil, validationError("unknown status %q", input.Status)
	}

	page := normalizePage(input.Page)
	filter.Limit = OwnedPageSize
	filter.Offset = (page - 1) * OwnedPageSize

	items, total, err := s.deps.Templates.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list owned templates: %w", err)
	}
	return &TemplatePage{Items: items, Total: total, Page: page, PageSize: OwnedPageSize}, nil
}

// SetVisibility is the bulk make-public / make-private action. Staff only.
func (s *templateService) SetVisibility(ctx context.Context, who Identity, ids []uint, public bool) (int64, error) {
	if !who.Staff {
		return 0, ErrForbidden
	}
	n, err := s.deps.Templates.SetVisibility(ctx, ids, public)
	if err != nil {
		return 0, fmt.Errorf("set template visibility: %w", err)
	}
	s.logger.Info("template visibility changed",
		zap.String("user_id", who.UserID),
		zap.Int64("templates", n),
		zap.Bool("public", public),
	)
	return n, nil
}

func (s *templateService) UseTemplate(ctx context.Context, who Identity, input UseTemplateInput) (*UseTemplateResult, error) {
	tpl, err := s.loadUsable(ctx, who, input.TemplateID)
	if err != nil {
		s.deps.Metrics.RecordPersonalizeError("template")
		return nil, err
	}

	req := personalize.Request{
		UserID:      who.UserID,
		FallbackURL: strings.TrimSpace(input.FallbackURL),
		Template:    tpl,
	}

	if input.PlatformID != nil {
		if s.deps.Platforms == nil {
			return nil, errors.New("use template: platforms are not configured")
		}
		platform, err := s.deps.Platforms.GetOwned(ctx, *input.PlatformID, who.UserID)
		if err != nil {
			s.deps.Metrics.RecordPersonalizeError("platform")
			return nil, fmt.Errorf("load platform: %w", err)
		}
		req.Platform = platform
	}

	if input.OfferLinkID != nil {
		if s.deps.Links == nil {
			return nil, errors.New("use template: offer links are not configured")
		}
		link, err := s.deps.Links.GetActiveLink(ctx, *input.OfferLinkID)
		if err != nil {
			s.deps.Metrics.RecordPersonalizeError("offer_link")
			return nil, fmt.Errorf("load offer link: %w", err)
		}
		req.OfferLink = link
	}

	res, err := s.deps.Resolver.Resolve(ctx, req)
	if err != nil {
		s.deps.Metrics.RecordPersonalizeError("resolve")
		return nil, fmt.Errorf("personalize template: %w", err)
	}

	usage, err := s.deps.Usage.Record(ctx, who.UserID, tpl.ID, s.deps.Now())
	if err != nil {
		s.deps.Metrics.RecordPersonalizeError("usage")
		return nil, fmt.Errorf("record usage: %w", err)
	}

	s.deps.Metrics.RecordTemplateUsed(tpl.IsPublic)
	s.publishUsage(ctx, tpl, input.PlatformID, usage)

	return &UseTemplateResult{
		TemplateID:    tpl.ID,
		TemplateCode:  tpl.Code,
		HTML:          res.HTML,
		Text:          res.Text,
		CTAURL:        res.CTAURL,
		AppliedParams: res.AppliedParams,
		UsedCount:     usage.UsedCount,
		LastUsedAt:    usage.LastUsedAt,
	}, nil
}

func (s *templateService) publishUsage(ctx context.Context, tpl *model.EmailTemplate, platformID *uint, usage *model.TemplateUsage) {
	if s.deps.Publisher == nil {
		return
	}
	err := s.deps.Publisher.Publish(ctx, model.TemplateUsedEvent{
		UserID:       usage.UserID,
		TemplateID:   tpl.ID,
		TemplateCode: tpl.Code,
		PlatformID:   platformID,
		UsedCount:    usage.UsedCount,
		Timestamp:    usage.LastUsedAt,
	})
	s.deps.Metrics.RecordUsageEvent("publish", err)
	if err != nil {
		s.logger.Warn("failed to publish usage event",
			zap.Uint("template_id", tpl.ID),
			zap.String("user_id", usage.UserID),
			zap.Error(err),
		)
	}
}

// Popular returns the most used templates the caller may use.
func (s *templateService) Popular(ctx context.Context, who Identity, n int) ([]PopularTemplate, error) {
	if s.deps.Popularity == nil {
		return []PopularTemplate{}, nil
	}
	if n <= 0 {
		n = defaultPopularN
	}
	if n > maxPopularResult {
		n = maxPopularResult
	}

	scores, err := s.deps.Popularity.Top(ctx, int64(n))
	if err != nil {
		return nil, fmt.Errorf("load popularity: %w", err)
	}

	result := make([]PopularTemplate, 0, len(scores))
	for _, score := range scores {
		tpl, err := s.deps.Templates.GetByID(ctx, score.TemplateID)
		if errors.Is(err, repository.ErrTemplateNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load template %d: %w", score.TemplateID, err)
		}
		if !canUse(who, tpl) {
			continue
		}
		result = append(result, PopularTemplate{Template: *tpl, Uses: int64(score.Uses)})
	}
	return result, nil
}

func (s *templateService) loadUsable(ctx context.Context, who Identity, id uint) (*model.EmailTemplate, error) {
	tpl, err := s.deps.Templates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if !canUse(who, tpl) {
		return nil, ErrForbidden
	}
	return tpl, nil
}

func (s *templateService) runHooks(ctx context.Context, tpl *model.EmailTemplate, change TemplateChange) {
	for _, hook := range s.deps.Hooks {
		if err := hook.AfterTemplateSaved(ctx, tpl, change); err != nil {
			s.logger.Error("template hook failed",
				zap.Uint("template_id", tpl.ID),
				zap.String("code", tpl.Code),
				zap.Error(err),
			)
		}
	}
}

// canUse: public templates are open to everyone, private ones to the owner and staff.
func canUse(who Identity, tpl *model.EmailTemplate) bool {
	return tpl.IsPublic || who.Staff || (who.UserID != "" && tpl.OwnerID == who.UserID)
}

func validateTemplateInput(input TemplateInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return validationError("title is required")
	}
	if strings.TrimSpace(input.BodyHTML) == "" {
		return validationError("html body is required")
	}
	return nil
}

func applyTemplateInput(tpl *model.EmailTemplate, input TemplateInput) {
	tpl.Title = strings.TrimSpace(input.Title)
	tpl.Subject = strings.TrimSpace(input.Subject)
	tpl.FromName = strings.TrimSpace(input.FromName)
	tpl.BodyHTML = input.BodyHTML
	tpl.BodyText = input.BodyText
	tpl.IsPublic = input.IsPublic
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// PreviewInvalidator clears the stored preview snapshot of a template whose
// body changed so the next render starts from the new body.
type PreviewInvalidator struct {
	Templates repository.TemplateRepository
}

func (h PreviewInvalidator) AfterTemplateSaved(ctx context.Context, tpl *model.EmailTemplate, change TemplateChange) error {
	if !change.BodyChanged || tpl.PreviewPath == "" {
		return nil
	}
	if err := h.Templates.UpdatePreview(ctx, tpl.ID, ""); err != nil {
		return fmt.Errorf("clear preview: %w", err)
	}
	tpl.PreviewPath = ""
	return nil
}

package personalize

import (
	"context"
	"errors"
	"fmt"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/danger-5344/templa-socialV2/internal/app/repository"
)

// Fixed personalization keys understood by every template.
const (
	KeyFirstName = "FIRST_NAME"
	KeyLastName  = "LAST_NAME"
	KeyEmail     = "EMAIL"
	KeyDate      = "DATE"
	KeyFooter1   = "FOOTER1"
	KeyFooter2   = "FOOTER2"
	KeyCTAURL    = "CTA_URL"
)

// TagFinder loads the active personalized tag of a user on a platform.
type TagFinder interface {
	GetActive(ctx context.Context, userID string, platformID uint) (*model.PersonalizedTag, error)
}

// TrackingFinder loads the tracking parameter set currently applied to a platform.
type TrackingFinder interface {
	GetCurrent(ctx context.Context, platformID uint) (*model.TrackingParamSet, error)
}

// Request describes a single personalization.
type Request struct {
	UserID      string
	Platform    *model.Platform
	OfferLink   *model.OfferLink
	FallbackURL string
	Template    *model.EmailTemplate
}

// Result is the personalized output of a template.
type Result struct {
	HTML          string
	Text          string
	CTAURL        string
	AppliedParams model.QueryParams
	Values        map[string]string
}

// Resolver assembles the substitution mapping for a request and fills the
// template bodies with it.
type Resolver struct {
	tags     TagFinder
	tracking TrackingFinder
}

// NewResolver returns a resolver reading tags and tracking sets from the given sources.
func NewResolver(tags TagFinder, tracking TrackingFinder) *Resolver {
	return &Resolver{tags: tags, tracking: tracking}
}

// Resolve never fails because personalization data is missing; absent values
// degrade to their literal placeholder. Only storage failures are returned.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	if req.Template == nil {
		return Result{}, errors.New("personalize: template is required")
	}

	var tag *model.PersonalizedTag
	var tracking *model.TrackingParamSet

	if req.Platform != nil {
		var err error
		tag, err = r.tags.GetActive(ctx, req.UserID, req.Platform.ID)
		if err != nil {
			if !errors.Is(err, repository.ErrTagNotFound) {
				return Result{}, fmt.Errorf("load personalized tag: %w", err)
			}
			tag = nil
		}

		tracking, err = r.tracking.GetCurrent(ctx, req.Platform.ID)
		if err != nil {
			if !errors.Is(err, repository.ErrTrackingSetNotFound) {
				return Result{}, fmt.Errorf("load tracking params: %w", err)
			}
			tracking = nil
		}
	}

	ctaURL := req.FallbackURL
	if req.OfferLink != nil {
		ctaURL = req.OfferLink.URL
	}

	applied := model.QueryParams{}
	if tracking != nil && ctaURL != "" {
		applied = mergeable(tracking.Params)
		ctaURL = AppendQueryParams(ctaURL, applied)
	}

	values := buildValues(tag, ctaURL)
	return Result{
		HTML:          Fill(req.Template.BodyHTML, values),
		Text:          Fill(req.Template.BodyText, values),
		CTAURL:        ctaURL,
		AppliedParams: applied,
		Values:        values,
	}, nil
}

func buildValues(tag *model.PersonalizedTag, ctaURL string) map[string]string {
	values := map[string]string{
		KeyFirstName: Token(KeyFirstName),
		KeyLastName:  Token(KeyLastName),
		KeyEmail:     Token(KeyEmail),
		KeyDate:      Token(KeyDate),
		KeyFooter1:   Token(KeyFooter1),
		KeyFooter2:   Token(KeyFooter2),
		KeyCTAURL:    Token(KeyCTAURL),
	}
	if tag != nil {
		values[KeyFirstName] = tag.FirstNameTag
		values[KeyLastName] = tag.LastNameTag
		values[KeyEmail] = tag.EmailTag
		values[KeyDate] = tag.DateTag
		values[KeyFooter1] = tag.Footer1
		values[KeyFooter2] = tag.Footer2
	}
	if ctaURL != "" {
		values[KeyCTAURL] = ctaURL
	}
	return values
}

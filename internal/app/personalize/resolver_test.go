package personalize

import (
	"context"
	"errors"
	"testing"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/danger-5344/templa-socialV2/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTags struct {
	tag *model.PersonalizedTag
	err error
}

func (s stubTags) GetActive(ctx context.Context, userID string, platformID uint) (*model.PersonalizedTag, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.tag == nil {
		return nil, repository.ErrTagNotFound
	}
	return s.tag, nil
}

type stubTracking struct {
	set *model.TrackingParamSet
	err error
}

func (s stubTracking) GetCurrent(ctx context.Context, platformID uint) (*model.TrackingParamSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.set == nil {
		return nil, repository.ErrTrackingSetNotFound
	}
	return s.set, nil
}

var testTemplate = &model.EmailTemplate{
	ID:       1,
	Code:     "ABCDEF12",
	BodyHTML: `<p>Hi {{FIRST_NAME}} {{LAST_NAME}}</p><a href="{{CTA_URL}}">Go</a>{{FOOTER1}}{{ UNKNOWN }}`,
	BodyText: "Hi {{FIRST_NAME}}, {{CTA_URL}} {{DATE}}",
}

func TestResolver_NoTagNoTracking(t *testing.T) {
	r := NewResolver(stubTags{}, stubTracking{})

	res, err := r.Resolve(context.Background(), Request{
		UserID:      "u1",
		Platform:    &model.Platform{ID: 7},
		FallbackURL: "https://fallback.example.com/p?x=1",
		Template:    testTemplate,
	})
	require.NoError(t, err)

	assert.Equal(t, `<p>Hi {{FIRST_NAME}} {{LAST_NAME}}</p><a href="https://fallback.example.com/p?x=1">Go</a>{{FOOTER1}}{{ UNKNOWN }}`, res.HTML)
	assert.Equal(t, "Hi {{FIRST_NAME}}, https://fallback.example.com/p?x=1 {{DATE}}", res.Text)
	assert.Equal(t, "https://fallback.example.com/p?x=1", res.CTAURL)
	assert.NotNil(t, res.AppliedParams)
	assert.Empty(t, res.AppliedParams)
}

func TestResolver_TagTrackingAndOfferLink(t *testing.T) {
	tag := &model.PersonalizedTag{
		FirstNameTag: "*|FNAME|*",
		LastNameTag:  "*|LNAME|*",
		DateTag:      "*|DATE|*",
		Footer1:      "<small>unsub</small>",
		IsActive:     true,
	}
	tracking := &model.TrackingParamSet{
		Params: model.QueryParams{
			{Key: "utm_source", Value: model.StringPtr("esp")},
			{Key: "sub", Value: model.StringPtr("9")},
		},
		IsActive: true,
	}
	r := NewResolver(stubTags{tag: tag}, stubTracking{set: tracking})

	res, err := r.Resolve(context.Background(), Request{
		UserID:      "u1",
		Platform:    &model.Platform{ID: 7},
		OfferLink:   &model.OfferLink{URL: "https://offer.example.com/go?sub=1"},
		FallbackURL: "https://ignored.example.com",
		Template:    testTemplate,
	})
	require.NoError(t, err)

	wantURL := "https://offer.example.com/go?sub=9&utm_source=esp"
	assert.Equal(t, wantURL, res.CTAURL)
	assert.Equal(t, `<p>Hi *|FNAME|* *|LNAME|*</p><a href="`+wantURL+`">Go</a><small>unsub</small>{{ UNKNOWN }}`, res.HTML)
	assert.Equal(t, "Hi *|FNAME|*, "+wantURL+" *|DATE|*", res.Text)
	assert.Equal(t, tracking.Params, res.AppliedParams)
}

func TestResolver_NoCTAKeepsPlaceholder(t *testing.T) {
	tracking := &model.TrackingParamSet{Params: model.QueryParams{{Key: "a", Value: model.StringPtr("1")}}}
	r := NewResolver(stubTags{}, stubTracking{set: tracking})

	res, err := r.Resolve(context.Background(), Request{
		UserID:   "u1",
		Platform: &model.Platform{ID: 1},
		Template: &model.EmailTemplate{BodyHTML: "<a href='{{CTA_URL}}'>x</a>"},
	})
	require.NoError(t, err)
	assert.Equal(t, "", res.CTAURL)
	assert.Equal(t, "<a href='{{CTA_URL}}'>x</a>", res.HTML)
	assert.Equal(t, "", res.Text)
	assert.NotNil(t, res.AppliedParams)
	assert.Empty(t, res.AppliedParams)
}

func TestResolver_AppliedParamsOmitNilValues(t *testing.T) {
	tracking := &model.TrackingParamSet{
		Params: model.QueryParams{
			{Key: "utm_source", Value: model.StringPtr("esp")},
			{Key: "x", Value: nil},
			{Key: "empty", Value: model.StringPtr("")},
		},
		IsActive: true,
	}
	r := NewResolver(stubTags{}, stubTracking{set: tracking})

	res, err := r.Resolve(context.Background(), Request{
		UserID:      "u1",
		Platform:    &model.Platform{ID: 7},
		FallbackURL: "https://shop.example.com/p",
		Template:    &model.EmailTemplate{BodyHTML: "{{CTA_URL}}"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/p?utm_source=esp&empty=", res.CTAURL)
	assert.Equal(t, model.QueryParams{
		{Key: "utm_source", Value: model.StringPtr("esp")},
		{Key: "empty", Value: model.StringPtr("")},
	}, res.AppliedParams)
	for _, p := range res.AppliedParams {
		assert.NotEqual(t, "x", p.Key)
	}
}

func TestResolver_NoPlatformSkipsLookups(t *testing.T) {
	r := NewResolver(stubTags{err: errors.New("must not be called")}, stubTracking{err: errors.New("must not be called")})

	res, err := r.Resolve(context.Background(), Request{
		UserID:      "u1",
		FallbackURL: "https://x.com",
		Template:    &model.EmailTemplate{BodyHTML: "{{CTA_URL}} {{EMAIL}}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://x.com {{EMAIL}}", res.HTML)
}

func TestResolver_StorageErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewResolver(stubTags{err: boom}, stubTracking{})

	_, err := r.Resolve(context.Background(), Request{
		UserID:   "u1",
		Platform: &model.Platform{ID: 1},
		Template: testTemplate,
	})
	require.ErrorIs(t, err, boom)
}

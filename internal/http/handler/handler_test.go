package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danger-5344/templa-socialV2/internal/app/importer"
	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/danger-5344/templa-socialV2/internal/app/repository"
	"github.com/danger-5344/templa-socialV2/internal/app/service"
	"github.com/danger-5344/templa-socialV2/internal/http/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const staffUser = "staff-1"

type fakePlatforms struct {
	service.PlatformService
	createFn func(ctx context.Context, ownerID, name string) (*model.Platform, error)
	saveFn   func(ctx context.Context, input service.SaveTrackingInput) (*model.TrackingParamSet, error)
}

func (f *fakePlatforms) CreatePlatform(ctx context.Context, ownerID, name string) (*model.Platform, error) {
	return f.createFn(ctx, ownerID, name)
}

func (f *fakePlatforms) SaveTrackingParams(ctx context.Context, input service.SaveTrackingInput) (*model.TrackingParamSet, error) {
	return f.saveFn(ctx, input)
}

type fakeTemplates struct {
	service.TemplateService
	useFn func(ctx context.Context, who service.Identity, input service.UseTemplateInput) (*service.UseTemplateResult, error)
}

func (f *fakeTemplates) UseTemplate(ctx context.Context, who service.Identity, input service.UseTemplateInput) (*service.UseTemplateResult, error) {
	return f.useFn(ctx, who, input)
}

type fakeCatalog struct {
	service.CatalogService
	importFn func(ctx context.Context, rows importer.RowReader, userID string) (service.ImportSummary, error)
	addFn    func(ctx context.Context, input service.AddOfferLinkInput) (*model.OfferLink, error)
}

func (f *fakeCatalog) AddOfferLink(ctx context.Context, input service.AddOfferLinkInput) (*model.OfferLink, error) {
	return f.addFn(ctx, input)
}

func (f *fakeCatalog) Import(ctx context.Context, rows importer.RowReader, userID string) (service.ImportSummary, error) {
	return f.importFn(ctx, rows, userID)
}

func newTestApp(platforms service.PlatformService, templates service.TemplateService, catalog service.CatalogService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	api := app.Group("/api", middleware.Identity([]string{staffUser}))
	NewPlatformHandler(PlatformDeps{Platforms: platforms}).Register(api)
	NewTemplateHandler(TemplateDeps{Templates: templates}).Register(api)
	NewCatalogHandler(CatalogDeps{Catalog: catalog, MaxUploadBytes: 1 << 20}).Register(api)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, user string, body interface{}) (*http.Response, errorResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.UserIDHeader, user)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var errBody errorResponse
	if resp.StatusCode >= 400 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	}
	return resp, errBody
}

func TestAPI_RequiresUserHeader(t *testing.T) {
	app := newTestApp(&fakePlatforms{}, &fakeTemplates{}, &fakeCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/platforms", "", map[string]string{"name": "x"})

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", body.Code)
}

func TestCreatePlatform(t *testing.T) {
	var gotOwner, gotName string
	platforms := &fakePlatforms{
		createFn: func(ctx context.Context, ownerID, name string) (*model.Platform, error) {
			gotOwner, gotName = ownerID, name
			return &model.Platform{ID: 7, OwnerID: ownerID, Name: name, Slug: "my-site"}, nil
		},
	}
	app := newTestApp(platforms, &fakeTemplates{}, &fakeCatalog{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/platforms", "u1", map[string]string{"name": "My Site"})

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "u1", gotOwner)
	assert.Equal(t, "My Site", gotName)

	var created model.Platform
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, uint(7), created.ID)
	assert.Equal(t, "my-site", created.Slug)
}

func TestCreatePlatform_Validation(t *testing.T) {
	app := newTestApp(&fakePlatforms{}, &fakeTemplates{}, &fakeCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/platforms", "u1", map[string]string{"name": ""})

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", body.Code)
	assert.Contains(t, body.Error, "name is required")
}

func TestAddLink_RejectedBodyStopsBeforeService(t *testing.T) {
	called := false
	catalog := &fakeCatalog{
		addFn: func(ctx context.Context, input service.AddOfferLinkInput) (*model.OfferLink, error) {
			called = true
			return &model.OfferLink{ID: 1, URL: input.URL, IsActive: input.IsActive}, nil
		},
	}
	app := newTestApp(&fakePlatforms{}, &fakeTemplates{}, catalog)

	tests := []struct {
		name string
		body interface{}
		want string
	}{
		{"bad url", map[string]interface{}{"network_id": 1, "offer": "Summer", "url": "not a url"}, "url must be a valid URL"},
		{"missing offer", map[string]interface{}{"network_id": 1, "url": "https://shop.example.com/summer"}, "offer is required"},
		{"not an object", "nope", "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			resp, body := doJSON(t, app, http.MethodPost, "/api/catalog/links", staffUser, tt.body)

			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "INVALID_INPUT", body.Code)
			assert.Contains(t, body.Error, tt.want)
			assert.False(t, called, "service must not run for a rejected body")
		})
	}

	resp, _ := doJSON(t, app, http.MethodPost, "/api/catalog/links", staffUser,
		map[string]interface{}{"network_id": 1, "offer": "Summer", "url": "https://shop.example.com/summer", "is_active": false})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, called)
}

func TestCreatePlatform_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", fmt.Errorf("create platform: %w", service.ErrConflict), fiber.StatusConflict, "CONFLICT"},
		{"validation", fmt.Errorf("%w: name is blank", service.ErrValidation), fiber.StatusBadRequest, "INVALID_INPUT"},
		{"not found", fmt.Errorf("get: %w", repository.ErrPlatformNotFound), fiber.StatusNotFound, "NOT_FOUND"},
		{"internal", errors.New("connection reset"), fiber.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platforms := &fakePlatforms{
				createFn: func(ctx context.Context, ownerID, name string) (*model.Platform, error) {
					return nil, tt.err
				},
			}
			app := newTestApp(platforms, &fakeTemplates{}, &fakeCatalog{})

			resp, body := doJSON(t, app, http.MethodPost, "/api/platforms", "u1", map[string]string{"name": "x"})

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body.Code)
			if tt.code == "INTERNAL" {
				assert.NotContains(t, body.Error, "connection reset")
			}
		})
	}
}

func TestSaveTrackingParams_AcceptsObjectOrString(t *testing.T) {
	var raws []string
	platforms := &fakePlatforms{
		saveFn: func(ctx context.Context, input service.SaveTrackingInput) (*model.TrackingParamSet, error) {
			raws = append(raws, input.RawParams)
			return &model.TrackingParamSet{ID: 1, PlatformID: input.PlatformID}, nil
		},
	}
	app := newTestApp(platforms, &fakeTemplates{}, &fakeCatalog{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/tracking-params", "u1", map[string]interface{}{
		"platform_id": 3,
		"params":      map[string]string{"utm_source": "esp"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/tracking-params", "u1", map[string]interface{}{
		"platform_id": 3,
		"params":      `{"utm_source":"esp"}`,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{`{"utm_source":"esp"}`, `{"utm_source":"esp"}`}, raws)
}

func TestUseTemplate(t *testing.T) {
	platformID := uint(4)
	templates := &fakeTemplates{
		useFn: func(ctx context.Context, who service.Identity, input service.UseTemplateInput) (*service.UseTemplateResult, error) {
			if input.TemplateID != 9 {
				return nil, repository.ErrTemplateNotFound
			}
			if assert.NotNil(t, input.PlatformID) {
				assert.Equal(t, platformID, *input.PlatformID)
			}
			assert.Equal(t, "u1", who.UserID)
			return &service.UseTemplateResult{TemplateID: 9, HTML: "<p>Hi</p>", UsedCount: 2}, nil
		},
	}
	app := newTestApp(&fakePlatforms{}, templates, &fakeCatalog{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/templates/9/use", "u1", map[string]interface{}{"platform_id": platformID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var res service.UseTemplateResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "<p>Hi</p>", res.HTML)
	assert.Equal(t, int64(2), res.UsedCount)

	resp, body := doJSON(t, app, http.MethodPost, "/api/templates/10/use", "u1", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, repository.ErrTemplateNotFound.Error(), body.Error)

	resp, body = doJSON(t, app, http.MethodPost, "/api/templates/abc/use", "u1", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid id", body.Error)
}

func uploadRequest(t *testing.T, filename, content, user string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/catalog/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(middleware.UserIDHeader, user)
	return req
}

func TestImport(t *testing.T) {
	var lines []int
	catalog := &fakeCatalog{
		importFn: func(ctx context.Context, rows importer.RowReader, userID string) (service.ImportSummary, error) {
			assert.Equal(t, staffUser, userID)
			for {
				row, err := rows.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if !assert.NoError(t, err) {
					break
				}
				lines = append(lines, row.Line)
			}
			return service.ImportSummary{NetworksCreated: 1, OffersCreated: 1, LinksCreated: 2}, nil
		},
	}
	app := newTestApp(&fakePlatforms{}, &fakeTemplates{}, catalog)

	csv := "network,offer,url,is_active\nAcme,Widget,https://a.example.com,true\nAcme,Widget,https://b.example.com,\n"
	resp, err := app.Test(uploadRequest(t, "catalog.csv", csv, staffUser))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Summary service.ImportSummary `json:"summary"`
		Message string                `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Summary.LinksCreated)
	assert.True(t, strings.HasPrefix(body.Message, "Import complete: 1 networks, 1 offers, 2 links created"))
	assert.Equal(t, []int{2, 3}, lines)
}

func TestImport_Rejections(t *testing.T) {
	catalog := &fakeCatalog{
		importFn: func(ctx context.Context, rows importer.RowReader, userID string) (service.ImportSummary, error) {
			return service.ImportSummary{}, errors.New("deadlock detected")
		},
	}
	app := newTestApp(&fakePlatforms{}, &fakeTemplates{}, catalog)

	resp, err := app.Test(uploadRequest(t, "catalog.csv", "network,offer,url\n", "someone"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(uploadRequest(t, "catalog.xls", "whatever", staffUser))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(uploadRequest(t, "catalog.csv", "network,offer\nAcme,Widget\n", staffUser))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(uploadRequest(t, "catalog.csv", "network,offer,url\nAcme,Widget,https://a.example.com\n", staffUser))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Import failed: deadlock detected", body.Error)
}

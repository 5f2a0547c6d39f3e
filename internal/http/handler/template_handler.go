package handler

import (
	"github.com/danger-5344/templa-socialV2/internal/app/service"
	"github.com/danger-5344/templa-socialV2/internal/http/middleware"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TemplateDeps groups dependencies required by template handlers.
type TemplateDeps struct {
	Logger    *zap.Logger
	Templates service.TemplateService
}

// TemplateHandler serves template authoring, listing and personalization.
type TemplateHandler struct {
	logger    *zap.Logger
	templates service.TemplateService
}

func NewTemplateHandler(deps TemplateDeps) *TemplateHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateHandler{logger: logger, templates: deps.Templates}
}

// Register wires routes under the /api group.
func (h *TemplateHandler) Register(api fiber.Router) {
	templates := api.Group("/templates")
	templates.Get("/", h.ListPublic)
	templates.Get("/mine", h.ListOwned)
	templates.Get("/popular", h.Popular)
	templates.Post("/", h.Create)
	templates.Post("/visibility", middleware.RequireStaff(), h.SetVisibility)
	templates.Get("/code/:code", h.GetByCode)
	templates.Get("/:id", h.Get)
	templates.Patch("/:id", h.Update)
	templates.Delete("/:id", h.Delete)
	templates.Post("/:id/use", h.Use)
}

type templateRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Subject  string `json:"subject" validate:"max=200"`
	FromName string `json:"from_name" validate:"max=100"`
	BodyHTML string `json:"body_html" validate:"required"`
	BodyText string `json:"body_text"`
	IsPublic bool   `json:"is_public"`
}

func (r templateRequest) input() service.TemplateInput {
	return service.TemplateInput{
		Title:    r.Title,
		Subject:  r.Subject,
		FromName: r.FromName,
		BodyHTML: r.BodyHTML,
		BodyText: r.BodyText,
		IsPublic: r.IsPublic,
	}
}

func (h *TemplateHandler) ListPublic(c *fiber.Ctx) error {
	page, err := h.templates.ListPublic(userContext(c), middleware.CurrentIdentity(c), service.ListTemplatesInput{
		Query: c.Query("q"),
		Page:  c.QueryInt("page", 1),
	})
	if err != nil {
		return writeError(c, h.logger, "list public templates", err)
	}
	return c.JSON(page)
}

func (h *TemplateHandler) ListOwned(c *fiber.Ctx) error {
	page, err := h.templates.ListOwned(userContext(c), middleware.CurrentIdentity(c), service.ListTemplatesInput{
		Query:  c.Query("q"),
		Status: c.Query("status"),
		Page:   c.QueryInt("page", 1),
	})
	if err != nil {
		return writeError(c, h.logger, "list owned templates", err)
	}
	return c.JSON(page)
}

func (h *TemplateHandler) Popular(c *fiber.Ctx) error {
	popular, err := h.templates.Popular(userContext(c), middleware.CurrentIdentity(c), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, h.logger, "popular templates", err)
	}
	return c.JSON(fiber.Map{"templates": popular})
}

func (h *TemplateHandler) Create(c *fiber.Ctx) error {
	var req templateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tpl, err := h.templates.CreateTemplate(userContext(c), middleware.CurrentIdentity(c), req.input())
	if err != nil {
		return writeError(c, h.logger, "create template", err)
	}
	return c.Status(fiber.StatusCreated).JSON(tpl)
}

func (h *TemplateHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	detail, err := h.templates.GetTemplate(userContext(c), middleware.CurrentIdentity(c), id)
	if err != nil {
		return writeError(c, h.logger, "get template", err)
	}
	return c.JSON(detail)
}

func (h *TemplateHandler) GetByCode(c *fiber.Ctx) error {
	detail, err := h.templates.GetTemplateByCode(userContext(c), middleware.CurrentIdentity(c), c.Params("code"))
	if err != nil {
		return writeError(c, h.logger, "get template by code", err)
	}
	return c.JSON(detail)
}

func (h *TemplateHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req templateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tpl, err := h.templates.UpdateTemplate(userContext(c), middleware.CurrentIdentity(c), id, req.input())
	if err != nil {
		return writeError(c, h.logger, "update template", err)
	}
	return c.JSON(tpl)
}

func (h *TemplateHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	if err := h.templates.DeleteTemplate(userContext(c), middleware.CurrentIdentity(c), id); err != nil {
		return writeError(c, h.logger, "delete template", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type visibilityRequest struct {
	IDs    []uint `json:"ids" validate:"required,min=1"`
	Public bool   `json:"public"`
}

func (h *TemplateHandler) SetVisibility(c *fiber.Ctx) error {
	var req visibilityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	n, err := h.templates.SetVisibility(userContext(c), middleware.CurrentIdentity(c), req.IDs, req.Public)
	if err != nil {
		return writeError(c, h.logger, "set template visibility", err)
	}
	state := "private"
	if req.Public {
		state = "public"
	}
	return c.JSON(fiber.Map{"updated": n, "visibility": state})
}

type useRequest struct {
	PlatformID  *uint  `json:"platform_id"`
	OfferLinkID *uint  `json:"offer_link_id"`
	FallbackURL string `json:"fallback_url" validate:"omitempty,url"`
}

func (h *TemplateHandler) Use(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req useRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	res, err := h.templates.UseTemplate(userContext(c), middleware.CurrentIdentity(c), service.UseTemplateInput{
		TemplateID:  id,
		PlatformID:  req.PlatformID,
		OfferLinkID: req.OfferLinkID,
		FallbackURL: req.FallbackURL,
	})
	if err != nil {
		return writeError(c, h.logger, "use template", err)
	}
	return c.JSON(res)
}

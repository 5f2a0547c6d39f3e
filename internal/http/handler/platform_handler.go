package handler

import (
	"encoding/json"

	"github.com/danger-5344/templa-socialV2/internal/app/service"
	"github.com/danger-5344/templa-socialV2/internal/http/middleware"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PlatformDeps groups dependencies required by platform handlers.
type PlatformDeps struct {
	Logger    *zap.Logger
	Platforms service.PlatformService
	Tags      service.TagService
}

// PlatformHandler serves platforms, their tracking parameters and the
// personalized tags of the caller.
type PlatformHandler struct {
	logger    *zap.Logger
	platforms service.PlatformService
	tags      service.TagService
}

func NewPlatformHandler(deps PlatformDeps) *PlatformHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlatformHandler{logger: logger, platforms: deps.Platforms, tags: deps.Tags}
}

// Register wires routes under the /api group.
func (h *PlatformHandler) Register(api fiber.Router) {
	platforms := api.Group("/platforms")
	platforms.Get("/", h.ListPlatforms)
	platforms.Post("/", h.CreatePlatform)
	platforms.Patch("/:id", h.RenamePlatform)
	platforms.Delete("/:id", h.DeletePlatform)

	tracking := api.Group("/tracking-params")
	tracking.Get("/", h.ListTrackingParams)
	tracking.Post("/", h.SaveTrackingParams)
	tracking.Get("/:id", h.GetTrackingParams)
	tracking.Delete("/:id", h.DeleteTrackingParams)

	tags := api.Group("/tags")
	tags.Get("/", h.ListTags)
	tags.Post("/", h.CreateTag)
	tags.Patch("/:id", h.UpdateTag)
	tags.Delete("/:id", h.DeleteTag)
}

type platformRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

func (h *PlatformHandler) ListPlatforms(c *fiber.Ctx) error {
	who := middleware.CurrentIdentity(c)
	platforms, err := h.platforms.ListPlatforms(userContext(c), who.UserID)
	if err != nil {
		return writeError(c, h.logger, "list platforms", err)
	}
	return c.JSON(fiber.Map{"platforms": platforms})
}

func (h *PlatformHandler) CreatePlatform(c *fiber.Ctx) error {
	var req platformRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	who := middleware.CurrentIdentity(c)
	platform, err := h.platforms.CreatePlatform(userContext(c), who.UserID, req.Name)
	if err != nil {
		return writeError(c, h.logger, "create platform", err)
	}
	return c.Status(fiber.StatusCreated).JSON(platform)
}

func (h *PlatformHandler) RenamePlatform(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req platformRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	who := middleware.CurrentIdentity(c)
	platform, err := h.platforms.RenamePlatform(userContext(c), id, who.UserID, req.Name)
	if err != nil {
		return writeError(c, h.logger, "rename platform", err)
	}
	return c.JSON(platform)
}

func (h *PlatformHandler) DeletePlatform(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	who := middleware.CurrentIdentity(c)
	if err := h.platforms.DeletePlatform(userContext(c), id, who.UserID); err != nil {
		return writeError(c, h.logger, "delete platform", err)
	}
	return c.JSON(fiber.Map{"message": "Platform and its tracking parameters and tags were deleted."})
}

type trackingRequest struct {
	PlatformID uint            `json:"platform_id" validate:"required"`
	Params     json.RawMessage `json:"params" validate:"required"`
	IsActive   *bool           `json:"is_active"`
}

func (h *PlatformHandler) ListTrackingParams(c *fiber.Ctx) error {
	who := middleware.CurrentIdentity(c)
	sets, err := h.platforms.ListTrackingParams(userContext(c), who.UserID)
	if err != nil {
		return writeError(c, h.logger, "list tracking params", err)
	}
	return c.JSON(fiber.Map{"tracking_params": sets})
}

// SaveTrackingParams accepts params either as a JSON object or as a string
// holding one.
func (h *PlatformHandler) SaveTrackingParams(c *fiber.Ctx) error {
	var req trackingRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	raw := string(req.Params)
	var asString string
	if err := json.Unmarshal(req.Params, &asString); err == nil {
		raw = asString
	}

	who := middleware.CurrentIdentity(c)
	set, err := h.platforms.SaveTrackingParams(userContext(c), service.SaveTrackingInput{
		OwnerID:    who.UserID,
		PlatformID: req.PlatformID,
		RawParams:  raw,
		IsActive:   req.IsActive,
	})
	if err != nil {
		return writeError(c, h.logger, "save tracking params", err)
	}
	return c.JSON(set)
}

func (h *PlatformHandler) GetTrackingParams(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	who := middleware.CurrentIdentity(c)
	set, err := h.platforms.GetTrackingParams(userContext(c), id, who.UserID)
	if err != nil {
		return writeError(c, h.logger, "get tracking params", err)
	}
	return c.JSON(set)
}

func (h *PlatformHandler) DeleteTrackingParams(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	who := middleware.CurrentIdentity(c)
	if err := h.platforms.DeleteTrackingParams(userContext(c), id, who.UserID); err != nil {
		return writeError(c, h.logger, "delete tracking params", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type tagRequest struct {
	PlatformID   uint   `json:"platform_id" validate:"required"`
	FirstNameTag string `json:"first_name_tag" validate:"max=100"`
	LastNameTag  string `json:"last_name_tag" validate:"max=100"`
	DateTag      string `json:"date_tag" validate:"max=100"`
	EmailTag     string `json:"email_tag" validate:"max=100"`
	Footer1      string `json:"footer1"`
	Footer2      string `json:"footer2"`
	IsActive     *bool  `json:"is_active"`
}

func (r tagRequest) input(userID string) service.TagInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return service.TagInput{
		UserID:       userID,
		PlatformID:   r.PlatformID,
		FirstNameTag: r.FirstNameTag,
		LastNameTag:  r.LastNameTag,
		DateTag:      r.DateTag,
		EmailTag:     r.EmailTag,
		Footer1:      r.Footer1,
		Footer2:      r.Footer2,
		IsActive:     active,
	}
}

func (h *PlatformHandler) ListTags(c *fiber.Ctx) error {
	who := middleware.CurrentIdentity(c)
	tags, err := h.tags.ListTags(userContext(c), who.UserID)
	if err != nil {
		return writeError(c, h.logger, "list tags", err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}

func (h *PlatformHandler) CreateTag(c *fiber.Ctx) error {
	var req tagRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	who := middleware.CurrentIdentity(c)
	tag, err := h.tags.CreateTag(userContext(c), req.input(who.UserID))
	if err != nil {
		return writeError(c, h.logger, "create tag", err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

func (h *PlatformHandler) UpdateTag(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req tagRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	who := middleware.CurrentIdentity(c)
	tag, err := h.tags.UpdateTag(userContext(c), id, req.input(who.UserID))
	if err != nil {
		return writeError(c, h.logger, "update tag", err)
	}
	return c.JSON(tag)
}

func (h *PlatformHandler) DeleteTag(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	who := middleware.CurrentIdentity(c)
	if err := h.tags.DeleteTag(userContext(c), id, who.UserID); err != nil {
		return writeError(c, h.logger, "delete tag", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handler

import (
	"errors"

	"github.com/danger-5344/templa-socialV2/internal/app/importer"
	"github.com/danger-5344/templa-socialV2/internal/app/service"
	"github.com/danger-5344/templa-socialV2/internal/http/middleware"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CatalogDeps groups dependencies required by catalog handlers.
type CatalogDeps struct {
	Logger         *zap.Logger
	Catalog        service.CatalogService
	MaxUploadBytes int64
}

// CatalogHandler serves offer networks, offer links and bulk import.
type CatalogHandler struct {
	logger         *zap.Logger
	catalog        service.CatalogService
	maxUploadBytes int64
}

func NewCatalogHandler(deps CatalogDeps) *CatalogHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{logger: logger, catalog: deps.Catalog, maxUploadBytes: deps.MaxUploadBytes}
}

// Register wires routes under the /api group.
func (h *CatalogHandler) Register(api fiber.Router) {
	catalog := api.Group("/catalog")
	catalog.Get("/networks", h.ListNetworks)
	catalog.Get("/links", h.SearchLinks)
	catalog.Post("/links", middleware.RequireStaff(), h.AddLink)
	catalog.Post("/import", middleware.RequireStaff(), h.Import)
}

func (h *CatalogHandler) ListNetworks(c *fiber.Ctx) error {
	networks, err := h.catalog.ListNetworks(userContext(c))
	if err != nil {
		return writeError(c, h.logger, "list networks", err)
	}
	return c.JSON(fiber.Map{"networks": networks})
}

type linkResult struct {
	ID      uint   `json:"id"`
	Text    string `json:"text"`
	URL     string `json:"url"`
	Offer   string `json:"offer"`
	Network string `json:"network"`
}

// SearchLinks is the autocomplete over active links by offer name.
func (h *CatalogHandler) SearchLinks(c *fiber.Ctx) error {
	links, err := h.catalog.SearchLinks(userContext(c), c.Query("term"), c.QueryInt("limit", 20))
	if err != nil {
		return writeError(c, h.logger, "search links", err)
	}

	results := make([]linkResult, 0, len(links))
	for _, l := range links {
		r := linkResult{ID: l.ID, URL: l.URL, Text: l.URL}
		if l.Offer != nil {
			r.Offer = l.Offer.Name
			r.Text = l.Offer.Name
			if l.Offer.Network != nil {
				r.Network = l.Offer.Network.Name
				r.Text = l.Offer.Network.Name + " / " + l.Offer.Name
			}
		}
		results = append(results, r)
	}
	return c.JSON(fiber.Map{"results": results})
}

type addLinkRequest struct {
	NetworkID uint   `json:"network_id" validate:"required"`
	Offer     string `json:"offer" validate:"required,max=150"`
	URL       string `json:"url" validate:"required,url"`
	IsActive  *bool  `json:"is_active"`
}

func (h *CatalogHandler) AddLink(c *fiber.Ctx) error {
	var req addLinkRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	link, err := h.catalog.AddOfferLink(userContext(c), service.AddOfferLinkInput{
		NetworkID: req.NetworkID,
		OfferName: req.Offer,
		URL:       req.URL,
		IsActive:  active,
		UserID:    middleware.CurrentIdentity(c).UserID,
	})
	if err != nil {
		return writeError(c, h.logger, "add offer link", err)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

// Import accepts a multipart "file" (.csv or .xlsx) and reconciles it.
func (h *CatalogHandler) Import(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_INPUT", "file is required")
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		return fail(c, fiber.StatusRequestEntityTooLarge, "TOO_LARGE", "file is too large")
	}

	file, err := header.Open()
	if err != nil {
		return writeError(c, h.logger, "open upload", err)
	}
	defer file.Close()

	rows, err := importer.Open(header.Filename, file)
	if err != nil {
		if errors.Is(err, importer.ErrUnsupportedFormat) ||
			errors.Is(err, importer.ErrMissingColumn) ||
			errors.Is(err, importer.ErrEmptyFile) {
			return fail(c, fiber.StatusBadRequest, "INVALID_FILE", err.Error())
		}
		h.logger.Warn("unreadable import file", zap.String("file", header.Filename), zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "INVALID_FILE", "the file could not be read")
	}

	summary, err := h.catalog.Import(userContext(c), rows, middleware.CurrentIdentity(c).UserID)
	if err != nil {
		h.logger.Error("catalog import failed", zap.String("file", header.Filename), zap.Error(err))
		return fail(c, fiber.StatusUnprocessableEntity, "IMPORT_FAILED", "Import failed: "+err.Error())
	}
	return c.JSON(fiber.Map{
		"summary": summary,
		"message": summary.Message(),
	})
}

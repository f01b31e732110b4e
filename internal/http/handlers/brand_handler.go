package handlers

import (
	"strings"

	"github.com/adstudio/backend/internal/http/dto"
	"github.com/adstudio/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type BrandHandler struct {
	brandService *services.BrandService
	log          *zap.Logger
}

func NewBrandHandler(brandService *services.BrandService, log *zap.Logger) *BrandHandler {
	return &BrandHandler{brandService: brandService, log: log}
}

func (h *BrandHandler) CreateBrand(c *fiber.Ctx) error {
	var req dto.BrandProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	brand := req.ToModel()
	if err := h.brandService.Create(c.UserContext(), brand); err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: brand})
}

func (h *BrandHandler) GetBrand(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid brand id")
	}

	brand, err := h.brandService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: brand})
}

func (h *BrandHandler) ListBrands(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	brands, err := h.brandService.List(c.UserContext(), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ListResponse{Items: brands, Limit: limit, Offset: offset}})
}

func (h *BrandHandler) UpdateBrand(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid brand id")
	}

	var req dto.BrandProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	brand := req.ToModel()
	if err := h.brandService.Update(c.UserContext(), id, brand); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: brand})
}

func (h *BrandHandler) DeleteBrand(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid brand id")
	}

	if err := h.brandService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// AnalyzeBrand builds and stores a profile from a website.
func (h *BrandHandler) AnalyzeBrand(c *fiber.Ctx) error {
	var req dto.AnalyzeBrandRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if strings.TrimSpace(req.URL) == "" {
		return badRequest(c, "url is required")
	}

	brand, err := h.brandService.Analyze(c.UserContext(), req.URL)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: brand})
}

package handlers

import (
	"github.com/adstudio/backend/internal/http/dto"
	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AdHandler struct {
	adService *services.AdService
	log       *zap.Logger
}

func NewAdHandler(adService *services.AdService, log *zap.Logger) *AdHandler {
	return &AdHandler{adService: adService, log: log}
}

func (h *AdHandler) ListAds(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	filter := models.AdFilter{Limit: limit, Offset: offset}

	if v := c.Query("campaign_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "invalid campaign_id")
		}
		filter.CampaignID = &id
	}
	if v := c.Query("brand_profile_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "invalid brand_profile_id")
		}
		filter.BrandProfileID = &id
	}
	if v := c.Query("platform"); v != "" {
		filter.Platform = &v
	}

	ads, err := h.adService.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ListResponse{Items: ads, Limit: limit, Offset: offset}})
}

func (h *AdHandler) GetAd(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid ad id")
	}

	ad, err := h.adService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ad})
}

// GenerateAd runs a single item synchronously and stores it without a campaign.
func (h *AdHandler) GenerateAd(c *fiber.Ctx) error {
	var req dto.GenerateAdRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	brandID, err := uuid.Parse(req.BrandProfileID)
	if err != nil {
		return badRequest(c, "invalid brand_profile_id")
	}

	ad, err := h.adService.GenerateSingle(c.UserContext(), services.SingleAdInput{
		BrandProfileID: brandID,
		Platform:       req.Platform,
		Style:          req.Style,
		ProductIndex:   req.ProductIndex,
		Instructions:   req.Instructions,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: ad})
}

func (h *AdHandler) RemoveBackground(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid ad id")
	}

	ad, err := h.adService.RemoveBackground(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ad})
}

func (h *AdHandler) RecalculateCost(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid ad id")
	}

	ad, err := h.adService.RecalculateCost(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ad})
}

func (h *AdHandler) Detach(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid ad id")
	}

	ad, err := h.adService.Detach(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ad})
}

func (h *AdHandler) DeleteAd(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid ad id")
	}

	if err := h.adService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *AdHandler) ListExports(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid ad id")
	}

	exports, err := h.adService.Exports(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: exports})
}

func (h *AdHandler) GetCosts(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid ad id")
	}

	ac, err := h.adService.Costs(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ac})
}

package handlers

import (
	"github.com/adstudio/backend/internal/costs"
	"github.com/adstudio/backend/internal/http/dto"
	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
	adService       *services.AdService
	ledger          *costs.Ledger
	log             *zap.Logger
}

func NewCampaignHandler(
	campaignService *services.CampaignService,
	adService *services.AdService,
	ledger *costs.Ledger,
	log *zap.Logger,
) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService, adService: adService, ledger: ledger, log: log}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	brandID, err := uuid.Parse(req.BrandProfileID)
	if err != nil {
		return badRequest(c, "invalid brand_profile_id")
	}

	campaign := req.ToModel(brandID)
	if err := h.campaignService.Create(c.UserContext(), campaign); err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	campaign, err := h.campaignService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	filter := models.CampaignFilter{Limit: limit, Offset: offset}

	if s := c.Query("status"); s != "" {
		if _, known := models.ValidCampaignTransitions[s]; !known {
			return badRequest(c, "unknown status")
		}
		filter.Status = &s
	}
	if b := c.Query("brand_profile_id"); b != "" {
		brandID, err := uuid.Parse(b)
		if err != nil {
			return badRequest(c, "invalid brand_profile_id")
		}
		filter.BrandProfileID = &brandID
	}

	campaigns, err := h.campaignService.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ListResponse{Items: campaigns, Limit: limit, Offset: offset}})
}

func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.UpdateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	campaign, err := h.campaignService.Update(c.UserContext(), id, req.ToUpdate())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) DeleteCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	if err := h.campaignService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *CampaignHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return badRequest(c, "status is required")
	}

	campaign, err := h.campaignService.SetStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

// Generate acknowledges immediately; the pass runs on the worker pool.
func (h *CampaignHandler) Generate(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	ack, err := h.campaignService.Generate(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.SuccessResponse{OK: true, Data: ack})
}

func (h *CampaignHandler) ListAds(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	if _, err := h.campaignService.GetByID(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	ads, err := h.adService.ListByCampaign(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ads})
}

func (h *CampaignHandler) GetCosts(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	if _, err := h.campaignService.GetByID(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	cc, err := h.ledger.CostsForCampaign(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: cc})
}

func (h *CampaignHandler) GetHistory(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	limit, offset := pageParams(c)
	logs, err := h.campaignService.History(c.UserContext(), id, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}

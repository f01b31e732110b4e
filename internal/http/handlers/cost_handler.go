package handlers

import (
	"time"

	"github.com/adstudio/backend/internal/costs"
	"github.com/adstudio/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CostHandler struct {
	ledger *costs.Ledger
	log    *zap.Logger
}

func NewCostHandler(ledger *costs.Ledger, log *zap.Logger) *CostHandler {
	return &CostHandler{ledger: ledger, log: log}
}

// Summary aggregates ledger spend, optionally since an RFC3339 time.
func (h *CostHandler) Summary(c *fiber.Ctx) error {
	var since *time.Time
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "since must be RFC3339")
		}
		since = &t
	}

	summary, err := h.ledger.Summary(c.UserContext(), since)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: summary})
}

func (h *CostHandler) Pricing(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.ledger.Pricing().Rows()})
}

package handlers

import (
	"github.com/adstudio/backend/internal/http/dto"
	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/platforms"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaStyle struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var styleLabels = map[string]string{
	models.StyleModern:     "Modern",
	models.StyleMinimalist: "Minimalist",
	models.StyleBold:       "Bold",
	models.StylePlayful:    "Playful",
	models.StyleLuxury:     "Luxury",
	models.StyleVintage:    "Vintage",
}

func (h *MetaHandler) GetPlatforms(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: platforms.All()})
}

func (h *MetaHandler) GetStyles(c *fiber.Ctx) error {
	styles := make([]MetaStyle, 0, len(models.Styles))
	for _, s := range models.Styles {
		styles = append(styles, MetaStyle{ID: s, Label: styleLabels[s]})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: styles})
}

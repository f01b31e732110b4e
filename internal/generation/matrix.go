package generation

import (
	"fmt"

	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/platforms"
)

type TargetKind string

const (
	TargetBrand   TargetKind = "brand"
	TargetProduct TargetKind = "product"
)

// Target is what an ad promotes: the brand as a whole or one product.
type Target struct {
	Kind         TargetKind
	Name         string
	ProductIndex int // -1 for the brand target
	Product      *models.Product
}

type WorkItem struct {
	Index    int
	Target   Target
	Platform platforms.Platform
}

func (w WorkItem) Label() string {
	return fmt.Sprintf("%s/%s", w.Target.Name, w.Platform.ID)
}

// Expand builds the ordered work matrix for a campaign. The brand target,
// when requested, comes first, then selected products in the order given.
// Product indices outside the brand's catalog, repeated indices and unknown
// platform ids are skipped. Items are target-major, platform-minor.
func Expand(c *models.Campaign, brand *models.BrandProfile) []WorkItem {
	var targets []Target
	if c.IncludeBrandAd {
		targets = append(targets, Target{Kind: TargetBrand, Name: brand.CompanyName, ProductIndex: -1})
	}
	seen := make(map[int]bool, len(c.SelectedProducts))
	for _, idx := range c.SelectedProducts {
		p := brand.ProductAt(idx)
		if p == nil || seen[idx] {
			continue
		}
		seen[idx] = true
		targets = append(targets, Target{Kind: TargetProduct, Name: p.Name, ProductIndex: idx, Product: p})
	}

	var plats []platforms.Platform
	for _, id := range c.Platforms {
		p, err := platforms.DimensionsFor(id)
		if err != nil {
			continue
		}
		plats = append(plats, p)
	}

	items := make([]WorkItem, 0, len(targets)*len(plats))
	for _, t := range targets {
		for _, p := range plats {
			items = append(items, WorkItem{Index: len(items), Target: t, Platform: p})
		}
	}
	return items
}

// AdContext is the brand context with product-level overrides applied.
type AdContext struct {
	Brand          *models.BrandProfile
	Target         Target
	Description    string
	Audience       string
	PromotionAngle string
	Features       []string
	Benefits       []string
}

func EffectiveContext(brand *models.BrandProfile, t Target) AdContext {
	ac := AdContext{
		Brand:    brand,
		Target:   t,
		Audience: brand.TargetAudience,
		Benefits: brand.UniqueSellingPoints,
	}
	if t.Product == nil {
		return ac
	}
	p := t.Product
	ac.Description = p.Description
	ac.Features = p.Features
	ac.PromotionAngle = p.PromotionAngle
	if p.TargetAudience != nil && *p.TargetAudience != "" {
		ac.Audience = *p.TargetAudience
	}
	if len(p.Benefits) > 0 {
		ac.Benefits = p.Benefits
	}
	return ac
}

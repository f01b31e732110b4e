package generation

import (
	"testing"

	"github.com/adstudio/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBrand() *models.BrandProfile {
	audience := "professional chefs"
	return &models.BrandProfile{
		CompanyName:         "Acme",
		Industry:            "Tools",
		TargetAudience:      "home cooks",
		UniqueSellingPoints: []string{"Lifetime warranty", "Made locally"},
		Products: []models.Product{
			{Name: "Knife", PromotionAngle: "Sharpest edge in its class", Benefits: []string{"Stays sharp"}},
			{Name: "Pan", TargetAudience: &audience},
		},
	}
}

func labels(items []WorkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label()
	}
	return out
}

func TestExpandOrder(t *testing.T) {
	c := &models.Campaign{
		Platforms:        []string{"instagram-feed", "twitter"},
		SelectedProducts: []int{1, 0},
		IncludeBrandAd:   true,
	}

	items := Expand(c, testBrand())
	require.Len(t, items, 6)
	assert.Equal(t, []string{
		"Acme/instagram-feed", "Acme/twitter",
		"Pan/instagram-feed", "Pan/twitter",
		"Knife/instagram-feed", "Knife/twitter",
	}, labels(items))

	for i, it := range items {
		assert.Equal(t, i, it.Index)
	}
	assert.Equal(t, TargetBrand, items[0].Target.Kind)
	assert.Equal(t, -1, items[0].Target.ProductIndex)
	assert.Equal(t, 1, items[2].Target.ProductIndex)
	assert.Equal(t, 1080, items[0].Platform.Width)
	assert.Equal(t, 675, items[1].Platform.Height)
}

func TestExpandCount(t *testing.T) {
	tests := []struct {
		name      string
		platforms []string
		products  []int
		brand     bool
		expected  int
	}{
		{"products only", []string{"twitter", "linkedin", "tiktok"}, []int{0, 1}, false, 6},
		{"brand only", []string{"twitter"}, nil, true, 1},
		{"brand and products", []string{"twitter", "pinterest"}, []int{0}, true, 4},
		{"no platforms", nil, []int{0}, true, 0},
		{"no targets", []string{"twitter"}, nil, false, 0},
		{"out of range skipped", []string{"twitter"}, []int{0, 7, -1}, false, 1},
		{"unknown platform skipped", []string{"twitter", "myspace"}, []int{0}, false, 1},
		{"duplicate indices collapse", []string{"twitter"}, []int{0, 0}, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.Campaign{Platforms: tt.platforms, SelectedProducts: tt.products, IncludeBrandAd: tt.brand}
			assert.Len(t, Expand(c, testBrand()), tt.expected)
		})
	}
}

func TestEffectiveContext(t *testing.T) {
	brand := testBrand()

	knife := EffectiveContext(brand, Target{Kind: TargetProduct, Name: "Knife", Product: &brand.Products[0]})
	assert.Equal(t, "home cooks", knife.Audience)
	assert.Equal(t, []string{"Stays sharp"}, knife.Benefits)
	assert.Equal(t, "Sharpest edge in its class", knife.PromotionAngle)

	pan := EffectiveContext(brand, Target{Kind: TargetProduct, Name: "Pan", Product: &brand.Products[1]})
	assert.Equal(t, "professional chefs", pan.Audience)
	assert.Equal(t, brand.UniqueSellingPoints, pan.Benefits)

	whole := EffectiveContext(brand, Target{Kind: TargetBrand, Name: "Acme", ProductIndex: -1})
	assert.Equal(t, "home cooks", whole.Audience)
	assert.Empty(t, whole.PromotionAngle)
}

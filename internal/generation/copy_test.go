package generation

import (
	"testing"

	"github.com/adstudio/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCopy(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		headline string
		cta      string
		tags     []string
	}{
		{
			name:     "plain json",
			raw:      `{"headline":"Cut faster","body":"A knife for pros.","call_to_action":"Buy","hashtags":["#knife"]}`,
			headline: "Cut faster", cta: "Buy", tags: []string{"#knife"},
		},
		{
			name:     "fenced json",
			raw:      "```json\n{\"headline\":\"Cut faster\",\"body\":\"b\",\"call_to_action\":\"Buy\",\"hashtags\":[\"knife\",\"chef life\"]}\n```",
			headline: "Cut faster", cta: "Buy", tags: []string{"#knife", "#cheflife"},
		},
		{
			name:     "prose around json",
			raw:      "Here you go: {\"headline\":\" Hi \",\"body\":\"b\"} hope it helps",
			headline: "Hi", cta: "Learn More", tags: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCopy(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.headline, c.Headline)
			assert.Equal(t, tt.cta, c.CallToAction)
			assert.Equal(t, tt.tags, c.Hashtags)
		})
	}
}

func TestParseCopyMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json here",
		`{"headline": "x", "body": }`,
		`{"headline": "", "body": "text"}`,
		"```\n{\"body\":\"only body\"}\n```",
	} {
		_, err := ParseCopy(raw)
		assert.ErrorIs(t, err, ErrMalformedCopy, raw)
	}
}

func TestFallbackCopy(t *testing.T) {
	brand := &models.BrandProfile{CompanyName: "Acme", Industry: "Tools", UniqueSellingPoints: []string{"Built to last"}}

	c := FallbackCopy(EffectiveContext(brand, Target{Kind: TargetBrand, Name: "Acme", ProductIndex: -1}))
	assert.Equal(t, "Discover Acme", c.Headline)
	assert.Equal(t, "Built to last", c.Body)
	assert.Equal(t, "Learn More", c.CallToAction)
	assert.Equal(t, []string{"#Acme", "#Tools"}, c.Hashtags)

	p := &models.Product{Name: "Hammer", PromotionAngle: "Never bends"}
	c = FallbackCopy(EffectiveContext(brand, Target{Kind: TargetProduct, Name: "Hammer", Product: p}))
	assert.Equal(t, "Discover Hammer", c.Headline)
	assert.Equal(t, "Never bends", c.Body)
}

func TestFallbackHashtagsStripWhitespace(t *testing.T) {
	brand := &models.BrandProfile{CompanyName: "Acme Tool Co", Industry: "Home  Improvement"}
	c := FallbackCopy(EffectiveContext(brand, Target{Kind: TargetBrand, Name: "Acme Tool Co", ProductIndex: -1}))
	assert.Equal(t, []string{"#AcmeToolCo", "#HomeImprovement"}, c.Hashtags)
	assert.Equal(t, "Acme Tool Co", c.Body)
}

package generation

import (
	"fmt"
	"strings"
)

const imagePromptSystem = `You are an art director writing prompts for an image generation model.
Return a single paragraph describing the advertisement visual. Do not include any text, letters or logos in the image description.`

const copySystem = `You are a senior advertising copywriter.
Respond with a JSON object with the keys "headline", "body", "call_to_action" and "hashtags" (an array of strings).`

func imagePromptRequest(ac AdContext, item WorkItem, style, instructions string) string {
	var b strings.Builder
	writeContext(&b, ac)
	fmt.Fprintf(&b, "Platform: %s (%dx%d)\n", item.Platform.Name, item.Platform.Width, item.Platform.Height)
	fmt.Fprintf(&b, "Ad style: %s\n", style)
	if vs := ac.Brand.VisualStyle; vs != "" {
		fmt.Fprintf(&b, "Brand visual style: %s\n", vs)
	}
	c := ac.Brand.Colors
	if c.Primary != "" {
		fmt.Fprintf(&b, "Brand colors: primary %s, secondary %s, accent %s\n", c.Primary, c.Secondary, c.Accent)
	}
	if instructions != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", instructions)
	}
	b.WriteString("\nWrite the image prompt.")
	return b.String()
}

func copyRequest(ac AdContext, item WorkItem, style, instructions string) string {
	var b strings.Builder
	writeContext(&b, ac)
	if v := ac.Brand.BrandVoice; v != "" {
		fmt.Fprintf(&b, "Brand voice: %s\n", v)
	}
	fmt.Fprintf(&b, "Platform: %s\n", item.Platform.Name)
	fmt.Fprintf(&b, "Ad style: %s\n", style)
	if instructions != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", instructions)
	}
	b.WriteString("\nWrite the ad copy.")
	return b.String()
}

func writeContext(b *strings.Builder, ac AdContext) {
	fmt.Fprintf(b, "Company: %s\n", ac.Brand.CompanyName)
	if ac.Brand.Industry != "" {
		fmt.Fprintf(b, "Industry: %s\n", ac.Brand.Industry)
	}
	if ac.Target.Kind == TargetProduct {
		fmt.Fprintf(b, "Product: %s\n", ac.Target.Name)
		if ac.Description != "" {
			fmt.Fprintf(b, "Product description: %s\n", ac.Description)
		}
		if len(ac.Features) > 0 {
			fmt.Fprintf(b, "Features: %s\n", strings.Join(ac.Features, "; "))
		}
		if ac.PromotionAngle != "" {
			fmt.Fprintf(b, "Promotion angle: %s\n", ac.PromotionAngle)
		}
	} else {
		b.WriteString("Subject: the brand as a whole\n")
	}
	if ac.Audience != "" {
		fmt.Fprintf(b, "Target audience: %s\n", ac.Audience)
	}
	if len(ac.Benefits) > 0 {
		fmt.Fprintf(b, "Key benefits: %s\n", strings.Join(ac.Benefits, "; "))
	}
}

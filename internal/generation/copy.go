package generation

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrMalformedCopy = errors.New("malformed ad copy")

type AdCopy struct {
	Headline     string   `json:"headline"`
	Body         string   `json:"body"`
	CallToAction string   `json:"call_to_action"`
	Hashtags     []string `json:"hashtags"`
}

// ParseCopy extracts ad copy from model output. The output may wrap the JSON
// object in a markdown fence or surround it with prose.
func ParseCopy(raw string) (*AdCopy, error) {
	obj, ok := ExtractJSON(raw)
	if !ok {
		return nil, ErrMalformedCopy
	}

	var c AdCopy
	if err := json.Unmarshal([]byte(obj), &c); err != nil {
		return nil, errors.Join(ErrMalformedCopy, err)
	}
	c.Headline = strings.TrimSpace(c.Headline)
	c.Body = strings.TrimSpace(c.Body)
	c.CallToAction = strings.TrimSpace(c.CallToAction)
	if c.Headline == "" || c.Body == "" {
		return nil, ErrMalformedCopy
	}
	if c.CallToAction == "" {
		c.CallToAction = defaultCTA
	}
	c.Hashtags = normalizeHashtags(c.Hashtags)
	return &c, nil
}

// ExtractJSON returns the outermost JSON object in model output.
func ExtractJSON(raw string) (string, bool) {
	s := stripFence(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

const defaultCTA = "Learn More"

// FallbackCopy is the deterministic copy used when copy synthesis fails.
func FallbackCopy(ac AdContext) AdCopy {
	body := ac.PromotionAngle
	if body == "" && len(ac.Brand.UniqueSellingPoints) > 0 {
		body = ac.Brand.UniqueSellingPoints[0]
	}
	if body == "" {
		body = ac.Description
	}
	if body == "" {
		body = ac.Brand.CompanyName
	}

	var tags []string
	for _, v := range []string{ac.Brand.CompanyName, ac.Brand.Industry} {
		if t := hashtag(v); t != "" {
			tags = append(tags, t)
		}
	}

	return AdCopy{
		Headline:     "Discover " + ac.Target.Name,
		Body:         body,
		CallToAction: defaultCTA,
		Hashtags:     tags,
	}
}

func hashtag(s string) string {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimLeft(s, "#")
	if s == "" {
		return ""
	}
	return "#" + s
}

func normalizeHashtags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, h := range in {
		if t := hashtag(h); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Package platforms is the fixed catalog of publishing targets and their
// native canvas sizes.
package platforms

import (
	"errors"
	"fmt"
)

var ErrUnknownPlatform = errors.New("unknown platform")

type Platform struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// AspectRatio returns width/height.
func (p Platform) AspectRatio() float64 {
	return float64(p.Width) / float64(p.Height)
}

var catalog = []Platform{
	{ID: "instagram-feed", Name: "Instagram Feed", Width: 1080, Height: 1080},
	{ID: "instagram-story", Name: "Instagram Story", Width: 1080, Height: 1920},
	{ID: "facebook-feed", Name: "Facebook Feed", Width: 1200, Height: 628},
	{ID: "twitter", Name: "Twitter / X", Width: 1200, Height: 675},
	{ID: "linkedin", Name: "LinkedIn", Width: 1200, Height: 627},
	{ID: "pinterest", Name: "Pinterest", Width: 1000, Height: 1500},
	{ID: "tiktok", Name: "TikTok", Width: 1080, Height: 1920},
}

var byID = func() map[string]Platform {
	m := make(map[string]Platform, len(catalog))
	for _, p := range catalog {
		m[p.ID] = p
	}
	return m
}()

func DimensionsFor(id string) (Platform, error) {
	p, ok := byID[id]
	if !ok {
		return Platform{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, id)
	}
	return p, nil
}

// Validate returns the known ids from ids, keeping order and dropping duplicates.
func Validate(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// All returns a copy of the catalog.
func All() []Platform {
	out := make([]Platform, len(catalog))
	copy(out, catalog)
	return out
}

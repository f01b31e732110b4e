package platforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionsFor(t *testing.T) {
	tests := []struct {
		id     string
		width  int
		height int
	}{
		{"instagram-feed", 1080, 1080},
		{"instagram-story", 1080, 1920},
		{"facebook-feed", 1200, 628},
		{"twitter", 1200, 675},
		{"linkedin", 1200, 627},
		{"pinterest", 1000, 1500},
		{"tiktok", 1080, 1920},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := DimensionsFor(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.width, p.Width)
			assert.Equal(t, tt.height, p.Height)
			assert.NotEmpty(t, p.Name)
		})
	}
}

func TestDimensionsForUnknown(t *testing.T) {
	_, err := DimensionsFor("myspace")
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestValidate(t *testing.T) {
	got := Validate([]string{"twitter", "myspace", "instagram-feed", "twitter"})
	assert.Equal(t, []string{"twitter", "instagram-feed"}, got)
	assert.Empty(t, Validate([]string{"myspace"}))
	assert.Empty(t, Validate(nil))
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	require.Len(t, all, 7)
	all[0].Width = 1
	p, _ := DimensionsFor(all[0].ID)
	assert.Equal(t, 1080, p.Width)
}

package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSrcset(t *testing.T) {
	candidates := ParseSrcset("a.jpg 100w, b.jpg 300w, c.jpg 50w")

	assert.Equal(t, []SrcsetCandidate{
		{URL: "c.jpg", Width: 50},
		{URL: "a.jpg", Width: 100},
		{URL: "b.jpg", Width: 300},
	}, candidates)
}

func TestParseSrcset_MissingDescriptors(t *testing.T) {
	candidates := ParseSrcset("x.jpg, y.jpg 2x,, z.jpg w")

	assert.Equal(t, []SrcsetCandidate{
		{URL: "x.jpg", Width: 0},
		{URL: "z.jpg", Width: 0},
		{URL: "y.jpg", Width: 2},
	}, candidates)
}

func TestParseSrcset_Empty(t *testing.T) {
	assert.Empty(t, ParseSrcset(""))
	assert.Empty(t, ParseSrcset(" ,  , "))
}

func TestUpgradeResolution(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"https://i.pinimg.com/236x/ab/foo.jpg", "https://i.pinimg.com/originals/ab/foo.jpg"},
		{"https://i.pinimg.com/474x/ab/foo.jpg", "https://i.pinimg.com/originals/ab/foo.jpg"},
		{"https://i.pinimg.com/736x/ab/foo.jpg", "https://i.pinimg.com/736x/ab/foo.jpg"},
		{"https://i.pinimg.com/originals/ab/foo.jpg", "https://i.pinimg.com/originals/ab/foo.jpg"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, UpgradeResolution(tt.in))
		})
	}
}

func TestExtensionOf(t *testing.T) {
	assert.Equal(t, "png", extensionOf("https://x/a/b.PNG?w=1", "jpg"))
	assert.Equal(t, "jpg", extensionOf("https://x/a/b", "jpg"))
	assert.Equal(t, "mp4", extensionOf("https://x.y/dir.v2/clip", "mp4"))
	assert.Equal(t, "mp4", extensionOf("http://[::1%zz/bad", "mp4"))
}

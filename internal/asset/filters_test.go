package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFiltersKnownValues(t *testing.T) {
	f := ParseFilters("XLarge", " vector ", "grayscale", "wide", "free")
	assert.Equal(t, SizeXLarge, f.ImageSize)
	assert.Equal(t, TypeVector, f.ImageType)
	assert.Equal(t, ColorGrayscale, f.ColorFilter)
	assert.Equal(t, AspectWide, f.AspectRatio)
	assert.Equal(t, RightsFree, f.UsageRights)
}

func TestParseFiltersUnknownCollapse(t *testing.T) {
	f := ParseFilters("huge", "", "purple", "circle", "stolen")
	assert.Equal(t, DefaultFilters(), f)
}

func TestNormalized(t *testing.T) {
	f := SearchFilters{ImageSize: "large"}.Normalized()
	assert.Equal(t, SizeLarge, f.ImageSize)
	assert.Equal(t, TypeAll, f.ImageType)
	assert.Equal(t, ColorAny, f.ColorFilter)
}

func TestDimensionsFallback(t *testing.T) {
	w, h := Dimensions(0, -4)
	assert.Equal(t, FallbackWidth, w)
	assert.Equal(t, FallbackHeight, h)

	w, h = Dimensions(640, 480)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestHasUrl(t *testing.T) {
	assert.False(t, Asset{}.HasUrl())
	assert.True(t, Asset{ThumbnailUrl: "https://x/t.jpg"}.HasUrl())
	assert.True(t, Asset{PrimaryUrl: "https://x/p.jpg"}.HasUrl())
}

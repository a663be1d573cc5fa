package asset

import "strings"

type ImageSize string

const (
	SizeAny    ImageSize = "any"
	SizeSmall  ImageSize = "small"
	SizeMedium ImageSize = "medium"
	SizeLarge  ImageSize = "large"
	SizeXLarge ImageSize = "xlarge"
)

type ImageType string

const (
	TypeAll          ImageType = "all"
	TypePhoto        ImageType = "photo"
	TypeIllustration ImageType = "illustration"
	TypeVector       ImageType = "vector"
	TypeIcon         ImageType = "icon"
)

type Color string

const (
	ColorAny       Color = "any"
	ColorRed       Color = "red"
	ColorBlue      Color = "blue"
	ColorGreen     Color = "green"
	ColorYellow    Color = "yellow"
	ColorBlack     Color = "black"
	ColorWhite     Color = "white"
	ColorGrayscale Color = "grayscale"
)

type AspectRatio string

const (
	AspectAny    AspectRatio = "any"
	AspectSquare AspectRatio = "square"
	AspectWide   AspectRatio = "wide"
	AspectTall   AspectRatio = "tall"
)

type UsageRights string

const (
	RightsAny             UsageRights = "any"
	RightsFree            UsageRights = "free"
	RightsCommercial      UsageRights = "commercial"
	RightsCreativeCommons UsageRights = "creative_commons"
)

// SearchFilters is the immutable filter set handed to every adapter.
// Adapters ignore values they cannot express.
type SearchFilters struct {
	ImageSize   ImageSize   `json:"imageSize"`
	ImageType   ImageType   `json:"imageType"`
	ColorFilter Color       `json:"colorFilter"`
	AspectRatio AspectRatio `json:"aspectRatio"`
	UsageRights UsageRights `json:"usageRights"`
}

// DefaultFilters applies no restriction at all.
func DefaultFilters() SearchFilters {
	return SearchFilters{
		ImageSize:   SizeAny,
		ImageType:   TypeAll,
		ColorFilter: ColorAny,
		AspectRatio: AspectAny,
		UsageRights: RightsAny,
	}
}

// ParseFilters builds a SearchFilters from loosely typed input. Unknown or
// empty values collapse to the unrestricted value of their enum.
func ParseFilters(size, imageType, color, aspect, rights string) SearchFilters {
	f := DefaultFilters()
	if v := ImageSize(norm(size)); oneOf(v, SizeSmall, SizeMedium, SizeLarge, SizeXLarge) {
		f.ImageSize = v
	}
	if v := ImageType(norm(imageType)); oneOf(v, TypePhoto, TypeIllustration, TypeVector, TypeIcon) {
		f.ImageType = v
	}
	if v := Color(norm(color)); oneOf(v, ColorRed, ColorBlue, ColorGreen, ColorYellow, ColorBlack, ColorWhite, ColorGrayscale) {
		f.ColorFilter = v
	}
	if v := AspectRatio(norm(aspect)); oneOf(v, AspectSquare, AspectWide, AspectTall) {
		f.AspectRatio = v
	}
	if v := UsageRights(norm(rights)); oneOf(v, RightsFree, RightsCommercial, RightsCreativeCommons) {
		f.UsageRights = v
	}
	return f
}

// Normalized returns f with every unknown or empty field reset to its
// unrestricted value.
func (f SearchFilters) Normalized() SearchFilters {
	return ParseFilters(string(f.ImageSize), string(f.ImageType), string(f.ColorFilter),
		string(f.AspectRatio), string(f.UsageRights))
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func oneOf[T comparable](v T, set ...T) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

package asset

// Provider names the external source an Asset came from.
type Provider string

const (
	Google   Provider = "Google"
	Unsplash Provider = "Unsplash"
	Pixabay  Provider = "Pixabay"
	Pexels   Provider = "Pexels"
	Freepik  Provider = "Freepik"
	Envato   Provider = "Envato"
)

// MediaProviders lists the six media sources in fan-out order.
var MediaProviders = []Provider{Google, Unsplash, Pixabay, Pexels, Freepik, Envato}

// Fallback dimensions used when a provider omits width or height.
const (
	FallbackWidth  = 1920
	FallbackHeight = 1080
)

// Asset is the normalized record every provider adapter produces.
type Asset struct {
	Id              string   `json:"id"`
	PrimaryUrl      string   `json:"primaryUrl"`
	ThumbnailUrl    string   `json:"thumbnailUrl"`
	Title           string   `json:"title"`
	Provider        Provider `json:"provider"`
	AttributionName string   `json:"attributionName,omitempty"`
	LicenseLabel    string   `json:"licenseLabel"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	IsPremium       bool     `json:"isPremium"`
	Tags            []string `json:"tags"`
	Category        string   `json:"category,omitempty"`
}

// HasUrl reports whether the asset carries at least one usable URL.
func (a Asset) HasUrl() bool {
	return a.PrimaryUrl != "" || a.ThumbnailUrl != ""
}

// Dimensions returns width and height with the fallback constants applied
// to missing or non-positive values.
func Dimensions(width, height int) (int, int) {
	if width <= 0 {
		width = FallbackWidth
	}
	if height <= 0 {
		height = FallbackHeight
	}
	return width, height
}

// SearchType selects between literal and AI-expanded searches.
type SearchType string

const (
	Specific SearchType = "specific"
	Creative SearchType = "creative"
)

// Valid reports whether t is one of the known search types.
func (t SearchType) Valid() bool {
	return t == Specific || t == Creative
}

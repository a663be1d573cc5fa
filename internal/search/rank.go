package search

import (
	"sort"

	"github.com/Tkdue/magicsearch/internal/asset"
)

// PremiumBonus dominates every provider weight.
const PremiumBonus = 100

// QualityWeight orders providers from most to least likely to serve premium
// material.
var QualityWeight = map[asset.Provider]int{
	asset.Envato:   10,
	asset.Freepik:  9,
	asset.Unsplash: 8,
	asset.Pexels:   7,
	asset.Pixabay:  6,
	asset.Google:   5,
}

// Score is the composite ranking value of a.
func Score(a asset.Asset) int {
	s := QualityWeight[a.Provider]
	if a.IsPremium {
		s += PremiumBonus
	}
	return s
}

// Rank sorts assets by descending score in place. Equal scores keep their
// input order.
func Rank(assets []asset.Asset) {
	sort.SliceStable(assets, func(i, j int) bool {
		return Score(assets[i]) > Score(assets[j])
	})
}

type dedupeKey struct {
	title    string
	width    int
	height   int
	provider asset.Provider
}

// Dedupe keeps the first asset for each (title, width, height, provider)
// and drops the rest.
func Dedupe(assets []asset.Asset) []asset.Asset {
	seen := make(map[dedupeKey]struct{}, len(assets))
	out := make([]asset.Asset, 0, len(assets))
	for _, a := range assets {
		k := dedupeKey{a.Title, a.Width, a.Height, a.Provider}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}

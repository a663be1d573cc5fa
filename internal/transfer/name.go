package transfer

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/Tkdue/magicsearch/internal/asset"
)

const (
	maxTitleRunes    = 50
	DefaultExtension = "jpg"
)

var knownExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "svg": true,
}

// FileName derives "<title|image_id>.<ext>" for a, with the base made
// filesystem safe.
func FileName(a asset.Asset) string {
	base := "image"
	if title := strings.TrimSpace(a.Title); title != "" {
		if r := []rune(title); len(r) > maxTitleRunes {
			title = string(r[:maxTitleRunes])
		}
		base = title
	} else if a.Id != "" {
		base = "image_" + a.Id
	}
	return asset.SafeName(base) + "." + Extension(a.PrimaryUrl)
}

// Extension sniffs the image extension from the URL path, falling back to
// jpg for anything unrecognized.
func Extension(rawUrl string) string {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return DefaultExtension
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if knownExtensions[ext] {
		return ext
	}
	return DefaultExtension
}

// uniqueNames resolves collisions by suffixing later names with _2, _3 and
// so on, keeping the extension.
func uniqueNames(assets []asset.Asset) []string {
	names := make([]string, len(assets))
	taken := make(map[string]bool, len(assets))
	for i, a := range assets {
		name := FileName(a)
		if taken[name] {
			stem, ext := splitExt(name)
			for n := 2; ; n++ {
				candidate := stem + "_" + strconv.Itoa(n) + ext
				if !taken[candidate] {
					name = candidate
					break
				}
			}
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

func splitExt(name string) (string, string) {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

package asset

import "strings"

// SafeName replaces every byte outside [A-Za-z0-9_-] with an underscore.
// Multi-byte runes become one underscore each.
func SafeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

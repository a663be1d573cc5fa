package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexString accepts a JSON string or number. Provider ids flip between the
// two across API versions.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// tagList accepts ["a","b"], [{"name":"a"}], [{"title":"a"}] or "a, b".
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = nil
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = splitTags(s)
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if json.Unmarshal(r, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Name  string `json:"name"`
			Title string `json:"title"`
		}
		if json.Unmarshal(r, &obj) == nil {
			if s = strings.TrimSpace(firstNonEmpty(obj.Name, obj.Title)); s != "" {
				out = append(out, s)
			}
		}
	}
	*t = out
	return nil
}

func splitTags(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseSize reads "1920x1080" style strings.
func parseSize(s string) (int, int) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0
	}
	width, _ := strconv.Atoi(strings.TrimSpace(w))
	height, _ := strconv.Atoi(strings.TrimSpace(h))
	return width, height
}

// tags returns a non-nil copy of t.
func tags(t tagList) []string {
	if len(t) == 0 {
		return []string{}
	}
	return append([]string(nil), t...)
}

func joinTags(t tagList) string {
	return strings.Join(t, ", ")
}

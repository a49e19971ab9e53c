package backend

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes a store name into a URL-safe slug: lowercase, runs of
// non-alphanumerics collapsed to a single dash, dashes trimmed.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "loja"
	}
	return s
}

package memory

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugInvalid    = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slugify lowercases input, turns whitespace into dashes and strips anything
// outside [a-z0-9-].
func Slugify(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return ""
	}
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// uniqueSlug appends -2, -3, ... to desired until taken reports it free.
func uniqueSlug(desired, fallback string, taken func(string) bool) string {
	base := desired
	if base == "" {
		base = fallback
	}
	slug := base
	for n := 2; taken(slug); n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	return slug
}

func fieldKeyFromLabel(label string) string {
	return strings.ReplaceAll(Slugify(label), "-", "_")
}

// Package util provides the text helpers shared by the content handlers:
// slug generation, excerpts, HTML sanitizing and contact-field validation.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength bounds generated slugs.
const MaxSlugLength = 200

// nonAlnumRun matches every run of characters outside [a-z0-9].
var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug converts s to a URL-friendly slug: accents are removed,
// the result is lowercased, and each run of non-alphanumeric characters
// collapses to a single hyphen with no leading or trailing hyphen.
// GenerateSlug is idempotent.
func GenerateSlug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	result = strings.ToLower(result)
	result = nonAlnumRun.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > MaxSlugLength {
		result = strings.TrimRight(result[:MaxSlugLength], "-")
	}
	return result
}

// IsValidSlug checks that s is already in GenerateSlug's output form.
func IsValidSlug(s string) bool {
	return s != "" && GenerateSlug(s) == s
}

package util

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultExcerptLength is the excerpt size used when the caller does not supply one.
const DefaultExcerptLength = 160

var (
	stripPolicy = bluemonday.StrictPolicy()

	// only the handful of entities editors actually produce are decoded
	entityDecoder = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#34;", `"`,
		"&#39;", "'",
	)

	whitespace = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
)

// StripTags removes all markup from s and decodes basic HTML entities.
func StripTags(s string) string {
	text := stripPolicy.Sanitize(s)
	text = entityDecoder.Replace(text)
	return strings.Join(strings.Fields(whitespace.Replace(text)), " ")
}

// CreateExcerpt returns a plain-text summary of at most maxLength runes
// (plus an ellipsis when truncated).
func CreateExcerpt(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}
	text := StripTags(content)
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxLength])) + "..."
}

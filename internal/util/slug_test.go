package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple title", input: "Hello World", expected: "hello-world"},
		{name: "punctuation", input: "Hello, World!", expected: "hello-world"},
		{name: "apostrophe splits words", input: "Don't Stop", expected: "don-t-stop"},
		{name: "numbers", input: "Top 10 Listings 2026", expected: "top-10-listings-2026"},
		{name: "accents", input: "Café résumé", expected: "cafe-resume"},
		{name: "multiple spaces", input: "Hello   World", expected: "hello-world"},
		{name: "hyphen run", input: "Hello -- World", expected: "hello-world"},
		{name: "leading and trailing", input: "  --Hello World--  ", expected: "hello-world"},
		{name: "all special characters", input: "!@#$%^&*()", expected: ""},
		{name: "non latin", input: "日本語タイトル", expected: ""},
		{name: "german umlauts", input: "Über München", expected: "uber-munchen"},
		{name: "already a slug", input: "luxury-villas", expected: "luxury-villas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenerateSlug(tt.input))
		})
	}
}

func TestGenerateSlug_Properties(t *testing.T) {
	inputs := []string{
		"Hello World",
		"  Multiple   spaces & symbols!!  ",
		"Ünïcödé Tïtlé",
		"---",
		"a",
		"Real-Estate: Marketing 101 (Part II)",
		strings.Repeat("long title ", 40),
		"emoji 🏠 homes",
	}

	for _, in := range inputs {
		slug := GenerateSlug(in)
		for _, r := range slug {
			assert.True(t, (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-', "unexpected rune %q in %q", r, slug)
		}
		assert.False(t, strings.HasPrefix(slug, "-"), slug)
		assert.False(t, strings.HasSuffix(slug, "-"), slug)
		assert.NotContains(t, slug, "--")
		assert.LessOrEqual(t, len(slug), MaxSlugLength)
		assert.Equal(t, slug, GenerateSlug(slug), "not idempotent for %q", in)
	}
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("hello-world"))
	assert.False(t, IsValidSlug(""))
	assert.False(t, IsValidSlug("Hello-World"))
	assert.False(t, IsValidSlug("-hello"))
	assert.False(t, IsValidSlug("hello--world"))
}

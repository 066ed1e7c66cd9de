package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s+()-]+$`)
)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidPhone reports whether s contains only digits, spaces and + ( ) -.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// Clean trims s and cuts it to at most max runes.
func Clean(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && utf8.RuneCountInString(s) > max {
		s = strings.TrimSpace(string([]rune(s)[:max]))
	}
	return s
}

// RuneLen counts characters rather than bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

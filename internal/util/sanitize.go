package util

import "github.com/microcosm-cc/bluemonday"

var ugcPolicy = bluemonday.UGCPolicy()

// SanitizeHTML keeps the formatting tags an editor can produce and drops
// scripts, event handlers and unsafe URLs.
func SanitizeHTML(s string) string {
	return ugcPolicy.Sanitize(s)
}

// Package htmlsanitize reduces member- and admin-supplied text to plain text
// before it is embedded in notification messages.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MaxReasonLength bounds free-text reasons copied into notifications.
const MaxReasonLength = 500

var strict = bluemonday.StrictPolicy()

// StripTags removes all markup, unescapes entities bluemonday produced, and
// collapses runs of whitespace to single spaces.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	cleaned := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(cleaned), " ")
}

// Reason is StripTags followed by truncation to MaxReasonLength runes.
func Reason(s string) string {
	out := StripTags(s)
	r := []rune(out)
	if len(r) > MaxReasonLength {
		out = strings.TrimSpace(string(r[:MaxReasonLength]))
	}
	return out
}

// Package sanitize strips markup from caller-supplied text. API fields
// like names and review bodies are plain text; anything that looks like
// HTML is removed rather than escaped.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all HTML elements and attributes and trims whitespace.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// Patch sanitizes the string values of a partial-update document in
// place. Non-string values pass through untouched.
func Patch(patch map[string]any, fields ...string) {
	for _, f := range fields {
		if v, ok := patch[f].(string); ok {
			patch[f] = Text(v)
		}
	}
}

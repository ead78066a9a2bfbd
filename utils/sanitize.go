package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips all markup from user-supplied text such as hints and returns plain text.
// Entities the policy escapes are decoded again, so "A&B" stays "A&B".
func Sanitize(input string) string {
	return html.UnescapeString(sanitizer.Sanitize(input))
}

// Package normalize canonicalizes user-supplied identifiers and display
// strings before they are compared or stored.
package normalize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var stripTags = bluemonday.StrictPolicy()

// Email trims surrounding whitespace and lower-cases the address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Username trims whitespace. Usernames keep their case.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// Name strips markup, applies NFC and collapses internal whitespace.
func Name(s string) string {
	s = html.UnescapeString(stripTags.Sanitize(s))
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Choice lower-cases a filter value and maps "all" to the empty string.
func Choice(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return ""
	}
	return s
}

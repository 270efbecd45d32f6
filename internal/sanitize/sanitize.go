// Package sanitize normalizes arbitrary display names into strings that are
// safe to use as filesystem paths and URL components. NetSuite file cabinet
// names can carry characters that are legal there but break REST paths or
// local filesystems; Filename strips or rewrites them.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// reservedChars are illegal or problematic in REST paths, URLs, or
	// local filesystems.
	reservedChars = regexp.MustCompile(`["{}*:<>?/%+|]`)
	newlineRuns   = regexp.MustCompile(`[\r\n]+`)
	dotRuns       = regexp.MustCompile(`\.{2,}`)
	spaceRuns     = regexp.MustCompile(`\s{2,}`)
)

// Filename maps raw text to a string safe for use as a path segment.
// Newline runs become " - ", "&" becomes "and", reserved characters are
// dropped, and runs of dots and whitespace collapse. Leading "~", ".", and
// whitespace are trimmed. The transformation is idempotent: applying it
// twice yields the same result as applying it once.
func Filename(name string) string {
	s := newlineRuns.ReplaceAllString(name, " - ")
	s = strings.ReplaceAll(s, "&", "and")
	s = reservedChars.ReplaceAllString(s, "")
	s = dotRuns.ReplaceAllString(s, ".")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = strings.TrimLeft(s, "~. ")

	return strings.TrimSpace(s)
}

package normalize

import (
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f]`)

// CleanID trims whitespace and strips control characters from an identifier.
func CleanID(v string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(v, ""))
}

package normalize

import (
	"regexp"
	"strings"

	"github.com/gyeh/clinicbill/internal/model"
)

var multiSpace = regexp.MustCompile(`\s+`)

// FullName joins first and last name, collapsing whitespace and trimming.
func FullName(first, last string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(first+" "+last, " "))
}

// ParseStatus title-cases a raw status. Anything other than pending or
// completed maps to StatusUnknown.
func ParseStatus(raw string) model.Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return model.StatusUnknown
	}
	switch model.Status(strings.ToUpper(s[:1]) + s[1:]) {
	case model.StatusPending:
		return model.StatusPending
	case model.StatusCompleted:
		return model.StatusCompleted
	default:
		return model.StatusUnknown
	}
}

package service

import (
	"strings"
	"unicode"
)

const fallbackSlug = "post"

// Slugify lowercases title and collapses every run of non-alphanumeric characters into a single dash.
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return fallbackSlug
	}
	return b.String()
}

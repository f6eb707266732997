package parse

import (
	"strings"
	"unicode"
)

// NormalizeName strips every whitespace rune from a department name,
// including internal and full-width spaces, so " 人力  资源部 " and "人力资源部" compare equal.
func NormalizeName(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

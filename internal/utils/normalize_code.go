package utils

import (
	"strings"
	"unicode"
)

// NormalizeBusCode reduces an external bus code to its lookup key: upper case
// with every Unicode space and dash removed.
func NormalizeBusCode(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Pd, r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, raw)
}

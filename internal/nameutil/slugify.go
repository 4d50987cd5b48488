package nameutil

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and turns every run of characters other than letters
// and digits into a single dash. The result never starts or ends with a
// dash, so it is usable as a tool or command name.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			dash = b.Len() > 0
			continue
		}
		if dash {
			b.WriteByte('-')
			dash = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

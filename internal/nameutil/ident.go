package nameutil

import (
	"go/token"
	"strings"
	"unicode"
)

// CamelCase joins the words of s into an exported-style identifier. Words are
// separated by '-', '_', '.', '/' or spaces; case inside a word is kept apart
// from the first letter, so "maxCount" and "max_count" both give "MaxCount".
func CamelCase(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == '.' || r == '/' || unicode.IsSpace(r):
			upper = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Identifier returns prefix followed by CamelCase(name). With an empty prefix
// the first letter is lowered. A result that is not a valid Go identifier,
// such as one starting with a digit, gets a leading underscore.
func Identifier(prefix, name string) string {
	id := CamelCase(name)
	if prefix == "" && id != "" {
		r := []rune(id)
		r[0] = unicode.ToLower(r[0])
		id = string(r)
	}
	id = prefix + id
	if !token.IsIdentifier(id) {
		id = "_" + id
	}
	return id
}

package argspec

import "strings"

// FlagName converts a parameter name to a kebab-case CLI name.
//
// Rules:
//   - Insert "-" before an uppercase letter that follows a lowercase letter or digit.
//   - Insert "-" between an acronym and a following word ("HTTPPort" → "http-port").
//   - Underscores become dashes ("max_count" → "max-count").
//   - Lowercase everything.
func FlagName(name string) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case isUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && isLower(runes[i+1])
				if isLower(prev) || isDigit(prev) || (isUpper(prev) && nextLower) {
					b.WriteRune('-')
				}
			}
			b.WriteRune(r + ('a' - 'A'))
		case r == '_':
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExternalName returns the name a parameter is shown under: a single trailing
// underscore, used to dodge a reserved word, is dropped before kebab-casing.
func ExternalName(param string) string {
	return FlagName(stripEscape(param))
}

func stripEscape(name string) string {
	if len(name) > 1 && strings.HasSuffix(name, "_") && !strings.HasSuffix(name, "__") {
		return name[:len(name)-1]
	}
	return name
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }

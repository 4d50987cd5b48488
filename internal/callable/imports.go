package callable

import (
	"fmt"
	"go/token"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// ParseImport accepts the spellings of one import: `path`, `"path"`,
// `alias "path"` and the same prefixed with the import keyword. The name
// defaults to the last path element, skipping a major version suffix.
func ParseImport(spec string) (Import, error) {
	s := strings.TrimSpace(spec)
	if rest, ok := strings.CutPrefix(s, "import "); ok {
		s = strings.TrimSpace(rest)
	}
	if s == "" {
		return Import{}, fmt.Errorf("empty import")
	}

	var alias, quoted string
	if i := strings.IndexByte(s, '"'); i > 0 {
		alias, quoted = strings.TrimSpace(s[:i]), s[i:]
	} else {
		quoted = s
	}

	p := quoted
	if strings.HasPrefix(quoted, `"`) {
		unq, err := strconv.Unquote(quoted)
		if err != nil {
			return Import{}, fmt.Errorf("import %s: %w", spec, err)
		}
		p = unq
	}
	if p == "" || strings.ContainsAny(p, " \t\"") {
		return Import{}, fmt.Errorf("import %q: invalid path", spec)
	}

	name := alias
	if name == "" {
		name = DefaultPackageName(p)
	}
	if !token.IsIdentifier(name) && name != "_" && name != "." {
		return Import{}, fmt.Errorf("import %q: %q is not a package name", spec, name)
	}
	return Import{Path: p, Name: name}, nil
}

// DefaultPackageName guesses the package name of an import path from its
// last element: "gopkg.in/yaml.v3" is yaml, "example.com/go-foo/v2" is foo.
func DefaultPackageName(importPath string) string {
	elem := path.Base(importPath)
	if majorVersion.MatchString(elem) {
		elem = path.Base(path.Dir(importPath))
	}
	elem = strings.TrimPrefix(elem, "go-")
	if i := strings.IndexByte(elem, '.'); i > 0 {
		elem = elem[:i]
	}
	return strings.ReplaceAll(elem, "-", "")
}

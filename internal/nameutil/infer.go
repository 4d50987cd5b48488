package nameutil

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// versionSuffix matches @latest or @v1.2.3 style version queries.
var versionSuffix = regexp.MustCompile(`@[^/]*$`)

// majorVersion matches the /vN element of a module path.
var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// knownExtensions are stripped from manifest and source file names.
var knownExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
	".go":   true,
}

// InferName infers a short CLI-friendly name from an import path, a package
// directory, a manifest file name or a dotted namespace path. It returns ""
// when nothing usable is left.
func InferName(ref string) string {
	name := strings.TrimSpace(ref)
	name = versionSuffix.ReplaceAllString(name, "")
	name = strings.TrimSuffix(filepath.ToSlash(name), "/...")
	name = strings.TrimRight(name, "/")

	if ext := path.Ext(name); knownExtensions[ext] {
		name = strings.TrimSuffix(name, ext)
	}

	elems := strings.Split(name, "/")
	for len(elems) > 1 && (majorVersion.MatchString(elems[len(elems)-1]) || elems[len(elems)-1] == ".") {
		elems = elems[:len(elems)-1]
	}
	name = elems[len(elems)-1]
	if name == "." || name == ".." {
		return ""
	}

	// A dotted namespace path is named after its root.
	if !strings.Contains(ref, "/") {
		name, _, _ = strings.Cut(name, ".")
	}

	name = strings.ReplaceAll(name, "_", "-")
	for _, prefix := range []string{"go-", "cli-"} {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			name = strings.TrimPrefix(name, prefix)
			break
		}
	}
	name = strings.TrimSuffix(name, "-go")

	return Slugify(name)
}

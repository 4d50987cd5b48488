package compile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPlatform is returned for a --platform entry that is not a known target.
var ErrInvalidPlatform = errors.New("invalid platform")

// Platform is a GOOS/GOARCH pair a generated tool can be built for.
type Platform struct {
	GOOS   string
	GOARCH string
}

func (p Platform) String() string {
	return p.GOOS + "/" + p.GOARCH
}

// exeSuffix is the executable extension the target OS expects.
func (p Platform) exeSuffix() string {
	if p.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// ValidPlatforms are the cross-compilation targets --platform accepts.
var ValidPlatforms = []Platform{
	{"linux", "amd64"},
	{"linux", "arm64"},
	{"darwin", "amd64"},
	{"darwin", "arm64"},
	{"windows", "amd64"},
	{"windows", "arm64"},
}

// lookupPlatform resolves one --platform entry. The running platform is
// always accepted, even when it is not in ValidPlatforms.
func lookupPlatform(entry string) (Platform, error) {
	if entry == "native" {
		return CurrentPlatform(), nil
	}
	if entry == CurrentPlatform().String() {
		return CurrentPlatform(), nil
	}
	for _, p := range ValidPlatforms {
		if p.String() == entry {
			return p, nil
		}
	}
	names := make([]string, len(ValidPlatforms))
	for i, p := range ValidPlatforms {
		names[i] = p.String()
	}
	return Platform{}, fmt.Errorf("compile: %w '%s'. Valid targets: native, all, %s",
		ErrInvalidPlatform, entry, strings.Join(names, ", "))
}

// ParsePlatforms turns a --platform value into build targets.
// "" and "native" mean the running platform and "all" means every entry of
// ValidPlatforms. Anything else is a comma-separated list; duplicates are
// dropped and order is kept.
func ParsePlatforms(value string) ([]Platform, error) {
	value = strings.TrimSpace(value)
	switch value {
	case "", "native":
		return []Platform{CurrentPlatform()}, nil
	case "all":
		return append([]Platform(nil), ValidPlatforms...), nil
	}

	var out []Platform
	seen := map[Platform]bool{}
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		p, err := lookupPlatform(entry)
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("compile: no platforms specified")
	}
	return out, nil
}

// BinaryName names the binary built for p. A build for several platforms
// gets <name>-<os>-<arch> so the outputs can share a directory.
func BinaryName(name string, p Platform, multiPlatform bool) string {
	if multiPlatform {
		name = name + "-" + p.GOOS + "-" + p.GOARCH
	}
	return name + p.exeSuffix()
}

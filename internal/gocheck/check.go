// Package gocheck verifies the go toolchain used to build generated tools.
package gocheck

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// MinMinor is the lowest supported go1.x release.
const MinMinor = 22

var (
	ErrNoToolchain = errors.New("go toolchain not found")
	ErrTooOld      = errors.New("go toolchain is too old")
)

var versionRe = regexp.MustCompile(`go(\d+)\.(\d+)`)

// Check verifies that the go toolchain is installed and meets the minimum
// version requirement. Returns the version string on success.
func Check(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "go", "version").Output()
	if err != nil {
		return "", fmt.Errorf("gocheck: %w: install Go >= 1.%d from https://go.dev/dl/", ErrNoToolchain, MinMinor)
	}
	return checkVersion(strings.TrimSpace(string(out)))
}

// checkVersion validates the output of go version. Output it cannot parse,
// such as a development build, is accepted.
func checkVersion(version string) (string, error) {
	matches := versionRe.FindStringSubmatch(version)
	if len(matches) < 3 {
		return version, nil
	}

	major, _ := strconv.Atoi(matches[1])
	minor, _ := strconv.Atoi(matches[2])

	if major < 1 || (major == 1 && minor < MinMinor) {
		return "", fmt.Errorf("gocheck: %w: %d.%d, install Go >= 1.%d from https://go.dev/dl/", ErrTooOld, major, minor, MinMinor)
	}

	return version, nil
}

// Package compile builds generated tool projects with the go toolchain.
package compile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"mvdan.cc/sh/v3/shell"
)

// ErrSmokeTest is returned when a built tool does not answer --help.
var ErrSmokeTest = errors.New("generated binary failed smoke test")

// Options tune a build.
type Options struct {
	BuildFlags    []string // extra arguments passed to go build before the package
	MultiPlatform bool     // suffix binaries with their platform
	Log           logrus.FieldLogger
}

// ParseBuildFlags splits a --build-flags value the way a POSIX shell would,
// so quoted values such as -ldflags "-s -w" stay one argument.
func ParseBuildFlags(s string) ([]string, error) {
	fields, err := shell.Fields(s, func(string) string { return "" })
	if err != nil {
		return nil, fmt.Errorf("compile: build flags %q: %w", s, err)
	}
	return fields, nil
}

// Compile runs go build for the given project directory and target platform.
// Returns the path to the compiled binary.
func Compile(ctx context.Context, projectDir, outputDir, name string, p Platform, opts Options) (string, error) {
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	binaryName := BinaryName(name, p, opts.MultiPlatform)

	// Make output path absolute so go build writes to the right place
	absOutput, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}

	binaryPath := filepath.Join(absOutput, binaryName)
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	args := append([]string{"build", "-o", binaryPath}, opts.BuildFlags...)
	args = append(args, ".")
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = projectDir
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=0",
		"GOOS="+p.GOOS,
		"GOARCH="+p.GOARCH,
	)

	log.WithFields(logrus.Fields{"platform": p.String(), "args": args}).Debug("running go build")
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("go build failed for %s: %s", p, string(out))
	}

	return binaryPath, nil
}

// SmokeTest runs the compiled binary with --help and verifies exit code 0.
func SmokeTest(ctx context.Context, binaryPath string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "--help")
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w (timed out after 15s)", ErrSmokeTest)
		}
		exitCode := 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return fmt.Errorf("%w (exit code %d): %s", ErrSmokeTest, exitCode, string(out))
	}

	return nil
}

// CurrentPlatform returns the platform cligen runs on.
func CurrentPlatform() Platform {
	return Platform{GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
}

// Native reports whether binaries for p run on this machine, which is what
// the smoke test needs.
func (p Platform) Native() bool {
	return p == CurrentPlatform()
}

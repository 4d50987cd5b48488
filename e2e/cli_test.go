package e2e

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thellimist/cligen/internal/codegen"
	"github.com/thellimist/cligen/internal/goload"
	"github.com/thellimist/cligen/internal/manifest"
)

type result struct {
	stdout string
	stderr string
	code   int
}

// buildTool writes unit as a standalone project and compiles it.
func buildTool(t *testing.T, unit *codegen.Unit) string {
	t.Helper()
	ctx := context.Background()
	projectDir, err := codegen.WriteProject(ctx, t.TempDir(), unit, codegen.ProjectOptions{Standalone: true})
	if err != nil {
		t.Fatalf("write project: %v\n\nmain.go:\n%s", err, unit.Source)
	}

	binPath := filepath.Join(t.TempDir(), unit.Name)
	build := exec.Command("go", "build", "-o", binPath, ".")
	build.Dir = projectDir
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("build generated CLI: %v\n%s\n\nmain.go:\n%s", err, out, unit.Source)
	}
	return binPath
}

func runTool(t *testing.T, bin string, args ...string) result {
	t.Helper()
	cmd := exec.Command(bin, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := result{stdout: stdout.String(), stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		res.code = exitErr.ExitCode()
	case err != nil:
		t.Fatalf("run %v: %v", args, err)
	}
	return res
}

func TestGeneratedNamespaceTool(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	pkg, err := goload.Load(context.Background(), goload.Config{Dir: projectRoot(t)}, "./e2e/fixture/strutil")
	require.NoError(t, err)
	unit, err := codegen.Assemble(codegen.Target{Namespace: pkg}, codegen.Options{Recurse: true})
	require.NoError(t, err)

	require.Len(t, unit.Skipped, 1)
	assert.Equal(t, "strutil.Map", unit.Skipped[0].Name)
	assert.Contains(t, unit.Modules, "github.com/thellimist/cligen")

	bin := buildTool(t, unit)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"tab", []string{"tab", "Hello"}, "\tHello\n"},
		{"untab", []string{"untab", "\tHello"}, "Hello\n"},
		{"shift", []string{"shift", "7"}, "14\n"},
		{"negative positional", []string{"offset", "-5"}, "-4\n"},
		{"negative option", []string{"offset", "-5", "--by", "-3"}, "-8\n"},
		{"list default", []string{"tags"}, "1:[\"none\"]\n"},
		{"bare list", []string{"tags", "--tags"}, "0:[]\n"},
		{"list keeps commas", []string{"tags", "--tags", "a,b"}, "1:[\"a,b\"]\n"},
		{"list keeps quotes", []string{"tags", "--tags", `say "hi"`}, "1:[\"say \\\"hi\\\"\"]\n"},
		{"repeated list", []string{"tags", "--tags", "x", "--tags", "y"}, "2:[\"x\" \"y\"]\n"},
		{"list takes following values", []string{"tags", "--tags", "x", "y"}, "2:[\"x\" \"y\"]\n"},
		{"greet defaults", []string{"greet"}, "Hello, World!\n"},
		{"greet options", []string{"greet", "--hello", "Hi", "--world", "there"}, "Hi, there\n"},
		{"repeat", []string{"repeat", "ab", "--count", "3", "--sep", "-"}, "ab-ab-ab\n"},
		{"repeat defaults", []string{"repeat", "ab"}, "ab ab\n"},
		{"join", []string{"join", "a", "b", "c"}, "a,b,c\n"},
		{"join sep", []string{"join", "--sep", "+", "a", "b"}, "a+b\n"},
		{"join nothing", []string{"join"}, "\n"},
		{"case default", []string{"case", "Hello"}, "HELLO\n"},
		{"case lower", []string{"case", "Hello", "--mode", "lower"}, "hello\n"},
		{"case trim", []string{"case", "  Hi  ", "--trim"}, "HI\n"},
		{"keys", []string{"keys", "--fields", `{"b":1,"a":2}`}, "a,b\n"},
		{"keys default", []string{"keys"}, "\n"},
		{"nested", []string{"wrap.fill", "aaa bbb ccc", "--width", "7"}, "aaa bbb\nccc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runTool(t, bin, tt.args...)
			require.Equal(t, 0, res.code, "stderr: %s", res.stderr)
			assert.Equal(t, tt.want, res.stdout)
		})
	}

	failures := []struct {
		name   string
		args   []string
		code   int
		stderr string
	}{
		{"unknown command", []string{"bogus"}, 1, "Unrecognized command!"},
		{"ignored function", []string{"debug"}, 1, "Unrecognized command!"},
		{"no arguments", nil, 2, "Usage: strutil <command>"},
		{"missing positional", []string{"tab"}, 2, "accepts 1 arg(s)"},
		{"bad integer", []string{"repeat", "ab", "--count", "many"}, 2, "invalid argument"},
		{"function error", []string{"repeat", "ab", "--count", "-1"}, 2, "count must not be negative"},
		{"uint8 overflow", []string{"shift", "300"}, 2, `<level>: invalid uint8 "300"`},
		{"negative uint8", []string{"shift", "-1"}, 2, `<level>: invalid uint8 "-1"`},
		{"int8 option overflow", []string{"offset", "1", "--by", "200"}, 2, "invalid argument"},
		{"bad JSON", []string{"keys", "--fields", "nope"}, 2, "--fields: invalid JSON object"},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			res := runTool(t, bin, tt.args...)
			assert.Equal(t, tt.code, res.code)
			assert.Contains(t, res.stderr, tt.stderr)
		})
	}

	t.Run("help", func(t *testing.T) {
		res := runTool(t, bin, "--help")
		require.Equal(t, 0, res.code)
		assert.Contains(t, res.stdout, "wrap.fill")
		assert.Contains(t, res.stdout, "Greet joins a greeting and a subject.")

		res = runTool(t, bin, "greet", "--help")
		require.Equal(t, 0, res.code)
		assert.Contains(t, res.stdout, "the greeting word")
	})
}

func TestGeneratedSingleFunctionTool(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	pkg, err := goload.Load(context.Background(), goload.Config{Dir: projectRoot(t)}, "./e2e/fixture/scripts")
	require.NoError(t, err)
	fn, err := pkg.Function("Shout")
	require.NoError(t, err)

	unit, err := codegen.Assemble(codegen.Target{Callable: fn}, codegen.Options{Version: "0.1.0"})
	require.NoError(t, err)
	require.True(t, unit.Commands[0].Embedded)
	assert.Empty(t, unit.Modules)

	bin := buildTool(t, unit)

	res := runTool(t, bin, "hey", "--marks", "3")
	require.Equal(t, 0, res.code, "stderr: %s", res.stderr)
	assert.Equal(t, "HEY!!!\n", res.stdout)

	res = runTool(t, bin, "--version")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "0.1.0")

	res = runTool(t, bin)
	assert.Equal(t, 2, res.code)
}

func TestGeneratedManifestTool(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	ns, err := manifest.Load(filepath.Join(projectRoot(t), "e2e", "fixture", "textkit.yaml"))
	require.NoError(t, err)
	unit, err := codegen.Assemble(codegen.Target{Namespace: ns}, codegen.Options{})
	require.NoError(t, err)
	require.Len(t, unit.Skipped, 1)

	bin := buildTool(t, unit)

	res := runTool(t, bin, "count", "one two  three")
	require.Equal(t, 0, res.code, "stderr: %s", res.stderr)
	assert.Equal(t, "3\n", res.stdout)

	res = runTool(t, bin, "scale", "1", "2.5")
	require.Equal(t, 0, res.code, "stderr: %s", res.stderr)
	assert.Equal(t, "7\n", res.stdout)

	res = runTool(t, bin, "scale", "1", "x")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, `<values>: invalid number "x"`)

	res = runTool(t, bin, "scale", "-1", "2")
	require.Equal(t, 0, res.code, "stderr: %s", res.stderr)
	assert.Equal(t, "2\n", res.stdout)
}

func projectRoot(t *testing.T) string {
	t.Helper()
	// Walk up from this test file to find go.mod
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

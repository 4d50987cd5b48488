package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const textkit = `name: textkit
import: example.com/textkit
functions:
  - name: Search
    doc: Search finds matching lines.
    results: [string]
    params:
      - name: query
        type: string
      - name: limit
        default: 10
  - name: Count
    results: [int]
    params:
      - name: text
        type: string
`

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(newApp(&stdout, &stderr))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTextkit(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "textkit.yaml"), []byte(textkit), 0o644))
	return dir
}

func TestGeneratePrintsSource(t *testing.T) {
	dir := writeTextkit(t)
	stdout, stderr, err := run(t, "generate", "--manifest", filepath.Join(dir, "textkit.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "package main")
	assert.Contains(t, stdout, `"search": runSearch`)
	assert.Contains(t, stderr, "generated textkit (namespace mode): 2 commands, 0 skipped")
}

func TestGenerateOverridesFromFlags(t *testing.T) {
	dir := writeTextkit(t)
	stdout, _, err := run(t, "generate", "--manifest", filepath.Join(dir, "textkit.yaml"),
		"--type", "Search.limit=float",
		"--param-help", "limit=max results",
		"--describe", "Count=Count words, lines and bytes.",
		"--ignore-functions", "Nothing",
		"--quiet")
	require.NoError(t, err)
	assert.Contains(t, stdout, `cmd.Flags().Float64Var(&flagLimit, "limit", 10, "max results")`)
	assert.Contains(t, stdout, `"Count words, lines and bytes."`)
}

func TestGenerateSingleFunction(t *testing.T) {
	dir := writeTextkit(t)
	stdout, _, err := run(t, "generate", "--manifest", filepath.Join(dir, "textkit.yaml"), "--func", "Count", "--name", "wc")
	require.NoError(t, err)
	assert.Contains(t, stdout, `toolName        = "wc"`)
	assert.NotContains(t, stdout, "var commands")
}

func TestGenerateWritesProject(t *testing.T) {
	dir := writeTextkit(t)
	out := filepath.Join(t.TempDir(), "project")
	stdout, _, err := run(t, "generate", "--manifest", filepath.Join(dir, "textkit.yaml"),
		"--output", out, "--standalone", "--skip-tidy", "--module", "example.com/textkit-cli")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.FileExists(t, filepath.Join(out, "main.go"))

	mod, err := os.ReadFile(filepath.Join(out, "go.mod"))
	require.NoError(t, err)
	assert.Contains(t, string(mod), "module example.com/textkit-cli\n")
}

func TestConfigFileAndEnvironment(t *testing.T) {
	dir := writeTextkit(t)
	config := filepath.Join(dir, "cligen.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`manifest: `+filepath.Join(dir, "textkit.yaml")+`
ignore-functions: Count
descriptions:
  textkit.Search: Search the text kit.
`), 0o644))
	t.Setenv("CLIGEN_NAME", "tk")

	stdout, _, err := run(t, "generate", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, stdout, `toolName        = "tk"`)
	assert.Contains(t, stdout, `"Search the text kit."`)
	assert.NotContains(t, stdout, "runCount")
}

func TestVerboseAndQuietConflict(t *testing.T) {
	dir := writeTextkit(t)
	_, _, err := run(t, "generate", "--manifest", filepath.Join(dir, "textkit.yaml"), "--verbose", "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be used together")
}

func TestGenerateErrors(t *testing.T) {
	dir := writeTextkit(t)
	manifest := filepath.Join(dir, "textkit.yaml")
	tests := map[string][]string{
		"bad type entry":    {"generate", "--manifest", manifest, "--type", "limit"},
		"unknown type":      {"generate", "--manifest", manifest, "--type", "limit=decimal"},
		"unknown function":  {"generate", "--manifest", manifest, "--func", "Nope"},
		"package and file":  {"generate", "./pkg", "--manifest", manifest},
		"missing config":    {"generate", "--config", filepath.Join(dir, "missing.yaml")},
		"bad build flags":   {"generate", "--manifest", manifest, "--build-flags", `-ldflags "-s`},
		"too many packages": {"generate", "a", "b"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := run(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cligen version: dev")

	stdout, _, err = run(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "cligen vdev\n", stdout)
}

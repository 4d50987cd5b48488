package codegen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"text/template"
)

// ProjectOptions control how a unit is written to disk.
type ProjectOptions struct {
	// Standalone writes a go.mod next to main.go so the tool builds on its
	// own. Without it only main.go is written, for a directory inside an
	// existing module.
	Standalone bool
	Module     string // module path of a standalone project, defaults to the tool name
	GoVersion  string // go directive, defaults to the version cligen was built with
	SkipTidy   bool   // do not run go mod tidy after writing go.mod
}

const (
	defaultGoVersion = "1.22"
	cobraVersion     = "v1.10.2"
	localVersion     = "v0.0.0-00010101000000-000000000000"
)

type goModData struct {
	Module    string
	GoVersion string
	Cobra     string
	Local     []localModule
}

type localModule struct {
	Path    string
	Dir     string
	Version string
}

var goModTemplate = template.Must(template.New("go.mod").Parse(goModTemplateSource))

const goModTemplateSource = `module {{.Module}}

go {{.GoVersion}}

require github.com/spf13/cobra {{.Cobra}}
{{- range .Local}}

require {{.Path}} {{.Version}}

replace {{.Path}} => {{.Dir}}
{{- end}}
`

var releaseVersion = regexp.MustCompile(`^go(1\.[0-9]+(\.[0-9]+)?)`)

// toolchainVersion is the release this binary was built with. Local modules
// loaded by it need at most that version.
func toolchainVersion() string {
	if m := releaseVersion.FindStringSubmatch(runtime.Version()); m != nil {
		return m[1]
	}
	return defaultGoVersion
}

// WriteProject writes the unit into dir and returns the project directory.
// If dir is empty, a temporary directory is created.
func WriteProject(ctx context.Context, dir string, unit *Unit, opts ProjectOptions) (string, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "cligen-*")
		if err != nil {
			return "", fmt.Errorf("create temp dir: %w", err)
		}
		dir = tmp
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "main.go"), unit.Source, 0o644); err != nil {
		return dir, fmt.Errorf("write main.go: %w", err)
	}
	if !opts.Standalone {
		return dir, nil
	}

	data := goModData{
		Module:    opts.Module,
		GoVersion: opts.GoVersion,
		Cobra:     cobraVersion,
	}
	if data.Module == "" {
		data.Module = unit.Name
	}
	if data.GoVersion == "" {
		data.GoVersion = toolchainVersion()
	}
	for path, m := range unit.Modules {
		if m == nil || m.Dir == "" {
			continue
		}
		abs, err := filepath.Abs(m.Dir)
		if err != nil {
			return dir, fmt.Errorf("resolve module dir of %s: %w", path, err)
		}
		data.Local = append(data.Local, localModule{Path: path, Dir: abs, Version: localVersion})
	}
	sort.Slice(data.Local, func(i, j int) bool { return data.Local[i].Path < data.Local[j].Path })

	modFile, err := os.Create(filepath.Join(dir, "go.mod"))
	if err != nil {
		return dir, fmt.Errorf("create go.mod: %w", err)
	}
	defer modFile.Close()
	if err := goModTemplate.Execute(modFile, data); err != nil {
		return dir, fmt.Errorf("render go.mod template: %w", err)
	}
	if err := modFile.Close(); err != nil {
		return dir, fmt.Errorf("write go.mod: %w", err)
	}

	if opts.SkipTidy {
		return dir, nil
	}
	tidyCmd := exec.CommandContext(ctx, "go", "mod", "tidy")
	tidyCmd.Dir = dir
	if out, err := tidyCmd.CombinedOutput(); err != nil {
		return dir, fmt.Errorf("go mod tidy failed: %s\n%s", err, string(out))
	}
	return dir, nil
}

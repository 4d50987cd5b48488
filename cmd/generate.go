package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thellimist/cligen/internal/codegen"
	"github.com/thellimist/cligen/internal/compile"
	"github.com/thellimist/cligen/internal/gocheck"
	"github.com/thellimist/cligen/internal/memberfilter"
	"github.com/thellimist/cligen/internal/overrides"
	"github.com/thellimist/cligen/internal/target"
)

// generateKeys are the generate flags that can also be set in the config
// file or through CLIGEN_ environment variables.
var generateKeys = []string{
	"manifest", "func", "dir", "name", "description", "library", "tool-version",
	"recurse", "ignore-functions", "ignore-modules", "overrides", "strict",
	"output", "standalone", "module", "skip-tidy",
	"build", "platform", "bin-dir", "build-flags",
}

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [package]",
		Short: "Generate a CLI from a Go package, a manifest or one function",
		Long: `Generate the source of a cobra command-line tool.

The callables come from a Go package (the argument, "." by default) or from a
manifest. Every exported function becomes a command; --func selects a
single function and generates a tool without subcommands.

Without --output the generated main.go is printed. With --output a project
directory is written, and --build compiles it.

Examples:
  # Print a tool for the package in the current directory
  cligen generate

  # One command per function of strutil and its nested packages
  cligen generate ./strutil --recurse --output ./strutil-cli --standalone

  # A single-function tool, compiled for two platforms
  cligen generate ./strutil --func Greet --build --platform linux/amd64,darwin/arm64

  # From a manifest, overriding a parameter type and help text
  cligen generate --manifest textkit.yaml --type Search.limit=integer --param-help limit="max results"`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runGenerate,
	}

	f := cmd.Flags()
	f.String("manifest", "", "YAML or JSON manifest describing the callables, instead of a Go package")
	f.String("func", "", "generate a single-command tool for this function (dotted for nested packages, e.g. wrap.Fill)")
	f.String("dir", "", "working directory for loading Go packages")
	f.String("name", "", "override the inferred name of the generated tool")
	f.String("description", "", "description of the generated tool")
	f.String("library", "", "library name used in the default description")
	f.String("tool-version", "", "version printed by the generated tool's --version")
	f.Bool("recurse", false, "include functions of nested packages or namespaces")
	f.String("ignore-functions", "", "functions to leave out (comma-separated, bare or dotted names)")
	f.String("ignore-modules", "", "nested packages or namespaces to leave out (comma-separated)")
	f.StringArray("import", nil, `extra import for the generated file, "path" or 'alias "path"' (repeatable)`)
	f.StringArray("type", nil, "parameter type override, key=type (repeatable)")
	f.StringArray("param-help", nil, "parameter help override, key=text (repeatable)")
	f.StringArray("describe", nil, "command description override, function=text (repeatable)")
	f.String("overrides", "", "YAML or JSON file with types, help and descriptions sections")
	f.Bool("strict", false, "fail on the first function that cannot become a command instead of skipping it")
	f.String("output", "", "directory to write the generated project to (default: print main.go)")
	f.Bool("standalone", false, "write a go.mod so the project builds on its own")
	f.String("module", "", "module path of a standalone project (default: the tool name)")
	f.Bool("skip-tidy", false, "do not run go mod tidy in a standalone project")
	f.Bool("build", false, "compile the generated project")
	f.String("platform", "native", "comma-separated GOOS/GOARCH pairs, 'native' or 'all'")
	f.String("bin-dir", "./out/", "directory where compiled binaries are written")
	f.String("build-flags", "", "extra go command flags, split like a shell would, e.g. \"-ldflags '-s -w'\"")
	a.bindOnRun(cmd, generateKeys...)
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	build := a.cfg.GetBool("build")

	if build {
		a.log.Debug("checking Go toolchain")
		goVersion, err := gocheck.Check(ctx)
		if err != nil {
			return err
		}
		a.log.Debugf("found %s", goVersion)
	}

	buildFlags, err := compile.ParseBuildFlags(a.cfg.GetString("build-flags"))
	if err != nil {
		return err
	}

	pkg := ""
	if len(args) == 1 {
		pkg = args[0]
	}
	manifestPath := a.cfg.GetString("manifest")
	if pkg == "" && manifestPath == "" {
		pkg = "."
	}

	a.log.WithField("package", pkg).WithField("manifest", manifestPath).Debug("loading callables")
	t, err := target.Resolve(ctx, target.Spec{
		Dir:        a.cfg.GetString("dir"),
		Package:    pkg,
		Manifest:   manifestPath,
		Function:   a.cfg.GetString("func"),
		BuildFlags: buildFlags,
		Log:        a.log,
	})
	if err != nil {
		return err
	}

	ov, err := a.loadOverrides(cmd)
	if err != nil {
		return err
	}
	imports, err := cmd.Flags().GetStringArray("import")
	if err != nil {
		return err
	}

	unit, err := codegen.Assemble(t, codegen.Options{
		Name:            a.cfg.GetString("name"),
		Description:     a.cfg.GetString("description"),
		Library:         a.cfg.GetString("library"),
		Version:         a.cfg.GetString("tool-version"),
		Overrides:       *ov,
		IgnoreFunctions: memberfilter.ParseList(a.cfg.GetString("ignore-functions")),
		IgnoreModules:   memberfilter.ParseList(a.cfg.GetString("ignore-modules")),
		Recurse:         a.cfg.GetBool("recurse"),
		Imports:         imports,
		Strict:          a.cfg.GetBool("strict"),
		Log:             a.log,
		Header:          "cligen " + appVersion,
	})
	if err != nil {
		return err
	}
	for _, c := range unit.Commands {
		a.log.WithField("command", c.Name).WithField("embedded", c.Embedded).Debug(c.Description)
	}
	a.log.Infof("generated %s (%s mode): %d commands, %d skipped", unit.Name, unit.Mode, len(unit.Commands), len(unit.Skipped))

	output := a.cfg.GetString("output")
	if output == "" && !build {
		_, err := a.stdout.Write(unit.Source)
		return err
	}

	dir, err := codegen.WriteProject(ctx, output, unit, codegen.ProjectOptions{
		Standalone: a.cfg.GetBool("standalone") || output == "",
		Module:     a.cfg.GetString("module"),
		SkipTidy:   a.cfg.GetBool("skip-tidy"),
	})
	if err != nil {
		return err
	}
	a.log.WithField("dir", dir).Info("wrote project")
	if !build {
		return nil
	}

	platforms, err := compile.ParsePlatforms(a.cfg.GetString("platform"))
	if err != nil {
		return err
	}
	for _, p := range platforms {
		a.log.Debugf("compiling for %s", p)
		bin, err := compile.Compile(ctx, dir, a.cfg.GetString("bin-dir"), unit.Name, p, compile.Options{
			BuildFlags:    buildFlags,
			MultiPlatform: len(platforms) > 1,
			Log:           a.log,
		})
		if err != nil {
			return err
		}
		if p.Native() {
			if err := compile.SmokeTest(ctx, bin); err != nil {
				return err
			}
		}
		a.log.WithField("platform", p.String()).Infof("built %s", bin)
	}
	return nil
}

// loadOverrides merges, from lowest to highest precedence, the override
// sections of the config file, the --overrides file and the flag entries.
func (a *app) loadOverrides(cmd *cobra.Command) (*overrides.Overrides, error) {
	var merged *overrides.Overrides
	for _, path := range []string{a.cfg.ConfigFileUsed(), a.cfg.GetString("overrides")} {
		if path == "" {
			continue
		}
		o, err := overrides.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load overrides from %s: %w", path, err)
		}
		merged = overrides.Merge(merged, o)
	}

	flags := cmd.Flags()
	var entries [3][]string
	for i, name := range []string{"type", "param-help", "describe"} {
		v, err := flags.GetStringArray(name)
		if err != nil {
			return nil, err
		}
		entries[i] = v
	}
	fromFlags, err := overrides.FromEntries(entries[0], entries[1], entries[2])
	if err != nil {
		return nil, err
	}
	return overrides.Merge(merged, fromFlags), nil
}

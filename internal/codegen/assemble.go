package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/thellimist/cligen/internal/argspec"
	"github.com/thellimist/cligen/internal/callable"
	"github.com/thellimist/cligen/internal/nameutil"
	"github.com/thellimist/cligen/internal/resolve"
	"github.com/thellimist/cligen/internal/walker"
)

// Assemble generates the tool for target.
func Assemble(target Target, opts Options) (*Unit, error) {
	if (target.Namespace == nil) == (target.Callable == nil) {
		return nil, fmt.Errorf("codegen: %w", ErrInvalidTarget)
	}
	log := opts.Log
	if log == nil {
		log = discardLogger()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = CobraRenderer{}
	}

	a := &assembler{
		opts:     opts,
		log:      log,
		resolver: resolve.New(&opts.Overrides),
		scope:    newScope(),
		seenDecl: map[string]bool{},
		modules:  map[string]*callable.Module{},
	}

	var entries []walker.Command
	if target.Namespace != nil {
		a.mode = NamespaceMode
		w := walker.New(walker.Options{
			IgnoreFunctions: opts.IgnoreFunctions,
			IgnoreModules:   opts.IgnoreModules,
			Recurse:         opts.Recurse,
		})
		tree, err := w.Walk(target.Namespace)
		if err != nil {
			return nil, fmt.Errorf("codegen: %w", err)
		}
		for _, warning := range w.Unmatched() {
			log.Warn(warning)
		}
		entries = tree.Commands()
		a.name = opts.Name
		if a.name == "" {
			a.name = target.Namespace.Path()
		}
	} else {
		a.mode = SingleMode
		entries = []walker.Command{{Path: []string{target.Callable.Name}, Callable: target.Callable}}
		a.name = opts.Name
		if a.name == "" {
			a.name = target.Callable.Name
		}
	}

	if opts.Name == "" {
		a.name = nameutil.InferName(a.name)
	}
	if a.name == "" {
		return nil, fmt.Errorf("codegen: cannot derive a tool name, set one explicitly")
	}
	library := opts.Library
	if library == "" {
		library = a.name
	}
	a.description = opts.Description
	if a.description == "" {
		a.description = "A CLI tool for " + library
	}

	if err := a.addImports(opts.Imports); err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}

	unit := &Unit{Name: a.name, Mode: a.mode, Modules: a.modules}
	for _, e := range entries {
		cmd, err := a.add(e.Path, e.Callable)
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("codegen: %s: %w", e.Callable.QualifiedName(), err)
			}
			log.WithField("callable", e.Callable.QualifiedName()).WithError(err).Warn("skipping callable")
			unit.Skipped = append(unit.Skipped, Skipped{Name: e.Callable.QualifiedName(), Err: err})
			continue
		}
		unit.Commands = append(unit.Commands, cmd)
	}
	if len(unit.Commands) == 0 {
		return nil, fmt.Errorf("codegen: %s: %w", a.name, ErrNoCommands)
	}

	file := a.file()
	for _, line := range file.Imports {
		unit.Imports = append(unit.Imports, line.Path)
	}
	sort.Strings(unit.Imports)

	var buf bytes.Buffer
	if err := renderer.Render(&buf, file); err != nil {
		return nil, fmt.Errorf("codegen: render: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("codegen: generated source does not parse: %w\n%s", err, buf.String())
	}
	unit.Source = src

	log.WithFields(logrus.Fields{
		"tool":     a.name,
		"mode":     a.mode.String(),
		"commands": len(unit.Commands),
		"skipped":  len(unit.Skipped),
	}).Debug("assembled tool")
	return unit, nil
}

type assembler struct {
	opts        Options
	log         logrus.FieldLogger
	resolver    *resolve.Resolver
	mode        Mode
	name        string
	description string

	scope    *scope
	commands []CommandCode
	embedded []string
	seenDecl map[string]bool
	modules  map[string]*callable.Module

	needJSON bool
}

func (a *assembler) addImports(specs []string) error {
	for _, spec := range specs {
		explicit := strings.ContainsAny(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(spec), "import ")), " \t")
		imp, err := callable.ParseImport(spec)
		if err != nil {
			return err
		}
		if !explicit {
			imp.Name = "_"
		}
		if err := a.scope.exact(imp); err != nil {
			return fmt.Errorf("import %s: %w", spec, err)
		}
	}
	return nil
}

// add builds one command. Allocations go to a copy of the scope that
// replaces the original only when the command is accepted.
func (a *assembler) add(path []string, c *callable.Callable) (Command, error) {
	descs, err := argspec.BuildAll(c, a.resolver)
	if err != nil {
		return Command{}, err
	}

	cmd := Command{
		Path:        path,
		Callable:    c,
		Description: a.resolver.Describe(c),
		Args:        descs,
	}
	switch a.mode {
	case SingleMode:
		cmd.Name = a.name
		cmd.ID = a.name
		if cmd.Description == "" {
			cmd.Description = a.description
		}
	default:
		parts := make([]string, len(path))
		for i, p := range path {
			parts[i] = argspec.FlagName(p)
		}
		cmd.Name = strings.Join(parts, ".")
		cmd.ID = strings.ReplaceAll(cmd.Name, ".", "_")
	}

	sc := a.scope.clone()
	funcName := "run"
	if a.mode == NamespaceMode {
		funcName = nameutil.Identifier("run", cmd.ID)
	}
	if err := sc.declare(funcName); err != nil {
		return Command{}, err
	}
	for _, existing := range a.commands {
		if existing.ID == cmd.ID {
			return Command{}, fmt.Errorf("%w: command %s is generated twice", ErrNameConflict, cmd.Name)
		}
	}

	var decls []string
	var callee string
	switch {
	case c.Importable():
		callee = sc.alias(callable.Import{Path: c.ImportPath, Name: c.PackageName}) + "." + c.Name
	case c.Source != "":
		cmd.Embedded = true
		callee = c.Name
		if decls, err = a.embed(sc, c); err != nil {
			return Command{}, err
		}
	default:
		cmd.Embedded, cmd.Stub = true, true
		callee = c.Name
		stub, err := stubSource(sc, c, descs)
		if err != nil {
			return Command{}, err
		}
		if err := sc.declare(c.Name); err != nil {
			return Command{}, err
		}
		decls = []string{stub}
		a.log.WithField("callable", c.QualifiedName()).Warn("source not available, embedding a stub that panics when run")
	}

	g := &bodyGen{scope: sc, locals: map[string]bool{}}
	code, err := g.command(cmd, funcName, callee)
	if err != nil {
		return Command{}, err
	}

	a.scope = sc
	a.commands = append(a.commands, code)
	for _, d := range decls {
		if !a.seenDecl[d] {
			a.seenDecl[d] = true
			a.embedded = append(a.embedded, d)
		}
	}
	a.needJSON = a.needJSON || g.needJSON
	if c.Importable() && c.Module != nil {
		a.modules[c.Module.Path] = c.Module
	}
	return cmd, nil
}

// embed claims the imports and names of a callable's recovered source and
// returns the declarations not already part of the file.
func (a *assembler) embed(sc *scope, c *callable.Callable) ([]string, error) {
	for _, imp := range c.SourceImports {
		if err := sc.exact(imp); err != nil {
			return nil, err
		}
	}
	var out []string
	for i, src := range append([]string{c.Source}, c.SourceDeps...) {
		if a.seenDecl[src] {
			continue
		}
		names, err := topLevelNames(src)
		if err != nil {
			return nil, fmt.Errorf("embedded source of %s: %w", c.Name, err)
		}
		if i == 0 && !contains(names, c.Name) {
			return nil, fmt.Errorf("embedded source does not declare %s", c.Name)
		}
		for _, n := range names {
			if err := sc.declare(n); err != nil {
				return nil, err
			}
		}
		out = append(out, src)
	}
	return out, nil
}

// stubSource renders a function with the callable's signature that panics.
func stubSource(sc *scope, c *callable.Callable, descs []argspec.Descriptor) (string, error) {
	params := make([]string, len(descs))
	for i, d := range descs {
		t, refs := d.GoType, d.Imports
		if t == "" {
			t, refs = d.NaturalGoType(), nil
		}
		if d.Variadic {
			t = "..." + strings.TrimPrefix(t, "[]")
		}
		q, err := sc.requalify(t, refs)
		if err != nil {
			return "", err
		}
		params[i] = "_ " + q
	}
	results := make([]string, len(c.Results))
	for i, r := range c.Results {
		q, err := sc.requalify(r, c.ResultRefs)
		if err != nil {
			return "", err
		}
		results[i] = q
	}
	sig := "(" + strings.Join(params, ", ") + ")"
	switch len(results) {
	case 0:
	case 1:
		sig += " " + results[0]
	default:
		sig += " (" + strings.Join(results, ", ") + ")"
	}
	return fmt.Sprintf("func %s%s {\n\tpanic(%q)\n}\n", c.Name, sig,
		"the source of "+c.QualifiedName()+" was not available when this tool was generated"), nil
}

func (a *assembler) file() *File {
	f := &File{
		Header:      a.opts.Header,
		Name:        a.name,
		Description: a.description,
		Version:     a.opts.Version,
		Dispatcher:  a.mode == NamespaceMode,
		Commands:    a.commands,
		Embedded:    a.embedded,
	}

	lines := []ImportLine{{Path: "fmt"}, {Path: "os"}, {Path: "github.com/spf13/cobra"}}
	runtime := map[string]bool{
		"encoding/json": a.needJSON,
		"strconv":       true,
		"strings":       f.Dispatcher,
	}
	for p, needed := range runtime {
		if needed || a.scope.used[p] {
			lines = append(lines, ImportLine{Path: p})
		}
	}
	lines = append(lines, a.scope.lines()...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].Path < lines[j].Path })

	for _, line := range lines {
		if isStd(line.Path) {
			f.Std = append(f.Std, line)
		} else {
			f.Third = append(f.Third, line)
		}
		f.Imports = append(f.Imports, line)
	}
	return f
}

// isStd reports whether an import path belongs to the standard library,
// whose first element has no dot.
func isStd(p string) bool {
	first, _, _ := strings.Cut(p, "/")
	return !strings.Contains(first, ".")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

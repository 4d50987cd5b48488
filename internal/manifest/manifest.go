// Package manifest reads YAML or JSON documents that describe callables
// explicitly, for functions whose signatures cannot be introspected or that
// live outside a loadable Go package.
package manifest

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thellimist/cligen/internal/callable"
)

var ErrInvalid = errors.New("invalid manifest")

// Document is one namespace. Nested namespaces repeat the same shape.
type Document struct {
	Name       string     `yaml:"name"`
	Import     string     `yaml:"import"`
	Package    string     `yaml:"package"`
	Module     string     `yaml:"module"`
	ModuleDir  string     `yaml:"moduleDir"`
	Functions  []Function `yaml:"functions"`
	Namespaces []Document `yaml:"namespaces"`
}

// Function describes one callable. Params and InputSchema are alternatives.
type Function struct {
	Name          string         `yaml:"name"`
	Doc           string         `yaml:"doc"`
	Ignore        bool           `yaml:"ignore"`
	Source        string         `yaml:"source"`
	Imports       []string       `yaml:"imports"`
	Results       []string       `yaml:"results"`
	Params        []Param        `yaml:"params"`
	InputSchema   map[string]any `yaml:"inputSchema"`
	NoSignature   bool           `yaml:"noSignature"`
	SourceImports []string       `yaml:"sourceImports"`
}

// Param describes one parameter. A parameter without a default is required.
type Param struct {
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
	Elem     string    `yaml:"elem"`
	GoType   string    `yaml:"goType"`
	Help     string    `yaml:"help"`
	Default  yaml.Node `yaml:"default"`
	Required bool      `yaml:"required"`
	Receiver bool      `yaml:"receiver"`
	Variadic bool      `yaml:"variadic"`
}

// Load reads a manifest file. A relative moduleDir is resolved against the
// directory of the file.
func Load(path string) (*callable.Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a manifest. baseDir resolves relative module directories.
func Parse(data []byte, baseDir string) (*callable.Static, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return doc.Namespace(baseDir)
}

// Namespace converts the document into an in-memory namespace.
func (d *Document) Namespace(baseDir string) (*callable.Static, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("manifest: %w: name is required", ErrInvalid)
	}
	return d.build("", baseDir, nil)
}

func (d *Document) build(parent, baseDir string, inherited *callable.Module) (*callable.Static, error) {
	if d.Name == "" || strings.Contains(d.Name, ".") {
		return nil, fmt.Errorf("manifest: %w: namespace name %q", ErrInvalid, d.Name)
	}
	path := d.Name
	if parent != "" {
		path = parent + "." + d.Name
	}

	pkgName := d.Package
	if pkgName == "" && d.Import != "" {
		pkgName = callable.DefaultPackageName(d.Import)
	}
	if d.Import != "" && !token.IsIdentifier(pkgName) {
		return nil, fmt.Errorf("manifest: %s: %w: package %q is not an identifier", path, ErrInvalid, pkgName)
	}

	module := inherited
	if d.Module != "" {
		dir := d.ModuleDir
		if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		module = &callable.Module{Path: d.Module, Dir: dir}
	}

	ns := &callable.Static{Name: path, Import: d.Import}
	seen := map[string]bool{}
	for i, fn := range d.Functions {
		if fn.Name == "" {
			return nil, fmt.Errorf("manifest: %s: functions[%d]: %w: name is required", path, i, ErrInvalid)
		}
		if seen[fn.Name] {
			return nil, fmt.Errorf("manifest: %s: %w: duplicate member %q", path, ErrInvalid, fn.Name)
		}
		seen[fn.Name] = true
		if fn.Ignore {
			ns.Entries = append(ns.Entries, callable.Member{Name: fn.Name, Ignored: true})
			continue
		}
		c, err := fn.callable(path, d.Import, pkgName, module)
		if err != nil {
			return nil, fmt.Errorf("manifest: %s.%s: %w", path, fn.Name, err)
		}
		ns.AddCallable(c)
	}
	for i := range d.Namespaces {
		sub := &d.Namespaces[i]
		if seen[sub.Name] {
			return nil, fmt.Errorf("manifest: %s: %w: duplicate member %q", path, ErrInvalid, sub.Name)
		}
		seen[sub.Name] = true
		child, err := sub.build(path, baseDir, module)
		if err != nil {
			return nil, err
		}
		ns.AddNamespace(sub.Name, child)
	}
	return ns, nil
}

func (f *Function) callable(namespace, importPath, pkgName string, module *callable.Module) (*callable.Callable, error) {
	c := &callable.Callable{
		Name:        f.Name,
		Namespace:   namespace,
		ImportPath:  importPath,
		PackageName: pkgName,
		Doc:         f.Doc,
		Results:     f.Results,
		Source:      f.Source,
	}
	if importPath != "" {
		c.Module = module
	}

	refs, err := parseImports(f.Imports)
	if err != nil {
		return nil, err
	}
	if c.SourceImports, err = parseImports(f.SourceImports); err != nil {
		return nil, err
	}
	for _, r := range f.Results {
		c.ResultRefs = append(c.ResultRefs, referenced(r, refs)...)
	}

	if f.NoSignature {
		c.SignatureErr = errors.New("signature not described")
		return c, nil
	}

	switch {
	case f.InputSchema != nil && len(f.Params) > 0:
		return nil, fmt.Errorf("%w: params and inputSchema are exclusive", ErrInvalid)
	case f.InputSchema != nil:
		if c.Params, err = paramsFromSchema(f.InputSchema); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return c, nil
	}

	c.Params = make([]callable.Param, 0, len(f.Params))
	for i, p := range f.Params {
		param, err := p.param(i, refs)
		if err != nil {
			return nil, fmt.Errorf("params[%d]: %w", i, err)
		}
		if param.Variadic && i != len(f.Params)-1 {
			return nil, fmt.Errorf("%w: variadic parameter %q is not last", ErrInvalid, p.Name)
		}
		c.Params = append(c.Params, param)
	}
	return c, nil
}

func (p *Param) param(position int, refs []callable.Import) (callable.Param, error) {
	if p.Name == "" {
		return callable.Param{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	out := callable.Param{
		Name:     p.Name,
		Position: position,
		GoType:   p.GoType,
		Help:     p.Help,
		Receiver: p.Receiver,
		Variadic: p.Variadic,
		Imports:  referenced(p.GoType, refs),
	}

	var err error
	if p.Type != "" {
		if out.Tag, err = callable.ParseTag(p.Type); err != nil {
			return callable.Param{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if p.Elem != "" {
		if out.Elem, err = callable.ParseTag(p.Elem); err != nil {
			return callable.Param{}, fmt.Errorf("%w: elem: %v", ErrInvalid, err)
		}
	}
	if out.Tag == callable.TagNone && p.GoType != "" {
		out.Tag, out.Elem = builtinTag(p.GoType)
	}
	if p.Variadic && out.Tag == callable.TagNone {
		out.Tag = callable.TagList
	}
	if strings.HasPrefix(p.GoType, "[]") {
		out.ElemType = strings.TrimPrefix(p.GoType, "[]")
	}

	if p.Default.Kind != 0 {
		if p.Required {
			return callable.Param{}, fmt.Errorf("%w: %q is required and has a default", ErrInvalid, p.Name)
		}
		var v any
		if err := p.Default.Decode(&v); err != nil {
			return callable.Param{}, fmt.Errorf("%w: default of %q: %v", ErrInvalid, p.Name, err)
		}
		out.Default = v
		out.HasDefault = true
	}
	return out, nil
}

// builtinTag derives tags from predeclared Go types. Other types are opaque.
func builtinTag(goType string) (callable.TypeTag, callable.TypeTag) {
	if elem, ok := strings.CutPrefix(goType, "[]"); ok {
		if t, _ := builtinTag(elem); t.Scalar() {
			return callable.TagList, t
		}
		return callable.TagNone, callable.TagNone
	}
	if strings.HasPrefix(goType, "map[string]") {
		return callable.TagDict, callable.TagNone
	}
	switch goType {
	case "string":
		return callable.TagString, callable.TagNone
	case "bool":
		return callable.TagBoolean, callable.TagNone
	case "float32", "float64":
		return callable.TagFloat, callable.TagNone
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "byte", "rune":
		return callable.TagInteger, callable.TagNone
	}
	return callable.TagNone, callable.TagNone
}

func parseImports(specs []string) ([]callable.Import, error) {
	var out []callable.Import
	for _, s := range specs {
		imp, err := callable.ParseImport(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		out = append(out, imp)
	}
	return out, nil
}

// referenced returns the imports whose package name appears as a qualifier
// in the type expression.
func referenced(expr string, refs []callable.Import) []callable.Import {
	var out []callable.Import
	for _, r := range refs {
		if strings.Contains(expr, r.Name+".") {
			out = append(out, r)
		}
	}
	return out
}

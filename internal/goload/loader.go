// Package goload exposes Go packages as callable namespaces. Packages are
// loaded with golang.org/x/tools/go/packages; parameter types come from
// go/types and defaults from //cligen: directives.
package goload

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/types"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"

	"github.com/thellimist/cligen/internal/callable"
)

var (
	ErrNoPackage = errors.New("no Go package")
	ErrNotFound  = errors.New("function not found")
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedModule

// Config controls how packages are loaded.
type Config struct {
	Dir        string   // working directory of the go command, "" for the current one
	BuildFlags []string // passed to the go command, e.g. -tags
	Log        logrus.FieldLogger
}

// Package is a loaded Go package. It implements callable.Namespace; its
// members are the exported top-level functions and the packages nested below
// it.
type Package struct {
	path     string // dotted namespace path
	name     string // member name in the parent
	pkg      *packages.Package
	children []*Package
	log      logrus.FieldLogger

	decls *declIndex // built on first source recovery
}

var _ callable.Namespace = (*Package)(nil)

// Load loads pattern and every package below it. pattern is anything the go
// command accepts for a single package: a relative directory or an import
// path.
func Load(ctx context.Context, cfg Config, pattern string) (*Package, error) {
	log := cfg.Log
	if log == nil {
		log = discardLogger()
	}

	pattern = strings.TrimSuffix(strings.TrimSuffix(pattern, "/..."), "/")
	if pattern == "" {
		pattern = "."
	}
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        cfg.Dir,
		BuildFlags: cfg.BuildFlags,
	}, pattern, pattern+"/...")
	if err != nil {
		return nil, fmt.Errorf("goload: loading %s: %w", pattern, err)
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })
	byPath := make(map[string]*Package, len(pkgs))
	var ordered []*Package
	for _, p := range pkgs {
		if _, dup := byPath[p.PkgPath]; dup || p.PkgPath == "" {
			continue
		}
		node := &Package{pkg: p, name: p.Name, log: log}
		byPath[p.PkgPath] = node
		ordered = append(ordered, node)
	}

	var roots []*Package
	for _, node := range ordered {
		parent := nearestAncestor(node.pkg.PkgPath, byPath)
		if parent == nil {
			roots = append(roots, node)
			continue
		}
		if reason := skipChild(node.pkg); reason != "" {
			log.WithField("package", node.pkg.PkgPath).Debugf("skipping %s package", reason)
			continue
		}
		if len(node.pkg.Errors) > 0 {
			log.WithField("package", node.pkg.PkgPath).Warnf("skipping package: %v", node.pkg.Errors[0])
			continue
		}
		parent.children = append(parent.children, node)
	}

	switch len(roots) {
	case 0:
		return nil, fmt.Errorf("goload: %s: %w", pattern, ErrNoPackage)
	case 1:
	default:
		paths := make([]string, len(roots))
		for i, r := range roots {
			paths[i] = r.pkg.PkgPath
		}
		return nil, fmt.Errorf("goload: %s: %w: matched unrelated packages %s",
			pattern, ErrNoPackage, strings.Join(paths, ", "))
	}

	root := roots[0]
	if len(root.pkg.Errors) > 0 {
		return nil, fmt.Errorf("goload: %s: %v", root.pkg.PkgPath, root.pkg.Errors[0])
	}
	root.path = root.pkg.Name
	root.assignPaths()
	log.WithFields(logrus.Fields{
		"package": root.pkg.PkgPath,
		"nested":  len(ordered) - 1,
	}).Debug("loaded package")
	return root, nil
}

// assignPaths gives every descendant its dotted path. Siblings that share a
// package name fall back to their directory relative to the parent.
func (p *Package) assignPaths() {
	taken := map[string]bool{}
	for _, child := range p.children {
		if taken[child.name] {
			rel := strings.TrimPrefix(child.pkg.PkgPath, p.pkg.PkgPath+"/")
			child.name = strings.NewReplacer("/", "_", ".", "_", "-", "_").Replace(rel)
		}
		taken[child.name] = true
		child.path = p.path + "." + child.name
		child.assignPaths()
	}
}

func nearestAncestor(path string, byPath map[string]*Package) *Package {
	for {
		i := strings.LastIndex(path, "/")
		if i < 0 {
			return nil
		}
		path = path[:i]
		if p, ok := byPath[path]; ok {
			return p
		}
	}
}

func skipChild(p *packages.Package) string {
	switch {
	case p.Name == "main":
		return "main"
	case p.PkgPath == "internal" || strings.HasSuffix(p.PkgPath, "/internal") || strings.Contains(p.PkgPath, "/internal/"):
		return "internal"
	case strings.Contains(p.PkgPath, "/testdata/"):
		return "testdata"
	}
	return ""
}

// Path returns the dotted namespace path, the package name for the root.
func (p *Package) Path() string { return p.path }

// ImportPath returns "" for main packages, which cannot be imported.
func (p *Package) ImportPath() string {
	if p.pkg.Name == "main" {
		return ""
	}
	return p.pkg.PkgPath
}

// Members lists exported functions by name, then nested packages by name.
func (p *Package) Members() ([]callable.Member, error) {
	var members []callable.Member
	for _, fn := range p.funcs(false) {
		d, unknown, derr := parseDirectives(fn.decl.Doc)
		p.reportUnknown(fn.decl.Name.Name, unknown)
		if derr == nil && d.ignore {
			members = append(members, callable.Member{Name: fn.decl.Name.Name, Ignored: true})
			continue
		}
		c := p.describe(fn, d, derr)
		members = append(members, callable.Member{Name: c.Name, Callable: c})
	}

	children := append([]*Package(nil), p.children...)
	sort.Slice(children, func(i, j int) bool { return children[i].name < children[j].name })
	for _, child := range children {
		members = append(members, callable.Member{Name: child.name, Namespace: child})
	}
	return members, nil
}

// Function describes one top-level function of the package. Unlike Members it
// accepts unexported functions, which are embedded instead of imported, and it
// does not honour //cligen:ignore.
func (p *Package) Function(name string) (*callable.Callable, error) {
	for _, fn := range p.funcs(true) {
		if fn.decl.Name.Name != name {
			continue
		}
		d, unknown, derr := parseDirectives(fn.decl.Doc)
		p.reportUnknown(name, unknown)
		return p.describe(fn, d, derr), nil
	}
	return nil, fmt.Errorf("goload: %s.%s: %w", p.path, name, ErrNotFound)
}

func (p *Package) reportUnknown(fn string, unknown []string) {
	for _, key := range unknown {
		p.log.WithFields(logrus.Fields{"package": p.pkg.PkgPath, "function": fn}).
			Warnf("unknown directive //%s", key)
	}
}

type funcDecl struct {
	file *ast.File
	decl *ast.FuncDecl
}

// funcs returns the top-level functions sorted by name, skipping methods,
// main and init.
func (p *Package) funcs(unexported bool) []funcDecl {
	var out []funcDecl
	for _, file := range p.pkg.Syntax {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv != nil {
				continue
			}
			name := fd.Name.Name
			if name == "main" || name == "init" || name == "_" || (!unexported && !ast.IsExported(name)) {
				continue
			}
			out = append(out, funcDecl{file: file, decl: fd})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].decl.Name.Name < out[j].decl.Name.Name })
	return out
}

// describe builds the callable of fn. Problems that only affect this function
// are recorded in SignatureErr so that callers can skip it.
func (p *Package) describe(fn funcDecl, d directives, derr error) *callable.Callable {
	name := fn.decl.Name.Name
	c := &callable.Callable{
		Name:        name,
		Namespace:   p.path,
		PackageName: p.pkg.Name,
		Doc:         fn.decl.Doc.Text(),
	}
	embed := p.pkg.Name == "main" || !ast.IsExported(name)
	if !embed {
		c.ImportPath = p.pkg.PkgPath
		if m := p.pkg.Module; m != nil {
			c.Module = &callable.Module{Path: m.Path, Dir: m.Dir}
		}
	}
	if derr != nil {
		c.SignatureErr = derr
		return c
	}

	obj, ok := p.pkg.TypesInfo.Defs[fn.decl.Name].(*types.Func)
	if !ok {
		c.SignatureErr = fmt.Errorf("no type information for %s", name)
		return c
	}
	sig := obj.Type().(*types.Signature)
	if sig.TypeParams().Len() > 0 {
		c.SignatureErr = fmt.Errorf("%s has type parameters", name)
		return c
	}

	q := qualifier{local: p.pkg.Types, embed: embed}
	params := sig.Params()
	seen := map[string]bool{}
	for i := 0; i < params.Len(); i++ {
		v := params.At(i)
		pname := v.Name()
		if pname == "" || pname == "_" {
			pname = fmt.Sprintf("arg%d", i)
		}
		seen[pname] = true
		param := callable.Param{
			Name:     pname,
			Position: i,
			Variadic: sig.Variadic() && i == params.Len()-1,
			Help:     d.help[pname],
		}
		q.describeParam(&param, v.Type())
		if raw, ok := d.defaults[pname]; ok {
			param.Default = decodeDefault(raw, param.Tag, param.Elem)
			param.HasDefault = true
		}
		c.Params = append(c.Params, param)
	}
	for _, key := range sortedKeys(d.defaults, d.help) {
		if !seen[key] {
			p.log.WithFields(logrus.Fields{"package": p.pkg.PkgPath, "function": name}).
				Warnf("directive names unknown parameter %q", key)
		}
	}

	rq := qualifier{local: p.pkg.Types, embed: embed}
	results := sig.Results()
	for i := 0; i < results.Len(); i++ {
		c.Results = append(c.Results, types.TypeString(results.At(i).Type(), rq.qualify))
	}
	c.ResultRefs = rq.refs

	if embed {
		if err := p.recoverSource(c, fn); err != nil {
			p.log.WithField("function", name).Warnf("source not recoverable: %v", err)
		}
	}
	return c
}

// qualifier spells package-qualified types the way generated code refers to
// them and records the packages it used.
type qualifier struct {
	local *types.Package
	embed bool // local types are declared in the generated file itself
	refs  []callable.Import
}

func (q *qualifier) qualify(pkg *types.Package) string {
	if q.embed && pkg == q.local {
		return ""
	}
	ref := callable.Import{Path: pkg.Path(), Name: pkg.Name()}
	for _, r := range q.refs {
		if r == ref {
			return ref.Name
		}
	}
	q.refs = append(q.refs, ref)
	return ref.Name
}

// describeParam fills the declared type of a parameter. Variadic parameters
// arrive as slices.
func (q *qualifier) describeParam(p *callable.Param, t types.Type) {
	q.refs = nil
	if isEmptyInterface(t) {
		// Any token can be passed as is.
		return
	}
	p.GoType = types.TypeString(t, q.qualify)
	p.Tag = tagOf(t)
	p.Basic = basicOf(t)
	if p.Tag == callable.TagList {
		elem := t.Underlying().(*types.Slice).Elem()
		p.Elem = tagOf(elem)
		p.ElemType = types.TypeString(elem, q.qualify)
		p.ElemBasic = basicOf(elem)
	}
	p.Imports = q.refs
}

func tagOf(t types.Type) callable.TypeTag {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		info := u.Info()
		switch {
		case info&types.IsBoolean != 0:
			return callable.TagBoolean
		case info&types.IsInteger != 0:
			return callable.TagInteger
		case info&types.IsFloat != 0:
			return callable.TagFloat
		case info&types.IsString != 0:
			return callable.TagString
		}
	case *types.Slice:
		if tagOf(u.Elem()).Scalar() {
			return callable.TagList
		}
	case *types.Map:
		if key, ok := u.Key().Underlying().(*types.Basic); ok && key.Info()&types.IsString != 0 {
			return callable.TagDict
		}
	}
	return callable.TagNone
}

// basicOf names the predeclared numeric type underlying t, so that a named
// uint8 is parsed with the range of a uint8.
func basicOf(t types.Type) string {
	u, ok := t.Underlying().(*types.Basic)
	if !ok {
		return ""
	}
	return callable.Basic(types.Typ[u.Kind()].Name())
}

func isEmptyInterface(t types.Type) bool {
	iface, ok := t.Underlying().(*types.Interface)
	return ok && iface.Empty()
}

func sortedKeys[V any, W any](a map[string]V, b map[string]W) []string {
	set := map[string]bool{}
	for k := range a {
		set[k] = true
	}
	for k := range b {
		set[k] = true
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

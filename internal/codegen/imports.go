package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"path"
	"sort"
	"strings"

	"github.com/thellimist/cligen/internal/callable"
)

// runtimeImports are imported under their own names by every generated file
// that needs them. Their names are never handed out to other packages.
var runtimeImports = []callable.Import{
	{Path: "encoding/json", Name: "json"},
	{Path: "fmt", Name: "fmt"},
	{Path: "os", Name: "os"},
	{Path: "strconv", Name: "strconv"},
	{Path: "strings", Name: "strings"},
	{Path: "github.com/spf13/cobra", Name: "cobra"},
}

// reservedNames are identifiers the generated file declares or uses as
// locals inside command bodies.
var reservedNames = []string{
	"main", "init", "commands", "commandHelp", "usage", "toolName", "toolDescription", "toolVersion",
	"splitArgs", "isOption",
	"args", "cmd", "err", "tok", "i", "v", "opts", "positional", "bare",
}

// ImportLine is one line of the generated import block.
type ImportLine struct {
	Alias string // "" when the package name matches the last path element
	Path  string
}

// scope hands out package-level identifiers of the generated file: import
// aliases, generated declarations and embedded declarations.
type scope struct {
	names  map[string]string // identifier -> owner (import path, or "" for declarations)
	byPath map[string]string // import path -> alias
	blank  map[string]bool   // imported for side effects only
	used   map[string]bool   // runtime imports referenced by embedded code or types
}

func newScope() *scope {
	s := &scope{
		names:  map[string]string{},
		byPath: map[string]string{},
		blank:  map[string]bool{},
		used:   map[string]bool{},
	}
	for _, imp := range runtimeImports {
		s.names[imp.Name] = imp.Path
	}
	for _, n := range reservedNames {
		s.names[n] = ""
	}
	return s
}

// clone returns a copy for tentative allocation.
func (s *scope) clone() *scope {
	c := &scope{
		names:  make(map[string]string, len(s.names)),
		byPath: make(map[string]string, len(s.byPath)),
		blank:  make(map[string]bool, len(s.blank)),
		used:   make(map[string]bool, len(s.used)),
	}
	for k, v := range s.names {
		c.names[k] = v
	}
	for k, v := range s.byPath {
		c.byPath[k] = v
	}
	for k, v := range s.blank {
		c.blank[k] = v
	}
	for k, v := range s.used {
		c.used[k] = v
	}
	return c
}

// alias returns the identifier that refers to imp in the generated file,
// allocating a fresh one when the preferred name is taken.
func (s *scope) alias(imp callable.Import) string {
	if a, ok := s.byPath[imp.Path]; ok {
		return a
	}
	for _, rt := range runtimeImports {
		if rt.Path == imp.Path {
			s.used[rt.Path] = true
			return rt.Name
		}
	}
	base := imp.Name
	if base == "" || base == "_" || base == "." {
		base = callable.DefaultPackageName(imp.Path)
	}
	name := base
	for i := 2; s.taken(name, isLocalName(name)); i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	s.names[name] = imp.Path
	s.byPath[imp.Path] = name
	return name
}

// exact claims imp under exactly the name it was written with. Embedded
// source refers to its imports by those names, so they cannot be renamed.
func (s *scope) exact(imp callable.Import) error {
	if imp.Name == "_" {
		s.blank[imp.Path] = true
		return nil
	}
	a, ok := s.byPath[imp.Path]
	for _, rt := range runtimeImports {
		if rt.Path == imp.Path {
			a, ok = rt.Name, true
		}
	}
	if ok {
		if a != imp.Name {
			return fmt.Errorf("%w: %q is already imported as %s, not %s", ErrNameConflict, imp.Path, a, imp.Name)
		}
		if isRuntime(imp.Path) {
			s.used[imp.Path] = true
		}
		return nil
	}
	if owner, ok := s.names[imp.Name]; ok && owner != imp.Path {
		return fmt.Errorf("%w: import name %s is already used", ErrNameConflict, imp.Name)
	}
	s.names[imp.Name] = imp.Path
	s.byPath[imp.Path] = imp.Name
	return nil
}

// declare claims a package-level declaration name. Names shaped like the
// locals of command bodies are refused, since a body would shadow them.
func (s *scope) declare(name string) error {
	if _, ok := s.names[name]; ok {
		return fmt.Errorf("%w: %s is declared twice", ErrNameConflict, name)
	}
	if isLocalName(name) {
		return fmt.Errorf("%w: %s is shadowed by a local of the command bodies", ErrNameConflict, name)
	}
	s.names[name] = ""
	return nil
}

func (s *scope) taken(name string, local bool) bool {
	_, ok := s.names[name]
	return ok || local || token.Lookup(name).IsKeyword() || predeclared[name]
}

// lines returns the non-runtime imports in path order.
func (s *scope) lines() []ImportLine {
	var out []ImportLine
	for p, a := range s.byPath {
		line := ImportLine{Path: p}
		if a != path.Base(p) {
			line.Alias = a
		}
		out = append(out, line)
	}
	for p := range s.blank {
		if _, named := s.byPath[p]; !named && !isRuntime(p) {
			out = append(out, ImportLine{Alias: "_", Path: p})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func isRuntime(p string) bool {
	for _, rt := range runtimeImports {
		if rt.Path == p {
			return true
		}
	}
	return false
}

// isLocalName reports names shaped like the locals of command bodies, which
// would shadow an import of the same name.
func isLocalName(name string) bool {
	for _, prefix := range []string{"flag", "arg", "r"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if ok && rest != "" && (rest[0] >= 'A' && rest[0] <= 'Z' || rest[0] >= '0' && rest[0] <= '9') {
			return true
		}
	}
	return false
}

var predeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true, "complex64": true, "complex128": true,
	"error": true, "float32": true, "float64": true, "int": true, "int8": true, "int16": true,
	"int32": true, "int64": true, "rune": true, "string": true, "uint": true, "uint8": true,
	"uint16": true, "uint32": true, "uint64": true, "uintptr": true, "true": true, "false": true,
	"iota": true, "nil": true, "append": true, "cap": true, "clear": true, "close": true,
	"complex": true, "copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true, "println": true,
	"real": true, "recover": true,
}

// requalify rewrites the package qualifiers of a type expression from the
// names it was written with to the aliases allocated in s.
func (s *scope) requalify(expr string, refs []callable.Import) (string, error) {
	if expr == "" || len(refs) == 0 {
		return expr, nil
	}
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return "", fmt.Errorf("type %q: %w", expr, err)
	}
	rename := make(map[string]string, len(refs))
	for _, r := range refs {
		rename[r.Name] = s.alias(r)
	}
	ast.Inspect(node, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok {
			if to, ok := rename[id.Name]; ok {
				id.Name = to
			}
		}
		return false
	})
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, token.NewFileSet(), node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// topLevelNames parses Go declarations and returns the names they declare.
// Methods are not package-level names and are skipped.
func topLevelNames(src string) ([]string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), "", "package p\n"+src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				names = append(names, d.Name.Name)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch sp := spec.(type) {
				case *ast.TypeSpec:
					names = append(names, sp.Name.Name)
				case *ast.ValueSpec:
					for _, n := range sp.Names {
						if n.Name != "_" {
							names = append(names, n.Name)
						}
					}
				case *ast.ImportSpec:
					return nil, fmt.Errorf("embedded source must not contain imports")
				}
			}
		}
	}
	return names, nil
}

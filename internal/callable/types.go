// Package callable holds the host-independent description of the functions a
// generated CLI exposes: callables, their parameters, and the namespaces that
// contain them.
package callable

import "strings"

// Import is a package a Go type expression or embedded source refers to.
type Import struct {
	Path string // import path, e.g. "time"
	Name string // package name as written in the expression, e.g. "time"
}

// Module is the Go module that provides an importable callable. Generated
// standalone projects point a replace directive at Dir.
type Module struct {
	Path string
	Dir  string
}

// Param describes one declared parameter of a callable.
type Param struct {
	Name      string   // declared name (e.g., "max_count", "type_")
	Position  int      // zero-based declaration index
	GoType    string   // declared Go type expression, "" when the host has none
	Tag       TypeTag  // tag derived from the declared type, TagNone if unknown
	Elem      TypeTag  // element tag when Tag is TagList
	ElemType  string   // declared element type of slice parameters, "" when the host has none
	Imports   []Import // packages referenced by GoType
	Basic     string   // predeclared numeric type underlying GoType, e.g. "uint8"; "" when unknown
	ElemBasic string   // the same for the element type of slice parameters
	Help      string   // declared help text, lowest precedence
	Variadic  bool     // final ...T parameter

	// Receiver marks an implicit bound receiver. It is never exposed.
	Receiver bool

	Default    any  // default value, meaningful only when HasDefault
	HasDefault bool // false means the parameter is required
}

// Required reports whether the parameter has no default.
func (p Param) Required() bool { return !p.HasDefault }

// Callable is a function-like unit with a name and ordered parameters.
// Values are built once per generation run and not mutated afterwards.
type Callable struct {
	Name        string  // unqualified name, e.g. "Greet"
	Namespace   string  // dotted owning namespace path, e.g. "strutil.wrap"
	ImportPath  string  // "" when the callable cannot be imported and must be embedded
	PackageName string  // package identifier used to qualify calls
	Module      *Module // nil when the providing module is unknown or remote
	Doc         string
	Params      []Param
	Results     []string // result type expressions; a trailing "error" is the error channel
	ResultRefs  []Import // packages referenced by Results

	Source        string   // embeddable declaration text, "" when unrecoverable
	SourceDeps    []string // package-level declarations Source refers to
	SourceImports []Import // imports the embedded source needs

	// SignatureErr is set when the host could not introspect a parameter list.
	SignatureErr error
}

// QualifiedName returns the namespace-qualified dotted name.
func (c *Callable) QualifiedName() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "." + c.Name
}

// Importable reports whether generated code can call the callable through an
// import instead of embedding its source.
func (c *Callable) Importable() bool {
	return c.ImportPath != "" && c.PackageName != "main"
}

// ReturnsError reports whether the last result is the error channel.
func (c *Callable) ReturnsError() bool {
	return len(c.Results) > 0 && c.Results[len(c.Results)-1] == "error"
}

// ValueResults returns the number of non-error results.
func (c *Callable) ValueResults() int {
	if c.ReturnsError() {
		return len(c.Results) - 1
	}
	return len(c.Results)
}

// FirstDocLine returns the first non-empty line of the doc text.
func (c *Callable) FirstDocLine() string {
	for _, line := range strings.Split(c.Doc, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Namespace is a container of callables and nested namespaces, such as a Go
// package. Hosts implement it over whatever introspection they have.
type Namespace interface {
	// Path is the dotted namespace name, e.g. "strutil.wrap".
	Path() string
	// ImportPath is the import path of the namespace, "" if not importable.
	ImportPath() string
	// Members lists the namespace members in a stable order.
	Members() ([]Member, error)
}

// Member is one entry of a namespace: a callable, a nested namespace, or an
// excluded value.
type Member struct {
	Name      string
	Callable  *Callable
	Namespace Namespace

	// Ignored marks members a host-level directive excluded.
	Ignored bool
}

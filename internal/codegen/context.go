// Package codegen assembles the Go source of a standalone command-line tool
// from a namespace or a single callable.
package codegen

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/thellimist/cligen/internal/argspec"
	"github.com/thellimist/cligen/internal/callable"
	"github.com/thellimist/cligen/internal/overrides"
)

var (
	ErrInvalidTarget = errors.New("target must be exactly one of a namespace or a callable")
	ErrNoCommands    = errors.New("no commands to generate")
	ErrNameConflict  = errors.New("name conflict in generated file")
)

// Mode is the shape of the generated tool.
type Mode int

const (
	NamespaceMode Mode = iota // a dispatcher selects one command per callable
	SingleMode                // the tool is the one callable
)

func (m Mode) String() string {
	if m == SingleMode {
		return "single"
	}
	return "namespace"
}

// Target is what a tool is generated from. Exactly one field must be set.
type Target struct {
	Namespace callable.Namespace
	Callable  *callable.Callable
}

// Options configure generation. Zero values select the defaults.
type Options struct {
	Name        string // tool name, defaults to the namespace root or callable name
	Description string // defaults to "A CLI tool for <library>"
	Library     string // library name used by the default description
	Version     string // tool version printed by --version, "" for none

	Overrides overrides.Overrides

	IgnoreFunctions []string
	IgnoreModules   []string
	Recurse         bool

	// Imports are added to the generated file. An entry without an alias is
	// imported for side effects; an aliased entry is expected to be used by
	// embedded source.
	Imports []string

	// Strict aborts on the first callable that cannot become a command
	// instead of skipping it.
	Strict bool

	Renderer Renderer
	Log      logrus.FieldLogger
	Header   string // generator identification for the header comment
}

// Command is one generated command.
type Command struct {
	Name        string   // external name, e.g. "wrap.fill"
	ID          string   // dispatcher key, e.g. "wrap_fill"
	Path        []string // member names from the root namespace
	Callable    *callable.Callable
	Description string
	Args        []argspec.Descriptor
	Embedded    bool // the callable's source, or a stub, is part of the file
	Stub        bool // source was not recoverable; the command panics when run
}

// Skipped records a callable that did not become a command.
type Skipped struct {
	Name string // qualified callable name
	Err  error
}

// Unit is a generated tool.
type Unit struct {
	Name     string
	Mode     Mode
	Commands []Command
	Skipped  []Skipped
	Imports  []string                    // import paths of the generated file, sorted
	Modules  map[string]*callable.Module // module path -> module, for go.mod replace directives
	Source   []byte                      // gofmt'ed main.go
}

// Package argspec turns callable parameters into render-agnostic CLI argument
// descriptors: positionals, value options and presence flags.
package argspec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/thellimist/cligen/internal/callable"
)

var (
	ErrNoSignature     = errors.New("no introspectable signature")
	ErrUnsupportedType = errors.New("unsupported parameter type")
	ErrTypeMismatch    = errors.New("type override incompatible with declared type")
	ErrDefaultMismatch = errors.New("default value does not match parameter type")
	ErrFlagCollision   = errors.New("flag name collision")
	ErrMultipleLists   = errors.New("more than one list positional")
)

// Kind is how an argument appears on the command line.
type Kind int

const (
	Positional Kind = iota // bare token, in declaration order
	Option                 // --name value
	Flag                   // --name, presence only
)

func (k Kind) String() string {
	switch k {
	case Positional:
		return "positional"
	case Option:
		return "option"
	case Flag:
		return "flag"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Descriptor describes one CLI argument derived from one parameter.
type Descriptor struct {
	Param    string // declared parameter name
	Binding  string // internal name receiving the value; keeps an escape underscore
	Name     string // external kebab-case name, without dashes
	Position int
	Kind     Kind

	Type       callable.TypeTag
	Elem       callable.TypeTag // element type of list arguments
	Multiple   bool             // accepts zero or more values
	Structured bool             // raw token is decoded as a JSON object

	Required   bool
	Default    any // coerced to Type, meaningful only when HasDefault
	HasDefault bool
	Help       string

	GoType     string // declared Go type the value is converted to, "" for none
	ElemGoType string // declared element type of list parameters
	Basic      string // predeclared numeric type the token is parsed as, "" for int or float64
	ElemBasic  string // the same for list elements
	Imports    []callable.Import
	Variadic   bool
}

// Usage returns the external spelling: "--name" for options and flags,
// "<name>" or "[name...]" for positionals.
func (d Descriptor) Usage() string {
	switch {
	case d.Kind != Positional:
		return "--" + d.Name
	case d.Multiple:
		return "[" + d.Name + "...]"
	default:
		return "<" + d.Name + ">"
	}
}

// NaturalGoType is the Go type the parsed value is bound to.
func (d Descriptor) NaturalGoType() string {
	if d.Structured && d.GoType != "" {
		return d.GoType
	}
	return callable.NaturalGoType(d.Type, d.Elem)
}

// DefaultLiteral renders the flag default as Go source. Strings are quoted,
// dict defaults are rendered as quoted JSON text, list defaults as the
// []string of their tokens, and missing defaults as the zero value of the
// bound type.
func (d Descriptor) DefaultLiteral() string {
	v := d.Default
	if !d.HasDefault {
		v = nil
	}
	switch {
	case d.Structured:
		if v == nil {
			return `""`
		}
		if s, ok := v.(string); ok {
			return strconv.Quote(s)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return `""`
		}
		return strconv.Quote(string(data))
	case d.Multiple:
		items, _ := v.([]any)
		if len(items) == 0 {
			return "nil"
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = strconv.Quote(tokenText(d.Elem, item))
		}
		return "[]string{" + strings.Join(parts, ", ") + "}"
	default:
		return scalarLiteral(d.Type, v)
	}
}

// tokenText is the command-line spelling of a coerced scalar.
func tokenText(t callable.TypeTag, v any) string {
	switch t {
	case callable.TagInteger, callable.TagFloat, callable.TagBoolean:
		return scalarLiteral(t, v)
	}
	s, _ := v.(string)
	return s
}

func scalarLiteral(t callable.TypeTag, v any) string {
	switch t {
	case callable.TagInteger:
		if n, ok := v.(int64); ok {
			return strconv.FormatInt(n, 10)
		}
		return "0"
	case callable.TagFloat:
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "0"
	case callable.TagBoolean:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b)
		}
		return "false"
	default:
		if s, ok := v.(string); ok {
			return strconv.Quote(s)
		}
		return `""`
	}
}

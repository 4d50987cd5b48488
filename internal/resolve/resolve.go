// Package resolve looks up the type, help text and description of callables
// and their parameters through the override chain, most specific key first.
package resolve

import (
	"github.com/thellimist/cligen/internal/callable"
	"github.com/thellimist/cligen/internal/overrides"
)

// Resolver answers metadata lookups against a fixed set of overrides.
type Resolver struct {
	o *overrides.Overrides
}

// New returns a Resolver over o. A nil o resolves everything from the
// callable itself.
func New(o *overrides.Overrides) *Resolver {
	if o == nil {
		o = &overrides.Overrides{}
	}
	return &Resolver{o: o}
}

// paramKeys returns the lookup keys for a parameter, most specific first.
func paramKeys(c *callable.Callable, param string) []string {
	keys := make([]string, 0, 3)
	if c.Namespace != "" {
		keys = append(keys, c.Namespace+"."+c.Name+"."+param)
	}
	return append(keys, c.Name+"."+param, param)
}

// ResolveType returns the type tag for a parameter. Overrides win over the
// declared type, which wins over the type of the default value. TagNone means
// unresolved.
func (r *Resolver) ResolveType(c *callable.Callable, param string) callable.TypeTag {
	for _, key := range paramKeys(c, param) {
		if t, ok := r.o.Types[key]; ok {
			return t
		}
	}
	p, ok := findParam(c, param)
	if !ok {
		return callable.TagNone
	}
	if p.Tag != callable.TagNone {
		return p.Tag
	}
	if p.HasDefault {
		return callable.InferTag(p.Default)
	}
	return callable.TagNone
}

// ResolveHelp returns the help text for a parameter, or "".
func (r *Resolver) ResolveHelp(c *callable.Callable, param string) string {
	for _, key := range paramKeys(c, param) {
		if h, ok := r.o.Help[key]; ok {
			return h
		}
	}
	if p, ok := findParam(c, param); ok {
		return p.Help
	}
	return ""
}

// Describe returns the one-line description of a callable: an override keyed
// by qualified or bare name, else the first line of its doc, else "".
func (r *Resolver) Describe(c *callable.Callable) string {
	keys := []string{c.Name}
	if c.Namespace != "" {
		keys = []string{c.QualifiedName(), c.Name}
	}
	for _, key := range keys {
		if d, ok := r.o.Descriptions[key]; ok {
			return d
		}
	}
	return c.FirstDocLine()
}

// NeedsDecoder reports whether values of the tag are decoded from JSON by the
// generated tool, which then needs the decoder import.
func NeedsDecoder(t callable.TypeTag) bool {
	return t == callable.TagDict
}

func findParam(c *callable.Callable, name string) (callable.Param, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return callable.Param{}, false
}

// Package walker discovers the callables and nested namespaces reachable from
// a root namespace.
package walker

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/thellimist/cligen/internal/callable"
	"github.com/thellimist/cligen/internal/memberfilter"
)

// ErrCycle is returned when a namespace contains itself.
var ErrCycle = errors.New("namespace cycle")

// Options control which members become commands.
type Options struct {
	IgnoreFunctions []string
	IgnoreModules   []string
	Recurse         bool
}

// Tree is the walked view of one namespace. Ignore lists are already applied.
type Tree struct {
	Path       string
	Callables  map[string]*callable.Callable
	Namespaces map[string]*Subtree
}

// Subtree is a nested namespace. Tree is nil when recursion was disabled; the
// namespace is then recorded but none of its members become commands.
type Subtree struct {
	Namespace callable.Namespace
	Tree      *Tree
}

// Command is a callable together with its path relative to the root.
type Command struct {
	Path     []string // member names from the root, last one is the callable
	Callable *callable.Callable
}

// Walker walks namespaces with fixed options, tracking which ignore entries
// matched so unknown names can be reported afterwards.
type Walker struct {
	opts      Options
	functions *memberfilter.Set
	modules   *memberfilter.Set
	seenFuncs []string
	seenMods  []string
}

// New returns a Walker for opts.
func New(opts Options) *Walker {
	return &Walker{
		opts:      opts,
		functions: memberfilter.NewSet(opts.IgnoreFunctions),
		modules:   memberfilter.NewSet(opts.IgnoreModules),
	}
}

// Walk is a convenience wrapper for New(opts).Walk(root).
func Walk(root callable.Namespace, opts Options) (*Tree, error) {
	return New(opts).Walk(root)
}

// Walk builds the tree of root.
func (w *Walker) Walk(root callable.Namespace) (*Tree, error) {
	return w.walk(root, root.Path(), map[string]bool{})
}

func (w *Walker) walk(ns callable.Namespace, rootPath string, visiting map[string]bool) (*Tree, error) {
	path := ns.Path()
	if visiting[path] {
		return nil, fmt.Errorf("walker: %w: %s", ErrCycle, path)
	}
	visiting[path] = true
	defer delete(visiting, path)

	members, err := ns.Members()
	if err != nil {
		return nil, fmt.Errorf("walker: listing %s: %w", path, err)
	}

	tree := &Tree{
		Path:       path,
		Callables:  make(map[string]*callable.Callable),
		Namespaces: make(map[string]*Subtree),
	}
	for _, m := range members {
		if m.Name == "" || strings.HasPrefix(m.Name, "_") || m.Ignored {
			continue
		}
		qualified := joinPath(path, m.Name)

		switch {
		case m.Callable != nil:
			w.seenFuncs = append(w.seenFuncs, m.Name)
			if w.functions.Match(m.Name, qualified) {
				continue
			}
			tree.Callables[m.Name] = m.Callable

		case m.Namespace != nil:
			subPath := m.Namespace.Path()
			if !nestedUnder(subPath, rootPath) {
				continue
			}
			w.seenMods = append(w.seenMods, m.Name)
			if w.modules.Match(m.Name, subPath) {
				continue
			}
			sub := &Subtree{Namespace: m.Namespace}
			if w.opts.Recurse {
				if sub.Tree, err = w.walk(m.Namespace, rootPath, visiting); err != nil {
					return nil, err
				}
			}
			tree.Namespaces[m.Name] = sub
		}
	}
	return tree, nil
}

// Unmatched returns warnings for ignore entries that matched no member seen
// by this walker.
func (w *Walker) Unmatched() []string {
	var out []string
	for _, e := range w.functions.Unmatched() {
		out = append(out, memberfilter.Describe("function", e, w.seenFuncs))
	}
	for _, e := range w.modules.Unmatched() {
		out = append(out, memberfilter.Describe("module", e, w.seenMods))
	}
	return out
}

// Commands flattens the tree depth first. Members are visited in name order,
// callables before nested namespaces.
func (t *Tree) Commands() []Command {
	var out []Command
	t.collect(nil, &out)
	return out
}

func (t *Tree) collect(prefix []string, out *[]Command) {
	if t == nil {
		return
	}
	for _, name := range sortedKeys(t.Callables) {
		path := append(append([]string{}, prefix...), name)
		*out = append(*out, Command{Path: path, Callable: t.Callables[name]})
	}
	for _, name := range sortedKeys(t.Namespaces) {
		t.Namespaces[name].Tree.collect(append(append([]string{}, prefix...), name), out)
	}
}

func nestedUnder(path, root string) bool {
	return root == "" || strings.HasPrefix(path, root+".")
}

func joinPath(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

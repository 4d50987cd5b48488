// Package target turns command-line or MCP request inputs into a generation
// target: a Go package tree or manifest namespace, or one callable in it.
package target

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/thellimist/cligen/internal/callable"
	"github.com/thellimist/cligen/internal/codegen"
	"github.com/thellimist/cligen/internal/goload"
	"github.com/thellimist/cligen/internal/manifest"
)

var (
	ErrNoSource = errors.New("one of a Go package or a manifest is required")
	ErrNotFound = errors.New("callable not found")
)

// Spec names where callables come from.
type Spec struct {
	Dir        string   // working directory for package loading
	Package    string   // Go package pattern, e.g. "./strutil"
	Manifest   string   // manifest file path, relative to Dir
	Function   string   // dotted callable name relative to the root, "" for the whole namespace
	BuildFlags []string // go command flags used while loading packages
	Log        logrus.FieldLogger
}

// functioner is implemented by namespaces that can describe functions their
// Members leave out, such as unexported Go functions.
type functioner interface {
	Function(name string) (*callable.Callable, error)
}

// Resolve loads the namespace named by spec and, when Function is set,
// selects the callable.
func Resolve(ctx context.Context, spec Spec) (codegen.Target, error) {
	if (spec.Package == "") == (spec.Manifest == "") {
		return codegen.Target{}, fmt.Errorf("target: %w", ErrNoSource)
	}

	var root callable.Namespace
	if spec.Manifest != "" {
		path := spec.Manifest
		if spec.Dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(spec.Dir, path)
		}
		ns, err := manifest.Load(path)
		if err != nil {
			return codegen.Target{}, err
		}
		root = ns
	} else {
		pkg, err := goload.Load(ctx, goload.Config{Dir: spec.Dir, BuildFlags: spec.BuildFlags, Log: spec.Log}, spec.Package)
		if err != nil {
			return codegen.Target{}, err
		}
		root = pkg
	}

	if spec.Function == "" {
		return codegen.Target{Namespace: root}, nil
	}
	c, err := Lookup(root, spec.Function)
	if err != nil {
		return codegen.Target{}, err
	}
	return codegen.Target{Callable: c}, nil
}

// Lookup finds a callable by its dotted name below root, e.g. "wrap.Fill".
func Lookup(root callable.Namespace, name string) (*callable.Callable, error) {
	parts := strings.Split(name, ".")
	ns := root
	for _, part := range parts[:len(parts)-1] {
		next, err := child(ns, part)
		if err != nil {
			return nil, err
		}
		ns = next
	}

	last := parts[len(parts)-1]
	if f, ok := ns.(functioner); ok {
		c, err := f.Function(last)
		if err != nil {
			return nil, fmt.Errorf("target: %s: %w: %v", name, ErrNotFound, err)
		}
		return c, nil
	}
	members, err := ns.Members()
	if err != nil {
		return nil, fmt.Errorf("target: %s: %w", ns.Path(), err)
	}
	for _, m := range members {
		if m.Name == last && m.Callable != nil {
			return m.Callable, nil
		}
	}
	return nil, fmt.Errorf("target: %s in %s: %w", last, ns.Path(), ErrNotFound)
}

func child(ns callable.Namespace, name string) (callable.Namespace, error) {
	members, err := ns.Members()
	if err != nil {
		return nil, fmt.Errorf("target: %s: %w", ns.Path(), err)
	}
	for _, m := range members {
		if m.Name == name && m.Namespace != nil {
			return m.Namespace, nil
		}
	}
	return nil, fmt.Errorf("target: namespace %s in %s: %w", name, ns.Path(), ErrNotFound)
}

package goload

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"go/types"
	"sort"

	"github.com/thellimist/cligen/internal/callable"
)

// declIndex maps package-level objects to the declarations that introduce
// them, and named types to their method declarations.
type declIndex struct {
	byObject map[types.Object]ast.Decl
	methods  map[types.Object][]ast.Decl
}

func (p *Package) index() *declIndex {
	if p.decls != nil {
		return p.decls
	}
	idx := &declIndex{
		byObject: map[types.Object]ast.Decl{},
		methods:  map[types.Object][]ast.Decl{},
	}
	info := p.pkg.TypesInfo
	for _, file := range p.pkg.Syntax {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				obj := info.Defs[d.Name]
				if obj == nil {
					continue
				}
				if d.Recv == nil {
					idx.byObject[obj] = d
					continue
				}
				if recv := receiverType(obj); recv != nil {
					idx.methods[recv] = append(idx.methods[recv], d)
				}
			case *ast.GenDecl:
				if d.Tok == token.IMPORT {
					continue
				}
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						if obj := info.Defs[s.Name]; obj != nil {
							idx.byObject[obj] = d
						}
					case *ast.ValueSpec:
						for _, n := range s.Names {
							if obj := info.Defs[n]; obj != nil {
								idx.byObject[obj] = d
							}
						}
					}
				}
			}
		}
	}
	p.decls = idx
	return idx
}

func receiverType(method types.Object) types.Object {
	sig, ok := method.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return nil
	}
	t := sig.Recv().Type()
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	if named, ok := t.(*types.Named); ok {
		return named.Obj()
	}
	return nil
}

// recoverSource prints the declaration of fn and every package-level
// declaration it reaches, so that the function can be compiled inside the
// generated file. Imports are recorded with the names the source uses.
func (p *Package) recoverSource(c *callable.Callable, fn funcDecl) error {
	idx := p.index()
	info := p.pkg.TypesInfo
	scope := p.pkg.Types.Scope()

	visited := map[ast.Decl]bool{fn.decl: true}
	queue := []ast.Decl{fn.decl}
	var deps []ast.Decl
	seenImports := map[callable.Import]bool{}

	enqueue := func(d ast.Decl) {
		if d != nil && !visited[d] {
			visited[d] = true
			queue = append(queue, d)
			deps = append(deps, d)
		}
	}

	for len(queue) > 0 {
		decl := queue[0]
		queue = queue[1:]
		ast.Inspect(decl, func(n ast.Node) bool {
			id, ok := n.(*ast.Ident)
			if !ok {
				return true
			}
			obj := info.Uses[id]
			if obj == nil {
				return true
			}
			if pn, ok := obj.(*types.PkgName); ok {
				imp := callable.Import{Path: pn.Imported().Path(), Name: pn.Name()}
				if !seenImports[imp] {
					seenImports[imp] = true
					c.SourceImports = append(c.SourceImports, imp)
				}
				return true
			}
			if obj.Pkg() != p.pkg.Types || obj.Parent() != scope {
				return true
			}
			enqueue(idx.byObject[obj])
			for _, m := range idx.methods[obj] {
				enqueue(m)
			}
			return true
		})
	}

	src, err := printDecl(p.pkg.Fset, fn.decl)
	if err != nil {
		return err
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Pos() < deps[j].Pos() })
	for _, d := range deps {
		text, err := printDecl(p.pkg.Fset, d)
		if err != nil {
			return err
		}
		c.SourceDeps = append(c.SourceDeps, text)
	}
	sort.Slice(c.SourceImports, func(i, j int) bool { return c.SourceImports[i].Path < c.SourceImports[j].Path })
	c.Source = src
	return nil
}

// printDecl renders a declaration without its doc comment.
func printDecl(fset *token.FileSet, decl ast.Decl) (string, error) {
	var node any = decl
	switch d := decl.(type) {
	case *ast.FuncDecl:
		cp := *d
		cp.Doc = nil
		node = &cp
	case *ast.GenDecl:
		cp := *d
		cp.Doc = nil
		node = &cp
	}
	var buf bytes.Buffer
	cfg := printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
	if err := cfg.Fprint(&buf, fset, node); err != nil {
		return "", fmt.Errorf("printing declaration: %w", err)
	}
	return buf.String(), nil
}

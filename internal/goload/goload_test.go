package goload

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thellimist/cligen/internal/callable"
)

const (
	moduleRoot  = "../.."
	fixturePath = "github.com/thellimist/cligen/e2e/fixture/strutil"
)

func loadFixture(t *testing.T, pattern string) *Package {
	t.Helper()
	if testing.Short() {
		t.Skip("loading packages runs the go command")
	}
	pkg, err := Load(context.Background(), Config{Dir: moduleRoot}, pattern)
	require.NoError(t, err)
	return pkg
}

func membersByName(t *testing.T, ns callable.Namespace) map[string]callable.Member {
	t.Helper()
	members, err := ns.Members()
	require.NoError(t, err)
	out := make(map[string]callable.Member, len(members))
	for _, m := range members {
		out[m.Name] = m
	}
	return out
}

func TestLoadPackageTree(t *testing.T) {
	pkg := loadFixture(t, "./e2e/fixture/strutil")

	assert.Equal(t, "strutil", pkg.Path())
	assert.Equal(t, fixturePath, pkg.ImportPath())

	members, err := pkg.Members()
	require.NoError(t, err)
	var names []string
	for _, m := range members {
		names = append(names, m.Name)
	}
	want := []string{"Case", "Debug", "Greet", "Join", "Keys", "Map", "Offset", "Repeat", "Shift", "Tab", "Tags", "Untab", "wrap"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("member names mismatch (-want +got):\n%s", diff)
	}

	byName := membersByName(t, pkg)
	assert.True(t, byName["Debug"].Ignored)
	assert.Nil(t, byName["Debug"].Callable)
	require.NotNil(t, byName["wrap"].Namespace)
	assert.Equal(t, "strutil.wrap", byName["wrap"].Namespace.Path())
}

func TestDirectivesBecomeDefaultsAndHelp(t *testing.T) {
	byName := membersByName(t, loadFixture(t, "./e2e/fixture/strutil"))

	greet := byName["Greet"].Callable
	require.NotNil(t, greet)
	assert.Equal(t, "Greet joins a greeting and a subject.", greet.FirstDocLine())
	assert.NotContains(t, greet.Doc, "cligen:")
	assert.Equal(t, fixturePath, greet.ImportPath)
	require.NotNil(t, greet.Module)
	assert.Equal(t, "github.com/thellimist/cligen", greet.Module.Path)

	require.Len(t, greet.Params, 2)
	assert.Equal(t, callable.Param{
		Name: "hello", Position: 0, GoType: "string", Tag: callable.TagString,
		Help: "the greeting word", Default: "Hello", HasDefault: true,
	}, greet.Params[0])
	assert.Equal(t, "World!", greet.Params[1].Default)

	repeat := byName["Repeat"].Callable
	assert.Equal(t, []string{"string", "error"}, repeat.Results)
	assert.True(t, repeat.ReturnsError())
	assert.Equal(t, 2, repeat.Params[1].Default)
	assert.Equal(t, " ", repeat.Params[2].Default)

	keys := byName["Keys"].Callable
	assert.Equal(t, callable.TagDict, keys.Params[0].Tag)
	assert.Equal(t, map[string]any{}, keys.Params[0].Default)
}

func TestDeclaredTypes(t *testing.T) {
	byName := membersByName(t, loadFixture(t, "./e2e/fixture/strutil"))

	join := byName["Join"].Callable
	words := join.Params[1]
	assert.True(t, words.Variadic)
	assert.True(t, words.Required())
	assert.Equal(t, callable.TagList, words.Tag)
	assert.Equal(t, callable.TagString, words.Elem)
	assert.Equal(t, "[]string", words.GoType)
	assert.Equal(t, ",", join.Params[0].Default, "invalid YAML stays a plain string")

	mode := byName["Case"].Callable.Params[1]
	assert.Equal(t, "strutil.Mode", mode.GoType)
	assert.Equal(t, callable.TagString, mode.Tag)
	assert.Equal(t, []callable.Import{{Path: fixturePath, Name: "strutil"}}, mode.Imports)

	trim := byName["Case"].Callable.Params[2]
	assert.Equal(t, callable.TagBoolean, trim.Tag)
	assert.Equal(t, false, trim.Default)

	level := byName["Shift"].Callable.Params[0]
	assert.Equal(t, "strutil.Level", level.GoType)
	assert.Equal(t, callable.TagInteger, level.Tag)
	assert.Equal(t, "uint8", level.Basic)

	by := byName["Offset"].Callable.Params[1]
	assert.Equal(t, "int8", by.Basic)
	assert.Equal(t, 1, by.Default)

	tags := byName["Tags"].Callable.Params[0]
	assert.Equal(t, []any{"none"}, tags.Default)
	assert.Empty(t, tags.ElemBasic)

	generic := byName["Map"].Callable
	assert.Error(t, generic.SignatureErr)
}

func TestNestedPackage(t *testing.T) {
	root := loadFixture(t, "./e2e/fixture/strutil")
	wrap := membersByName(t, root)["wrap"].Namespace
	fill := membersByName(t, wrap)["Fill"].Callable
	require.NotNil(t, fill)
	assert.Equal(t, "strutil.wrap", fill.Namespace)
	assert.Equal(t, "strutil.wrap.Fill", fill.QualifiedName())
	assert.Equal(t, fixturePath+"/wrap", fill.ImportPath)
	assert.Equal(t, 70, fill.Params[1].Default)
	assert.Equal(t, callable.TagInteger, fill.Params[1].Tag)
}

func TestFunctionFromMainPackageEmbedsSource(t *testing.T) {
	pkg := loadFixture(t, "./e2e/fixture/scripts")
	assert.Equal(t, "", pkg.ImportPath())

	shout, err := pkg.Function("Shout")
	require.NoError(t, err)
	assert.False(t, shout.Importable())
	assert.Contains(t, shout.Source, "func Shout(text string, marks int) string {")
	require.Len(t, shout.SourceDeps, 1)
	assert.Contains(t, shout.SourceDeps[0], "func bang(n int) string")
	assert.Equal(t, []callable.Import{{Path: "strings", Name: "strings"}}, shout.SourceImports)

	// The recovered text must parse on its own.
	for _, src := range append([]string{shout.Source}, shout.SourceDeps...) {
		_, err := parser.ParseFile(token.NewFileSet(), "", "package main\nimport \"strings\"\n"+src, parser.AllErrors)
		assert.NoError(t, err)
	}
}

func TestFunctionNotFound(t *testing.T) {
	pkg := loadFixture(t, "./e2e/fixture/strutil")
	_, err := pkg.Function("Nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestParseDirectives(t *testing.T) {
	doc := &ast.CommentGroup{List: []*ast.Comment{
		{Text: "// Greet says hello."},
		{Text: "//cligen:default hello=Hello"},
		{Text: "//cligen:default count=3"},
		{Text: "//cligen:default tags=[a, b]"},
		{Text: "//cligen:default empty="},
		{Text: "//cligen:help hello=the word = greeting"},
		{Text: "//cligen:typo x"},
		{Text: "// cligen:ignore is prose, not a directive"},
	}}
	d, unknown, err := parseDirectives(doc)
	require.NoError(t, err)
	assert.False(t, d.ignore)
	assert.Equal(t, map[string]string{
		"hello": "Hello",
		"count": "3",
		"tags":  "[a, b]",
		"empty": "",
	}, d.defaults)
	assert.Equal(t, map[string]string{"hello": "the word = greeting"}, d.help)
	assert.Equal(t, []string{"cligen:typo"}, unknown)
}

func TestDecodeDefault(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		tag  callable.TypeTag
		elem callable.TypeTag
		want any
	}{
		{"string keeps decimal text", "1.0", callable.TagString, "", "1.0"},
		{"string keeps leading zeros", "007", callable.TagString, "", "007"},
		{"string keeps hex", "0x10", callable.TagString, "", "0x10"},
		{"string keeps exponent", "1e3", callable.TagString, "", "1e3"},
		{"string keeps booleans", "yes", callable.TagString, "", "yes"},
		{"quoted string", `" "`, callable.TagString, "", " "},
		{"string mapping text", "a: b", callable.TagString, "", "a: b"},
		{"invalid yaml", ",", callable.TagString, "", ","},
		{"empty", "", callable.TagInteger, "", ""},
		{"integer", "3", callable.TagInteger, "", 3},
		{"float", "0.5", callable.TagFloat, "", 0.5},
		{"boolean", "false", callable.TagBoolean, "", false},
		{"string list items", "[007, 1.0]", callable.TagList, callable.TagString, []any{"007", "1.0"}},
		{"integer list", "[1, 2]", callable.TagList, callable.TagInteger, []any{1, 2}},
		{"dict", "{}", callable.TagDict, "", map[string]any{}},
		{"untyped number", "10", callable.TagNone, "", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeDefault(tt.raw, tt.tag, tt.elem))
		})
	}
}

func TestParseDirectivesErrors(t *testing.T) {
	tests := []string{
		"//cligen:default hello",
		"//cligen:default =x",
		"//cligen:help",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			_, _, err := parseDirectives(&ast.CommentGroup{List: []*ast.Comment{{Text: text}}})
			assert.Error(t, err)
		})
	}

	d, _, err := parseDirectives(&ast.CommentGroup{List: []*ast.Comment{{Text: "//cligen:ignore"}}})
	require.NoError(t, err)
	assert.True(t, d.ignore)

	d, _, err = parseDirectives(nil)
	require.NoError(t, err)
	assert.Empty(t, d.defaults)
}

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thellimist/cligen/internal/callable"
)

const textkit = `
name: textkit
import: example.com/textkit
module: example.com/textkit
moduleDir: ../textkit
functions:
  - name: Greet
    doc: |
      Greet joins a greeting and a subject.
    results: [string]
    params:
      - name: hello
        type: str
        default: Hello
        help: the greeting word
      - name: world
        default: World!
  - name: Sleep
    imports: [time]
    results: [error]
    params:
      - name: d
        goType: time.Duration
        type: int
  - name: Hidden
    ignore: true
namespaces:
  - name: wrap
    import: example.com/textkit/wrap
    functions:
      - name: Fill
        params:
          - name: text
          - name: width
            goType: int
            default: 70
      - name: Shout
        source: |
          func Shout(s string) string { return strings.ToUpper(s) }
        sourceImports: [strings]
`

func parse(t *testing.T, doc string) *callable.Static {
	t.Helper()
	ns, err := Parse([]byte(doc), "/work/manifests")
	require.NoError(t, err)
	return ns
}

func TestParseNamespace(t *testing.T) {
	ns := parse(t, textkit)
	assert.Equal(t, "textkit", ns.Path())
	assert.Equal(t, "example.com/textkit", ns.ImportPath())

	members, err := ns.Members()
	require.NoError(t, err)
	require.Len(t, members, 4)
	assert.Equal(t, "Greet", members[0].Name)
	assert.True(t, members[2].Ignored)
	assert.Equal(t, "wrap", members[3].Name)

	greet := members[0].Callable
	assert.Equal(t, "textkit", greet.PackageName)
	assert.Equal(t, "Greet joins a greeting and a subject.", greet.FirstDocLine())
	assert.Equal(t, &callable.Module{Path: "example.com/textkit", Dir: "/work/textkit"}, greet.Module)

	want := []callable.Param{
		{Name: "hello", Position: 0, Tag: callable.TagString, Help: "the greeting word", Default: "Hello", HasDefault: true},
		{Name: "world", Position: 1, Default: "World!", HasDefault: true},
	}
	if diff := cmp.Diff(want, greet.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}

	sleep := members[1].Callable
	timeImport := []callable.Import{{Path: "time", Name: "time"}}
	assert.Equal(t, timeImport, sleep.Params[0].Imports)
	assert.True(t, sleep.Params[0].Required())
	assert.Empty(t, sleep.ResultRefs)
	assert.True(t, sleep.ReturnsError())
}

func TestParseNestedNamespace(t *testing.T) {
	ns := parse(t, textkit)
	members, err := ns.Members()
	require.NoError(t, err)
	wrap := members[3].Namespace
	require.NotNil(t, wrap)
	assert.Equal(t, "textkit.wrap", wrap.Path())

	inner, err := wrap.Members()
	require.NoError(t, err)
	fill := inner[0].Callable
	assert.Equal(t, "textkit.wrap.Fill", fill.QualifiedName())
	assert.Equal(t, "wrap", fill.PackageName)
	assert.Equal(t, callable.TagInteger, fill.Params[1].Tag, "builtin goType sets the tag")
	assert.Equal(t, 70, fill.Params[1].Default)
	assert.Equal(t, "example.com/textkit", fill.Module.Path, "module is inherited")

	shout := inner[1].Callable
	assert.Contains(t, shout.Source, "strings.ToUpper")
	assert.Equal(t, []callable.Import{{Path: "strings", Name: "strings"}}, shout.SourceImports)
}

func TestParseJSON(t *testing.T) {
	ns := parse(t, `{
  "name": "calc",
  "functions": [
    {"name": "Add", "results": ["int"], "params": [
      {"name": "a", "type": "integer"},
      {"name": "b", "type": "integer", "default": 3}
    ]}
  ]
}`)
	members, err := ns.Members()
	require.NoError(t, err)
	add := members[0].Callable
	assert.False(t, add.Importable())
	assert.Equal(t, "", add.Source)
	assert.Equal(t, 3, add.Params[1].Default)
}

func TestInputSchema(t *testing.T) {
	ns := parse(t, `
name: tracker
functions:
  - name: ListIssues
    inputSchema:
      type: object
      required: [project]
      properties:
        project: {type: string, description: Project key}
        limit: {type: integer, default: 10}
        labels: {type: array, items: {type: string}}
        state: {type: string, enum: [open, closed]}
        filter: {type: object}
        verbose: {type: ["boolean", "null"]}
`)
	members, err := ns.Members()
	require.NoError(t, err)
	params := members[0].Callable.Params

	var names []string
	for _, p := range params {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"project", "filter", "labels", "limit", "state", "verbose"}, names)

	assert.True(t, params[0].Required())
	assert.Equal(t, "Project key", params[0].Help)
	assert.Equal(t, callable.TagDict, params[1].Tag)
	assert.Equal(t, callable.TagList, params[2].Tag)
	assert.Equal(t, callable.TagString, params[2].Elem)
	assert.Equal(t, 10, params[3].Default)
	assert.Equal(t, "(open|closed)", params[4].Help)
	assert.Equal(t, callable.TagBoolean, params[5].Tag)
	assert.Equal(t, false, params[5].Default)
	for i, p := range params {
		assert.Equal(t, i, p.Position)
	}
}

func TestMapJSONSchemaType(t *testing.T) {
	tests := []struct {
		name       string
		schemaType any
		items      map[string]any
		want       callable.TypeTag
		wantElem   callable.TypeTag
	}{
		{"string", "string", nil, callable.TagString, callable.TagNone},
		{"integer", "integer", nil, callable.TagInteger, callable.TagNone},
		{"number", "number", nil, callable.TagFloat, callable.TagNone},
		{"object", "object", nil, callable.TagDict, callable.TagNone},
		{"array of integers", "array", map[string]any{"type": "integer"}, callable.TagList, callable.TagInteger},
		{"array without items", "array", nil, callable.TagList, callable.TagString},
		{"array of objects", "array", map[string]any{"type": "object"}, callable.TagList, callable.TagString},
		{"nullable, null first", []any{"null", "integer"}, nil, callable.TagInteger, callable.TagNone},
		{"only null", []any{"null"}, nil, callable.TagString, callable.TagNone},
		{"missing", nil, nil, callable.TagString, callable.TagNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, elem := mapJSONSchemaType(tc.schemaType, tc.items)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantElem, elem)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"missing name":       `functions: [{name: f}]`,
		"function name":      "name: x\nfunctions: [{doc: nothing}]",
		"duplicate":          "name: x\nfunctions: [{name: f}, {name: f}]",
		"dotted namespace":   "name: x\nnamespaces: [{name: a.b}]",
		"unknown type":       "name: x\nfunctions: [{name: f, params: [{name: a, type: complex}]}]",
		"required default":   "name: x\nfunctions: [{name: f, params: [{name: a, required: true, default: 1}]}]",
		"variadic not last":  "name: x\nfunctions: [{name: f, params: [{name: a, variadic: true}, {name: b}]}]",
		"schema and params":  "name: x\nfunctions: [{name: f, params: [{name: a}], inputSchema: {properties: {}}}]",
		"bad import":         "name: x\nfunctions: [{name: f, imports: ['\"oops']}]",
		"bad package name":   "name: x\nimport: example.com/1thing",
		"unnamed parameter":  "name: x\nfunctions: [{name: f, params: [{type: int}]}]",
		"properties not map": "name: x\nfunctions: [{name: f, inputSchema: {properties: [a]}}]",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), ".")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}

	_, err := Parse([]byte("name: [unclosed"), ".")
	assert.Error(t, err)
}

func TestNoSignature(t *testing.T) {
	ns := parse(t, "name: x\nfunctions: [{name: f, noSignature: true}]")
	members, err := ns.Members()
	require.NoError(t, err)
	assert.Error(t, members[0].Callable.SignatureErr)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: tool\nmodule: example.com/tool\nmoduleDir: src\nimport: example.com/tool\nfunctions: [{name: Run}]\n"), 0o644))

	ns, err := Load(path)
	require.NoError(t, err)
	members, err := ns.Members()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), members[0].Callable.Module.Dir)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

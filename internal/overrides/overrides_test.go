package overrides

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thellimist/cligen/internal/callable"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_NestedYAML(t *testing.T) {
	path := writeTestFile(t, "cligen.yaml", `
name: strutil-cli
types:
  strutil:
    Greet:
      hello: str
  Greet:
    world: string
  count: int
help:
  Greet:
    hello: The greeting word
  verbose: Print more
descriptions:
  strutil:
    Greet: Greets someone
  Tab: Indent text
`)

	o, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantTypes := map[string]callable.TypeTag{
		"strutil.Greet.hello": callable.TagString,
		"Greet.world":         callable.TagString,
		"count":               callable.TagInteger,
	}
	if len(o.Types) != len(wantTypes) {
		t.Fatalf("types = %v, want %v", o.Types, wantTypes)
	}
	for k, want := range wantTypes {
		if got := o.Types[k]; got != want {
			t.Errorf("types[%q] = %q, want %q", k, got, want)
		}
	}

	if got := o.Help["Greet.hello"]; got != "The greeting word" {
		t.Errorf("help[Greet.hello] = %q", got)
	}
	if got := o.Help["verbose"]; got != "Print more" {
		t.Errorf("help[verbose] = %q", got)
	}
	if got := o.Descriptions["strutil.Greet"]; got != "Greets someone" {
		t.Errorf("descriptions[strutil.Greet] = %q", got)
	}
	if got := o.Descriptions["Tab"]; got != "Indent text" {
		t.Errorf("descriptions[Tab] = %q", got)
	}
}

func TestLoad_DottedJSON(t *testing.T) {
	path := writeTestFile(t, "overrides.json", `{
		"types": {"Greet.hello": "bool", "tags": "list"},
		"help": {"strutil.Greet.world": "Who to greet"}
	}`)

	o, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Types["Greet.hello"] != callable.TagBoolean {
		t.Errorf("types[Greet.hello] = %q", o.Types["Greet.hello"])
	}
	if o.Types["tags"] != callable.TagList {
		t.Errorf("types[tags] = %q", o.Types["tags"])
	}
	if o.Help["strutil.Greet.world"] != "Who to greet" {
		t.Errorf("help = %v", o.Help)
	}
	if o.Descriptions != nil {
		t.Errorf("descriptions = %v, want nil", o.Descriptions)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown type", "types:\n  count: complex\n", `unknown type "complex"`},
		{"list value", "help:\n  count: [a, b]\n", "lists are not valid"},
		{"null value", "help:\n  count:\n", "has no value"},
		{"duplicate key", "help:\n  Greet:\n    hello: a\n  Greet.hello: b\n", "defined twice"},
		{"invalid yaml", "types: [", "parsing file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestParseEntries(t *testing.T) {
	got, err := ParseEntries("type", []string{"Greet.hello=str", "count=int", "msg=a=b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"Greet.hello": "str", "count": "int", "msg": "a=b"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("entries[%q] = %q, want %q", k, got[k], v)
		}
	}

	if _, err := ParseEntries("type", []string{"novalue"}); err == nil {
		t.Error("expected error for entry without '='")
	}
	if _, err := ParseEntries("type", []string{"=int"}); err == nil {
		t.Error("expected error for empty key")
	}
	if m, err := ParseEntries("type", nil); err != nil || m != nil {
		t.Errorf("nil entries = %v, %v; want nil, nil", m, err)
	}
}

func TestFromEntries(t *testing.T) {
	o, err := FromEntries([]string{"b=int"}, []string{"b=The b value"}, []string{"Add=Adds numbers"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Types["b"] != callable.TagInteger || o.Help["b"] != "The b value" || o.Descriptions["Add"] != "Adds numbers" {
		t.Errorf("unexpected overrides: %+v", o)
	}

	if _, err := FromEntries([]string{"b=matrix"}, nil, nil); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestMerge(t *testing.T) {
	base := &Overrides{
		Types: map[string]callable.TypeTag{"a": callable.TagString, "b": callable.TagString},
		Help:  map[string]string{"a": "from file"},
	}
	extra := &Overrides{
		Types: map[string]callable.TypeTag{"b": callable.TagInteger},
		Help:  map[string]string{"a": "from flag"},
	}

	merged := Merge(base, extra)
	if merged.Types["a"] != callable.TagString || merged.Types["b"] != callable.TagInteger {
		t.Errorf("merged types = %v", merged.Types)
	}
	if merged.Help["a"] != "from flag" {
		t.Errorf("merged help = %v", merged.Help)
	}

	// Inputs are untouched.
	if base.Types["b"] != callable.TagString || base.Help["a"] != "from file" {
		t.Errorf("base mutated: %+v", base)
	}

	if !Merge(nil, nil).Empty() {
		t.Error("merge of nils should be empty")
	}
	var nilOverrides *Overrides
	if !nilOverrides.Empty() {
		t.Error("nil overrides should be empty")
	}
}

package nameutil

import (
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Text Kit", "text-kit"},
		{"my@tool!v2", "my-tool-v2"},
		{"text---kit", "text-kit"},
		{"--text--kit--", "text-kit"},
		{"", ""},
		{"!@#$%", ""},
		{"text_utils", "text-utils"},
		{"StrUtil.Wrap", "strutil-wrap"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInferName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"import path", "github.com/thellimist/cligen/e2e/fixture/strutil", "strutil"},
		{"major version", "example.com/textkit/v3", "textkit"},
		{"go- prefix", "github.com/acme/go-textkit", "textkit"},
		{"-go suffix", "github.com/acme/textkit-go", "textkit"},
		{"version query", "example.com/textkit@v1.2.0", "textkit"},
		{"relative dir", "./e2e/fixture/strutil", "strutil"},
		{"recursive pattern", "./tools/...", "tools"},
		{"trailing slash", "tools/", "tools"},
		{"manifest file", "manifests/text_kit.yaml", "text-kit"},
		{"dotted namespace", "strutil.wrap", "strutil"},
		{"bare go- is kept", "go-", "go"},
		{"current dir", ".", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferName(tt.input)
			if got != tt.want {
				t.Errorf("InferName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCamelCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"max_count", "MaxCount"},
		{"maxCount", "MaxCount"},
		{"wrap.fill", "WrapFill"},
		{"type_", "Type"},
		{"list-items", "ListItems"},
		{"a b", "AB"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := CamelCase(tc.input); got != tc.want {
				t.Errorf("CamelCase(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		prefix string
		input  string
		want   string
	}{
		{"flag", "max_count", "flagMaxCount"},
		{"run", "wrap.fill", "runWrapFill"},
		{"", "wrap.fill", "wrapFill"},
		{"", "2fa", "_2fa"},
		{"arg", "text", "argText"},
	}
	for _, tc := range tests {
		t.Run(tc.prefix+tc.input, func(t *testing.T) {
			if got := Identifier(tc.prefix, tc.input); got != tc.want {
				t.Errorf("Identifier(%q, %q) = %q, want %q", tc.prefix, tc.input, got, tc.want)
			}
		})
	}
}

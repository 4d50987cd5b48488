package goload

import (
	"fmt"
	"go/ast"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thellimist/cligen/internal/callable"
)

const directivePrefix = "cligen:"

// directives are the //cligen: comment lines attached to a function.
type directives struct {
	ignore   bool
	defaults map[string]string // raw text, decoded against the parameter type
	help     map[string]string
}

// parseDirectives reads the //cligen: lines of a doc comment. Like other Go
// directives they must start at the comment marker with no space. Unknown
// keys are returned for the caller to report; malformed arguments are errors.
func parseDirectives(doc *ast.CommentGroup) (directives, []string, error) {
	d := directives{defaults: map[string]string{}, help: map[string]string{}}
	if doc == nil {
		return d, nil, nil
	}
	var unknown []string
	for _, c := range doc.List {
		content, ok := strings.CutPrefix(c.Text, "//"+directivePrefix)
		if !ok {
			continue
		}
		key, arg, _ := strings.Cut(content, " ")
		arg = strings.TrimSpace(arg)
		switch key {
		case "ignore":
			d.ignore = true
		case "default":
			name, raw, err := splitAssignment(key, arg)
			if err != nil {
				return d, unknown, err
			}
			d.defaults[name] = raw
		case "help":
			name, text, err := splitAssignment(key, arg)
			if err != nil {
				return d, unknown, err
			}
			d.help[name] = text
		default:
			unknown = append(unknown, directivePrefix+key)
		}
	}
	return d, unknown, nil
}

func splitAssignment(key, arg string) (string, string, error) {
	name, value, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("//%s%s %q: want name=value", directivePrefix, key, arg)
	}
	return name, strings.TrimSpace(value), nil
}

// decodeDefault turns the text of a //cligen:default into a value. It is
// read as a YAML scalar or flow value, except that string parameters and
// string list items keep the text as written, so 007 stays "007". Quotes
// still delimit a string. Text that is empty or not valid YAML is kept as a
// plain string.
func decodeDefault(raw string, tag, elem callable.TypeTag) any {
	if raw == "" {
		return ""
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil || len(doc.Content) == 0 {
		return raw
	}
	node := doc.Content[0]
	switch {
	case tag == callable.TagString:
		if node.Kind == yaml.ScalarNode {
			return node.Value
		}
		return raw
	case tag == callable.TagList && elem == callable.TagString && node.Kind == yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return raw
			}
			items = append(items, item.Value)
		}
		return items
	}
	var v any
	if err := node.Decode(&v); err != nil || v == nil {
		return raw
	}
	return v
}

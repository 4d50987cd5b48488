// Package overrides holds the caller-supplied maps that take precedence over
// what a host can introspect: parameter types, parameter help, and callable
// descriptions.
//
// Keys are dotted and progressively less specific:
//
//	namespace.callable.param   e.g. "strutil.Greet.hello"
//	callable.param             e.g. "Greet.hello"
//	param                      e.g. "hello"
//
// Description keys stop at the callable ("strutil.Greet", "Greet").
package overrides

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thellimist/cligen/internal/callable"
)

// Overrides is the set of lookup maps. The zero value is usable and empty.
type Overrides struct {
	Types        map[string]callable.TypeTag
	Help         map[string]string
	Descriptions map[string]string
}

// file mirrors the on-disk layout. Sections may be nested or use dotted keys.
type file struct {
	Types        map[string]any `yaml:"types"`
	Help         map[string]any `yaml:"help"`
	Descriptions map[string]any `yaml:"descriptions"`
}

// Load reads overrides from a YAML or JSON file at path. Keys outside the
// three sections are ignored so the file can be shared with other settings.
func Load(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("overrides: reading file: %w", err)
	}
	return Parse(data)
}

// Parse decodes overrides from YAML or JSON bytes.
func Parse(data []byte) (*Overrides, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("overrides: parsing file: %w", err)
	}

	types, err := flatten(f.Types)
	if err != nil {
		return nil, fmt.Errorf("overrides: types: %w", err)
	}
	help, err := flatten(f.Help)
	if err != nil {
		return nil, fmt.Errorf("overrides: help: %w", err)
	}
	desc, err := flatten(f.Descriptions)
	if err != nil {
		return nil, fmt.Errorf("overrides: descriptions: %w", err)
	}

	o := &Overrides{Help: help, Descriptions: desc}
	if o.Types, err = parseTypes(types); err != nil {
		return nil, err
	}
	return o, nil
}

func parseTypes(raw map[string]string) (map[string]callable.TypeTag, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]callable.TypeTag, len(raw))
	for _, key := range sortedKeys(raw) {
		tag, err := callable.ParseTag(raw[key])
		if err != nil {
			return nil, fmt.Errorf("overrides: type for %q: %w", key, err)
		}
		out[key] = tag
	}
	return out, nil
}

// flatten turns nested mappings into dotted keys with string leaves.
func flatten(section map[string]any) (map[string]string, error) {
	if len(section) == 0 {
		return nil, nil
	}
	out := make(map[string]string)
	if err := flattenInto("", section, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(prefix string, node map[string]any, out map[string]string) error {
	for key, v := range node {
		if key == "" {
			return errors.New("empty key")
		}
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch val := v.(type) {
		case map[string]any:
			if err := flattenInto(full, val, out); err != nil {
				return err
			}
		case map[any]any:
			converted := make(map[string]any, len(val))
			for k, inner := range val {
				converted[fmt.Sprint(k)] = inner
			}
			if err := flattenInto(full, converted, out); err != nil {
				return err
			}
		case nil:
			return fmt.Errorf("key %q has no value", full)
		case []any:
			return fmt.Errorf("key %q: lists are not valid override values", full)
		default:
			if _, dup := out[full]; dup {
				return fmt.Errorf("key %q is defined twice", full)
			}
			out[full] = fmt.Sprint(val)
		}
	}
	return nil
}

// ParseEntries parses repeatable key=value flag entries into a map. Each entry
// is split on the first '='. An error is returned for entries missing '=' or
// having an empty key.
func ParseEntries(flagName string, entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("overrides: invalid --%s %q: expected key=value", flagName, entry)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("overrides: invalid --%s %q: empty key", flagName, entry)
		}
		out[key] = value
	}
	return out, nil
}

// FromEntries builds overrides from --type, --param-help and --describe entries.
func FromEntries(types, help, descriptions []string) (*Overrides, error) {
	rawTypes, err := ParseEntries("type", types)
	if err != nil {
		return nil, err
	}
	o := &Overrides{}
	if o.Types, err = parseTypes(rawTypes); err != nil {
		return nil, err
	}
	if o.Help, err = ParseEntries("param-help", help); err != nil {
		return nil, err
	}
	if o.Descriptions, err = ParseEntries("describe", descriptions); err != nil {
		return nil, err
	}
	return o, nil
}

// Merge returns a new Overrides holding base with extra applied on top.
// Either argument may be nil; neither is mutated.
func Merge(base, extra *Overrides) *Overrides {
	var merged Overrides
	for _, o := range []*Overrides{base, extra} {
		if o == nil {
			continue
		}
		merged.Types = mergeMap(merged.Types, o.Types)
		merged.Help = mergeMap(merged.Help, o.Help)
		merged.Descriptions = mergeMap(merged.Descriptions, o.Descriptions)
	}
	return &merged
}

func mergeMap[V any](dst, src map[string]V) map[string]V {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]V, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Empty reports whether no override is set.
func (o *Overrides) Empty() bool {
	return o == nil || (len(o.Types) == 0 && len(o.Help) == 0 && len(o.Descriptions) == 0)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

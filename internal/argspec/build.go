package argspec

import (
	"fmt"
	"math"
	"reflect"

	"github.com/thellimist/cligen/internal/callable"
)

// Spec is one parameter together with its resolved metadata.
type Spec struct {
	Param callable.Param
	Type  callable.TypeTag // resolved tag, TagNone when unresolved
	Help  string           // resolved help text
}

// Metadata resolves parameter types and help text.
type Metadata interface {
	ResolveType(c *callable.Callable, param string) callable.TypeTag
	ResolveHelp(c *callable.Callable, param string) string
}

// Build maps one parameter to its descriptor.
//
// Rules, in order:
//   - Booleans are presence flags and never take a value.
//   - Required parameters are positional, defaulted ones are --options.
//   - Lists accept zero or more values.
//   - Dicts take one token holding a JSON object.
//   - Other tags coerce the token; unresolved parameters stay raw strings.
func Build(spec Spec) (Descriptor, error) {
	p := spec.Param
	tag := spec.Type

	if err := checkCompatible(p, tag); err != nil {
		return Descriptor{}, fmt.Errorf("parameter %q: %w", p.Name, err)
	}

	d := Descriptor{
		Param:      p.Name,
		Binding:    p.Name,
		Name:       ExternalName(p.Name),
		Position:   p.Position,
		Type:       tag,
		Required:   p.Required(),
		HasDefault: p.HasDefault,
		Help:       spec.Help,
		GoType:     p.GoType,
		ElemGoType: p.ElemType,
		Imports:    p.Imports,
		Variadic:   p.Variadic,
	}
	// A numeric override of a sized type parses at the natural width and is
	// converted at the call.
	if tag == p.Tag {
		d.Basic = basicOf(p.Basic, p.GoType)
	}

	switch {
	case tag == callable.TagBoolean:
		d.Kind = Flag
	case d.Required:
		d.Kind = Positional
	default:
		d.Kind = Option
	}

	switch tag {
	case callable.TagList:
		d.Multiple = true
		d.Elem = listElem(p)
		if d.Elem == p.Elem {
			d.ElemBasic = basicOf(p.ElemBasic, p.ElemType)
		}
	case callable.TagDict:
		d.Structured = true
	}

	if p.HasDefault {
		v, err := coerceDefault(tag, d.Elem, p.Default)
		if err != nil {
			return Descriptor{}, fmt.Errorf("parameter %q: %w: %v", p.Name, ErrDefaultMismatch, err)
		}
		if err := checkRange(d, v); err != nil {
			return Descriptor{}, fmt.Errorf("parameter %q: %w: %v", p.Name, ErrDefaultMismatch, err)
		}
		d.Default = v
	}
	return d, nil
}

// basicOf prefers the numeric type a host recorded and falls back to the
// declared type when it is predeclared.
func basicOf(basic, goType string) string {
	if basic != "" {
		return basic
	}
	return callable.Basic(goType)
}

// checkRange rejects defaults the declared numeric type cannot hold, which
// generated code would fail to compile.
func checkRange(d Descriptor, v any) error {
	if items, ok := v.([]any); ok && d.Multiple {
		for i, item := range items {
			if err := inRange(d.ElemBasic, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	}
	return inRange(d.Basic, v)
}

func inRange(basic string, v any) error {
	switch n := v.(type) {
	case int64:
		bits, unsigned, ok := callable.IntBits(basic)
		if !ok {
			return nil
		}
		if bits == 0 {
			bits = 64
		}
		switch {
		case unsigned && n < 0:
			return fmt.Errorf("%d is negative, want %s", n, basic)
		case unsigned && bits < 64 && uint64(n) >= 1<<bits:
			return fmt.Errorf("%d overflows %s", n, basic)
		case !unsigned && bits < 64 && (n < -(1<<(bits-1)) || n >= 1<<(bits-1)):
			return fmt.Errorf("%d overflows %s", n, basic)
		}
	case float64:
		if basic == "float32" && math.Abs(n) > math.MaxFloat32 {
			return fmt.Errorf("%g overflows float32", n)
		}
	}
	return nil
}

// BuildAll builds the descriptors of every exposed parameter of c and rejects
// signatures whose external names collide.
func BuildAll(c *callable.Callable, md Metadata) ([]Descriptor, error) {
	names, _, err := Analyze(c)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]callable.Param, len(c.Params))
	for _, p := range c.Params {
		byName[p.Name] = p
	}

	descs := make([]Descriptor, 0, len(names))
	taken := map[string]string{"help": ""}
	lists := 0
	for _, name := range names {
		d, err := Build(Spec{
			Param: byName[name],
			Type:  md.ResolveType(c, name),
			Help:  md.ResolveHelp(c, name),
		})
		if err != nil {
			return nil, fmt.Errorf("argspec: %s: %w", c.QualifiedName(), err)
		}

		if d.Kind == Positional {
			if d.Multiple {
				lists++
				if lists > 1 {
					return nil, fmt.Errorf("argspec: %s: parameter %q: %w", c.QualifiedName(), name, ErrMultipleLists)
				}
			}
		} else {
			if other, dup := taken[d.Name]; dup {
				if other == "" {
					return nil, fmt.Errorf("argspec: %s: parameter %q: %w: --%s is reserved",
						c.QualifiedName(), name, ErrFlagCollision, d.Name)
				}
				return nil, fmt.Errorf("argspec: %s: parameters %q and %q: %w: both map to --%s",
					c.QualifiedName(), other, name, ErrFlagCollision, d.Name)
			}
			taken[d.Name] = name
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// checkCompatible rejects resolved tags that generated code could not pass
// to a parameter of the declared Go type.
func checkCompatible(p callable.Param, tag callable.TypeTag) error {
	if p.GoType == "" || tag == p.Tag {
		if tag == callable.TagNone && p.GoType != "" {
			return fmt.Errorf("%w: %s", ErrUnsupportedType, p.GoType)
		}
		return nil
	}
	numeric := func(t callable.TypeTag) bool { return t == callable.TagInteger || t == callable.TagFloat }
	switch {
	case numeric(p.Tag) && numeric(tag):
		return nil
	case p.Tag == callable.TagNone && tag == callable.TagDict:
		// Opaque declared types are decoded from JSON directly.
		return nil
	case p.Tag == callable.TagNone:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, p.GoType)
	default:
		return fmt.Errorf("%w: %s is %s, override is %s", ErrTypeMismatch, p.GoType, p.Tag, displayTag(tag))
	}
}

func displayTag(t callable.TypeTag) string {
	if t == callable.TagNone {
		return "unresolved"
	}
	return string(t)
}

func listElem(p callable.Param) callable.TypeTag {
	elem := p.Elem
	if p.Tag != callable.TagList {
		elem = callable.TagNone
	}
	if elem == callable.TagNone && p.HasDefault {
		elem = callable.InferElem(p.Default)
	}
	if !elem.Scalar() {
		elem = callable.TagString
	}
	return elem
}

// coerceDefault normalises a default value to the representation
// DefaultLiteral expects for the tag: int64, float64, bool, string, []any or
// the raw dict value.
func coerceDefault(tag, elem callable.TypeTag, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch tag {
	case callable.TagList:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("want a list, got %T", v)
		}
		out := make([]any, rv.Len())
		for i := range out {
			item, err := coerceScalar(elem, rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = item
		}
		return out, nil
	case callable.TagDict:
		if s, ok := v.(string); ok {
			return s, nil
		}
		if reflect.ValueOf(v).Kind() != reflect.Map {
			return nil, fmt.Errorf("want a mapping, got %T", v)
		}
		return v, nil
	default:
		return coerceScalar(tag, v)
	}
}

func coerceScalar(tag callable.TypeTag, v any) (any, error) {
	rv := reflect.ValueOf(v)
	kind := rv.Kind()
	isInt := kind >= reflect.Int && kind <= reflect.Int64
	isUint := kind >= reflect.Uint && kind <= reflect.Uint64
	isFloat := kind == reflect.Float32 || kind == reflect.Float64

	switch tag {
	case callable.TagInteger:
		switch {
		case isInt:
			return rv.Int(), nil
		case isUint:
			if rv.Uint() > math.MaxInt64 {
				return nil, fmt.Errorf("%v overflows int64", v)
			}
			return int64(rv.Uint()), nil
		case isFloat && rv.Float() == math.Trunc(rv.Float()):
			return int64(rv.Float()), nil
		}
		return nil, fmt.Errorf("want an integer, got %T", v)
	case callable.TagFloat:
		switch {
		case isFloat:
			return rv.Float(), nil
		case isInt:
			return float64(rv.Int()), nil
		case isUint:
			return float64(rv.Uint()), nil
		}
		return nil, fmt.Errorf("want a number, got %T", v)
	case callable.TagBoolean:
		if kind == reflect.Bool {
			return rv.Bool(), nil
		}
		return nil, fmt.Errorf("want a boolean, got %T", v)
	default:
		// string and unresolved take the text form of any scalar.
		if kind == reflect.String {
			return rv.String(), nil
		}
		if isInt || isUint || isFloat || kind == reflect.Bool {
			return fmt.Sprint(v), nil
		}
		return nil, fmt.Errorf("want a scalar, got %T", v)
	}
}

package callable

import (
	"fmt"
	"reflect"
	"strings"
)

// TypeTag is the CLI-level type of a parameter.
type TypeTag string

const (
	TagNone    TypeTag = "" // unresolved; the raw token is passed through
	TagString  TypeTag = "string"
	TagInteger TypeTag = "integer"
	TagFloat   TypeTag = "float"
	TagBoolean TypeTag = "boolean"
	TagList    TypeTag = "list"
	TagDict    TypeTag = "dict"
)

var tagAliases = map[string]TypeTag{
	"string":   TagString,
	"str":      TagString,
	"integer":  TagInteger,
	"int":      TagInteger,
	"float":    TagFloat,
	"float64":  TagFloat,
	"number":   TagFloat,
	"boolean":  TagBoolean,
	"bool":     TagBoolean,
	"list":     TagList,
	"array":    TagList,
	"[]string": TagList,
	"dict":     TagDict,
	"object":   TagDict,
	"map":      TagDict,
	"json":     TagDict,
}

// ParseTag parses a user-supplied type name. Matching is case-insensitive.
func ParseTag(s string) (TypeTag, error) {
	if t, ok := tagAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return TagNone, fmt.Errorf("unknown type %q (want string, integer, float, boolean, list or dict)", s)
}

// Scalar reports whether the tag is a single-token scalar type.
func (t TypeTag) Scalar() bool {
	switch t {
	case TagString, TagInteger, TagFloat, TagBoolean:
		return true
	}
	return false
}

// InferTag returns the tag matching the runtime type of v. A nil value, or
// one of an unsupported kind, is unresolved.
func InferTag(v any) TypeTag {
	if v == nil {
		return TagNone
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.String:
		return TagString
	case reflect.Bool:
		return TagBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TagInteger
	case reflect.Float32, reflect.Float64:
		return TagFloat
	case reflect.Slice, reflect.Array:
		return TagList
	case reflect.Map:
		return TagDict
	default:
		return TagNone
	}
}

// InferElem returns the element tag of a slice default, TagString when the
// slice is empty or mixed.
func InferElem(v any) TypeTag {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() == 0 {
		return TagString
	}
	first := InferTag(rv.Index(0).Interface())
	for i := 1; i < rv.Len(); i++ {
		if InferTag(rv.Index(i).Interface()) != first {
			return TagString
		}
	}
	if !first.Scalar() {
		return TagString
	}
	return first
}

type numericKind struct {
	bits     int // 0 is the platform word size
	unsigned bool
	float    bool
}

var numericKinds = map[string]numericKind{
	"int":     {},
	"int8":    {bits: 8},
	"int16":   {bits: 16},
	"int32":   {bits: 32},
	"int64":   {bits: 64},
	"uint":    {unsigned: true},
	"uint8":   {bits: 8, unsigned: true},
	"uint16":  {bits: 16, unsigned: true},
	"uint32":  {bits: 32, unsigned: true},
	"uint64":  {bits: 64, unsigned: true},
	"uintptr": {unsigned: true},
	"float32": {bits: 32, float: true},
	"float64": {bits: 64, float: true},
}

// Basic returns the predeclared numeric type goType names, with byte and rune
// resolved to uint8 and int32. It returns "" for any other type expression.
func Basic(goType string) string {
	switch goType {
	case "byte":
		return "uint8"
	case "rune":
		return "int32"
	}
	if _, ok := numericKinds[goType]; ok {
		return goType
	}
	return ""
}

// IntBits reports the size and signedness of a predeclared integer type.
// A size of zero means the platform word size.
func IntBits(basic string) (bits int, unsigned, ok bool) {
	k, ok := numericKinds[basic]
	if !ok || k.float {
		return 0, false, false
	}
	return k.bits, k.unsigned, true
}

// NaturalGoType is the Go type a generated tool binds a tag to before any
// conversion to the declared parameter type.
func NaturalGoType(t, elem TypeTag) string {
	switch t {
	case TagInteger:
		return "int"
	case TagFloat:
		return "float64"
	case TagBoolean:
		return "bool"
	case TagList:
		if elem == TagList || elem == TagDict || elem == TagNone {
			elem = TagString
		}
		return "[]" + NaturalGoType(elem, TagNone)
	case TagDict:
		return "map[string]any"
	default:
		return "string"
	}
}

package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thellimist/cligen/internal/callable"
)

// paramsFromSchema turns a JSON Schema object describing the arguments of a
// function into parameters.
//
// Properties have no order in JSON, so the declaration order is: required
// properties first, then alphabetical by name within each group. A property
// with a "default" is optional even when listed as required.
//
// Edge cases:
//   - nil or empty schema → no parameters
//   - missing "properties" → no parameters
//   - missing "type" on a property → string
func paramsFromSchema(schema map[string]any) ([]callable.Param, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	propsRaw, ok := schema["properties"]
	if !ok {
		return nil, nil
	}
	properties, ok := propsRaw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("inputSchema: properties must be an object")
	}

	requiredSet := make(map[string]bool)
	if reqArr, ok := schema["required"].([]any); ok {
		for _, v := range reqArr {
			if s, ok := v.(string); ok {
				requiredSet[s] = true
			}
		}
	}

	params := make([]callable.Param, 0, len(properties))
	for name, propRaw := range properties {
		prop, ok := propRaw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("inputSchema: property %q must be an object", name)
		}

		var items map[string]any
		if itemsRaw, ok := prop["items"].(map[string]any); ok {
			items = itemsRaw
		}
		tag, elem := mapJSONSchemaType(prop["type"], items)

		p := callable.Param{Name: name, Tag: tag, Elem: elem}
		if desc, ok := prop["description"].(string); ok {
			p.Help = desc
		}
		if enumRaw, ok := prop["enum"].([]any); ok && len(enumRaw) > 0 {
			vals := make([]string, 0, len(enumRaw))
			for _, v := range enumRaw {
				vals = append(vals, fmt.Sprintf("%v", v))
			}
			p.Help = strings.TrimSpace(p.Help + " (" + strings.Join(vals, "|") + ")")
		}
		if def, ok := prop["default"]; ok {
			p.Default = def
			p.HasDefault = true
		} else if !requiredSet[name] {
			// Optional without a default: the zero value of the type.
			p.Default = zeroValue(tag)
			p.HasDefault = true
		}
		params = append(params, p)
	}

	sort.Slice(params, func(i, j int) bool {
		if params[i].Required() != params[j].Required() {
			return params[i].Required()
		}
		return params[i].Name < params[j].Name
	})
	for i := range params {
		params[i].Position = i
	}
	return params, nil
}

// mapJSONSchemaType maps a JSON Schema type (and optional items) to a tag and
// the list element tag.
//
// It handles:
//   - Basic types: string, integer, number, boolean, object
//   - Array types: checks items.type for element type
//   - Nullable types: when type is an array like ["string", "null"], picks the first non-"null" type
//   - Unrecognized or missing types default to string
func mapJSONSchemaType(schemaType any, items map[string]any) (callable.TypeTag, callable.TypeTag) {
	switch t := schemaType.(type) {
	case string:
		return mapSingleType(t, items)
	case []any:
		for _, v := range t {
			s, ok := v.(string)
			if ok && s != "null" {
				return mapSingleType(s, items)
			}
		}
	}
	return callable.TagString, callable.TagNone
}

func mapSingleType(t string, items map[string]any) (callable.TypeTag, callable.TypeTag) {
	switch t {
	case "integer":
		return callable.TagInteger, callable.TagNone
	case "number":
		return callable.TagFloat, callable.TagNone
	case "boolean":
		return callable.TagBoolean, callable.TagNone
	case "object":
		return callable.TagDict, callable.TagNone
	case "array":
		return callable.TagList, mapArrayElem(items)
	default:
		return callable.TagString, callable.TagNone
	}
}

func mapArrayElem(items map[string]any) callable.TypeTag {
	itemType, _ := items["type"].(string)
	elem, _ := mapSingleType(itemType, nil)
	if !elem.Scalar() {
		return callable.TagString
	}
	return elem
}

func zeroValue(tag callable.TypeTag) any {
	switch tag {
	case callable.TagInteger:
		return 0
	case callable.TagFloat:
		return 0.0
	case callable.TagBoolean:
		return false
	case callable.TagList:
		return []any{}
	case callable.TagDict:
		return nil
	default:
		return ""
	}
}

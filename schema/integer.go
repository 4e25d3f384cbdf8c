package schema

import (
	"encoding/json"
	"strconv"
	"strings"
)

// integerViolations reports numbers written with a fraction or exponent where
// the schema only allows integers. Draft 4 treats 1.0 as a number, not an
// integer, while the compiled validator accepts any integral value.
//
// The walk follows properties, additionalProperties, items, additionalItems
// and allOf. Locations reached only through anyOf, oneOf, not or $ref are
// left to the compiled validator.
func integerViolations(node any, value any, field string) []string {
	sch, ok := node.(map[string]any)
	if !ok {
		return nil
	}

	var out []string
	if branches, ok := sch["allOf"].([]any); ok {
		for _, branch := range branches {
			out = append(out, integerViolations(branch, value, field)...)
		}
	}

	switch v := value.(type) {
	case json.Number:
		if integerOnly(sch["type"]) && !isIntegerLiteral(v) {
			out = append(out, field+": Invalid type. Expected: integer, given: number")
		}
	case map[string]any:
		props, _ := sch["properties"].(map[string]any)
		for key, child := range v {
			sub, ok := props[key]
			if !ok {
				sub = sch["additionalProperties"]
			}
			out = append(out, integerViolations(sub, child, joinField(field, key))...)
		}
	case []any:
		switch items := sch["items"].(type) {
		case map[string]any:
			for i, child := range v {
				out = append(out, integerViolations(items, child, joinField(field, strconv.Itoa(i)))...)
			}
		case []any:
			for i, child := range v {
				sub := sch["additionalItems"]
				if i < len(items) {
					sub = items[i]
				}
				out = append(out, integerViolations(sub, child, joinField(field, strconv.Itoa(i)))...)
			}
		}
	}
	return out
}

// integerOnly reports whether a type keyword admits integers but not numbers.
func integerOnly(typ any) bool {
	switch t := typ.(type) {
	case string:
		return t == "integer"
	case []any:
		integer, number := false, false
		for _, name := range t {
			switch name {
			case "integer":
				integer = true
			case "number":
				number = true
			}
		}
		return integer && !number
	}
	return false
}

func isIntegerLiteral(n json.Number) bool {
	return !strings.ContainsAny(n.String(), ".eE")
}

func joinField(parent, key string) string {
	if parent == rootField {
		return key
	}
	return parent + "." + key
}

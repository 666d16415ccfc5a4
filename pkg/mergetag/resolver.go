// Package mergetag resolves {objectType:field} placeholders embedded in
// trigger mapping values against a contextual record.
package mergetag

import (
	"encoding/json"
	"regexp"
	"strconv"
)

// Context is the record merge tags are resolved against: object type to
// field to value. Values may be scalars or structured (maps, slices).
type Context map[string]map[string]any

// A placeholder is {segment:segment} where segments are non-empty runs
// containing no braces and no further colon. Anything else in braces is
// plain text and is preserved verbatim.
var tagPattern = regexp.MustCompile(`\{([^{}:]+):([^{}:]+)\}`)

// Resolve substitutes every resolvable placeholder in template and returns
// the result as a string. Placeholders with no matching context entry are
// left untouched so an author referencing an unavailable field sees the
// literal tag instead of losing data.
func Resolve(template string, ctx Context) string {
	return tagPattern.ReplaceAllStringFunc(template, func(tag string) string {
		parts := tagPattern.FindStringSubmatch(tag)

		value, ok := lookup(ctx, parts[1], parts[2])
		if !ok {
			return tag
		}

		return Stringify(value)
	})
}

// ResolveValue behaves like Resolve except when the entire template is
// exactly one placeholder with no surrounding text: a structured context
// value (map, slice) is then returned in its structured form instead of a
// string. "{entry:all_fields}" may resolve to a map; "id={entry:id}" is
// always a string.
func ResolveValue(template string, ctx Context) any {
	if loc := tagPattern.FindStringSubmatchIndex(template); loc != nil && loc[0] == 0 && loc[1] == len(template) {
		objectType := template[loc[2]:loc[3]]
		field := template[loc[4]:loc[5]]

		if value, ok := lookup(ctx, objectType, field); ok {
			switch value.(type) {
			case map[string]any, []any:
				return value
			default:
				return Stringify(value)
			}
		}

		return template
	}

	return Resolve(template, ctx)
}

// ContainsTag reports whether template holds at least one placeholder.
func ContainsTag(template string) bool {
	return tagPattern.MatchString(template)
}

func lookup(ctx Context, objectType, field string) (any, bool) {
	fields, ok := ctx[objectType]
	if !ok {
		return nil, false
	}

	value, ok := fields[field]

	return value, ok
}

// Stringify converts a context value to its canonical string form.
// Structured values are JSON-encoded so they survive embedding in text.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(encoded)
	}
}

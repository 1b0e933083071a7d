package core

import (
	"fmt"
	"strconv"
	"strings"

	"dh-release/internal/types"
)

// CastValue converts raw manifest text into a typed value. The rules are
// syntactic only: "None" is null, text without '.' or 'e' that parses as
// an integer is an int, text containing either that parses as a float is
// a float, and anything else stays a string.
func CastValue(raw string) types.Value {
	value := types.Value{Kind: types.ValueKindString, Raw: raw}
	if raw == "None" {
		value.Kind = types.ValueKindNull
		return value
	}
	if strings.ContainsAny(raw, "xX_") {
		return value
	}
	if !strings.ContainsAny(raw, ".e") {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			value.Kind = types.ValueKindInt
			value.Int = parsed
		}
		return value
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err == nil {
		value.Kind = types.ValueKindFloat
		value.Float = parsed
	}
	return value
}

func CastEntries(raw []types.RawEntry) []types.Entry {
	entries := make([]types.Entry, 0, len(raw))
	for _, entry := range raw {
		entries = append(entries, types.Entry{Name: entry.Name, Value: CastValue(entry.Raw)})
	}
	return entries
}

// ApplySchema checks declared keys against their expected kinds. A string
// declaration always succeeds and keeps the raw text; a float declaration
// accepts integers. Every violation is collected into one error.
func ApplySchema(section types.Section, schema types.SectionSchema) (types.Section, error) {
	if len(schema) == 0 {
		return section, nil
	}
	var problems []string
	out := types.Section{Name: section.Name, Entries: make([]types.Entry, 0, len(section.Entries))}
	for _, entry := range section.Entries {
		want, declared := schema[entry.Name]
		if !declared {
			out.Entries = append(out.Entries, entry)
			continue
		}
		value, ok := coerce(entry.Value, want)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: expected %s, got %q", entry.Name, want, entry.Value.Raw))
			continue
		}
		out.Entries = append(out.Entries, types.Entry{Name: entry.Name, Value: value})
	}
	if len(problems) > 0 {
		return types.Section{}, types.ManifestSchemaError(section.Name, problems)
	}
	return out, nil
}

func coerce(value types.Value, want types.ValueKind) (types.Value, bool) {
	switch want {
	case types.ValueKindString:
		return types.Value{Kind: types.ValueKindString, Raw: value.Raw}, true
	case types.ValueKindInt:
		return value, value.Kind == types.ValueKindInt
	case types.ValueKindFloat:
		switch value.Kind {
		case types.ValueKindFloat:
			return value, true
		case types.ValueKindInt:
			value.Kind = types.ValueKindFloat
			value.Float = float64(value.Int)
			return value, true
		}
		return value, false
	case types.ValueKindNull:
		return value, value.Kind == types.ValueKindNull
	default:
		return value, false
	}
}

package types

import "strconv"

// Value is the typed form of a raw manifest value. Raw always keeps the
// text exactly as written so that version strings such as "0.10" can be
// used verbatim as directory suffixes.
type Value struct {
	Kind  ValueKind
	Raw   string
	Int   int64
	Float float64
}

func (v Value) IsNull() bool {
	return v.Kind == ValueKindNull
}

// String renders the value the way it should appear in paths and
// commands: the raw text for every kind except null, which renders empty.
func (v Value) String() string {
	if v.Kind == ValueKindNull {
		return ""
	}
	return v.Raw
}

// Any returns the value as nil, int64, float64 or string.
func (v Value) Any() any {
	switch v.Kind {
	case ValueKindNull:
		return nil
	case ValueKindInt:
		return v.Int
	case ValueKindFloat:
		return v.Float
	default:
		return v.Raw
	}
}

func (v Value) GoString() string {
	switch v.Kind {
	case ValueKindNull:
		return "None"
	case ValueKindInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueKindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return strconv.Quote(v.Raw)
	}
}

type Entry struct {
	Name  string
	Value Value
}

// Section is one named manifest section. Entries keep manifest order.
type Section struct {
	Name    string
	Entries []Entry
}

func (s Section) Get(name string) (Value, bool) {
	for _, entry := range s.Entries {
		if entry.Name == name {
			return entry.Value, true
		}
	}
	return Value{}, false
}

func (s Section) Text(name string) string {
	value, ok := s.Get(name)
	if !ok {
		return ""
	}
	return value.String()
}

func (s Section) Names() []string {
	names := make([]string, 0, len(s.Entries))
	for _, entry := range s.Entries {
		names = append(names, entry.Name)
	}
	return names
}

func (s Section) Len() int {
	return len(s.Entries)
}

// SectionSchema declares the expected kind of selected keys in a section.
// Keys missing from the schema keep the syntactic cast.
type SectionSchema map[string]ValueKind

// RawEntry is a manifest key and its uninterpreted text.
type RawEntry struct {
	Name string
	Raw  string
}

package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind identifies which variant a Value holds.
type ValueKind uint8

// Value kinds.
const (
	KindBool ValueKind = iota + 1
	KindNumber
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Value is a tag value: a bool, a number, or a string. The zero Value is
// invalid and marshals as JSON null.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the variant held by v, or 0 for the zero Value.
func (v Value) Kind() ValueKind { return v.kind }

// AsBool returns the boolean held by v. ok is false for other kinds.
func (v Value) AsBool() (b bool, ok bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v. ok is false for other kinds.
func (v Value) AsNumber() (n float64, ok bool) { return v.n, v.kind == KindNumber }

// AsString returns the string held by v. ok is false for other kinds.
func (v Value) AsString() (s string, ok bool) { return v.s, v.kind == KindString }

// Equal reports whether v and o hold the same variant and value.
func (v Value) Equal(o Value) bool { return v == o }

// String formats the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return "<invalid>"
	}
}

// MarshalJSON encodes v as a JSON bool, number, or string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON bool, number, or string. Any other JSON type
// returns ErrInvalidArgument.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case bool:
		*v = Bool(x)
	case float64:
		*v = Number(x)
	case string:
		*v = String(x)
	default:
		return fmt.Errorf("tag value %s: %w", data, ErrInvalidArgument)
	}
	return nil
}

// Tags is a free-form annotation map.
type Tags map[string]Value

// Clone returns a copy of the map. A nil map clones to an empty map.
func (t Tags) Clone() Tags {
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Flag returns the boolean tag named key. Missing or non-boolean tags read as
// false.
func (t Tags) Flag(key string) bool {
	b, ok := t[key].AsBool()
	return ok && b
}

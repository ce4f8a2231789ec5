// Package tree provides a tagged representation of JSON-like value trees.
// Instead of walking untyped any values, callers switch over a closed set
// of variants (Null, Bool, Number, String, Array, Object), which keeps
// extraction and merging exhaustive.
package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is a node in a JSON-like tree. The concrete types are Null, Bool,
// Number, String, Array, and Object.
type Value interface {
	isValue()
}

// Null represents a JSON null.
type Null struct{}

// Bool represents a JSON boolean.
type Bool bool

// Number represents a JSON number. The original source text is preserved
// so stringification round-trips exactly (1 stays "1", 1.5 stays "1.5").
type Number string

// String represents a JSON string.
type String string

// Array represents a JSON array.
type Array []Value

// Object represents a JSON object.
type Object map[string]Value

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Number) isValue() {}
func (String) isValue() {}
func (Array) isValue()  {}
func (Object) isValue() {}

// MarshalJSON implementations keep Marshal working on whole trees.
// Object keys are emitted in sorted order by encoding/json, which gives
// a stable canonical text for composite leaves.

func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (b Bool) MarshalJSON() ([]byte, error) { return json.Marshal(bool(b)) }

func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("0"), nil
	}
	return []byte(n), nil
}

func (s String) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

// Decode parses JSON text into a Value.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	// Reject trailing garbage after the first JSON value.
	if dec.More() {
		return nil, fmt.Errorf("unexpected trailing data after JSON value")
	}
	return FromAny(raw)
}

// DecodeObject parses JSON text and requires the result to be an object.
func DecodeObject(data []byte) (Object, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}

// FromAny converts a value produced by encoding/json into a Value.
// Numbers must be json.Number (decode with UseNumber) or a Go numeric type.
func FromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(v), nil
	case json.Number:
		return Number(v.String()), nil
	case float64:
		// Callers that did not use UseNumber still get a sane result.
		n, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return Number(n), nil
	case int:
		return Number(fmt.Sprintf("%d", v)), nil
	case string:
		return String(v), nil
	case []any:
		arr := make(Array, 0, len(v))
		for _, elem := range v {
			ev, err := FromAny(elem)
			if err != nil {
				return nil, err
			}
			arr = append(arr, ev)
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(v))
		for key, elem := range v {
			ev, err := FromAny(elem)
			if err != nil {
				return nil, err
			}
			obj[key] = ev
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}

// Encode serializes a Value to its canonical JSON text.
func Encode(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Clone returns a deep copy of v. Scalars are value types and copied as-is;
// arrays and objects are copied recursively.
func Clone(v Value) Value {
	switch t := v.(type) {
	case Array:
		out := make(Array, len(t))
		for i, elem := range t {
			out[i] = Clone(elem)
		}
		return out
	case Object:
		out := make(Object, len(t))
		for key, elem := range t {
			out[key] = Clone(elem)
		}
		return out
	default:
		return v
	}
}

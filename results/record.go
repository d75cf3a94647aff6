// Package results decodes query results and renders them as tables.
package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Pair is one key of an Object.
type Pair struct {
	Key   string
	Value any
}

// Object is a JSON object that keeps its keys in document order. Values are
// nil, bool, json.Number, string, Object or []any.
type Object []Pair

var errNotObject = errors.New("results: expected JSON object")

// UnmarshalJSON decodes an object preserving key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return err
	}

	obj, ok := v.(Object)
	if !ok {
		return errNotObject
	}

	*o = obj

	return nil
}

// MarshalJSON encodes the object with its original key order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, p := range o {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, p := range o {
		if p.Key == key {
			return p.Value, true
		}
	}

	return nil, false
}

// Map converts the object into plain Go maps for expression evaluation.
// Numbers become int or float64.
func (o Object) Map() map[string]any {
	m := make(map[string]any, len(o))
	for _, p := range o {
		m[p.Key] = plain(p.Value)
	}

	return m
}

func plain(v any) any {
	switch v := v.(type) {
	case Object:
		return v.Map()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plain(e)
		}

		return out
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}

		f, _ := v.Float64()

		return f
	default:
		return v
	}
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var obj Object

			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}

				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("results: unexpected key %v", kt)
				}

				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}

				obj = append(obj, Pair{Key: key, Value: v})
			}

			if _, err := dec.Token(); err != nil {
				return nil, err
			}

			if obj == nil {
				obj = Object{}
			}

			return obj, nil
		case '[':
			arr := []any{}

			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}

				arr = append(arr, v)
			}

			if _, err := dec.Token(); err != nil {
				return nil, err
			}

			return arr, nil
		}

		return nil, fmt.Errorf("results: unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}

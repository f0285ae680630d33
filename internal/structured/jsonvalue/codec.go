package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalid = errors.New("jsonvalue: invalid JSON")

// Parse is strict: data must hold exactly one JSON value surrounded only by whitespace.
// Object member order is preserved; a duplicated key keeps its first position and last value.
func Parse(data []byte) (Value, error) {
	if !json.Valid(data) {
		var probe any
		if err := json.Unmarshal(data, &probe); err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return Value{}, ErrInvalid
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return decode(dec)
}

func ParseString(s string) (Value, error) { return Parse([]byte(s)) }

// FromGo round-trips any JSON-marshalable Go value into a Value.
func FromGo(v any) (Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Value{}, err
	}
	return Parse(b)
}

func decode(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			v := Value{kind: KindObject, obj: map[string]Value{}}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("%w: object key %v", ErrInvalid, kt)
				}
				child, err := decode(dec)
				if err != nil {
					return Value{}, err
				}
				v.set(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return v, nil
		case '[':
			v := Value{kind: KindArray, arr: []Value{}}
			for dec.More() {
				child, err := decode(dec)
				if err != nil {
					return Value{}, err
				}
				v.arr = append(v.arr, child)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return v, nil
		default:
			return Value{}, fmt.Errorf("%w: unexpected delimiter %q", ErrInvalid, t)
		}
	case nil:
		return Value{}, nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		return Value{kind: KindNumber, num: t}, nil
	case string:
		return NewString(t), nil
	default:
		return Value{}, fmt.Errorf("%w: unexpected token %T", ErrInvalid, tok)
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) encode(w *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		w.WriteString("null")
	case KindBool:
		if v.b {
			w.WriteString("true")
		} else {
			w.WriteString("false")
		}
	case KindNumber:
		if v.num == "" {
			w.WriteString("0")
		} else {
			w.WriteString(v.num.String())
		}
	case KindString:
		return encodeString(w, v.s)
	case KindArray:
		w.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				w.WriteByte(',')
			}
			if err := item.encode(w); err != nil {
				return err
			}
		}
		w.WriteByte(']')
	case KindObject:
		w.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				w.WriteByte(',')
			}
			if err := encodeString(w, k); err != nil {
				return err
			}
			w.WriteByte(':')
			if err := v.obj[k].encode(w); err != nil {
				return err
			}
		}
		w.WriteByte('}')
	default:
		return fmt.Errorf("jsonvalue: unknown kind %d", v.kind)
	}
	return nil
}

func encodeString(w *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	w.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

var (
	_ json.Marshaler   = Value{}
	_ json.Unmarshaler = (*Value)(nil)
)

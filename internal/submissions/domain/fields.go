package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldValue is a tagged scalar-or-list variant. HTML forms may submit the
// same field several times, so a value is either one string or an ordered
// sequence of strings.
type FieldValue struct {
	multi bool
	items []string
}

// Scalar wraps a single string value.
func Scalar(s string) FieldValue {
	return FieldValue{items: []string{s}}
}

// List wraps an ordered sequence of values.
func List(items []string) FieldValue {
	return FieldValue{multi: true, items: items}
}

// IsList reports whether the value is list-shaped.
func (v FieldValue) IsList() bool { return v.multi }

// First returns the scalar value, or the first element of a list. Empty
// values yield "".
func (v FieldValue) First() string {
	if len(v.items) == 0 {
		return ""
	}
	return v.items[0]
}

// Items returns all elements in order. Scalars yield a one-element slice.
func (v FieldValue) Items() []string {
	out := make([]string, len(v.items))
	copy(out, v.items)
	return out
}

// Map applies f element-wise, preserving shape and order.
func (v FieldValue) Map(f func(string) string) FieldValue {
	items := make([]string, len(v.items))
	for i, s := range v.items {
		items[i] = f(s)
	}
	return FieldValue{multi: v.multi, items: items}
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.multi {
		return json.Marshal(v.items)
	}
	return json.Marshal(v.First())
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*v = Scalar(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("field value must be a string or an array of strings: %w", err)
	}
	*v = List(many)
	return nil
}

// FormData is an insertion-ordered mapping from field name to FieldValue.
// Go maps do not keep order, but submission fields must round-trip in the
// order the form posted them.
type FormData struct {
	keys   []string
	values map[string]FieldValue
}

func NewFormData() *FormData {
	return &FormData{values: make(map[string]FieldValue)}
}

// Set stores a value under name. A new name is appended to the key order; an
// existing name keeps its original position.
func (f *FormData) Set(name string, v FieldValue) {
	if _, ok := f.values[name]; !ok {
		f.keys = append(f.keys, name)
	}
	f.values[name] = v
}

// Append adds one raw value under name. The first value makes a scalar; any
// repeat promotes the field to a list, preserving arrival order.
func (f *FormData) Append(name, raw string) {
	cur, ok := f.values[name]
	if !ok {
		f.Set(name, Scalar(raw))
		return
	}
	f.values[name] = List(append(cur.items, raw))
}

func (f *FormData) Get(name string) (FieldValue, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Delete removes a field and its position. It returns the removed value.
func (f *FormData) Delete(name string) (FieldValue, bool) {
	v, ok := f.values[name]
	if !ok {
		return FieldValue{}, false
	}
	delete(f.values, name)
	for i, k := range f.keys {
		if k == name {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
	return v, true
}

func (f *FormData) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the field names in insertion order.
func (f *FormData) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// MarshalJSON writes a JSON object with members in insertion order.
func (f *FormData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping member order.
func (f *FormData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("form data must be a JSON object")
	}
	f.keys = nil
	f.values = make(map[string]FieldValue)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("form data key must be a string")
		}
		var v FieldValue
		if err := dec.Decode(&v); err != nil {
			return err
		}
		f.Set(key, v)
	}
	_, err = dec.Token() // closing brace
	return err
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one named value inside a record
type Field struct {
	Name  string
	Value interface{}
}

// Record is an ordered set of fields. Order is kept so headers and JSON keys
// come out in the same order the record was built with.
type Record []Field

// Dataset is an ordered sequence of uniform-shape records
type Dataset []Record

// Get returns the value stored under name
func (r Record) Get(name string) (interface{}, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the field names in record order
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// MarshalJSON writes the record as a JSON object with keys in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the key order of the input.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	var out Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record key must be a string")
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		out = append(out, Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// Clone copies the dataset so callers can hand it across goroutines.
// Field values are shared; they are treated as immutable scalars.
func (d Dataset) Clone() Dataset {
	if d == nil {
		return nil
	}
	out := make(Dataset, len(d))
	for i, rec := range d {
		out[i] = append(Record(nil), rec...)
	}
	return out
}

// Columns returns the field names of the first record, or nil when empty.
func (d Dataset) Columns() []string {
	if len(d) == 0 {
		return nil
	}
	return d[0].Names()
}

// Pretty renders the dataset as two-space indented JSON.
func (d Dataset) Pretty() (string, error) {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

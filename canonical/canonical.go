// Package canonical produces deterministic JSON.
//
// A value is first rendered through encoding/json, then decoded into generic
// maps and slices and rewritten so that every array is sorted by the encoding
// of its elements. Object keys are sorted by the encoder. Two values with the
// same content therefore encode to the same bytes regardless of the order in
// which their arrays were built.
package canonical

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/teranos/cersei/errors"
)

// Canonicalize returns the generic (map/slice/json.Number) form of v with
// every array deep-sorted.
func Canonicalize(v interface{}) (interface{}, error) {
	raw, err := encode(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, errors.Wrap(err, "failed to decode intermediate JSON")
	}
	return sortDeep(generic)
}

// Marshal returns the canonical JSON encoding of v.
func Marshal(v interface{}) ([]byte, error) {
	c, err := Canonicalize(v)
	if err != nil {
		return nil, err
	}
	return encode(c)
}

// MarshalString is Marshal returning a string, the form stored as a snapshot.
func MarshalString(v interface{}) (string, error) {
	out, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func sortDeep(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			sorted, err := sortDeep(child)
			if err != nil {
				return nil, err
			}
			t[k] = sorted
		}
		return t, nil
	case []interface{}:
		type keyed struct {
			key   string
			value interface{}
		}
		items := make([]keyed, len(t))
		for i, child := range t {
			sorted, err := sortDeep(child)
			if err != nil {
				return nil, err
			}
			key, err := encode(sorted)
			if err != nil {
				return nil, err
			}
			items[i] = keyed{key: string(key), value: sorted}
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].key < items[j].key })
		for i := range items {
			t[i] = items[i].value
		}
		return t, nil
	default:
		return v, nil
	}
}

// encode marshals without HTML escaping and without the encoder's trailing newline.
func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "failed to encode JSON")
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

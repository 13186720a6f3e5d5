package display

import (
	"bytes"
	"encoding/json"

	"github.com/teranos/cersei/errors"
)

// MarshalJSON marshals v with two-space indentation and without HTML escaping,
// so entity labels containing <, > or & print as written.
func MarshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "failed to marshal JSON")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

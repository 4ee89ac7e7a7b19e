package sign

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotCanonicalizable is returned when a value has no JSON form.
var ErrNotCanonicalizable = errors.New("value cannot be canonicalized")

// Canonicalize returns the deterministic JSON serialization of v that
// signers and recoverers must agree on byte for byte: object keys sorted,
// no insignificant whitespace, numbers kept exactly as written and HTML
// characters left unescaped.
//
// A []byte or json.RawMessage argument is taken to be a JSON document and is
// re-serialized. Any other value goes through json.Marshal first.
//
//	Canonicalize(map[string]any{"id": 1})  // {"id":1}
//	Canonicalize([]byte(`{ "b":2, "a":1 }`)) // {"a":1,"b":2}
func Canonicalize(v any) ([]byte, error) {
	var doc []byte
	switch val := v.(type) {
	case json.RawMessage:
		doc = val
	case []byte:
		doc = val
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotCanonicalizable, err)
		}
		doc = raw
	}

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCanonicalizable, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON document", ErrNotCanonicalizable)
	}

	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	// Maps are encoded with sorted keys and json.Number verbatim.
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCanonicalizable, err)
	}
	return bytes.TrimSuffix(out.Bytes(), []byte("\n")), nil
}

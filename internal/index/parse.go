package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// scriptPrefix is how Scaladoc assigns the index in index.js.
const scriptPrefix = "Index.PACKAGES"

var (
	entryFields = map[string]bool{
		"name": true, "shortDescription": true, "kind": true,
		"object": true, "members_object": true,
		"class": true, "members_class": true,
		"trait": true, "members_trait": true,
	}
	memberFields = map[string]bool{
		"label": true, "tail": true, "member": true, "link": true, "kind": true,
	}
)

// SyntaxError reports malformed input. Offset is a byte position in the data
// given to Parse.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: %s at offset %d", ErrMalformed, e.Msg, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformed }

func malformedAt(offset int64, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// Parse decodes an index from either the index.js script form
// (Index.PACKAGES = {...};) or a bare JSON object.
func Parse(data []byte) (*PackageIndex, error) {
	body, base, err := stripScript(data)
	if err != nil {
		return nil, err
	}
	if err := checkSyntax(body, base); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, malformedAt(base, "%v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, malformedAt(base, "expected object, got %v", tok)
	}

	idx := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformedAt(base+dec.InputOffset(), "%v", err)
		}
		name := tok.(string) // object keys are always strings once the syntax is valid
		keyStart := base + dec.InputOffset() - int64(len(name)) - 2

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, malformedAt(base+dec.InputOffset(), "%v", err)
		}
		rawStart := base + dec.InputOffset() - int64(len(raw))

		objects, err := decodeObjects(raw, rawStart)
		if err != nil {
			var syn *SyntaxError
			if errors.As(err, &syn) {
				syn.Msg = fmt.Sprintf("package %q: %s", name, syn.Msg)
				return nil, syn
			}
			return nil, malformedAt(rawStart, "package %q: %v", name, err)
		}
		if !idx.Add(name, objects) {
			return nil, malformedAt(keyStart, "duplicate package %q", name)
		}
	}
	return idx, nil
}

// checkSyntax scans the whole body so syntax errors carry offsets from its
// start rather than from the value the decoder was reading.
func checkSyntax(body []byte, base int64) error {
	err := json.Unmarshal(body, new(json.RawMessage))
	if err == nil {
		return nil
	}
	var syn *json.SyntaxError
	if !errors.As(err, &syn) {
		return malformedAt(base, "%v", err)
	}
	if strings.HasPrefix(syn.Error(), "unexpected end") {
		return malformedAt(base+int64(len(body)), "unexpected end of input")
	}
	// Offset counts the bytes read including the offending one.
	return malformedAt(base+syn.Offset-1, "%v", syn)
}

// decodeObjects decodes one package value starting at offset start. Keys must
// match the field names exactly and appear once per entry, and unknown fields
// are rejected, so a re-encode never loses data.
func decodeObjects(raw json.RawMessage, start int64) ([]ObjectEntry, error) {
	if bytes.Equal(raw, []byte("null")) {
		return nil, malformedAt(start, "value is null, want a sequence of objects")
	}
	if err := checkKeys(raw, start, entryFields, true); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	objects := []ObjectEntry{}
	if err := dec.Decode(&objects); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			return nil, malformedAt(start+te.Offset, "%v", err)
		}
		return nil, err
	}
	return objects, nil
}

// checkKeys walks a sequence of entries. encoding/json matches field names
// case-insensitively and keeps the last of repeated keys, so both are
// caught here before decoding.
func checkKeys(raw json.RawMessage, start int64, known map[string]bool, nested bool) error {
	if len(raw) == 0 || raw[0] != '[' {
		return nil // shape errors are reported by the decoder
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return err
	}
	for dec.More() {
		var entry json.RawMessage
		if err := dec.Decode(&entry); err != nil {
			return err
		}
		at := start + dec.InputOffset() - int64(len(entry))
		if err := checkEntry(entry, at, known, nested); err != nil {
			return err
		}
	}
	return nil
}

func checkEntry(entry json.RawMessage, start int64, known map[string]bool, nested bool) error {
	if entry[0] != '{' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(entry))
	if _, err := dec.Token(); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		keyStart := start + dec.InputOffset() - int64(len(key)) - 2

		if !known[key] {
			for k := range known {
				if strings.EqualFold(k, key) {
					return malformedAt(keyStart, "key %q should be %q", key, k)
				}
			}
			return malformedAt(keyStart, "unknown key %q", key)
		}
		if seen[key] {
			return malformedAt(keyStart, "duplicate key %q", key)
		}
		seen[key] = true

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if nested && strings.HasPrefix(key, "members_") {
			vstart := start + dec.InputOffset() - int64(len(value))
			if err := checkKeys(value, vstart, memberFields, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// stripScript removes the "Index.PACKAGES =" assignment and the trailing
// semicolon, leaving the JSON object and its offset in data.
func stripScript(data []byte) ([]byte, int64, error) {
	start, end := 0, len(data)
	trim := func() {
		for start < end && isSpace(data[start]) {
			start++
		}
		for end > start && isSpace(data[end-1]) {
			end--
		}
	}

	trim()
	if start == end {
		return nil, 0, malformedAt(int64(start), "empty input")
	}
	if bytes.HasPrefix(data[start:end], []byte(scriptPrefix)) {
		start += len(scriptPrefix)
		trim()
		if start == end || data[start] != '=' {
			return nil, 0, malformedAt(int64(start), "expected '=' after %s", scriptPrefix)
		}
		start++
		trim()
	}
	if end > start && data[end-1] == ';' {
		end--
		trim()
	}
	if start == end {
		return nil, 0, malformedAt(int64(start), "empty input")
	}
	return data[start:end], int64(start), nil
}

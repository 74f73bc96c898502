package claim

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ValidationError reports every rejected attribute of a claim, keyed by field name.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) add(field, msg string) {
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = msg
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// FieldNames returns the rejected field names in sorted order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range e.FieldNames() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Decode reads one JSON claim and validates it. A rejected claim yields a
// *ValidationError naming each offending field.
func Decode(r io.Reader) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		verr := newValidationError()
		if errors.Is(err, io.EOF) {
			verr.add("body", "request body is empty")
		} else {
			verr.add("body", "invalid JSON: "+err.Error())
		}
		return Record{}, verr
	}
	if raw == nil {
		verr := newValidationError()
		verr.add("body", "expected a JSON object")
		return Record{}, verr
	}
	return FromRaw(raw)
}

// FromRaw builds a Record from already split JSON members.
func FromRaw(raw map[string]json.RawMessage) (Record, error) {
	var record Record
	verr := newValidationError()

	for _, f := range fields {
		msg, ok := raw[f.Name]
		if !ok || isNull(msg) {
			verr.add(f.Name, "field required")
			continue
		}
		if f.Kind == KindEnum {
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				verr.add(f.Name, f.typeMessage())
				continue
			}
			t, ok := ParseClaimType(s)
			if !ok {
				verr.add(f.Name, enumMessage())
				continue
			}
			record.ClaimType = t
			continue
		}

		v, err := parseNumber(msg, f.Kind)
		if err != nil {
			verr.add(f.Name, f.typeMessage())
			continue
		}
		if m := f.check(v); m != "" {
			verr.add(f.Name, m)
			continue
		}
		f.set(&record, v)
	}

	if !verr.empty() {
		return Record{}, verr
	}
	return record, nil
}

func parseNumber(msg json.RawMessage, kind Kind) (float64, error) {
	if kind == KindFlag {
		var b bool
		if err := json.Unmarshal(msg, &b); err == nil {
			if b {
				return 1, nil
			}
			return 0, nil
		}
	}
	var v float64
	if err := json.Unmarshal(msg, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}

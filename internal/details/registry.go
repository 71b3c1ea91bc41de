package details

import (
	"encoding/json"
	"fmt"
)

// registry provides exhaustive decode dispatch for the closed variant set.
var registry = map[string]func() Detail{
	TypeMCP:      func() Detail { return &McpDetail{} },
	TypeFS:       func() Detail { return &FsDetail{} },
	TypeDatabase: func() Detail { return &DatabaseDetail{} },
	TypeAPI:      func() Detail { return &ApiDetail{} },
}

// SupportedTypes returns the type codes the server advertises in its
// metadata document.
func SupportedTypes() []string {
	return []string{TypeMCP, TypeFS, TypeDatabase, TypeAPI}
}

// New returns an empty detail of the given type code.
func New(typeCode string) (Detail, bool) {
	ctor, ok := registry[typeCode]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Parse decodes a single authorization detail object. The wire field "type"
// selects the variant.
func Parse(raw []byte) (Detail, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parse authorization detail: %w", err)
	}

	detail, ok := New(envelope.Type)
	if !ok {
		return nil, fmt.Errorf("unsupported authorization detail type %q", envelope.Type)
	}

	if err := json.Unmarshal(raw, detail); err != nil {
		return nil, fmt.Errorf("parse %s authorization detail: %w", envelope.Type, err)
	}

	return normalize(detail), nil
}

// ParseList decodes a JSON array of authorization detail objects. The input
// is the caller-supplied authorization_details string from a pushed
// authorization request.
func ParseList(data []byte) ([]Detail, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse authorization details: %w", err)
	}

	out := make([]Detail, 0, len(raws))
	for _, raw := range raws {
		detail, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, detail)
	}
	return out, nil
}

// Marshal encodes a detail for storage or transport, guaranteeing the wire
// "type" field matches the variant.
func Marshal(d Detail) ([]byte, error) {
	return json.Marshal(normalize(d))
}

// MarshalList encodes a slice of details as a JSON array.
func MarshalList(ds []Detail) ([]byte, error) {
	normalized := make([]Detail, len(ds))
	for i, d := range ds {
		normalized[i] = normalize(d)
	}
	return json.Marshal(normalized)
}

// normalize pins the embedded Type field to the variant's type code so a
// stale or missing wire value cannot leak through.
func normalize(d Detail) Detail {
	switch v := d.(type) {
	case *McpDetail:
		v.Type = TypeMCP
	case *FsDetail:
		v.Type = TypeFS
	case *DatabaseDetail:
		v.Type = TypeDatabase
	case *ApiDetail:
		v.Type = TypeAPI
	}
	return d
}

package details

import (
	"encoding/json"
	"fmt"
)

// Type codes for the closed set of authorization-detail variants.
const (
	TypeMCP      = "mcp"
	TypeFS       = "fs"
	TypeDatabase = "database"
	TypeAPI      = "api"
)

// Requirement marks a requested entry as non-negotiable or negotiable.
// Essential entries must survive into any approved subset.
type Requirement string

const (
	RequirementEssential Requirement = "essential"
	RequirementGranted   Requirement = "granted"
)

// UnmarshalJSON accepts the canonical string form as well as booleans sent
// by loose clients. Presence of the key is what grants the entry; a boolean
// value carries no negotiability information and decodes to granted.
func (r *Requirement) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch Requirement(s) {
		case RequirementEssential, RequirementGranted:
			*r = Requirement(s)
			return nil
		}
		return fmt.Errorf("invalid requirement %q", s)
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*r = RequirementGranted
		return nil
	}

	return fmt.Errorf("invalid requirement value %s", string(data))
}

// Detail is one typed authorization detail. The variant set is closed; the
// registry in registry.go provides exhaustive decode dispatch by type code.
type Detail interface {
	// TypeCode identifies the variant (mcp, fs, database, api).
	TypeCode() string
	// Locations lists the server locations the detail is bound to. An empty
	// list binds the detail to any location.
	Locations() []string
	// ActionNames lists the explicit actions the detail authorizes. An empty
	// list means action matching is implicit for the variant.
	ActionNames() []string
	// ResourceNames lists the resource identifiers the detail covers.
	ResourceNames() []string
}

// McpDetail authorizes tool calls against an MCP server. Tools maps tool
// names to their requirement marker; there is no explicit action list.
type McpDetail struct {
	Type      string                 `json:"type"`
	Server    string                 `json:"server,omitempty"`
	Transport string                 `json:"transport,omitempty"`
	Locs      []string               `json:"locations,omitempty"`
	Tools     map[string]Requirement `json:"tools,omitempty"`
}

func (d *McpDetail) TypeCode() string { return TypeMCP }

func (d *McpDetail) Locations() []string {
	if d.Server == "" {
		return d.Locs
	}
	out := make([]string, 0, len(d.Locs)+1)
	out = append(out, d.Server)
	out = append(out, d.Locs...)
	return out
}

func (d *McpDetail) ActionNames() []string { return nil }

func (d *McpDetail) ResourceNames() []string {
	out := make([]string, 0, len(d.Tools))
	for name := range d.Tools {
		out = append(out, name)
	}
	return out
}

// FsDetail authorizes file-system access under the listed roots.
type FsDetail struct {
	Type        string                 `json:"type"`
	Roots       []string               `json:"roots,omitempty"`
	Actions     []string               `json:"actions,omitempty"`
	Permissions map[string]Requirement `json:"permissions,omitempty"`
}

func (d *FsDetail) TypeCode() string    { return TypeFS }
func (d *FsDetail) Locations() []string { return nil }

func (d *FsDetail) ActionNames() []string { return d.Actions }

func (d *FsDetail) ResourceNames() []string {
	out := make([]string, 0, len(d.Roots)+len(d.Permissions))
	out = append(out, d.Roots...)
	for name := range d.Permissions {
		out = append(out, name)
	}
	return out
}

// DatabaseDetail authorizes actions over databases, schemas and tables.
type DatabaseDetail struct {
	Type      string   `json:"type"`
	Databases []string `json:"databases,omitempty"`
	Schemas   []string `json:"schemas,omitempty"`
	Tables    []string `json:"tables,omitempty"`
	Actions   []string `json:"actions,omitempty"`
}

func (d *DatabaseDetail) TypeCode() string      { return TypeDatabase }
func (d *DatabaseDetail) Locations() []string   { return nil }
func (d *DatabaseDetail) ActionNames() []string { return d.Actions }

func (d *DatabaseDetail) ResourceNames() []string {
	out := make([]string, 0, len(d.Databases)+len(d.Schemas)+len(d.Tables))
	out = append(out, d.Databases...)
	out = append(out, d.Schemas...)
	out = append(out, d.Tables...)
	return out
}

// ApiDetail authorizes calls to the listed API URLs.
type ApiDetail struct {
	Type      string   `json:"type"`
	URLs      []string `json:"urls,omitempty"`
	Protocols []string `json:"protocols,omitempty"`
	Actions   []string `json:"actions,omitempty"`
}

func (d *ApiDetail) TypeCode() string        { return TypeAPI }
func (d *ApiDetail) Locations() []string     { return d.URLs }
func (d *ApiDetail) ActionNames() []string   { return d.Actions }
func (d *ApiDetail) ResourceNames() []string { return d.URLs }

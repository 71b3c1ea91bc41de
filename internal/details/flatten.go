package details

import (
	"fmt"
	"strings"

	"github.com/agent-zon/grantd/internal/models"
)

// Flatten explodes one typed authorization detail into attribute/value rows
// so details of every variant can be queried through a single table. Rows
// sharing a resource identifier reconstruct the original detail.
func Flatten(d Detail, grantID, detailID string) []models.Permission {
	resourceID := grantID + ":" + detailID

	row := func(attribute, value string) models.Permission {
		return models.Permission{
			ResourceIdentifier: resourceID,
			GrantID:            grantID,
			Attribute:          attribute,
			Value:              value,
		}
	}

	rows := []models.Permission{row("type", d.TypeCode())}

	appendList := func(attribute string, values []string) {
		for _, v := range values {
			rows = append(rows, row(attribute, v))
		}
	}

	switch v := d.(type) {
	case *McpDetail:
		if v.Server != "" {
			rows = append(rows, row("server", v.Server))
		}
		if v.Transport != "" {
			rows = append(rows, row("transport", v.Transport))
		}
		appendList("locations", v.Locs)
		for tool, requirement := range v.Tools {
			rows = append(rows, row("tool:"+tool, string(requirement)))
		}
	case *FsDetail:
		appendList("roots", v.Roots)
		appendList("actions", v.Actions)
		for name, requirement := range v.Permissions {
			rows = append(rows, row("permission:"+name, string(requirement)))
		}
	case *DatabaseDetail:
		appendList("databases", v.Databases)
		appendList("schemas", v.Schemas)
		appendList("tables", v.Tables)
		appendList("actions", v.Actions)
	case *ApiDetail:
		appendList("urls", v.URLs)
		appendList("protocols", v.Protocols)
		appendList("actions", v.Actions)
	}

	return rows
}

// Reconstruct groups flattened rows by resource identifier and rebuilds the
// typed details they encode. Array field ordering follows row order; fields
// with no surviving rows stay empty.
func Reconstruct(rows []models.Permission) ([]Detail, error) {
	grouped := make(map[string][]models.Permission)
	var order []string
	for _, r := range rows {
		if _, ok := grouped[r.ResourceIdentifier]; !ok {
			order = append(order, r.ResourceIdentifier)
		}
		grouped[r.ResourceIdentifier] = append(grouped[r.ResourceIdentifier], r)
	}

	out := make([]Detail, 0, len(order))
	for _, id := range order {
		detail, err := reconstructOne(grouped[id])
		if err != nil {
			return nil, fmt.Errorf("reconstruct %s: %w", id, err)
		}
		out = append(out, detail)
	}
	return out, nil
}

func reconstructOne(rows []models.Permission) (Detail, error) {
	typeCode := ""
	for _, r := range rows {
		if r.Attribute == "type" {
			typeCode = r.Value
			break
		}
	}

	detail, ok := New(typeCode)
	if !ok {
		return nil, fmt.Errorf("unsupported type %q", typeCode)
	}

	for _, r := range rows {
		applyRow(detail, r.Attribute, r.Value)
	}
	return normalize(detail), nil
}

func applyRow(d Detail, attribute, value string) {
	if name, ok := strings.CutPrefix(attribute, "tool:"); ok {
		if mcp, isMcp := d.(*McpDetail); isMcp {
			if mcp.Tools == nil {
				mcp.Tools = make(map[string]Requirement)
			}
			mcp.Tools[name] = Requirement(value)
		}
		return
	}
	if name, ok := strings.CutPrefix(attribute, "permission:"); ok {
		if fs, isFs := d.(*FsDetail); isFs {
			if fs.Permissions == nil {
				fs.Permissions = make(map[string]Requirement)
			}
			fs.Permissions[name] = Requirement(value)
		}
		return
	}

	switch v := d.(type) {
	case *McpDetail:
		switch attribute {
		case "server":
			v.Server = value
		case "transport":
			v.Transport = value
		case "locations":
			v.Locs = append(v.Locs, value)
		}
	case *FsDetail:
		switch attribute {
		case "roots":
			v.Roots = append(v.Roots, value)
		case "actions":
			v.Actions = append(v.Actions, value)
		}
	case *DatabaseDetail:
		switch attribute {
		case "databases":
			v.Databases = append(v.Databases, value)
		case "schemas":
			v.Schemas = append(v.Schemas, value)
		case "tables":
			v.Tables = append(v.Tables, value)
		case "actions":
			v.Actions = append(v.Actions, value)
		}
	case *ApiDetail:
		switch attribute {
		case "urls":
			v.URLs = append(v.URLs, value)
		case "protocols":
			v.Protocols = append(v.Protocols, value)
		case "actions":
			v.Actions = append(v.Actions, value)
		}
	}
}

package details

import "fmt"

// CheckEssential verifies that every entry marked essential in the requested
// details survives into the approved details. Essential entries are
// non-negotiable at consent time; a consent that drops one must be rejected.
func CheckEssential(requested, approved []Detail) error {
	for _, req := range requested {
		switch r := req.(type) {
		case *McpDetail:
			granted := approvedTools(approved, r.Server)
			for tool, requirement := range r.Tools {
				if requirement != RequirementEssential {
					continue
				}
				if _, ok := granted[tool]; !ok {
					return fmt.Errorf("essential tool %q was not approved", tool)
				}
			}
		case *FsDetail:
			granted := approvedPermissions(approved)
			for name, requirement := range r.Permissions {
				if requirement != RequirementEssential {
					continue
				}
				if _, ok := granted[name]; !ok {
					return fmt.Errorf("essential permission %q was not approved", name)
				}
			}
		}
	}
	return nil
}

// approvedTools unions the tool maps of all approved mcp details bound to
// the given server. An empty server on either side matches any.
func approvedTools(approved []Detail, server string) map[string]Requirement {
	out := make(map[string]Requirement)
	for _, d := range approved {
		mcp, ok := d.(*McpDetail)
		if !ok {
			continue
		}
		if server != "" && mcp.Server != "" && mcp.Server != server {
			continue
		}
		for tool, requirement := range mcp.Tools {
			out[tool] = requirement
		}
	}
	return out
}

func approvedPermissions(approved []Detail) map[string]Requirement {
	out := make(map[string]Requirement)
	for _, d := range approved {
		fs, ok := d.(*FsDetail)
		if !ok {
			continue
		}
		for name, requirement := range fs.Permissions {
			out[name] = requirement
		}
	}
	return out
}

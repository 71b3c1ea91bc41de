package details

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenReconstructRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		detail Detail
	}{
		{
			name: "mcp",
			detail: &McpDetail{
				Server:    "https://tools.example.com",
				Transport: "http",
				Locs:      []string{"https://mirror.example.com"},
				Tools: map[string]Requirement{
					"search": RequirementEssential,
					"fetch":  RequirementGranted,
				},
			},
		},
		{
			name: "fs",
			detail: &FsDetail{
				Roots:   []string{"/srv/data", "/srv/share"},
				Actions: []string{"read", "write"},
				Permissions: map[string]Requirement{
					"workspace": RequirementGranted,
				},
			},
		},
		{
			name: "database",
			detail: &DatabaseDetail{
				Databases: []string{"analytics"},
				Schemas:   []string{"public"},
				Tables:    []string{"events", "sessions"},
				Actions:   []string{"select"},
			},
		},
		{
			name: "api",
			detail: &ApiDetail{
				URLs:      []string{"https://api.example.com/v1"},
				Protocols: []string{"https"},
				Actions:   []string{"GET", "POST"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := Flatten(tc.detail, "grant-1", "detail-1")
			require.NotEmpty(t, rows)
			for _, row := range rows {
				require.Equal(t, "grant-1:detail-1", row.ResourceIdentifier)
				require.Equal(t, "grant-1", row.GrantID)
			}

			rebuilt, err := Reconstruct(rows)
			require.NoError(t, err)
			require.Len(t, rebuilt, 1)
			requireDetailEqual(t, tc.detail, rebuilt[0])
		})
	}
}

func TestReconstructGroupsByResourceIdentifier(t *testing.T) {
	first := Flatten(&McpDetail{Server: "S", Tools: map[string]Requirement{"T": RequirementGranted}}, "g1", "d1")
	second := Flatten(&FsDetail{Roots: []string{"/tmp"}}, "g1", "d2")

	rebuilt, err := Reconstruct(append(first, second...))
	require.NoError(t, err)
	require.Len(t, rebuilt, 2)
	require.Equal(t, TypeMCP, rebuilt[0].TypeCode())
	require.Equal(t, TypeFS, rebuilt[1].TypeCode())
}

func TestReconstructRejectsUnknownType(t *testing.T) {
	rows := Flatten(&ApiDetail{URLs: []string{"https://api.example.com"}}, "g1", "d1")
	rows[0].Value = "bogus"

	_, err := Reconstruct(rows)
	require.Error(t, err)
}

// requireDetailEqual compares details with set semantics on arrays and key
// equality on maps, matching the round-trip law.
func requireDetailEqual(t *testing.T, want, got Detail) {
	t.Helper()
	require.Equal(t, want.TypeCode(), got.TypeCode())

	switch w := want.(type) {
	case *McpDetail:
		g := got.(*McpDetail)
		require.Equal(t, w.Server, g.Server)
		require.Equal(t, w.Transport, g.Transport)
		require.ElementsMatch(t, w.Locs, g.Locs)
		require.Equal(t, w.Tools, g.Tools)
	case *FsDetail:
		g := got.(*FsDetail)
		require.ElementsMatch(t, w.Roots, g.Roots)
		require.ElementsMatch(t, w.Actions, g.Actions)
		require.Equal(t, w.Permissions, g.Permissions)
	case *DatabaseDetail:
		g := got.(*DatabaseDetail)
		require.ElementsMatch(t, w.Databases, g.Databases)
		require.ElementsMatch(t, w.Schemas, g.Schemas)
		require.ElementsMatch(t, w.Tables, g.Tables)
		require.ElementsMatch(t, w.Actions, g.Actions)
	case *ApiDetail:
		g := got.(*ApiDetail)
		require.ElementsMatch(t, w.URLs, g.URLs)
		require.ElementsMatch(t, w.Protocols, g.Protocols)
		require.ElementsMatch(t, w.Actions, g.Actions)
	}
}

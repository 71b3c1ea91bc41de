package details

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseListDecodesTypedVariants(t *testing.T) {
	payload := `[
		{"type":"mcp","server":"https://tools.example.com","transport":"http","tools":{"search":"essential","fetch":"granted"}},
		{"type":"fs","roots":["/srv/data"],"actions":["read"],"permissions":{"workspace":"granted"}},
		{"type":"database","databases":["analytics"],"tables":["events"],"actions":["select"]},
		{"type":"api","urls":["https://api.example.com"],"protocols":["https"],"actions":["GET"]}
	]`

	parsed, err := ParseList([]byte(payload))
	require.NoError(t, err)
	require.Len(t, parsed, 4)

	mcp, ok := parsed[0].(*McpDetail)
	require.True(t, ok)
	require.Equal(t, "https://tools.example.com", mcp.Server)
	require.Equal(t, RequirementEssential, mcp.Tools["search"])
	require.Equal(t, RequirementGranted, mcp.Tools["fetch"])

	fs, ok := parsed[1].(*FsDetail)
	require.True(t, ok)
	require.Equal(t, []string{"/srv/data"}, fs.Roots)

	db, ok := parsed[2].(*DatabaseDetail)
	require.True(t, ok)
	require.Equal(t, []string{"events"}, db.Tables)

	api, ok := parsed[3].(*ApiDetail)
	require.True(t, ok)
	require.Equal(t, []string{"https://api.example.com"}, api.URLs)
}

func TestParseListAcceptsBooleanToolValues(t *testing.T) {
	parsed, err := ParseList([]byte(`[{"type":"mcp","server":"S","tools":{"T":true}}]`))
	require.NoError(t, err)
	require.Len(t, parsed, 1)

	mcp := parsed[0].(*McpDetail)
	require.Equal(t, RequirementGranted, mcp.Tools["T"])
}

func TestParseListRejectsUnknownType(t *testing.T) {
	_, err := ParseList([]byte(`[{"type":"ftp"}]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported authorization detail type")
}

func TestParseListRejectsMalformedJSON(t *testing.T) {
	_, err := ParseList([]byte(`{"type":"mcp"`))
	require.Error(t, err)
}

func TestMarshalPinsTypeField(t *testing.T) {
	data, err := Marshal(&McpDetail{Server: "S", Tools: map[string]Requirement{"T": RequirementGranted}})
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"mcp"`)
}

func TestMergeScopesDeduplicates(t *testing.T) {
	merged := MergeScopes("openid profile", "workspace.fs admin profile")
	require.Equal(t, "openid profile workspace.fs admin", merged)
	require.True(t, ScopeContains(merged, "admin"))
	require.False(t, ScopeContains(merged, "email"))
}

func TestCheckEssentialRejectsDroppedTool(t *testing.T) {
	requested := []Detail{&McpDetail{
		Server: "S",
		Tools:  map[string]Requirement{"search": RequirementEssential, "fetch": RequirementGranted},
	}}
	approved := []Detail{&McpDetail{
		Server: "S",
		Tools:  map[string]Requirement{"fetch": RequirementGranted},
	}}

	err := CheckEssential(requested, approved)
	require.Error(t, err)
	require.Contains(t, err.Error(), "search")

	approved[0].(*McpDetail).Tools["search"] = RequirementGranted
	require.NoError(t, CheckEssential(requested, approved))
}

func TestCheckEssentialPermitsNarrowedGrantedEntries(t *testing.T) {
	requested := []Detail{&FsDetail{
		Permissions: map[string]Requirement{"workspace": RequirementEssential, "scratch": RequirementGranted},
	}}
	approved := []Detail{&FsDetail{
		Permissions: map[string]Requirement{"workspace": RequirementGranted},
	}}

	require.NoError(t, CheckEssential(requested, approved))
}

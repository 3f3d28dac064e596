package mcptoolset

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsManagedServer(t *testing.T) {
	assert.True(t, IsManagedServer("https://mcp.nango.dev/v1"))
	assert.True(t, IsManagedServer("https://nango.dev/mcp"))
	assert.False(t, IsManagedServer("https://mcp.example.com"))
	assert.False(t, IsManagedServer("https://nango.dev.example.com"))
	assert.False(t, IsManagedServer("://bad"))
}

func TestBuildHeaders(t *testing.T) {
	headers := BuildHeaders("https://mcp.nango.dev", "secret-key", map[string]string{"X-Conn": "c1"})
	assert.Equal(t, "Bearer secret-key", headers["Authorization"])
	assert.Equal(t, "c1", headers["X-Conn"])

	// Declared headers win over the synthesized credential header.
	headers = BuildHeaders("https://mcp.example.com", "secret-key", map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, "Basic abc", headers["Authorization"])

	headers = BuildHeaders("https://mcp.example.com", "", nil)
	assert.NotContains(t, headers, "Authorization")
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(Config{Name: "crm"})
	assert.ErrorContains(t, err, "requires a url or a command")
}

func mcpServer(t *testing.T, tools []map[string]any, callResult map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result any
		switch req.Method {
		case "initialize":
			result = map[string]any{"protocolVersion": protocolVersion}
		case "tools/list":
			result = map[string]any{"tools": tools}
		case "tools/call":
			result = callResult
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
	}))
}

func TestToolsListsRemoteCatalog(t *testing.T) {
	server := mcpServer(t, []map[string]any{
		{"name": "lookup_contact", "description": "Look up a contact", "inputSchema": map[string]any{"type": "object"}},
		{"name": "delete_contact", "description": "Delete a contact"},
	}, nil)
	defer server.Close()

	ts, err := New(Config{Name: "crm", URL: server.URL, ActiveTools: []string{"lookup_contact"}})
	require.NoError(t, err)
	defer ts.Close()

	tools, err := ts.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "lookup_contact", tools[0].Name())
}

func TestDefaultUsageGuidelineNamesServer(t *testing.T) {
	server := mcpServer(t, []map[string]any{{"name": "lookup_contact"}}, nil)
	defer server.Close()

	ts, err := New(Config{Name: "crm", URL: server.URL})
	require.NoError(t, err)
	defer ts.Close()

	tools, err := ts.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)

	guided, ok := tools[0].(interface{ UsageGuidelines() string })
	require.True(t, ok)
	assert.Equal(t, "Use this tool from `crm` server when appropriate.", guided.UsageGuidelines())
}

func TestUsageGuidelineOverridePerTool(t *testing.T) {
	server := mcpServer(t, []map[string]any{{"name": "lookup_contact"}}, nil)
	defer server.Close()

	ts, err := New(Config{
		Name:            "crm",
		URL:             server.URL,
		UsageGuidelines: map[string]string{"lookup_contact": "Only for verified customer emails."},
	})
	require.NoError(t, err)
	defer ts.Close()

	tools, err := ts.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)

	guided, ok := tools[0].(interface{ UsageGuidelines() string })
	require.True(t, ok)
	assert.Equal(t, "Only for verified customer emails.", guided.UsageGuidelines())
}

func TestCallCollectsTextContent(t *testing.T) {
	server := mcpServer(t, []map[string]any{{"name": "lookup_contact"}}, map[string]any{
		"content": []any{map[string]any{"type": "text", "text": `{"email":"a@b.c"}`}},
	})
	defer server.Close()

	ts, err := New(Config{Name: "crm", URL: server.URL})
	require.NoError(t, err)
	defer ts.Close()

	tools, err := ts.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)

	rt := tools[0].(*remoteTool)
	result, err := rt.callHTTP(context.Background(), map[string]any{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, `{"email":"a@b.c"}`, result["result"])
}

func TestUnreachableServerDegradesToEmptyToolset(t *testing.T) {
	ts, err := New(Config{Name: "broken", URL: "http://127.0.0.1:1", MaxRetries: 1})
	require.NoError(t, err)
	defer ts.Close()

	tools, err := ts.Tools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tools)

	// Subsequent calls do not retry a dead server.
	tools, err = ts.Tools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func TestToolErrorResultSurfacesMessage(t *testing.T) {
	server := mcpServer(t, []map[string]any{{"name": "lookup_contact"}}, map[string]any{
		"isError": true,
		"content": []any{map[string]any{"type": "text", "text": "contact not found"}},
	})
	defer server.Close()

	ts, err := New(Config{Name: "crm", URL: server.URL})
	require.NoError(t, err)
	defer ts.Close()

	tools, err := ts.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)

	rt := tools[0].(*remoteTool)
	result, err := rt.callHTTP(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "contact not found", result["error"])
}

// Package mcptoolset resolves remote MCP servers into toolsets.
//
// Connections are lazy: nothing happens until Tools is first called.
// An unreachable server degrades to an empty toolset with a warning so
// one bad integration never blocks the rest of a turn's resolution.
//
// Transport support:
//   - stdio: subprocess communication through the mcp-go client
//   - streamable-http: JSON-RPC over the retrying HTTP client
package mcptoolset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/parley-ai/parley/pkg/httpclient"
	"github.com/parley-ai/parley/pkg/tool"
)

const (
	protocolVersion = "2024-11-05"
	clientName      = "parley"
	clientVersion   = "0.1.0"

	// sseResponseTimeout bounds reading one event-stream response.
	sseResponseTimeout = 5 * time.Minute
)

// nangoHostSuffix identifies managed integrations hosted by Nango.
const nangoHostSuffix = "nango.dev"

// IsManagedServer reports whether the server URL points at a managed
// integration rather than a generic remote MCP server.
func IsManagedServer(serverURL string) bool {
	u, err := url.Parse(serverURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == nangoHostSuffix || strings.HasSuffix(host, "."+nangoHostSuffix)
}

// Config describes one MCP server connection.
type Config struct {
	// Name identifies the toolset; defaults to the declared tool name.
	Name string

	// URL is the server endpoint for HTTP transports.
	URL string

	// Command, Args and Env describe a stdio subprocess server.
	Command string
	Args    []string
	Env     map[string]string

	// Headers are sent on every HTTP request. Credential material is
	// already folded in by BuildHeaders.
	Headers map[string]string

	// ActiveTools restricts the exposed tools; empty allows all.
	ActiveTools []string

	// UsageGuidelines overrides the synthesized guideline per remote
	// tool name.
	UsageGuidelines map[string]string

	// Instructions is server-level prompt guidance.
	Instructions string

	// MaxRetries for HTTP requests.
	MaxRetries int
}

// BuildHeaders folds a resolved credential into the connection headers.
// Managed and generic servers both take the credential as a bearer
// token; declared headers win over the synthesized one.
func BuildHeaders(serverURL, credential string, declared map[string]string) map[string]string {
	headers := make(map[string]string, len(declared)+1)
	if credential != "" {
		headers["Authorization"] = "Bearer " + credential
	}
	for k, v := range declared {
		headers[k] = v
	}
	return headers
}

// Toolset is one MCP server's lazily connected tool catalog.
type Toolset struct {
	cfg   Config
	allow tool.Predicate

	mu         sync.Mutex
	stdio      *client.Client
	httpClient *httpclient.Client
	sessionID  string
	tools      []tool.Tool
	connected  bool
	failed     bool
}

var _ tool.Toolset = (*Toolset)(nil)

// New builds a toolset over the given server configuration.
func New(cfg Config) (*Toolset, error) {
	if cfg.URL == "" && cfg.Command == "" {
		return nil, fmt.Errorf("mcp toolset %s requires a url or a command", cfg.Name)
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Toolset{
		cfg:   cfg,
		allow: tool.StringPredicate(cfg.ActiveTools),
	}, nil
}

func (t *Toolset) Name() string { return t.cfg.Name }

// Instructions returns server-level prompt guidance.
func (t *Toolset) Instructions() string { return t.cfg.Instructions }

// Tools connects on first call and returns the remote catalog. A
// failed connection yields an empty catalog, not an error; the failure
// is remembered so the turn does not retry a dead server.
func (t *Toolset) Tools(ctx context.Context) ([]tool.Tool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failed {
		return nil, nil
	}
	if !t.connected {
		if err := t.connect(ctx); err != nil {
			t.failed = true
			slog.Warn("MCP server unavailable, continuing without its tools",
				"server", t.cfg.Name,
				"error", err)
			return nil, nil
		}
	}
	return t.tools, nil
}

// Close tears down the connection. Safe to call without a prior
// successful connect.
func (t *Toolset) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	if t.stdio != nil {
		err = t.stdio.Close()
		t.stdio = nil
	}
	t.httpClient = nil
	t.tools = nil
	t.connected = false
	return err
}

func (t *Toolset) connect(ctx context.Context) error {
	if t.cfg.Command != "" {
		return t.connectStdio(ctx)
	}
	return t.connectHTTP(ctx)
}

func (t *Toolset) connectStdio(ctx context.Context) error {
	env := make([]string, 0, len(t.cfg.Env))
	for k, v := range t.cfg.Env {
		env = append(env, k+"="+v)
	}

	mcpClient, err := client.NewStdioMCPClient(t.cfg.Command, env, t.cfg.Args...)
	if err != nil {
		return fmt.Errorf("failed to create stdio client: %w", err)
	}
	if err := mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start stdio client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}
	initReq.Params.ProtocolVersion = protocolVersion
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to initialize: %w", err)
	}

	listResp, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to list tools: %w", err)
	}

	var tools []tool.Tool
	for _, remote := range listResp.Tools {
		wrapper := &remoteTool{
			toolset:  t,
			name:     remote.Name,
			desc:     remote.Description,
			schema:   schemaToMap(remote.InputSchema),
			useStdio: true,
		}
		if !t.allow(wrapper) {
			continue
		}
		tools = append(tools, wrapper)
	}

	t.stdio = mcpClient
	t.tools = tools
	t.connected = true

	slog.Info("Connected to MCP server",
		"server", t.cfg.Name,
		"transport", "stdio",
		"tools", len(tools))
	return nil
}

func (t *Toolset) connectHTTP(ctx context.Context) error {
	t.httpClient = httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		httpclient.WithMaxRetries(t.cfg.MaxRetries),
	)

	initResp, err := t.rpc(ctx, "initialize", map[string]any{
		"protocolVersion": protocolVersion,
		"clientInfo":      map[string]any{"name": clientName, "version": clientVersion},
		"capabilities":    map[string]any{},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if initResp.Error != nil {
		return fmt.Errorf("initialize error: %s", initResp.Error.Message)
	}

	listResp, err := t.rpc(ctx, "tools/list", nil)
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}
	if listResp.Error != nil {
		return fmt.Errorf("tools/list error: %s", listResp.Error.Message)
	}

	resultMap, ok := listResp.Result.(map[string]any)
	if !ok {
		return fmt.Errorf("unexpected tools/list result type")
	}
	rawTools, ok := resultMap["tools"].([]any)
	if !ok {
		return fmt.Errorf("missing tools in tools/list result")
	}

	var tools []tool.Tool
	for _, raw := range rawTools {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		desc, _ := entry["description"].(string)
		schema, _ := entry["inputSchema"].(map[string]any)

		wrapper := &remoteTool{
			toolset: t,
			name:    name,
			desc:    desc,
			schema:  schema,
		}
		if !t.allow(wrapper) {
			continue
		}
		tools = append(tools, wrapper)
	}

	t.tools = tools
	t.connected = true

	slog.Info("Connected to MCP server",
		"server", t.cfg.Name,
		"transport", "streamable-http",
		"url", t.cfg.URL,
		"managed", IsManagedServer(t.cfg.URL),
		"tools", len(tools))
	return nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpc sends one JSON-RPC request over HTTP, handling both plain JSON
// and event-stream responses.
func (t *Toolset) rpc(ctx context.Context, method string, params any) (*rpcResponse, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}
	if t.sessionID != "" {
		req.Header.Set("mcp-session-id", t.sessionID)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if sid := resp.Header.Get("mcp-session-id"); sid != "" {
		t.sessionID = sid
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("http %d from %s: %s", resp.StatusCode, method, string(raw))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		return readSSEResponse(resp.Body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out rpcResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}

// readSSEResponse extracts the first complete JSON-RPC message from an
// event stream.
func readSSEResponse(body io.Reader) (*rpcResponse, error) {
	type outcome struct {
		resp *rpcResponse
		err  error
	}
	ch := make(chan outcome, 1)

	go func() {
		reader := bufio.NewReader(body)
		var data strings.Builder
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				break
			}
			line = strings.TrimSpace(line)
			if line == "" {
				if data.Len() > 0 {
					var resp rpcResponse
					if json.Unmarshal([]byte(data.String()), &resp) == nil {
						ch <- outcome{resp: &resp}
						return
					}
					data.Reset()
				}
				continue
			}
			if rest, ok := strings.CutPrefix(line, "data:"); ok {
				data.WriteString(strings.TrimSpace(rest))
			}
		}
		if data.Len() > 0 {
			var resp rpcResponse
			if json.Unmarshal([]byte(data.String()), &resp) == nil {
				ch <- outcome{resp: &resp}
				return
			}
		}
		ch <- outcome{err: fmt.Errorf("event stream ended without a complete message")}
	}()

	select {
	case out := <-ch:
		return out.resp, out.err
	case <-time.After(sseResponseTimeout):
		return nil, fmt.Errorf("timeout reading event stream after %v", sseResponseTimeout)
	}
}

func schemaToMap(schema mcp.ToolInputSchema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]any
	if json.Unmarshal(data, &out) != nil {
		return nil
	}
	return out
}

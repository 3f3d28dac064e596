package config

import "fmt"

// MCP transport kinds.
const (
	TransportStreamableHTTP = "streamable_http"
	TransportStdio          = "stdio"
)

// MCPToolRef declares an MCP server an agent pulls tools from.
type MCPToolRef struct {
	// Name identifies the server in prompts and logs.
	Name string `yaml:"name" json:"name"`

	// Transport is streamable_http (default) or stdio.
	Transport string `yaml:"transport,omitempty" json:"transport,omitempty"`

	// ServerURL is the endpoint for HTTP transports.
	ServerURL string `yaml:"server_url,omitempty" json:"serverUrl,omitempty"`

	// Command and Args launch the server for the stdio transport.
	Command string   `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`

	// Env sets environment variables for stdio servers.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// CredentialReferenceID optionally names a stored credential resolved
	// into connection headers before connecting.
	CredentialReferenceID string `yaml:"credential_reference_id,omitempty" json:"credentialReferenceId,omitempty"`

	// Headers are static headers sent on every HTTP request.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// ActiveTools filters the remote catalog to the listed tool names.
	// Empty means all tools.
	ActiveTools []string `yaml:"active_tools,omitempty" json:"activeTools,omitempty"`

	// UsageGuidelines overrides the synthesized per-tool guideline,
	// keyed by remote tool name.
	UsageGuidelines map[string]string `yaml:"usage_guidelines,omitempty" json:"usageGuidelines,omitempty"`

	// Instructions is server-level guidance rendered with the tool group.
	Instructions string `yaml:"instructions,omitempty" json:"instructions,omitempty"`
}

// Validate checks the reference is complete for its transport.
func (r MCPToolRef) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch r.Transport {
	case "", TransportStreamableHTTP:
		if r.ServerURL == "" {
			return fmt.Errorf("server_url is required for HTTP transport")
		}
	case TransportStdio:
		if r.Command == "" {
			return fmt.Errorf("command is required for stdio transport")
		}
	default:
		return fmt.Errorf("unknown transport %q", r.Transport)
	}
	return nil
}

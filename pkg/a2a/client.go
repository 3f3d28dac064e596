// Package a2a is the outbound agent-to-agent transport. It sends
// message envelopes to remote agent endpoints over JSON-RPC and
// converts remote error results into plain errors.
package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	a2apb "github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"

	"github.com/parley-ai/parley/pkg/httpclient"
)

// Client talks to one remote agent endpoint.
type Client struct {
	baseURL string
	headers map[string]string
	http    *httpclient.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets a bearer token for every request.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithHeaders merges extra headers into every request. Later options
// win on conflict.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithHTTPClient overrides the underlying retrying client.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New builds a client bound to the remote agent's base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		headers: make(map[string]string),
		http: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 300 * time.Second}),
			httpclient.WithMaxRetries(3),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wireMessage is the envelope shape on the wire.
type wireMessage struct {
	Kind      string         `json:"kind"`
	MessageID string         `json:"messageId"`
	Role      string         `json:"role"`
	Parts     []wirePart     `json:"parts"`
	ContextID string         `json:"contextId,omitempty"`
	TaskID    string         `json:"taskId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type wirePart struct {
	Kind string         `json:"kind"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SendMessage delivers one message and returns the remote agent's
// reply. A non-null error field in the response becomes an error
// carrying the remote message; transport failures propagate as-is.
func (c *Client) SendMessage(ctx context.Context, msg *a2apb.Message) (*a2apb.Message, error) {
	envelope := toWire(msg)

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  "message/send",
		Params:  map[string]any{"message": envelope},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("remote agent returned %d: %s", resp.StatusCode, string(raw))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("%s", rpcResp.Error.Message)
	}

	var reply wireMessage
	if err := json.Unmarshal(rpcResp.Result, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode reply message: %w", err)
	}
	return fromWire(&reply), nil
}

func toWire(msg *a2apb.Message) wireMessage {
	out := wireMessage{
		Kind:      "message",
		MessageID: uuid.NewString(),
		Role:      string(msg.Role),
		ContextID: string(msg.ContextID),
		TaskID:    string(msg.TaskID),
		Metadata:  msg.Metadata,
	}
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case a2apb.TextPart:
			out.Parts = append(out.Parts, wirePart{Kind: "text", Text: p.Text})
		case *a2apb.TextPart:
			out.Parts = append(out.Parts, wirePart{Kind: "text", Text: p.Text})
		case a2apb.DataPart:
			out.Parts = append(out.Parts, wirePart{Kind: "data", Data: p.Data})
		}
	}
	return out
}

func fromWire(msg *wireMessage) *a2apb.Message {
	var parts []a2apb.Part
	for _, part := range msg.Parts {
		switch part.Kind {
		case "text":
			parts = append(parts, a2apb.TextPart{Text: part.Text})
		case "data":
			parts = append(parts, a2apb.DataPart{Data: part.Data})
		}
	}
	out := a2apb.NewMessage(a2apb.MessageRole(msg.Role), parts...)
	out.Metadata = msg.Metadata
	return out
}

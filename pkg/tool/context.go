package tool

import "context"

// Actions lets a tool signal control-flow effects back to the
// orchestrator. A transfer tool sets TransferToAgent; the orchestrator,
// not the tool, enacts the switch.
type Actions struct {
	// TransferToAgent names the agent control hands off to after this
	// tool call. Empty means no transfer.
	TransferToAgent string
}

// Context is the execution context passed to a tool invocation. Concrete
// implementations come from the orchestrator and may expose more through
// type assertion.
type Context interface {
	context.Context

	// FunctionCallID returns the unique id of this tool invocation.
	FunctionCallID() string

	// Actions returns the mutable action record for this invocation.
	Actions() *Actions
}

// NewContext wraps a plain context for callers outside the orchestrator,
// mainly tests.
func NewContext(ctx context.Context, functionCallID string) Context {
	return &plainContext{
		Context:        ctx,
		functionCallID: functionCallID,
		actions:        &Actions{},
	}
}

type plainContext struct {
	context.Context
	functionCallID string
	actions        *Actions
}

func (c *plainContext) FunctionCallID() string {
	return c.functionCallID
}

func (c *plainContext) Actions() *Actions {
	return c.actions
}

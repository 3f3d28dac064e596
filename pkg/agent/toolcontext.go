package agent

import (
	"context"

	"github.com/parley-ai/parley/pkg/tool"
)

// toolContext is the tool.Context handed to tool invocations. Relation
// tools reach the execution context through the ExecutionContext
// accessor via type assertion.
type toolContext struct {
	context.Context
	functionCallID string
	actions        *tool.Actions
	execCtx        *ExecutionContext
}

var _ tool.Context = (*toolContext)(nil)

func newToolContext(ctx context.Context, functionCallID string, execCtx *ExecutionContext) *toolContext {
	return &toolContext{
		Context:        ctx,
		functionCallID: functionCallID,
		actions:        &tool.Actions{},
		execCtx:        execCtx,
	}
}

func (c *toolContext) FunctionCallID() string { return c.functionCallID }

func (c *toolContext) Actions() *tool.Actions { return c.actions }

// ExecutionContext exposes the turn scope to tools that need it.
func (c *toolContext) ExecutionContext() *ExecutionContext { return c.execCtx }

// ContextCarrier is implemented by tool contexts created by the
// orchestrator. Relation tools assert against it to reach the turn
// scope.
type ContextCarrier interface {
	ExecutionContext() *ExecutionContext
}

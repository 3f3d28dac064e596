package agent

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/model"
	"github.com/parley-ai/parley/pkg/observability"
)

// maxTransferHops bounds one turn's transfer chain. The cap counts
// hand-offs, not orchestrator runs: the starting agent's run is hop
// zero, so a turn may run up to maxTransferHops+1 agents.
const maxTransferHops = 5

// ErrUnknownSubAgent fails the turn when a transfer or delegation names
// an agent the project does not declare.
type ErrUnknownSubAgent struct {
	AgentID string
}

func (e *ErrUnknownSubAgent) Error() string {
	return fmt.Sprintf("unknown sub-agent %q", e.AgentID)
}

// Factory builds an orchestrator for one agent configuration. The
// registry calls it per hop so relation tools can be synthesized for
// the active agent.
type Factory func(cfg *config.AgentConfig) (*Orchestrator, error)

// Invoker runs a named agent to completion. Delegate tools depend on
// this interface rather than the registry to invoke sub-agents.
type Invoker interface {
	Invoke(ctx context.Context, execCtx *ExecutionContext, agentID, message string) (*model.GenerationResult, error)
}

// Registry resolves agent ids against the project snapshot and drives
// the transfer loop: when a turn ends in a handoff signal, the next
// agent takes over with no transitional output from the first.
type Registry struct {
	project  *config.Project
	factory  Factory
	recorder *observability.Recorder
}

var _ Invoker = (*Registry)(nil)

// NewRegistry builds a registry over the project snapshot.
func NewRegistry(project *config.Project, factory Factory, recorder *observability.Recorder) (*Registry, error) {
	if project == nil {
		return nil, fmt.Errorf("project snapshot is required")
	}
	if factory == nil {
		return nil, fmt.Errorf("orchestrator factory is required")
	}
	return &Registry{project: project, factory: factory, recorder: recorder}, nil
}

// Run executes one user turn starting at agentID, following transfers
// until an agent produces an answer. An empty agentID starts at the
// project's default agent.
func (r *Registry) Run(ctx context.Context, execCtx *ExecutionContext, agentID, message string) (*model.GenerationResult, error) {
	current := agentID
	if current == "" {
		current = r.project.DefaultAgent
	}

	for hop := 0; hop <= maxTransferHops; hop++ {
		cfg, err := r.project.Agent(current)
		if err != nil {
			return nil, &ErrUnknownSubAgent{AgentID: current}
		}

		orch, err := r.factory(cfg)
		if err != nil {
			return nil, err
		}

		hopCtx := *execCtx
		hopCtx.AgentID = current

		turn, err := orch.Generate(ctx, &hopCtx, message)
		if err != nil {
			return nil, err
		}
		if turn.Transfer == "" {
			return turn.Result, nil
		}

		if _, err := r.project.Agent(turn.Transfer); err != nil {
			return nil, &ErrUnknownSubAgent{AgentID: turn.Transfer}
		}
		slog.Info("transferring conversation", "from", current, "to", turn.Transfer)
		r.recorder.Transfer(current, turn.Transfer)
		current = turn.Transfer
	}

	return nil, fmt.Errorf("transfer chain exceeded %d hops", maxTransferHops)
}

// Invoke satisfies Invoker for delegation.
func (r *Registry) Invoke(ctx context.Context, execCtx *ExecutionContext, agentID, message string) (*model.GenerationResult, error) {
	return r.Run(ctx, execCtx, agentID, message)
}

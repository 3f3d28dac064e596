package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/history"
	"github.com/parley-ai/parley/pkg/model"
	"github.com/parley-ai/parley/pkg/tool"
)

func testProject(agents ...*config.AgentConfig) *config.Project {
	p := &config.Project{
		TenantID:  "tenant-1",
		ProjectID: "project-1",
		Agents:    make(map[string]*config.AgentConfig),
	}
	for _, a := range agents {
		p.Agents[a.ID] = a
	}
	if len(agents) > 0 {
		p.DefaultAgent = agents[0].ID
	}
	return p
}

func testExecCtx(p *config.Project) *ExecutionContext {
	return &ExecutionContext{
		TenantID:       "tenant-1",
		ProjectID:      "project-1",
		ConversationID: "conv-1",
		Project:        p,
	}
}

func TestSinglePassTextAnswer(t *testing.T) {
	cfg := &config.AgentConfig{ID: "qa", Prompt: "Answer questions."}
	runner := &model.StaticRunner{Responses: []model.Response{
		&model.StaticResponse{TextValue: "Mocked response", FinishReasonValue: model.FinishReasonStop},
	}}

	o, err := New(cfg, runner)
	require.NoError(t, err)

	turn, err := o.Generate(context.Background(), testExecCtx(testProject(cfg)), "hello")
	require.NoError(t, err)

	assert.Equal(t, "Mocked response", turn.Result.Text)
	assert.Nil(t, turn.Result.Object)
	assert.Empty(t, turn.Transfer)
	// Zero data components means exactly one model call.
	assert.Len(t, runner.Requests, 1)
}

func TestStructuredPassRunsWithDataComponents(t *testing.T) {
	cfg := &config.AgentConfig{
		ID:     "qa",
		Prompt: "Answer questions.",
		DataComponents: []config.DataComponent{
			{Name: "Answer", Props: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{"type": "string"},
				},
			}},
		},
	}
	structured := map[string]any{
		"dataComponents": []any{
			map[string]any{"name": "Answer", "props": map[string]any{"text": "42"}},
		},
	}
	runner := &model.StaticRunner{Responses: []model.Response{
		&model.StaticResponse{TextValue: "The answer is 42.", FinishReasonValue: model.FinishReasonStop},
		&model.StaticResponse{OutputValue: structured, FinishReasonValue: model.FinishReasonStop},
	}}

	o, err := New(cfg, runner)
	require.NoError(t, err)

	turn, err := o.Generate(context.Background(), testExecCtx(testProject(cfg)), "what is the answer?")
	require.NoError(t, err)

	require.Len(t, runner.Requests, 2)
	second := runner.Requests[1]
	require.NotNil(t, second.Config.ResponseSchema)
	assert.Empty(t, second.Tools)

	components, ok := turn.Result.Object["dataComponents"].([]any)
	require.True(t, ok)
	assert.Len(t, components, 1)
}

func TestModelErrorSurfacedVerbatim(t *testing.T) {
	cfg := &config.AgentConfig{ID: "qa"}
	runner := &model.StaticRunner{Err: errors.New("rate limited by provider")}

	o, err := New(cfg, runner)
	require.NoError(t, err)

	_, err = o.Generate(context.Background(), testExecCtx(testProject(cfg)), "hello")
	require.Error(t, err)
	assert.Equal(t, "rate limited by provider", err.Error())
}

func TestRejectedAccessorWrappedWithPrefix(t *testing.T) {
	cfg := &config.AgentConfig{ID: "qa"}
	runner := &model.StaticRunner{Responses: []model.Response{
		&model.StaticResponse{Errs: map[string]error{"text": errors.New("stream reset")}},
	}}

	o, err := New(cfg, runner)
	require.NoError(t, err)

	_, err = o.Generate(context.Background(), testExecCtx(testProject(cfg)), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve generation result")
	assert.Contains(t, err.Error(), "stream reset")
}

type echoTool struct {
	calls int
}

func (e *echoTool) Name() string            { return "echo" }
func (e *echoTool) Description() string     { return "Echo the input back." }
func (e *echoTool) Schema() map[string]any  { return map[string]any{"type": "object"} }
func (e *echoTool) Call(_ tool.Context, args map[string]any) (map[string]any, error) {
	e.calls++
	return map[string]any{"echo": args["value"]}, nil
}

func TestToolLoopExecutesAndFeedsResultsBack(t *testing.T) {
	echo := &echoTool{}
	cfg := &config.AgentConfig{ID: "qa", FunctionTools: []string{"echo"}}

	runner := &model.StaticRunner{Responses: []model.Response{
		&model.StaticResponse{
			StepsValue: []model.Step{{
				ToolCalls: []tool.ToolCall{{ID: "call-1", Name: "echo", Args: map[string]any{"value": "hi"}}},
			}},
			FinishReasonValue: model.FinishReasonToolCalls,
		},
		&model.StaticResponse{TextValue: "echoed", FinishReasonValue: model.FinishReasonStop},
	}}

	o, err := New(cfg, runner,
		WithFunctionTools(map[string]tool.CallableTool{"echo": echo}))
	require.NoError(t, err)

	turn, err := o.Generate(context.Background(), testExecCtx(testProject(cfg)), "echo hi")
	require.NoError(t, err)

	assert.Equal(t, 1, echo.calls)
	assert.Equal(t, "echoed", turn.Result.Text)
	// First model call, then a follow-up carrying the tool exchange.
	require.Len(t, runner.Requests, 2)
	followUp := runner.Requests[1]
	assert.Greater(t, len(followUp.Messages), len(runner.Requests[0].Messages))
}

type transferTool struct {
	target string
}

func (tr *transferTool) Name() string           { return "transfer_to_" + tr.target }
func (tr *transferTool) Description() string    { return "Hand the conversation to " + tr.target }
func (tr *transferTool) Schema() map[string]any { return map[string]any{"type": "object"} }
func (tr *transferTool) Call(ctx tool.Context, _ map[string]any) (map[string]any, error) {
	ctx.Actions().TransferToAgent = tr.target
	return map[string]any{"transferred": true}, nil
}

func transferResponse(toolName string) model.Response {
	return &model.StaticResponse{
		StepsValue: []model.Step{{
			ToolCalls: []tool.ToolCall{{ID: "call-t", Name: toolName, Args: map[string]any{}}},
		}},
		FinishReasonValue: model.FinishReasonToolCalls,
	}
}

func TestTransferSignalEndsTurnWithoutText(t *testing.T) {
	cfg := &config.AgentConfig{ID: "front", TransferRelations: []string{"billing"}}
	runner := &model.StaticRunner{Responses: []model.Response{transferResponse("transfer_to_billing")}}

	o, err := New(cfg, runner,
		WithRelationTools([]tool.Tool{&transferTool{target: "billing"}}))
	require.NoError(t, err)

	turn, err := o.Generate(context.Background(), testExecCtx(testProject(cfg)), "refund please")
	require.NoError(t, err)

	assert.Equal(t, "billing", turn.Transfer)
	assert.Nil(t, turn.Result)
}

func TestRegistryFollowsTransfer(t *testing.T) {
	front := &config.AgentConfig{ID: "front", TransferRelations: []string{"billing"}}
	billing := &config.AgentConfig{ID: "billing"}
	project := testProject(front, billing)

	factory := func(cfg *config.AgentConfig) (*Orchestrator, error) {
		switch cfg.ID {
		case "front":
			runner := &model.StaticRunner{Responses: []model.Response{transferResponse("transfer_to_billing")}}
			return New(cfg, runner, WithRelationTools([]tool.Tool{&transferTool{target: "billing"}}))
		case "billing":
			runner := &model.StaticRunner{Responses: []model.Response{
				&model.StaticResponse{TextValue: "refund issued", FinishReasonValue: model.FinishReasonStop},
			}}
			return New(cfg, runner)
		}
		return nil, fmt.Errorf("unexpected agent %s", cfg.ID)
	}

	registry, err := NewRegistry(project, factory, nil)
	require.NoError(t, err)

	result, err := registry.Run(context.Background(), testExecCtx(project), "", "refund please")
	require.NoError(t, err)
	assert.Equal(t, "refund issued", result.Text)
}

func TestRegistryTransferHopCap(t *testing.T) {
	agents := make([]*config.AgentConfig, maxTransferHops+2)
	for i := range agents {
		agents[i] = &config.AgentConfig{ID: fmt.Sprintf("hop-%d", i)}
		if i > 0 {
			agents[i-1].TransferRelations = []string{agents[i].ID}
		}
	}
	project := testProject(agents...)

	factory := func(answerAt string) Factory {
		return func(cfg *config.AgentConfig) (*Orchestrator, error) {
			if cfg.ID == answerAt {
				runner := &model.StaticRunner{Responses: []model.Response{
					&model.StaticResponse{TextValue: "done", FinishReasonValue: model.FinishReasonStop},
				}}
				return New(cfg, runner)
			}
			target := cfg.TransferRelations[0]
			runner := &model.StaticRunner{Responses: []model.Response{transferResponse("transfer_to_" + target)}}
			return New(cfg, runner, WithRelationTools([]tool.Tool{&transferTool{target: target}}))
		}
	}

	// A chain of exactly maxTransferHops hand-offs still answers.
	registry, err := NewRegistry(project, factory(fmt.Sprintf("hop-%d", maxTransferHops)), nil)
	require.NoError(t, err)
	result, err := registry.Run(context.Background(), testExecCtx(project), "hop-0", "go")
	require.NoError(t, err)
	assert.Equal(t, "done", result.Text)

	// One more hand-off exceeds the cap.
	registry, err = NewRegistry(project, factory(fmt.Sprintf("hop-%d", maxTransferHops+1)), nil)
	require.NoError(t, err)
	_, err = registry.Run(context.Background(), testExecCtx(project), "hop-0", "go")
	assert.ErrorContains(t, err, "transfer chain exceeded")
}

func TestRegistryUnknownTransferTargetFailsTurn(t *testing.T) {
	front := &config.AgentConfig{ID: "front"}
	project := testProject(front)

	factory := func(cfg *config.AgentConfig) (*Orchestrator, error) {
		runner := &model.StaticRunner{Responses: []model.Response{transferResponse("transfer_to_ghost")}}
		return New(cfg, runner, WithRelationTools([]tool.Tool{&transferTool{target: "ghost"}}))
	}

	registry, err := NewRegistry(project, factory, nil)
	require.NoError(t, err)

	_, err = registry.Run(context.Background(), testExecCtx(project), "front", "hello")
	var unknown *ErrUnknownSubAgent
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.AgentID)
}

func TestRegistryUnknownStartAgent(t *testing.T) {
	project := testProject(&config.AgentConfig{ID: "front"})
	registry, err := NewRegistry(project, func(cfg *config.AgentConfig) (*Orchestrator, error) {
		return New(cfg, &model.StaticRunner{})
	}, nil)
	require.NoError(t, err)

	_, err = registry.Run(context.Background(), testExecCtx(project), "nope", "hello")
	var unknown *ErrUnknownSubAgent
	require.ErrorAs(t, err, &unknown)
}

type runeCounter struct{}

func (runeCounter) Count(text string) int { return len([]rune(text)) }

func TestHistoryModesControlGathering(t *testing.T) {
	store := history.NewMemoryStore()
	seed := history.Message{
		TenantID: "tenant-1", ProjectID: "project-1", ConversationID: "conv-1",
		Role: "user", Content: "earlier question", Visibility: history.VisibilityUser,
	}
	require.NoError(t, store.Append(context.Background(), seed))

	makeOrch := func(mode string) (*Orchestrator, *model.StaticRunner) {
		cfg := &config.AgentConfig{
			ID:                  "qa",
			ConversationHistory: config.ConversationHistoryConfig{Mode: mode},
		}
		runner := &model.StaticRunner{Responses: []model.Response{
			&model.StaticResponse{TextValue: "ok", FinishReasonValue: model.FinishReasonStop},
		}}
		o, err := New(cfg, runner, WithHistory(store), WithTokenCounter(runeCounter{}))
		require.NoError(t, err)
		return o, runner
	}

	o, runner := makeOrch(config.HistoryNone)
	_, err := o.Generate(context.Background(), testExecCtx(testProject(o.cfg)), "hi")
	require.NoError(t, err)
	require.Len(t, runner.Requests[0].Messages, 1)

	o, runner = makeOrch(config.HistoryFull)
	_, err = o.Generate(context.Background(), testExecCtx(testProject(o.cfg)), "hi")
	require.NoError(t, err)
	require.Len(t, runner.Requests[0].Messages, 2)
}

func TestStructuredSchemaShape(t *testing.T) {
	cfg := &config.AgentConfig{
		DataComponents: []config.DataComponent{
			{Name: "Answer", Props: map[string]any{"type": "object"}},
		},
		ArtifactComponents: []config.ArtifactComponent{
			{Name: "Invoice"},
		},
	}
	schema := structuredSchema(cfg)

	props := schema["properties"].(map[string]any)
	require.Contains(t, props, "dataComponents")
	require.Contains(t, props, "artifacts")

	items := props["dataComponents"].(map[string]any)["items"].(map[string]any)
	variants := items["anyOf"].([]any)
	require.Len(t, variants, 1)

	artifactItems := props["artifacts"].(map[string]any)["items"].(map[string]any)
	required := artifactItems["required"].([]any)
	assert.Contains(t, required, "base")
}

func TestDeriveKeepsParentUntouched(t *testing.T) {
	parent := testExecCtx(testProject(&config.AgentConfig{ID: "a"}))
	child := parent.Derive("worker")

	assert.Equal(t, "worker", child.SubAgentID)
	assert.Empty(t, parent.SubAgentID)
	assert.Equal(t, parent.Project, child.Project)
}

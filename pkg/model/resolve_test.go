package model

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley/pkg/tool"
)

func TestResolveResult(t *testing.T) {
	ctx := context.Background()

	resp := &StaticResponse{
		TextValue: "hello",
		StepsValue: []Step{{
			Text:      "thinking",
			ToolCalls: []tool.ToolCall{{ID: "call-1", Name: "search"}},
			ToolResults: []tool.ToolResult{{
				ToolCallID: "call-1",
				Content:    map[string]any{"hits": 3},
			}},
		}},
		FinishReasonValue: FinishReasonStop,
		OutputValue:       map[string]any{"dataComponents": []any{}},
	}

	result, err := ResolveResult(ctx, resp)
	require.NoError(t, err)

	assert.Equal(t, "hello", result.Text)
	assert.True(t, result.HasText)
	assert.Equal(t, FinishReasonStop, result.FinishReason)
	assert.NotNil(t, result.Object)
	require.Len(t, result.Steps, 1)

	calls := result.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "search", calls[0].Name)

	results := result.ToolResults()
	assert.Equal(t, map[string]any{"hits": 3}, results["call-1"])
}

func TestResolveResultPreservesEmptyText(t *testing.T) {
	result, err := ResolveResult(context.Background(), &StaticResponse{
		TextValue:         "",
		FinishReasonValue: FinishReasonStop,
	})
	require.NoError(t, err)

	// Empty string is a valid resolution, not absence.
	assert.Equal(t, "", result.Text)
	assert.True(t, result.HasText)
	assert.Nil(t, result.Object)
}

func TestResolveResultWrapsAccessorFailures(t *testing.T) {
	underlying := errors.New("stream was torn down")

	for _, accessor := range []string{"text", "steps", "finishReason", "output", "formattedContent"} {
		t.Run(accessor, func(t *testing.T) {
			resp := &StaticResponse{
				TextValue: "x",
				Errs:      map[string]error{accessor: underlying},
			}
			_, err := ResolveResult(context.Background(), resp)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), resolveErrPrefix),
				"error %q should carry the fixed prefix", err.Error())
			assert.ErrorIs(t, err, underlying)
		})
	}
}

func TestResolveResultNilResponse(t *testing.T) {
	_, err := ResolveResult(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), resolveErrPrefix))
}

func TestStaticRunnerCycles(t *testing.T) {
	ctx := context.Background()
	runner := &StaticRunner{
		Responses: []Response{
			&StaticResponse{TextValue: "first"},
			&StaticResponse{TextValue: "second"},
		},
	}

	for _, expected := range []string{"first", "second", "second"} {
		resp, err := runner.Generate(ctx, &Request{})
		require.NoError(t, err)
		text, err := resp.Text(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, text)
	}
	assert.Len(t, runner.Requests, 3)
}

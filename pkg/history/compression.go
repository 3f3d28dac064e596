package history

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/model"
	"github.com/parley-ai/parley/pkg/tokens"
)

// Environment fallbacks for models with an unknown context window.
const (
	EnvCompressTrigger = "PARLEY_COMPRESS_TRIGGER"
	EnvCompressBuffer  = "PARLEY_COMPRESS_BUFFER"
)

// defaultContextWindow sizes compression when the model config does not
// declare a window.
const defaultContextWindow = 128_000

// CompressionPolicy decides when history compression triggers and how
// much headroom to leave. Trigger and Buffer are fractions of the
// model's context window.
type CompressionPolicy struct {
	Trigger float64
	Buffer  float64
}

// PolicyForModel picks the policy from the model's context window size.
// A fixed absolute threshold would either waste huge-context models'
// headroom or overrun small-context models, so the ratios scale with
// the window: >500K compresses at 95% with a 4% buffer, 100K-500K at
// 90%/7%, <100K at 85%/10%. Models with an unknown window use the
// environment-configured or hard-coded defaults.
func PolicyForModel(m *config.ModelConfig) CompressionPolicy {
	window := 0
	if m != nil {
		window = m.ContextWindow
	}

	switch {
	case window > 500_000:
		return CompressionPolicy{Trigger: 0.95, Buffer: 0.04}
	case window >= 100_000:
		return CompressionPolicy{Trigger: 0.90, Buffer: 0.07}
	case window > 0:
		return CompressionPolicy{Trigger: 0.85, Buffer: 0.10}
	default:
		return envPolicy()
	}
}

func envPolicy() CompressionPolicy {
	policy := CompressionPolicy{Trigger: 0.85, Buffer: 0.10}
	if raw := os.Getenv(EnvCompressTrigger); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 && v < 1 {
			policy.Trigger = v
		}
	}
	if raw := os.Getenv(EnvCompressBuffer); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 && v < 1 {
			policy.Buffer = v
		}
	}
	return policy
}

// CompressionRequest carries everything one compressed gathering needs.
type CompressionRequest struct {
	Query Query

	// CurrentMessage is the incoming user message; it counts against
	// the window but is never compressed away.
	CurrentMessage string

	// Model supplies the context window the policy scales against.
	Model *config.ModelConfig

	// Summarizer generates summaries of evicted history. Nil falls
	// back to plain truncation of the oldest messages.
	Summarizer model.Runner

	// SummarizerModel configures the summarization call.
	SummarizerModel *config.ModelConfig

	// Counter overrides the token counter, mainly for tests. Nil uses
	// a model-aware tiktoken counter.
	Counter TokenCounter
}

// TokenCounter counts tokens of prompt text.
type TokenCounter interface {
	Count(text string) int
}

// GetConversationHistoryWithCompression gathers history and compresses
// it when the formatted text would crowd the model's context window.
func GetConversationHistoryWithCompression(ctx context.Context, store Store, req CompressionRequest) (string, error) {
	messages, err := store.Messages(ctx, req.Query)
	if err != nil {
		return "", fmt.Errorf("failed to gather conversation history: %w", err)
	}
	if len(messages) == 0 {
		return "", nil
	}

	modelName := ""
	window := defaultContextWindow
	if req.Model != nil {
		modelName = req.Model.Model
		if req.Model.ContextWindow > 0 {
			window = req.Model.ContextWindow
		}
	}
	policy := PolicyForModel(req.Model)

	counter := req.Counter
	if counter == nil {
		tc, err := tokens.NewCounter(modelName)
		if err != nil {
			return "", fmt.Errorf("failed to build token counter: %w", err)
		}
		counter = tc
	}

	full := Format(messages)
	used := counter.Count(full) + counter.Count(req.CurrentMessage)
	triggerAt := int(policy.Trigger * float64(window))
	if used <= triggerAt {
		return full, nil
	}

	// Compress down to (trigger - buffer) of the window: keep the most
	// recent messages within the target, summarize the rest.
	target := int((policy.Trigger - policy.Buffer) * float64(window))
	keepFrom := len(messages)
	kept := counter.Count(req.CurrentMessage)
	for i := len(messages) - 1; i >= 0; i-- {
		msgTokens := counter.Count(messages[i].Role + ": " + messages[i].Content)
		if kept+msgTokens > target {
			break
		}
		kept += msgTokens
		keepFrom = i
	}

	evicted := messages[:keepFrom]
	recent := Format(messages[keepFrom:])
	if len(evicted) == 0 {
		return recent, nil
	}

	summary, err := summarize(ctx, req, evicted)
	if err != nil {
		return "", err
	}
	if summary == "" {
		return recent, nil
	}
	if recent == "" {
		return "Summary of earlier conversation:\n" + summary, nil
	}
	return "Summary of earlier conversation:\n" + summary + "\n\n" + recent, nil
}

func summarize(ctx context.Context, req CompressionRequest, evicted []Message) (string, error) {
	if req.Summarizer == nil {
		// No summarizer configured: truncate silently.
		return "", nil
	}

	instruction := strings.Join([]string{
		"Summarize the following conversation history.",
		"Keep decisions, facts, open tasks, and tool outcomes.",
		"Be concise; the summary replaces the original messages.",
	}, " ")

	resp, err := req.Summarizer.Generate(ctx, &model.Request{
		SystemInstruction: instruction,
		Messages: []*a2a.Message{
			a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: Format(evicted)}),
		},
		Config: &model.GenerateConfig{Model: req.SummarizerModel},
	})
	if err != nil {
		return "", fmt.Errorf("history summarization failed: %w", err)
	}

	result, err := model.ResolveResult(ctx, resp)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

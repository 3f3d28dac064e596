package artifact

import "fmt"

// Reserved keys inside tool-call arguments. A map carrying both keys is
// resolved to the cited artifact's full field set; a map carrying only
// SentinelToolCallID pipes the raw output of that earlier tool call.
// Resolution happens in one centralized step before the downstream tool
// dispatches; the model only ever sees the sentinel form.
const (
	SentinelArtifactID = "artifact:artifact-id"
	SentinelToolCallID = "artifact:tool-call-id"
)

// ResolveArgs walks a tool-argument map and expands every sentinel
// object in place of its marker, recursing through nested maps and
// slices. The input is not mutated.
func (p *Protocol) ResolveArgs(args map[string]any, toolResults map[string]any) (map[string]any, error) {
	resolved, err := p.resolveValue(args, toolResults)
	if err != nil {
		return nil, err
	}
	return resolved.(map[string]any), nil
}

func (p *Protocol) resolveValue(value any, toolResults map[string]any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		if expanded, ok, err := p.resolveSentinel(v, toolResults); ok || err != nil {
			return expanded, err
		}
		out := make(map[string]any, len(v))
		for k, item := range v {
			resolved, err := p.resolveValue(item, toolResults)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := p.resolveValue(item, toolResults)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return value, nil
	}
}

// resolveSentinel recognizes the two marker-object forms. Returns
// ok=false when the map is not a sentinel.
func (p *Protocol) resolveSentinel(m map[string]any, toolResults map[string]any) (any, bool, error) {
	rawToolCall, hasToolCall := m[SentinelToolCallID]
	if !hasToolCall {
		return nil, false, nil
	}
	toolCallID, ok := rawToolCall.(string)
	if !ok {
		return nil, true, fmt.Errorf("sentinel key %q must hold a string", SentinelToolCallID)
	}

	if rawArtifact, hasArtifact := m[SentinelArtifactID]; hasArtifact {
		artifactID, ok := rawArtifact.(string)
		if !ok {
			return nil, true, fmt.Errorf("sentinel key %q must hold a string", SentinelArtifactID)
		}
		a, err := p.store.Get(artifactID, toolCallID)
		if err != nil {
			return nil, true, err
		}
		return a.Full(), true, nil
	}

	// Tool-call key alone pipes the raw prior result; no artifact needs
	// to exist.
	result, ok := toolResults[toolCallID]
	if !ok {
		return nil, true, fmt.Errorf("tool call %q has no recorded result", toolCallID)
	}
	return result, true, nil
}

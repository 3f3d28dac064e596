package artifact

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/parley-ai/parley/pkg/config"
)

// CreateCitation is a parsed <artifact-create/> tag: an instruction to
// capture fields from an earlier tool result. Base narrows the result to
// one item; Details maps output field names to selectors relative to
// Base, never literal values.
type CreateCitation struct {
	ID      string
	Tool    string // tool call id of the originating result
	Type    string // ArtifactComponent name
	Name    string
	Base    string
	Details map[string]string
}

// RefCitation is a parsed <artifact-ref/> tag: an inline reference that
// displays only the artifact's preview fields.
type RefCitation struct {
	ID   string
	Tool string
}

var (
	createTagPattern = regexp.MustCompile(`<artifact-create\s+([^>]*?)\s*/?>`)
	refTagPattern    = regexp.MustCompile(`<artifact-ref\s+([^>]*?)\s*/?>`)
	attrPattern      = regexp.MustCompile(`([\w-]+)=(?:"([^"]*)"|'([^']*)')`)
)

func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(raw, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		attrs[m[1]] = value
	}
	return attrs
}

// ParseCitations extracts every create and reference citation from
// generated text, in order of appearance per kind.
func ParseCitations(text string) ([]CreateCitation, []RefCitation, error) {
	var creates []CreateCitation
	for _, m := range createTagPattern.FindAllStringSubmatch(text, -1) {
		attrs := parseAttrs(m[1])
		c := CreateCitation{
			ID:   attrs["id"],
			Tool: attrs["tool"],
			Type: attrs["type"],
			Name: attrs["name"],
			Base: attrs["base"],
		}
		if c.ID == "" || c.Tool == "" {
			return nil, nil, fmt.Errorf("artifact-create tag missing id or tool: %s", m[0])
		}
		if raw := attrs["details"]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &c.Details); err != nil {
				return nil, nil, fmt.Errorf("artifact-create %q: invalid details: %w", c.ID, err)
			}
		}
		creates = append(creates, c)
	}

	var refs []RefCitation
	for _, m := range refTagPattern.FindAllStringSubmatch(text, -1) {
		attrs := parseAttrs(m[1])
		r := RefCitation{ID: attrs["id"], Tool: attrs["tool"]}
		if r.ID == "" || r.Tool == "" {
			return nil, nil, fmt.Errorf("artifact-ref tag missing id or tool: %s", m[0])
		}
		refs = append(refs, r)
	}

	return creates, refs, nil
}

// ComponentLookup finds an ArtifactComponent by name. Lookups should
// prefer the full project component list over any agent-scoped subset.
type ComponentLookup func(name string) *config.ArtifactComponent

// Protocol runs the citation verbs for one conversation: creating
// artifacts from citations, resolving references, and expanding
// pass-to-tool sentinels.
type Protocol struct {
	store     *Store
	component ComponentLookup
}

func NewProtocol(store *Store, component ComponentLookup) *Protocol {
	if component == nil {
		component = func(string) *config.ArtifactComponent { return nil }
	}
	return &Protocol{store: store, component: component}
}

// Store exposes the backing store.
func (p *Protocol) Store() *Store {
	return p.store
}

// Create builds and stores an artifact from a parsed citation and the
// raw result of the originating tool call. All detail fields are
// captured, preview and non-preview alike; only later references are
// restricted to the preview subset.
func (p *Protocol) Create(c CreateCitation, toolResult any) (*Artifact, error) {
	base, err := SelectBase(toolResult, c.Base)
	if err != nil {
		return nil, fmt.Errorf("artifact %q: %w", c.ID, err)
	}

	fields := make(map[string]any, len(c.Details))
	for field, selector := range c.Details {
		value, err := SelectField(base, selector)
		if err != nil {
			return nil, fmt.Errorf("artifact %q: field %q: %w", c.ID, field, err)
		}
		fields[field] = value
	}

	component := p.component(c.Type)

	a, err := New(c.ID, c.Tool, c.Type, c.Name, "", fields, component)
	if err != nil {
		return nil, err
	}
	if err := p.store.Put(a); err != nil {
		return nil, err
	}
	return a, nil
}

// ProcessText parses all citations out of generated text, materializes
// the creates against the recorded tool results keyed by tool call id,
// and then checks every reference against the store. A create naming an
// unrecorded tool call, or a reference citing a pair never created, is
// a citation error.
func (p *Protocol) ProcessText(text string, toolResults map[string]any) ([]*Artifact, error) {
	creates, refs, err := ParseCitations(text)
	if err != nil {
		return nil, err
	}

	var created []*Artifact
	for _, c := range creates {
		result, ok := toolResults[c.Tool]
		if !ok {
			return created, &CitationError{ArtifactID: c.ID, ToolCallID: c.Tool}
		}
		a, err := p.Create(c, result)
		if err != nil {
			return created, err
		}
		created = append(created, a)
	}

	// References may cite artifacts created earlier in the same text,
	// so they are checked only after every create has landed.
	for _, r := range refs {
		if _, err := p.store.Get(r.ID, r.Tool); err != nil {
			return created, err
		}
	}
	return created, nil
}

// ResolveReference returns the preview fields for a reference citation.
// Full fields are never resolved through a text reference.
func (p *Protocol) ResolveReference(r RefCitation) (map[string]any, error) {
	a, err := p.store.Get(r.ID, r.Tool)
	if err != nil {
		return nil, err
	}
	return a.Preview(), nil
}

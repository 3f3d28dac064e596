package config

import "fmt"

// Delegate target kinds.
const (
	DelegateInternal = "internal" // sibling agent in the same process
	DelegateExternal = "external" // remote agent over A2A
	DelegateTeam     = "team"     // team-routed remote agent with minted token
)

// DelegateTarget is a tagged union over the three delegation kinds.
// Exactly one variant matching Type must be set; validated once at the
// boundary so the executor can switch on Type without nil checks.
type DelegateTarget struct {
	// Type is one of internal, external, team.
	Type string `yaml:"type" json:"type"`

	// Internal configures same-process delegation to a sibling agent.
	Internal *InternalDelegate `yaml:"internal,omitempty" json:"internal,omitempty"`

	// External configures remote delegation over A2A.
	External *ExternalDelegate `yaml:"external,omitempty" json:"external,omitempty"`

	// Team configures team-routed remote delegation.
	Team *TeamDelegate `yaml:"team,omitempty" json:"team,omitempty"`
}

// Validate checks that exactly the variant named by Type is present.
func (d DelegateTarget) Validate() error {
	variants := 0
	if d.Internal != nil {
		variants++
	}
	if d.External != nil {
		variants++
	}
	if d.Team != nil {
		variants++
	}
	if variants != 1 {
		return fmt.Errorf("exactly one delegate variant must be set, got %d", variants)
	}

	switch d.Type {
	case DelegateInternal:
		if d.Internal == nil {
			return fmt.Errorf("type is internal but internal variant is not set")
		}
		if d.Internal.Agent == "" {
			return fmt.Errorf("internal.agent is required")
		}
	case DelegateExternal:
		if d.External == nil {
			return fmt.Errorf("type is external but external variant is not set")
		}
		if d.External.ExternalAgent == "" {
			return fmt.Errorf("external.external_agent is required")
		}
	case DelegateTeam:
		if d.Team == nil {
			return fmt.Errorf("type is team but team variant is not set")
		}
		if d.Team.ExternalAgent == "" {
			return fmt.Errorf("team.external_agent is required")
		}
	default:
		return fmt.Errorf("unknown delegate type %q", d.Type)
	}
	return nil
}

// InternalDelegate targets a sibling agent in the same process.
type InternalDelegate struct {
	// Agent is the sibling agent id.
	Agent string `yaml:"agent" json:"agent"`
}

// ExternalDelegate targets a remote agent over A2A.
type ExternalDelegate struct {
	// ExternalAgent references an entry in Project.ExternalAgents.
	ExternalAgent string `yaml:"external_agent" json:"externalAgent"`

	// Headers are additional static headers for this relation, merged
	// over the external agent's own headers.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// TeamDelegate targets a team-routed remote agent. Calls carry routing
// headers and a freshly minted service token instead of the caller's
// inherited credential.
type TeamDelegate struct {
	// ExternalAgent references an entry in Project.ExternalAgents
	// acting as the team gateway.
	ExternalAgent string `yaml:"external_agent" json:"externalAgent"`

	// DefaultSubAgent is the sub-agent the gateway routes to when the
	// envelope names none.
	DefaultSubAgent string `yaml:"default_sub_agent,omitempty" json:"defaultSubAgent,omitempty"`
}

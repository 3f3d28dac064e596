package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
tenant_id: acme
project_id: support
default_agent: router
agents:
  router:
    name: Router
    description: Routes customer requests
    prompt: You route requests to the right specialist.
    models:
      base:
        model: gpt-4o
        context_window: 128000
    transfer_relations: [billing]
    delegate_relations:
      - type: internal
        internal:
          agent: billing
  billing:
    prompt: You handle billing questions.
    models:
      base:
        model: gpt-4o-mini
    tools:
      - name: invoices
        server_url: https://mcp.example.com/invoices
        credential_reference_id: invoices-key
external_agents:
  partner:
    base_url: https://agents.partner.example.com
credential_references:
  invoices-key:
    store: memory
    key: INVOICES_API_KEY
artifact_components:
  - name: Order
    description: An order citation
    props:
      type: object
      properties:
        id:
          type: string
          inPreview: true
        total:
          type: number
`

func TestParse(t *testing.T) {
	project, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "acme", project.TenantID)
	assert.Equal(t, "support", project.ProjectID)
	assert.Equal(t, "router", project.DefaultAgent)
	assert.Len(t, project.Agents, 2)

	router := project.Agents["router"]
	require.NotNil(t, router)
	assert.Equal(t, "router", router.ID)
	assert.Equal(t, "Router", router.Name)
	assert.Equal(t, []string{"billing"}, router.TransferRelations)
	require.Len(t, router.DelegateRelations, 1)
	assert.Equal(t, DelegateInternal, router.DelegateRelations[0].Type)
	assert.Equal(t, "billing", router.DelegateRelations[0].Internal.Agent)

	billing := project.Agents["billing"]
	require.NotNil(t, billing)
	// Name defaults to id, history mode defaults to full.
	assert.Equal(t, "billing", billing.Name)
	assert.Equal(t, HistoryFull, billing.ConversationHistory.Mode)
	require.Len(t, billing.Tools, 1)
	assert.Equal(t, "invoices-key", billing.Tools[0].CredentialReferenceID)

	require.Len(t, project.ArtifactComponents, 1)
	assert.NotNil(t, project.ArtifactComponent("Order"))
	assert.Nil(t, project.ArtifactComponent("Missing"))
}

func TestParseEnvExpansion(t *testing.T) {
	t.Setenv("TEST_MODEL", "gpt-4o")

	yamlWithEnv := `
tenant_id: acme
project_id: p
agents:
  solo:
    prompt: hi
    models:
      base:
        model: ${TEST_MODEL}
`
	project, err := Parse([]byte(yamlWithEnv))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", project.Agents["solo"].Models.Base.Model)
	// Single agent becomes the default.
	assert.Equal(t, "solo", project.DefaultAgent)
}

func TestParseEnvDefault(t *testing.T) {
	assert.Equal(t, "fallback", expandEnvString("${UNSET_VAR_XYZ:-fallback}"))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Project)
		message string
	}{
		{
			name:    "missing_tenant",
			mutate:  func(p *Project) { p.TenantID = "" },
			message: "tenant_id is required",
		},
		{
			name:    "unknown_default_agent",
			mutate:  func(p *Project) { p.DefaultAgent = "ghost" },
			message: "default_agent",
		},
		{
			name: "dangling_transfer",
			mutate: func(p *Project) {
				p.Agents["router"].TransferRelations = []string{"ghost"}
			},
			message: "transfer target",
		},
		{
			name: "dangling_credential",
			mutate: func(p *Project) {
				delete(p.CredentialReferences, "invoices-key")
			},
			message: "credential reference",
		},
		{
			name: "delegate_to_self",
			mutate: func(p *Project) {
				p.Agents["router"].DelegateRelations = []DelegateTarget{{
					Type:     DelegateInternal,
					Internal: &InternalDelegate{Agent: "router"},
				}}
			},
			message: "delegate to itself",
		},
		{
			name: "missing_base_model",
			mutate: func(p *Project) {
				p.Agents["billing"].Models.Base = nil
			},
			message: "models.base.model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, err := Parse([]byte(sampleYAML))
			require.NoError(t, err)
			tt.mutate(project)
			err = project.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDelegateTargetValidate(t *testing.T) {
	valid := DelegateTarget{
		Type:     DelegateExternal,
		External: &ExternalDelegate{ExternalAgent: "partner"},
	}
	assert.NoError(t, valid.Validate())

	mismatched := DelegateTarget{
		Type:     DelegateInternal,
		External: &ExternalDelegate{ExternalAgent: "partner"},
	}
	assert.Error(t, mismatched.Validate())

	both := DelegateTarget{
		Type:     DelegateTeam,
		Team:     &TeamDelegate{ExternalAgent: "partner"},
		Internal: &InternalDelegate{Agent: "x"},
	}
	assert.Error(t, both.Validate())

	unknown := DelegateTarget{
		Type:     "sideways",
		Internal: &InternalDelegate{Agent: "x"},
	}
	assert.Error(t, unknown.Validate())
}

func TestModelSettingsFallbacks(t *testing.T) {
	base := &ModelConfig{Model: "base-model"}
	structured := &ModelConfig{Model: "structured-model"}

	withBoth := ModelSettings{Base: base, StructuredOutput: structured}
	assert.Equal(t, "structured-model", withBoth.ForStructuredOutput().Model)

	baseOnly := ModelSettings{Base: base}
	assert.Equal(t, "base-model", baseOnly.ForStructuredOutput().Model)
	assert.Equal(t, "base-model", baseOnly.ForSummarizer().Model)
}

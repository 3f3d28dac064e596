package auth

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const defaultTokenTTL = 5 * time.Minute

// TokenMinter mints short-lived service tokens for team delegation.
// A token is scoped to one (origin agent, target agent) pair so a
// credential handed to one agent cannot be replayed across a different
// agent boundary.
type TokenMinter interface {
	Mint(scope TokenScope) (string, error)
}

// TokenScope identifies the delegation a token is valid for.
type TokenScope struct {
	TenantID      string
	ProjectID     string
	OriginAgentID string
	TargetAgentID string
}

// HSMinter signs service tokens with a shared HS256 secret.
type HSMinter struct {
	issuer string
	secret []byte
	ttl    time.Duration
}

// NewHSMinter creates a minter. A zero ttl uses the default of five
// minutes.
func NewHSMinter(issuer string, secret []byte, ttl time.Duration) (*HSMinter, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret is required")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &HSMinter{issuer: issuer, secret: secret, ttl: ttl}, nil
}

// Mint builds and signs a token for the given scope.
func (m *HSMinter) Mint(scope TokenScope) (string, error) {
	if scope.OriginAgentID == "" || scope.TargetAgentID == "" {
		return "", fmt.Errorf("token scope requires origin and target agent ids")
	}

	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(m.issuer).
		Subject(scope.OriginAgentID).
		Audience([]string{scope.TargetAgentID}).
		IssuedAt(now).
		Expiration(now.Add(m.ttl)).
		Claim("tenant_id", scope.TenantID).
		Claim("project_id", scope.ProjectID).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build service token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, m.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}

	return string(signed), nil
}

// VerifyToken parses and validates a minted token, returning its scope.
// Used by receiving gateways and tests.
func VerifyToken(tokenString string, secret []byte) (TokenScope, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256, secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		return TokenScope{}, fmt.Errorf("invalid service token: %w", err)
	}

	scope := TokenScope{
		OriginAgentID: token.Subject(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		scope.TargetAgentID = aud[0]
	}
	if tenant, ok := token.Get("tenant_id"); ok {
		scope.TenantID, _ = tenant.(string)
	}
	if project, ok := token.Get("project_id"); ok {
		scope.ProjectID, _ = project.(string)
	}

	return scope, nil
}

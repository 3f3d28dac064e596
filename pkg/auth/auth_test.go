package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley/pkg/config"
)

func TestCredentialsAuthorizationHeader(t *testing.T) {
	assert.Equal(t, "", Credentials{}.AuthorizationHeader())
	assert.Equal(t, "Bearer key", Credentials{APIKey: "key"}.AuthorizationHeader())
	// A minted token always wins over the inherited key.
	assert.Equal(t, "Bearer tok", Credentials{APIKey: "key", ServiceToken: "tok"}.AuthorizationHeader())
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	store := NewMemoryStore()
	store.Set("INVOICES_API_KEY", "secret-value")

	resolver := NewResolver()
	resolver.Register("memory", store)

	secret, err := resolver.Resolve(ctx, &config.CredentialReference{
		ID:    "invoices-key",
		Store: "memory",
		Key:   "INVOICES_API_KEY",
	})
	require.NoError(t, err)
	assert.Equal(t, "secret-value", secret)

	_, err = resolver.Resolve(ctx, &config.CredentialReference{
		ID:    "bad",
		Store: "vault",
		Key:   "x",
	})
	assert.ErrorContains(t, err, "not registered")

	_, err = resolver.Resolve(ctx, &config.CredentialReference{
		ID:    "missing",
		Store: "memory",
		Key:   "NOPE",
	})
	assert.ErrorContains(t, err, "not found")

	_, err = resolver.Resolve(ctx, nil)
	assert.Error(t, err)
}

func TestEnvStore(t *testing.T) {
	t.Setenv("PARLEY_TEST_SECRET", "from-env")

	secret, err := EnvStore{}.Get(context.Background(), "PARLEY_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", secret)

	_, err = EnvStore{}.Get(context.Background(), "PARLEY_TEST_UNSET")
	assert.Error(t, err)
}

func TestHSMinterRoundTrip(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	minter, err := NewHSMinter("parley", secret, time.Minute)
	require.NoError(t, err)

	scope := TokenScope{
		TenantID:      "acme",
		ProjectID:     "support",
		OriginAgentID: "router",
		TargetAgentID: "billing",
	}
	token, err := minter.Mint(scope)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verified, err := VerifyToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, scope, verified)

	_, err = VerifyToken(token, []byte("wrong-secret-wrong-secret-wrong!"))
	assert.Error(t, err)
}

func TestHSMinterRequiresScope(t *testing.T) {
	minter, err := NewHSMinter("parley", []byte("secret"), 0)
	require.NoError(t, err)

	_, err = minter.Mint(TokenScope{OriginAgentID: "router"})
	assert.Error(t, err)

	_, err = NewHSMinter("parley", nil, 0)
	assert.Error(t, err)
}

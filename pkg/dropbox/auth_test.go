package dropbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenSource_StaticToken(t *testing.T) {
	source, err := NewTokenSource(context.Background(), Credentials{AccessToken: "static-token"})
	require.NoError(t, err)

	token, err := source.Token()
	require.NoError(t, err)
	assert.Equal(t, "static-token", token.AccessToken)

	// Static tokens never expire and are returned as-is on every call.
	again, err := source.Token()
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, again.AccessToken)
}

func TestNewTokenSource_MissingCredentials(t *testing.T) {
	_, err := NewTokenSource(context.Background(), Credentials{})
	assert.Error(t, err)
}

func TestNewTokenSource_RefreshRequiresAppCredentials(t *testing.T) {
	_, err := NewTokenSource(context.Background(), Credentials{RefreshToken: "refresh"})
	assert.Error(t, err)

	_, err = NewTokenSource(context.Background(), Credentials{
		RefreshToken: "refresh",
		AppKey:       "key",
		AppSecret:    "secret",
	})
	assert.NoError(t, err)
}

func TestConfig_SigningSecret(t *testing.T) {
	cfg := &Config{AppSecret: "app-secret"}
	assert.Equal(t, "app-secret", cfg.SigningSecret())

	cfg.WebhookSecret = "webhook-secret"
	assert.Equal(t, "webhook-secret", cfg.SigningSecret())
}

package client_test

import (
	"context"
	"testing"

	"github.com/habedi/apiclient/client"
	"github.com/habedi/apiclient/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTokens_RejectsIncompletePair(t *testing.T) {
	c := newTestClient(t, "http://localhost:1")
	ctx := context.Background()

	assert.ErrorIs(t, c.SetTokens(ctx, client.TokenResponse{AccessToken: "A1"}), client.ErrInvalidTokenPair)
	assert.ErrorIs(t, c.SetTokens(ctx, client.TokenResponse{RefreshToken: "R1"}), client.ErrInvalidTokenPair)

	assert.Nil(t, c.Tokens())
	_, found := storedTokens(t, c)
	assert.False(t, found)
}

func TestTokens_ReturnsCopy(t *testing.T) {
	c := newTestClient(t, "http://localhost:1")
	require.NoError(t, c.SetTokens(context.Background(), client.TokenResponse{AccessToken: "A1", RefreshToken: "R1"}))

	pair := c.Tokens()
	pair.AccessToken = "mutated"

	assert.Equal(t, "A1", c.AccessToken())
}

func TestRestoreTokens(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, storage.TokenKey, client.TokenResponse{AccessToken: "A1", RefreshToken: "R1"}))

	c, err := client.New(client.Options{BaseURL: "http://localhost:1", Store: store})
	require.NoError(t, err)

	restored, err := c.RestoreTokens(ctx)

	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, &client.TokenPair{AccessToken: "A1", RefreshToken: "R1"}, c.Tokens())
}

func TestRestoreTokens_NothingStored(t *testing.T) {
	c := newTestClient(t, "http://localhost:1")

	restored, err := c.RestoreTokens(context.Background())

	require.NoError(t, err)
	assert.False(t, restored)
	assert.Nil(t, c.Tokens())
}

func TestRestoreTokens_IncompletePairIgnored(t *testing.T) {
	c := newTestClient(t, "http://localhost:1")
	ctx := context.Background()
	require.NoError(t, c.Store().Save(ctx, storage.TokenKey, client.TokenResponse{AccessToken: "A1"}))

	restored, err := c.RestoreTokens(ctx)

	require.NoError(t, err)
	assert.False(t, restored)
}

func TestResetCredentials_KeepsUsername(t *testing.T) {
	c := newTestClient(t, "http://localhost:1")
	ctx := context.Background()
	require.NoError(t, c.Store().Save(ctx, storage.UsernameKey, "alice"))
	require.NoError(t, c.Store().Save(ctx, "profile", map[string]string{"plan": "pro"}))
	require.NoError(t, c.SetTokens(ctx, client.TokenResponse{AccessToken: "A1", RefreshToken: "R1"}))

	c.ResetCredentials(ctx)

	assert.Nil(t, c.Tokens())
	keys, err := c.Store().Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{storage.UsernameKey}, keys)
}

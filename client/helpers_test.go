package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/habedi/apiclient/client"
	"github.com/habedi/apiclient/storage"
	"github.com/stretchr/testify/require"
)

// mintToken returns a signed JWT expiring at exp. Only the claims matter to the client.
func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "user-1",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()
	c, err := client.New(client.Options{
		BaseURL:    baseURL,
		APIKey:     "key-123",
		TenantName: "acme",
		Headers:    map[string]string{"X-App-Version": "1.0.0"},
		Timeout:    5 * time.Second,
		Store:      storage.NewMemoryStore(),
	})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeTokens(w http.ResponseWriter, access, refresh string) {
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func storedTokens(t *testing.T, c *client.Client) (client.TokenResponse, bool) {
	t.Helper()
	var resp client.TokenResponse
	found, err := c.Store().Get(context.Background(), storage.TokenKey, &resp)
	require.NoError(t, err)
	return resp, found
}

func storedUsername(t *testing.T, c *client.Client) (string, bool) {
	t.Helper()
	var username string
	found, err := c.Store().Get(context.Background(), storage.UsernameKey, &username)
	require.NoError(t, err)
	return username, found
}

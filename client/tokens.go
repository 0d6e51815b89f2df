package client

import (
	"context"
	"fmt"

	"github.com/habedi/apiclient/storage"
	"github.com/rs/zerolog/log"
)

// TokenPair is the access and refresh token held by a Client. A pair is replaced
// as a whole, never mutated in place.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is the body returned by the token endpoint. It is also the value
// persisted under storage.TokenKey.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UUID         string `json:"uuid,omitempty"`
}

// Pair returns the token pair carried by the response.
func (r TokenResponse) Pair() TokenPair {
	return TokenPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

func (r TokenResponse) validate() error {
	if r.AccessToken == "" || r.RefreshToken == "" {
		return ErrInvalidTokenPair
	}
	return nil
}

// Tokens returns a copy of the held token pair, or nil when none is held.
func (c *Client) Tokens() *TokenPair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return nil
	}
	pair := *c.tokens
	return &pair
}

// AccessToken returns the held access token, or "" when none is held.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken
}

func (c *Client) setTokens(pair *TokenPair) {
	c.mu.Lock()
	c.tokens = pair
	c.mu.Unlock()
}

// SetTokens installs a token pair, for example one obtained by an external login
// flow, and persists it.
func (c *Client) SetTokens(ctx context.Context, resp TokenResponse) error {
	if err := resp.validate(); err != nil {
		return err
	}
	pair := resp.Pair()
	c.setTokens(&pair)

	if err := c.store.Save(ctx, storage.TokenKey, resp); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}
	log.Debug().Msg("Token pair installed")
	return nil
}

// RestoreTokens loads a previously persisted token pair into memory.
// It reports false when the store holds no usable pair.
func (c *Client) RestoreTokens(ctx context.Context) (bool, error) {
	var resp TokenResponse
	found, err := c.store.Get(ctx, storage.TokenKey, &resp)
	if err != nil {
		return false, fmt.Errorf("failed to read stored tokens: %w", err)
	}
	if !found {
		return false, nil
	}
	if err := resp.validate(); err != nil {
		log.Warn().Msg("Stored token pair is incomplete, ignoring it")
		return false, nil
	}
	pair := resp.Pair()
	c.setTokens(&pair)
	log.Debug().Msg("Token pair restored from storage")
	return true, nil
}

// ResetCredentials drops the held tokens and clears the store, keeping only the
// saved username. Storage failures are logged, not returned.
func (c *Client) ResetCredentials(ctx context.Context) {
	c.setTokens(nil)
	if err := storage.ClearExceptUsername(ctx, c.store); err != nil {
		log.Error().Err(err).Msg("Failed to clear stored credentials")
		return
	}
	log.Info().Msg("Credentials reset")
}

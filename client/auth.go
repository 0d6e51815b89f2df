package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/habedi/apiclient/auth"
	"github.com/habedi/apiclient/storage"
	"github.com/rs/zerolog/log"
)

const refreshKey = "refresh"

// RefreshAccessToken exchanges the held refresh token for a new token pair.
//
// Concurrent callers share a single refresh: only one token request is sent and every
// caller receives its outcome. A nil pair with a nil error means the refresh was declined
// because no unexpired refresh token was held; credentials are reset in that case.
// A failed refresh also resets credentials.
//
// Cancelling ctx stops this caller from waiting but does not cancel the shared refresh.
func (c *Client) RefreshAccessToken(ctx context.Context) (*TokenPair, error) {
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		return c.refreshTokens(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		pair, _ := res.Val.(*TokenPair)
		if res.Shared {
			log.Debug().Msg("Joined an in-flight token refresh")
		}
		return pair, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) refreshTokens(ctx context.Context) (*TokenPair, error) {
	current := c.Tokens()
	if current == nil || current.RefreshToken == "" {
		log.Info().Msg("No refresh token held, resetting credentials")
		c.ResetCredentials(ctx)
		return nil, nil
	}

	if auth.IsExpired(c.codec, current.RefreshToken, c.now()) {
		log.Info().Str("refresh_token", auth.Preview(current.RefreshToken)).Msg("Refresh token expired, resetting credentials")
		c.ResetCredentials(ctx)
		return nil, nil
	}

	return c.performTokenRefresh(ctx, current.RefreshToken)
}

// performTokenRefresh posts the refresh grant to the token endpoint. The request
// carries no Authorization header and is never itself refreshed.
func (c *Client) performTokenRefresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	st := &requestState{
		id:     uuid.NewString(),
		method: http.MethodPost,
		url:    c.resolveURL(c.tokenPath),
		body:   []byte(form.Encode()),
		header: http.Header{"Content-Type": {"application/x-www-form-urlencoded"}},
	}

	log.Info().Str("url", st.url).Msg("Refreshing access token")
	body, err := c.execute(ctx, st)
	if err != nil {
		c.ResetCredentials(ctx)
		return nil, fmt.Errorf("token refresh request failed: %w", err)
	}

	var resp TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.ResetCredentials(ctx)
		return nil, fmt.Errorf("failed to parse token refresh response: %w", err)
	}
	if err := resp.validate(); err != nil {
		c.ResetCredentials(ctx)
		return nil, err
	}

	pair := resp.Pair()
	c.setTokens(&pair)
	if err := c.store.Save(ctx, storage.TokenKey, resp); err != nil {
		log.Warn().Err(err).Msg("Failed to persist refreshed tokens")
	}

	log.Info().Msg("Token refreshed and saved successfully")
	return &pair, nil
}

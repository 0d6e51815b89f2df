package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/habedi/apiclient/pkg/validation"
	"github.com/habedi/apiclient/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Login authenticates with the password grant, installs the returned token pair and
// remembers the username.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if err := validation.ValidateNonEmptyString("username", username); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonEmptyString("password", password); err != nil {
		return nil, err
	}

	tokenURL := c.resolveURL(c.tokenPath)
	cfg := &oauth2.Config{
		ClientID: c.clientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.tokenHTTPClient())
	log.Info().Str("username", username).Str("url", tokenURL).Msg("Logging in")
	tok, err := cfg.PasswordCredentialsToken(tokenCtx, username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &HTTPError{
				Method:     http.MethodPost,
				URL:        tokenURL,
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       retrieveErr.Body,
			}
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}

	resp := TokenResponse{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if uuid, ok := tok.Extra("uuid").(string); ok {
		resp.UUID = uuid
	}
	if err := c.SetTokens(ctx, resp); err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, storage.UsernameKey, username); err != nil {
		log.Warn().Err(err).Msg("Failed to remember username")
	}

	log.Info().Str("username", username).Msg("Login successful")
	pair := resp.Pair()
	return &pair, nil
}

// Logout drops the held token pair and its persisted copy. The username is kept.
func (c *Client) Logout(ctx context.Context) error {
	c.setTokens(nil)
	if err := c.store.Remove(ctx, storage.TokenKey); err != nil {
		return fmt.Errorf("failed to remove stored tokens: %w", err)
	}
	log.Info().Msg("Logged out")
	return nil
}

// tokenHTTPClient returns an HTTP client for the oauth2 package that carries the
// client's static headers.
func (c *Client) tokenHTTPClient() *http.Client {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout:   c.http.Timeout,
		Transport: &staticHeaderTransport{base: base, header: c.headers},
	}
}

// staticHeaderTransport adds headers the request does not already set.
type staticHeaderTransport struct {
	base   http.RoundTripper
	header http.Header
}

func (t *staticHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, vs := range t.header {
		if _, ok := req.Header[k]; !ok {
			req.Header[k] = append([]string(nil), vs...)
		}
	}
	return t.base.RoundTrip(req)
}

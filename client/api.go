package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/habedi/apiclient/auth"
	"github.com/google/uuid"
	"github.com/habedi/apiclient/pkg/validation"
	"github.com/rs/zerolog/log"
)

// HeaderRequestID carries an ID that stays the same across a request and its retry.
const HeaderRequestID = "X-Request-ID"

// requestState is one logical request, kept across its original dispatch and its retry.
type requestState struct {
	id     string
	method string
	url    string
	body   []byte
	header http.Header
	query  url.Values

	// authorization is the Authorization value sent on the latest dispatch.
	authorization string
	retried       bool
}

// RequestOption customizes a single request.
type RequestOption func(*requestState)

// WithHeader sets a header on one request, overriding the client's defaults.
func WithHeader(key, value string) RequestOption {
	return func(st *requestState) {
		st.header.Set(key, value)
	}
}

// WithQuery adds query parameters to one request.
func WithQuery(query url.Values) RequestOption {
	return func(st *requestState) {
		for k, vs := range query {
			for _, v := range vs {
				st.query.Add(k, v)
			}
		}
	}
}

// Get performs a GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Post performs a POST request and returns the response body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

// Put performs a PUT request and returns the response body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

// Delete performs a DELETE request and returns the response body.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// Do sends a request to path, relative to the base URL.
//
// body may be nil, []byte, string, json.RawMessage, url.Values (sent form-encoded),
// an io.Reader, or any value that encodes to JSON.
//
// If the server answers 401 to a request that carried a bearer token, the token pair
// is refreshed and the request is retried once. When the refresh is declined or fails
// the original 401 is returned as an *HTTPError.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) ([]byte, error) {
	if err := validation.ValidateMethod(method); err != nil {
		return nil, err
	}
	if err := validation.ValidateEndpointPath(path); err != nil {
		return nil, err
	}

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	st := &requestState{
		id:     uuid.NewString(),
		method: method,
		url:    c.resolveURL(path),
		body:   payload,
		header: make(http.Header),
		query:  make(url.Values),
	}
	if contentType != "" {
		st.header.Set("Content-Type", contentType)
	}
	for _, opt := range opts {
		opt(st)
	}
	if len(st.query) > 0 {
		sep := "?"
		if strings.Contains(st.url, "?") {
			sep = "&"
		}
		st.url += sep + st.query.Encode()
	}

	return c.dispatch(ctx, st)
}

// dispatch sends the request and runs the refresh-and-retry path on an eligible 401.
func (c *Client) dispatch(ctx context.Context, st *requestState) ([]byte, error) {
	c.authorize(st)

	body, err := c.execute(ctx, st)
	if err == nil {
		return body, nil
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || !shouldAttemptTokenRefresh(st, httpErr) {
		return nil, err
	}
	return c.attemptTokenRefresh(ctx, st, httpErr)
}

// authorize attaches the held access token, if any.
func (c *Client) authorize(st *requestState) {
	if token := c.AccessToken(); token != "" {
		st.header.Set("Authorization", auth.BearerValue(token))
	}
	st.authorization = st.header.Get("Authorization")
}

func shouldAttemptTokenRefresh(st *requestState, httpErr *HTTPError) bool {
	return httpErr.StatusCode == http.StatusUnauthorized && st.authorization != "" && !st.retried
}

// attemptTokenRefresh refreshes the token pair and retries st exactly once.
func (c *Client) attemptTokenRefresh(ctx context.Context, st *requestState, original *HTTPError) ([]byte, error) {
	st.retried = true

	// Another request already rotated the token after this one was sent.
	if held := c.AccessToken(); held != "" && auth.BearerValue(held) != st.authorization {
		log.Debug().Str("request_id", st.id).Str("url", st.url).Msg("Access token changed while request was in flight, retrying with current token")
		c.authorize(st)
		return c.execute(ctx, st)
	}

	pair, err := c.RefreshAccessToken(ctx)
	if err != nil {
		log.Warn().Err(err).Str("request_id", st.id).Str("method", st.method).Str("url", st.url).Msg("Token refresh failed")
		original.RefreshErr = err
		return nil, original
	}
	if pair == nil {
		log.Info().Str("request_id", st.id).Str("method", st.method).Str("url", st.url).Msg("Token refresh declined, returning original response")
		original.RefreshErr = ErrRefreshDeclined
		return nil, original
	}

	st.header.Set("Authorization", auth.BearerValue(pair.AccessToken))
	st.authorization = st.header.Get("Authorization")
	log.Debug().Str("request_id", st.id).Str("method", st.method).Str("url", st.url).Msg("Retrying request with refreshed token")
	return c.execute(ctx, st)
}

// execute performs one HTTP exchange for st and checks the status.
func (c *Client) execute(ctx context.Context, st *requestState) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Method: st.method, URL: st.url, Err: err}
	}

	req, err := c.createRequest(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	log.Debug().Str("request_id", st.id).Str("method", st.method).Str("url", st.url).Msg("Sending HTTP request")
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("request_id", st.id).Str("method", st.method).Str("url", st.url).Msg("HTTP request failed")
		return nil, &NetworkError{Method: st.method, URL: st.url, Err: err}
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, &NetworkError{Method: st.method, URL: st.url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Str("request_id", st.id).Str("method", st.method).Str("url", st.url).Int("status", resp.StatusCode).
			Str("body", truncate(string(body), 200)).Msg("HTTP request returned non-OK status")
		return nil, &HTTPError{Method: st.method, URL: st.url, StatusCode: resp.StatusCode, Body: body}
	}

	log.Debug().Str("method", st.method).Str("url", st.url).Int("status", resp.StatusCode).Msg("HTTP request successful")
	return body, nil
}

// createRequest builds an *http.Request from the client defaults and st.
func (c *Client) createRequest(ctx context.Context, st *requestState) (*http.Request, error) {
	var body io.Reader
	if st.body != nil {
		body = bytes.NewReader(st.body)
	}
	req, err := http.NewRequestWithContext(ctx, st.method, st.url, body)
	if err != nil {
		log.Error().Err(err).Str("method", st.method).Str("url", st.url).Msg("Failed to create HTTP request object")
		return nil, err
	}
	for k, vs := range c.headers {
		req.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range st.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	if st.id != "" && req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, st.id)
	}
	return req, nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("url", resp.Request.URL.String()).Msg("Failed to read response body")
		return nil, err
	}
	return body, nil
}

// encodeBody turns a request body into bytes so it can be sent more than once.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "", nil
	case json.RawMessage:
		return b, "", nil
	case string:
		return []byte(b), "", nil
	case url.Values:
		return []byte(b.Encode()), "application/x-www-form-urlencoded", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		return data, "", err
	default:
		data, err := json.Marshal(b)
		return data, "", err
	}
}

package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/habedi/apiclient/client"
	"github.com/habedi/apiclient/pkg/clierr"
)

// apiError maps a client error to a user-facing CLI error.
func apiError(action string, err error) error {
	var httpErr *client.HTTPError
	var netErr *client.NetworkError

	switch {
	case errors.As(err, &httpErr):
		msg := fmt.Sprintf("%s: server returned %d: %s", action, httpErr.StatusCode, client.ExtractErrorMessage(httpErr.Body))
		if httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden {
			return clierr.New(clierr.Auth, msg+". Please run 'apiclient login'.", err)
		}
		return clierr.New(clierr.Network, msg, err)
	case errors.As(err, &netErr):
		return clierr.New(clierr.Network, fmt.Sprintf("%s: could not reach %s", action, netErr.URL), err)
	default:
		return clierr.New(clierr.Internal, fmt.Sprintf("%s: %v", action, err), err)
	}
}

// describeResult returns a short table cell for the outcome of one request.
func describeResult(err error) string {
	var httpErr *client.HTTPError
	var netErr *client.NetworkError

	switch {
	case err == nil:
		return "OK"
	case errors.As(err, &httpErr):
		return fmt.Sprintf("%d %s", httpErr.StatusCode, http.StatusText(httpErr.StatusCode))
	case errors.As(err, &netErr):
		return "network error"
	default:
		return err.Error()
	}
}

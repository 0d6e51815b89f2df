package validation

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	MinWorkers = 1
	MaxWorkers = 20
)

var supportedMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
}

func ValidateWorkerCount(workers int) error {
	if workers < MinWorkers || workers > MaxWorkers {
		return fmt.Errorf("worker count must be between %d and %d, got %d", MinWorkers, MaxWorkers, workers)
	}
	return nil
}

func ValidateMethod(method string) error {
	if !supportedMethods[method] {
		return fmt.Errorf("unsupported HTTP method: %q (must be one of: GET, POST, PUT, DELETE)", method)
	}
	return nil
}

// ValidateEndpointPath accepts a relative endpoint such as "/orders?page=2".
func ValidateEndpointPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("endpoint path cannot be empty")
	}
	u, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("invalid endpoint path %q: %w", path, err)
	}
	if u.Scheme != "" || u.Host != "" {
		return fmt.Errorf("endpoint path must be relative, got %q", path)
	}
	return nil
}

func ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL has no host: %q", raw)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Well-known keys.
const (
	TokenKey    = "token"
	UsernameKey = "username"
)

// CredentialStore defines the contract for an async key/value store of JSON-encoded values.
type CredentialStore interface {
	// Get decodes the value stored under key into dst. It reports false if the key is absent.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
}

// ClearExceptUsername clears the store but keeps the saved username so a login
// form can be pre-filled after credentials are reset.
func ClearExceptUsername(ctx context.Context, s CredentialStore) error {
	var username json.RawMessage
	found, err := s.Get(ctx, UsernameKey, &username)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read username before clearing storage")
		found = false
	}

	if err := s.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}

	if found {
		if err := s.Save(ctx, UsernameKey, username); err != nil {
			return fmt.Errorf("failed to restore username: %w", err)
		}
	}
	return nil
}

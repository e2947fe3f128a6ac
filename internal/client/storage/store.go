package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys of the flat namespace shared by the session and locale state.
const (
	KeyToken    = "token"
	KeyUser     = "user"
	KeyLanguage = "language"
)

// Store is one substrate. Read reports ok=false for a missing key; errors
// are only returned when the substrate itself fails.
type Store interface {
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Write(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// ReadJSON decodes the value stored under key into v. A value that does not
// decode is removed and reported as absent.
func ReadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Read(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		if rmErr := s.Remove(ctx, key); rmErr != nil {
			return false, rmErr
		}
		return false, nil
	}
	return true, nil
}

// WriteJSON stores v serialized as JSON.
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Write(ctx, key, string(b))
}

// RemoveAll removes every key, stopping at the first failure.
func RemoveAll(ctx context.Context, s Store, keys ...string) error {
	for _, k := range keys {
		if err := s.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

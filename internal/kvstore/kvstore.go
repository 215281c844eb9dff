package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no value exists under the key.
var ErrNotFound = errors.New("kvstore: key not found")

// Store persists opaque JSON blobs by string key. It is the durable
// backing layer under the cart/wishlist store; the caller decides how to
// react to failures (the store layer swallows them, keeping its in-memory
// state authoritative for the rest of the session).
type Store interface {
	// Load returns the value stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save overwrites the value stored under key.
	Save(ctx context.Context, key string, value []byte) error

	// Remove deletes the key. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error
}

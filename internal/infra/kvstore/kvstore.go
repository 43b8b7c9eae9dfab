// Package kvstore provides the string-keyed, JSON-valued persistence the
// game state outlives sessions in: ranked score lists and unlock levels.
package kvstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no value is stored under the key.
// Absence of a key is a valid default state for every consumer.
var ErrKeyNotFound = errors.New("kvstore: key not found")

// Store is a minimal key-value contract. Values are opaque JSON documents;
// Set overwrites atomically.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

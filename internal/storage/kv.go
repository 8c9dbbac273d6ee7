// Package storage is the key-value port the local store persists through.
package storage

import "context"

// KV is a flat string-keyed byte store. Implementations must be safe for
// concurrent use; they do not provide read-modify-write atomicity.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

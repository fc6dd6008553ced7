// Package kvstore defines the durable key-value contract the task store
// persists its snapshot through. Backends live in subpackages.
package kvstore

import "context"

// Store is a string-keyed byte store. Set overwrites the whole value.
type Store interface {
	// Get returns the value stored under key. found is false when the key
	// has never been written; that is not an error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Package kvstore implements the namespaced key/value configuration store
// and the backends it can run on.
package kvstore

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by a backend that has run out of space
var ErrQuotaExceeded = errors.New("kvstore: quota exceeded")

// Backend is the raw key/value storage under a Store.
// Keys passed to a backend already carry the namespace prefix.
type Backend interface {
	// Get returns the stored text and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Keys lists every key starting with prefix, in no particular order
	Keys(ctx context.Context, prefix string) ([]string, error)
}

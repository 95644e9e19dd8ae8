// Package storage defines the key-value persistence adapter used to mirror
// session ledgers.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a string key-value store without transactions.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Lister is implemented by stores that can enumerate keys with a prefix.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

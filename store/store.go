// Package store defines the persistence contract for rentbook.
//
// State lives in a key-value store under two keys, "tenants" and
// "rentEntries", each holding a JSON array. Backends only move bytes;
// the Repository owns decoding, and serializes every read-modify-write.
package store

import (
	"context"
	"errors"
)

// Persisted collection keys.
const (
	KeyTenants = "tenants"
	KeyEntries = "rentEntries"
)

var (
	// ErrKeyNotFound is returned by Get for a key that was never written.
	ErrKeyNotFound = errors.New("rentbook/store: key not found")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("rentbook/store: store is closed")
)

// Store is the key-value contract every backend implements.
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Keys lists every stored key.
	Keys(ctx context.Context) ([]string, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Batcher is implemented by backends that can write several keys as one
// atomic unit.
type Batcher interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// Package store is the generic persistence substrate: a namespaced key/value
// document store holding serialized records. Sessions, persistent memory,
// preferences, and registry entries all live here.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists for the key.
var ErrNotFound = errors.New("document not found")

// Record is one stored document with its write timestamp.
type Record struct {
	Key         string
	Value       []byte
	UpdatedAtMS int64
}

// Store is the document storage boundary. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	List(ctx context.Context, namespace string) ([]Record, error)
	Close() error
}

// Well-known namespaces used by the orchestrator.
const (
	NamespaceSessions    = "sessions"
	NamespaceMemory      = "memory"
	NamespacePreferences = "preferences"
	NamespaceRegistry    = "registry"
)

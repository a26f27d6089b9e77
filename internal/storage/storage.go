// Package storage provides key/value backends for persisted layouts and
// saved sessions.
//
// Backends:
//   - memory: process-local map, used in tests and ephemeral deployments
//   - file: one zstd-compressed file per key, written atomically
//   - sqlite: a single kv table in a WAL-mode database
//
// All backends return ErrNotFound for missing keys and are safe for
// concurrent use.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound   = errors.New("storage: key not found")
	ErrInvalidKey = errors.New("storage: invalid key")
	ErrClosed     = errors.New("storage: backend closed")
)

// Backend stores opaque values by key
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys with the given prefix in ascending order
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Kind names a backend implementation
type Kind string

const (
	KindMemory Kind = "memory"
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
)

const maxKeyLength = 512

// ValidateKey rejects keys that cannot be stored by every backend
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyLength)
	}
	if strings.ContainsAny(key, "\x00/\\") {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidKey, key)
	}
	if key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Open creates the backend named by kind. path is ignored for memory.
func Open(ctx context.Context, kind Kind, path string) (Backend, error) {
	switch kind {
	case KindMemory, "":
		return NewMemory(), nil
	case KindFile:
		return OpenFile(path)
	case KindSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", kind)
	}
}

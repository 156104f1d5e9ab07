// Package storage holds the object stores used for uploaded blog images.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrInvalidKey is returned for keys that would escape the store's namespace.
var ErrInvalidKey = errors.New("storage: invalid object key")

// Object describes a blob handed to a store.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// validKey rejects empty keys, absolute keys and path traversal.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// joinURL appends key to a public base URL.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// KeyForURL returns the key that s serves at u. It reports false for URLs
// that do not belong to s.
func KeyForURL(s Store, u string) (string, bool) {
	key, ok := strings.CutPrefix(u, s.URL(""))
	if !ok || !validKey(key) {
		return "", false
	}
	return key, true
}

// Store is implemented by every backend.
type Store interface {
	Put(ctx context.Context, obj Object) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

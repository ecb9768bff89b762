package snapshot

import (
	"context"
	"errors"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when a snapshot does not exist.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrInvalidKey is returned for keys that are empty, absolute or
	// escape the store root.
	ErrInvalidKey = errors.New("snapshot: invalid key")
)

// ContentType is the media type of stored snapshots.
const ContentType = "text/html; charset=utf-8"

// Store persists snapshots by key.
type Store interface {
	Save(ctx context.Context, key string, html []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// cleanKey validates key and returns its canonical slash-separated form.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

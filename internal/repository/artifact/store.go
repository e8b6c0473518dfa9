// Package artifact stores binary outputs (exported PDFs, full-resolution
// uploads) outside the session, keyed by session and filename.
package artifact

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("artifact: not found")

// Store is the capability the export and upload handlers consume.
type Store interface {
	Put(ctx context.Context, sessionID, name, contentType string, content []byte) error
	Get(ctx context.Context, sessionID, name string) ([]byte, error)
	List(ctx context.Context, sessionID string) ([]string, error)
	// URL returns a time-limited download link, or "" when the backend
	// cannot mint one (callers then stream the bytes themselves).
	URL(ctx context.Context, sessionID, name string) (string, error)
}

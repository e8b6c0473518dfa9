// Package savedproject persists named projects across sessions, with a
// retention window for non-favorites and pluggable storage backends.
package savedproject

import (
	"time"

	"github.com/google/uuid"

	"roomcraft/internal/snapshot"
)

// Record is one saved project. Images inside Snapshot are stored as
// size-reduced re-encodings; Thumbnail is a small preview for list views.
type Record struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	SavedAt   time.Time                `json:"saved_at"`
	Favorite  bool                     `json:"favorite"`
	Snapshot  snapshot.ProjectSnapshot `json:"snapshot"`
	Thumbnail snapshot.ImageRef        `json:"thumbnail,omitempty"`
}

func newID() string { return uuid.NewString() }

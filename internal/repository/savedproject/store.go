package savedproject

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"roomcraft/internal/media"
	"roomcraft/internal/snapshot"
)

var (
	// ErrQuotaExceeded means the backend rejected the write for capacity
	// reasons. Recoverable: the user can delete projects and retry.
	ErrQuotaExceeded = errors.New("savedproject: storage quota exceeded")
	ErrNotFound      = errors.New("savedproject: record not found")
)

// DefaultRetention is how long a non-favorited project survives.
const DefaultRetention = 20 * 24 * time.Hour

// Stored image bounds.
const (
	storedImageDim   = 1024
	storedImageQual  = 75
	thumbnailDim     = 240
	defaultNameRunes = 40
)

// Backend reads and rewrites the full record list. Eviction, deletion,
// and clear-all are all expressed as a rewrite.
type Backend interface {
	Load(ctx context.Context) ([]Record, error)
	Persist(ctx context.Context, records []Record) error
	Close() error
}

// Store is the persistence facade the handlers talk to.
type Store struct {
	mu        sync.Mutex
	backend   Backend
	retention time.Duration
	now       func() time.Time
}

type Option func(*Store)

// WithRetention overrides the eviction window.
func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

// WithClock injects the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error { return s.backend.Close() }

// Save re-encodes the snapshot's images at bounded dimensions, derives a
// thumbnail, and appends a fresh record.
func (s *Store) Save(ctx context.Context, name string, snap snapshot.ProjectSnapshot) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reduced := reduceImages(snap)
	rec := Record{
		ID:        newID(),
		Name:      deriveName(name, snap),
		SavedAt:   s.now(),
		Snapshot:  reduced,
		Thumbnail: thumbnailFor(reduced),
	}

	records, err := s.backend.Load(ctx)
	if err != nil {
		return Record{}, err
	}
	records = append(records, rec)
	if err := s.backend.Persist(ctx, records); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// LoadAll returns saved projects newest first, evicting non-favorites
// older than the retention window. An eviction rewrites the store.
func (s *Store) LoadAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadEvicted(ctx)
}

func (s *Store) loadEvicted(ctx context.Context) ([]Record, error) {
	records, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-s.retention)
	kept := records[:0]
	evicted := 0
	for _, r := range records {
		if !r.Favorite && r.SavedAt.Before(cutoff) {
			evicted++
			continue
		}
		kept = append(kept, r)
	}
	if evicted > 0 {
		if err := s.backend.Persist(ctx, kept); err != nil {
			return nil, err
		}
		log.Printf("savedproject: evicted %d expired records", evicted)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].SavedAt.After(kept[j].SavedAt) })
	return kept, nil
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.loadEvicted(ctx)
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

// SetFavorite flips the flag, which also exempts the record from
// retention eviction.
func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.backend.Load(ctx)
	if err != nil {
		return Record{}, err
	}
	for i := range records {
		if records[i].ID != id {
			continue
		}
		records[i].Favorite = favorite
		if err := s.backend.Persist(ctx, records); err != nil {
			return Record{}, err
		}
		return records[i], nil
	}
	return Record{}, ErrNotFound
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}
	kept := records[:0]
	found := false
	for _, r := range records {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return ErrNotFound
	}
	return s.backend.Persist(ctx, kept)
}

func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Persist(ctx, nil)
}

// reduceImages re-encodes every image field at bounded dimensions. An
// image that fails to decode is kept as-is rather than losing the save.
func reduceImages(snap snapshot.ProjectSnapshot) snapshot.ProjectSnapshot {
	out := snap.Clone()
	out.SourceImage = reduceOne(out.SourceImage)
	for i, img := range out.GeneratedImages {
		out.GeneratedImages[i] = reduceOne(img)
	}
	return out
}

func reduceOne(ref snapshot.ImageRef) snapshot.ImageRef {
	if ref.IsZero() {
		return ref
	}
	reduced, err := media.Downsample(ref, storedImageDim, storedImageQual)
	if err != nil {
		log.Printf("savedproject: downsample failed, keeping original: %v", err)
		return ref
	}
	return reduced
}

// thumbnailFor prefers the selected render, then the source photo.
func thumbnailFor(snap snapshot.ProjectSnapshot) snapshot.ImageRef {
	src := snap.SourceImage
	if sel, ok := snap.Selected(); ok {
		src = sel
	} else if len(snap.GeneratedImages) > 0 {
		src = snap.GeneratedImages[0]
	}
	if src.IsZero() {
		return snapshot.ImageRef{}
	}
	thumb, err := media.Thumbnail(src, thumbnailDim)
	if err != nil {
		log.Printf("savedproject: thumbnail failed: %v", err)
		return snapshot.ImageRef{}
	}
	return thumb
}

// deriveName falls back to the prompt's leading runes, then a default.
func deriveName(name string, snap snapshot.ProjectSnapshot) string {
	name = strings.TrimSpace(name)
	if name != "" {
		return name
	}
	prompt := strings.TrimSpace(snap.Prompt)
	if prompt == "" {
		return "Untitled project"
	}
	runes := []rune(prompt)
	if len(runes) <= defaultNameRunes {
		return prompt
	}
	cut := defaultNameRunes
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = defaultNameRunes
	}
	return strings.TrimSpace(string(runes[:cut]))
}

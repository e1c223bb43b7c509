package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tamgu/internal/core"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDuplicateID      = errors.New("document id already exists")
)

// DocumentStore holds the saved worksheets, newest first. The whole collection
// is loaded once on Open and rewritten on every change.
//
// If the persisted payload cannot be read or a write fails, the store becomes
// degraded: it keeps working in memory and never writes again, so an unreadable
// payload is not overwritten.
type DocumentStore struct {
	mu       sync.Mutex
	backend  Backend
	key      string
	docs     []core.SavedDocument
	degraded bool
	logger   *slog.Logger
}

// Open loads the collection stored under key. A missing key is an empty
// collection. Load failures do not fail Open; they put the store in degraded mode.
func Open(ctx context.Context, backend Backend, key string, logger *slog.Logger) (*DocumentStore, error) {
	if backend == nil {
		return nil, errors.New("store backend is required")
	}
	if key == "" {
		return nil, errors.New("storage key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &DocumentStore{
		backend: backend,
		key:     key,
		docs:    []core.SavedDocument{},
		logger:  logger,
	}
	s.load(ctx)
	return s, nil
}

func (s *DocumentStore) load(ctx context.Context) {
	data, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return
	}
	if err != nil {
		s.degrade("failed to read saved documents", err)
		return
	}
	if len(data) == 0 {
		return
	}

	var docs []core.SavedDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		s.degrade("saved documents are corrupt", err)
		return
	}
	if docs != nil {
		s.docs = docs
	}
	s.logger.Info("Loaded saved documents", "key", s.key, "count", len(s.docs))
}

// degrade must be called with mu held or before the store is shared.
func (s *DocumentStore) degrade(msg string, err error) {
	if !s.degraded {
		s.logger.Error(msg+"; keeping documents in memory only", "key", s.key, "error", err.Error())
	}
	s.degraded = true
}

// Degraded reports whether the store has stopped persisting.
func (s *DocumentStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// List returns a copy of all documents, newest first.
func (s *DocumentStore) List() []core.SavedDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SavedDocument, len(s.docs))
	copy(out, s.docs)
	return out
}

// Len returns the number of saved documents.
func (s *DocumentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Get returns the document with id.
func (s *DocumentStore) Get(id int64) (core.SavedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return core.SavedDocument{}, fmt.Errorf("%w: %d", ErrDocumentNotFound, id)
}

// NextID returns a timestamp-derived ID that is strictly greater than the
// newest stored ID, even when the clock has not advanced.
func (s *DocumentStore) NextID(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID(now)
}

func (s *DocumentStore) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	for _, d := range s.docs {
		if d.ID >= id {
			id = d.ID + 1
		}
	}
	return id
}

// Save prepends doc and persists the collection. A zero ID is assigned from
// the current time.
func (s *DocumentStore) Save(ctx context.Context, doc core.SavedDocument) (core.SavedDocument, error) {
	return s.SaveAt(ctx, doc, time.Now())
}

// SaveAt is Save with an explicit clock. A zero ID is assigned from now in the
// same critical section as the insert, so concurrent saves never collide.
func (s *DocumentStore) SaveAt(ctx context.Context, doc core.SavedDocument, now time.Time) (core.SavedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == 0 {
		doc.ID = s.nextID(now)
	}
	for _, d := range s.docs {
		if d.ID == doc.ID {
			return core.SavedDocument{}, fmt.Errorf("%w: %d", ErrDuplicateID, doc.ID)
		}
	}

	next := make([]core.SavedDocument, 0, len(s.docs)+1)
	next = append(next, doc)
	next = append(next, s.docs...)
	s.docs = next

	s.persist(ctx)
	s.logger.Info("Saved document", "id", doc.ID, "title", doc.ArticleTitle, "count", len(s.docs))
	return doc, nil
}

// Delete removes the document with id and persists the collection. An unknown
// id leaves storage untouched.
func (s *DocumentStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, d := range s.docs {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrDocumentNotFound, id)
	}

	next := make([]core.SavedDocument, 0, len(s.docs)-1)
	next = append(next, s.docs[:idx]...)
	next = append(next, s.docs[idx+1:]...)
	s.docs = next

	s.persist(ctx)
	s.logger.Info("Deleted document", "id", id, "count", len(s.docs))
	return nil
}

// persist writes the full collection. Must be called with mu held.
func (s *DocumentStore) persist(ctx context.Context) {
	if s.degraded {
		return
	}
	data, err := json.Marshal(s.docs)
	if err != nil {
		s.degrade("failed to encode saved documents", err)
		return
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		s.degrade("failed to write saved documents", err)
	}
}

// Close releases the backend.
func (s *DocumentStore) Close() error {
	return s.backend.Close()
}

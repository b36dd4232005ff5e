package notes

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNoteNotFound is returned by a Store when no note has the given id.
var ErrNoteNotFound = errors.New("note not found")

// Store persists notes. It performs no ownership checks; callers go through
// OwnershipGuard first.
type Store interface {
	GetNote(ctx context.Context, id string) (*Note, error)
	ListNotesByUser(ctx context.Context, userID string) ([]Note, error)
	CreateNote(ctx context.Context, note *Note) (*Note, error)
	UpdateNote(ctx context.Context, id string, update NoteUpdate) (*Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// MemoryStore keeps notes in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	notes map[string]*Note
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notes: make(map[string]*Note)}
}

func (s *MemoryStore) GetNote(ctx context.Context, id string) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}
	out := *n
	return &out, nil
}

// ListNotesByUser returns the notes owned by userID, oldest first.
func (s *MemoryStore) ListNotesByUser(ctx context.Context, userID string) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Note, 0)
	for _, n := range s.notes {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CreateNote(ctx context.Context, note *Note) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *note
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.notes[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *MemoryStore) UpdateNote(ctx context.Context, id string, update NoteUpdate) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}
	update.apply(n)
	out := *n
	return &out, nil
}

func (s *MemoryStore) DeleteNote(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return ErrNoteNotFound
	}
	delete(s.notes, id)
	return nil
}

package notes

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/user/notebook-go/apperror"
	"github.com/user/notebook-go/auth"
	"github.com/user/notebook-go/validation"
)

// Service implements the note operations for an authenticated caller.
type Service struct {
	store Store
	guard *OwnershipGuard
}

// NewService creates a Service. Mutations are checked by guard.
func NewService(store Store, guard *OwnershipGuard) *Service {
	return &Service{store: store, guard: guard}
}

// List returns the caller's notes.
func (s *Service) List(ctx context.Context, identity *auth.Identity) ([]Note, error) {
	notes, err := s.store.ListNotesByUser(ctx, identity.UserID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list notes", err)
	}
	return notes, nil
}

// Create stores a new note owned by the caller.
func (s *Service) Create(ctx context.Context, identity *auth.Identity, req CreateNoteRequest) (*Note, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		tag = DefaultTag
	}

	note, err := s.store.CreateNote(ctx, &Note{
		ID:          uuid.NewString(),
		UserID:      identity.UserID,
		Title:       req.Title,
		Description: req.Description,
		Tag:         tag,
	})
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create note", err)
	}
	return note, nil
}

// Update overwrites the non-empty fields of req on a note the caller owns.
func (s *Service) Update(ctx context.Context, identity *auth.Identity, noteID string, req UpdateNoteRequest) (*Note, error) {
	current, err := s.guard.Check(ctx, identity, noteID, OpUpdate)
	if err != nil {
		return nil, err
	}

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	update := req.toUpdate()
	if update.IsEmpty() {
		return current, nil
	}

	note, err := s.store.UpdateNote(ctx, noteID, update)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return nil, apperror.NewNotFoundError("Note not found", err)
		}
		return nil, apperror.NewDatabaseError("failed to update note", err)
	}
	return note, nil
}

// Delete removes a note the caller owns and returns what was deleted.
func (s *Service) Delete(ctx context.Context, identity *auth.Identity, noteID string) (*Note, error) {
	note, err := s.guard.Check(ctx, identity, noteID, OpDelete)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteNote(ctx, noteID); err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return nil, apperror.NewNotFoundError("Note not found", err)
		}
		return nil, apperror.NewDatabaseError("failed to delete note", err)
	}
	return note, nil
}

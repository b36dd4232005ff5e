// Package notes implements personal notes: every note has exactly one owner,
// lists are filtered by owner in the store query, and every mutation passes
// the OwnershipGuard before it touches the store.
package notes

import "time"

// DefaultTag is stored when a note is created without a tag.
const DefaultTag = "General"

// Note is a single user note.
type Note struct {
	ID          string    `json:"id" example:"3a4d1c2e-9f7b-4e0a-8c55-0d7f1b2a3c4d"`
	UserID      string    `json:"user_id" example:"8f14e45f-ceea-4e7a-9c8b-1d1c2d0e5a77"`
	Title       string    `json:"title" example:"Groceries"`
	Description string    `json:"description" example:"Milk, eggs, bread"`
	Tag         string    `json:"tag" example:"General"`
	CreatedAt   time.Time `json:"created_at" example:"2026-01-15T10:30:00Z"`
}

// CreateNoteRequest is the body of POST /notes/create.
type CreateNoteRequest struct {
	Title       string `json:"title" validate:"notblank" example:"Groceries"`
	Description string `json:"description" validate:"min=5" example:"Milk, eggs, bread"`
	Tag         string `json:"tag" example:"Personal"`
}

// UpdateNoteRequest is the body of PUT /notes/update/{id}. Empty fields are
// left unchanged; fields that are present are validated like on create.
type UpdateNoteRequest struct {
	Title       string `json:"title" validate:"omitempty,notblank" example:"Groceries"`
	Description string `json:"description" validate:"omitempty,min=5" example:"Milk, eggs, bread, butter"`
	Tag         string `json:"tag" example:"Personal"`
}

// DeleteNoteResponse is returned by DELETE /notes/delete/{id}.
type DeleteNoteResponse struct {
	Message string `json:"message" example:"Note has been deleted"`
	Note    *Note  `json:"note"`
}

// NoteUpdate carries the fields to overwrite; nil means unchanged.
type NoteUpdate struct {
	Title       *string
	Description *string
	Tag         *string
}

// IsEmpty reports whether u changes nothing.
func (u NoteUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Tag == nil
}

func (u NoteUpdate) apply(n *Note) {
	if u.Title != nil {
		n.Title = *u.Title
	}
	if u.Description != nil {
		n.Description = *u.Description
	}
	if u.Tag != nil {
		n.Tag = *u.Tag
	}
}

// toUpdate keeps only the non-empty fields of req.
func (req UpdateNoteRequest) toUpdate() NoteUpdate {
	var u NoteUpdate
	if req.Title != "" {
		u.Title = &req.Title
	}
	if req.Description != "" {
		u.Description = &req.Description
	}
	if req.Tag != "" {
		u.Tag = &req.Tag
	}
	return u
}

package notes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/notebook-go/apperror"
	"github.com/user/notebook-go/auth"
)

// NoteHandler handles HTTP requests for notes.
type NoteHandler struct {
	service *Service
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(service *Service) *NoteHandler {
	return &NoteHandler{service: service}
}

// RegisterRoutes registers the note routes on router, which must already be
// behind the token middleware.
func (h *NoteHandler) RegisterRoutes(router chi.Router) {
	router.Get("/fetch", h.listNotes)
	router.Post("/create", h.createNote)
	router.Put("/update/{id}", h.updateNote)
	router.Delete("/delete/{id}", h.deleteNote)
}

func identity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewAuthError("authentication required", auth.ErrMissingToken))
	}
	return id, ok
}

// listNotes godoc
// @Summary List notes
// @Description Returns every note owned by the caller.
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} notes.Note
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /notes/fetch [get]
func (h *NoteHandler) listNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	notes, err := h.service.List(r.Context(), id)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, notes)
}

// createNote godoc
// @Summary Create a note
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param note body notes.CreateNoteRequest true "Note to create"
// @Success 201 {object} notes.Note
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /notes/create [post]
func (h *NoteHandler) createNote(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}

	note, err := h.service.Create(r.Context(), id, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusCreated, note)
}

// updateNote godoc
// @Summary Update a note
// @Description Overwrites the non-empty fields. Only the owner may update a note.
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Param note body notes.UpdateNoteRequest true "Fields to change"
// @Success 200 {object} notes.Note
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /notes/update/{id} [put]
func (h *NoteHandler) updateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}

	note, err := h.service.Update(r.Context(), id, chi.URLParam(r, "id"), req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, note)
}

// deleteNote godoc
// @Summary Delete a note
// @Description Only the owner may delete a note.
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} notes.DeleteNoteResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /notes/delete/{id} [delete]
func (h *NoteHandler) deleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	note, err := h.service.Delete(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, DeleteNoteResponse{Message: "Note has been deleted", Note: note})
}

package notes

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/user/notebook-go/apperror"
	"github.com/user/notebook-go/auth"
	"github.com/user/notebook-go/metrics"
)

// Operations checked by the guard, also used as the metrics label.
const (
	OpUpdate = "update"
	OpDelete = "delete"
)

// OwnershipGuard admits a mutation only when the caller owns the note.
type OwnershipGuard struct {
	store   Store
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// NewOwnershipGuard creates an OwnershipGuard reading from store.
func NewOwnershipGuard(store Store, m *metrics.Metrics, log logrus.FieldLogger) *OwnershipGuard {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OwnershipGuard{store: store, metrics: m, log: log}
}

// Check loads noteID and returns it when identity owns it.
// A missing note is NotFound whoever asks; a note owned by someone else is
// Forbidden.
func (g *OwnershipGuard) Check(ctx context.Context, identity *auth.Identity, noteID, op string) (*Note, error) {
	if identity == nil || identity.UserID == "" {
		return nil, apperror.NewAuthError("authentication required", auth.ErrMissingToken)
	}

	note, err := g.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return nil, apperror.NewNotFoundError("Note not found", err)
		}
		return nil, apperror.NewDatabaseError("failed to load note", err)
	}

	if note.UserID != identity.UserID {
		g.metrics.OwnershipDenied(op)
		g.log.WithFields(logrus.Fields{
			"operation": op,
			"note_id":   noteID,
			"user_id":   identity.UserID,
		}).Warn("note mutation denied: caller is not the owner")
		return nil, apperror.NewForbiddenError("Not allowed", nil)
	}
	return note, nil
}

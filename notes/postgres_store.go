package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/user/notebook-go/db"
)

// pgInvalidText is raised when a malformed id is cast to uuid.
const pgInvalidText = "22P02"

const noteColumns = `id::text, user_id::text, title, description, tag, created_at`

// PostgresStore is the Store backed by the notes table.
type PostgresStore struct {
	dbPool db.DBTX
}

// NewPostgresStore creates a PostgresStore on dbPool, normally a *pgxpool.Pool.
func NewPostgresStore(dbPool db.DBTX) *PostgresStore {
	return &PostgresStore{dbPool: dbPool}
}

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &n.Tag, &n.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &n, nil
}

// mapNotFound folds "no row" and "not a uuid" into ErrNoteNotFound.
func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoteNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidText {
		return ErrNoteNotFound
	}
	return err
}

func (s *PostgresStore) GetNote(ctx context.Context, id string) (*Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1::uuid`
	n, err := scanNote(s.dbPool.QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, ErrNoteNotFound) {
		return nil, fmt.Errorf("select note: %w", err)
	}
	return n, err
}

// ListNotesByUser returns the notes owned by userID, oldest first.
func (s *PostgresStore) ListNotesByUser(ctx context.Context, userID string) ([]Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1::uuid ORDER BY created_at, id`
	rows, err := s.dbPool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (s *PostgresStore) CreateNote(ctx context.Context, note *Note) (*Note, error) {
	query := `INSERT INTO notes (id, user_id, title, description, tag)
              VALUES ($1::uuid, $2::uuid, $3, $4, $5)
              RETURNING created_at`
	err := s.dbPool.QueryRow(ctx, query,
		note.ID, note.UserID, note.Title, note.Description, note.Tag,
	).Scan(&note.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

// UpdateNote overwrites the non-nil fields of update in a single statement.
func (s *PostgresStore) UpdateNote(ctx context.Context, id string, update NoteUpdate) (*Note, error) {
	query := `UPDATE notes SET
                  title = COALESCE($2, title),
                  description = COALESCE($3, description),
                  tag = COALESCE($4, tag)
              WHERE id = $1::uuid
              RETURNING ` + noteColumns
	n, err := scanNote(s.dbPool.QueryRow(ctx, query, id, update.Title, update.Description, update.Tag))
	if err != nil && !errors.Is(err, ErrNoteNotFound) {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return n, err
}

func (s *PostgresStore) DeleteNote(ctx context.Context, id string) error {
	tag, err := s.dbPool.Exec(ctx, `DELETE FROM notes WHERE id = $1::uuid`, id)
	if err != nil {
		if errors.Is(mapNotFound(err), ErrNoteNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

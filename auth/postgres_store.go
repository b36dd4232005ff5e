package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/user/notebook-go/db"
)

const (
	// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
	pgUniqueViolation = "23505"
	// pgInvalidText is raised when a malformed id is cast to uuid.
	pgInvalidText = "22P02"

	usersEmailKey    = "users_email_key"
	usersUsernameKey = "users_username_key"
)

// PostgresUserStore is the UserStore backed by the users table.
type PostgresUserStore struct {
	dbPool db.DBTX
}

// NewPostgresUserStore creates a PostgresUserStore on dbPool, normally a *pgxpool.Pool.
func NewPostgresUserStore(dbPool db.DBTX) *PostgresUserStore {
	return &PostgresUserStore{dbPool: dbPool}
}

// CreateUser inserts user. The unique constraints on email and username make
// the existence check and the insert atomic even across processes.
func (s *PostgresUserStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	query := `INSERT INTO users (id, name, username, email, password)
              VALUES ($1::uuid, $2, $3, $4, $5)
              RETURNING created_at`
	err := s.dbPool.QueryRow(ctx, query,
		user.ID, user.Name, user.Username, user.Email, user.HashedPassword,
	).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			switch pgErr.ConstraintName {
			case usersEmailKey:
				return nil, ErrDuplicateEmail
			case usersUsernameKey:
				return nil, ErrDuplicateUsername
			}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their (already normalized) email.
func (s *PostgresUserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id::text, name, username, email, password, created_at
              FROM users WHERE email = $1`
	return s.scanUser(s.dbPool.QueryRow(ctx, query, email))
}

// GetUserByID retrieves a user by id. An id that is not a UUID cannot
// exist, so it is reported as not found.
func (s *PostgresUserStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT id::text, name, username, email, password, created_at
              FROM users WHERE id = $1::uuid`
	return s.scanUser(s.dbPool.QueryRow(ctx, query, id))
}

func (s *PostgresUserStore) scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Name, &user.Username, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgInvalidText {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

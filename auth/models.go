package auth

import "time"

// User represents a registered account as kept by the credential store.
// The `json:"-"` tag on HashedPassword keeps the hash out of every
// JSON-encoded response, even if a handler serialises the model directly.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

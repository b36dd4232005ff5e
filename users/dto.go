package users

import "time"

// UserProfileResponse represents the data returned for a user profile.
// The password hash has no field here, so it can never be serialised.
// @Description User profile information
type UserProfileResponse struct {
	ID        string    `json:"id" example:"8f14e45f-ceea-4e7a-9c8b-1d1c2d0e5a77"`
	Name      string    `json:"name" example:"Ann"`
	Username  string    `json:"username" example:"ann1"`
	Email     string    `json:"email" example:"ann@x.com"`
	CreatedAt time.Time `json:"created_at" example:"2026-01-15T10:30:00Z"`
}

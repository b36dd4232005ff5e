package auth

// RegisterRequest represents the registration request payload.
// The `validate` tags are enforced by the validation package; every
// violated field is reported in one response.
type RegisterRequest struct {
	Name     string `json:"name" validate:"notblank,min=3" example:"Ann"`
	Username string `json:"username" validate:"notblank,min=3" example:"ann1"`
	Email    string `json:"email" validate:"required,email" example:"ann@x.com"`
	Password string `json:"password" validate:"min=6" example:"secret1"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"ann@x.com"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Message string `json:"message" example:"User logged in successfully"`
	Token   string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

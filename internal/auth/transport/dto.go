// Package transport defines request/response DTOs for the auth API.
package transport

// LoginRequest authenticates the back-office admin.
type LoginRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Package service implements admin session authentication.
package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"iei_backend/internal/auth/transport"
	"iei_backend/platform/apperr"
	"iei_backend/platform/config"
	"iei_backend/platform/httpkit"
	"iei_backend/platform/logger"
)

const invalidCredentialsMessage = "invalid credentials"

// Service issues admin session tokens. There is a single back-office
// operator; credentials are a bcrypt hash in configuration, not a user table.
type Service struct {
	cfg config.AuthConfig
	log *logger.Logger
	now func() time.Time
}

// New creates a new auth service.
func New(cfg config.AuthConfig, log *logger.Logger) *Service {
	return &Service{cfg: cfg, log: log, now: time.Now}
}

// Login verifies the admin password and returns a signed session JWT.
func (s *Service) Login(_ context.Context, req transport.LoginRequest) (transport.LoginResponse, error) {
	hash := s.cfg.GetAdminPasswordHash()
	if hash == "" {
		s.log.AuthEvent("admin_login", false, "no admin password configured")
		return transport.LoginResponse{}, apperr.Unauthorized(invalidCredentialsMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		s.log.AuthEvent("admin_login", false, "password mismatch")
		return transport.LoginResponse{}, apperr.Unauthorized(invalidCredentialsMessage)
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.GetSessionTTL())
	claims := httpkit.SessionClaims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTSecret()))
	if err != nil {
		return transport.LoginResponse{}, apperr.Internal("sign session token")
	}

	s.log.AuthEvent("admin_login", true, "")
	return transport.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

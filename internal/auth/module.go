// Package auth provides the admin authentication module.
package auth

import (
	"iei_backend/internal/auth/handler"
	"iei_backend/internal/auth/service"
	apphttp "iei_backend/internal/http"
	"iei_backend/platform/config"
	"iei_backend/platform/logger"
	"iei_backend/platform/validator"
)

// Module is the auth module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module.
func NewModule(cfg config.AuthConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(cfg, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts auth routes on the provided router context.
// Login goes through the stricter intake limiter; it is a brute-force target.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Intake.POST("/auth/login", m.handler.Login)
}

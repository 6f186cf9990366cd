// Package commercial provides the commercial lifecycle bounded context:
// agencies, reservations, sales and the sales export.
package commercial

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"iei_backend/internal/commercial/handler"
	"iei_backend/internal/commercial/repository"
	"iei_backend/internal/commercial/service"
	domainevents "iei_backend/internal/events"
	apphttp "iei_backend/internal/http"
	"iei_backend/platform/logger"
	"iei_backend/platform/validator"
)

// Module is the commercial bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the commercial module.
func NewModule(pool *pgxpool.Pool, bus domainevents.Bus, val *validator.Validator, cfg service.Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "commercial"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts commercial routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	agencies := ctx.Admin.Group("/agencies")
	agencies.POST("", m.handler.CreateAgency)
	agencies.GET("", m.handler.ListAgencies)

	leads := ctx.Admin.Group("/leads/:leadId")
	leads.POST("/reserve", m.handler.Reserve)
	leads.POST("/release", m.handler.Release)
	leads.POST("/sell", m.handler.Sell)
	leads.GET("/commercial", m.handler.State)

	ctx.Admin.GET("/exports/sales.csv", m.handler.ExportSales)
}

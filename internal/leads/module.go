// Package leads provides the lead intake and scoring bounded context.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	domainevents "iei_backend/internal/events"
	apphttp "iei_backend/internal/http"
	"iei_backend/internal/leads/handler"
	"iei_backend/internal/leads/repository"
	"iei_backend/internal/leads/service"
	"iei_backend/internal/pricing"
	"iei_backend/internal/zones"
	"iei_backend/platform/config"
	"iei_backend/platform/logger"
	"iei_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the leads module.
func NewModule(pool *pgxpool.Pool, provider zones.TableProvider, pricingSvc *pricing.Service, cfg config.EngineConfig, bus domainevents.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, provider, pricingSvc, cfg, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context. The
// public submission and the stateless scorer share the stricter intake
// limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Intake.POST("/leads", m.handler.Intake)
	ctx.Intake.POST("/iei/score", m.handler.Score)

	ctx.Admin.GET("/leads", m.handler.ListLeads)
	ctx.Admin.GET("/leads/:leadId", m.handler.GetLead)
}

package zones

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	domainevents "iei_backend/internal/events"
	apphttp "iei_backend/internal/http"
	"iei_backend/internal/zones/handler"
	"iei_backend/internal/zones/repository"
	"iei_backend/internal/zones/service"
	"iei_backend/platform/config"
	"iei_backend/platform/logger"
	"iei_backend/platform/validator"
)

// Module is the zones bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	provider TableProvider
	cfg      config.ZoneConfig
	log      *logger.Logger
}

// NewModule creates and initializes the zones module. When USE_DB_ZONES is
// off the provider serves the built-in static table and zone mutations only
// affect the database.
func NewModule(pool *pgxpool.Pool, bus domainevents.Bus, val *validator.Validator, cfg config.ZoneConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)

	var provider TableProvider
	if cfg.GetUseDBZones() {
		provider = NewCachingProvider(svc, cfg.GetZoneCacheTTL(), log)
	} else {
		provider = NewStaticProvider(nil)
	}

	// Zone mutations must be visible to scoring without waiting out the TTL.
	bus.Subscribe(domainevents.ZoneChanged{}.EventName(), domainevents.HandlerFunc(
		func(ctx context.Context, event domainevents.Event) error {
			provider.Invalidate()
			return nil
		}))

	return &Module{
		handler:  handler.New(svc, val),
		service:  svc,
		provider: provider,
		cfg:      cfg,
		log:      log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "zones"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Provider returns the zone table provider consumed by scoring.
func (m *Module) Provider() TableProvider {
	return m.provider
}

// Seed imports the configured YAML seed file, if any. Called once at boot.
func (m *Module) Seed(ctx context.Context) error {
	path := m.cfg.GetZonesSeedFile()
	if path == "" {
		return nil
	}
	seeded, err := m.service.SeedFromFile(ctx, path)
	if err != nil {
		return err
	}
	m.log.Info("zones_seeded", "file", path, "zones", seeded)
	return nil
}

// RegisterRoutes mounts zones routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Public.GET("/zones", m.handler.ListActiveZones)

	adminGroup := ctx.Admin.Group("/zones")
	adminGroup.GET("", m.handler.ListZones)
	adminGroup.POST("", m.handler.CreateZone)
	adminGroup.GET("/:zoneKey", m.handler.GetZone)
	adminGroup.PATCH("/:zoneKey", m.handler.PatchZone)
}

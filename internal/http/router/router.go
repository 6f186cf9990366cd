// Package router assembles the Gin engine, shared middleware and module
// routes.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apphttp "iei_backend/internal/http"
	"iei_backend/platform/httpkit"
)

// New builds the HTTP engine: recovery, request IDs, logging, security
// headers, CORS and rate limits, then the health endpoints and every
// module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())

	if origins := app.Config.GetCORSOrigins(); len(origins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	limiter := httpkit.NewIPRateLimiter(app.Config.GetRateLimitPerMinute(), app.Logger)
	engine.Use(limiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", func(c *gin.Context) {
		if err := app.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	intakeLimiter := httpkit.NewIntakeRateLimiter(app.Config.GetIntakeRateLimitPerMinute(), app.Logger)
	adminMiddleware := httpkit.AdminRequired(app.Config)

	v1 := engine.Group("/api/v1")
	public := v1.Group("")
	intake := v1.Group("")
	intake.Use(intakeLimiter.RateLimit())
	admin := v1.Group("/admin")
	admin.Use(adminMiddleware)

	ctx := &apphttp.RouterContext{
		Engine:            engine,
		V1:                v1,
		Public:            public,
		Intake:            intake,
		Admin:             admin,
		Config:            app.Config,
		AdminMiddleware:   adminMiddleware,
		IntakeRateLimiter: intakeLimiter,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("module_mounted", "module", module.Name())
	}

	return engine
}

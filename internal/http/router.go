package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yuktifest/yukti-backend/internal/auth"
	"github.com/yuktifest/yukti-backend/internal/config"
	"github.com/yuktifest/yukti-backend/internal/http/handlers"
	"github.com/yuktifest/yukti-backend/internal/http/middlewares"
	"github.com/yuktifest/yukti-backend/internal/observability"
	"github.com/yuktifest/yukti-backend/internal/repo/postgres"
	"github.com/yuktifest/yukti-backend/internal/uniqueid"
)

const maxBodyBytes = 1 << 20 // registrations are small; 1 MiB is generous

// NewRouter wires the full API surface: the public registration route,
// the admin routes behind the JWT gate, and the operational endpoints.
func NewRouter(
	log *slog.Logger,
	pool *pgxpool.Pool,
	rdb *redis.Client,
	prom *observability.Prom,
	promRegistry *prometheus.Registry,
	cfg config.Config,
) (*gin.Engine, error) {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware("yukti-backend"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	regsRepo := postgres.NewRegistrationsRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	registerHandler := handlers.NewRegisterHandler(regsRepo, jobsRepo, uniqueid.New(), log)

	adminHandler, err := handlers.NewAdminHandler(
		cfg.AdminUsername, cfg.AdminPassword, tokens, regsRepo, cfg.ExportDir, log)

	if err != nil {
		return nil, err
	}

	adminJobsHandler := handlers.NewAdminJobsHandler(jobsRepo)

	healthHandler := handlers.NewHealthHandler(func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	authMw := middlewares.NewAuthMiddleware(tokens)
	limiter := middlewares.NewRateLimiter(rdb, cfg.RateLimit, cfg.RateWindow)

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.POST("/register", limiter.Middleware(), registerHandler.Register)

		admin := api.Group("/admin")
		{
			admin.POST("/login", adminHandler.Login)

			protected := admin.Group("", authMw.RequireAdmin())
			{
				protected.GET("/registrations", adminHandler.ListRegistrations)
				protected.GET("/exports/:kind", adminHandler.DownloadExport)
				protected.GET("/jobs", adminJobsHandler.List)
				protected.POST("/jobs/:id/retry", adminJobsHandler.Retry)
			}
		}
	}

	return r, nil
}

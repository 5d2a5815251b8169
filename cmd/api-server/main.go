package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/zyntra-exam-api/api/swagger"
	"github.com/noah-isme/zyntra-exam-api/internal/handler"
	"github.com/noah-isme/zyntra-exam-api/internal/middleware"
	"github.com/noah-isme/zyntra-exam-api/internal/repository"
	"github.com/noah-isme/zyntra-exam-api/internal/service"
	"github.com/noah-isme/zyntra-exam-api/pkg/cache"
	"github.com/noah-isme/zyntra-exam-api/pkg/config"
	"github.com/noah-isme/zyntra-exam-api/pkg/database"
	"github.com/noah-isme/zyntra-exam-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/zyntra-exam-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/zyntra-exam-api/pkg/middleware/requestid"
)

// @title Zyntra Exam API
// @version 1.0.0
// @description Authentication and access-control service for the Zyntra exam platform
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis only backs the login rate limiter; the service stays up
		// without it.
		logr.Sugar().Warnw("redis unavailable, login rate limiting disabled", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, logr, cfg.Audit)
	auditSvc.Start(context.Background())
	defer auditSvc.Stop()

	metricsSvc := service.NewMetricsService(auditSvc.QueueDepth)

	validate := service.NewValidator()

	authSvc := service.NewAuthService(userRepo, auditSvc, validate, logr, service.AuthConfig{
		Secret:                 cfg.JWT.Secret,
		Issuer:                 cfg.JWT.Issuer,
		Audience:               cfg.JWT.Audience,
		SuperAdminEmail:        cfg.SuperAdmin.Email,
		SuperAdminPasswordHash: cfg.SuperAdmin.PasswordHash,
	})
	registrationSvc := service.NewRegistrationService(userRepo, auditSvc, validate, logr, cfg.APIPrefix)

	authHandler := handler.NewAuthHandler(authSvc, registrationSvc, metricsSvc)
	adminHandler := handler.NewAdminHandler(registrationSvc, auditSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	loginLimiter := middleware.LoginRateLimit(rdb, cfg.RateLimit)
	handler.RegisterRoutes(r, cfg.APIPrefix, authHandler, adminHandler, metricsHandler, authSvc, loginLimiter)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

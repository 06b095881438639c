package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Dharnipatel21/SmartCampus-AI/api/swagger"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/handler"
	internalmiddleware "github.com/Dharnipatel21/SmartCampus-AI/internal/middleware"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/repository"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/service"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/cache"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/config"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/database"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/export"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/jobs"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/logger"
	corsmiddleware "github.com/Dharnipatel21/SmartCampus-AI/pkg/middleware/cors"
	reqidmiddleware "github.com/Dharnipatel21/SmartCampus-AI/pkg/middleware/requestid"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/storage"
)

// @title SmartCampus Outpass API
// @version 1.0.0
// @description Four-stage outpass approval workflow for hostel residents
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

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(rdb, "smartcampus", logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Outpass.ShortfallCacheTTL, logr, true)

	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	redisPing := func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
	ops := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"database": db.PingContext,
		"redis":    redisPing,
	})
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var notifier *service.OutpassNotifier
	if cfg.Outpass.Enabled {
		outpassRepo := repository.NewOutpassRepository(db)
		eventRepo := repository.NewOutpassEventRepository(db)
		studentRepo := repository.NewStudentRepository(db)
		roleRepo := repository.NewFacultyRoleRepository(db)
		attendanceRepo := repository.NewAttendanceRepository(db)
		auditRepo := repository.NewAuditRepository(db)

		policy := service.NewAuthorizationPolicy(roleRepo, logr)
		advisor := service.NewAttendanceAdvisor(attendanceRepo, cacheSvc, cfg.Outpass.AttendanceThreshold, logr)

		notifier = service.NewOutpassNotifier(auditRepo, logr, jobs.QueueConfig{
			Workers:    cfg.Outpass.NotificationWorkers,
			MaxRetries: cfg.Outpass.NotificationRetries,
		})
		notifier.Start(context.Background())

		outpassSvc := service.NewOutpassService(outpassRepo, eventRepo, studentRepo, policy, advisor, validate, logr,
			service.WithOutpassNotifier(notifier),
			service.WithOutpassMetrics(metrics),
		)
		riskSvc := service.NewRiskService(advisor, validate, logr)

		gateStore, err := storage.NewLocalStorage(cfg.Outpass.GatePassDir)
		if err != nil {
			logr.Fatal("failed to prepare gate pass storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Outpass.GatePassURLSecret, cfg.Outpass.GatePassURLTTL)
		gatePassSvc := service.NewGatePassService(outpassSvc, export.NewPDFExporter(), gateStore, signer, cfg.APIPrefix, logr)
		go purgeGatePasses(ctx, gatePassSvc, cfg.Outpass.GatePassRetention, logr)

		handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Routes{
			Outpass:     handler.NewOutpassHandler(outpassSvc, gatePassSvc, nil),
			Risk:        handler.NewRiskHandler(riskSvc),
			Auth:        internalmiddleware.JWT(authSvc),
			Idempotency: internalmiddleware.Idempotency(rdb, cfg.Outpass.IdempotencyTTL, logr),
		})
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "outpass", cfg.Outpass.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
	if notifier != nil {
		notifier.Stop()
	}
}

func purgeGatePasses(ctx context.Context, svc *service.GatePassService, retention time.Duration, logr *zap.Logger) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Purge(retention); err != nil {
				logr.Warn("gate pass purge failed", zap.Error(err))
			}
		}
	}
}

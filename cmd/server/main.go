package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskloop/backend/api/handler"
	"github.com/taskloop/backend/internal/config"
	boltInfra "github.com/taskloop/backend/internal/infrastructure/bolt"
	"github.com/taskloop/backend/internal/infrastructure/monitor"
	pgInfra "github.com/taskloop/backend/internal/infrastructure/postgres"
	redisInfra "github.com/taskloop/backend/internal/infrastructure/redis"
	"github.com/taskloop/backend/internal/middleware"
	"github.com/taskloop/backend/internal/router"
	"github.com/taskloop/backend/internal/services"
	"github.com/taskloop/backend/internal/services/lifecycle"
	"github.com/taskloop/backend/pkg/httpcontext"
	"github.com/taskloop/backend/pkg/logger"
	"github.com/taskloop/backend/repository"
	boltRepo "github.com/taskloop/backend/repository/bolt"
	"github.com/taskloop/backend/repository/postgres"
	redisRepo "github.com/taskloop/backend/repository/redis"
	authUC "github.com/taskloop/backend/usecase/auth"
	profileUC "github.com/taskloop/backend/usecase/profile"
	taskUC "github.com/taskloop/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	var (
		userRepo    repository.UserRepository
		taskRepo    repository.TaskRepository
		sessionRepo repository.SessionRepository
		mon         *monitor.Monitor
	)

	if cfg.Demo.Enabled {
		zapLogger.Info("starting in demo mode", zap.String("path", cfg.Demo.Path))

		db, err := boltInfra.Open(cfg.Demo.Path)
		if err != nil {
			zapLogger.Fatal("failed to open demo database", zap.Error(err))
		}
		manager.Register("bolt", func(ctx context.Context) error {
			return db.Close()
		})

		userRepo = boltRepo.NewUserRepository(db)
		taskRepo = boltRepo.NewTaskRepository(db)
		boltSessions := boltRepo.NewSessionRepository(db, cfg.Session.TTL)
		sessionRepo = boltSessions

		sweeper := services.NewSessionSweeper(boltSessions, cfg.Demo.SweepInterval, zapLogger)
		if err := sweeper.Start(); err != nil {
			zapLogger.Fatal("failed to start session sweeper", zap.Error(err))
		}
		manager.Register("session_sweeper", func(ctx context.Context) error {
			sweeper.Stop(ctx)
			return nil
		})

		mon = monitor.New("demo", nil, nil, db, 10*time.Second, zapLogger)
	} else {
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}

		pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})

		redisClient, err := redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})

		userRepo = postgres.NewUserRepository(pool)
		taskRepo = postgres.NewTaskRepository(pool)
		sessionRepo = redisRepo.NewSessionRepository(redisClient, cfg.Session.TTL)

		mon = monitor.New("server", pool, redisClient, nil, 10*time.Second, zapLogger)
	}

	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	var googleVerifier authUC.IdentityVerifier
	if cfg.Google.ClientID != "" {
		googleVerifier = authUC.NewGoogleVerifier(cfg.Google.ClientID)
	}

	signer := authUC.NewTokenSigner(cfg.Session.Secret, cfg.Session.Issuer)
	authUseCase := authUC.New(
		userRepo,
		sessionRepo,
		authUC.NewPasswordHasher(),
		signer,
		googleVerifier,
		cfg.Session.TTL,
		zapLogger,
	)
	profileUseCase := profileUC.New(userRepo, zapLogger)
	taskStores := taskUC.NewManager(taskRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, taskStores, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskStores, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.SessionAuth(authUseCase, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

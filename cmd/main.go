package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casbin/casbin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"roomrent/marketplace/internal/auth"
	"roomrent/marketplace/internal/changefeed"
	"roomrent/marketplace/internal/config"
	grpcServer "roomrent/marketplace/internal/grpc"
	"roomrent/marketplace/internal/metrics"
	"roomrent/marketplace/internal/repository"
	"roomrent/marketplace/internal/service"
	"roomrent/marketplace/internal/storage"
	"roomrent/marketplace/internal/web"
)

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}
	return logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Logging)

	db, err := sqlx.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	if err := db.PingContext(startupCtx); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Connected to PostgreSQL database")

	if err := repository.InitializeTables(startupCtx, db); err != nil {
		logger.Fatalf("Failed to initialize database tables: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	sessionStore := auth.NewRedisSessionStore(redisClient, "session:")
	if err := sessionStore.Ping(startupCtx); err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	logger.Info("Connected to Redis")

	feed, err := changefeed.Connect(cfg.NATS.URL, cfg.NATS.ConnectTimeout, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer feed.Close()

	images, err := storage.NewImageStorage(storage.Options{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		UseSSL:        cfg.Storage.UseSSL,
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to create image storage: %v", err)
	}
	if err := images.EnsureBucket(startupCtx); err != nil {
		logger.Fatalf("Failed to prepare image bucket: %v", err)
	}

	identityRepo := repository.NewIdentityRepository(db)
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	authService := auth.NewService(
		identityRepo,
		sessionStore,
		auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.SessionTTL),
		auth.NewNotifier(),
		cfg.Auth.SessionTTL,
		logger,
	)

	sessions := service.NewSessionProvider(authService, userRepo, logger)
	defer sessions.Close()

	enforcer, err := casbin.NewEnforcerSafe(cfg.Server.RBACModel, cfg.Server.RBACPolicy)
	if err != nil {
		logger.Fatalf("Failed to load authorization policy: %v", err)
	}

	appMetrics := metrics.New("roomrent")

	router := web.NewRouter(web.Services{
		Sessions:      sessions,
		Browse:        service.NewBrowseService(listingRepo, logger),
		Detail:        service.NewDetailService(listingRepo, messageRepo, feed, logger),
		Editor:        service.NewEditorService(listingRepo, images, cfg.Storage.MaxUploadBytes, logger),
		Dashboard:     service.NewDashboardService(listingRepo, logger),
		Conversations: service.NewConversationService(messageRepo, feed, cfg.Chat.BufferSize, logger),
	}, enforcer, appMetrics, web.Options{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	}, logger)

	httpAddress := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              httpAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting HTTP server on %s", httpAddress)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	healthSrv := grpcServer.NewHealthServer([]grpcServer.Probe{
		{Name: "postgres", Check: userRepo.Ping},
		{Name: "redis", Check: sessionStore.Ping},
		{Name: "nats", Check: feed.Ping},
		{Name: "storage", Check: images.Ping},
	}, cfg.GRPC.ProbeInterval, logger)

	probeCtx, stopProbes := context.WithCancel(context.Background())
	defer stopProbes()
	go healthSrv.Run(probeCtx)

	grpcAddress := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		logger.Fatalf("Failed to listen on %s: %v", grpcAddress, err)
	}

	s := grpc.NewServer()
	healthSrv.Register(s)

	if cfg.GRPC.ReflectionEnabled {
		reflection.Register(s)
		logger.Info("gRPC reflection enabled")
	}

	go func() {
		logger.Infof("Starting gRPC server on %s", grpcAddress)
		if err := s.Serve(lis); err != nil {
			logger.Fatalf("Failed to start gRPC server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")
	stopProbes()
	healthSrv.Shutdown()

	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelHTTP()
	if err := httpSrv.Shutdown(httpCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown timeout")
	} else {
		logger.Info("HTTP server exited gracefully")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GRPC.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("gRPC server exited gracefully")
	case <-ctx.Done():
		logger.Info("gRPC server shutdown timeout")
	}

	logger.Info("Server exited")
}

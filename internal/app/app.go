package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ledgerly/account-service/internal/config"
	"github.com/ledgerly/account-service/internal/event"
	handler "github.com/ledgerly/account-service/internal/handler/http"
	"github.com/ledgerly/account-service/internal/mail"
	"github.com/ledgerly/account-service/internal/oauth"
	"github.com/ledgerly/account-service/internal/repository/mongodb"
	"github.com/ledgerly/account-service/internal/resolver"
	"github.com/ledgerly/account-service/internal/service"
	"github.com/ledgerly/account-service/internal/token"
	"github.com/ledgerly/account-service/pkg/health"
	pkgkafka "github.com/ledgerly/account-service/pkg/kafka"
	"github.com/ledgerly/account-service/pkg/middleware"
)

// App wires together all dependencies and runs the account service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	mongo      *mongo.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to MongoDB and verify the connection.
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	logger.Info("connected to MongoDB",
		slog.String("database", cfg.MongoDB),
	)

	db := mongoClient.Database(cfg.MongoDB)
	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Google sign-in is optional; without credentials the routes are not
	// mounted.
	var google handler.GoogleExchanger
	if cfg.GoogleClientID != "" {
		provider, err := oauth.NewGoogleProvider(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			_ = mongoClient.Disconnect(context.Background())
			return nil, fmt.Errorf("init google provider: %w", err)
		}
		google = provider
	} else {
		logger.Warn("google sign-in disabled: no client ID configured")
	}

	// Build the dependency graph.
	tokens := token.NewManager(
		cfg.AccessSecret, cfg.RefreshSecret, cfg.ResetSecret,
		cfg.AccessTTL, cfg.RefreshTTL, cfg.ResetTTL,
	)
	mailer := mail.NewBrevoMailer(cfg.BrevoAPIKey, cfg.FromEmail, cfg.FromName, logger)
	eventProducer := event.NewProducer(producer, logger)
	authService := service.NewAuthService(
		userRepo, resolver.New(userRepo), tokens, mailer, eventProducer, cfg, logger,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("mongodb", func(ctx context.Context) error {
		return mongoClient.Ping(ctx, readpref.Primary())
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, logger)
	router := handler.NewRouter(authService, tokens, google, healthHandler, limiter, cfg, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		mongo:      mongoClient,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server first so
// in-flight requests drain, then the Kafka producer, then MongoDB.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer mongoCancel()
	if err := a.mongo.Disconnect(mongoCtx); err != nil {
		a.logger.Error("mongodb disconnect error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

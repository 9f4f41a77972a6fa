package main

import (
	"audit-service/internal/database/mongo"
	"audit-service/internal/database/postgres"
	redisdb "audit-service/internal/database/redis"
	"audit-service/internal/event"
	"audit-service/internal/handlers"
	"audit-service/internal/logger"
	"audit-service/internal/repository"
	"audit-service/internal/services"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	connectTimeout  = 15 * time.Second
	dbRetryAttempts = 5
	dbRetryWait     = 3 * time.Second
)

func serveCmd(a *app) *cobra.Command {
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the audit REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, a, inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "Keep accounts and reports in memory and seed the default staff (development only)")
	return cmd
}

type stores struct {
	accounts repository.IAccountRepository
	records  repository.IAuditRecordRepository
	closers  []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, a *app, inMemory bool) (*stores, error) {
	if inMemory {
		a.log.Warn("running with in-memory stores; data is lost on exit")
		return &stores{
			accounts: repository.NewMemoryAccountRepository(),
			records:  repository.NewMemoryAuditRecordRepository(),
		}, nil
	}

	db, err := postgres.ConnectWithRetry(a.cfg.PostgresCfg, logger.WithComponent(a.log, "postgres"), dbRetryAttempts, dbRetryWait)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	s := &stores{accounts: repository.NewAccountRepository(db)}
	s.closers = append(s.closers, func() { _ = db.Close() })

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	conn, err := mongo.Connect(connectCtx, a.cfg.MongoCfg)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("mongo: %w", err)
	}
	s.records = repository.NewAuditRecordRepository(conn.Collection)
	s.closers = append(s.closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = conn.Close(closeCtx)
	})
	a.log.Info("connected to MongoDB",
		zap.String("database", a.cfg.MongoCfg.Database),
		zap.String("collection", a.cfg.MongoCfg.Collection))

	return s, nil
}

func runServer(ctx context.Context, a *app, inMemory bool) error {
	cfg := a.cfg
	log := a.log

	if cfg.AuthCfg.UsingDefaultSecret {
		log.Warn("JWT_SECRET is not set, signing sessions with the built-in development secret")
	}

	st, err := openStores(ctx, a, inMemory)
	if err != nil {
		return err
	}
	defer st.close()

	accountCache := repository.NewAccountCache(nil, logger.WithComponent(log, "account-cache"))
	if cfg.RedisCfg.Enabled {
		rc, err := redisdb.Connect(ctx, cfg.RedisCfg, logger.WithComponent(log, "redis"))
		if err != nil {
			log.Warn("redis unavailable, account cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			accountCache = repository.NewAccountCache(rc.GetClient(), logger.WithComponent(log, "account-cache"))
		}
	}

	var notifier services.ResolutionNotifier
	if cfg.RabbitMQCfg.Enabled {
		conn, err := event.Connect(cfg.RabbitMQCfg, logger.WithComponent(log, "rabbitmq"))
		if err != nil {
			log.Warn("rabbitmq unavailable, resolution notifications disabled", zap.Error(err))
		} else {
			defer conn.Close()
			notifier = event.NewNotificationPublisher(conn, logger.WithComponent(log, "notifications"))
		}
	}

	validator := services.NewValidator()
	jwtService := services.NewJWTService(cfg.AuthCfg.JWTSecret, cfg.AuthCfg.TokenTTL)
	accountService := services.NewAccountService(st.accounts, accountCache, jwtService, validator, logger.WithComponent(log, "accounts"))
	auditService := services.NewAuditService(st.records, notifier, validator, logger.WithComponent(log, "audit"))

	if inMemory {
		if _, err := services.SeedAccounts(ctx, accountService, services.DefaultStaff, log); err != nil {
			return fmt.Errorf("failed to seed in-memory accounts: %w", err)
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterDeps{
		AccountService: accountService,
		AuditService:   auditService,
		JWTService:     jwtService,
		Validator:      validator,
		LoginLimiter:   handlers.NewRateLimiter(cfg.AuthCfg.LoginRatePerSec, cfg.AuthCfg.LoginRateBurst),
		AllowedOrigins: cfg.HTTPCfg.AllowedOrigins,
		TrustedProxies: cfg.HTTPCfg.TrustedProxies,
		ExposeDetails:  !cfg.IsProduction(),
		Logger:         logger.WithComponent(log, "http"),
	})

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           router,
		ReadTimeout:       cfg.HTTPCfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPCfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("audit service listening", zap.String("addr", server.Addr), zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down audit service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

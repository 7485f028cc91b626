package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/mvaleed/seedwork/internal/auth"
	"github.com/mvaleed/seedwork/internal/config"
	"github.com/mvaleed/seedwork/internal/event"
	"github.com/mvaleed/seedwork/internal/logger"
	"github.com/mvaleed/seedwork/internal/metrics"
	"github.com/mvaleed/seedwork/internal/query"
	"github.com/mvaleed/seedwork/internal/service"
	"github.com/mvaleed/seedwork/internal/storage"
	"github.com/mvaleed/seedwork/internal/storage/memory"
	"github.com/mvaleed/seedwork/internal/storage/postgres"
	grpcTransport "github.com/mvaleed/seedwork/internal/transport/grpc"
	httpTransport "github.com/mvaleed/seedwork/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log := logger.New(cfg.Logging)
		slog.SetDefault(log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := run(ctx, cfg, log); err != nil {
			log.Error("application error", slog.String("error", err.Error()))
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&storageOpt, "storage", "", "storage driver: postgres or memory")
	serveCmd.Flags().BoolVar(&migrateOpt, "migrate", false, "apply pending migrations before serving")
}

// backend is a storage implementation together with its unit of work.
type backend interface {
	storage.Transactor
	Repositories() *storage.Repositories
	Ping(ctx context.Context) error
	Close()
}

func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (backend, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn("using in-memory storage; data is lost on exit")
		return memory.New(), nil
	}

	if cfg.Storage.Migrate {
		log.Info("applying migrations")
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return nil, err
		}
	}

	log.Info("connecting to database")
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("database connected")
	return db, nil
}

func openPublisher(ctx context.Context, cfg *config.Config, log *slog.Logger) (event.Publisher, error) {
	if cfg.NATS.URL == "" {
		return event.NewLoggingPublisher(log), nil
	}
	return event.ConnectNATS(ctx, cfg.NATS, log)
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	publisher, err := openPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	resolver, err := query.NewCachedResolver(query.ReflectResolver{}, cfg.Query.ResolverCacheEntries)
	if err != nil {
		return fmt.Errorf("resolver cache: %w", err)
	}
	defer resolver.Close()
	queries := query.WithResolver(resolver)

	repos := db.Repositories()
	jwtManager := auth.NewJWTManager(cfg.JWT)
	hasher := auth.DefaultHasher

	userService := service.NewUserService(repos, db, hasher, publisher, log, queries)
	roleService := service.NewRoleService(repos, publisher, log, queries)
	authService := service.NewAuthService(repos, jwtManager, hasher, publisher, log)

	m := metrics.New()
	httpServer := httpTransport.NewServer(cfg, httpTransport.Services{
		Users: userService,
		Roles: roleService,
		Auth:  authService,
	}, m, log)
	grpcServer := grpcTransport.NewServer(cfg, grpcTransport.Services{
		Users: userService,
		Auth:  authService,
	}, m, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting HTTP server", slog.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("starting gRPC server", slog.String("addr", cfg.GRPC.Addr))
		if err := grpcServer.ListenAndServe(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

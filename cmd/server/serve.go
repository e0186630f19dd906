package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/auth"
	"github.com/landingkit/internal/cache"
	"github.com/landingkit/internal/config"
	"github.com/landingkit/internal/db"
	"github.com/landingkit/internal/handler"
	"github.com/landingkit/internal/logging"
	"github.com/landingkit/internal/metrics"
	"github.com/landingkit/internal/registry"
	"github.com/landingkit/internal/render"
	"github.com/landingkit/internal/router"
	"github.com/landingkit/internal/service"
	"github.com/landingkit/internal/storage"
	"github.com/landingkit/internal/tenant"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close(gdb) //nolint:errcheck

	// 首次启动时按环境变量创建管理员
	if err := db.EnsureUser(gdb.WithContext(ctx), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin user: %w", err)
	}
	users := service.NewUserService(gdb)

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	renderer, err := render.New(reg, logger.Named("render"))
	if err != nil {
		return err
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	pageCache, closeCache := newPageCache(ctx, cfg, logger)
	defer closeCache()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	resolver := tenant.NewResolver(cfg.RootDomain, cfg.Port).WithReserved(service.IsReservedSlug)
	api, err := handler.NewAPI(handler.Dependencies{
		DB:       gdb,
		Pages:    service.NewLandingPageService(gdb, reg),
		Users:    users,
		Assets:   service.NewAssetService(store, cfg.MaxUploadBytes),
		Renderer: renderer,
		Cache:    pageCache,
		Metrics:  m,
		Resolver: resolver,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	h, err := router.Handler(router.Options{
		API:             api,
		Logger:          logger,
		Metrics:         m,
		Resolver:        resolver,
		SessionSecret:   cfg.SessionSecret,
		SecureCookies:   cfg.SecureCookies,
		Verifier:        auth.NewVerifier(cfg.IdentityJWTSecret, cfg.IdentityJWTAudience),
		Users:           users,
		UploadDir:       cfg.UploadDir,
		UploadURLPath:   cfg.UploadURLPath,
		EditorAssetsDir: cfg.EditorAssetsDir,
		LoginRateLimit:  cfg.LoginRateLimit,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("root_domain", cfg.RootDomain),
			zap.String("storage", cfg.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	return nil
}

func openDatabase(cfg config.AppConfig, logger *zap.Logger) (*gorm.DB, error) {
	gdb, err := db.Open(db.Config{
		Driver: cfg.DatabaseDriver,
		Path:   cfg.DatabasePath,
		URL:    cfg.DatabaseURL,
		Logger: logging.NewGormLogger(logger.Named("gorm")),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return gdb, nil
}

func loadRegistry(cfg config.AppConfig) (*registry.Registry, error) {
	if cfg.ComponentsFile == "" {
		return registry.Load()
	}
	reg, err := registry.LoadFile(cfg.ComponentsFile)
	if err != nil {
		return nil, fmt.Errorf("load components from %s: %w", cfg.ComponentsFile, err)
	}
	return reg, nil
}

func newStore(cfg config.AppConfig) (storage.Store, error) {
	if cfg.StorageBackend == "supabase" {
		return storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StorageBucket), nil
	}
	return storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPath)
}

// newPageCache connects to Redis when configured. An unreachable Redis at boot falls back to
// rendering every request.
func newPageCache(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (cache.PageCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.Noop{}, func() {}
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.RenderCacheTTL,
	}, logger.Named("cache"))
	if err != nil {
		logger.Warn("page cache disabled", zap.Error(err))
		return cache.Noop{}, func() {}
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			logger.Warn("close page cache", zap.Error(err))
		}
	}
}

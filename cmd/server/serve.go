package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/hperssn/yofit/internal/admission"
	"github.com/hperssn/yofit/internal/config"
	httpapi "github.com/hperssn/yofit/internal/http"
	"github.com/hperssn/yofit/internal/runner"
	"github.com/hperssn/yofit/internal/snapshot"
	"github.com/hperssn/yofit/internal/storage"
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewRepository(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open %s repository: %w", cfg.DBDriver, err)
	}
	defer repo.Close()

	if cfg.SeedOnStart {
		if err := seedCatalog(ctx, repo, cfg.CatalogFile); err != nil {
			return err
		}
	}

	snapshots := snapshot.NewStore(ctx, snapshot.RedisOptions{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	}, cfg.SnapshotTTL)
	defer snapshots.Close()

	sessions := runner.NewSessionManager(
		runner.WithSnapshotStore(snapshots),
		runner.WithCompletionSink(runner.NewStorageSink(repo)),
	)
	defer sessions.Close()
	go sessions.Run(ctx)

	limiter := admission.NewRegistry(admission.Policy{
		Window: cfg.RateLimitWindow,
		Max:    cfg.RateLimitMax,
	})
	go limiter.Run(ctx)

	srv := httpapi.NewServer(httpapi.Options{
		Repo:     repo,
		Sessions: sessions,
		Auth:     httpapi.NewAuthenticator(cfg.JWTSecret, cfg.DevUser),
		Limiter:  limiter,
		Proxies:  admission.NewProxyResolver(cfg.TrustedProxies),
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(srv.Routes(), &http2.Server{}),
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	log.Println("server stopped")
	return nil
}

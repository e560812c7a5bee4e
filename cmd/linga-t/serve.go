package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/justyntemme/linga-t/internal/config"
	"github.com/justyntemme/linga-t/internal/library"
	"github.com/justyntemme/linga-t/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		libPath    string
		redisAddr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a comic library and store reading progress",
		Long: `Serves the books under a library directory to linga-t readers and
records their reading progress.

Progress is kept in Redis when an address is given, otherwise in memory
for the lifetime of the process.`,
		Example: `  # Serve ~/comics with progress in a local Redis
  linga-t serve --library ~/comics --redis localhost:6379

  # Serve on a custom address
  linga-t serve --addr :9000 --library ~/comics`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if libPath != "" {
				cfg.Server.LibraryPath = libPath
			}
			if redisAddr != "" {
				cfg.Server.RedisAddr = redisAddr
			}
			if cfg.Server.LibraryPath == "" {
				cfg.Server.LibraryPath = cfg.LibraryPath
			}
			if cfg.Server.LibraryPath == "" {
				return errors.New("no library to serve: pass --library")
			}

			log, err := cfg.Logging.Prepare(true)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			progress, err := openProgressStore(cmd.Context(), cfg.Server, log)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, progress.Close()) }()

			srv := server.New(
				library.NewDir(cfg.Server.LibraryPath),
				progress,
				server.WithToken(cfg.Server.Token),
				server.WithLogger(log.Named("server")),
			)
			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				log.Info("Serving library",
					zap.String("addr", cfg.Server.Addr),
					zap.String("library", cfg.Server.LibraryPath),
					zap.Bool("auth", cfg.Server.Token != ""))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				log.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown: %w", err)
				}
				log.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default <user config dir>/linga-t/config.yaml)")
	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (default "+config.DefaultServerAddr+")")
	cmd.Flags().StringVar(&libPath, "library", "", "Directory of books to serve")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for reading progress; memory when empty")

	return cmd
}

// openProgressStore connects to Redis when configured
func openProgressStore(ctx context.Context, conf config.ServerConfig, log *zap.Logger) (server.ProgressStore, error) {
	if conf.RedisAddr == "" {
		log.Warn("No Redis configured, progress is kept in memory")
		return server.NewMemoryStore(), nil
	}
	rs := server.NewRedisStore(conf.RedisAddr, conf.RedisPassword)
	if err := rs.Ping(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("redis %s: %w", conf.RedisAddr, err), rs.Close())
	}
	log.Info("Progress stored in Redis", zap.String("addr", conf.RedisAddr))
	return rs, nil
}

package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/agrilink/agrilink/internal/auth"
	"github.com/agrilink/agrilink/internal/config"
	"github.com/agrilink/agrilink/internal/httpapi"
	"github.com/agrilink/agrilink/internal/logger"
	"github.com/agrilink/agrilink/internal/store"
	"github.com/agrilink/agrilink/internal/upload"
	"github.com/agrilink/agrilink/pkg/qb"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	Long:  "Starts the HTTP API, applying pending database migrations first unless --skip-migrate is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger.Init(cfg.LogLevel, prettyLogs)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pool, err := qb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if !skipMigrate {
			applied, err := store.Migrate(ctx, pool)
			if err != nil {
				return err
			}
			if applied > 0 {
				log.Info().Int("applied", applied).Msg("database migrated")
			}
		}

		st := store.New(pool)
		uploads, err := upload.NewService(cfg.UploadDir, cfg.MaxUploadMB)
		if err != nil {
			return err
		}
		authSvc := auth.NewService(st.Users, cfg.JWTSecret, cfg.TokenTTL)
		api := httpapi.NewServer(cfg, st, authSvc, uploads)

		srv := &http.Server{
			Addr:         cfg.Addr,
			Handler:      api.Router(),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", cfg.Addr).Msg("server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run pending migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secretprops/internal/api"
)

// serveCmd resolves once and then serves health, metrics and property names.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health, metrics and masked property views over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := startSession(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		src := s.result.Secrets
		if src == nil {
			return fmt.Errorf("secret properties are disabled (SECRETS_ENABLED=false)")
		}

		app := fiber.New(fiber.Config{
			ReadTimeout:           s.cfg.HTTPReadTimeout,
			WriteTimeout:          s.cfg.HTTPWriteTimeout,
			IdleTimeout:           s.cfg.HTTPIdleTimeout,
			DisableStartupMessage: true,
		})
		api.RegisterRoutes(app, api.NewPropertyHandler(s.log, src))

		errCh := make(chan error, 1)
		go func() {
			s.log.Info("http.listening", zap.Int("port", s.cfg.Port))
			errCh <- app.Listen(fmt.Sprintf(":%d", s.cfg.Port))
		}()

		s.log.Info("secretprops running",
			zap.String("backend", s.cfg.SecretsBackend),
			zap.String("project", src.ProjectID()),
			zap.Int("properties", src.Len()))

		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
		}

		s.log.Info("shutting down secretprops...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			s.log.Warn("fiber.shutdown_failed", zap.Error(err))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

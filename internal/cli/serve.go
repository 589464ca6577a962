package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/umalmyha/customersync/internal/auth"
	"github.com/umalmyha/customersync/internal/config"
	"github.com/umalmyha/customersync/internal/infra"
	"github.com/umalmyha/customersync/internal/validation"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve http api for syncing and reading customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			svcs, err := infra.BuildServices(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer svcs.Close(context.Background(), logger)

			return serveHTTP(cmd.Context(), cfg, svcs, logger, nil)
		},
	}
}

// serveHTTP runs http server until ctx is done or stopCh fires, then shuts it down gracefully
func serveHTTP(ctx context.Context, cfg config.Config, svcs *infra.Services, logger *logrus.Logger, stopCh <-chan struct{}) error {
	v, err := validation.English()
	if err != nil {
		return err
	}

	opts := infra.RouterOptions{
		SyncSvc:     svcs.SyncSvc,
		CustomerSvc: svcs.CustomerSvc,
		Validator:   v,
		Logger:      logger,
	}
	if cfg.AuthCfg.Enabled {
		opts.JwtValidator = auth.NewJwtValidator(cfg.AuthCfg.SigningMethod, cfg.AuthCfg.PublicKey)
	}

	app := infra.Router(opts)

	errorCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.HttpCfg.Port).Info("starting http server")
		errorCh <- app.Start(fmt.Sprintf(":%d", cfg.HttpCfg.Port))
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal has been sent, stopping the server...")
	case <-stopCh:
		logger.Info("consumer stopped, stopping the server...")
	case err := <-errorCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutting down the server, unexpected error occurred - %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HttpCfg.ShutdownTimeout)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server gracefully - %w", err)
	}
	return nil
}

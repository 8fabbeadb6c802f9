package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tabx/internal/services"
	"github.com/desertthunder/tabx/internal/shared"
	"github.com/desertthunder/tabx/internal/ui"
)

// apiClient builds a REST client for --url or the configured server.
func (r *Runner) apiClient(cmd *cli.Command) *services.APIService {
	baseURL := cmd.String("url")
	if baseURL == "" {
		baseURL = r.config.Server.BaseURL()
	}
	return services.NewAPIService(baseURL, r.httpClient)
}

// Status reports whether the server answers its health check.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	api := r.apiClient(cmd)
	if err := api.Health(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrServiceUnavailable, api.BaseURL(), err)
	}
	return r.writePlain("✓ tabx server is up at %s\n", api.BaseURL())
}

// TUI launches the interactive terminal UI against a running server.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	api := r.apiClient(cmd)
	if err := api.Health(ctx); err != nil {
		return fmt.Errorf("%w: start one with 'tabx serve' (%s: %v)", shared.ErrServiceUnavailable, api.BaseURL(), err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)
	r.logger.Info("starting tui", "server", api.BaseURL())

	if err := ui.Run(ctx, ui.NewSession(api)); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

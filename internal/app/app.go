// Package app provides application lifecycle management for the scouting data server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/citruscircuits/grosbeak/internal/config"
)

// App encapsulates all components needed to run the API server.
// It provides lifecycle management and graceful shutdown capabilities.
type App struct {
	config     *config.Config
	components *Components
	httpServer *http.Server
}

// Start starts the HTTP server. It blocks until the server stops or fails.
func (app *App) Start() error {
	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Serve serves HTTP on an existing listener. It blocks like Start.
func (app *App) Serve(l net.Listener) error {
	slog.Info("Server listening", "address", l.Addr().String())
	if err := app.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the application with the given timeout. The HTTP
// server drains first, then the cache, the store and telemetry are closed.
func (app *App) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}
	errs = append(errs, app.components.close(shutdownCtx))

	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *App) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *App) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetComponents returns the application components
func (app *App) GetComponents() *Components {
	return app.components
}

// close releases every component, collecting the errors.
func (c *Components) close(ctx context.Context) error {
	var errs []error
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}

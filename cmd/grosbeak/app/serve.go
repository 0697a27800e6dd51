package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/citruscircuits/grosbeak/internal/app"
	"github.com/citruscircuits/grosbeak/internal/config"
	"github.com/citruscircuits/grosbeak/internal/versions"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scouting data API server",
		Long: `Start the API server to serve scouting data to the viewer.

The server requires a configuration file (--config) that specifies:
- The default event and the record store (file, sqlite, postgres or memory)
- Optional redis view cache and API key authentication settings
- Telemetry settings

See examples/ directory for sample configurations.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().String("seed-dir", "", "File store tree copied into the record store at startup")

	for _, name := range []string{"address", "config", "seed-dir"} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", name, err))
		}
	}
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
	}

	slog.Info("Loaded configuration",
		"path", configPath,
		"event", cfg.GetEventKey(),
		"storage", cfg.GetStorageType())

	opts := []app.Option{
		app.WithConfig(cfg),
		app.WithAddress(viper.GetString("address")),
	}
	if dir := viper.GetString("seed-dir"); dir != "" {
		opts = append(opts, app.WithSeedDirectory(dir))
	}

	server, err := app.NewApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		if stopErr := server.Stop(defaultGracefulTimeout); stopErr != nil {
			slog.Error("Failed to stop server", "error", stopErr)
		}
		return err
	case <-ctx.Done():
	}

	// A second signal during shutdown kills the process
	stop()
	return server.Stop(defaultGracefulTimeout)
}

// commandContext returns the command context, defaulting to Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

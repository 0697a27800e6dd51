package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/citruscircuits/grosbeak/internal/cache"
	"github.com/citruscircuits/grosbeak/internal/sources"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import scouting data from a file store tree",
		Long: `Copy events from a file store tree (<dir>/<event>/<collection>.json and
<dir>/static/<type>.json) into the configured record store. Imported
collections replace existing ones. Cached views of imported events are
invalidated.`,
		RunE: runImport,
	}
	addConfigFlag(cmd)
	cmd.Flags().String("from", "", "File store tree to import (required)")
	cmd.Flags().StringSlice("event", nil, "Events to import (default: every event in the tree)")
	if err := cmd.MarkFlagRequired("from"); err != nil {
		panic(err)
	}
	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return fmt.Errorf("failed to get from flag: %w", err)
	}
	events, err := cmd.Flags().GetStringSlice("event")
	if err != nil {
		return fmt.Errorf("failed to get event flag: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	src, err := sources.NewFileStore(from)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		if events, err = src.ListEvents(ctx); err != nil {
			return err
		}
	}

	store, err := sources.NewStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer func() { _ = store.Close() }()

	importer, ok := store.(sources.Importer)
	if !ok {
		return fmt.Errorf("storage type %s does not support importing", cfg.GetStorageType())
	}

	var viewCache cache.ViewCache
	if cfg.Cache != nil {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.GetCacheTTL())
		if err != nil {
			slog.Warn("View cache unreachable, cached views expire on their own", "error", err)
		} else {
			viewCache = rc
			defer func() { _ = rc.Close() }()
		}
	}

	for _, event := range events {
		stats, err := sources.Copy(ctx, src, importer, event)
		if err != nil {
			return err
		}
		if viewCache != nil {
			if err := viewCache.Invalidate(ctx, event); err != nil {
				slog.Warn("Failed to invalidate cached views", "event", event, "error", err)
			}
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d collections, %d records, %d static files\n",
			event, stats.Collections, stats.Records, stats.StaticFiles)
	}
	return nil
}

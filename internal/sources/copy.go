package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/citruscircuits/grosbeak/internal/registry"
)

// CopyStats counts what Copy transferred.
type CopyStats struct {
	Collections int
	Records     int
	StaticFiles int
}

// Copy transfers every collection and static file of an event from src to
// dst. Collections present in dst are replaced; collections absent from src
// are left untouched.
func Copy(ctx context.Context, src Store, dst Importer, eventKey string) (CopyStats, error) {
	var stats CopyStats

	names, err := src.ListCollections(ctx, eventKey)
	if err != nil {
		return stats, fmt.Errorf("failed to list source collections: %w", err)
	}

	for _, name := range names {
		records, err := src.ReadCollection(ctx, eventKey, name)
		if err != nil {
			return stats, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := dst.ImportCollection(ctx, eventKey, name, records); err != nil {
			return stats, fmt.Errorf("failed to import %s: %w", name, err)
		}
		stats.Collections++
		stats.Records += len(records)
	}

	for _, fileType := range []string{registry.StaticFileMatchSchedule, registry.StaticFileTeamList} {
		data, err := src.StaticFile(ctx, fileType, eventKey)
		if errors.Is(err, ErrStaticFileNotFound) {
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read static file %s: %w", fileType, err)
		}
		if err := dst.ImportStaticFile(ctx, fileType, eventKey, data); err != nil {
			return stats, fmt.Errorf("failed to import static file %s: %w", fileType, err)
		}
		stats.StaticFiles++
	}

	slog.Info("Copied event data",
		"event", eventKey,
		"collections", stats.Collections,
		"records", stats.Records,
		"static_files", stats.StaticFiles)
	return stats, nil
}

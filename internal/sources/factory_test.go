package sources

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citruscircuits/grosbeak/internal/config"
)

func TestNewStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      func(t *testing.T) *config.Config
		wantType any
		wantErr  string
	}{
		{
			name:    "nil config",
			cfg:     func(*testing.T) *config.Config { return nil },
			wantErr: "config cannot be nil",
		},
		{
			name: "file",
			cfg: func(t *testing.T) *config.Config {
				return &config.Config{Storage: config.StorageConfig{
					Type: config.StorageTypeFile,
					File: &config.FileConfig{Path: t.TempDir()},
				}}
			},
			wantType: &FileStore{},
		},
		{
			name: "memory",
			cfg: func(*testing.T) *config.Config {
				return &config.Config{Storage: config.StorageConfig{Type: config.StorageTypeMemory}}
			},
			wantType: &MemoryStore{},
		},
		{
			name: "sqlite",
			cfg: func(t *testing.T) *config.Config {
				return &config.Config{Storage: config.StorageConfig{
					Type:   config.StorageTypeSQLite,
					SQLite: &config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "g.db")},
				}}
			},
			wantType: &SQLiteStore{},
		},
		{
			name: "sqlite without section",
			cfg: func(*testing.T) *config.Config {
				return &config.Config{Storage: config.StorageConfig{Type: config.StorageTypeSQLite}}
			},
			wantErr: "storage.sqlite is required",
		},
		{
			name: "unknown",
			cfg: func(*testing.T) *config.Config {
				return &config.Config{Storage: config.StorageConfig{Type: "mongo"}}
			},
			wantErr: "unsupported storage type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, err := NewStore(context.Background(), tt.cfg(t))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			assert.IsType(t, tt.wantType, store)
		})
	}
}

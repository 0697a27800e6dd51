package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citruscircuits/grosbeak/internal/aggregate"
	"github.com/citruscircuits/grosbeak/internal/config"
	"github.com/citruscircuits/grosbeak/internal/sources"
)

// memoryConfig creates a minimal valid config backed by the memory store
func memoryConfig() *config.Config {
	return &config.Config{
		EventKey: "2024cave",
		Storage:  config.StorageConfig{Type: config.StorageTypeMemory},
	}
}

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	built, err := baseConfig(WithConfig(memoryConfig()))
	require.NoError(t, err)
	assert.Equal(t, defaultHTTPAddress, built.address)
	assert.Equal(t, defaultRequestTimeout, built.requestTimeout)

	_, err = baseConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")

	_, err = baseConfig(WithConfig(&config.Config{EventKey: "../x"}))
	require.Error(t, err)

	_, err = baseConfig(WithConfig(memoryConfig()), WithRequestTimeout(0))
	require.Error(t, err)
}

func TestWithAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		address string
		want    string
		wantErr bool
	}{
		{name: "valid address", address: ":9999", want: ":9999"},
		{name: "valid address with host", address: "127.0.0.1:9999", want: "127.0.0.1:9999"},
		{name: "valid address with localhost", address: "localhost:9999", want: "localhost:9999"},
		{name: "invalid empty address", address: "", wantErr: true},
		{name: "invalid empty port", address: ":", wantErr: true},
		{name: "invalid missing port", address: "localhost", wantErr: true},
		{name: "invalid port range", address: "localhost:999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &appConfig{}
			err := WithAddress(tt.address)(cfg)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.address)
		})
	}
}

func TestWithMiddlewares(t *testing.T) {
	t.Parallel()
	cfg := &appConfig{}
	middleware1 := func(next http.Handler) http.Handler { return next }
	middleware2 := func(next http.Handler) http.Handler { return next }

	require.NoError(t, WithMiddlewares(middleware1, middleware2)(cfg))
	assert.Len(t, cfg.middlewares, 2)
}

func TestNewApp_Routes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := sources.NewMemoryStore()
	require.NoError(t, store.ImportCollection(ctx, "2024cave", "obj_team", []aggregate.Record{
		{"team_number": json.Number("254"), "auto_avg": json.Number("12.5")},
	}))
	require.NoError(t, store.CreateCredential(ctx, sources.Credential{APIKey: "viewer-key", Level: sources.LevelViewer}))

	app, err := NewApp(ctx, WithConfig(memoryConfig()), WithStore(store))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	handler := app.GetHTTPServer().Handler

	tests := []struct {
		name       string
		method     string
		path       string
		apiKey     string
		wantStatus int
	}{
		{name: "health is public", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "readiness is public", method: http.MethodGet, path: "/readiness", wantStatus: http.StatusOK},
		{name: "viewer needs a key", method: http.MethodGet, path: "/api/viewer", wantStatus: http.StatusUnauthorized},
		{name: "unknown key", method: http.MethodGet, path: "/api/viewer", apiKey: "nope", wantStatus: http.StatusUnauthorized},
		{name: "viewer", method: http.MethodGet, path: "/api/viewer", apiKey: "viewer-key", wantStatus: http.StatusOK},
		{
			name:       "credentials need admin",
			method:     http.MethodPost,
			path:       "/api/credentials",
			apiKey:     "viewer-key",
			wantStatus: http.StatusForbidden,
		},
		{name: "metrics disabled", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestNewApp_BootstrapAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := memoryConfig()
	cfg.Auth = &config.AuthConfig{BootstrapAdmin: true}
	store := sources.NewMemoryStore()

	app, err := NewApp(ctx, WithConfig(cfg), WithStore(store))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	count, err := store.CountCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewApp_SeedDirectory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2024cave"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024cave", "obj_team.json"),
		[]byte(`[{"team_number":254},{"team_number":1678}]`), 0o600))

	cfg := memoryConfig()
	cfg.Auth = &config.AuthConfig{Disabled: true}

	app, err := NewApp(ctx, WithConfig(cfg), WithSeedDirectory(dir))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	records, err := app.GetComponents().Store.ReadCollection(ctx, "2024cave", "obj_team")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	rr := httptest.NewRecorder()
	app.GetHTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/viewer", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"1678"`)
}

func TestNewApp_RedisCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.Auth = &config.AuthConfig{Disabled: true}
	cfg.Cache = &config.CacheConfig{RedisURL: "redis://" + mr.Addr(), TTL: "1m"}

	store := sources.NewMemoryStore()
	require.NoError(t, store.ImportCollection(ctx, "2024cave", "obj_team", []aggregate.Record{
		{"team_number": json.Number("254")},
	}))

	app, err := NewApp(ctx, WithConfig(cfg), WithStore(store))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })
	require.NotNil(t, app.GetComponents().Cache)

	rr := httptest.NewRecorder()
	app.GetHTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/viewer", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, mr.Keys(), 1, "the built view is cached")
}

func TestNewApp_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := NewApp(ctx)
	require.Error(t, err)

	cfg := memoryConfig()
	cfg.Cache = &config.CacheConfig{RedisURL: "redis://127.0.0.1:1"}
	_, err = NewApp(ctx, WithConfig(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view cache")

	_, err = NewApp(ctx, WithConfig(memoryConfig()), WithSeedDirectory(filepath.Join(t.TempDir(), "missing")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed directory")
}

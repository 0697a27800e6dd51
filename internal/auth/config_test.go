package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPublicPath(t *testing.T) {
	t.Parallel()

	standardPublicPaths := []string{"/health", "/readiness", "/metrics"}

	tests := []struct {
		name        string
		path        string
		publicPaths []string
		want        bool
	}{
		// Basic functionality
		{"exact match", "/health", standardPublicPaths, true},
		{"subpath match", "/metrics/prometheus", standardPublicPaths, true},
		{"no match", "/api/viewer", standardPublicPaths, false},
		{"empty public paths", "/any", []string{}, false},
		{"nil public paths", "/health", nil, false},

		// Path traversal attacks (security critical)
		{"traversal to protected", "/health/../api/viewer", standardPublicPaths, false},
		{"traversal multiple levels", "/metrics/../../api/credentials", standardPublicPaths, false},
		{"traversal stays in public", "/metrics/v1/../v2", standardPublicPaths, true},

		// Double encoding attacks
		{"encoded path separators", "/readiness/..%2f..%2fapi/viewer", standardPublicPaths, false},
		{"encoded dots", "/health/%2E%2E/api/viewer", standardPublicPaths, false},
		{"relative request path", "metrics", standardPublicPaths, true},

		// Unintended prefix matches (security critical)
		{"healthcheck not health", "/healthcheck", standardPublicPaths, false},
		{"readinessz not readiness", "/readinessz", standardPublicPaths, false},

		// Correct segment boundaries
		{"health/check matches", "/health/check", standardPublicPaths, true},
		{"trailing slash", "/health/", standardPublicPaths, true},

		// Path normalization
		{"double slash", "//health", standardPublicPaths, true},
		{"dot reference", "/./metrics/x", standardPublicPaths, true},

		// Root path special case
		{"root exact", "/", []string{"/"}, true},
		{"root makes all public", "/api/collection/obj_tim", []string{"/"}, true},

		// Case sensitivity (URLs are case-sensitive)
		{"case sensitive", "/Health", standardPublicPaths, false},

		// Combined attack
		{"traversal with normalization", "//health/..//api", standardPublicPaths, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsPublicPath(tt.path, tt.publicPaths)
			assert.Equal(t, tt.want, got, "path=%q, publicPaths=%v", tt.path, tt.publicPaths)
		})
	}
}

package auth

import (
	"path"
	"slices"
	"strings"
)

// DefaultPublicPaths bypass authentication
var DefaultPublicPaths = []string{"/health", "/readiness", "/version", "/metrics"}

// IsPublicPath reports whether requestPath is one of publicPaths or below
// one of them. Matching is on whole segments after cleaning, so /health
// covers /health/check but not /healthcheck. Paths carrying encoded
// separators or dots never match.
func IsPublicPath(requestPath string, publicPaths []string) bool {
	lower := strings.ToLower(requestPath)
	if strings.Contains(lower, "%2f") || strings.Contains(lower, "%2e") {
		return false
	}

	p := cleanRooted(requestPath)
	return slices.ContainsFunc(publicPaths, func(public string) bool {
		public = cleanRooted(public)
		return public == "/" || p == public || strings.HasPrefix(p, public+"/")
	})
}

// cleanRooted cleans p and anchors it at /
func cleanRooted(p string) string {
	return path.Clean("/" + p)
}

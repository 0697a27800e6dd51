package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/citruscircuits/grosbeak/internal/sources"
)

// AdminKeyDescription labels the bootstrap admin credential
const AdminKeyDescription = "Admin Key"

// GenerateAPIKey returns a new random key: a version 4 UUID without dashes.
func GenerateAPIKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// EnsureAdminCredential creates an admin credential when the store holds
// none. It returns the new key, or "" when credentials already exist.
func EnsureAdminCredential(ctx context.Context, store sources.CredentialStore) (string, error) {
	n, err := store.CountCredentials(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count credentials: %w", err)
	}
	if n > 0 {
		return "", nil
	}

	key := GenerateAPIKey()
	err = store.CreateCredential(ctx, sources.Credential{
		APIKey:      key,
		Description: AdminKeyDescription,
		Level:       sources.LevelAdmin,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create admin credential: %w", err)
	}

	slog.Info("Created bootstrap admin credential")
	return key, nil
}

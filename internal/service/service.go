// Package service provides the business logic behind the scouting data API
package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/citruscircuits/grosbeak/internal/aggregate"
	"github.com/citruscircuits/grosbeak/internal/sources"
)

var (
	// ErrCollectionNotFound is returned for collections outside the registry or absent from the store
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrStaticFileTypeNotAllowed is returned for unknown static file types
	ErrStaticFileTypeNotAllowed = errors.New("static file type not allowed")
	// ErrStaticFileNotFound is returned when no static file is stored for the event
	ErrStaticFileNotFound = errors.New("static file not found")
	// ErrInvalidEventKey is returned for event keys that cannot name an event
	ErrInvalidEventKey = errors.New("invalid event key")
	// ErrInvalidLevel is returned when creating a credential with an unknown level
	ErrInvalidLevel = errors.New("invalid access level")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go Service

// Service defines the operations of the scouting data API
type Service interface {
	// CheckReadiness checks that the record store is reachable
	CheckReadiness(ctx context.Context) error

	// GetViewerData returns the aggregated view of an event
	GetViewerData(ctx context.Context, req ViewerRequest) (aggregate.View, error)

	// ReadCollection returns the raw documents of a registered collection
	ReadCollection(ctx context.Context, eventKey, collection string) ([]aggregate.Record, error)

	// GetStaticFile returns a static file payload of an event
	GetStaticFile(ctx context.Context, fileType, eventKey string) (json.RawMessage, error)

	// CreateCredential issues a new API key
	CreateCredential(ctx context.Context, description string, level int) (*sources.Credential, error)
}

// ViewerRequest selects the event and build options of a viewer request
type ViewerRequest struct {
	// EventKey names the event; empty selects the configured default
	EventKey string
	Options  aggregate.Options
}

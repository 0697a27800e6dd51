package app

import (
	"github.com/citruscircuits/grosbeak/internal/cache"
	"github.com/citruscircuits/grosbeak/internal/service"
	"github.com/citruscircuits/grosbeak/internal/sources"
	"github.com/citruscircuits/grosbeak/internal/telemetry"
)

// Components groups all application components
type Components struct {
	// Service provides the scouting data business logic
	Service service.Service

	// Store is the record store shared by the service and authentication
	Store sources.Store

	// Cache is the view cache (optional)
	Cache cache.ViewCache

	// Telemetry holds the tracer and meter providers
	Telemetry *telemetry.Telemetry
}

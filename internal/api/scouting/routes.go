// Package scouting provides the /api handlers serving scouting data to the viewer.
package scouting

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/citruscircuits/grosbeak/internal/aggregate"
	"github.com/citruscircuits/grosbeak/internal/api/common"
	"github.com/citruscircuits/grosbeak/internal/auth"
	"github.com/citruscircuits/grosbeak/internal/registry"
	"github.com/citruscircuits/grosbeak/internal/service"
	"github.com/citruscircuits/grosbeak/internal/sources"
)

// maxCredentialBody bounds the size of a credential request body
const maxCredentialBody = 64 << 10

// Query parameters of the viewer endpoint
const (
	ParamUseStrings                  = "use_strings"
	ParamEventKey                    = "event_key"
	ParamIgnoredCollections          = "ignored_collections"
	ParamIgnoredStringifyFields      = "itsd"
	ParamIgnoredStringifyCollections = "itsc"
)

// CreateCredentialRequest is the body of POST /api/credentials
type CreateCredentialRequest struct {
	Description string `json:"description"`
	Level       *int   `json:"level"`
}

// Routes handles HTTP requests for the scouting data endpoints.
type Routes struct {
	service service.Service
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.Service) *Routes {
	return &Routes{service: svc}
}

// Router creates the router mounted under /api.
func Router(svc service.Service) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()
	r.Get("/viewer", routes.getViewerData)
	r.Get("/collection/{collectionName}", routes.readCollection)
	r.Get("/match-schedule/{eventKey}", routes.staticFile(registry.StaticFileMatchSchedule))
	r.Get("/team-list/{eventKey}", routes.staticFile(registry.StaticFileTeamList))
	r.With(auth.RequireLevel(sources.LevelAdmin)).Post("/credentials", routes.createCredential)

	return r
}

// getViewerData handles GET /api/viewer
func (routes *Routes) getViewerData(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	useStrings, err := common.ParseBoolQuery(query, ParamUseStrings, false)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := service.ViewerRequest{
		EventKey: query.Get(ParamEventKey),
		Options: aggregate.Options{
			UseStrings:                  useStrings,
			IgnoredCollections:          aggregate.NewSet(common.QueryList(query, ParamIgnoredCollections)...),
			IgnoredStringifyFields:      aggregate.NewSet(common.QueryList(query, ParamIgnoredStringifyFields)...),
			IgnoredStringifyCollections: aggregate.NewSet(common.QueryList(query, ParamIgnoredStringifyCollections)...),
		},
	}

	view, err := routes.service.GetViewerData(r.Context(), req)
	if err != nil {
		routes.writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, view, http.StatusOK)
}

// readCollection handles GET /api/collection/{collectionName}
func (routes *Routes) readCollection(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetAndValidateURLParam(r, "collectionName")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := routes.service.ReadCollection(r.Context(), r.URL.Query().Get(ParamEventKey), name)
	if err != nil {
		routes.writeServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []aggregate.Record{}
	}
	common.WriteJSONResponse(w, records, http.StatusOK)
}

// staticFile returns the handler for one static file type
func (routes *Routes) staticFile(fileType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventKey, err := common.GetAndValidateURLParam(r, "eventKey")
		if err != nil {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}

		data, err := routes.service.GetStaticFile(r.Context(), fileType, eventKey)
		if err != nil {
			routes.writeServiceError(w, r, err)
			return
		}
		common.WriteRawJSON(w, data, http.StatusOK)
	}
}

// createCredential handles POST /api/credentials
func (routes *Routes) createCredential(w http.ResponseWriter, r *http.Request) {
	var body CreateCredentialRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCredentialBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		common.WriteErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Level == nil {
		common.WriteErrorResponse(w, "level is required", http.StatusBadRequest)
		return
	}

	cred, err := routes.service.CreateCredential(r.Context(), body.Description, *body.Level)
	if err != nil {
		routes.writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, cred, http.StatusCreated)
}

// writeServiceError maps service errors onto HTTP responses. Storage and
// data errors are logged and reported with a generic message.
func (*Routes) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEventKey),
		errors.Is(err, service.ErrInvalidLevel):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrCollectionNotFound):
		common.WriteErrorResponse(w, "Collection not found/allowed", http.StatusNotFound)
	case errors.Is(err, service.ErrStaticFileTypeNotAllowed):
		common.WriteErrorResponse(w, "Static file type not found/allowed", http.StatusNotFound)
	case errors.Is(err, service.ErrStaticFileNotFound):
		common.WriteErrorResponse(w, "Static file not found", http.StatusNotFound)
	case errors.Is(err, sources.ErrCredentialExists):
		common.WriteErrorResponse(w, "Credential already exists", http.StatusConflict)
	case errors.Is(err, aggregate.ErrMissingKeyField):
		slog.Error("Malformed scouting document", "error", err, "path", r.URL.Path)
		common.WriteErrorResponse(w, "Scouting data is malformed", http.StatusInternalServerError)
	case errors.Is(err, aggregate.ErrSourceUnavailable):
		slog.Error("Record store unavailable", "error", err, "path", r.URL.Path)
		common.WriteErrorResponse(w, "Scouting data is unavailable", http.StatusInternalServerError)
	default:
		slog.Error("Request failed", "error", err, "path", r.URL.Path)
		common.WriteErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}

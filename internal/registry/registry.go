package registry

import (
	"fmt"
	"slices"
)

// DocumentType is the semantic category a source record belongs to. It
// determines which fields form the record's natural key.
type DocumentType string

const (
	// TypeTeam describes one team across an event
	TypeTeam DocumentType = "team"
	// TypeTIM describes one team in one match
	TypeTIM DocumentType = "tim"
	// TypeAIM describes one alliance in one match
	TypeAIM DocumentType = "aim"
	// TypeAlliance describes one playoff alliance
	TypeAlliance DocumentType = "alliance"
	// TypeAutoPaths describes one autonomous path run by a team
	TypeAutoPaths DocumentType = "auto_paths"
)

const (
	// IDField is the storage-internal identifier that never leaves the service
	IDField = "_id"

	// AllianceColorField is the boolean key field projected to "red" or "blue"
	AllianceColorField = "alliance_color_is_red"

	// AllianceRed is the key component used when AllianceColorField is true
	AllianceRed = "red"

	// AllianceBlue is the key component used when AllianceColorField is false
	AllianceBlue = "blue"
)

const (
	// StaticFileMatchSchedule is the static file type holding the match schedule
	StaticFileMatchSchedule = "match-schedule"

	// StaticFileTeamList is the static file type holding the team list
	StaticFileTeamList = "team-list"
)

// DocumentTypes returns every document type in canonical order.
func DocumentTypes() []DocumentType {
	return []DocumentType{TypeTeam, TypeTIM, TypeAIM, TypeAlliance, TypeAutoPaths}
}

// IsStaticFileType reports whether fileType may be served from static storage.
func IsStaticFileType(fileType string) bool {
	return fileType == StaticFileMatchSchedule || fileType == StaticFileTeamList
}

// Descriptor binds a source collection to the document type its records describe.
type Descriptor struct {
	Collection string
	Type       DocumentType
}

// Registry is the static, ordered mapping from collections to document types
// and from document types to their natural key fields. Descriptor order is
// merge precedence: later collections win field conflicts.
type Registry struct {
	descriptors []Descriptor
	byName      map[string]DocumentType
	keyFields   map[DocumentType][]string
}

// DefaultKeyFields returns the natural key table for every document type.
func DefaultKeyFields() map[DocumentType][]string {
	return map[DocumentType][]string{
		TypeTeam:      {"team_number"},
		TypeTIM:       {"match_number", "team_number"},
		TypeAIM:       {"match_number", AllianceColorField},
		TypeAlliance:  {"alliance_num"},
		TypeAutoPaths: {"team_number", "path_number"},
	}
}

// DefaultDescriptors returns the production collection table.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{Collection: "raw_obj_pit", Type: TypeTeam},
		{Collection: "tba_tim", Type: TypeTIM},
		{Collection: "obj_tim", Type: TypeTIM},
		{Collection: "obj_team", Type: TypeTeam},
		{Collection: "subj_team", Type: TypeTeam},
		{Collection: "predicted_aim", Type: TypeAIM},
		{Collection: "predicted_team", Type: TypeTeam},
		{Collection: "tba_team", Type: TypeTeam},
		{Collection: "pickability", Type: TypeTeam},
		{Collection: "picklist", Type: TypeTeam},
		{Collection: "predicted_alliances", Type: TypeAlliance},
		{Collection: "auto_paths", Type: TypeAutoPaths},
		{Collection: "subj_tim", Type: TypeTIM},
	}
}

// Default returns the registry used by the production service.
func Default() *Registry {
	reg, err := New(DefaultDescriptors(), DefaultKeyFields())
	if err != nil {
		// the built-in tables are consistent
		panic(err)
	}
	return reg
}

// New builds a registry from an ordered descriptor list and a key table.
// Every descriptor must reference a type with at least one key field and
// collection names must be unique.
func New(descriptors []Descriptor, keyFields map[DocumentType][]string) (*Registry, error) {
	r := &Registry{
		descriptors: make([]Descriptor, 0, len(descriptors)),
		byName:      make(map[string]DocumentType, len(descriptors)),
		keyFields:   make(map[DocumentType][]string, len(keyFields)),
	}

	for docType, fields := range keyFields {
		if len(fields) == 0 {
			return nil, fmt.Errorf("document type %q has no key fields", docType)
		}
		r.keyFields[docType] = slices.Clone(fields)
	}

	for i, d := range descriptors {
		if d.Collection == "" {
			return nil, fmt.Errorf("descriptor[%d]: collection name is required", i)
		}
		if _, ok := r.keyFields[d.Type]; !ok {
			return nil, fmt.Errorf("descriptor[%d] (%s): unknown document type %q", i, d.Collection, d.Type)
		}
		if _, dup := r.byName[d.Collection]; dup {
			return nil, fmt.Errorf("descriptor[%d]: duplicate collection %q", i, d.Collection)
		}
		r.byName[d.Collection] = d.Type
		r.descriptors = append(r.descriptors, d)
	}

	return r, nil
}

// Descriptors returns the descriptors in precedence order.
func (r *Registry) Descriptors() []Descriptor {
	return slices.Clone(r.descriptors)
}

// TypeOf returns the document type for a collection. Unknown collections
// report false and are excluded from aggregation.
func (r *Registry) TypeOf(collection string) (DocumentType, bool) {
	t, ok := r.byName[collection]
	return t, ok
}

// KeyFieldsOf returns the ordered key fields of a document type, or nil when
// the type is unknown.
func (r *Registry) KeyFieldsOf(docType DocumentType) []string {
	return slices.Clone(r.keyFields[docType])
}

// Types returns every document type that has a key table, in canonical order
// first and then any additional types sorted by name.
func (r *Registry) Types() []DocumentType {
	out := make([]DocumentType, 0, len(r.keyFields))
	seen := make(map[DocumentType]bool, len(r.keyFields))
	for _, t := range DocumentTypes() {
		if _, ok := r.keyFields[t]; ok {
			out = append(out, t)
			seen[t] = true
		}
	}
	var extra []DocumentType
	for t := range r.keyFields {
		if !seen[t] {
			extra = append(extra, t)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

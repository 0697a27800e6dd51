package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/citruscircuits/grosbeak/internal/aggregate"
	"github.com/citruscircuits/grosbeak/internal/registry"
)

var (
	// ErrStaticFileNotFound is returned when no static file is stored for an event
	ErrStaticFileNotFound = errors.New("static file not found")
	// ErrCredentialNotFound is returned when an API key is unknown
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrCredentialExists is returned when creating a credential whose key is taken
	ErrCredentialExists = errors.New("credential already exists")
)

// Access levels carried by credentials
const (
	LevelViewer = 0
	LevelScout  = 1
	LevelAdmin  = 2
)

// Credential is an API key and the access level it grants
type Credential struct {
	APIKey      string `json:"api_key"`
	Description string `json:"description"`
	Level       int    `json:"level"`
}

// Validate checks that the credential can be stored
func (c Credential) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key cannot be empty")
	}
	if c.Level < LevelViewer || c.Level > LevelAdmin {
		return fmt.Errorf("level must be between %d and %d, got %d", LevelViewer, LevelAdmin, c.Level)
	}
	return nil
}

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=types.go Store,CredentialStore

// CredentialStore persists API credentials
type CredentialStore interface {
	// LookupCredential returns the credential for apiKey or ErrCredentialNotFound
	LookupCredential(ctx context.Context, apiKey string) (*Credential, error)

	// CreateCredential stores a new credential, ErrCredentialExists if the key is taken
	CreateCredential(ctx context.Context, cred Credential) error

	// CountCredentials returns how many credentials are stored
	CountCredentials(ctx context.Context) (int, error)
}

// Store is the read side of the scouting data plus credentials
type Store interface {
	CredentialStore

	// Documents returns the record source for one event
	Documents(eventKey string) aggregate.DataSource

	// ListCollections returns the collections holding documents for an event, sorted
	ListCollections(ctx context.Context, eventKey string) ([]string, error)

	// ReadCollection returns every document of a collection with its _id
	// rendered as a string. A missing collection yields an empty slice.
	ReadCollection(ctx context.Context, eventKey, collection string) ([]aggregate.Record, error)

	// StaticFile returns the data payload of a static file
	StaticFile(ctx context.Context, fileType, eventKey string) (json.RawMessage, error)

	// Ping checks the store is reachable
	Ping(ctx context.Context) error

	// Close releases the store's resources
	Close() error
}

// Importer writes scouting data into a store. It replaces what is stored
// for the given event and collection or file type.
type Importer interface {
	ImportCollection(ctx context.Context, eventKey, collection string, records []aggregate.Record) error
	ImportStaticFile(ctx context.Context, fileType, eventKey string, data json.RawMessage) error
}

// StaticDocument is the stored form of a static file
type StaticDocument struct {
	EventKey string          `json:"event_key"`
	Data     json.RawMessage `json:"data"`
}

// unavailable marks err as a connectivity failure of the store.
func unavailable(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", aggregate.ErrSourceUnavailable, err)
}

// decodeRecord parses one JSON object keeping numbers as json.Number so
// integer keys and large values survive unchanged.
func decodeRecord(data []byte) (aggregate.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var record aggregate.Record
	if err := dec.Decode(&record); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.New("document is not a JSON object")
	}
	return record, nil
}

// decodeRecords parses a JSON array of objects, keeping numbers as json.Number.
func decodeRecords(data []byte) ([]aggregate.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []aggregate.Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// withRowID sets _id from the row identifier when the document has none
// and renders an existing one as a string.
func withRowID(record aggregate.Record, rowID int64) aggregate.Record {
	id, ok := record[registry.IDField]
	if !ok || id == nil {
		record[registry.IDField] = strconv.FormatInt(rowID, 10)
		return record
	}
	record[registry.IDField] = idString(id)
	return record
}

// idString renders an identifier value as a string. Object-shaped ids
// ({"$oid": "..."}) as produced by mongoexport collapse to their hex value.
func idString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case map[string]any:
		if oid, ok := v["$oid"].(string); ok {
			return oid
		}
	}
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Sprint(id)
	}
	return string(data)
}

// staticPayload extracts the data field of a stored static document.
func staticPayload(document []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(document) {
		return nil, errors.New("stored static file is not valid JSON")
	}
	data := gjson.GetBytes(document, "data")
	if !data.Exists() {
		return nil, ErrStaticFileNotFound
	}
	return json.RawMessage(data.Raw), nil
}

// checkStaticType rejects unknown static file types before they reach storage.
func checkStaticType(fileType string) error {
	if !registry.IsStaticFileType(fileType) {
		return fmt.Errorf("%w: unknown type %q", ErrStaticFileNotFound, fileType)
	}
	return nil
}

// recordSeq adapts a slice to the DataSource sequence shape.
func recordSeq(records []aggregate.Record, err error) iter.Seq2[aggregate.Record, error] {
	return func(yield func(aggregate.Record, error) bool) {
		if err != nil {
			yield(nil, err)
			return
		}
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

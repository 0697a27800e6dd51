package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/citruscircuits/grosbeak/internal/aggregate"
)

// MemoryStore keeps everything in process. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]map[string][]aggregate.Record
	static map[string]map[string]json.RawMessage
	creds  map[string]Credential
}

var (
	_ Store    = (*MemoryStore)(nil)
	_ Importer = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   map[string]map[string][]aggregate.Record{},
		static: map[string]map[string]json.RawMessage{},
		creds:  map[string]Credential{},
	}
}

// Documents returns the record source for one event
func (m *MemoryStore) Documents(eventKey string) aggregate.DataSource {
	return aggregate.DataSourceFunc(func(ctx context.Context, collection string) iter.Seq2[aggregate.Record, error] {
		if err := ctx.Err(); err != nil {
			return recordSeq(nil, err)
		}
		return recordSeq(m.snapshot(eventKey, collection), nil)
	})
}

// snapshot copies the records so callers never alias stored maps.
func (m *MemoryStore) snapshot(eventKey, collection string) []aggregate.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.docs[eventKey][collection]
	out := make([]aggregate.Record, len(stored))
	for i, r := range stored {
		out[i] = r.Clone()
	}
	return out
}

// ListCollections returns the collections holding documents for an event
func (m *MemoryStore) ListCollections(_ context.Context, eventKey string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.docs[eventKey])), nil
}

// ReadCollection returns every document of a collection
func (m *MemoryStore) ReadCollection(_ context.Context, eventKey, collection string) ([]aggregate.Record, error) {
	records := m.snapshot(eventKey, collection)
	for i, r := range records {
		records[i] = withRowID(r, int64(i+1))
	}
	return records, nil
}

// StaticFile returns the data payload of a static file
func (m *MemoryStore) StaticFile(_ context.Context, fileType, eventKey string) (json.RawMessage, error) {
	if err := checkStaticType(fileType); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.static[fileType][eventKey]
	if !ok {
		return nil, ErrStaticFileNotFound
	}
	return slices.Clone(data), nil
}

// ImportCollection replaces the documents of a collection
func (m *MemoryStore) ImportCollection(_ context.Context, eventKey, collection string, records []aggregate.Record) error {
	copied := make([]aggregate.Record, len(records))
	for i, r := range records {
		copied[i] = r.Clone()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.docs[eventKey] == nil {
		m.docs[eventKey] = map[string][]aggregate.Record{}
	}
	if len(copied) == 0 {
		delete(m.docs[eventKey], collection)
		return nil
	}
	m.docs[eventKey][collection] = copied
	return nil
}

// ImportStaticFile replaces the static file of an event
func (m *MemoryStore) ImportStaticFile(_ context.Context, fileType, eventKey string, data json.RawMessage) error {
	if err := checkStaticType(fileType); err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("static file %s for %s is not valid JSON", fileType, eventKey)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.static[fileType] == nil {
		m.static[fileType] = map[string]json.RawMessage{}
	}
	m.static[fileType][eventKey] = slices.Clone(data)
	return nil
}

// LookupCredential returns the credential for apiKey
func (m *MemoryStore) LookupCredential(_ context.Context, apiKey string) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cred, ok := m.creds[apiKey]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return &cred, nil
}

// CreateCredential stores a new credential
func (m *MemoryStore) CreateCredential(_ context.Context, cred Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.creds[cred.APIKey]; exists {
		return ErrCredentialExists
	}
	m.creds[cred.APIKey] = cred
	return nil
}

// CountCredentials returns how many credentials are stored
func (m *MemoryStore) CountCredentials(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.creds), nil
}

// Ping always succeeds
func (*MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op
func (*MemoryStore) Close() error { return nil }

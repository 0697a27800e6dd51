package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/tidwall/gjson"

	"github.com/citruscircuits/grosbeak/internal/aggregate"
	"github.com/citruscircuits/grosbeak/internal/config"
)

const (
	staticDir       = "static"
	credentialsDir  = "api"
	credentialsFile = "credentials.json"
	lockRetryDelay  = 25 * time.Millisecond
)

// FileStore reads JSON documents from a directory tree:
//
//	<root>/<event>/<collection>.json   array of documents
//	<root>/static/<type>.json          array of {"event_key", "data"}
//	<root>/api/credentials.json        array of credentials
//
// The credentials file is guarded by an advisory file lock so several
// processes can share one tree.
type FileStore struct {
	root string
}

var (
	_ Store    = (*FileStore)(nil)
	_ Importer = (*FileStore)(nil)
)

// NewFileStore creates a store rooted at dir. The directory must exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store path cannot be empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open file store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("file store path %s is not a directory", dir)
	}
	return &FileStore{root: dir}, nil
}

// checkName keeps event and collection names inside the store root.
func checkName(kind, name string) error {
	if !config.ValidEventKey(name) || name == staticDir || name == credentialsDir {
		return fmt.Errorf("invalid %s name %q", kind, name)
	}
	return nil
}

func (f *FileStore) collectionPath(eventKey, collection string) (string, error) {
	if err := checkName("event", eventKey); err != nil {
		return "", err
	}
	if err := checkName("collection", collection); err != nil {
		return "", err
	}
	return filepath.Join(f.root, eventKey, collection+".json"), nil
}

// readCollection returns nil, nil when the collection file does not exist.
func (f *FileStore) readCollection(eventKey, collection string) ([]aggregate.Record, error) {
	path, err := f.collectionPath(eventKey, collection)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // path is built from validated names under the configured root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, unavailable(fmt.Errorf("failed to read %s: %w", path, err))
	}

	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode collection %s/%s: %w", eventKey, collection, err)
	}
	return records, nil
}

// Documents returns the record source for one event
func (f *FileStore) Documents(eventKey string) aggregate.DataSource {
	return aggregate.DataSourceFunc(func(ctx context.Context, collection string) iter.Seq2[aggregate.Record, error] {
		if err := ctx.Err(); err != nil {
			return recordSeq(nil, err)
		}
		return recordSeq(f.readCollection(eventKey, collection))
	})
}

// ListCollections returns the collection files present for an event
func (f *FileStore) ListCollections(_ context.Context, eventKey string) ([]string, error) {
	if err := checkName("event", eventKey); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(f.root, eventKey))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, unavailable(err)
	}

	names := []string{}
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok || entry.IsDir() {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// ReadCollection returns every document of a collection
func (f *FileStore) ReadCollection(_ context.Context, eventKey, collection string) ([]aggregate.Record, error) {
	records, err := f.readCollection(eventKey, collection)
	if err != nil {
		return nil, err
	}
	for i, r := range records {
		records[i] = withRowID(r, int64(i+1))
	}
	if records == nil {
		records = []aggregate.Record{}
	}
	return records, nil
}

// StaticFile returns the data payload of a static file
func (f *FileStore) StaticFile(_ context.Context, fileType, eventKey string) (json.RawMessage, error) {
	if err := checkStaticType(fileType); err != nil {
		return nil, err
	}
	if !config.ValidEventKey(eventKey) {
		return nil, ErrStaticFileNotFound
	}

	path := filepath.Join(f.root, staticDir, fileType+".json")
	//nolint:gosec // fileType is one of the fixed static file types
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrStaticFileNotFound
		}
		return nil, unavailable(err)
	}

	doc := gjson.GetBytes(data, fmt.Sprintf(`#(event_key==%q)`, eventKey))
	if !doc.Exists() {
		return nil, ErrStaticFileNotFound
	}
	return staticPayload([]byte(doc.Raw))
}

// ImportCollection replaces a collection file
func (f *FileStore) ImportCollection(_ context.Context, eventKey, collection string, records []aggregate.Record) error {
	path, err := f.collectionPath(eventKey, collection)
	if err != nil {
		return err
	}
	if records == nil {
		records = []aggregate.Record{}
	}
	return writeJSONFile(path, records)
}

// ImportStaticFile replaces the entry for eventKey in a static file
func (f *FileStore) ImportStaticFile(ctx context.Context, fileType, eventKey string, data json.RawMessage) error {
	if err := checkStaticType(fileType); err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("static file %s for %s is not valid JSON", fileType, eventKey)
	}

	path := filepath.Join(f.root, staticDir, fileType+".json")
	return f.withLock(ctx, path, func() error {
		var docs []StaticDocument
		if err := readJSONFile(path, &docs); err != nil {
			return err
		}
		docs = slices.DeleteFunc(docs, func(d StaticDocument) bool { return d.EventKey == eventKey })
		docs = append(docs, StaticDocument{EventKey: eventKey, Data: data})
		return writeJSONFile(path, docs)
	})
}

func (f *FileStore) credentialsPath() string {
	return filepath.Join(f.root, credentialsDir, credentialsFile)
}

func (f *FileStore) readCredentials(ctx context.Context) ([]Credential, error) {
	var creds []Credential
	err := f.withRLock(ctx, f.credentialsPath(), func() error {
		return readJSONFile(f.credentialsPath(), &creds)
	})
	return creds, err
}

// LookupCredential returns the credential for apiKey
func (f *FileStore) LookupCredential(ctx context.Context, apiKey string) (*Credential, error) {
	creds, err := f.readCredentials(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range creds {
		if c.APIKey == apiKey {
			return &c, nil
		}
	}
	return nil, ErrCredentialNotFound
}

// CreateCredential appends a credential to the credentials file
func (f *FileStore) CreateCredential(ctx context.Context, cred Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}

	path := f.credentialsPath()
	return f.withLock(ctx, path, func() error {
		var creds []Credential
		if err := readJSONFile(path, &creds); err != nil {
			return err
		}
		if slices.ContainsFunc(creds, func(c Credential) bool { return c.APIKey == cred.APIKey }) {
			return ErrCredentialExists
		}
		return writeJSONFile(path, append(creds, cred))
	})
}

// CountCredentials returns how many credentials are stored
func (f *FileStore) CountCredentials(ctx context.Context) (int, error) {
	creds, err := f.readCredentials(ctx)
	return len(creds), err
}

// ListEvents returns the event directories under the root
func (f *FileStore) ListEvents(context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, unavailable(err)
	}

	events := []string{}
	for _, entry := range entries {
		if entry.IsDir() && checkName("event", entry.Name()) == nil {
			events = append(events, entry.Name())
		}
	}
	slices.Sort(events)
	return events, nil
}

// Ping checks that the root directory is still there
func (f *FileStore) Ping(context.Context) error {
	if _, err := os.Stat(f.root); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close is a no-op
func (*FileStore) Close() error { return nil }

func (*FileStore) withLock(ctx context.Context, path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("failed to lock %s", path)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

func (*FileStore) withRLock(ctx context.Context, path string, fn func() error) error {
	if _, err := os.Stat(filepath.Dir(path)); errors.Is(err, fs.ErrNotExist) {
		// nothing stored yet, and no directory to hold a lock file
		return fn()
	}
	lock := flock.New(path + ".lock")
	locked, err := lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("failed to lock %s", path)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

// readJSONFile decodes path into v; a missing file leaves v untouched.
func readJSONFile(path string, v any) error {
	//nolint:gosec // callers build path under the store root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return unavailable(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// writeJSONFile replaces path atomically via a temporary file and rename.
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package sources

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/citruscircuits/grosbeak/database"
	"github.com/citruscircuits/grosbeak/internal/aggregate"
)

// SQLiteStore keeps documents in an embedded SQLite database
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ Store    = (*SQLiteStore)(nil)
	_ Importer = (*SQLiteStore)(nil)
)

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string, busyTimeout time.Duration) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, unavailable(err)
	}

	// the migrator is not closed: that would close db
	m, err := database.NewSQLite(db)
	if err == nil {
		err = database.MigrateUp(m)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Documents returns the record source for one event. Rows are read in
// insertion order and released before the first record is yielded, since
// the single connection must stay free for other queries.
func (s *SQLiteStore) Documents(eventKey string) aggregate.DataSource {
	return aggregate.DataSourceFunc(func(ctx context.Context, collection string) iter.Seq2[aggregate.Record, error] {
		return recordSeq(s.queryDocuments(ctx, eventKey, collection))
	})
}

// queryDocuments reads a collection, setting _id from the row id for
// records that carry none.
func (s *SQLiteStore) queryDocuments(ctx context.Context, eventKey, collection string) ([]aggregate.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE event_key = ? AND collection = ? ORDER BY id`,
		eventKey, collection)
	if err != nil {
		return nil, unavailable(err)
	}
	defer func() { _ = rows.Close() }()

	records := []aggregate.Record{}
	for rows.Next() {
		var (
			id   int64
			body string
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		record, err := decodeRecord([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("failed to decode document %d: %w", id, err)
		}
		records = append(records, withRowID(record, id))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return records, nil
}

// ListCollections returns the collections holding documents for an event
func (s *SQLiteStore) ListCollections(ctx context.Context, eventKey string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT collection FROM documents WHERE event_key = ? ORDER BY collection`, eventKey)
	if err != nil {
		return nil, unavailable(err)
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, unavailable(rows.Err())
}

// ReadCollection returns every document of a collection
func (s *SQLiteStore) ReadCollection(ctx context.Context, eventKey, collection string) ([]aggregate.Record, error) {
	return s.queryDocuments(ctx, eventKey, collection)
}

// StaticFile returns the data payload of a static file
func (s *SQLiteStore) StaticFile(ctx context.Context, fileType, eventKey string) (json.RawMessage, error) {
	if err := checkStaticType(fileType); err != nil {
		return nil, err
	}

	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM static_files WHERE file_type = ? AND event_key = ?`,
		fileType, eventKey).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaticFileNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return staticPayload([]byte(document))
}

// ImportCollection replaces the documents of a collection in one transaction
func (s *SQLiteStore) ImportCollection(ctx context.Context, eventKey, collection string, records []aggregate.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM documents WHERE event_key = ? AND collection = ?`, eventKey, collection); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (event_key, collection, body) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		body, encErr := json.Marshal(r)
		if encErr != nil {
			return fmt.Errorf("failed to encode document: %w", encErr)
		}
		if _, err = stmt.ExecContext(ctx, eventKey, collection, string(body)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ImportStaticFile replaces the static file of an event
func (s *SQLiteStore) ImportStaticFile(ctx context.Context, fileType, eventKey string, data json.RawMessage) error {
	if err := checkStaticType(fileType); err != nil {
		return err
	}
	document, err := json.Marshal(StaticDocument{EventKey: eventKey, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode static file: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO static_files (file_type, event_key, document) VALUES (?, ?, ?)
		ON CONFLICT (file_type, event_key) DO UPDATE SET document = excluded.document`,
		fileType, eventKey, string(document))
	return err
}

// LookupCredential returns the credential for apiKey
func (s *SQLiteStore) LookupCredential(ctx context.Context, apiKey string) (*Credential, error) {
	var cred Credential
	err := s.db.QueryRowContext(ctx,
		`SELECT api_key, description, level FROM api_credentials WHERE api_key = ?`, apiKey).
		Scan(&cred.APIKey, &cred.Description, &cred.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return &cred, nil
}

// CreateCredential stores a new credential
func (s *SQLiteStore) CreateCredential(ctx context.Context, cred Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_credentials (api_key, description, level) VALUES (?, ?, ?)`,
		cred.APIKey, cred.Description, cred.Level)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrCredentialExists
	}
	return err
}

// CountCredentials returns how many credentials are stored
func (s *SQLiteStore) CountCredentials(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_credentials`).Scan(&n); err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// Ping checks the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return unavailable(s.db.PingContext(ctx))
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database handle
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citruscircuits/grosbeak/internal/aggregate"
)

// uniqueViolation is the PostgreSQL SQLSTATE for duplicate keys
const uniqueViolation = "23505"

// PostgresStore reads documents from PostgreSQL. The schema is created by
// the database package migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var (
	_ Store    = (*PostgresStore)(nil)
	_ Importer = (*PostgresStore)(nil)
)

// NewPostgresStore wraps an established pool. Close closes the pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("connection pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

// pgError wraps err, marking everything except server-side statement
// errors as a connectivity failure.
func pgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	return unavailable(err)
}

// Documents returns the record source for one event. Rows are streamed in
// insertion order, with _id set from the row id when the body has none.
func (s *PostgresStore) Documents(eventKey string) aggregate.DataSource {
	return aggregate.DataSourceFunc(func(ctx context.Context, collection string) iter.Seq2[aggregate.Record, error] {
		return func(yield func(aggregate.Record, error) bool) {
			rows, err := s.pool.Query(ctx,
				`SELECT id, body FROM documents WHERE event_key = $1 AND collection = $2 ORDER BY id`,
				eventKey, collection)
			if err != nil {
				yield(nil, pgError(err))
				return
			}
			defer rows.Close()

			for rows.Next() {
				var (
					id   int64
					body []byte
				)
				if err := rows.Scan(&id, &body); err != nil {
					yield(nil, err)
					return
				}
				record, err := decodeRecord(body)
				if err != nil {
					yield(nil, fmt.Errorf("failed to decode document %d in %s: %w", id, collection, err))
					return
				}
				if !yield(withRowID(record, id), nil) {
					return
				}
			}
			if err := rows.Err(); err != nil {
				yield(nil, pgError(err))
			}
		}
	})
}

// ListCollections returns the collections holding documents for an event
func (s *PostgresStore) ListCollections(ctx context.Context, eventKey string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT collection FROM documents WHERE event_key = $1 ORDER BY collection`, eventKey)
	if err != nil {
		return nil, pgError(err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, pgError(err)
	}
	return names, nil
}

// ReadCollection returns every document of a collection
func (s *PostgresStore) ReadCollection(ctx context.Context, eventKey, collection string) ([]aggregate.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, body FROM documents WHERE event_key = $1 AND collection = $2 ORDER BY id`,
		eventKey, collection)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	records := []aggregate.Record{}
	for rows.Next() {
		var (
			id   int64
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		record, err := decodeRecord(body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode document %d: %w", id, err)
		}
		records = append(records, withRowID(record, id))
	}
	if err := rows.Err(); err != nil {
		return nil, pgError(err)
	}
	return records, nil
}

// StaticFile returns the data payload of a static file
func (s *PostgresStore) StaticFile(ctx context.Context, fileType, eventKey string) (json.RawMessage, error) {
	if err := checkStaticType(fileType); err != nil {
		return nil, err
	}

	var document []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM static_files WHERE file_type = $1 AND event_key = $2`,
		fileType, eventKey).Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStaticFileNotFound
	}
	if err != nil {
		return nil, pgError(err)
	}
	return staticPayload(document)
}

// ImportCollection replaces the documents of a collection in one transaction
func (s *PostgresStore) ImportCollection(ctx context.Context, eventKey, collection string, records []aggregate.Record) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM documents WHERE event_key = $1 AND collection = $2`, eventKey, collection); err != nil {
			return pgError(err)
		}

		batch := &pgx.Batch{}
		for _, r := range records {
			body, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("failed to encode document: %w", err)
			}
			batch.Queue(`INSERT INTO documents (event_key, collection, body) VALUES ($1, $2, $3)`,
				eventKey, collection, body)
		}
		if batch.Len() == 0 {
			return nil
		}
		return pgError(tx.SendBatch(ctx, batch).Close())
	})
}

// ImportStaticFile replaces the static file of an event
func (s *PostgresStore) ImportStaticFile(ctx context.Context, fileType, eventKey string, data json.RawMessage) error {
	if err := checkStaticType(fileType); err != nil {
		return err
	}
	document, err := json.Marshal(StaticDocument{EventKey: eventKey, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode static file: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO static_files (file_type, event_key, document) VALUES ($1, $2, $3)
		ON CONFLICT (file_type, event_key) DO UPDATE SET document = excluded.document`,
		fileType, eventKey, document)
	return pgError(err)
}

// LookupCredential returns the credential for apiKey
func (s *PostgresStore) LookupCredential(ctx context.Context, apiKey string) (*Credential, error) {
	var cred Credential
	err := s.pool.QueryRow(ctx,
		`SELECT api_key, description, level FROM api_credentials WHERE api_key = $1`, apiKey).
		Scan(&cred.APIKey, &cred.Description, &cred.Level)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, pgError(err)
	}
	return &cred, nil
}

// CreateCredential stores a new credential
func (s *PostgresStore) CreateCredential(ctx context.Context, cred Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_credentials (api_key, description, level) VALUES ($1, $2, $3)`,
		cred.APIKey, cred.Description, cred.Level)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrCredentialExists
	}
	return pgError(err)
}

// CountCredentials returns how many credentials are stored
func (s *PostgresStore) CountCredentials(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM api_credentials`).Scan(&n); err != nil {
		return 0, pgError(err)
	}
	return n, nil
}

// Ping checks the database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	return pgError(s.pool.Ping(ctx))
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

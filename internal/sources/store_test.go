package sources

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citruscircuits/grosbeak/database"
	"github.com/citruscircuits/grosbeak/internal/aggregate"
	"github.com/citruscircuits/grosbeak/internal/registry"
)

type storeUnderTest interface {
	Store
	Importer
}

func collect(t *testing.T, src aggregate.DataSource, collection string) []aggregate.Record {
	t.Helper()

	var out []aggregate.Record
	for r, err := range src.Fetch(context.Background(), collection) {
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

// runStoreSuite checks the behaviour every backend shares.
func runStoreSuite(t *testing.T, concurrent bool, newStore func(t *testing.T) storeUnderTest) {
	t.Helper()

	parallel := func(t *testing.T) {
		if concurrent {
			t.Parallel()
		}
	}

	t.Run("documents", func(t *testing.T) {
		parallel(t)
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.ImportCollection(ctx, "2024cave", "obj_team", []aggregate.Record{
			{"team_number": json.Number("254"), "auto_avg": 12.5},
			{"team_number": json.Number("1678"), "auto_avg": 15.0, "_id": "abc"},
		}))
		require.NoError(t, s.ImportCollection(ctx, "2024cave", "tba_team", []aggregate.Record{
			{"team_number": json.Number("254"), "rank": json.Number("1")},
		}))
		require.NoError(t, s.ImportCollection(ctx, "2024other", "obj_team", []aggregate.Record{
			{"team_number": json.Number("3")},
		}))

		got := collect(t, s.Documents("2024cave"), "obj_team")
		require.Len(t, got, 2)
		assert.Equal(t, "254", got[0]["team_number"].(json.Number).String())
		assert.Equal(t, "1678", got[1]["team_number"].(json.Number).String(), "insertion order is kept")

		assert.Empty(t, collect(t, s.Documents("2024cave"), "subj_team"), "missing collection is empty")
		assert.Empty(t, collect(t, s.Documents("2024nowhere"), "obj_team"))

		names, err := s.ListCollections(ctx, "2024cave")
		require.NoError(t, err)
		assert.Equal(t, []string{"obj_team", "tba_team"}, names)

		names, err = s.ListCollections(ctx, "2024nowhere")
		require.NoError(t, err)
		assert.Empty(t, names)

		read, err := s.ReadCollection(ctx, "2024cave", "obj_team")
		require.NoError(t, err)
		require.Len(t, read, 2)
		assert.IsType(t, "", read[0][registry.IDField])
		assert.Equal(t, "abc", read[1][registry.IDField])

		read, err = s.ReadCollection(ctx, "2024cave", "subj_team")
		require.NoError(t, err)
		assert.Empty(t, read)
	})

	t.Run("import replaces collection", func(t *testing.T) {
		parallel(t)
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.ImportCollection(ctx, "dev", "obj_tim", []aggregate.Record{{"a": json.Number("1")}, {"a": json.Number("2")}}))
		require.NoError(t, s.ImportCollection(ctx, "dev", "obj_tim", []aggregate.Record{{"a": json.Number("3")}}))

		got := collect(t, s.Documents("dev"), "obj_tim")
		require.Len(t, got, 1)
		assert.Equal(t, json.Number("3"), got[0]["a"])
	})

	t.Run("aggregates through the engine", func(t *testing.T) {
		parallel(t)
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.ImportCollection(ctx, "dev", "obj_team", []aggregate.Record{
			{"team_number": json.Number("254"), "auto_avg": json.Number("12.5")},
		}))
		require.NoError(t, s.ImportCollection(ctx, "dev", "tba_team", []aggregate.Record{
			{"team_number": json.Number("254"), "rank": json.Number("1")},
		}))

		view, err := aggregate.NewEngine(registry.Default()).Build(ctx, s.Documents("dev"), aggregate.Options{})
		require.NoError(t, err)
		assert.Equal(t, aggregate.Node{"254": map[string]any{
			"auto_avg": json.Number("12.5"),
			"rank":     json.Number("1"),
		}}, normalizeNode(view[registry.TypeTeam]))
	})

	t.Run("static files", func(t *testing.T) {
		parallel(t)
		ctx := context.Background()
		s := newStore(t)

		schedule := json.RawMessage(`{"1":{"teams":[{"number":"254","color":"red"}]}}`)
		require.NoError(t, s.ImportStaticFile(ctx, registry.StaticFileMatchSchedule, "2024cave", schedule))
		require.NoError(t, s.ImportStaticFile(ctx, registry.StaticFileTeamList, "2024cave", json.RawMessage(`["254","1678"]`)))

		got, err := s.StaticFile(ctx, registry.StaticFileMatchSchedule, "2024cave")
		require.NoError(t, err)
		assert.JSONEq(t, string(schedule), string(got))

		got, err = s.StaticFile(ctx, registry.StaticFileTeamList, "2024cave")
		require.NoError(t, err)
		assert.JSONEq(t, `["254","1678"]`, string(got))

		_, err = s.StaticFile(ctx, registry.StaticFileTeamList, "2024other")
		assert.ErrorIs(t, err, ErrStaticFileNotFound)

		_, err = s.StaticFile(ctx, "pit-map", "2024cave")
		assert.ErrorIs(t, err, ErrStaticFileNotFound)

		// re-import overwrites
		require.NoError(t, s.ImportStaticFile(ctx, registry.StaticFileTeamList, "2024cave", json.RawMessage(`["1"]`)))
		got, err = s.StaticFile(ctx, registry.StaticFileTeamList, "2024cave")
		require.NoError(t, err)
		assert.JSONEq(t, `["1"]`, string(got))
	})

	t.Run("credentials", func(t *testing.T) {
		parallel(t)
		ctx := context.Background()
		s := newStore(t)

		n, err := s.CountCredentials(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = s.LookupCredential(ctx, "nope")
		assert.ErrorIs(t, err, ErrCredentialNotFound)

		cred := Credential{APIKey: "k1", Description: "Admin Key", Level: LevelAdmin}
		require.NoError(t, s.CreateCredential(ctx, cred))
		assert.ErrorIs(t, s.CreateCredential(ctx, cred), ErrCredentialExists)
		require.NoError(t, s.CreateCredential(ctx, Credential{APIKey: "k2", Level: LevelScout}))

		got, err := s.LookupCredential(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, cred, *got)

		n, err = s.CountCredentials(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		assert.Error(t, s.CreateCredential(ctx, Credential{APIKey: "k3", Level: 9}))
		assert.Error(t, s.CreateCredential(ctx, Credential{Level: LevelViewer}))
	})

	t.Run("ping and cancelled fetch", func(t *testing.T) {
		parallel(t)
		s := newStore(t)

		require.NoError(t, s.Ping(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var gotErr error
		for _, err := range s.Documents("dev").Fetch(ctx, "obj_team") {
			gotErr = err
		}
		assert.ErrorIs(t, gotErr, context.Canceled)
	})
}

// normalizeNode converts leaves to plain maps so equality ignores the
// Node/map distinction.
func normalizeNode(n aggregate.Node) aggregate.Node {
	out := aggregate.Node{}
	for k, v := range n {
		if child, ok := v.(aggregate.Node); ok {
			out[k] = map[string]any(child)
			continue
		}
		out[k] = v
	}
	return out
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	runStoreSuite(t, true, func(*testing.T) storeUnderTest { return NewMemoryStore() })
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	runStoreSuite(t, true, func(t *testing.T) storeUnderTest {
		s, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	runStoreSuite(t, true, func(t *testing.T) storeUnderTest {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "grosbeak.db"), 0)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestPostgresStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool, connStr := database.SetupTestDB(t)

	// subtests share the database, so each gets a clean slate in turn
	runStoreSuite(t, false, func(t *testing.T) storeUnderTest {
		t.Helper()
		_, err := pool.Exec(ctx, `TRUNCATE documents, static_files, api_credentials`)
		require.NoError(t, err)
		s, err := NewPostgresStore(pool)
		require.NoError(t, err)
		return s
	})

	t.Run("row ids", func(t *testing.T) {
		_, err := pool.Exec(ctx, `TRUNCATE documents`)
		require.NoError(t, err)
		s, err := NewPostgresStore(pool)
		require.NoError(t, err)
		checkRowIDs(t, s)
	})

	t.Run("closed pool is unavailable", func(t *testing.T) {
		closed, err := pgxpool.New(ctx, connStr)
		require.NoError(t, err)
		closed.Close()
		s, err := NewPostgresStore(closed)
		require.NoError(t, err)

		var fetchErr error
		for _, err := range s.Documents("dev").Fetch(ctx, "obj_team") {
			fetchErr = err
		}
		assert.ErrorIs(t, fetchErr, aggregate.ErrSourceUnavailable)
		assert.ErrorIs(t, s.Ping(ctx), aggregate.ErrSourceUnavailable)
		_, err = s.ListCollections(ctx, "dev")
		assert.ErrorIs(t, err, aggregate.ErrSourceUnavailable)
	})
}

func TestSQLiteStore_RowIDs(t *testing.T) {
	t.Parallel()

	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "grosbeak.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	checkRowIDs(t, s)
}

// checkRowIDs verifies that SQL stores identify records by row id when the
// stored body has no _id, so key errors name the offending row.
func checkRowIDs(t *testing.T, s storeUnderTest) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.ImportCollection(ctx, "dev", "obj_team", []aggregate.Record{
		{"team_number": json.Number("254")},
		{"auto_avg": json.Number("3")},
	}))

	read, err := s.ReadCollection(ctx, "dev", "obj_team")
	require.NoError(t, err)
	require.Len(t, read, 2)
	rowID, ok := read[1][registry.IDField].(string)
	require.True(t, ok)
	require.NotEmpty(t, rowID)

	docs := collect(t, s.Documents("dev"), "obj_team")
	require.Len(t, docs, 2)
	assert.Equal(t, read[0][registry.IDField], docs[0][registry.IDField])
	assert.Equal(t, rowID, docs[1][registry.IDField])

	_, err = aggregate.NewEngine(registry.Default()).Build(ctx, s.Documents("dev"), aggregate.Options{})
	var missing *aggregate.MissingKeyFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "team_number", missing.Field)
	assert.Equal(t, rowID, missing.RecordID)
}

func TestFileStore_Layout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2024cave"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "static"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2024cave", "obj_tim.json"),
		[]byte(`[{"_id":{"$oid":"65f0"},"match_number":12,"team_number":"254","score":9007199254740993}]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2024cave", "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "static", "team-list.json"),
		[]byte(`[{"event_key":"2024other","data":["1"]},{"event_key":"2024cave","data":["254"]}]`), 0o600))

	s, err := NewFileStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	names, err := s.ListCollections(ctx, "2024cave")
	require.NoError(t, err)
	assert.Equal(t, []string{"obj_tim"}, names)

	records := collect(t, s.Documents("2024cave"), "obj_tim")
	require.Len(t, records, 1)
	assert.Equal(t, json.Number("9007199254740993"), records[0]["score"], "numbers keep full precision")

	read, err := s.ReadCollection(ctx, "2024cave", "obj_tim")
	require.NoError(t, err)
	assert.Equal(t, "65f0", read[0][registry.IDField])

	data, err := s.StaticFile(ctx, registry.StaticFileTeamList, "2024cave")
	require.NoError(t, err)
	assert.JSONEq(t, `["254"]`, string(data))

	events, err := s.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024cave"}, events, "static is not an event")
}

func TestFileStore_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewFileStore("")
	assert.Error(t, err)

	_, err = NewFileStore(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)

	_, err = s.ReadCollection(context.Background(), "../etc", "passwd")
	assert.Error(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "dev"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dev", "obj_team.json"), []byte(`{not json`), 0o600))

	var fetchErr error
	for _, err := range s.Documents("dev").Fetch(context.Background(), "obj_team") {
		fetchErr = err
	}
	require.Error(t, fetchErr)
	assert.False(t, errors.Is(fetchErr, aggregate.ErrSourceUnavailable), "bad data is not a connectivity failure")

	require.NoError(t, os.RemoveAll(root))
	assert.ErrorIs(t, s.Ping(context.Background()), aggregate.ErrSourceUnavailable)
}

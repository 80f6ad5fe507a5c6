package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/bastiangx/plumeserve/pkg/plume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "plumes.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReplaceAndReadRecords(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	observed := time.Date(2023, 8, 5, 6, 8, 18, 0, time.UTC)
	records := []plume.Record{
		{
			ID:               "plume_b",
			PlumeID:          "P-2",
			Location:         "Reno, Nevada",
			Lat:              39.53,
			Lon:              -119.81,
			MaxLat:           39.5312,
			MaxLon:           -119.8105,
			TimeObserved:     observed,
			Orbit:            42,
			MaxConcentration: 900.25,
			TiffURL:          "https://data.example.org/plume_b.tif",
		},
		{ID: "plume_a", Location: "Houston, Texas"},
	}
	require.NoError(t, s.ReplaceRecords(ctx, records))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.Records(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0], got[0], "input order is kept")
	assert.Equal(t, "plume_a", got[1].ID)
	assert.True(t, got[1].TimeObserved.IsZero())
}

func TestReplaceRecordsDropsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.ReplaceRecords(ctx, []plume.Record{{ID: "old_1"}, {ID: "old_2"}}))
	require.NoError(t, s.ReplaceRecords(ctx, []plume.Record{{ID: "new_1"}}))

	got, err := s.Records(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new_1", got[0].ID)
}

func TestSnapshotMatchesFreshCatalog(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	records := []plume.Record{
		{ID: "z_1", Location: "Houston, Texas"},
		{ID: "dup", Location: "Houston, Texas"},
		{ID: "a_1", Location: "Elko, Nevada"},
		{ID: "dup", Location: "Reno, Nevada"},
	}
	require.NoError(t, s.ReplaceRecords(ctx, records))

	stored, err := s.Records(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, []string{"z_1", "dup", "a_1"}, []string{stored[0].ID, stored[1].ID, stored[2].ID})
	assert.Equal(t, "Houston, Texas", stored[1].Location, "first record for a repeated id wins")

	for _, maxRecords := range []int{0, 1, 2, 3} {
		fresh := plume.NewCatalog(plume.DefaultCodec, records, maxRecords)
		snapshot := plume.NewCatalog(plume.DefaultCodec, stored, maxRecords)
		assert.Equal(t, fresh.Keys(), snapshot.Keys(), "maxRecords=%d", maxRecords)
		assert.Equal(t, fresh.Records(), snapshot.Records(), "maxRecords=%d", maxRecords)
	}
}

func TestEmptyStore(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plumes.sqlite3")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceRecords(ctx, []plume.Record{{ID: "kept", Location: "Elko, Nevada"}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Records(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Elko, Nevada", got[0].Location)
}

func TestStoredRecordsFeedTheFinder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.ReplaceRecords(ctx, []plume.Record{
		{ID: "plume_001", Location: "Houston, texas"},
		{ID: "plume_010", Location: "Reno, nevada"},
	}))

	records, err := s.Records(ctx)
	require.NoError(t, err)

	f := plume.NewFinder(plume.DefaultCodec, 0, 0)
	require.NoError(t, f.Load(records))
	assert.Equal(t, []plume.Match{{Key: "texas_Houston_plume-001", RecordID: "plume_001"}}, f.Search("tex", 0))
}

func TestOpenMigratesOlderSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plumes.sqlite3")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE plume_records (
		id TEXT PRIMARY KEY, plume_id TEXT NOT NULL DEFAULT '', location TEXT NOT NULL DEFAULT '',
		lat REAL NOT NULL DEFAULT 0, lon REAL NOT NULL DEFAULT 0, time_observed TEXT NOT NULL DEFAULT '',
		orbit INTEGER NOT NULL DEFAULT 0, max_concentration REAL NOT NULL DEFAULT 0, tiff_url TEXT NOT NULL DEFAULT '')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO plume_records (id, location) VALUES ('old', 'Elko, Nevada')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Records(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old", got[0].ID)

	require.NoError(t, s.ReplaceRecords(ctx, []plume.Record{{ID: "new", MaxLat: 1.5}}))
	got, err = s.Records(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.5, got[0].MaxLat, 1e-9)
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "satellite-land-cover")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	require.NoError(t, s.FinishRun(ctx, run.ID, RunStatusComplete))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusComplete, got.Status)
	assert.Equal(t, "satellite-land-cover", got.Dataset)
}

func TestFinishUnknownRun(t *testing.T) {
	s := newTestStore(t)
	err := s.FinishRun(context.Background(), "missing", RunStatusFailed)
	assert.Error(t, err)
}

func TestGetUnknownRun(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun(context.Background(), "missing")
	assert.Error(t, err)
}

func TestListRunsFiltered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, "satellite-land-cover")
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "reanalysis-era5-land")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, a.ID, RunStatusComplete))

	complete, err := s.ListRuns(ctx, RunFilter{Status: RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, a.ID, complete[0].ID)

	byDataset, err := s.ListRuns(ctx, RunFilter{Dataset: "reanalysis-era5-land"})
	require.NoError(t, err)
	require.Len(t, byDataset, 1)

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestArtifactRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "satellite-land-cover")
	require.NoError(t, err)

	rec, err := s.RecordArtifact(ctx, Artifact{
		RunID:   run.ID,
		Path:    "/data/satellite-land-cover_2018.zip",
		Kind:    "archive",
		Year:    2018,
		Version: "v2.1.1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	got, err := s.ListArtifacts(ctx, ArtifactFilter{RunID: run.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/data/satellite-land-cover_2018.zip", got[0].Path)
	assert.Equal(t, 2018, got[0].Year)
	assert.Equal(t, "v2.1.1", got[0].Version)
}

func TestArtifactUpsertByPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "satellite-land-cover")
	require.NoError(t, err)

	_, err = s.RecordArtifact(ctx, Artifact{
		RunID: run.ID, Path: "/data/x.zip", Kind: "archive", Year: 2018, Version: "v2.1.1",
	})
	require.NoError(t, err)

	// Same path again with a newer run; no duplicate row.
	run2, err := s.CreateRun(ctx, "satellite-land-cover")
	require.NoError(t, err)
	_, err = s.RecordArtifact(ctx, Artifact{
		RunID: run2.ID, Path: "/data/x.zip", Kind: "archive", Year: 2018, Version: "v2.1.1",
	})
	require.NoError(t, err)

	all, err := s.ListArtifacts(ctx, ArtifactFilter{Kind: "archive"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, run2.ID, all[0].RunID)
}

func TestRecordArtifactsBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "satellite-land-cover")
	require.NoError(t, err)

	n, err := s.RecordArtifacts(ctx, []Artifact{
		{RunID: run.ID, Path: "/data/a.zip", Kind: "archive", Year: 2017, Version: "v2.1.1"},
		{RunID: run.ID, Path: "/data/b.zip", Kind: "archive", Year: 2018, Version: "v2.1.1"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	byYear, err := s.ListArtifacts(ctx, ArtifactFilter{Year: 2017})
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, "/data/a.zip", byYear[0].Path)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}

func TestOpenSQLite(t *testing.T) {
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Close())
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moorhen-labs/hexfeatures/internal/edgefeature"
	"github.com/moorhen-labs/hexfeatures/internal/store"
)

type stubCalc struct {
	calls int
	fn    func(from, to string) (float64, error)
}

func (c *stubCalc) Calculate(from, to string) (float64, error) {
	c.calls++
	return c.fn(from, to)
}

type fakeStore struct {
	runs      []store.Run
	artifacts []store.Artifact
	listErr   error
}

func (f *fakeStore) CreateRun(ctx context.Context, dataset string) (*store.Run, error) {
	return nil, eris.New("not implemented")
}

func (f *fakeStore) FinishRun(ctx context.Context, runID, status string) error {
	return eris.New("not implemented")
}

func (f *fakeStore) GetRun(ctx context.Context, runID string) (*store.Run, error) {
	return nil, eris.New("not implemented")
}

func (f *fakeStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]store.Run, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []store.Run
	for _, r := range f.runs {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Dataset != "" && r.Dataset != filter.Dataset {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) RecordArtifact(ctx context.Context, a store.Artifact) (*store.Artifact, error) {
	return nil, eris.New("not implemented")
}

func (f *fakeStore) RecordArtifacts(ctx context.Context, as []store.Artifact) (int64, error) {
	return 0, eris.New("not implemented")
}

func (f *fakeStore) ListArtifacts(ctx context.Context, filter store.ArtifactFilter) ([]store.Artifact, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []store.Artifact
	for _, a := range f.artifacts {
		if filter.RunID != "" && a.RunID != filter.RunID {
			continue
		}
		if filter.Year != 0 && a.Year != filter.Year {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func newTestHandler(t *testing.T, calc *stubCalc, st store.Store) http.Handler {
	t.Helper()

	var distance *edgefeature.Cache
	if calc != nil {
		var err error
		distance, err = edgefeature.NewCache([]string{"8928308280fffff", "8928308280bffff"}, calc)
		require.NoError(t, err)
	}

	_, h := NewServer(Options{Distance: distance, Store: st})
	return h
}

func doGet(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, nil, nil)
	rec, body := doGet(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestDistanceEndpoint(t *testing.T) {
	calc := &stubCalc{fn: func(from, to string) (float64, error) { return 1234.5, nil }}
	h := newTestHandler(t, calc, nil)

	rec, body := doGet(t, h, "/v1/distance?from=8928308280fffff&to=8928308280bffff")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1234.5, body["value"])
	assert.Equal(t, "8928308280fffff", body["from"])
	assert.Equal(t, 1, calc.calls)

	// Repeat request is served from the cache.
	rec, _ = doGet(t, h, "/v1/distance?from=8928308280fffff&to=8928308280bffff")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calc.calls)
}

func TestDistanceMissingParams(t *testing.T) {
	calc := &stubCalc{fn: func(from, to string) (float64, error) { return 0, nil }}
	h := newTestHandler(t, calc, nil)

	rec, _ := doGet(t, h, "/v1/distance?from=8928308280fffff")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, calc.calls)
}

func TestDistanceUnknownNode(t *testing.T) {
	calc := &stubCalc{fn: func(from, to string) (float64, error) { return 0, nil }}
	h := newTestHandler(t, calc, nil)

	rec, body := doGet(t, h, "/v1/distance?from=8928308280fffff&to=nonsense")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "unknown node")
}

func TestDistanceCalculatorFailure(t *testing.T) {
	calc := &stubCalc{fn: func(from, to string) (float64, error) {
		return 0, eris.New("surface unreachable")
	}}
	h := newTestHandler(t, calc, nil)

	rec, _ := doGet(t, h, "/v1/distance?from=8928308280fffff&to=8928308280bffff")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCostNotConfigured(t *testing.T) {
	h := newTestHandler(t, nil, nil)
	rec, _ := doGet(t, h, "/v1/cost?from=a&to=b")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListRuns(t *testing.T) {
	now := time.Now().UTC()
	st := &fakeStore{runs: []store.Run{
		{ID: "r1", Dataset: "satellite-land-cover", Status: store.RunStatusComplete, CreatedAt: now},
		{ID: "r2", Dataset: "satellite-land-cover", Status: store.RunStatusFailed, CreatedAt: now},
	}}
	h := newTestHandler(t, nil, st)

	rec, body := doGet(t, h, "/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["runs"], 2)

	rec, body = doGet(t, h, "/v1/runs?status=complete")
	require.Equal(t, http.StatusOK, rec.Code)
	runs := body["runs"].([]any)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].(map[string]any)["id"])
}

func TestListRunsInvalidLimit(t *testing.T) {
	h := newTestHandler(t, nil, &fakeStore{})
	rec, _ := doGet(t, h, "/v1/runs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRunsStoreNotConfigured(t *testing.T) {
	h := newTestHandler(t, nil, nil)
	rec, _ := doGet(t, h, "/v1/runs")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListArtifacts(t *testing.T) {
	st := &fakeStore{artifacts: []store.Artifact{
		{ID: "a1", RunID: "r1", Path: "/data/satellite-land-cover_2017.zip", Year: 2017},
		{ID: "a2", RunID: "r1", Path: "/data/satellite-land-cover_2018.zip", Year: 2018},
	}}
	h := newTestHandler(t, nil, st)

	rec, body := doGet(t, h, "/v1/artifacts?run_id=r1&year=2018")
	require.Equal(t, http.StatusOK, rec.Code)
	artifacts := body["artifacts"].([]any)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "a2", artifacts[0].(map[string]any)["id"])
}

func TestListArtifactsStoreError(t *testing.T) {
	h := newTestHandler(t, nil, &fakeStore{listErr: eris.New("boom")})
	rec, _ := doGet(t, h, "/v1/artifacts")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

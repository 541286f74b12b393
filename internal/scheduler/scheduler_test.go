package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/moorhen-labs/hexfeatures/internal/cds"
)

// fakeClient writes a marker file per retrieval and records concurrency.
type fakeClient struct {
	delay    time.Duration
	failPath string

	mu       sync.Mutex
	calls    int
	inFlight int32
	peak     int32
}

func (f *fakeClient) Retrieve(ctx context.Context, dataset string, req cds.Request, outPath string) error {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}

	if f.failPath != "" && outPath == f.failPath {
		return fmt.Errorf("simulated failure for %s", outPath)
	}
	return os.WriteFile(outPath, []byte(fmt.Sprintf("%d", req.Year)), 0o644)
}

func testQueries(dir string, n int) []cds.Query {
	queries := make([]cds.Query, n)
	for i := range queries {
		queries[i] = cds.Query{
			OutPath: filepath.Join(dir, fmt.Sprintf("file_%d.zip", i)),
			Request: cds.Request{Year: 2000 + i, Variable: "all"},
		}
	}
	return queries
}

func TestFetchRespectsConcurrencyCap(t *testing.T) {
	client := &fakeClient{delay: 20 * time.Millisecond}
	queries := testQueries(t.TempDir(), 6)

	results, err := Fetch(context.Background(), client, queries, Options{
		Dataset:       "satellite-land-cover",
		MaxConcurrent: 2,
	})
	require.NoError(t, err)
	require.Len(t, results, 6)

	assert.Equal(t, 6, client.calls)
	assert.LessOrEqual(t, atomic.LoadInt32(&client.peak), int32(2))
}

func TestFetchResultsInQueryOrder(t *testing.T) {
	client := &fakeClient{delay: 5 * time.Millisecond}
	queries := testQueries(t.TempDir(), 5)

	results, err := Fetch(context.Background(), client, queries, Options{Dataset: "d"})
	require.NoError(t, err)

	for i, r := range results {
		assert.Equal(t, queries[i].OutPath, r.OutPath)
		assert.Equal(t, 2000+i, r.Request.Year)
	}
}

func TestScheduleRunsProcessOnDownloads(t *testing.T) {
	client := &fakeClient{}
	queries := testQueries(t.TempDir(), 3)

	years, err := Schedule(context.Background(), client, queries,
		func(_ context.Context, r Result) (string, error) {
			data, err := os.ReadFile(r.OutPath)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}, Options{Dataset: "d", MaxConcurrent: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"2000", "2001", "2002"}, years)
}

func TestScheduleReusesExistingFiles(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	dir := t.TempDir()
	queries := testQueries(dir, 3)
	for _, q := range queries {
		require.NoError(t, os.WriteFile(q.OutPath, []byte("cached"), 0o644))
	}

	client := &fakeClient{}
	results, err := Fetch(context.Background(), client, queries, Options{Dataset: "d"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Nothing was re-downloaded.
	assert.Equal(t, 0, client.calls)
	data, err := os.ReadFile(queries[0].OutPath)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(data))

	// One reuse warning per existing file.
	reused := logs.FilterMessage("scheduler: output file exists, reusing without download")
	assert.Equal(t, 3, reused.Len())
}

func TestScheduleRetrievalFailureAborts(t *testing.T) {
	dir := t.TempDir()
	queries := testQueries(dir, 5)
	client := &fakeClient{
		delay:    5 * time.Millisecond,
		failPath: queries[1].OutPath,
	}

	results, err := Fetch(context.Background(), client, queries, Options{
		Dataset:       "d",
		MaxConcurrent: 2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated failure")
	assert.Nil(t, results)
}

func TestScheduleProcessFailureAborts(t *testing.T) {
	client := &fakeClient{delay: 5 * time.Millisecond}
	queries := testQueries(t.TempDir(), 4)

	_, err := Schedule(context.Background(), client, queries,
		func(_ context.Context, r Result) (int, error) {
			if strings.HasSuffix(r.OutPath, "file_0.zip") {
				return 0, fmt.Errorf("bad archive")
			}
			return 1, nil
		}, Options{Dataset: "d", MaxConcurrent: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad archive")
}

func TestScheduleValidation(t *testing.T) {
	queries := testQueries(t.TempDir(), 1)

	_, err := Fetch(context.Background(), nil, queries, Options{Dataset: "d"})
	assert.Error(t, err)

	_, err = Fetch(context.Background(), &fakeClient{}, queries, Options{})
	assert.Error(t, err)

	dup := append([]cds.Query{}, queries[0], queries[0])
	_, err = Fetch(context.Background(), &fakeClient{}, dup, Options{Dataset: "d"})
	assert.Error(t, err)
}

func TestScheduleEmptyQueries(t *testing.T) {
	results, err := Fetch(context.Background(), &fakeClient{}, nil, Options{Dataset: "d"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

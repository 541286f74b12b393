// Package scheduler runs remote dataset retrievals with bounded
// concurrency: at most a fixed number of requests are in flight, and each
// completion immediately submits the next pending query. Downloaded files
// can be processed concurrently with the remaining retrievals.
package scheduler

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/moorhen-labs/hexfeatures/internal/cds"
)

// Result identifies one completed retrieval.
type Result struct {
	OutPath string
	Request cds.Request
}

// Options controls a scheduling run.
type Options struct {
	// Dataset is the remote dataset every query targets.
	Dataset string

	// MaxConcurrent caps in-flight retrievals (default 10).
	MaxConcurrent int
}

// Fetch retrieves every query and returns the results in query order.
func Fetch(ctx context.Context, client cds.Client, queries []cds.Query, opts Options) ([]Result, error) {
	return Schedule(ctx, client, queries, func(_ context.Context, r Result) (Result, error) {
		return r, nil
	}, opts)
}

// Schedule retrieves every query and runs process on each downloaded file
// as soon as it lands, while later retrievals are still in flight. Results
// are returned in query order. The first retrieval or processing error
// stops new submissions, cancels outstanding work, and is returned; no
// partial results are kept.
func Schedule[T any](ctx context.Context, client cds.Client, queries []cds.Query, process func(context.Context, Result) (T, error), opts Options) ([]T, error) {
	if client == nil {
		return nil, eris.New("scheduler: nil client")
	}
	if process == nil {
		return nil, eris.New("scheduler: nil process function")
	}
	if opts.Dataset == "" {
		return nil, eris.New("scheduler: dataset is required")
	}
	if opts.MaxConcurrent == 0 {
		opts.MaxConcurrent = 10
	}
	if opts.MaxConcurrent < 0 {
		return nil, eris.New("scheduler: max concurrent must be positive")
	}

	seen := make(map[string]struct{}, len(queries))
	for _, q := range queries {
		if _, dup := seen[q.OutPath]; dup {
			return nil, eris.Errorf("scheduler: duplicate output path %s", q.OutPath)
		}
		seen[q.OutPath] = struct{}{}
	}

	if len(queries) == 0 {
		return nil, nil
	}

	runID := uuid.NewString()
	zap.L().Info("scheduler: starting run",
		zap.String("run_id", runID),
		zap.String("dataset", opts.Dataset),
		zap.Int("queries", len(queries)),
		zap.Int("max_concurrent", opts.MaxConcurrent),
	)

	type completion struct {
		idx int
		res Result
		err error
	}

	g, gctx := errgroup.WithContext(ctx)
	doneCh := make(chan completion)

	launch := func(idx int) {
		q := queries[idx]
		g.Go(func() error {
			res, err := retrieveOne(gctx, client, opts.Dataset, q)
			doneCh <- completion{idx: idx, res: res, err: err}
			return err
		})
	}

	inFlight := 0
	next := 0
	for next < len(queries) && inFlight < opts.MaxConcurrent {
		launch(next)
		next++
		inFlight++
	}

	results := make([]T, len(queries))
	retrieved := 0
	failed := false

	for inFlight > 0 {
		c := <-doneCh
		inFlight--

		if c.err != nil {
			failed = true
			continue
		}

		retrieved++
		zap.L().Info("scheduler: query retrieved",
			zap.String("run_id", runID),
			zap.Int("retrieved", retrieved),
			zap.Int("total", len(queries)),
		)

		// Replace the finished retrieval with the next pending query.
		if !failed && next < len(queries) {
			launch(next)
			next++
			inFlight++
		}

		idx, res := c.idx, c.res
		g.Go(func() error {
			v, err := process(gctx, res)
			if err != nil {
				return eris.Wrapf(err, "scheduler: process %s", res.OutPath)
			}
			results[idx] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// retrieveOne downloads a single query unless its output file already
// exists, in which case the file is reused as is. A stale file left over
// from an earlier run with different query parameters will not be detected;
// delete the file to force a fresh download.
func retrieveOne(ctx context.Context, client cds.Client, dataset string, q cds.Query) (Result, error) {
	if _, err := os.Stat(q.OutPath); err == nil {
		zap.L().Warn("scheduler: output file exists, reusing without download",
			zap.String("path", q.OutPath),
		)
		return Result{OutPath: q.OutPath, Request: q.Request}, nil
	}

	if err := client.Retrieve(ctx, dataset, q.Request, q.OutPath); err != nil {
		return Result{}, eris.Wrapf(err, "scheduler: retrieve %s", q.OutPath)
	}
	return Result{OutPath: q.OutPath, Request: q.Request}, nil
}

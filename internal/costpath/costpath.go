// Package costpath implements minimum cumulative cost search over a raster
// cost surface. Traversal is 8-connected; the cost of a step between two
// adjacent cells is the mean of their per-cell costs multiplied by the step
// length (1 for orthogonal moves, √2 for diagonal), matching the geometric
// accumulation used by graph-based least-cost path tools.
package costpath

import (
	"container/heap"
	"math"

	"github.com/rotisserie/eris"

	"github.com/moorhen-labs/hexfeatures/internal/raster"
)

// Point addresses a raster cell.
type Point struct {
	Row, Col int
}

// Result holds a completed search: the cumulative cost from the nearest
// source to every reachable cell, and per-cell traceback directions.
type Result struct {
	// Cumulative holds the minimum accumulated cost to each cell.
	// Unreachable cells (and impassable cells) hold +Inf.
	Cumulative *raster.Grid

	// Traceback holds, for each cell, the index into Offsets of the move
	// that reached it, or -1 for sources and unreached cells.
	Traceback []int8
}

// Offsets enumerates the eight neighbor moves paired with their step lengths.
var Offsets = [8]struct {
	DR, DC int
	Dist   float64
}{
	{-1, 0, 1}, {1, 0, 1}, {0, -1, 1}, {0, 1, 1},
	{-1, -1, math.Sqrt2}, {-1, 1, math.Sqrt2}, {1, -1, math.Sqrt2}, {1, 1, math.Sqrt2},
}

type pqItem struct {
	index int // flat cell index
	cost  float64
}

type priorityQueue []pqItem

func (q priorityQueue) Len() int            { return len(q) }
func (q priorityQueue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q priorityQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x any)         { *q = append(*q, x.(pqItem)) }
func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// FindCosts runs a cumulative-cost search outward from the given sources.
// Cells whose cost is NaN, infinite, or negative are impassable. The search
// covers the whole surface; callers interested in specific endpoints extract
// them from the result (costs are cumulative, so intermediate cells come for
// free).
func FindCosts(surface *raster.Grid, sources []Point) (*Result, error) {
	if len(sources) == 0 {
		return nil, eris.New("costpath: at least one source required")
	}

	n := surface.Rows * surface.Cols
	cum := raster.NewGrid(surface.Rows, surface.Cols)
	cum.Fill(math.Inf(1))
	trace := make([]int8, n)
	for i := range trace {
		trace[i] = -1
	}

	pq := make(priorityQueue, 0, len(sources))
	for _, s := range sources {
		if !surface.InBounds(s.Row, s.Col) {
			return nil, eris.Errorf("costpath: source (%d,%d) outside surface", s.Row, s.Col)
		}
		if !passable(surface.At(s.Row, s.Col)) {
			continue
		}
		cum.Set(s.Row, s.Col, 0)
		pq = append(pq, pqItem{index: s.Row*surface.Cols + s.Col, cost: 0})
	}
	if len(pq) == 0 {
		return nil, eris.New("costpath: no passable source cells")
	}
	heap.Init(&pq)

	for pq.Len() > 0 {
		cur := heap.Pop(&pq).(pqItem)
		row := cur.index / surface.Cols
		col := cur.index % surface.Cols

		if cur.cost > cum.At(row, col) {
			continue // stale entry
		}
		hereCost := surface.At(row, col)

		for oi, off := range Offsets {
			nr, nc := row+off.DR, col+off.DC
			if !surface.InBounds(nr, nc) {
				continue
			}
			stepCost := surface.At(nr, nc)
			if !passable(stepCost) {
				continue
			}
			next := cur.cost + off.Dist*(hereCost+stepCost)/2
			if next < cum.At(nr, nc) {
				cum.Set(nr, nc, next)
				trace[nr*surface.Cols+nc] = int8(oi)
				heap.Push(&pq, pqItem{index: nr*surface.Cols + nc, cost: next})
			}
		}
	}

	return &Result{Cumulative: cum, Traceback: trace}, nil
}

// TargetCosts extracts the cumulative cost at each target cell.
func (r *Result) TargetCosts(targets []Point) ([]float64, error) {
	costs := make([]float64, len(targets))
	for i, p := range targets {
		if !r.Cumulative.InBounds(p.Row, p.Col) {
			return nil, eris.Errorf("costpath: target (%d,%d) outside surface", p.Row, p.Col)
		}
		costs[i] = r.Cumulative.At(p.Row, p.Col)
	}
	return costs, nil
}

// MinCost runs a search from sources and returns the minimum cumulative cost
// among the targets.
func MinCost(surface *raster.Grid, sources, targets []Point) (float64, error) {
	if len(targets) == 0 {
		return 0, eris.New("costpath: at least one target required")
	}
	res, err := FindCosts(surface, sources)
	if err != nil {
		return 0, err
	}
	costs, err := res.TargetCosts(targets)
	if err != nil {
		return 0, err
	}
	min := costs[0]
	for _, c := range costs[1:] {
		if c < min {
			min = c
		}
	}
	return min, nil
}

func passable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Package edgefeature computes and memoizes pairwise edge features between
// hex-grid cells: geodesic distance between cell centers and least-cost path
// cost over a raster cost surface.
package edgefeature

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/rotisserie/eris"
)

// ErrUnknownNode is returned when a node name is absent from the cache's
// index. Use eris.Is to test for it.
var ErrUnknownNode = eris.New("edgefeature: unknown node name")

// Calculator computes a single edge feature between two nodes. Engines are
// deterministic: the same pair always yields the same value.
type Calculator interface {
	Calculate(fromNode, toNode string) (float64, error)
}

// Cache is a lazily-populated N×N matrix of edge features indexed by an
// ordered node-name list. Direction matters for storage: (a,b) and (b,a)
// are cached independently even when the underlying quantity is symmetric.
//
// Get memoizes: a value computed on miss is stored before it is returned.
// Cache is not safe for concurrent mutation; callers computing features in
// parallel must serialize access or shard by disjoint pairs.
type Cache struct {
	names  []string
	index  map[string]int
	values []float64 // row-major; NaN marks unknown
	calc   Calculator
}

// NewCache builds a cache over the given node ordering. Names must be
// unique; the ordering defines the matrix layout used by Save and Restore.
func NewCache(nodeNames []string, calc Calculator) (*Cache, error) {
	if len(nodeNames) == 0 {
		return nil, eris.New("edgefeature: empty node name list")
	}
	if calc == nil {
		return nil, eris.New("edgefeature: nil calculator")
	}

	index := make(map[string]int, len(nodeNames))
	for i, name := range nodeNames {
		if _, dup := index[name]; dup {
			return nil, eris.Errorf("edgefeature: duplicate node name %q", name)
		}
		index[name] = i
	}

	n := len(nodeNames)
	values := make([]float64, n*n)
	for i := range values {
		values[i] = math.NaN()
	}

	names := make([]string, n)
	copy(names, nodeNames)

	return &Cache{names: names, index: index, values: values, calc: calc}, nil
}

// Nodes returns the node ordering the cache was built with.
func (c *Cache) Nodes() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *Cache) cell(fromNode, toNode string) (int, error) {
	fi, ok := c.index[fromNode]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownNode, "%q", fromNode)
	}
	ti, ok := c.index[toNode]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownNode, "%q", toNode)
	}
	return fi*len(c.names) + ti, nil
}

// Get returns the edge feature for the ordered pair, computing and storing
// it on first access.
func (c *Cache) Get(fromNode, toNode string) (float64, error) {
	idx, err := c.cell(fromNode, toNode)
	if err != nil {
		return 0, err
	}

	if v := c.values[idx]; !math.IsNaN(v) {
		return v, nil
	}

	v, err := c.calc.Calculate(fromNode, toNode)
	if err != nil {
		return 0, eris.Wrapf(err, "edgefeature: calculate %s -> %s", fromNode, toNode)
	}
	c.values[idx] = v
	return v, nil
}

// Set stores a value for the ordered pair, overwriting any existing value.
func (c *Cache) Set(fromNode, toNode string, value float64) error {
	idx, err := c.cell(fromNode, toNode)
	if err != nil {
		return err
	}
	c.values[idx] = value
	return nil
}

// Save writes the matrix to path as row-major little-endian float64 values
// with no header. The file carries no node ordering; callers must pair each
// file with the ordering it was saved under.
func (c *Cache) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "edgefeature: create cache file")
	}
	defer f.Close() //nolint:errcheck

	if err := binary.Write(f, binary.LittleEndian, c.values); err != nil {
		return eris.Wrap(err, "edgefeature: write cache file")
	}
	return nil
}

// Restore replaces the matrix wholesale with the contents of path. The file
// must hold exactly N×N float64 values for this cache's node count.
func (c *Cache) Restore(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrap(err, "edgefeature: open cache file")
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return eris.Wrap(err, "edgefeature: stat cache file")
	}
	want := int64(len(c.values)) * 8
	if info.Size() != want {
		return eris.Errorf("edgefeature: cache file holds %d bytes, want %d (%d nodes)",
			info.Size(), want, len(c.names))
	}

	values := make([]float64, len(c.values))
	if err := binary.Read(f, binary.LittleEndian, values); err != nil {
		return eris.Wrap(err, "edgefeature: read cache file")
	}
	c.values = values
	return nil
}

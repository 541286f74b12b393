package edgefeature

import "github.com/rotisserie/eris"

// fakeGrid is a deterministic hex-grid stand-in for tests: cell centers,
// child sets, and resolutions are declared explicitly.
type fakeGrid struct {
	centers  map[string][2]float64 // (lat, lng)
	children map[string][]string
	res      map[string]int
}

func (g *fakeGrid) Center(cell string) (float64, float64, error) {
	c, ok := g.centers[cell]
	if !ok {
		return 0, 0, eris.Errorf("fake grid: unknown cell %q", cell)
	}
	return c[0], c[1], nil
}

func (g *fakeGrid) Children(cell string, resolution int) ([]string, error) {
	own, ok := g.res[cell]
	if !ok {
		return nil, eris.Errorf("fake grid: unknown cell %q", cell)
	}
	if resolution == own {
		return []string{cell}, nil
	}
	ch, ok := g.children[cell]
	if !ok {
		return nil, eris.Errorf("fake grid: no children for %q", cell)
	}
	return ch, nil
}

func (g *fakeGrid) Resolution(cell string) (int, error) {
	r, ok := g.res[cell]
	if !ok {
		return 0, eris.Errorf("fake grid: unknown cell %q", cell)
	}
	return r, nil
}

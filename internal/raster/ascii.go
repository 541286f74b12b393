package raster

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadASCIIGrid reads an ESRI ASCII grid (.asc) file. The header must carry
// ncols, nrows, cellsize and either xllcorner/yllcorner or
// xllcenter/yllcenter; nodata_value is optional. Nodata cells are stored as
// the grid's NoData value.
func ReadASCIIGrid(path string) (*Grid, Affine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Affine{}, eris.Wrap(err, "raster: open ascii grid")
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)

	header := map[string]float64{}
	var rows [][]float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		// Header lines are "key value" pairs with a non-numeric key.
		if len(fields) == 2 {
			if _, numErr := strconv.ParseFloat(fields[0], 64); numErr != nil {
				val, parseErr := strconv.ParseFloat(fields[1], 64)
				if parseErr != nil {
					return nil, Affine{}, eris.Wrapf(parseErr, "raster: header value %q", line)
				}
				header[strings.ToLower(fields[0])] = val
				continue
			}
		}

		rowVals := make([]float64, 0, len(fields))
		for _, fv := range fields {
			val, parseErr := strconv.ParseFloat(fv, 64)
			if parseErr != nil {
				return nil, Affine{}, eris.Wrapf(parseErr, "raster: cell value %q", fv)
			}
			rowVals = append(rowVals, val)
		}
		rows = append(rows, rowVals)
	}
	if err := sc.Err(); err != nil {
		return nil, Affine{}, eris.Wrap(err, "raster: scan ascii grid")
	}

	ncols, ok := header["ncols"]
	if !ok {
		return nil, Affine{}, eris.New("raster: missing ncols header")
	}
	nrows, ok := header["nrows"]
	if !ok {
		return nil, Affine{}, eris.New("raster: missing nrows header")
	}
	cellSize, ok := header["cellsize"]
	if !ok {
		return nil, Affine{}, eris.New("raster: missing cellsize header")
	}

	if len(rows) != int(nrows) {
		return nil, Affine{}, eris.Errorf("raster: expected %d rows, got %d", int(nrows), len(rows))
	}
	for i, rowVals := range rows {
		if len(rowVals) != int(ncols) {
			return nil, Affine{}, eris.Errorf("raster: row %d has %d cols, want %d", i, len(rowVals), int(ncols))
		}
	}

	g, err := NewGridFrom(rows)
	if err != nil {
		return nil, Affine{}, err
	}

	if nodata, ok := header["nodata_value"]; ok {
		g.NoData = nodata
	}

	// Resolve the top-left corner from whichever origin style is present.
	var originX, originY float64
	switch {
	case hasKeys(header, "xllcorner", "yllcorner"):
		originX = header["xllcorner"]
		originY = header["yllcorner"] + nrows*cellSize
	case hasKeys(header, "xllcenter", "yllcenter"):
		originX = header["xllcenter"] - cellSize/2
		originY = header["yllcenter"] - cellSize/2 + nrows*cellSize
	default:
		return nil, Affine{}, eris.New("raster: missing origin headers")
	}

	return g, NorthUp(originX, originY, cellSize, cellSize), nil
}

func hasKeys(m map[string]float64, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

package zonal

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

// LoadValueMap reads a YAML file mapping raster values to category labels:
//
//	10: "Cropland, rainfed"
//	20: "Cropland, irrigated"
func LoadValueMap(path string) (map[float64]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "zonal: read value map")
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "zonal: parse value map")
	}

	out := make(map[float64]string, len(raw))
	for k, label := range raw {
		v, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "zonal: value map key %q is not numeric", k)
		}
		out[v] = label
	}
	return out, nil
}

// LoadLegendCSV reads a semicolon-delimited legend CSV in Latin-1 encoding,
// the format the land cover class tables ship in. The first column holds the
// raster value and the second the label; the header row is skipped.
func LoadLegendCSV(path string) (map[float64]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "zonal: open legend")
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(f))
	r.Comma = ';'
	r.FieldsPerRecord = -1

	out := make(map[float64]string)
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "zonal: read legend")
		}
		if first {
			first = false
			continue
		}
		if len(rec) < 2 {
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "zonal: legend value %q is not numeric", rec[0])
		}
		out[v] = strings.TrimSpace(rec[1])
	}

	if len(out) == 0 {
		return nil, eris.New("zonal: legend has no entries")
	}
	return out, nil
}

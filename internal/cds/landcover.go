package cds

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LandcoverDataset is the CDS dataset holding the ESA CCI land cover maps.
const LandcoverDataset = "satellite-land-cover"

// firstLandcoverYear is the earliest year with published land cover data.
const firstLandcoverYear = 1992

// CheckYears validates requested land cover years. Duplicate years are an
// error; years outside the published range are dropped with a warning. Data
// is released with roughly a two year delay, so the newest available year
// is the current year minus two. The returned years are sorted.
func CheckYears(years []int) ([]int, error) {
	if len(years) == 0 {
		return nil, eris.New("cds: no years requested")
	}

	seen := make(map[int]struct{}, len(years))
	for _, y := range years {
		if _, dup := seen[y]; dup {
			return nil, eris.Errorf("cds: year %d requested more than once", y)
		}
		seen[y] = struct{}{}
	}

	lastAvailable := time.Now().Year() - 2

	var kept []int
	var tooEarly, tooLate int
	for _, y := range years {
		switch {
		case y < firstLandcoverYear:
			tooEarly++
		case y > lastAvailable:
			tooLate++
		default:
			kept = append(kept, y)
		}
	}

	if tooEarly > 0 {
		zap.L().Warn("cds: years before first published land cover year ignored",
			zap.Int("first_year", firstLandcoverYear),
			zap.Int("ignored", tooEarly),
		)
	}
	if tooLate > 0 {
		zap.L().Warn("cds: years beyond last available land cover year ignored",
			zap.Int("last_available", lastAvailable),
			zap.Int("ignored", tooLate),
		)
	}

	sort.Ints(kept)
	return kept, nil
}

// BuildLandcoverQueries maps years to CDS queries targeting the archive
// directory. Years before 2016 ship under product version v2.0.7cds; 2016
// onwards only exists in v2.1.1.
func BuildLandcoverQueries(years []int, archiveDir string) []Query {
	queries := make([]Query, 0, len(years))
	for _, year := range years {
		version := "v2.1.1"
		if year < 2016 {
			version = "v2.0.7cds"
		}

		queries = append(queries, Query{
			OutPath: filepath.Join(archiveDir, fmt.Sprintf("satellite-land-cover_%d.zip", year)),
			Request: Request{
				Variable: "all",
				Format:   "zip",
				Year:     year,
				Version:  version,
			},
		})
	}
	return queries
}

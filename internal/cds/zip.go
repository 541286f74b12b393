package cds

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractSingleNetCDF extracts the lone .nc member of a downloaded archive
// next to the archive itself and returns its path. Land cover archives
// contain exactly one netCDF file at the archive root.
func ExtractSingleNetCDF(zipPath string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrapf(err, "cds: open archive %s", zipPath)
	}
	defer func() { _ = r.Close() }()

	var files []*zip.File
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	if len(files) != 1 {
		return "", eris.Errorf("cds: expected exactly 1 file in %s, got %d", zipPath, len(files))
	}

	member := files[0]
	if !strings.HasSuffix(member.Name, ".nc") {
		return "", eris.Errorf("cds: expected netCDF member, got %q", member.Name)
	}
	if member.Name != filepath.Base(member.Name) {
		return "", eris.Errorf("cds: archive member %q must extract to the archive directory", member.Name)
	}

	destPath := filepath.Join(filepath.Dir(zipPath), member.Name)

	rc, err := member.Open()
	if err != nil {
		return "", eris.Wrap(err, "cds: open archive member")
	}
	defer func() { _ = rc.Close() }()

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "cds: create extracted file")
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrap(err, "cds: write extracted file")
	}
	return destPath, nil
}

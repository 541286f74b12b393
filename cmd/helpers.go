package main

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/moorhen-labs/hexfeatures/internal/store"
)

// initStore opens the configured manifest store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

// readCellList reads one hex cell name per line, skipping blanks and
// comment lines starting with '#'.
func readCellList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open cell list")
	}
	defer f.Close() //nolint:errcheck

	var cells []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cells = append(cells, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "read cell list")
	}
	if len(cells) == 0 {
		return nil, eris.Errorf("no cells in %s", path)
	}
	return cells, nil
}

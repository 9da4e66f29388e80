package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/formsink/formsink/internal/tenants/domain"
)

// Ensure Dir implements domain.Source
var _ domain.Source = (*Dir)(nil)

// Dir serves tenant config records from a directory of <config_id>.json files.
type Dir struct {
	dir string
}

func NewDir(dir string) *Dir {
	return &Dir{dir: strings.TrimRight(dir, "/\\")}
}

func (d *Dir) Read(ctx context.Context, id string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(d.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read config record %q: %w", id, err)
	}
	return data, true, nil
}

func (d *Dir) List(ctx context.Context) ([]domain.Record, error) {
	matches, err := filepath.Glob(filepath.Join(d.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list config records: %w", err)
	}
	records := make([]domain.Record, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			// A record disappearing mid-scan is not fatal to the lookup.
			continue
		}
		id := strings.TrimSuffix(filepath.Base(path), ".json")
		records = append(records, domain.Record{ID: id, Data: data})
	}
	return records, nil
}

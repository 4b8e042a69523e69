// Package catalog loads the IRIS+ reference metrics shipped with the binary.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/miv/backend/internal/domain/venture"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed iris.yaml
var embedded []byte

// File is the on-disk layout of a catalog
type File struct {
	Version string               `yaml:"version"`
	Metrics []venture.IRISMetric `yaml:"metrics"`
}

// Load parses the embedded catalog
func Load() (*File, error) {
	return Parse(bytes.NewReader(embedded))
}

// Parse decodes a catalog, normalizing codes and rejecting entries without
// a code or name and duplicated codes.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode iris catalog: %w", err)
	}

	seen := make(map[string]int, len(f.Metrics))
	for i := range f.Metrics {
		m := &f.Metrics[i]
		m.Code = venture.NormalizeCode(m.Code)
		m.Name = strings.TrimSpace(m.Name)
		if m.Code == "" {
			return nil, fmt.Errorf("iris catalog entry %d: code is required", i)
		}
		if m.Name == "" {
			return nil, fmt.Errorf("iris catalog entry %s: name is required", m.Code)
		}
		if prev, dup := seen[m.Code]; dup {
			return nil, fmt.Errorf("iris catalog entry %d: code %s already defined by entry %d", i, m.Code, prev)
		}
		seen[m.Code] = i
	}
	return &f, nil
}

// Import upserts the embedded catalog into repo and returns the number of
// entries written.
func Import(ctx context.Context, repo venture.IRISMetricRepository, logger *zap.Logger) (int, error) {
	f, err := Load()
	if err != nil {
		return 0, err
	}
	n, err := repo.Upsert(ctx, f.Metrics)
	if err != nil {
		return 0, fmt.Errorf("upsert iris catalog: %w", err)
	}
	logger.Info("IRIS+ catalog imported",
		zap.String("version", f.Version),
		zap.Int("metrics", n),
	)
	return n, nil
}

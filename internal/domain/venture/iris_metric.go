package venture

import (
	"context"
	"strings"
)

// IRISMetric is an entry of the IRIS+ impact-metrics catalog, stored verbatim
type IRISMetric struct {
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	Definition  string `yaml:"definition" json:"definition"`
	Category    string `yaml:"category" json:"category"`
	ImpactTheme string `yaml:"impact_theme" json:"impact_theme"`
	Unit        string `yaml:"unit" json:"unit"`
}

// NormalizeCode upper-cases and trims an IRIS+ code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IRISMetricRepository stores the reference catalog
type IRISMetricRepository interface {
	Upsert(ctx context.Context, metrics []IRISMetric) (int, error)
	FindByCode(ctx context.Context, code string) (*IRISMetric, error)
	FindAll(ctx context.Context, filter IRISFilter) ([]IRISMetric, int64, error)
}

// IRISFilter narrows catalog queries
type IRISFilter struct {
	Search   string
	Category string
	Page     int
	PageSize int
}

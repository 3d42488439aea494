package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"zomato-dashboard/internal/config"
	"zomato-dashboard/internal/engine"
)

// Source produces the dataset.
type Source interface {
	Load(ctx context.Context) (*engine.ColumnStore, error)
}

// Reporter is implemented by sources that keep the report of their last load.
type Reporter interface {
	Report() *engine.LoadReport
}

// CSVSource loads and normalises a CSV file.
type CSVSource struct {
	Path    string
	Options engine.LoadOptions

	report *engine.LoadReport
}

func (s *CSVSource) Load(ctx context.Context) (*engine.ColumnStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cs, report, err := engine.LoadColumnar(s.Path, s.Options)
	if err != nil {
		return nil, err
	}
	s.report = report
	return cs, nil
}

// Report returns the report of the last successful Load, or nil.
func (s *CSVSource) Report() *engine.LoadReport { return s.report }

// NewSource picks the dataset source named by cfg.DataSource. The returned
// close function releases any database connection.
func NewSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (Source, func() error, error) {
	policy, err := engine.ParseRatingPolicy(cfg.RatingPolicy)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.DataSource {
	case "csv":
		return &CSVSource{Path: cfg.DataPath, Options: engine.LoadOptions{RatingPolicy: policy, Logger: log}}, func() error { return nil }, nil
	case "sqlite", "postgres":
		s, err := OpenSQL(ctx, cfg.Driver(), cfg.DSN(), cfg.SnapshotTable, cfg.DBConnectRetries, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
}

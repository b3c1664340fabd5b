package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	m "unpin.dev/pkg/unpin/internal/model"
)

// ReportStore persists run reports.
type ReportStore interface {
	SaveReport(ctx context.Context, path m.Path, report m.RunReport) error
	LoadReport(ctx context.Context, path m.Path) (m.RunReport, error)
}

// YAMLReportStore stores a run report as a single YAML document.
type YAMLReportStore struct{}

// NewReportStore creates a YAML-backed ReportStore.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReport writes report to path, creating parent directories.
func (s *YAMLReportStore) SaveReport(ctx context.Context, path m.Path, report m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	return nil
}

// LoadReport reads a report previously written by SaveReport.
func (s *YAMLReportStore) LoadReport(ctx context.Context, path m.Path) (m.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return m.RunReport{}, err
	}

	data, err := os.ReadFile(string(path))
	if err != nil {
		return m.RunReport{}, fmt.Errorf("read report %s: %w", path, err)
	}

	var report m.RunReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.RunReport{}, fmt.Errorf("decode report %s: %w", path, err)
	}

	return report, nil
}

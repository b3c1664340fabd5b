// Package mocks provides testify mocks for the adapter package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"unpin.dev/pkg/unpin/internal/adapter"
	m "unpin.dev/pkg/unpin/internal/model"
)

// MockReportStore is a mock implementation of adapter.ReportStore.
type MockReportStore struct {
	mock.Mock
}

var _ adapter.ReportStore = (*MockReportStore)(nil)

// NewMockReportStore creates a MockReportStore whose expectations are asserted on cleanup.
func NewMockReportStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockReportStore {
	store := &MockReportStore{}
	store.Mock.Test(t)

	t.Cleanup(func() { store.AssertExpectations(t) })

	return store
}

func (s *MockReportStore) SaveReport(ctx context.Context, path m.Path, report m.RunReport) error {
	args := s.Called(ctx, path, report)
	return args.Error(0)
}

func (s *MockReportStore) LoadReport(ctx context.Context, path m.Path) (m.RunReport, error) {
	args := s.Called(ctx, path)
	return args.Get(0).(m.RunReport), args.Error(1)
}

// Package mocks provides testify mocks for the domain package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"unpin.dev/pkg/unpin/internal/domain"
	m "unpin.dev/pkg/unpin/internal/model"
)

// MockWorkflow is a mock implementation of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

var _ domain.Workflow = (*MockWorkflow)(nil)

// NewMockWorkflow creates a MockWorkflow whose expectations are asserted on cleanup.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	wf := &MockWorkflow{}
	wf.Mock.Test(t)

	t.Cleanup(func() { wf.AssertExpectations(t) })

	return wf
}

func (w *MockWorkflow) Patch(ctx context.Context, args domain.PatchArgs) (m.RunReport, error) {
	ret := w.Called(ctx, args)
	return ret.Get(0).(m.RunReport), ret.Error(1)
}

func (w *MockWorkflow) Estimate(ctx context.Context, args domain.EstimateArgs) error {
	ret := w.Called(ctx, args)
	return ret.Error(0)
}

func (w *MockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	ret := w.Called(ctx, args)
	return ret.Error(0)
}

func (w *MockWorkflow) WriteNetworkConfig(ctx context.Context, args domain.NetworkConfigArgs) (m.Path, error) {
	ret := w.Called(ctx, args)
	return ret.Get(0).(m.Path), ret.Error(1)
}

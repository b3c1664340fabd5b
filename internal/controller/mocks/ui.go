// Package mocks provides testify mocks for the controller package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"unpin.dev/pkg/unpin/internal/controller"
	m "unpin.dev/pkg/unpin/internal/model"
)

// MockUI is a mock implementation of controller.UI.
type MockUI struct {
	mock.Mock
}

var _ controller.UI = (*MockUI)(nil)

// NewMockUI creates a MockUI whose expectations are asserted on cleanup.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	ui := &MockUI{}
	ui.Mock.Test(t)

	t.Cleanup(func() { ui.AssertExpectations(t) })

	return ui
}

func (u *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	args := u.Called(ctx, options)
	return args.Error(0)
}

func (u *MockUI) Close(ctx context.Context) {
	u.Called(ctx)
}

func (u *MockUI) Wait(ctx context.Context) {
	u.Called(ctx)
}

func (u *MockUI) DisplayRunInfo(ctx context.Context, root m.Path, threads int, dryRun bool) {
	u.Called(ctx, root, threads, dryRun)
}

func (u *MockUI) DisplayFileResult(ctx context.Context, report m.FileReport) {
	u.Called(ctx, report)
}

func (u *MockUI) DisplayRunReport(ctx context.Context, report m.RunReport) error {
	args := u.Called(ctx, report)
	return args.Error(0)
}

func (u *MockUI) DisplayEstimation(ctx context.Context, reports []m.FileReport, err error) error {
	args := u.Called(ctx, reports, err)
	return args.Error(0)
}

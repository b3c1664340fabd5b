// Package controller renders patch progress and results.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	m "unpin.dev/pkg/unpin/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModePatch StartMode = iota
	ModeEstimate
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithPatchMode sets the UI to patch progress mode.
func WithPatchMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModePatch
	}
}

// WithEstimateMode sets the UI to candidate listing mode.
func WithEstimateMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeEstimate
	}
}

// WithViewMode sets the UI to saved report mode.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

func newStartConfig(options ...StartOption) StartConfig {
	cfg := StartConfig{mode: ModePatch}
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

// UI defines the interface for reporting patch runs.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayRunInfo(ctx context.Context, root m.Path, threads int, dryRun bool)
	DisplayFileResult(ctx context.Context, report m.FileReport)
	DisplayRunReport(ctx context.Context, report m.RunReport) error
	DisplayEstimation(ctx context.Context, reports []m.FileReport, err error) error
}

// NewUI picks the interactive TUI for terminals and SimpleUI otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

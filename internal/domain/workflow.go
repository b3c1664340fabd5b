package domain

import (
	"context"
	"errors"

	"unpin.dev/pkg/unpin/internal/adapter"
	m "unpin.dev/pkg/unpin/internal/model"
)

// ErrNetworkConfigExists is returned when the network security config already
// exists and overwriting was not requested.
var ErrNetworkConfigExists = errors.New("network security config already exists")

// PatchArgs contains the arguments for patching a decompiled tree.
type PatchArgs struct {
	Root       m.Path
	Scan       adapter.ScanOptions
	Threads    int
	LineEnding m.LineEnding
	DryRun     bool
	ShowDiff   bool
	Backup     m.Path // copy of the tree taken before writing, empty to skip
	Report     m.Path // YAML report destination, empty to skip
}

// EstimateArgs contains the arguments for listing patchable candidates.
type EstimateArgs struct {
	Root       m.Path
	Scan       adapter.ScanOptions
	Threads    int
	LineEnding m.LineEnding
}

// ViewArgs contains the arguments for displaying a saved report.
type ViewArgs struct {
	Report m.Path
}

// NetworkConfigArgs contains the arguments for writing the network security config.
type NetworkConfigArgs struct {
	Root  m.Path
	Force bool
}

// Workflow defines the operations exposed to the CLI.
type Workflow interface {
	Patch(ctx context.Context, args PatchArgs) (m.RunReport, error)
	Estimate(ctx context.Context, args EstimateArgs) error
	View(ctx context.Context, args ViewArgs) error
	WriteNetworkConfig(ctx context.Context, args NetworkConfigArgs) (m.Path, error)
}

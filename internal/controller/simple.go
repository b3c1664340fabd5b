package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "unpin.dev/pkg/unpin/internal/model"
)

const noPinningMessage = "No certificate pinning logic found."

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd *cobra.Command
	// mu serializes writes; file results arrive from worker goroutines.
	mu sync.Mutex
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	// SimpleUI doesn't block - it just prints and continues
}

// DisplayRunInfo prints the run settings.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, root m.Path, threads int, dryRun bool) {
	if err := ctx.Err(); err != nil {
		return
	}

	suffix := ""
	if dryRun {
		suffix = " (dry run)"
	}

	s.printf("Scanning %s with %d worker(s)%s\n", root, threads, suffix)
}

// DisplayFileResult prints patched files and their diff when present.
func (s *SimpleUI) DisplayFileResult(ctx context.Context, report m.FileReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	if !report.Patched {
		return
	}

	line := fmt.Sprintf("Patched %s (%s)\n", report.Path, strings.Join(report.Methods, ", "))
	if report.Diff != "" {
		line += report.Diff + "\n"
	}

	s.printf("%s", line)
}

// DisplayRunReport prints the final table and summary.
func (s *SimpleUI) DisplayRunReport(ctx context.Context, report m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !report.AnyPatched() {
		s.printf("%s\n", noPinningMessage)
		return nil
	}

	patched := sortReports(report.PatchedFiles())
	s.printf("\n%s", renderMethodsTable(patched, report.PatchedMethods()))
	s.printf("%s\n", summaryLine(report))

	return nil
}

// DisplayEstimation prints candidate files with the methods that would be patched.
func (s *SimpleUI) DisplayEstimation(ctx context.Context, reports []m.FileReport, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		s.printf("estimation error: %v\n", err)
		return err
	}

	if len(reports) == 0 {
		s.printf("%s\n", noPinningMessage)
		return nil
	}

	total := 0
	for _, report := range reports {
		total += len(report.Methods)
	}

	s.printf("\n%s", renderMethodsTable(sortReports(reports), total))

	return nil
}

func renderMethodsTable(reports []m.FileReport, totalMethods int) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Methods"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, report := range reports {
		table.Append([]string{string(report.Path), strings.Join(report.Methods, ", ")})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(reports)),
		fmt.Sprintf("%d methods", totalMethods),
	})

	table.Render()

	return tableBuffer.String()
}

func summaryLine(report m.RunReport) string {
	verb := "Patched"
	if report.DryRun {
		verb = "Would patch"
	}

	return fmt.Sprintf("%s %d method(s) in %d file(s) (%d candidate(s) scanned)",
		verb, report.PatchedMethods(), len(report.PatchedFiles()), report.Candidates())
}

func sortReports(reports []m.FileReport) []m.FileReport {
	sorted := make([]m.FileReport, len(reports))
	copy(sorted, reports)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	return sorted
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"unpin.dev/pkg/unpin/internal/adapter"
	"unpin.dev/pkg/unpin/internal/controller"
	m "unpin.dev/pkg/unpin/internal/model"
)

type workflowPipeline struct {
	adapter.ReportStore
	adapter.SourceFSAdapter
	controller.UI
}

// NewWorkflow creates a Workflow that streams sources through a bounded
// worker pool.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
) Workflow {
	return &workflowPipeline{
		SourceFSAdapter: fsAdapter,
		ReportStore:     reportStore,
		UI:              ui,
	}
}

// Patch rewrites every X509TrustManager implementation below args.Root.
// File errors do not stop the run; they are joined into the returned error
// after the report has been displayed.
func (w *workflowPipeline) Patch(ctx context.Context, args PatchArgs) (m.RunReport, error) {
	if err := w.checkRoot(ctx, args.Root); err != nil {
		return m.RunReport{}, err
	}

	threads := normalizeThreads(args.Threads)
	report := m.RunReport{
		ID:        uuid.NewString(),
		Root:      args.Root,
		DryRun:    args.DryRun,
		StartedAt: time.Now(),
	}

	if err := w.Start(ctx, controller.WithPatchMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return report, err
	}

	if args.Backup != "" && !args.DryRun {
		if err := w.CopyDir(ctx, args.Root, args.Backup); err != nil {
			w.Close(ctx)
			slog.Error("Failed to back up decompiled tree", "root", args.Root, "backup", args.Backup, "error", err)

			return report, fmt.Errorf("backup %s: %w", args.Root, err)
		}

		slog.Info("Backed up decompiled tree", "root", args.Root, "backup", args.Backup)
	}

	w.DisplayRunInfo(ctx, args.Root, threads, args.DryRun)

	patcher := NewPatcher(WithLineEnding(args.LineEnding))

	files, runErr := w.processSources(ctx, args.Root, args.Scan, threads, func(ctx context.Context, source m.Source) (m.FileReport, error) {
		return w.patchSource(ctx, patcher, source, args)
	})

	report.Files = files
	report.FinishedAt = time.Now()

	slog.Info("Patch run finished",
		"id", report.ID,
		"files", len(report.Files),
		"candidates", report.Candidates(),
		"patched", len(report.PatchedFiles()),
		"dry_run", report.DryRun)

	if args.Report != "" {
		if err := w.SaveReport(ctx, args.Report, report); err != nil {
			slog.Error("Failed to save report", "path", args.Report, "error", err)
			runErr = errors.Join(runErr, fmt.Errorf("save report: %w", err))
		}
	}

	if err := w.DisplayRunReport(ctx, report); err != nil {
		w.Close(ctx)
		return report, errors.Join(runErr, fmt.Errorf("display: %w", err))
	}

	w.Wait(ctx)
	w.Close(ctx)

	return report, runErr
}

// Estimate lists candidate files together with the methods Patch would rewrite.
func (w *workflowPipeline) Estimate(ctx context.Context, args EstimateArgs) error {
	if err := w.checkRoot(ctx, args.Root); err != nil {
		return err
	}

	threads := normalizeThreads(args.Threads)

	if err := w.Start(ctx, controller.WithEstimateMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	patcher := NewPatcher(WithLineEnding(args.LineEnding))

	files, err := w.processSources(ctx, args.Root, args.Scan, threads, func(ctx context.Context, source m.Source) (m.FileReport, error) {
		return w.inspectSource(ctx, patcher, source)
	})

	candidates := make([]m.FileReport, 0)

	for _, file := range files {
		if file.Candidate && len(file.Methods) > 0 {
			candidates = append(candidates, file)
		}
	}

	displayErr := w.DisplayEstimation(ctx, candidates, err)
	if err != nil {
		w.Close(ctx)
		return fmt.Errorf("estimate: %w", err)
	}

	if displayErr != nil {
		w.Close(ctx)
		return fmt.Errorf("display: %w", displayErr)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

// View renders a report saved by a previous Patch run.
func (w *workflowPipeline) View(ctx context.Context, args ViewArgs) error {
	report, err := w.LoadReport(ctx, args.Report)
	if err != nil {
		slog.Error("Failed to load report", "path", args.Report, "error", err)
		return fmt.Errorf("load report: %w", err)
	}

	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		return err
	}

	w.DisplayRunInfo(ctx, report.Root, 0, report.DryRun)

	if err := w.DisplayRunReport(ctx, report); err != nil {
		w.Close(ctx)
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

func (w *workflowPipeline) checkRoot(ctx context.Context, root m.Path) error {
	info, err := w.FileInfo(ctx, root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", adapter.ErrRootNotFound, root)
	}

	return nil
}

type sourceFunc func(ctx context.Context, source m.Source) (m.FileReport, error)

// processSources runs fn for every enumerated source on at most threads
// goroutines. Reports are returned sorted by path.
func (w *workflowPipeline) processSources(ctx context.Context, root m.Path, scan adapter.ScanOptions, threads int, fn sourceFunc) ([]m.FileReport, error) {
	sourcesChannel, sourcesErrorChannel := w.GetChannel(ctx, root, threads, scan)

	var (
		mu    sync.Mutex
		files []m.FileReport
		errs  []error
		group errgroup.Group
	)

	group.SetLimit(threads)

	for source := range sourcesChannel {
		currentSource := source

		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			report, err := fn(ctx, currentSource)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				errs = append(errs, err)
				return nil
			}

			files = append(files, report)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		errs = append(errs, err)
	}

	if err := <-sourcesErrorChannel; err != nil {
		errs = append(errs, fmt.Errorf("get sources: %w", err))
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, errors.Join(errs...)
}

func (w *workflowPipeline) patchSource(ctx context.Context, patcher Patcher, source m.Source, args PatchArgs) (m.FileReport, error) {
	if source.Origin == nil {
		return m.FileReport{}, fmt.Errorf("missing source origin")
	}

	path := source.Origin.FullPath
	report := m.FileReport{Path: source.Origin.ShortPath}

	content, err := w.ReadFile(ctx, path)
	if err != nil {
		slog.Error("Failed to read source", "path", path, "error", err)
		return report, fmt.Errorf("read source %s: %w", path, err)
	}

	text := string(content)
	if !IsCandidate(text) {
		w.DisplayFileResult(ctx, report)
		return report, nil
	}

	report.Candidate = true

	result := patcher.Patch(text)
	if !result.Changed {
		slog.Debug("Candidate left unchanged", "path", path)
		w.DisplayFileResult(ctx, report)

		return report, nil
	}

	report.Patched = true
	report.Methods = methodNames(result.Methods)

	if args.ShowDiff {
		report.Diff, err = diffCode(string(report.Path), text, result.Content)
		if err != nil {
			return report, err
		}
	}

	if !args.DryRun {
		if err := w.WriteFile(ctx, path, []byte(result.Content)); err != nil {
			slog.Error("Failed to write patched source", "path", path, "error", err)
			return report, fmt.Errorf("write source %s: %w", path, err)
		}
	}

	slog.Info("Patched source", "path", path, "methods", report.Methods, "dry_run", args.DryRun)
	w.DisplayFileResult(ctx, report)

	return report, nil
}

func (w *workflowPipeline) inspectSource(ctx context.Context, patcher Patcher, source m.Source) (m.FileReport, error) {
	if source.Origin == nil {
		return m.FileReport{}, fmt.Errorf("missing source origin")
	}

	report := m.FileReport{Path: source.Origin.ShortPath}

	content, err := w.ReadFile(ctx, source.Origin.FullPath)
	if err != nil {
		return report, fmt.Errorf("read source %s: %w", source.Origin.FullPath, err)
	}

	text := string(content)
	if !IsCandidate(text) {
		return report, nil
	}

	report.Candidate = true
	report.Methods = methodNames(patcher.Inspect(text))

	return report, nil
}

func methodNames(signatures []m.MethodSignature) []string {
	names := make([]string, 0, len(signatures))
	for _, signature := range signatures {
		names = append(names, signature.Name)
	}

	return names
}

func normalizeThreads(threads int) int {
	if threads <= 0 {
		return runtime.NumCPU()
	}

	return threads
}

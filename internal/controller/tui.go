package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	m "unpin.dev/pkg/unpin/internal/model"
)

const (
	progressWidth  = 40
	maxRecentFiles = 8
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	patchedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output  io.Writer
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program in the background.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options...)

	t.done = make(chan struct{})
	t.program = tea.NewProgram(newRunModel(cfg.mode), tea.WithOutput(t.output), tea.WithContext(ctx))

	go func() {
		defer close(t.done)

		if _, err := t.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			slog.Error("TUI stopped", "error", err)
		}
	}()

	return nil
}

// Close stops the program and waits for it to restore the terminal.
func (t *TUI) Close(ctx context.Context) {
	if t.program == nil {
		return
	}

	t.program.Quit()
	t.Wait(ctx)
}

// Wait blocks until the program exits or ctx is done.
func (t *TUI) Wait(ctx context.Context) {
	if t.done == nil {
		return
	}

	select {
	case <-ctx.Done():
	case <-t.done:
	}
}

// DisplayRunInfo shows the run settings in the header.
func (t *TUI) DisplayRunInfo(_ context.Context, root m.Path, threads int, dryRun bool) {
	t.send(runInfoMsg{root: root, threads: threads, dryRun: dryRun})
}

// DisplayFileResult updates the counters and the recently patched list.
func (t *TUI) DisplayFileResult(_ context.Context, report m.FileReport) {
	t.send(fileResultMsg{report: report})
}

// DisplayRunReport shows the summary and ends the program.
func (t *TUI) DisplayRunReport(ctx context.Context, report m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.send(runReportMsg{report: report})

	return nil
}

// DisplayEstimation shows the candidate list and ends the program.
func (t *TUI) DisplayEstimation(ctx context.Context, reports []m.FileReport, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	t.send(estimationMsg{reports: reports, err: err})

	return err
}

func (t *TUI) send(msg tea.Msg) {
	if t.program == nil {
		return
	}

	t.program.Send(msg)
}

type runInfoMsg struct {
	root    m.Path
	threads int
	dryRun  bool
}

type fileResultMsg struct {
	report m.FileReport
}

type runReportMsg struct {
	report m.RunReport
}

type estimationMsg struct {
	reports []m.FileReport
	err     error
}

// runModel is the Bubble Tea model shared by all start modes.
type runModel struct {
	mode       StartMode
	spinner    spinner.Model
	progress   progress.Model
	root       m.Path
	threads    int
	dryRun     bool
	scanned    int
	candidates int
	recent     []m.FileReport
	report     *m.RunReport
	estimation []m.FileReport
	err        error
	done       bool
}

func newRunModel(mode StartMode) runModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return runModel{
		mode:     mode,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
	}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return rm, tea.Quit
		}

		return rm, nil

	case spinner.TickMsg:
		if rm.done {
			return rm, nil
		}

		var cmd tea.Cmd
		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd

	case runInfoMsg:
		rm.root = msg.root
		rm.threads = msg.threads
		rm.dryRun = msg.dryRun

		return rm, nil

	case fileResultMsg:
		rm.scanned++

		if msg.report.Candidate {
			rm.candidates++
		}

		if msg.report.Patched {
			rm.recent = append(rm.recent, msg.report)
			if len(rm.recent) > maxRecentFiles {
				rm.recent = rm.recent[len(rm.recent)-maxRecentFiles:]
			}
		}

		return rm, nil

	case runReportMsg:
		report := msg.report
		rm.report = &report
		rm.done = true

		return rm, tea.Quit

	case estimationMsg:
		rm.estimation = msg.reports
		rm.err = msg.err
		rm.done = true

		return rm, tea.Quit
	}

	return rm, nil
}

func (rm runModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("unpin - certificate pinning patcher"))
	b.WriteString("\n\n")

	if rm.root != "" {
		mode := ""
		if rm.dryRun {
			mode = " (dry run)"
		}

		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s | %d worker(s)%s", rm.root, rm.threads, mode)))
		b.WriteString("\n\n")
	}

	switch {
	case rm.mode == ModeEstimate && rm.done:
		rm.renderEstimation(&b)
	case rm.report != nil:
		rm.renderReport(&b, *rm.report)
	default:
		rm.renderProgress(&b)
	}

	return b.String()
}

func (rm runModel) renderProgress(b *strings.Builder) {
	fmt.Fprintf(b, "  %s scanned %d file(s), %d candidate(s)\n", rm.spinner.View(), rm.scanned, rm.candidates)

	for _, report := range rm.recent {
		b.WriteString("  ")
		b.WriteString(patchedStyle.Render("✓ " + string(report.Path)))
		b.WriteString(mutedStyle.Render(" " + strings.Join(report.Methods, ", ")))
		b.WriteString("\n")
	}
}

func (rm runModel) renderReport(b *strings.Builder, report m.RunReport) {
	if !report.AnyPatched() {
		b.WriteString("  " + noPinningMessage + "\n")
		return
	}

	for _, file := range sortReports(report.PatchedFiles()) {
		b.WriteString("  ")
		b.WriteString(patchedStyle.Render("✓ " + string(file.Path)))
		b.WriteString(mutedStyle.Render(" " + strings.Join(file.Methods, ", ")))
		b.WriteString("\n")
	}

	ratio := 0.0
	if candidates := report.Candidates(); candidates > 0 {
		ratio = float64(len(report.PatchedFiles())) / float64(candidates)
	}

	b.WriteString("\n  ")
	b.WriteString(rm.progress.ViewAs(ratio))
	b.WriteString("\n  ")
	b.WriteString(summaryLine(report))
	b.WriteString("\n")
}

func (rm runModel) renderEstimation(b *strings.Builder) {
	if rm.err != nil {
		b.WriteString("  " + errorStyle.Render("estimation error: "+rm.err.Error()) + "\n")
		return
	}

	if len(rm.estimation) == 0 {
		b.WriteString("  " + noPinningMessage + "\n")
		return
	}

	total := 0

	for _, report := range sortReports(rm.estimation) {
		total += len(report.Methods)

		fmt.Fprintf(b, "  %s %s\n", string(report.Path), mutedStyle.Render(strings.Join(report.Methods, ", ")))
	}

	fmt.Fprintf(b, "\n  %d method(s) in %d candidate file(s)\n", total, len(rm.estimation))
}

package model

import "time"

// PatchResult is the outcome of patching the content of one file.
type PatchResult struct {
	Changed bool
	Content string
	Methods []MethodSignature // rewritten signatures, in table order
}

// FileReport records what happened to a single source file during a run.
type FileReport struct {
	Path      Path     `yaml:"path"`
	Candidate bool     `yaml:"candidate"`
	Patched   bool     `yaml:"patched"`
	Methods   []string `yaml:"methods,omitempty"`
	Diff      string   `yaml:"diff,omitempty"`
}

// RunReport aggregates the file reports of one patch run.
type RunReport struct {
	ID         string       `yaml:"id"`
	Root       Path         `yaml:"root"`
	DryRun     bool         `yaml:"dry_run"`
	StartedAt  time.Time    `yaml:"started_at"`
	FinishedAt time.Time    `yaml:"finished_at"`
	Files      []FileReport `yaml:"files"`
}

// AnyPatched reports whether at least one file was patched.
func (r RunReport) AnyPatched() bool {
	for _, file := range r.Files {
		if file.Patched {
			return true
		}
	}

	return false
}

// PatchedFiles returns the reports of patched files only.
func (r RunReport) PatchedFiles() []FileReport {
	patched := make([]FileReport, 0)

	for _, file := range r.Files {
		if file.Patched {
			patched = append(patched, file)
		}
	}

	return patched
}

// PatchedMethods counts rewritten methods across all files.
func (r RunReport) PatchedMethods() int {
	total := 0
	for _, file := range r.Files {
		total += len(file.Methods)
	}

	return total
}

// Candidates counts files that declared the trust manager interface.
func (r RunReport) Candidates() int {
	total := 0

	for _, file := range r.Files {
		if file.Candidate {
			total++
		}
	}

	return total
}

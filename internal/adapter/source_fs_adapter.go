// Package adapter contains the infrastructure adapters used by the unpin workflow.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	cp "github.com/otiai10/copy"
	"golang.org/x/sync/errgroup"
	m "unpin.dev/pkg/unpin/internal/model"
)

// ErrRootNotFound is returned when the decompiled root does not exist or is
// not a directory.
var ErrRootNotFound = errors.New("decompiled root not found")

const defaultFilePerm = 0o644

// ScanOptions controls which files GetChannel enumerates.
type ScanOptions struct {
	// Prefix selects top-level directories, e.g. "smali" matches smali and smali_classes2.
	Prefix string
	// Extension selects files below them, e.g. ".smali".
	Extension string
	// Exclude holds regular expressions matched against the path relative to the root.
	Exclude []string
}

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when scanning a decompiled tree. It hides direct `os` access so the
// workflow logic can be tested against fakes.
type SourceFSAdapter interface {
	// GetChannel streams the files selected by opts below root. The source
	// channel closes once enumeration ends; the error channel then yields at
	// most one error and closes.
	GetChannel(ctx context.Context, root m.Path, threads int, opts ScanOptions) (<-chan m.Source, <-chan error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// WriteFile replaces path with content through a temporary file and a
	// rename, keeping the permissions of an existing file.
	WriteFile(ctx context.Context, path m.Path, content []byte) error

	// FileInfo returns metadata for a path.
	FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error)

	// CopyDir recursively copies a directory tree.
	CopyDir(ctx context.Context, src, dst m.Path) error

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// GetChannel walks every matching top-level directory concurrently.
func (a *LocalSourceFSAdapter) GetChannel(ctx context.Context, root m.Path, threads int, opts ScanOptions) (<-chan m.Source, <-chan error) {
	if threads <= 0 {
		threads = 1
	}

	sources := make(chan m.Source, threads)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(sources)

		if err := a.enumerate(ctx, root, threads, opts, sources); err != nil {
			errs <- err
		}
	}()

	return sources, errs
}

func (a *LocalSourceFSAdapter) enumerate(ctx context.Context, root m.Path, threads int, opts ScanOptions, sources chan<- m.Source) error {
	rootStr := string(root)

	info, err := os.Stat(rootStr)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	exclude, err := compileExcludes(opts.Exclude)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(rootStr)
	if err != nil {
		return fmt.Errorf("read root %s: %w", root, err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(threads)

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), opts.Prefix) {
			continue
		}

		dir := filepath.Join(rootStr, entry.Name())

		group.Go(func() error {
			slog.Debug("scanning directory", "dir", dir)
			return walkSources(groupCtx, rootStr, dir, opts.Extension, exclude, sources)
		})
	}

	return group.Wait()
}

func walkSources(ctx context.Context, root, dir, extension string, exclude []*regexp.Regexp, sources chan<- m.Source) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), extension) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)
		if isExcluded(rel, exclude) {
			slog.Debug("excluded source", "path", rel)
			return nil
		}

		source := m.Source{Origin: &m.File{FullPath: m.Path(path), ShortPath: m.Path(rel)}}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sources <- source:
			return nil
		}
	})
}

func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}

func isExcluded(rel string, exclude []*regexp.Regexp) bool {
	for _, re := range exclude {
		if re.MatchString(rel) {
			return true
		}
	}

	return false
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.ReadFile(string(path))
}

// WriteFile writes content next to path and renames it into place.
func (a *LocalSourceFSAdapter) WriteFile(ctx context.Context, path m.Path, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := string(path)
	perm := os.FileMode(defaultFilePerm)

	if info, err := os.Stat(target); err == nil {
		perm = info.Mode().Perm()
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".unpin-*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, target)
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.Stat(string(path))
}

// CopyDir recursively copies a directory tree, keeping modification times.
func (a *LocalSourceFSAdapter) CopyDir(ctx context.Context, src, dst m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return cp.Copy(string(src), string(dst), cp.Options{
		PreserveTimes: true,
		Skip: func(_ os.FileInfo, _, _ string) (bool, error) {
			return ctx.Err() != nil, nil
		},
	})
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}

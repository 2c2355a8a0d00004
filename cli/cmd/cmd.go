package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the writer kong was configured with, or [os.Stdout].
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// variable returns the kong variable named id, or "" without a kong context.
func variable(ctx context.Context, id string) string {
	if ktx := kongContextFrom(ctx); ktx != nil {
		return ktx.Model.Vars()[id]
	}

	return ""
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// fileKey uniquely identifies a file by its device and inode numbers, so
// that one file named through different paths or symlinks is read once.
type fileKey struct {
	dev uint64
	ino uint64
}

func makeFileKey(info os.FileInfo) (fileKey, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{}, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// sources reads a list of script files as one input, each file followed by a
// newline so that statements never join across files.
type sources struct {
	io.Reader

	files []*os.File
	names []string
}

func (s *sources) Close() error {
	var errs []error

	for _, f := range s.files {
		errs = append(errs, f.Close())
	}

	return errors.Join(errs...)
}

// Name describes the sources for log records.
func (s *sources) Name() string { return strings.Join(s.names, ",") }

// openSources opens paths for reading in order. Duplicate files are read
// once. Every "-" collapses into a single read of stdin, placed last. An
// empty list reads stdin.
func openSources(paths []string) (*sources, error) {
	if len(paths) == 0 {
		paths = []string{stdinSource}
	}

	var (
		s        sources
		readers  []io.Reader
		hasStdin bool
	)

	seen := make(map[fileKey]struct{})

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		f, err := openUnique(path, seen)
		if err != nil {
			_ = s.Close()

			return nil, ErrOpenSource.With(slog.String("file", path)).Wrap(err)
		}

		if f == nil {
			continue
		}

		s.files = append(s.files, f)
		s.names = append(s.names, path)
		readers = append(readers, f, strings.NewReader("\n"))
	}

	if hasStdin {
		s.names = append(s.names, stdinSource)
		readers = append(readers, os.Stdin)
	}

	s.Reader = io.MultiReader(readers...)

	return &s, nil
}

// openUnique opens path unless a file with the same device and inode is
// already in seen. It returns a nil file for duplicates.
func openUnique(path string, seen map[fileKey]struct{}) (*os.File, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	if key, ok := makeFileKey(info); ok {
		if _, dup := seen[key]; dup {
			_ = f.Close()

			return nil, nil
		}

		seen[key] = struct{}{}
	}

	return f, nil
}

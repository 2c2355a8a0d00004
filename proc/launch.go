package proc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/psh/log"
)

// Launcher starts command trees as processes.
type Launcher struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	dir    string
	logger log.Logger
}

// Option configures a [Launcher].
type Option func(*Launcher)

// WithStdio sets the streams used by [Launcher.Run]. Capture uses only in.
// A nil stream is connected to the null device.
func WithStdio(in io.Reader, out, err io.Writer) Option {
	return func(l *Launcher) {
		l.stdin, l.stdout, l.stderr = in, out, err
	}
}

// WithDir sets the working directory of launched processes and the base of
// relative redirect paths.
func WithDir(dir string) Option {
	return func(l *Launcher) { l.dir = dir }
}

// WithLogger sets the logger used for spawn and exit records.
func WithLogger(logger log.Logger) Option {
	return func(l *Launcher) { l.logger = logger }
}

// New returns a Launcher connected to the current process's standard
// streams, modified by opts.
func New(opts ...Option) *Launcher {
	l := &Launcher{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// streams are the standard streams handed to one node of a command tree.
type streams struct {
	in       io.Reader
	out, err io.Writer
}

// Run executes c connected to the launcher's standard streams and returns
// the exit status of the last process that ran.
//
// env is the complete child environment; nil inherits the current process's
// environment.
func (l *Launcher) Run(ctx context.Context, c Cmd, env []string) (int, error) {
	return l.exec(ctx, c, env, streams{in: l.stdin, out: l.stdout, err: l.stderr})
}

// Capture executes c with stdout and stderr both collected and returns the
// collected output with trailing newlines removed.
func (l *Launcher) Capture(
	ctx context.Context,
	c Cmd,
	env []string,
) (string, int, error) {
	var buf syncBuffer

	status, err := l.exec(ctx, c, env, streams{in: l.stdin, out: &buf, err: &buf})

	return strings.TrimRight(buf.String(), "\n"), status, err
}

func (l *Launcher) exec(
	ctx context.Context,
	c Cmd,
	env []string,
	s streams,
) (int, error) {
	if err := context.Cause(ctx); err != nil {
		return -1, ErrCanceled.Wrap(err)
	}

	switch c := c.(type) {
	case *Atom:
		return l.spawn(ctx, c, env, s)

	case *Op:
		switch {
		case c.Op == And, c.Op == Or:
			status, err := l.exec(ctx, c.Lhs, env, s)
			if err != nil || (status == 0) != (c.Op == And) {
				return status, err
			}

			return l.exec(ctx, c.Rhs, env, s)

		case c.Op.IsPipe():
			return l.pipe(ctx, c, env, s)

		case c.Op.IsWrite():
			return l.redirectWrite(ctx, c, env, s)

		case c.Op.IsRead():
			return l.redirectRead(ctx, c, env, s)
		}

		return -1, ErrOperator.With(slog.String("op", c.Op.String()))
	}

	return -1, ErrEmptyCommand
}

func (l *Launcher) spawn(
	ctx context.Context,
	a *Atom,
	env []string,
	s streams,
) (int, error) {
	if len(a.Args) == 0 {
		return -1, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, a.Args[0], a.Args[1:]...)
	cmd.Env = env
	cmd.Dir = l.dir
	cmd.Stdin, cmd.Stdout, cmd.Stderr = s.in, s.out, s.err

	l.logger.DebugContext(ctx, "spawn",
		slog.String("command", a.String()),
		slog.String("dir", l.dir),
	)

	err := cmd.Run()

	var exitErr *exec.ExitError

	switch {
	case err == nil:
		l.logger.TraceContext(ctx, "exit", slog.String("command", a.Args[0]), slog.Int("status", 0))

		return 0, nil

	case errors.As(err, &exitErr):
		if cause := context.Cause(ctx); cause != nil {
			return -1, ErrCanceled.Wrap(cause).With(slog.String("command", a.Args[0]))
		}

		status := exitErr.ExitCode()
		if status < 0 {
			// terminated by a signal
			status = 255
		}

		l.logger.TraceContext(ctx, "exit", slog.String("command", a.Args[0]), slog.Int("status", status))

		return status, nil
	}

	return -1, ErrSpawn.Wrap(err).With(slog.String("command", a.Args[0]))
}

// pipe runs both sides of c concurrently with the selected output streams of
// the left side connected to the standard input of the right side. The
// status is that of the right side.
func (l *Launcher) pipe(
	ctx context.Context,
	c *Op,
	env []string,
	s streams,
) (int, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return -1, ErrCreatePipe.Wrap(err)
	}

	left, right := s, s
	right.in = r

	if c.Op.Stream()&StreamOut != 0 {
		left.out = w
	}

	if c.Op.Stream()&StreamErr != 0 {
		left.err = w
	}

	var (
		g      errgroup.Group
		status int
	)

	g.Go(func() error {
		defer w.Close()

		_, err := l.exec(ctx, c.Lhs, env, left)

		return err
	})

	g.Go(func() error {
		defer r.Close()

		var err error

		status, err = l.exec(ctx, c.Rhs, env, right)

		return err
	})

	err = g.Wait()

	return status, err
}

func (l *Launcher) redirectWrite(
	ctx context.Context,
	c *Op,
	env []string,
	s streams,
) (int, error) {
	path, err := l.target(c)
	if err != nil {
		return -1, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return -1, ErrRedirectOpen.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	if c.Op.Stream()&StreamOut != 0 {
		s.out = f
	}

	if c.Op.Stream()&StreamErr != 0 {
		s.err = f
	}

	return l.exec(ctx, c.Lhs, env, s)
}

func (l *Launcher) redirectRead(
	ctx context.Context,
	c *Op,
	env []string,
	s streams,
) (int, error) {
	path, err := l.target(c)
	if err != nil {
		return -1, err
	}

	f, err := os.Open(path)
	if err != nil {
		return -1, ErrRedirectOpen.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	s.in = f

	return l.exec(ctx, c.Lhs, env, s)
}

// target returns the file path named by the right side of a redirection.
func (l *Launcher) target(c *Op) (string, error) {
	a, ok := c.Rhs.(*Atom)
	if !ok || len(a.Args) == 0 {
		return "", ErrRedirectTarget.With(slog.String("target", c.Rhs.String()))
	}

	path := strings.Join(a.Args, " ")
	if l.dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}

	return path, nil
}

// syncBuffer is a bytes.Buffer safe for concurrent writers, such as the
// stages of a captured pipeline.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/psh/lang"
	"github.com/ardnew/psh/log"
	"github.com/ardnew/psh/proc"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-parse-retry loop.
// It writes the session source to a temp file, opens the user's editor on
// it, and parses the result. On a parse error the user is asked to re-edit;
// declining ends the REPL.
type editCommand struct {
	source  string
	ctxFunc func() context.Context
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer

	// Set by Run on success. A nil prog means the user emptied the file.
	newSource string
	prog      *lang.Program
}

func (c *editCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. It returns [ErrEditDeclined] if the user
// declines to fix a parse error.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", "psh-repl-*.psh")
	if err != nil {
		return err
	}

	path := f.Name()

	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	content := c.source
	in := bufio.NewScanner(c.stdin)

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		if err := c.runEditor(ctx, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		content = string(data)
		if strings.TrimSpace(content) == "" {
			return nil
		}

		prog, parseErr := lang.ParseString(
			ctx,
			content,
			lang.WithParseLogger(c.logger),
			lang.WithParseCache(false),
		)
		c.logger.TraceContext(
			ctx,
			"editor parse attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", parseErr == nil),
		)

		if parseErr == nil {
			c.newSource, c.prog = content, prog

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", parseErr)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		if !in.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(in.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor opens $EDITOR, which may carry arguments, on path and waits for
// it to exit.
func (c *editCommand) runEditor(ctx context.Context, path string) error {
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	launcher := proc.New(
		proc.WithStdio(c.stdin, c.stdout, c.stderr),
		proc.WithLogger(c.logger),
	)

	status, err := launcher.Run(ctx, &proc.Atom{Args: append(args, path)}, nil)
	if err != nil {
		return err
	}

	if status != 0 {
		return fmt.Errorf("%w: %s exited with status %d", ErrEditorFailed, args[0], status)
	}

	return nil
}

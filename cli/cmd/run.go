package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/ardnew/psh/lang"
	"github.com/ardnew/psh/log"
)

// Run executes a script file.
type Run struct {
	Interp interpConfig `embed:""`

	Capture bool `help:"Collect script output and print it when the script ends"`

	File string   `arg:"" help:"Script file or '-' for stdin; without one, a terminal starts the REPL" name:"file" optional:""`
	Args []string `arg:"" help:"Arguments bound to args"                                                name:"args" optional:"" passthrough:"" sep:"none"`

	isTerminal func() bool
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	opts, err := r.Interp.options()
	if err != nil {
		return err
	}

	if r.File == "" && r.terminal() {
		log.DebugContext(ctx, "no script on a terminal, starting repl")

		return startRepl(ctx, opts)
	}

	var paths []string
	if r.File != "" {
		paths = append(paths, r.File)
	}

	src, err := openSources(paths)
	if err != nil {
		return err
	}
	defer src.Close()

	prog, err := lang.ParseReader(ctx, src, lang.WithParseLogger(log.Default()))
	if err != nil {
		return lang.WrapError(err).With(
			slog.String("command", "run"),
			slog.String("file", src.Name()),
		)
	}

	ip := lang.New(append(opts,
		lang.WithArgs(r.Args...),
		lang.WithCapture(r.Capture),
		lang.WithStdout(stdout(ctx)),
	)...)

	if err := ip.Run(ctx, prog); err != nil {
		return err
	}

	if r.Capture {
		_, err = fmt.Fprint(stdout(ctx), ip.Output())
	}

	return err
}

func (r *Run) terminal() bool {
	if r.isTerminal != nil {
		return r.isTerminal()
	}

	return term.IsTerminal(int(os.Stdin.Fd()))
}

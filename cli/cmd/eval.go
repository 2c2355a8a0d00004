package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/psh/lang"
	"github.com/ardnew/psh/log"
)

// Eval evaluates inline source and prints the value of its final expression.
type Eval struct {
	Interp interpConfig `embed:""`

	Source []string `arg:"" help:"Source text; multiple arguments are joined by newlines" name:"source" sep:"none"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	opts, err := e.Interp.options()
	if err != nil {
		return err
	}

	prog, err := lang.ParseString(
		ctx,
		strings.Join(e.Source, "\n"),
		lang.WithParseLogger(log.Default()),
	)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "eval"))
	}

	w := stdout(ctx)

	v, err := lang.New(append(opts, lang.WithStdout(w))...).Eval(ctx, prog)
	if err != nil {
		return err
	}

	if v == nil || v.Kind() == lang.KindNil {
		return nil
	}

	_, err = fmt.Fprintln(w, v)

	return err
}

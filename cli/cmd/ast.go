package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/psh/lang"
	"github.com/ardnew/psh/log"
)

// Ast parses scripts and prints their syntax tree without running them.
type Ast struct {
	Format string   `default:"native" enum:"${astFormatEnum}" help:"Output format (${enum})" short:"f"`
	Indent int      `default:"2"                               help:"Spaces per indentation level; 0 selects compact output"`
	Files  []string `arg:"" help:"Script files or '-' for stdin" name:"file" optional:"" sep:"none"`
}

// Run executes the ast command.
func (a *Ast) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := openSources(a.Files)
	if err != nil {
		return err
	}
	defer src.Close()

	prog, err := lang.ParseReader(ctx, src, lang.WithParseLogger(log.Default()))
	if err != nil {
		return lang.WrapError(err).With(
			slog.String("command", "ast"),
			slog.String("file", src.Name()),
		)
	}

	w := stdout(ctx)

	switch a.Format {
	case "native":
		return prog.Format(ctx, w, a.Indent)
	case "json":
		return prog.FormatJSON(ctx, w, a.Indent)
	case "yaml":
		return prog.FormatYAML(ctx, w, a.Indent)
	}

	return ErrFormat.With(slog.String("format", a.Format))
}

package cmd

import (
	"log/slog"
	"strings"

	"github.com/ardnew/psh/lang"
	"github.com/ardnew/psh/log"
)

// interpConfig holds the interpreter flags shared by run, eval, and repl.
type interpConfig struct {
	Export   []string `help:"Define an exported binding"   placeholder:"KEY=VALUE" sep:"none" short:"x"`
	MaxDepth int      `default:"${maxDepth}"                help:"Limit nested function calls"`
}

// options returns the interpreter options selected by the flags.
func (c interpConfig) options() ([]lang.Option, error) {
	opts := []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithMaxDepth(c.MaxDepth),
	}

	for _, kv := range c.Export {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, ErrExport.With(slog.String("export", kv))
		}

		opts = append(opts, lang.WithExport(name, value))
	}

	return opts, nil
}

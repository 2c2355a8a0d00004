package cmd

import (
	"context"

	"github.com/ardnew/psh/cli/cmd/repl"
	"github.com/ardnew/psh/lang"
	"github.com/ardnew/psh/log"
)

// Repl starts an interactive session.
type Repl struct {
	Interp interpConfig `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	opts, err := r.Interp.options()
	if err != nil {
		return err
	}

	return startRepl(ctx, opts)
}

func startRepl(ctx context.Context, opts []lang.Option) error {
	return repl.Run(ctx, variable(ctx, CacheIdentifier), log.Default(), opts...)
}

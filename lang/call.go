package lang

import (
	"context"
	"errors"
	"log/slog"
)

func (ip *Interpreter) call(ctx context.Context, fn Value, args []Value) (Value, error) {
	f, ok := fn.(*Func)
	if !ok {
		return nil, ErrNotCallable.With(slog.String("kind", kindOf(fn)))
	}

	if ip.depth >= ip.maxDepth {
		return nil, ErrCallDepth.With(slog.String("func", f.String()), slog.Int("depth", ip.depth))
	}

	ip.depth++
	defer func() { ip.depth-- }()

	if f.IsNative() {
		return ip.callNative(ctx, f, args)
	}

	if len(args) != len(f.Params) {
		return nil, ErrCallArity.With(
			slog.String("func", f.String()),
			slog.Int("want", len(f.Params)),
			slog.Int("got", len(args)),
		)
	}

	ip.logger.TraceContext(ctx, "call", slog.String("func", f.String()), slog.Int("depth", ip.depth))

	saved := ip.stack
	if f.Env != nil {
		ip.stack = f.Env.Capture()
	}

	ip.stack.Push()

	defer func() {
		ip.stack.Pop()
		ip.stack = saved
	}()

	for i, name := range f.Params {
		ip.stack.DefValue(name, args[i])
	}

	esc, err := ip.execStmts(ctx, f.Body.Stmts)
	if err != nil {
		return nil, err
	}

	switch esc.kind {
	case escReturn:
		return esc.value, nil

	case escBreak, escContinue:
		return nil, ErrStrayEscape.With(
			slog.String("escape", esc.kind.String()),
			slog.String("func", f.String()),
		)
	}

	return Nil{}, nil
}

func (ip *Interpreter) callNative(ctx context.Context, f *Func, args []Value) (Value, error) {
	if f.Arity >= 0 && len(args) != f.Arity {
		return nil, ErrCallArity.With(
			slog.String("func", f.String()),
			slog.Int("want", f.Arity),
			slog.Int("got", len(args)),
		)
	}

	if f.Recv != nil {
		args = append([]Value{f.Recv}, args...)
	}

	v, err := f.Native(ctx, ip, args)
	if err != nil {
		var langErr *Error
		if errors.As(err, &langErr) {
			return nil, err
		}

		return nil, ErrNativeCall.Wrap(err).With(slog.String("func", f.Name))
	}

	if v == nil {
		return Nil{}, nil
	}

	return v, nil
}

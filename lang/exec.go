package lang

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/psh/proc"
)

type escapeKind uint8

const (
	escNone escapeKind = iota
	escBreak
	escContinue
	escReturn
)

func (k escapeKind) String() string {
	switch k {
	case escBreak:
		return "break"
	case escContinue:
		return "continue"
	case escReturn:
		return "return"
	}

	return "none"
}

// escape is the non-local control flow result of a statement.
type escape struct {
	kind  escapeKind
	value Value // escReturn only
}

func (ip *Interpreter) exec(ctx context.Context, stmt Stmt) (escape, error) {
	if err := ip.checkContext(ctx); err != nil {
		return escape{}, err
	}

	switch s := stmt.(type) {
	case *ExprStmt:
		_, err := ip.eval(ctx, s.X)

		return escape{}, err

	case *Let:
		var x Value = Nil{}

		if s.Init != nil {
			v, err := ip.eval(ctx, s.Init)
			if err != nil {
				return escape{}, err
			}

			x = v
		}

		ip.stack.Def(s.Name, &Var{Value: x, Exported: s.Export})

		return escape{}, nil

	case *FuncDecl:
		ip.stack.DefValue(s.Name, &Func{
			Name:   s.Name,
			Params: s.Params,
			Body:   s.Body,
			Env:    ip.stack.Capture(),
		})

		return escape{}, nil

	case *Block:
		return ip.execBlock(ctx, s)

	case *If:
		cond, err := ip.eval(ctx, s.Cond)
		if err != nil {
			return escape{}, err
		}

		switch {
		case Truthy(cond):
			return ip.execBlock(ctx, s.Then)
		case s.Else != nil:
			return ip.exec(ctx, s.Else)
		}

		return escape{}, nil

	case *While:
		return ip.execWhile(ctx, s)

	case *For:
		return ip.execFor(ctx, s)

	case *Break:
		return escape{kind: escBreak}, nil

	case *Continue:
		return escape{kind: escContinue}, nil

	case *Return:
		var x Value = Nil{}

		if s.X != nil {
			v, err := ip.eval(ctx, s.X)
			if err != nil {
				return escape{}, err
			}

			x = v
		}

		return escape{kind: escReturn, value: x}, nil

	case *CmdStmt:
		return escape{}, ip.execCmd(ctx, s)
	}

	return escape{}, ErrTypeMismatch.With(slog.String("stmt", stmt.Position().String()))
}

// execBlock runs the statements of b in a new scope, stopping at the first
// error or escape.
func (ip *Interpreter) execBlock(ctx context.Context, b *Block) (escape, error) {
	ip.stack.Push()
	defer ip.stack.Pop()

	return ip.execStmts(ctx, b.Stmts)
}

func (ip *Interpreter) execStmts(ctx context.Context, stmts []Stmt) (escape, error) {
	for _, stmt := range stmts {
		esc, err := ip.exec(ctx, stmt)
		if err != nil || esc.kind != escNone {
			return esc, err
		}
	}

	return escape{}, nil
}

// loopBody runs one iteration. It reports whether the loop must stop, and
// with which escape.
func (ip *Interpreter) loopBody(ctx context.Context, body *Block) (bool, escape, error) {
	esc, err := ip.execBlock(ctx, body)
	if err != nil {
		return true, escape{}, err
	}

	switch esc.kind {
	case escBreak:
		return true, escape{}, nil
	case escReturn:
		return true, esc, nil
	}

	return false, escape{}, nil
}

func (ip *Interpreter) execWhile(ctx context.Context, s *While) (escape, error) {
	for {
		cond, err := ip.eval(ctx, s.Cond)
		if err != nil {
			return escape{}, err
		}

		if !Truthy(cond) {
			return escape{}, nil
		}

		if stop, esc, err := ip.loopBody(ctx, s.Body); stop {
			return esc, err
		}

		if err := ip.checkContext(ctx); err != nil {
			return escape{}, err
		}
	}
}

func (ip *Interpreter) execFor(ctx context.Context, s *For) (escape, error) {
	iter, err := ip.eval(ctx, s.Iter)
	if err != nil {
		return escape{}, err
	}

	ip.stack.Push()
	defer ip.stack.Pop()

	key := &Var{Value: Nil{}}
	val := &Var{Value: Nil{}}

	ip.stack.Def(s.Key, key)

	if s.Val != "" {
		ip.stack.Def(s.Val, val)
	}

	step := func(k, v Value) (bool, escape, error) {
		key.Value, val.Value = k, v

		return ip.loopBody(ctx, s.Body)
	}

	switch it := iter.(type) {
	case Range:
		if s.Val != "" {
			return escape{}, ErrLoopVariables.With(
				slog.Int("want", 1),
				slog.Int("got", 2),
				slog.String("pos", s.Pos.String()),
			)
		}

		for i := it.L; i < it.R; i++ {
			if stop, esc, err := step(Num(i), Nil{}); stop {
				return esc, err
			}
		}

	case *Vec:
		for i, x := range it.Items() {
			k := Value(Num(i))
			if s.Val == "" {
				k = x
			}

			if stop, esc, err := step(k, x); stop {
				return esc, err
			}
		}

	case *Dict:
		keys := it.Keys()
		vals := make([]Value, len(keys))

		for i, k := range keys {
			vals[i], _ = it.Get(k)
		}

		for i, k := range keys {
			if stop, esc, err := step(String(k), vals[i]); stop {
				return esc, err
			}
		}

	default:
		return escape{}, ErrTypeMismatch.With(
			slog.String("op", "for"),
			slog.String("kind", kindOf(iter)),
			slog.String("pos", s.Pos.String()),
		)
	}

	return escape{}, nil
}

func (ip *Interpreter) execCmd(ctx context.Context, s *CmdStmt) error {
	cmd, err := ip.expandCmd(ctx, s.Cmd)
	if err != nil {
		return err
	}

	env := ip.childEnv()

	ip.logger.DebugContext(ctx, "command", slog.String("command", cmd.String()))

	var status int

	if ip.capture != nil {
		var out string

		out, status, err = ip.launcher.Capture(ctx, cmd, env)
		ip.capture.WriteString(out)
		ip.capture.WriteByte('\n')
	} else {
		status, err = ip.launcher.Run(ctx, cmd, env)
	}

	if err != nil {
		return ErrProcess.Wrap(err).With(
			slog.String("command", cmd.String()),
			slog.String("pos", s.Pos.String()),
		)
	}

	ip.setStatus(ctx, status, cmd)

	return nil
}

// setStatus records the exit status of the last command.
func (ip *Interpreter) setStatus(ctx context.Context, status int, cmd proc.Cmd) {
	ip.status.Value = Num(status)

	if status != 0 {
		ip.logger.WarnContext(ctx, "command failed",
			slog.String("command", cmd.String()),
			slog.Int("status", status),
		)
	}
}

// expandCmd evaluates the words of c into plain argument vectors.
func (ip *Interpreter) expandCmd(ctx context.Context, c Cmd) (proc.Cmd, error) {
	switch c := c.(type) {
	case *CmdAtom:
		args := make([]string, len(c.Words))

		for i, word := range c.Words {
			var sb strings.Builder

			for _, frag := range word {
				v, err := ip.eval(ctx, frag)
				if err != nil {
					return nil, err
				}

				sb.WriteString(v.String())
			}

			args[i] = sb.String()
		}

		return &proc.Atom{Args: args}, nil

	case *CmdOp:
		lhs, err := ip.expandCmd(ctx, c.Lhs)
		if err != nil {
			return nil, err
		}

		rhs, err := ip.expandCmd(ctx, c.Rhs)
		if err != nil {
			return nil, err
		}

		return &proc.Op{Lhs: lhs, Op: c.Op, Rhs: rhs}, nil
	}

	return nil, ErrTypeMismatch.With(slog.String("op", "command"))
}

func kindOf(v Value) string {
	if v == nil {
		return KindNil.String()
	}

	return v.Kind().String()
}

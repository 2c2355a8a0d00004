package lang

import (
	"context"
	"log/slog"
	"math"
	"strings"
)

func (ip *Interpreter) eval(ctx context.Context, x Expr) (Value, error) {
	switch e := x.(type) {
	case *Literal:
		return e.Value, nil

	case *Get:
		v, err := ip.stack.Get(e.Name)
		if err != nil {
			return nil, err
		}

		return v.Value, nil

	case *Set:
		val, err := ip.eval(ctx, e.X)
		if err != nil {
			return nil, err
		}

		v, err := ip.stack.Get(e.Name)
		if err != nil {
			return nil, err
		}

		v.Value = val

		return val, nil

	case *Unary:
		operand, err := ip.eval(ctx, e.X)
		if err != nil {
			return nil, err
		}

		if e.Op == OpNot {
			return Bool(!Truthy(operand)), nil
		}

		n, ok := operand.(Num)
		if !ok {
			return nil, ErrTypeMismatch.With(
				slog.String("op", e.Op.String()),
				slog.String("operand", kindOf(operand)),
				slog.String("pos", e.Pos.String()),
			)
		}

		return -n, nil

	case *Binary:
		return ip.evalBinary(ctx, e)

	case *Interp:
		var sb strings.Builder

		for i, s := range e.Strings {
			sb.WriteString(s)

			if i < len(e.Exprs) {
				v, err := ip.eval(ctx, e.Exprs[i])
				if err != nil {
					return nil, err
				}

				sb.WriteString(v.String())
			}
		}

		return String(sb.String()), nil

	case *GetField:
		base, err := ip.eval(ctx, e.Base)
		if err != nil {
			return nil, err
		}

		index, err := ip.eval(ctx, e.Index)
		if err != nil {
			return nil, err
		}

		return getIndex(base, index)

	case *SetField:
		return ip.evalSetField(ctx, e)

	case *Field:
		base, err := ip.eval(ctx, e.Base)
		if err != nil {
			return nil, err
		}

		return field(base, e.Name)

	case *VecLit:
		items := make([]Value, len(e.Elems))

		for i, elem := range e.Elems {
			v, err := ip.eval(ctx, elem)
			if err != nil {
				return nil, err
			}

			items[i] = v
		}

		return NewVec(items...), nil

	case *DictLit:
		d := NewDict()

		for i, k := range e.Keys {
			v, err := ip.eval(ctx, e.Values[i])
			if err != nil {
				return nil, err
			}

			d.Set(k, v)
		}

		return d, nil

	case *RangeExpr:
		return ip.evalRange(ctx, e)

	case *Call:
		fn, err := ip.eval(ctx, e.Func)
		if err != nil {
			return nil, err
		}

		args := make([]Value, len(e.Args))

		for i, arg := range e.Args {
			if args[i], err = ip.eval(ctx, arg); err != nil {
				return nil, err
			}
		}

		v, err := ip.call(ctx, fn, args)
		if err != nil {
			return nil, err
		}

		return v, nil

	case *Lambda:
		return &Func{Params: e.Params, Body: e.Body, Env: ip.stack.Capture()}, nil

	case *CmdExpr:
		cmd, err := ip.expandCmd(ctx, e.Cmd)
		if err != nil {
			return nil, err
		}

		ip.logger.DebugContext(ctx, "capture", slog.String("command", cmd.String()))

		out, status, err := ip.launcher.Capture(ctx, cmd, ip.childEnv())
		if err != nil {
			return nil, ErrProcess.Wrap(err).With(
				slog.String("command", cmd.String()),
				slog.String("pos", e.Pos.String()),
			)
		}

		ip.setStatus(ctx, status, cmd)

		return String(out), nil
	}

	return nil, ErrTypeMismatch.With(slog.String("expr", ExprString(x)))
}

func (ip *Interpreter) evalBinary(ctx context.Context, e *Binary) (Value, error) {
	lhs, err := ip.eval(ctx, e.L)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case OpAnd:
		if !Truthy(lhs) {
			return lhs, nil
		}

		return ip.eval(ctx, e.R)

	case OpOr:
		if Truthy(lhs) {
			return lhs, nil
		}

		return ip.eval(ctx, e.R)
	}

	rhs, err := ip.eval(ctx, e.R)
	if err != nil {
		return nil, err
	}

	v, opErr := binary(e.Op, lhs, rhs)
	if opErr != nil {
		return nil, opErr.With(slog.String("pos", e.Pos.String()))
	}

	return v, nil
}

// binary applies a strict (non-short-circuit) operator.
func binary(op BinaryOp, lhs, rhs Value) (Value, *Error) {
	if op == OpEqual {
		return Bool(Equal(lhs, rhs)), nil
	}

	if op == OpSum {
		if a, ok := lhs.(String); ok {
			if b, ok := rhs.(String); ok {
				return a + b, nil
			}
		}
	}

	a, aok := lhs.(Num)
	b, bok := rhs.(Num)

	if !aok || !bok {
		return nil, ErrTypeMismatch.With(
			slog.String("op", op.String()),
			slog.String("left", kindOf(lhs)),
			slog.String("right", kindOf(rhs)),
		)
	}

	switch op {
	case OpSum:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		return a / b, nil
	case OpMod:
		return Num(math.Mod(float64(a), float64(b))), nil
	case OpPow:
		return Num(math.Pow(float64(a), float64(b))), nil
	case OpLess:
		return Bool(a < b), nil
	case OpGreat:
		return Bool(a > b), nil
	case OpLessEq:
		return Bool(a <= b), nil
	case OpGreatEq:
		return Bool(a >= b), nil
	}

	return nil, ErrTypeMismatch.With(slog.String("op", op.String()))
}

func (ip *Interpreter) evalRange(ctx context.Context, e *RangeExpr) (Value, error) {
	var bounds [2]int

	for i, x := range []Expr{e.L, e.R} {
		v, err := ip.eval(ctx, x)
		if err != nil {
			return nil, err
		}

		n, ok := v.(Num)
		if !ok {
			return nil, ErrRangeType.With(
				slog.String("kind", kindOf(v)),
				slog.String("pos", e.Pos.String()),
			)
		}

		if bounds[i], ok = n.Int(); !ok {
			return nil, ErrRangeType.With(
				slog.String("value", n.String()),
				slog.String("pos", e.Pos.String()),
			)
		}
	}

	return NewRange(bounds[0], bounds[1], e.Inclusive), nil
}

func (ip *Interpreter) evalSetField(ctx context.Context, e *SetField) (Value, error) {
	base, err := ip.eval(ctx, e.Base)
	if err != nil {
		return nil, err
	}

	index, err := ip.eval(ctx, e.Index)
	if err != nil {
		return nil, err
	}

	val, err := ip.eval(ctx, e.X)
	if err != nil {
		return nil, err
	}

	switch b := base.(type) {
	case *Vec:
		i, err := vecIndex(index)
		if err != nil {
			return nil, err
		}

		if !b.Set(i, val) {
			return nil, ErrIndexOutOfBounds.With(slog.Int("index", i), slog.Int("len", b.Len()))
		}

	case *Dict:
		k, err := dictKey(index)
		if err != nil {
			return nil, err
		}

		b.Set(k, val)

	default:
		return nil, ErrBadAssignTarget.With(
			slog.String("kind", kindOf(base)),
			slog.String("pos", e.Pos.String()),
		)
	}

	return val, nil
}

func vecIndex(index Value) (int, error) {
	if n, ok := index.(Num); ok {
		if i, ok := n.Int(); ok {
			return i, nil
		}
	}

	return 0, ErrBadIndex.With(slog.String("base", "vec"), slog.String("index", Quoted(index)))
}

func dictKey(index Value) (string, error) {
	if s, ok := index.(String); ok {
		return string(s), nil
	}

	return "", ErrBadIndex.With(slog.String("base", "dict"), slog.String("index", Quoted(index)))
}

// getIndex evaluates base[index].
func getIndex(base, index Value) (Value, error) {
	switch b := base.(type) {
	case *Vec:
		i, err := vecIndex(index)
		if err != nil {
			return nil, err
		}

		v, ok := b.Get(i)
		if !ok {
			return nil, ErrIndexOutOfBounds.With(slog.Int("index", i), slog.Int("len", b.Len()))
		}

		return v, nil

	case *Dict:
		k, err := dictKey(index)
		if err != nil {
			return nil, err
		}

		v, ok := b.Get(k)
		if !ok {
			return nil, ErrMissingKey.With(slog.String("key", k))
		}

		return v, nil
	}

	return nil, ErrBadIndex.With(slog.String("base", kindOf(base)))
}

// Member evaluates base.name the way the . operator does: a dict entry, or
// else a method bound to base.
func Member(base Value, name string) (Value, error) { return field(base, name) }

// field evaluates base.name: a dict entry or a method bound to base.
func field(base Value, name string) (Value, error) {
	if d, ok := base.(*Dict); ok {
		if v, ok := d.Get(name); ok {
			return v, nil
		}
	}

	if m, ok := lookupMethod(base, name); ok {
		return m.Bind(base), nil
	}

	if _, ok := base.(*Dict); ok {
		return nil, ErrMissingKey.With(slog.String("key", name))
	}

	return nil, ErrUnknownMethod.With(
		slog.String("kind", kindOf(base)),
		slog.String("method", name),
	)
}

package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"
)

// ToNative converts v to plain Go data: nil, bool, float64, string,
// []any, and map[string]any. A range becomes the []any of its integers.
// Functions are converted by fn, or to their display string if fn is nil.
func ToNative(v Value, fn func(*Func) any) any {
	switch x := v.(type) {
	case nil, Nil:
		return nil

	case Bool:
		return bool(x)

	case Num:
		return float64(x)

	case String:
		return string(x)

	case Range:
		out := make([]any, 0, x.Len())
		for i := x.L; i < x.R; i++ {
			out = append(out, float64(i))
		}

		return out

	case *Vec:
		items := x.Items()
		out := make([]any, len(items))

		for i, item := range items {
			out[i] = ToNative(item, fn)
		}

		return out

	case *Dict:
		out := make(map[string]any, x.Len())

		for _, k := range x.Keys() {
			item, _ := x.Get(k)
			out[k] = ToNative(item, fn)
		}

		return out

	case *Func:
		if fn != nil {
			return fn(x)
		}
	}

	return v.String()
}

// FromNative converts decoded Go data to a [Value]. Integers of any size
// become Num; maps with non-string keys use the display form of each key.
// Unrecognized types become their fmt display string.
func FromNative(x any) Value {
	switch x := x.(type) {
	case nil:
		return Nil{}
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case float64:
		return Num(x)
	case float32:
		return Num(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Num(f)
		}

		return String(x)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromNative(item)
		}

		return NewVec(items...)
	case map[string]any:
		d := NewDict()
		for k, item := range x {
			d.Set(k, FromNative(item))
		}

		return d
	}

	rv := reflect.ValueOf(x)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Num(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Num(rv.Uint())

	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = FromNative(rv.Index(i).Interface())
		}

		return NewVec(items...)

	case reflect.Map:
		d := NewDict()

		iter := rv.MapRange()
		for iter.Next() {
			d.Set(fmt.Sprint(iter.Key().Interface()), FromNative(iter.Value().Interface()))
		}

		return d
	}

	return String(fmt.Sprint(x))
}

// goFunc adapts f to a Go function callable from expr-lang expressions.
func (ip *Interpreter) goFunc(ctx context.Context) func(*Func) any {
	var conv func(*Func) any

	conv = func(f *Func) any {
		return func(args ...any) (any, error) {
			vals := make([]Value, len(args))
			for i, a := range args {
				vals[i] = FromNative(a)
			}

			v, err := ip.call(ctx, f, vals)
			if err != nil {
				return nil, err
			}

			return ToNative(v, conv), nil
		}
	}

	return conv
}

func nativeToJSON(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	buf, err := json.Marshal(ToNative(args[0], nil))
	if err != nil {
		return nil, err
	}

	return String(buf), nil
}

func nativeFromJSON(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	src, err := argString("from_json", args, 0)
	if err != nil {
		return nil, err
	}

	var x any
	if err := json.Unmarshal([]byte(src), &x); err != nil {
		return nil, err
	}

	return FromNative(x), nil
}

func nativeToYAML(ctx context.Context, _ *Interpreter, args []Value) (Value, error) {
	buf, err := yaml.MarshalContext(ctx, ToNative(args[0], nil))
	if err != nil {
		return nil, err
	}

	return String(strings.TrimRight(string(buf), "\n")), nil
}

func nativeFromYAML(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	src, err := argString("from_yaml", args, 0)
	if err != nil {
		return nil, err
	}

	var x any
	if err := yaml.Unmarshal([]byte(src), &x); err != nil {
		return nil, err
	}

	return FromNative(x), nil
}

// nativeExpr evaluates an expr-lang expression whose environment holds
// every visible binding. psh functions are callable from the expression.
func nativeExpr(ctx context.Context, ip *Interpreter, args []Value) (Value, error) {
	src, err := argString("expr", args, 0)
	if err != nil {
		return nil, err
	}

	conv := ip.goFunc(ctx)
	env := make(map[string]any)

	for _, name := range ip.stack.Names() {
		v, _ := ip.stack.Lookup(name)
		env[name] = ToNative(v.Value, conv)
	}

	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, ErrNativeCall.Wrap(err).With(
			slog.String("func", "expr"),
			slog.String("source", src),
		)
	}

	out, err := vm.Run(program, env)
	if err != nil {
		return nil, ErrNativeCall.Wrap(err).With(
			slog.String("func", "expr"),
			slog.String("source", src),
		)
	}

	return FromNative(out), nil
}

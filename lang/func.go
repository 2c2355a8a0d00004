package lang

import (
	"context"
)

// NativeFunc is the Go implementation of a native function. A bound receiver,
// if any, is passed as args[0].
type NativeFunc func(ctx context.Context, ip *Interpreter, args []Value) (Value, error)

// Func is a callable value: either a user function defined in psh source or
// a native function implemented in Go.
type Func struct {
	// Name is empty for lambdas.
	Name string

	// User functions.
	Params []string
	Body   *Block
	Env    *Stack // captured environment; nil runs on the caller's stack

	// Native functions.
	Native NativeFunc
	Arity  int   // number of arguments excluding Recv; negative is variadic
	Recv   Value // bound receiver for method-call sugar
}

// NewNative returns a native function. A negative arity accepts any number
// of arguments.
func NewNative(name string, arity int, fn NativeFunc) *Func {
	return &Func{Name: name, Native: fn, Arity: arity}
}

func (*Func) Kind() Kind { return KindFunc }

func (f *Func) String() string {
	switch {
	case f.IsNative():
		return "<native func " + f.Name + ">"
	case f.Name == "":
		return "<lambda func>"
	}

	return "<func " + f.Name + ">"
}

// IsNative reports whether f is implemented in Go.
func (f *Func) IsNative() bool { return f.Native != nil }

// Bind returns a copy of the native function f with recv as its receiver.
func (f *Func) Bind(recv Value) *Func {
	g := *f
	g.Recv = recv

	return &g
}

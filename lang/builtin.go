package lang

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/mung"
)

// defineBuiltins binds the global native functions in the current frame of
// s.
func defineBuiltins(s *Stack) {
	for _, f := range []*Func{
		NewNative("print", -1, nativePrint),
		NewNative("len", 1, nativeLen),
		NewNative("str", 1, nativeStr),
		NewNative("num", 1, nativeNum),
		NewNative("type", 1, nativeType),
		NewNative("keys", 1, nativeKeys),
		NewNative("env", 1, nativeEnv),
		NewNative("cwd", 0, nativeCwd),
		NewNative("platform", 0, nativePlatform),
		NewNative("exists", 1, nativeExists),
		NewNative("path_prefix", -1, nativePathPrefix),
		NewNative("to_json", 1, nativeToJSON),
		NewNative("from_json", 1, nativeFromJSON),
		NewNative("to_yaml", 1, nativeToYAML),
		NewNative("from_yaml", 1, nativeFromYAML),
		NewNative("expr", 1, nativeExpr),
	} {
		s.DefValue(f.Name, f)
	}
}

// Builtins returns the names of the global native functions.
func Builtins() []string {
	s := NewStack()
	defineBuiltins(s)

	return s.Names()
}

var (
	vecMethods = map[string]*Func{
		"push":     NewNative("push", -1, vecPush),
		"pop":      NewNative("pop", 0, vecPop),
		"len":      NewNative("len", 0, nativeLen),
		"join":     NewNative("join", 1, vecJoin),
		"contains": NewNative("contains", 1, vecContains),
	}

	dictMethods = map[string]*Func{
		"keys":   NewNative("keys", 0, nativeKeys),
		"values": NewNative("values", 0, dictValues),
		"has":    NewNative("has", 1, dictHas),
		"remove": NewNative("remove", 1, dictRemove),
		"len":    NewNative("len", 0, nativeLen),
	}

	stringMethods = map[string]*Func{
		"len":      NewNative("len", 0, nativeLen),
		"split":    NewNative("split", 1, stringSplit),
		"trim":     NewNative("trim", 0, stringTrim),
		"upper":    NewNative("upper", 0, stringUpper),
		"lower":    NewNative("lower", 0, stringLower),
		"contains": NewNative("contains", 1, stringContains),
		"lines":    NewNative("lines", 0, stringLines),
	}
)

func methodsOf(k Kind) map[string]*Func {
	switch k {
	case KindVec:
		return vecMethods
	case KindDict:
		return dictMethods
	case KindString:
		return stringMethods
	}

	return nil
}

func lookupMethod(recv Value, name string) (*Func, bool) {
	if recv == nil {
		return nil, false
	}

	f, ok := methodsOf(recv.Kind())[name]

	return f, ok
}

// Methods returns the sorted method names available on values of kind k.
func Methods(k Kind) []string {
	return slices.Sorted(maps.Keys(methodsOf(k)))
}

func argError(fn string, i int, want Kind, got Value) error {
	return ErrTypeMismatch.With(
		slog.String("func", fn),
		slog.Int("arg", i),
		slog.String("want", want.String()),
		slog.String("got", kindOf(got)),
	)
}

func argString(fn string, args []Value, i int) (string, error) {
	s, ok := args[i].(String)
	if !ok {
		return "", argError(fn, i, KindString, args[i])
	}

	return string(s), nil
}

func nativePrint(_ context.Context, ip *Interpreter, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}

	return Nil{}, ip.write(strings.Join(parts, " ") + "\n")
}

func nativeLen(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	switch x := args[0].(type) {
	case String:
		return Num(utf8.RuneCountInString(string(x))), nil
	case *Vec:
		return Num(x.Len()), nil
	case *Dict:
		return Num(x.Len()), nil
	case Range:
		return Num(x.Len()), nil
	}

	return nil, ErrTypeMismatch.With(slog.String("func", "len"), slog.String("kind", kindOf(args[0])))
}

func nativeStr(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	return String(args[0].String()), nil
}

func nativeNum(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	switch x := args[0].(type) {
	case Num:
		return x, nil

	case Bool:
		if x {
			return Num(1), nil
		}

		return Num(0), nil

	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return nil, err
		}

		return Num(f), nil
	}

	return nil, argError("num", 0, KindString, args[0])
}

func nativeType(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	return String(kindOf(args[0])), nil
}

func nativeKeys(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	d, ok := args[0].(*Dict)
	if !ok {
		return nil, argError("keys", 0, KindDict, args[0])
	}

	keys := d.Keys()
	items := make([]Value, len(keys))

	for i, k := range keys {
		items[i] = String(k)
	}

	return NewVec(items...), nil
}

func nativeEnv(_ context.Context, ip *Interpreter, args []Value) (Value, error) {
	name, err := argString("env", args, 0)
	if err != nil {
		return nil, err
	}

	if v, ok := ip.stack.Lookup(name); ok {
		return v.Value, nil
	}

	if s, ok := os.LookupEnv(name); ok {
		return String(s), nil
	}

	return Nil{}, nil
}

func nativeCwd(context.Context, *Interpreter, []Value) (Value, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return String(dir), nil
}

// nativePlatform reports the host platform using Go naming conventions,
// honoring GOHOSTOS/GOOS and GOHOSTARCH/GOARCH overrides.
func nativePlatform(context.Context, *Interpreter, []Value) (Value, error) {
	lookup := func(fallback string, keys ...string) string {
		for _, k := range keys {
			if v, ok := os.LookupEnv(k); ok {
				return v
			}
		}

		return fallback
	}

	d := NewDict()
	d.Set("os", String(lookup(runtime.GOOS, "GOHOSTOS", "GOOS")))
	d.Set("arch", String(lookup(runtime.GOARCH, "GOHOSTARCH", "GOARCH")))

	return d, nil
}

func nativeExists(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	path, err := argString("exists", args, 0)
	if err != nil {
		return nil, err
	}

	_, err = os.Stat(path)

	return Bool(err == nil), nil
}

// nativePathPrefix prepends items to a PATH-like list, removing duplicates.
func nativePathPrefix(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, ErrCallArity.With(
			slog.String("func", "path_prefix"),
			slog.Int("want", 1),
			slog.Int("got", 0),
		)
	}

	list, err := argString("path_prefix", args, 0)
	if err != nil {
		return nil, err
	}

	prefix := make([]string, 0, len(args)-1)

	for i := 1; i < len(args); i++ {
		item, err := argString("path_prefix", args, i)
		if err != nil {
			return nil, err
		}

		prefix = append(prefix, item)
	}

	return String(mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()), nil
}

func vecPush(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	v := args[0].(*Vec)
	v.Push(args[1:]...)

	return Num(v.Len()), nil
}

func vecPop(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	if x, ok := args[0].(*Vec).Pop(); ok {
		return x, nil
	}

	return Nil{}, nil
}

func vecJoin(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	sep, err := argString("join", args, 1)
	if err != nil {
		return nil, err
	}

	items := args[0].(*Vec).Items()
	parts := make([]string, len(items))

	for i, x := range items {
		parts[i] = x.String()
	}

	return String(strings.Join(parts, sep)), nil
}

func vecContains(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	return Bool(slices.ContainsFunc(args[0].(*Vec).Items(), func(x Value) bool {
		return Equal(x, args[1])
	})), nil
}

func dictValues(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	d := args[0].(*Dict)
	keys := d.Keys()
	items := make([]Value, len(keys))

	for i, k := range keys {
		items[i], _ = d.Get(k)
	}

	return NewVec(items...), nil
}

func dictHas(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	k, err := argString("has", args, 1)
	if err != nil {
		return nil, err
	}

	_, ok := args[0].(*Dict).Get(k)

	return Bool(ok), nil
}

func dictRemove(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	k, err := argString("remove", args, 1)
	if err != nil {
		return nil, err
	}

	d := args[0].(*Dict)

	x, ok := d.Get(k)
	if !ok {
		return Nil{}, nil
	}

	d.Delete(k)

	return x, nil
}

func stringSplit(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	sep, err := argString("split", args, 1)
	if err != nil {
		return nil, err
	}

	return stringsToVec(strings.Split(string(args[0].(String)), sep)), nil
}

func stringTrim(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	return String(strings.TrimSpace(string(args[0].(String)))), nil
}

func stringUpper(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	return String(strings.ToUpper(string(args[0].(String)))), nil
}

func stringLower(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	return String(strings.ToLower(string(args[0].(String)))), nil
}

func stringContains(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	sub, err := argString("contains", args, 1)
	if err != nil {
		return nil, err
	}

	return Bool(strings.Contains(string(args[0].(String)), sub)), nil
}

func stringLines(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
	s := strings.TrimRight(string(args[0].(String)), "\n")
	if s == "" {
		return NewVec(), nil
	}

	return stringsToVec(strings.Split(s, "\n")), nil
}

func stringsToVec(ss []string) *Vec {
	items := make([]Value, len(ss))
	for i, s := range ss {
		items[i] = String(s)
	}

	return NewVec(items...)
}

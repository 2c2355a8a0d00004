package lang

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/psh/proc"
)

// fakeLauncher records commands instead of starting processes.
type fakeLauncher struct {
	ran    []string
	env    []string
	output map[string]string
	status map[string]int
	err    map[string]error
}

func (f *fakeLauncher) Run(_ context.Context, c proc.Cmd, env []string) (int, error) {
	s := c.String()
	f.ran = append(f.ran, s)
	f.env = env

	return f.status[s], f.err[s]
}

func (f *fakeLauncher) Capture(_ context.Context, c proc.Cmd, env []string) (string, int, error) {
	s := c.String()
	f.ran = append(f.ran, s)
	f.env = env

	return f.output[s], f.status[s], f.err[s]
}

func newTestInterpreter(out *bytes.Buffer, opts ...Option) *Interpreter {
	return New(append([]Option{
		WithStdout(out),
		WithEnviron([]string{}),
		WithLauncher(&fakeLauncher{}),
	}, opts...)...)
}

// runScript parses and runs src, returning everything printed.
func runScript(t *testing.T, src string, opts ...Option) (string, error) {
	t.Helper()

	prog, err := ParseString(t.Context(), src, WithParseCache(false))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var out bytes.Buffer

	err = newTestInterpreter(&out, opts...).Run(t.Context(), prog)

	return out.String(), err
}

func TestRunOutput(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", `print(1 + 2 * 3, 7 % 4, 2 ** 10, 1 / 4)`, "7 3 1024 0.25\n"},
		{"string concat", `print("a" + "b")`, "ab\n"},
		{"interpolation", `let n = 1` + "\n" + `print("a{n + 1}b")`, "a2b\n"},
		{"comparison", `print(1 < 2, 2 <= 1, "a" == "a", 1 != 1)`, "true false true false\n"},
		{"compare NaN", `let nan = 0 / 0` + "\n" + `print(nan <= 1, nan >= 1, nan < 1, nan > 1)`, "false false false false\n"},
		{"logical values", `print(nil || "x", 0 && "y", false || nil)`, "x y nil\n"},
		{
			"range counts",
			`let n = 0
for i in 0..5 { n = n + 1 }
for i in 0..=5 { n = n + 1 }
for i in 3..3 { n = n + 1 }
print(n)`,
			"11\n",
		},
		{
			"block scope",
			`let x = 1
{ let x = 2; x = 3 }
print(x)`,
			"1\n",
		},
		{
			"assignment reaches outer scope",
			`let x = 1
if true { x = 2 }
print(x)`,
			"2\n",
		},
		{
			"vec aliasing",
			`let a = [1, 2]
let b = a
b.push(3)
b[0] = "x"
print(a)`,
			"['x', 2, 3]\n",
		},
		{
			"vec mutation through a function",
			`fn add(v) { v.push(0) }
let v = []
add(v)
add(v)
print(len(v))`,
			"2\n",
		},
		{
			"dict set and get",
			`let d = {}
d["b"] = 2
d.a = 1
print(d, d.a, d["b"])`,
			"{a: 1, b: 2} 1 2\n",
		},
		{
			"nested containers",
			`let d = {list: [1, {k: "v"}]}
print(d.list[1].k)`,
			"v\n",
		},
		{
			"fib",
			`fn fib(n) {
	if n < 2 {
		return n
	}
	return fib(n - 1) + fib(n - 2)
}
print(fib(15))`,
			"610\n",
		},
		{
			"break and continue",
			`let out = []
for i in 0..10 {
	if i % 2 == 0 { continue }
	if i > 7 { break }
	out.push(i)
}
print(out)`,
			"[1, 3, 5, 7]\n",
		},
		{
			"while",
			`let i = 0
let s = 0
while i < 5 { i = i + 1; s = s + i }
print(s)`,
			"15\n",
		},
		{
			"return from loop",
			`fn find(v, x) {
	for i, y in v {
		if y == x { return i }
	}
	return -1
}
print(find(["a", "b"], "b"), find([], "b"))`,
			"1 -1\n",
		},
		{
			"for over vec",
			`for x in ["a", "b"] { print(x) }
for i, x in ["c"] { print(i, x) }`,
			"a\nb\n0 c\n",
		},
		{
			"for over dict",
			`let d = {b: 2, a: 1}
for k in d { print(k) }
for k, v in d { print(k, v) }`,
			"a\nb\na 1\nb 2\n",
		},
		{
			"for iterates a snapshot",
			`let v = [1, 2]
for x in v { v.push(x) }
print(len(v))`,
			"4\n",
		},
		{
			"closure shares bindings",
			`let x = 1
let f = fn() { return x }
x = 2
print(f())`,
			"2\n",
		},
		{
			"closure counter",
			`fn counter() {
	let n = 0
	return fn() { n = n + 1; return n }
}
let c = counter()
let d = counter()
c(); c()
print(c(), d())`,
			"3 1\n",
		},
		{
			"closure outlives its block",
			`let f = nil
{
	let hidden = "kept"
	f = fn() { return hidden }
}
print(f())`,
			"kept\n",
		},
		{
			"func equality",
			`fn f() {}
fn g() {}
let h = f
print(f == h, f == g, fn() {} == fn() {}, len == len)`,
			"true false false false\n",
		},
		{
			"vec methods",
			`let v = [1, 2]
print(v.push(3), v.pop(), v.len(), v.join("-"), v.contains(2), [].pop())`,
			"3 3 2 1-2 true nil\n",
		},
		{
			"dict methods",
			`let d = {a: 1}
print(d.has("a"), d.remove("a"), d.has("a"), d.remove("a"), d.len())
d = {b: 1, a: 2}
print(d.keys(), d.values(), keys(d))`,
			"true 1 false nil 0\n['a', 'b'] [2, 1] ['a', 'b']\n",
		},
		{
			"string methods",
			`print(" Hi ".trim().upper(), "a,b".split(","), "x\ny\n".lines().len(), "héllo".len(), len("héllo"))`,
			"HI ['a', 'b'] 2 5 5\n",
		},
		{
			"builtins",
			`print(str(1.5) + "x", num("2") + 1, num(true), type([]), type(nil), type(fn() {}), type(0..1))`,
			"1.5x 3 1 vec nil func range\n",
		},
		{
			"json",
			`let x = from_json('{"a": [1, 2.5], "b": null}')
print(x.a, x.b, to_json({k: [1, "v"]}))`,
			`[1, 2.5] nil {"k":[1,"v"]}` + "\n",
		},
		{
			"yaml",
			`let x = {a: [1, "x"], b: {c: true}}
print(from_yaml(to_yaml(x)) == x, from_yaml("k: v").k)`,
			"true v\n",
		},
		{
			"expr",
			`let x = 2
print(expr("x * 21"))`,
			"42\n",
		},
		{
			"export without initializer",
			`export let E
print(E)`,
			"nil\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runScript(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unbound get", "y", ErrUnboundName},
		{"unbound set", "y = 1", ErrUnboundName},
		{"add mismatch", `1 + "a"`, ErrTypeMismatch},
		{"negate string", `-"a"`, ErrTypeMismatch},
		{"compare strings", `"a" < "b"`, ErrTypeMismatch},
		{"fractional index", "[1][1.5]", ErrBadIndex},
		{"string index", `[1]["a"]`, ErrBadIndex},
		{"index number", "let n = 1\nn[0]", ErrBadIndex},
		{"out of bounds", "[1][5]", ErrIndexOutOfBounds},
		{"set out of bounds", "let v = []\nv[0] = 1", ErrIndexOutOfBounds},
		{"missing key", `({})["k"]`, ErrMissingKey},
		{"missing field", "({}).k", ErrMissingKey},
		{"assign into string", "let s = \"a\"\ns[0] = 1", ErrBadAssignTarget},
		{"range of strings", `1.."a"`, ErrRangeType},
		{"fractional range", "0..1.5", ErrRangeType},
		{"call number", "let n = 1\nn()", ErrNotCallable},
		{"user arity", "fn f(a) {}\nf()", ErrCallArity},
		{"native arity", "len()", ErrCallArity},
		{"unknown method", `"a".nope()`, ErrUnknownMethod},
		{"range with two vars", "for a, b in 0..2 {}", ErrLoopVariables},
		{"iterate string", `for c in "abc" {}`, ErrTypeMismatch},
		{"top-level break", "break", ErrStrayEscape},
		{"top-level return", "return 1", ErrStrayEscape},
		{"break out of function", "fn f() { break }\nfor i in 0..1 { f() }", ErrStrayEscape},
		{"native failure", `num("x")`, ErrNativeCall},
		{"native argument", "keys(1)", ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runScript(t, tt.src)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompareMismatch(t *testing.T) {
	for _, op := range []string{"<", ">", "<=", ">="} {
		t.Run(op, func(t *testing.T) {
			_, err := runScript(t, `"a" `+op+` 1`)
			if !errors.Is(err, ErrTypeMismatch) {
				t.Fatalf("got %v, want %v", err, ErrTypeMismatch)
			}

			if !strings.Contains(err.Error(), "op="+op+" ") {
				t.Errorf("operator not named: %v", err)
			}
		})
	}
}

func TestMember(t *testing.T) {
	d := NewDict()
	d.Set("k", Num(1))

	if v, err := Member(d, "k"); err != nil || !Equal(v, Num(1)) {
		t.Errorf("dict entry: got %v, %v", v, err)
	}

	v, err := Member(NewVec(Num(1)), "len")
	if err != nil {
		t.Fatal(err)
	}

	if f, ok := v.(*Func); !ok || f.Recv == nil {
		t.Errorf("method: got %#v", v)
	}

	if _, err := Member(d, "missing"); !errors.Is(err, ErrMissingKey) {
		t.Errorf("missing key: got %v", err)
	}

	if _, err := Member(Num(1), "len"); err == nil {
		t.Error("member of a number")
	}
}

func TestShortCircuit(t *testing.T) {
	prog, err := ParseString(t.Context(),
		`print(false && mark(1), true || mark(2), nil || mark(3), 1 && mark(4))`)
	if err != nil {
		t.Fatal(err)
	}

	var (
		out   bytes.Buffer
		calls []string
	)

	ip := newTestInterpreter(&out)
	ip.Stack().DefValue("mark", NewNative("mark", 1,
		func(_ context.Context, _ *Interpreter, args []Value) (Value, error) {
			calls = append(calls, args[0].String())

			return args[0], nil
		}))

	if err := ip.Run(t.Context(), prog); err != nil {
		t.Fatal(err)
	}

	if got := out.String(); got != "false true 3 4\n" {
		t.Errorf("output: %q", got)
	}

	if !slices.Equal(calls, []string{"3", "4"}) {
		t.Errorf("evaluated: %v", calls)
	}
}

func TestCommands(t *testing.T) {
	fake := &fakeLauncher{
		output: map[string]string{"echo hi": "hi"},
		status: map[string]int{"fail": 3},
	}

	got, err := runScript(t, `export FOO = "bar"
let HIDDEN = 1
$ run {FOO} "a b"
$ fail
print(status)
let x = $(echo hi)
print(x, status)`,
		WithLauncher(fake),
		WithEnviron([]string{"BASE=1"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	if got != "3\nhi 0\n" {
		t.Errorf("output: %q", got)
	}

	want := []string{`run bar "a b"`, "fail", "echo hi"}
	if !slices.Equal(fake.ran, want) {
		t.Errorf("ran %q, want %q", fake.ran, want)
	}

	if !slices.Contains(fake.env, "FOO=bar") || !slices.Contains(fake.env, "BASE=1") {
		t.Errorf("environment missing entries: %q", fake.env)
	}

	if slices.Contains(fake.env, "HIDDEN=1") {
		t.Error("non-exported binding passed to process")
	}
}

func TestWithExport(t *testing.T) {
	fake := &fakeLauncher{}

	got, err := runScript(t, "print(EDITOR)\n$ edit",
		WithLauncher(fake),
		WithEnviron([]string{"EDITOR=nano"}),
		WithExport("EDITOR", "vi"),
	)
	if err != nil {
		t.Fatal(err)
	}

	if got != "vi\n" {
		t.Errorf("output: %q", got)
	}

	if !slices.Contains(fake.env, "EDITOR=vi") {
		t.Errorf("export missing from environment: %q", fake.env)
	}
}

func TestCommandTree(t *testing.T) {
	fake := &fakeLauncher{}

	_, err := runScript(t, `let f = "out.txt"
$ a {1 + 1} | b && c > {f}`, WithLauncher(fake))
	if err != nil {
		t.Fatal(err)
	}

	if want := "((a 2 | b) && (c > out.txt))"; len(fake.ran) != 1 || fake.ran[0] != want {
		t.Errorf("ran %q, want %q", fake.ran, want)
	}
}

func TestCaptureMode(t *testing.T) {
	prog, err := ParseString(t.Context(), "print(\"a\")\n$ echo hi\n$ true")
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer

	ip := newTestInterpreter(&out,
		WithCapture(true),
		WithLauncher(&fakeLauncher{output: map[string]string{"echo hi": "hi"}}),
	)

	if err := ip.Run(t.Context(), prog); err != nil {
		t.Fatal(err)
	}

	if got := ip.Output(); got != "a\nhi\n\n" {
		t.Errorf("captured %q", got)
	}

	if out.Len() != 0 {
		t.Errorf("stdout written in capture mode: %q", out.String())
	}
}

func TestProcessError(t *testing.T) {
	fake := &fakeLauncher{err: map[string]error{"missing": proc.ErrSpawn}}

	_, err := runScript(t, "$ missing\nprint(1)", WithLauncher(fake))

	if !errors.Is(err, ErrProcess) || !errors.Is(err, proc.ErrSpawn) {
		t.Errorf("got %v", err)
	}
}

func TestEval(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"1 + 1\nlet x = 3\nx * 2", Num(6)},
		{"let x = 1", nil},
		{`"a"`, String("a")},
	}

	for _, tt := range tests {
		prog, err := ParseString(t.Context(), tt.src)
		if err != nil {
			t.Fatal(err)
		}

		got, err := newTestInterpreter(&bytes.Buffer{}).Eval(t.Context(), prog)
		if err != nil {
			t.Fatal(err)
		}

		if (got == nil) != (tt.want == nil) || (got != nil && !Equal(got, tt.want)) {
			t.Errorf("%q: got %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestArgs(t *testing.T) {
	got, err := runScript(t, "print(args[1], len(args))", WithArgs("a", "b"))
	if err != nil {
		t.Fatal(err)
	}

	if got != "b 2\n" {
		t.Errorf("got %q", got)
	}
}

func TestPersistentStack(t *testing.T) {
	var out bytes.Buffer

	ip := newTestInterpreter(&out)

	for _, src := range []string{"let x = 1", "fn inc() { x = x + 1 }", "inc()", "print(x)"} {
		prog, err := ParseString(t.Context(), src)
		if err != nil {
			t.Fatal(err)
		}

		if err := ip.Run(t.Context(), prog); err != nil {
			t.Fatalf("%q: %v", src, err)
		}
	}

	if got := out.String(); got != "2\n" {
		t.Errorf("got %q", got)
	}
}

func TestCallDepth(t *testing.T) {
	_, err := runScript(t, "fn r() { return r() }\nr()", WithMaxDepth(50))
	if !errors.Is(err, ErrCallDepth) {
		t.Errorf("got %v", err)
	}
}

func TestInterrupted(t *testing.T) {
	prog, err := ParseString(t.Context(), "while true {}")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err = newTestInterpreter(&bytes.Buffer{}).Run(ctx, prog)
	if !errors.Is(err, ErrInterrupted) || !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestCall(t *testing.T) {
	prog, err := ParseString(t.Context(), "fn add(a, b) { return a + b }")
	if err != nil {
		t.Fatal(err)
	}

	ip := newTestInterpreter(&bytes.Buffer{})
	if err := ip.Run(t.Context(), prog); err != nil {
		t.Fatal(err)
	}

	fn, err := ip.Stack().Get("add")
	if err != nil {
		t.Fatal(err)
	}

	got, err := ip.Call(t.Context(), fn.Value, Num(2), Num(3))
	if err != nil || !Equal(got, Num(5)) {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestRealProcesses(t *testing.T) {
	for _, bin := range []string{"echo", "tr", "false"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available: %v", bin, err)
		}
	}

	prog, err := ParseString(t.Context(), `export GREETING = "hello"
let x = $(echo {GREETING} | tr a-z A-Z)
let y = $(false || echo ok)
print(x, y, status)`)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer

	ip := New(WithStdout(&out), WithEnviron(os.Environ()))
	if err := ip.Run(t.Context(), prog); err != nil {
		t.Fatal(err)
	}

	if got := out.String(); got != "HELLO ok 0\n" {
		t.Errorf("got %q", got)
	}
}

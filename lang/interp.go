package lang

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/ardnew/psh/log"
	"github.com/ardnew/psh/proc"
)

// DefaultMaxDepth is the default limit on nested function calls.
const DefaultMaxDepth = 10000

// Launcher runs command trees as operating system processes. [proc.Launcher]
// is the standard implementation.
type Launcher interface {
	// Run executes cmd connected to the launcher's standard streams and
	// returns the exit status of the last process that ran.
	Run(ctx context.Context, cmd proc.Cmd, env []string) (int, error)

	// Capture executes cmd and returns its combined stdout and stderr with
	// trailing newlines removed.
	Capture(ctx context.Context, cmd proc.Cmd, env []string) (string, int, error)
}

// Interpreter evaluates programs against a persistent [Stack].
//
// An Interpreter is not safe for concurrent use.
type Interpreter struct {
	stack    *Stack
	status   *Var
	launcher Launcher
	stdout   io.Writer
	capture  *strings.Builder
	environ  []string
	exports  [][2]string
	args     []string
	logger   log.Logger
	maxDepth int
	depth    int
}

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithStdout sets the writer used by print when not capturing.
func WithStdout(w io.Writer) Option {
	return func(ip *Interpreter) { ip.stdout = w }
}

// WithLauncher sets the process launcher.
func WithLauncher(l Launcher) Option {
	return func(ip *Interpreter) { ip.launcher = l }
}

// WithEnviron sets the base environment of KEY=VALUE strings. It is
// imported as bindings and passed to every launched process. The default is
// [os.Environ].
func WithEnviron(environ []string) Option {
	return func(ip *Interpreter) { ip.environ = slices.Clone(environ) }
}

// WithCapture enables capture mode: print and command statements append to
// an internal buffer returned by [Interpreter.Output] instead of writing to
// the standard output.
func WithCapture(enabled bool) Option {
	return func(ip *Interpreter) {
		ip.capture = nil
		if enabled {
			ip.capture = &strings.Builder{}
		}
	}
}

// WithExport pre-defines name as an exported String binding in the outermost
// frame, shadowing an imported variable of the same name.
func WithExport(name, value string) Option {
	return func(ip *Interpreter) {
		ip.exports = append(ip.exports, [2]string{name, value})
	}
}

// WithArgs sets the script arguments bound to args.
func WithArgs(args ...string) Option {
	return func(ip *Interpreter) { ip.args = args }
}

// WithLogger sets the logger receiving evaluation records.
func WithLogger(logger log.Logger) Option {
	return func(ip *Interpreter) { ip.logger = logger }
}

// WithMaxDepth limits nested function calls. Values below 1 select
// [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(ip *Interpreter) { ip.maxDepth = depth }
}

// New returns an interpreter whose outermost frame holds the imported
// environment, the built-in functions, args, and status.
func New(opts ...Option) *Interpreter {
	ip := &Interpreter{
		stack:  NewStack(),
		stdout: os.Stdout,
	}

	for _, opt := range opts {
		opt(ip)
	}

	if ip.environ == nil {
		ip.environ = os.Environ()
	}

	if ip.launcher == nil {
		ip.launcher = proc.New(proc.WithLogger(ip.logger))
	}

	if ip.maxDepth < 1 {
		ip.maxDepth = DefaultMaxDepth
	}

	ip.stack.Import(ip.environ)
	defineBuiltins(ip.stack)

	for _, kv := range ip.exports {
		ip.stack.Def(kv[0], &Var{Value: String(kv[1]), Exported: true})
	}

	args := make([]Value, len(ip.args))
	for i, a := range ip.args {
		args[i] = String(a)
	}

	ip.stack.DefValue("args", NewVec(args...))

	ip.status = &Var{Value: Num(0)}
	ip.stack.Def("status", ip.status)

	return ip
}

// Stack returns the interpreter's environment.
func (ip *Interpreter) Stack() *Stack { return ip.stack }

// Output returns the capture buffer. It is empty unless capture mode is
// enabled.
func (ip *Interpreter) Output() string {
	if ip.capture == nil {
		return ""
	}

	return ip.capture.String()
}

// Run executes every statement of prog in the outermost scope.
func (ip *Interpreter) Run(ctx context.Context, prog *Program) error {
	_, err := ip.run(ctx, prog)

	return err
}

// Eval executes prog like Run and returns the value of its final statement
// if that is an expression statement, or nil otherwise.
func (ip *Interpreter) Eval(ctx context.Context, prog *Program) (Value, error) {
	return ip.run(ctx, prog)
}

func (ip *Interpreter) run(ctx context.Context, prog *Program) (Value, error) {
	var last Value

	for _, stmt := range prog.Stmts {
		last = nil

		if es, ok := stmt.(*ExprStmt); ok {
			if err := ip.checkContext(ctx); err != nil {
				return nil, err
			}

			v, err := ip.eval(ctx, es.X)
			if err != nil {
				return nil, err
			}

			last = v

			continue
		}

		esc, err := ip.exec(ctx, stmt)
		if err != nil {
			return nil, err
		}

		if esc.kind != escNone {
			return nil, ErrStrayEscape.With(
				slog.String("escape", esc.kind.String()),
				slog.String("pos", stmt.Position().String()),
			)
		}
	}

	return last, nil
}

// Call invokes fn with args. Natives use it to call back into psh
// functions.
func (ip *Interpreter) Call(ctx context.Context, fn Value, args ...Value) (Value, error) {
	return ip.call(ctx, fn, args)
}

// write sends s to the capture buffer or the standard output.
func (ip *Interpreter) write(s string) error {
	if ip.capture != nil {
		ip.capture.WriteString(s)

		return nil
	}

	_, err := io.WriteString(ip.stdout, s)

	return err
}

// childEnv returns the environment of launched processes: the base
// environment followed by every exported binding.
func (ip *Interpreter) childEnv() []string {
	return append(slices.Clone(ip.environ), ip.stack.Environ()...)
}

func (ip *Interpreter) checkContext(ctx context.Context) error {
	if err := context.Cause(ctx); err != nil {
		return ErrInterrupted.Wrap(err)
	}

	return nil
}

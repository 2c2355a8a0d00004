package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values). Errors returned by the parser and
// interpreter match these with [errors.Is].
var (
	ErrReadInput = NewError("failed to read input")

	ErrUnboundName      = NewError("unbound name")
	ErrTypeMismatch     = NewError("type mismatch")
	ErrBadIndex         = NewError("bad index")
	ErrIndexOutOfBounds = NewError("index out of bounds")
	ErrMissingKey       = NewError("missing key")
	ErrBadAssignTarget  = NewError("bad assignment target")
	ErrRangeType        = NewError("range bounds must be integers")
	ErrNotCallable      = NewError("value is not callable")
	ErrCallArity        = NewError("wrong number of arguments")
	ErrUnknownMethod    = NewError("unknown method")
	ErrLoopVariables    = NewError("wrong number of loop variables")
	ErrStrayEscape      = NewError("control flow escaped its construct")
	ErrNativeCall       = NewError("native function failed")
	ErrProcess          = NewError("process error")
	ErrCallDepth        = NewError("maximum call depth exceeded")
	ErrInterrupted      = NewError("evaluation interrupted")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg> (<attrs>): <err>"
	//   2. "<msg> (<attrs>)"
	//   3. "<err>"
	part := make([]string, 0, 2)

	if e.msg != "" {
		msg := e.msg
		if detail := e.detail(); detail != "" {
			msg += " (" + detail + ")"
		}

		part = append(part, msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// detail renders the attributes as space-separated key=value pairs.
func (e *Error) detail() string {
	kv := make([]string, 0, len(e.attrs))

	for _, a := range e.attrs {
		kv = append(kv, a.Key+"="+a.Value.Resolve().String())
	}

	return strings.Join(kv, " ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg != "" && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ParseError reports a syntax error at a source position.
type ParseError struct {
	Pos    Pos
	Msg    string
	Source string // The original source input
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var buf strings.Builder

	buf.WriteString("parse error at line ")
	buf.WriteString(strconv.Itoa(e.Pos.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Pos.Col))
	buf.WriteString(": ")
	buf.WriteString(e.Msg)

	if snippet := e.Snippet(); snippet != "" {
		buf.WriteByte('\n')
		buf.WriteString(snippet)
	}

	return buf.String()
}

// Snippet returns the offending source line with a caret under the error
// column, or an empty string if the position is outside the source.
func (e *ParseError) Snippet() string {
	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line < 1 || e.Pos.Line > len(lines) {
		return ""
	}

	num := strconv.Itoa(e.Pos.Line)

	var src strings.Builder

	src.WriteString("  " + num + " | " + lines[e.Pos.Line-1] + "\n")

	// 2 leading spaces + " | "
	src.WriteString(strings.Repeat(" ", len(num)+5))

	if e.Pos.Col > 1 {
		src.WriteString(strings.Repeat(" ", e.Pos.Col-1))
	}

	src.WriteString("^")

	return src.String()
}

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Msg),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Col),
	)
}

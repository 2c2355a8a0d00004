package proc

import (
	"log/slog"
	"strings"
)

// Error is a launcher failure with structured logging attributes.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

// Is matches errors derived from the same sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg != "" && t.msg == e.msg
}

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

// Wrap creates a new Error wrapping err.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	next := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	next = append(next, e.attrs...)
	next = append(next, attrs...)

	return &Error{msg: e.msg, err: e.err, attrs: next}
}

var (
	ErrEmptyCommand   = NewError("empty command")
	ErrSpawn          = NewError("start process")
	ErrCreatePipe     = NewError("create pipe")
	ErrRedirectTarget = NewError("redirect target must be a plain word list")
	ErrRedirectOpen   = NewError("open redirect target")
	ErrOperator       = NewError("unknown command operator")
	ErrCanceled       = NewError("command canceled")
)

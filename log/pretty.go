package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// prettyHandler is the state shared by the colorized handlers: options,
// a writer guarded by a mutex shared among derived handlers, and the
// attributes and group prefix accumulated through WithAttrs/WithGroup.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	prefix string
}

func (h prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h prettyHandler) withAttrs(attrs []slog.Attr) prettyHandler {
	next := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next = append(next, h.attrs...)

	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		next = append(next, a)
	}

	h.attrs = next

	return h
}

func (h prettyHandler) withGroup(name string) prettyHandler {
	if name != "" {
		h.prefix += name + "."
	}

	return h
}

// header returns the replaced time, level, source, and message attributes
// of r followed by all record and handler attributes.
func (h prettyHandler) collect(r slog.Record) []slog.Attr {
	out := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	add := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			out = append(out, a)
		}
	}

	if !r.Time.IsZero() {
		add(slog.Time(slog.TimeKey, r.Time))
	}

	add(slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			add(slog.String(slog.SourceKey, src.File+":"+strconv.Itoa(src.Line)))
		}
	}

	add(slog.String(slog.MessageKey, r.Message))

	out = append(out, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		a.Key = h.prefix + a.Key
		out = append(out, a)

		return true
	})

	return out
}

func (h prettyHandler) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// prettyTextHandler renders records as colorized key=value pairs.
type prettyTextHandler struct{ prettyHandler }

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return prettyTextHandler{prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w}}
}

func (h prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	for _, a := range h.collect(r) {
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(colorGray + a.Key + colorReset + "=")
		writeColored(&buf, a.Value)
	}

	return h.write(&buf)
}

func (h prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return prettyTextHandler{h.withAttrs(attrs)}
}

func (h prettyTextHandler) WithGroup(name string) slog.Handler {
	return prettyTextHandler{h.withGroup(name)}
}

// prettyJSONHandler renders records as indented, colorized JSON-like
// objects. String values are not quoted.
type prettyJSONHandler struct{ prettyHandler }

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return prettyJSONHandler{prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w}}
}

func (h prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	buf.WriteString("{")

	for i, a := range h.collect(r) {
		if i > 0 {
			buf.WriteByte(',')
		}

		buf.WriteString("\n  " + colorGray + a.Key + colorReset + ": ")
		writeColored(&buf, a.Value)
	}

	buf.WriteString("\n}")

	return h.write(&buf)
}

func (h prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return prettyJSONHandler{h.withAttrs(attrs)}
}

func (h prettyJSONHandler) WithGroup(name string) slog.Handler {
	return prettyJSONHandler{h.withGroup(name)}
}

func writeColored(buf *bytes.Buffer, v slog.Value) {
	v = v.Resolve()

	color, text := colorCyan, ""

	switch v.Kind() {
	case slog.KindString:
		text = v.String()
		if lvl, ok := levelColor(text); ok {
			color = lvl
		}

	case slog.KindInt64:
		color, text = colorYellow, strconv.FormatInt(v.Int64(), 10)

	case slog.KindUint64:
		color, text = colorYellow, strconv.FormatUint(v.Uint64(), 10)

	case slog.KindFloat64:
		color, text = colorYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64)

	case slog.KindBool:
		color, text = colorRed, "false"
		if v.Bool() {
			color, text = colorGreen, "true"
		}

	case slog.KindDuration:
		color, text = colorMagenta, v.Duration().String()

	case slog.KindTime:
		color, text = colorBlue, v.Time().Format(time.RFC3339)

	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, a := range v.Group() {
			parts = append(parts, a.Key+"="+a.Value.Resolve().String())
		}

		text = "{" + strings.Join(parts, " ") + "}"

	default:
		if level, ok := v.Any().(slog.Level); ok {
			text = strings.ToUpper(Level(level).String())
			color, _ = levelColor(text)
		} else {
			text = fmt.Sprint(v.Any())
		}
	}

	buf.WriteString(color + text + colorReset)
}

func levelColor(name string) (string, bool) {
	switch name {
	case "ERROR":
		return colorRed, true
	case "WARN":
		return colorYellow, true
	case "INFO":
		return colorGreen, true
	case "DEBUG", "TRACE":
		return colorBlue, true
	}

	return "", false
}

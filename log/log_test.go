package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestMake_Defaults(t *testing.T) {
	logger := Make(&bytes.Buffer{})

	if logger.Level() != DefaultLevel {
		t.Errorf("expected level %v, got %v", DefaultLevel, logger.Level())
	}

	if logger.Format() != DefaultFormat {
		t.Errorf("expected format %v, got %v", DefaultFormat, logger.Format())
	}
}

func TestZeroLogger_Discards(t *testing.T) {
	var logger Logger

	// Must not panic.
	logger.Info("dropped", slog.Int("n", 1))
	logger.TraceContext(t.Context(), "dropped")

	if logger.With(slog.String("k", "v")).Logger != nil {
		t.Error("With on zero logger should stay zero")
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		emit   func(Logger)
		expect bool
	}{
		{"trace at trace", LevelTrace, func(l Logger) { l.Trace("msg") }, true},
		{"trace at debug", LevelDebug, func(l Logger) { l.Trace("msg") }, false},
		{"debug at info", LevelInfo, func(l Logger) { l.Debug("msg") }, false},
		{"info at info", LevelInfo, func(l Logger) { l.Info("msg") }, true},
		{"warn at error", LevelError, func(l Logger) { l.Warn("msg") }, false},
		{"error at error", LevelError, func(l Logger) { l.Error("msg") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.emit(Make(&buf, WithLevel(tt.level)))

			if got := buf.Len() > 0; got != tt.expect {
				t.Errorf("expected emitted=%v, got output %q", tt.expect, buf.String())
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON), WithLevel(LevelTrace))
	logger.Trace("statement", slog.String("kind", "let"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if rec["level"] != "TRACE" {
		t.Errorf("expected level TRACE, got %v", rec["level"])
	}

	if rec["kind"] != "let" {
		t.Errorf("expected kind=let, got %v", rec["kind"])
	}
}

func TestTimeLayoutNone(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithTimeLayout("none")).Info("hello")

	if strings.Contains(buf.String(), "time=") {
		t.Errorf("expected no timestamp, got %q", buf.String())
	}
}

func TestCaller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true)).Info("hello")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("expected call site in output, got %q", buf.String())
	}
}

func TestWithAttrs(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer

		logger := Make(&buf, WithPretty(pretty)).With(slog.String("script", "a.psh"))
		logger.Info("run")

		if !strings.Contains(buf.String(), "a.psh") {
			t.Errorf("pretty=%v: expected attribute in %q", pretty, buf.String())
		}
	}
}

func TestWrap_KeepsOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf).Wrap(WithLevel(LevelDebug))
	logger.Debug("wrapped")

	if !strings.Contains(buf.String(), "wrapped") {
		t.Errorf("expected wrapped logger to write to original output")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"bogus":   DefaultLevel,
		" Trace ": LevelTrace,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("expected json")
	}

	if ParseFormat("text") != FormatText {
		t.Error("expected text")
	}

	if ParseFormat("xml") != DefaultFormat {
		t.Error("expected default for unknown format")
	}
}

func TestPackageFunctions(t *testing.T) {
	defaultMu.Lock()
	original := defaultLog
	defaultMu.Unlock()

	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLog = original
		defaultMu.Unlock()
	})

	var buf bytes.Buffer

	defaultMu.Lock()
	defaultLog = Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON))
	defaultMu.Unlock()

	tests := []struct {
		fn    func(string, ...slog.Attr)
		level string
	}{
		{Trace, "TRACE"},
		{Debug, "DEBUG"},
		{Info, "INFO"},
		{Warn, "WARN"},
		{Error, "ERROR"},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.fn("message", slog.String("key", "value"))

		out := buf.String()
		if !strings.Contains(out, tt.level) || !strings.Contains(out, `"key":"value"`) {
			t.Errorf("%s: unexpected output %q", tt.level, out)
		}
	}
}

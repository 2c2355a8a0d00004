// Package log provides a concurrency-safe logging interface based on
// [log/slog].
//
// A [Logger] is an immutable value. Its configuration (level, format, time
// layout, caller info, pretty printing, output) is applied at creation time
// with functional options and derived loggers are created with
// [Logger.Wrap] and [Logger.With]:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText))
//
//	logger = logger.With(slog.String("script", path))
//	logger.DebugContext(ctx, "statement", slog.Int("line", 3))
//
// The zero value of [Logger] discards everything, so components accepting a
// Logger option work without configuration.
//
// # Levels
//
// In addition to the four [log/slog] levels the package defines
// [LevelTrace], which the interpreter uses for per-statement records.
//
// # Package-level logger
//
// [Config], [Trace], [Debug], [Info], [Warn], and [Error] (and their
// *Context variants) operate on a process-wide default logger writing to
// standard error. Context-unaware variants use [DefaultContextProvider].
package log

package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// programCache stores parsed programs keyed by the xxh3 hash of their
// source.
var programCache sync.Map

// entry is a cached parse result, computed once per source.
type entry struct {
	once   sync.Once
	source string
	prog   *Program
	err    error
}

// ParseReader reads all of r and parses it. Unless disabled with
// [WithParseCache], the result is cached by source content.
func ParseReader(ctx context.Context, r io.Reader, opts ...ParseOption) (*Program, error) {
	// Wrap reader with async read-ahead so input is prefetched while
	// earlier chunks are copied.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	makeParseConfig(opts...).logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return ParseCached(ctx, string(data), opts...)
}

// ParseCached is ParseString with results cached by source content. The
// returned program is shared and must not be modified.
func ParseCached(ctx context.Context, source string, opts ...ParseOption) (*Program, error) {
	cfg := makeParseConfig(opts...)
	if !cfg.cache {
		return ParseString(ctx, source, opts...)
	}

	hash := xxh3.HashString(source)
	key := strconv.FormatUint(hash, 36)

	value, hit := programCache.LoadOrStore(key, &entry{source: source})
	e := value.(*entry)

	if e.source != source {
		cfg.logger.DebugContext(ctx, "cache collision", slog.String("key", key))

		return ParseString(ctx, source, opts...)
	}

	cfg.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Bool("cache_hit", hit),
	)

	e.once.Do(func() {
		e.prog, e.err = ParseString(ctx, source, opts...)
	})

	return e.prog, e.err
}

// ClearCache removes all cached programs.
func ClearCache() {
	programCache.Clear()
}

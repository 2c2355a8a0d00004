// Package cli contains the command line interface for psh.
//
// # Usage
//
//	psh [flags] [run] FILE [ARGS...]
//	psh eval SOURCE...
//	psh repl
//	psh ast [--format native|json|yaml] FILE...
//	psh init [--force]
//
// Without a script argument, psh starts the REPL when standard input is a
// terminal and otherwise reads the script from standard input.
//
// # Configuration
//
// Flag defaults are read from config.json and config.yaml in the user
// configuration directory (~/.config/psh on Linux). The YAML loader accepts
// flag names as keys, either flat or nested by hyphenated prefix:
//
//	log:
//	  level: debug
//	  pretty: false
//	export:
//	  - EDITOR=vi
//
// Command-line flags override config values. "psh init" writes the current
// defaults to config.yaml.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
// The profiling flags are:
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default ~/.cache/psh/pprof)
package cli

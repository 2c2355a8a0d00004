// Package profile provides optional runtime profiling for psh.
//
// Profiling is backed by [github.com/pkg/profile] and compiled in only when
// building with the "pprof" tag:
//
//	go build -tags pprof .
//	./psh --pprof-mode cpu run script.psh
//	go tool pprof ./psh ~/.cache/psh/pprof/cpu.pprof
//
// Without the tag, [Modes] is empty and [Config.Start] returns a no-op
// stopper, so callers never need to check the build configuration.
//
// Profiles are written to [Config.Path], one file per mode (cpu.pprof,
// mem.pprof, trace.out, ...). With the tag set, [net/http/pprof] handlers are
// also registered on the default mux.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`

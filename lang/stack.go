package lang

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Var is a binding in a [Stack] frame.
type Var struct {
	Value Value

	// Exported bindings are projected into the environment of launched
	// processes.
	Exported bool
}

type frame map[string]*Var

// Stack is a lexical scope chain. The last frame is innermost.
//
// Frames are maps of *Var, so a Stack returned by Capture shares bindings with
// the stack it was captured from: assignment through either is observed by
// both.
type Stack struct {
	frames []frame
}

// NewStack returns a stack with one empty outermost frame.
func NewStack() *Stack {
	return &Stack{frames: []frame{{}}}
}

// Depth returns the number of frames.
func (s *Stack) Depth() int { return len(s.frames) }

// Push enters a new innermost scope.
func (s *Stack) Push() { s.frames = append(s.frames, frame{}) }

// Pop leaves the innermost scope. The outermost frame is never removed.
func (s *Stack) Pop() {
	if len(s.frames) > 1 {
		s.frames[len(s.frames)-1] = nil
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Def binds name in the innermost frame, shadowing any outer binding.
func (s *Stack) Def(name string, v *Var) {
	s.frames[len(s.frames)-1][name] = v
}

// DefValue binds name to a non-exported x in the innermost frame.
func (s *Stack) DefValue(name string, x Value) {
	s.Def(name, &Var{Value: x})
}

// Lookup resolves name from the innermost frame outward.
func (s *Stack) Lookup(name string) (*Var, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Get is Lookup that returns [ErrUnboundName] for an absent name.
func (s *Stack) Get(name string) (*Var, error) {
	if v, ok := s.Lookup(name); ok {
		return v, nil
	}

	return nil, ErrUnboundName.With(slog.String("name", name))
}

// OSEnv returns the display string of every visible exported binding. Inner
// bindings override outer ones, including non-exported inner bindings that
// shadow an exported outer one.
func (s *Stack) OSEnv() map[string]string {
	env := make(map[string]string)

	for _, name := range s.Names() {
		if v, _ := s.Lookup(name); v.Exported {
			env[name] = v.Value.String()
		}
	}

	return env
}

// Environ returns OSEnv as sorted KEY=VALUE strings.
func (s *Stack) Environ() []string {
	env := s.OSEnv()
	out := make([]string, 0, len(env))

	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}

	return out
}

// Import binds each KEY=VALUE entry of environ as a non-exported String in
// the outermost frame. Entries without '=' or with an empty key are
// ignored.
func (s *Stack) Import(environ []string) {
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		s.frames[0][k] = &Var{Value: String(v)}
	}
}

// Names returns the sorted set of visible names.
func (s *Stack) Names() []string {
	seen := make(map[string]struct{})

	for _, f := range s.frames {
		for name := range f {
			seen[name] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}

// Capture returns a stack sharing the current frames. Frames pushed onto the
// capture later are not visible to s, and vice versa.
func (s *Stack) Capture() *Stack {
	return &Stack{frames: slices.Clone(s.frames)}
}

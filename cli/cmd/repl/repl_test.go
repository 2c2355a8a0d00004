package repl

import (
	"strings"
	"testing"

	"github.com/ardnew/psh/lang"
	"github.com/ardnew/psh/log"
)

func TestSessionEval(t *testing.T) {
	s := newSession(log.Logger{}, lang.WithEnviron([]string{}))

	tests := []struct {
		input string
		want  []string
	}{
		{"let x = 2", nil},
		{"x * 21", []string{"42"}},
		{`print("a"); "b"`, []string{"a", "'b'"}},
		{"nil", nil},
		{"undefined_name", []string{"error: "}},
		{"let = 1", []string{"error: parse error"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := s.eval(t.Context(), tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}

			for i, line := range got {
				if !strings.Contains(line, tt.want[i]) {
					t.Errorf("line %d: got %q, want %q", i, line, tt.want[i])
				}
			}
		})
	}

	if want := []string{"let x = 2", "x * 21", `print("a"); "b"`, "nil"}; strings.Join(s.source, "\n") != strings.Join(want, "\n") {
		t.Errorf("source %q, want %q", s.source, want)
	}

	s.reset()

	if _, ok := s.ip.Stack().Lookup("x"); ok {
		t.Error("binding survived reset")
	}

	if len(s.source) != 0 {
		t.Errorf("source survived reset: %q", s.source)
	}
}

func TestListVars(t *testing.T) {
	ip := newTestInterpreter(t, "let alpha = 1\nexport BETA = 'b'")

	all := listVars(ip, nil)
	for _, want := range []string{"  alpha", "* BETA", "HOME"} {
		if !strings.Contains(all, want) {
			t.Errorf("listing lacks %q:\n%s", want, all)
		}
	}

	if strings.Contains(all, "path_prefix") {
		t.Errorf("listing includes builtins:\n%s", all)
	}

	filtered := listVars(ip, []string{"alp"})
	if !strings.Contains(filtered, "alpha") || strings.Contains(filtered, "BETA") {
		t.Errorf("filtered listing:\n%s", filtered)
	}
}

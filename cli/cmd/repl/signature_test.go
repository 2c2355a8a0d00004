package repl

import (
	"slices"
	"strings"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"no call", "greeting", 8, "", 0, false},
		{"first arg", "add(", 4, "add", 0, true},
		{"first arg with value", "add(1", 5, "add", 0, true},
		{"second arg", "add(1,", 6, "add", 1, true},
		{"second arg with value", "add(1, 2", 8, "add", 1, true},
		{"method", "cfg.tags.push(", 14, "cfg.tags.push", 0, true},
		{"nested inner", "add(mul(1, ", 11, "mul", 1, true},
		{"nested closed", "add(mul(1, 2), ", 15, "add", 1, true},
		{"vec literal arg", "f([1, 2], ", 10, "f", 1, true},
		{"dict literal arg", "f({a: 1, b: 2}", 14, "f", 0, true},
		{"closed call", "add(1, 2)", 9, "", 0, false},
		{"grouping", "(1 + ", 5, "", 0, false},
		{"capture", "$(ls ", 5, "", 0, false},
		{"cursor before call", "add(1, 2)", 2, "", 0, false},
		{"after operator", "x + len(", 8, "len", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)
			if got.inCall != tt.wantInCall || got.name != tt.wantName ||
				got.argIndex != tt.wantIndex {
				t.Errorf("detectFunctionCall(%q, %d) = %+v, want {%s %d %v}",
					tt.input, tt.cursor, got, tt.wantName, tt.wantIndex, tt.wantInCall)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	ip := newTestInterpreter(t, `
fn add(x, y) { return x + y }
let f = fn(a) { return a }
let cfg = {tags: [], go: fn(dir, flags) {}}
let n = 1
`)

	tests := []struct {
		name       string
		want       string
		wantParams []string
	}{
		{"add", "add(x, y)", []string{"x", "y"}},
		{"f", "fn(a)", []string{"a"}},
		{"cfg.go", "fn(dir, flags)", []string{"dir", "flags"}},
		{"print", "print(...values)", []string{"...values"}},
		{"cwd", "cwd()", []string{}},
		{"path_prefix", "path_prefix(list, ...items)", []string{"list", "...items"}},
		{"cfg.tags.push", "push(...items)", []string{"...items"}},
		{"cfg.tags.pop", "pop()", []string{}},
		{"cfg.keys", "keys()", []string{}},
		{"n", "", nil},
		{"missing", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, params := getSignature(ip, tt.name)
			if got != tt.want {
				t.Errorf("signature = %q, want %q", got, tt.want)
			}

			if len(params) != len(tt.wantParams) || !slices.Equal(params, tt.wantParams) {
				t.Errorf("params = %q, want %q", params, tt.wantParams)
			}
		})
	}
}

func TestParamsOrArity(t *testing.T) {
	if got := paramsOrArity(nil, 2); !slices.Equal(got, []string{"arg1", "arg2"}) {
		t.Errorf("fixed arity: %q", got)
	}

	if got := paramsOrArity(nil, -1); !slices.Equal(got, []string{"...args"}) {
		t.Errorf("variadic: %q", got)
	}

	if got := paramsOrArity([]string{"x"}, 3); !slices.Equal(got, []string{"x"}) {
		t.Errorf("known: %q", got)
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name      string
		signature string
		params    []string
		argIndex  int
	}{
		{"no params", "cwd()", nil, 0},
		{"first param", "add(x, y)", []string{"x", "y"}, 0},
		{"second param", "add(x, y)", []string{"x", "y"}, 1},
		{"variadic", "print(...values)", []string{"...values"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderSignatureHint(tt.signature, tt.params, tt.argIndex)

			for _, p := range tt.params {
				if !strings.Contains(got, p) {
					t.Errorf("hint %q lacks %q", got, p)
				}
			}

			name := tt.signature[:strings.IndexByte(tt.signature, '(')]
			if !strings.Contains(got, name) {
				t.Errorf("hint %q lacks %q", got, name)
			}
		})
	}
}

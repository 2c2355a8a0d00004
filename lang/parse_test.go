package lang

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func parseExpr(t *testing.T, src string) Expr {
	t.Helper()

	prog, err := ParseString(t.Context(), src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	if len(prog.Stmts) != 1 {
		t.Fatalf("parse %q: got %d statements", src, len(prog.Stmts))
	}

	es, ok := prog.Stmts[0].(*ExprStmt)
	if !ok {
		t.Fatalf("parse %q: got %T", src, prog.Stmts[0])
	}

	return es.X
}

func TestParseExpr(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"-2 ** 2", "(-2 ** 2)"},
		{"!a && b", "(!a && b)"},
		{"a || b && c", "(a || (b && c))"},
		{"a == b < c", "(a == (b < c))"},
		{"a != b", "!(a == b)"},
		{"a <= b", "(a <= b)"},
		{"a >= b", "(a >= b)"},
		{"1..n + 1", "(1..(n + 1))"},
		{"0..=9", "(0..=9)"},
		{"a = b = 1", "a = b = 1"},
		{"x[1] = 2", "x[1] = 2"},
		{"f(1, 2)[0].x", "f(1, 2)[0].x"},
		{"v.push(1)", "v.push(1)"},
		{"s.trim().upper()", "s.trim().upper()"},
		{`"a{x + 1}b"`, `"a{(x + 1)}b"`},
		{`'raw {x}'`, `"raw \{x\}"`},
		{"[1, 'a', [],]", `[1, "a", []]`},
		{"({a: 1, 'b': 2})", "{a: 1, b: 2}"},
		{"fn(x) { return x }", "fn(x) { return x }"},
		{"$(ls -l | wc)", "$(ls -l | wc)"},
		{"f(\n  1,\n  2\n)", "f(1, 2)"},
		{"1 +\n 2", "(1 + 2)"},
		{"true && nil", "(true && nil)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExprString(parseExpr(t, tt.input)); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseStatements(t *testing.T) {
	src := `
# comment
let x = 1
export PATH = "bin"
export let y
fn add(a, b) { return a + b }
if x > 0 {
	x = 2
}
else if x < 0 { x = 3 } else { x = 4 }
while x < 10 { x = x + 1; continue }
for i in 0..3 { break }
for k, v in {a: 1} {}
{ let z = 1 }
$ echo {x}
return
`

	prog, err := ParseString(t.Context(), src)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"*lang.Let", "*lang.Let", "*lang.Let", "*lang.FuncDecl", "*lang.If",
		"*lang.While", "*lang.For", "*lang.For", "*lang.Block", "*lang.CmdStmt",
		"*lang.Return",
	}

	if len(prog.Stmts) != len(want) {
		t.Fatalf("got %d statements, want %d", len(prog.Stmts), len(want))
	}

	for i, stmt := range prog.Stmts {
		if got := fmt.Sprintf("%T", stmt); got != want[i] {
			t.Errorf("statement %d: got %s, want %s", i, got, want[i])
		}
	}

	if let := prog.Stmts[1].(*Let); !let.Export || let.Name != "PATH" {
		t.Errorf("export: %+v", let)
	}

	if let := prog.Stmts[2].(*Let); !let.Export || let.Init != nil {
		t.Errorf("export let: %+v", let)
	}

	ifStmt := prog.Stmts[4].(*If)

	elseIf, ok := ifStmt.Else.(*If)
	if !ok {
		t.Fatalf("else branch: got %T", ifStmt.Else)
	}

	if _, ok := elseIf.Else.(*Block); !ok {
		t.Errorf("final else: got %T", elseIf.Else)
	}

	if f := prog.Stmts[7].(*For); f.Key != "k" || f.Val != "v" {
		t.Errorf("for: %+v", f)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		pos   Pos
	}{
		{"let = 1", Pos{1, 5}},
		{"1 +", Pos{1, 4}},
		{"(1", Pos{1, 3}},
		{"1 = 2", Pos{1, 3}},
		{"a b", Pos{1, 3}},
		{"f (1)", Pos{1, 3}},
		{"let if = 1", Pos{1, 5}},
		{"if x {", Pos{1, 6}},
		{"for a b {}", Pos{1, 7}},
		{"$", Pos{1, 2}},
		{"$ a |", Pos{1, 6}},
		{"x.1", Pos{1, 3}},
		{`"{}"`, Pos{1, 3}},
		{`"{1 +}"`, Pos{1, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseString(t.Context(), tt.input)

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}

			if pe.Pos != tt.pos {
				t.Errorf("position: got %v, want %v (%s)", pe.Pos, tt.pos, pe.Msg)
			}
		})
	}
}

func TestParseErrorSnippet(t *testing.T) {
	_, err := ParseString(t.Context(), "let x = 1\nlet y = )")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}

	want := "  2 | let y = )\n" + strings.Repeat(" ", 6+8) + "^"
	if got := pe.Snippet(); got != want {
		t.Errorf("snippet:\ngot  %q\nwant %q", got, want)
	}

	if !strings.HasPrefix(pe.Error(), "parse error at line 2, column 9: ") {
		t.Errorf("message: %q", pe.Error())
	}
}

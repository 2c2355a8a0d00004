package lang

import (
	"errors"
	"testing"

	"github.com/ardnew/psh/proc"
)

func parseCmdStmt(t *testing.T, src string) *CmdStmt {
	t.Helper()

	prog, err := ParseString(t.Context(), "$ "+src, WithParseCache(false))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	stmt, ok := prog.Stmts[0].(*CmdStmt)
	if !ok {
		t.Fatalf("parse %q: got %T", src, prog.Stmts[0])
	}

	return stmt
}

func TestParseCmdPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ls", "ls"},
		{"a|b", "(a | b)"},
		{"a | b | c", "((a | b) | c)"},
		{"a && b || c", "((a && b) || c)"},
		{"a || b && c", "(a || (b && c))"},
		{"a | b && c > f", "((a | b) && (c > f))"},
		{"a > f | b", "((a > f) | b)"},
		{"a *| b &| c", "((a *| b) &| c)"},
		{"a < in *> err", "((a < in) *> err)"},
		{"a &> log || b &< in", "((a &> log) || (b &< in))"},
		{"a &&\n  b", "(a && b)"},
		{"ls $(pwd)", "ls $(pwd)"},
		{"echo $(a | b)x", "echo $((a | b))x"},
		{`echo "x{1+1}y"`, "echo x{(1 + 1)}y"},
		{"echo {v}.txt", "echo {v}.txt"},
		{"a-b --flag=1 ./x", "a-b --flag=1 ./x"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseCmdStmt(t, tt.input).Cmd.String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseCmdWords(t *testing.T) {
	tests := []struct {
		input string
		words int
	}{
		{`echo a\ b`, 2},
		{`echo 'a b' "c d"`, 3},
		{`echo ""`, 2},
		{`echo a"b"'c'{1}`, 2},
		{"echo   a    b", 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			atom, ok := parseCmdStmt(t, tt.input).Cmd.(*CmdAtom)
			if !ok {
				t.Fatal("expected a single command")
			}

			if len(atom.Words) != tt.words {
				t.Errorf("got %d words, want %d", len(atom.Words), tt.words)
			}
		})
	}
}

func TestParseCmdOperators(t *testing.T) {
	op, ok := parseCmdStmt(t, "a *> b").Cmd.(*CmdOp)
	if !ok {
		t.Fatal("expected an operator node")
	}

	if op.Op != proc.ErrWrite || !op.Op.IsWrite() || op.Op.Stream() != proc.StreamErr {
		t.Errorf("operator: %v", op.Op)
	}

	if op.Pos != (Pos{1, 5}) {
		t.Errorf("position: %v", op.Pos)
	}
}

func TestParseCmdTerminators(t *testing.T) {
	prog, err := ParseString(t.Context(), "$ a; $ b\nif x { $ c }")
	if err != nil {
		t.Fatal(err)
	}

	if len(prog.Stmts) != 3 {
		t.Fatalf("got %d statements", len(prog.Stmts))
	}

	body := prog.Stmts[2].(*If).Then.Stmts
	if len(body) != 1 || body[0].(*CmdStmt).Cmd.String() != "c" {
		t.Errorf("block body: %v", body)
	}
}

func TestParseCmdErrors(t *testing.T) {
	tests := []struct {
		input string
		pos   Pos
	}{
		{"$ | a", Pos{1, 3}},
		{"$ a && || b", Pos{1, 8}},
		{"$(a", Pos{1, 4}},
		{"$ echo {", Pos{1, 9}},
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

package lang

import (
	"errors"
	"slices"
	"testing"
)

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}

	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenKind
	}{
		{
			"let range",
			"let x = 1..=3",
			[]TokenKind{
				TokIdent, TokSpace, TokIdent, TokSpace, TokEq, TokSpace,
				TokNumber, TokDotDotEq, TokNumber, TokEOF,
			},
		},
		{
			"fraction",
			"1.5..2",
			[]TokenKind{TokNumber, TokDotDot, TokNumber, TokEOF},
		},
		{
			"pipes and redirects",
			"a *| b &| c|d>f*>g&>h<i*<j&<k",
			[]TokenKind{
				TokIdent, TokSpace, TokStarPipe, TokSpace, TokIdent, TokSpace,
				TokAmperPipe, TokSpace, TokIdent, TokPipe, TokIdent, TokGreat,
				TokIdent, TokStarGreat, TokIdent, TokAmperGreat, TokIdent,
				TokLess, TokIdent, TokStarLess, TokIdent, TokAmperLess, TokIdent,
				TokEOF,
			},
		},
		{
			"logical and power",
			"a&&b||c**d",
			[]TokenKind{
				TokIdent, TokAmperAmper, TokIdent, TokPipePipe, TokIdent,
				TokStarStar, TokIdent, TokEOF,
			},
		},
		{
			"comparison",
			"a<=b>=c!=d==e",
			[]TokenKind{
				TokIdent, TokLessEq, TokIdent, TokGreatEq, TokIdent, TokBangEq,
				TokIdent, TokEqEq, TokIdent, TokEOF,
			},
		},
		{
			"command capture",
			"$ ls $(pwd)",
			[]TokenKind{
				TokDollar, TokSpace, TokIdent, TokSpace, TokDollarParen,
				TokIdent, TokRParen, TokEOF,
			},
		},
		{
			"comment",
			"echo a#b # comment\nx",
			[]TokenKind{
				TokIdent, TokSpace, TokIdent, TokOther, TokIdent, TokSpace,
				TokNewline, TokIdent, TokEOF,
			},
		},
		{
			"leading comment",
			"# only\n",
			[]TokenKind{TokNewline, TokEOF},
		},
		{
			"escape and continuation",
			"a\\ b \\\nc",
			[]TokenKind{TokIdent, TokEscaped, TokIdent, TokSpace, TokIdent, TokEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := kinds(toks); !slices.Equal(got, tt.want) {
				t.Errorf("got %v\nwant %v", got, tt.want)
			}
		})
	}
}

func TestTokenizeString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		frags   []string
		exprs   []string
		exprPos []Pos
	}{
		{"plain", `"abc"`, []string{"abc"}, nil, nil},
		{"escapes", `"a\tb\{\}\"\n"`, []string{"a\tb{}\"\n"}, nil, nil},
		{"interpolation", `"a{1+1}b"`, []string{"a", "b"}, []string{"1+1"}, []Pos{{1, 4}}},
		{
			"nested braces and quotes",
			`"x{ {a: "}"}["a"] }y"`,
			[]string{"x", "y"},
			[]string{` {a: "}"}["a"] `},
			[]Pos{{1, 4}},
		},
		{"adjacent", `"{a}{b}"`, []string{"", "", ""}, []string{"a", "b"}, []Pos{{1, 3}, {1, 6}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			tok := toks[0]
			if tok.Kind != TokString || tok.Text != tt.input {
				t.Fatalf("unexpected token %v %q", tok.Kind, tok.Text)
			}

			if !slices.Equal(tok.Frags, tt.frags) {
				t.Errorf("frags: got %q, want %q", tok.Frags, tt.frags)
			}

			if !slices.Equal(tok.Exprs, tt.exprs) {
				t.Errorf("exprs: got %q, want %q", tok.Exprs, tt.exprs)
			}

			if !slices.Equal(tok.ExprPos, tt.exprPos) {
				t.Errorf("positions: got %v, want %v", tok.ExprPos, tt.exprPos)
			}
		})
	}
}

func TestTokenizeRawString(t *testing.T) {
	toks, err := Tokenize(`'a{b}\n'`)
	if err != nil {
		t.Fatal(err)
	}

	if toks[0].Kind != TokRawString || toks[0].Frags[0] != `a{b}\n` {
		t.Errorf("unexpected token %+v", toks[0])
	}
}

func TestTokenizePositions(t *testing.T) {
	toks, err := Tokenize("a\n  bé c")
	if err != nil {
		t.Fatal(err)
	}

	want := []Pos{{1, 1}, {1, 2}, {2, 1}, {2, 3}, {2, 5}, {2, 6}, {2, 7}}

	for i, p := range want {
		if toks[i].Pos != p {
			t.Errorf("token %d (%v): got %v, want %v", i, toks[i], toks[i].Pos, p)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	for _, input := range []string{`"abc`, `'abc`, `"a{b"`, `\`} {
		_, err := Tokenize(input)

		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%q: expected *ParseError, got %v", input, err)
		}
	}
}

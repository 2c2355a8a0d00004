package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits src into tokens ending with a single [TokEOF].
func Tokenize(src string) ([]Token, error) {
	return tokenizeAt(src, src, Pos{Line: 1, Col: 1})
}

// tokenizeAt tokenizes src whose first rune is at start. Errors quote
// source, the enclosing program text.
func tokenizeAt(src, source string, start Pos) ([]Token, error) {
	lx := lexer{src: src, source: source, line: start.Line, col: start.Col}

	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}

		lx.toks = append(lx.toks, tok)

		if tok.Kind == TokEOF {
			return lx.toks, nil
		}
	}
}

type lexer struct {
	src    string
	source string
	off    int
	line   int
	col    int
	toks   []Token
}

func (lx *lexer) pos() Pos { return Pos{Line: lx.line, Col: lx.col} }

func (lx *lexer) peek(n int) byte {
	if lx.off+n < len(lx.src) {
		return lx.src[lx.off+n]
	}

	return 0
}

// advance consumes n bytes.
func (lx *lexer) advance(n int) {
	for _, r := range lx.src[lx.off : lx.off+n] {
		if r == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
	}

	lx.off += n
}

func (lx *lexer) errorf(pos Pos, msg string) *ParseError {
	return &ParseError{Pos: pos, Msg: msg, Source: lx.source}
}

// atTokenStart reports whether a '#' here begins a comment: at the start of
// input or of a line, or after whitespace.
func (lx *lexer) atTokenStart() bool {
	if len(lx.toks) == 0 {
		return true
	}

	switch lx.toks[len(lx.toks)-1].Kind {
	case TokSpace, TokNewline:
		return true
	}

	return false
}

func (lx *lexer) next() (Token, error) {
	for lx.off < len(lx.src) && lx.src[lx.off] == '#' && lx.atTokenStart() {
		end := strings.IndexByte(lx.src[lx.off:], '\n')
		if end < 0 {
			end = len(lx.src) - lx.off
		}

		lx.advance(end)
	}

	pos := lx.pos()
	begin := lx.off

	emit := func(kind TokenKind, n int) Token {
		lx.advance(n)

		return Token{Kind: kind, Text: lx.src[begin:lx.off], Pos: pos}
	}

	if lx.off >= len(lx.src) {
		return Token{Kind: TokEOF, Pos: pos}, nil
	}

	c := lx.src[lx.off]

	switch {
	case c == '\n':
		return emit(TokNewline, 1), nil

	case c == ' ' || c == '\t' || c == '\r' || (c == '\\' && lx.peek(1) == '\n'):
		n := 0

		for {
			switch {
			case lx.peek(n) == ' ', lx.peek(n) == '\t', lx.peek(n) == '\r':
				n++

				continue

			case lx.peek(n) == '\\' && lx.peek(n+1) == '\n':
				n += 2

				continue
			}

			break
		}

		return emit(TokSpace, n), nil

	case c == '\\':
		if lx.off+1 >= len(lx.src) {
			return Token{}, lx.errorf(pos, "escape at end of input")
		}

		_, size := utf8.DecodeRuneInString(lx.src[lx.off+1:])

		return emit(TokEscaped, 1+size), nil

	case c == '"':
		return lx.string(pos)

	case c == '\'':
		end := strings.IndexByte(lx.src[lx.off+1:], '\'')
		if end < 0 {
			return Token{}, lx.errorf(pos, "unterminated raw string")
		}

		tok := emit(TokRawString, end+2)
		tok.Frags = []string{tok.Text[1 : len(tok.Text)-1]}

		return tok, nil

	case c >= '0' && c <= '9':
		n := digits(lx.src[lx.off:])
		if lx.peek(n) == '.' && isDigit(lx.peek(n+1)) {
			n += 1 + digits(lx.src[lx.off+n+1:])
		}

		return emit(TokNumber, n), nil
	}

	if r, size := utf8.DecodeRuneInString(lx.src[lx.off:]); isIdentStart(r) {
		n := size

		for lx.off+n < len(lx.src) {
			r, size := utf8.DecodeRuneInString(lx.src[lx.off+n:])
			if !isIdentStart(r) && !unicode.IsDigit(r) {
				break
			}

			n += size
		}

		return emit(TokIdent, n), nil
	}

	for n := 3; n > 0; n-- {
		if lx.off+n > len(lx.src) {
			continue
		}

		if kind, ok := punct[lx.src[lx.off:lx.off+n]]; ok {
			return emit(kind, n), nil
		}
	}

	_, size := utf8.DecodeRuneInString(lx.src[lx.off:])

	return emit(TokOther, size), nil
}

// string scans a double-quoted string, decoding escapes and splitting out
// {expr} interpolations.
func (lx *lexer) string(pos Pos) (Token, error) {
	begin := lx.off

	lx.advance(1)

	var (
		tok  = Token{Kind: TokString, Pos: pos}
		frag strings.Builder
	)

	for {
		if lx.off >= len(lx.src) {
			return Token{}, lx.errorf(pos, "unterminated string")
		}

		c := lx.src[lx.off]

		switch c {
		case '"':
			lx.advance(1)

			tok.Frags = append(tok.Frags, frag.String())
			tok.Text = lx.src[begin:lx.off]

			return tok, nil

		case '\\':
			if lx.off+1 >= len(lx.src) {
				return Token{}, lx.errorf(pos, "unterminated string")
			}

			_, size := utf8.DecodeRuneInString(lx.src[lx.off+1:])
			frag.WriteString(unescape(lx.src[lx.off+1 : lx.off+1+size]))
			lx.advance(1 + size)

		case '{':
			open := lx.pos()

			lx.advance(1)

			exprPos := lx.pos()

			n, ok := matchBrace(lx.src[lx.off:])
			if !ok {
				return Token{}, lx.errorf(open, "unterminated interpolation")
			}

			tok.Frags = append(tok.Frags, frag.String())
			tok.Exprs = append(tok.Exprs, lx.src[lx.off:lx.off+n])
			tok.ExprPos = append(tok.ExprPos, exprPos)
			frag.Reset()
			lx.advance(n + 1)

		default:
			_, size := utf8.DecodeRuneInString(lx.src[lx.off:])
			frag.WriteString(lx.src[lx.off : lx.off+size])
			lx.advance(size)
		}
	}
}

// matchBrace returns the offset of the '}' closing an interpolation whose
// '{' immediately precedes s. Nested braces and quoted strings are skipped.
func matchBrace(s string) (int, bool) {
	depth := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++

		case '}':
			if depth == 0 {
				return i, true
			}

			depth--

		case '"', '\'':
			q := s[i]

			for i++; i < len(s) && s[i] != q; i++ {
				if s[i] == '\\' && q == '"' {
					i++
				}
			}

			if i >= len(s) {
				return 0, false
			}
		}
	}

	return 0, false
}

func unescape(s string) string {
	switch s {
	case "n":
		return "\n"
	case "t":
		return "\t"
	case "r":
		return "\r"
	case "0":
		return "\x00"
	case "\\", "\"", "'", "{", "}", "$":
		return s
	}

	return "\\" + s
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func digits(s string) int {
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n++
	}

	return n
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

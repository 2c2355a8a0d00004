package lang

import "strconv"

// TokenKind classifies a [Token].
type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokSpace
	TokNewline
	TokIdent
	TokNumber
	TokString    // "..." with escapes and {expr} interpolation
	TokRawString // '...'
	TokEscaped   // \x outside a string
	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokLBracket
	TokRBracket
	TokComma
	TokColon
	TokSemicolon
	TokDot
	TokDotDot
	TokDotDotEq
	TokPlus
	TokMinus
	TokStar
	TokStarStar
	TokSlash
	TokPercent
	TokBang
	TokBangEq
	TokEq
	TokEqEq
	TokLess
	TokLessEq
	TokGreat
	TokGreatEq
	TokAmperAmper
	TokPipePipe
	TokPipe
	TokStarPipe
	TokAmperPipe
	TokStarGreat
	TokAmperGreat
	TokStarLess
	TokAmperLess
	TokDollar
	TokDollarParen
	TokOther // any other single rune
)

var tokenKindName = [...]string{
	TokEOF:         "end of input",
	TokSpace:       "space",
	TokNewline:     "newline",
	TokIdent:       "identifier",
	TokNumber:      "number",
	TokString:      "string",
	TokRawString:   "raw string",
	TokEscaped:     "escaped character",
	TokLParen:      "'('",
	TokRParen:      "')'",
	TokLBrace:      "'{'",
	TokRBrace:      "'}'",
	TokLBracket:    "'['",
	TokRBracket:    "']'",
	TokComma:       "','",
	TokColon:       "':'",
	TokSemicolon:   "';'",
	TokDot:         "'.'",
	TokDotDot:      "'..'",
	TokDotDotEq:    "'..='",
	TokPlus:        "'+'",
	TokMinus:       "'-'",
	TokStar:        "'*'",
	TokStarStar:    "'**'",
	TokSlash:       "'/'",
	TokPercent:     "'%'",
	TokBang:        "'!'",
	TokBangEq:      "'!='",
	TokEq:          "'='",
	TokEqEq:        "'=='",
	TokLess:        "'<'",
	TokLessEq:      "'<='",
	TokGreat:       "'>'",
	TokGreatEq:     "'>='",
	TokAmperAmper:  "'&&'",
	TokPipePipe:    "'||'",
	TokPipe:        "'|'",
	TokStarPipe:    "'*|'",
	TokAmperPipe:   "'&|'",
	TokStarGreat:   "'*>'",
	TokAmperGreat:  "'&>'",
	TokStarLess:    "'*<'",
	TokAmperLess:   "'&<'",
	TokDollar:      "'$'",
	TokDollarParen: "'$('",
	TokOther:       "character",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindName) {
		return tokenKindName[k]
	}

	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// punct maps operator lexemes to their kinds. The lexer tries the longest
// lexeme first.
var punct = map[string]TokenKind{
	"(":   TokLParen,
	")":   TokRParen,
	"{":   TokLBrace,
	"}":   TokRBrace,
	"[":   TokLBracket,
	"]":   TokRBracket,
	",":   TokComma,
	":":   TokColon,
	";":   TokSemicolon,
	".":   TokDot,
	"..":  TokDotDot,
	"..=": TokDotDotEq,
	"+":   TokPlus,
	"-":   TokMinus,
	"*":   TokStar,
	"**":  TokStarStar,
	"/":   TokSlash,
	"%":   TokPercent,
	"!":   TokBang,
	"!=":  TokBangEq,
	"=":   TokEq,
	"==":  TokEqEq,
	"<":   TokLess,
	"<=":  TokLessEq,
	">":   TokGreat,
	">=":  TokGreatEq,
	"&&":  TokAmperAmper,
	"||":  TokPipePipe,
	"|":   TokPipe,
	"*|":  TokStarPipe,
	"&|":  TokAmperPipe,
	"*>":  TokStarGreat,
	"&>":  TokAmperGreat,
	"*<":  TokStarLess,
	"&<":  TokAmperLess,
	"$":   TokDollar,
	"$(":  TokDollarParen,
}

// Token is a lexeme with its position.
type Token struct {
	Kind TokenKind
	Text string // exact source text
	Pos  Pos

	// String tokens only: the decoded literal fragments and the source of
	// each {expr} between them, with its starting position. Frags has one
	// more element than Exprs.
	Frags   []string
	Exprs   []string
	ExprPos []Pos
}

func (t Token) String() string {
	switch t.Kind {
	case TokEOF, TokSpace, TokNewline:
		return t.Kind.String()
	}

	return strconv.Quote(t.Text)
}

var keywords = map[string]bool{
	"let":      true,
	"export":   true,
	"fn":       true,
	"if":       true,
	"else":     true,
	"while":    true,
	"for":      true,
	"in":       true,
	"return":   true,
	"break":    true,
	"continue": true,
	"true":     true,
	"false":    true,
	"nil":      true,
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool { return keywords[name] }

// Keywords returns the reserved words.
func Keywords() []string {
	return []string{
		"break", "continue", "else", "export", "false", "fn", "for", "if",
		"in", "let", "nil", "return", "true", "while",
	}
}

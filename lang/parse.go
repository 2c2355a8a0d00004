package lang

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/psh/log"
)

// ParseString parses source into a [Program]. Syntax errors are returned as
// *[ParseError].
func ParseString(ctx context.Context, source string, opts ...ParseOption) (*Program, error) {
	cfg := makeParseConfig(opts...)

	toks, err := Tokenize(source)
	if err != nil {
		return nil, err
	}

	cfg.logger.TraceContext(ctx, "tokenized", slog.Int("tokens", len(toks)))

	p := &parser{toks: toks, source: source}

	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}

	cfg.logger.DebugContext(ctx, "parsed", slog.Int("statements", len(prog.Stmts)))

	return prog, nil
}

// ParseOption configures parsing.
type ParseOption func(parseConfig) parseConfig

type parseConfig struct {
	logger log.Logger
	cache  bool
}

func makeParseConfig(opts ...ParseOption) parseConfig {
	cfg := parseConfig{cache: true}
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	return cfg
}

// WithParseLogger sets the logger receiving tokenizer, parser, and cache
// records.
func WithParseLogger(logger log.Logger) ParseOption {
	return func(c parseConfig) parseConfig {
		c.logger = logger

		return c
	}
}

// WithParseCache enables or disables the parse cache used by [ParseReader]
// and [ParseCached]. It is enabled by default.
func WithParseCache(enabled bool) ParseOption {
	return func(c parseConfig) parseConfig {
		c.cache = enabled

		return c
	}
}

type parser struct {
	toks   []Token
	pos    int
	source string

	// nl > 0 inside parentheses, brackets, and dict literals, where newlines
	// are insignificant.
	nl int

	// cmdDepth > 0 inside $( ), where ')' ends a command.
	cmdDepth int
}

func (p *parser) errorf(pos Pos, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...), Source: p.source}
}

func (p *parser) unexpected(tok Token) *ParseError {
	return p.errorf(tok.Pos, "unexpected %s", tok)
}

// raw returns the current token without skipping whitespace.
func (p *parser) raw() Token { return p.toks[p.pos] }

func (p *parser) skipSpace() {
	for {
		switch p.toks[p.pos].Kind {
		case TokSpace:
		case TokNewline:
			if p.nl == 0 {
				return
			}
		default:
			return
		}

		p.pos++
	}
}

// skipLines skips spaces and newlines regardless of context.
func (p *parser) skipLines() {
	for k := p.toks[p.pos].Kind; k == TokSpace || k == TokNewline; k = p.toks[p.pos].Kind {
		p.pos++
	}
}

func (p *parser) peek() Token {
	p.skipSpace()

	return p.toks[p.pos]
}

func (p *parser) next() Token {
	tok := p.peek()
	if tok.Kind != TokEOF {
		p.pos++
	}

	return tok
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok := p.next()
	if tok.Kind != kind {
		return tok, p.errorf(tok.Pos, "expected %s, found %s", kind, tok)
	}

	return tok, nil
}

func (p *parser) isKeyword(word string) bool {
	tok := p.peek()

	return tok.Kind == TokIdent && tok.Text == word
}

func (p *parser) ident() (Token, error) {
	tok, err := p.expect(TokIdent)
	if err != nil {
		return tok, err
	}

	if IsKeyword(tok.Text) {
		return tok, p.errorf(tok.Pos, "unexpected keyword %q", tok.Text)
	}

	return tok, nil
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{Source: p.source}

	for {
		p.skipTerminators()

		if p.peek().Kind == TokEOF {
			return prog, nil
		}

		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}

		prog.Stmts = append(prog.Stmts, stmt)

		if err := p.endStmt(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) skipTerminators() {
	for {
		switch p.toks[p.pos].Kind {
		case TokSpace, TokNewline, TokSemicolon:
			p.pos++
		default:
			return
		}
	}
}

// endStmt checks that a statement is followed by a terminator. A closing
// brace is left for the enclosing block.
func (p *parser) endStmt() error {
	switch tok := p.peek(); tok.Kind {
	case TokNewline, TokSemicolon:
		p.pos++

		return nil

	case TokEOF, TokRBrace:
		return nil

	default:
		return p.unexpected(tok)
	}
}

func (p *parser) parseStmt() (Stmt, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokLBrace:
		return p.parseBlock()

	case TokDollar:
		p.pos++

		cmd, err := p.parseCmd(0)
		if err != nil {
			return nil, err
		}

		return &CmdStmt{Pos: tok.Pos, Cmd: cmd}, nil

	case TokIdent:
		switch tok.Text {
		case "let":
			p.pos++

			return p.parseLet(tok.Pos, false)

		case "export":
			p.pos++

			if p.isKeyword("let") {
				p.pos++
			}

			return p.parseLet(tok.Pos, true)

		case "fn":
			if p.lookahead(1).Kind == TokIdent {
				return p.parseFuncDecl()
			}

		case "if":
			return p.parseIf()

		case "while":
			p.pos++

			cond, err := p.parseExpr(precAssign)
			if err != nil {
				return nil, err
			}

			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}

			return &While{Pos: tok.Pos, Cond: cond, Body: body}, nil

		case "for":
			return p.parseFor()

		case "return":
			p.pos++

			switch p.peek().Kind {
			case TokNewline, TokSemicolon, TokEOF, TokRBrace:
				return &Return{Pos: tok.Pos}, nil
			}

			x, err := p.parseExpr(precAssign)
			if err != nil {
				return nil, err
			}

			return &Return{Pos: tok.Pos, X: x}, nil

		case "break":
			p.pos++

			return &Break{Pos: tok.Pos}, nil

		case "continue":
			p.pos++

			return &Continue{Pos: tok.Pos}, nil
		}
	}

	x, err := p.parseExpr(precAssign)
	if err != nil {
		return nil, err
	}

	return &ExprStmt{Pos: tok.Pos, X: x}, nil
}

// lookahead returns the n-th non-space token after the current one.
func (p *parser) lookahead(n int) Token {
	save := p.pos
	defer func() { p.pos = save }()

	for range n {
		p.next()
	}

	return p.peek()
}

func (p *parser) parseLet(pos Pos, export bool) (Stmt, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	let := &Let{Pos: pos, Name: name.Text, Export: export}

	if p.peek().Kind != TokEq {
		return let, nil
	}

	p.pos++

	if let.Init, err = p.parseExpr(precAssign); err != nil {
		return nil, err
	}

	return let, nil
}

func (p *parser) parseFuncDecl() (Stmt, error) {
	tok := p.next() // fn

	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	params, body, err := p.parseFuncTail()
	if err != nil {
		return nil, err
	}

	return &FuncDecl{Pos: tok.Pos, Name: name.Text, Params: params, Body: body}, nil
}

// parseFuncTail parses "(params) { body }".
func (p *parser) parseFuncTail() ([]string, *Block, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, nil, err
	}

	p.nl++

	var params []string

	for p.peek().Kind != TokRParen {
		name, err := p.ident()
		if err != nil {
			return nil, nil, err
		}

		params = append(params, name.Text)

		if p.peek().Kind != TokComma {
			break
		}

		p.pos++
	}

	p.nl--

	if _, err := p.expect(TokRParen); err != nil {
		return nil, nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, nil, err
	}

	return params, body, nil
}

func (p *parser) parseBlock() (*Block, error) {
	open, err := p.expect(TokLBrace)
	if err != nil {
		return nil, err
	}

	saved := p.nl
	p.nl = 0

	defer func() { p.nl = saved }()

	block := &Block{Pos: open.Pos}

	for {
		p.skipTerminators()

		switch p.peek().Kind {
		case TokRBrace:
			p.pos++

			return block, nil

		case TokEOF:
			return nil, p.errorf(open.Pos, "unclosed block")
		}

		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}

		block.Stmts = append(block.Stmts, stmt)

		if err := p.endStmt(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseIf() (Stmt, error) {
	tok := p.next() // if

	cond, err := p.parseExpr(precAssign)
	if err != nil {
		return nil, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	stmt := &If{Pos: tok.Pos, Cond: cond, Then: then}

	// else may begin on a following line
	save := p.pos
	p.skipLines()

	if !p.isKeyword("else") {
		p.pos = save

		return stmt, nil
	}

	p.pos++

	if p.isKeyword("if") {
		stmt.Else, err = p.parseIf()
	} else {
		stmt.Else, err = p.parseBlock()
	}

	if err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *parser) parseFor() (Stmt, error) {
	tok := p.next() // for

	key, err := p.ident()
	if err != nil {
		return nil, err
	}

	stmt := &For{Pos: tok.Pos, Key: key.Text}

	if p.peek().Kind == TokComma {
		p.pos++

		val, err := p.ident()
		if err != nil {
			return nil, err
		}

		stmt.Val = val.Text
	}

	if !p.isKeyword("in") {
		tok := p.peek()

		return nil, p.errorf(tok.Pos, "expected 'in', found %s", tok)
	}

	p.pos++

	if stmt.Iter, err = p.parseExpr(precAssign); err != nil {
		return nil, err
	}

	if stmt.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}

	return stmt, nil
}

// Binding precedence of infix operators, lowest first.
const (
	precNone = iota
	precAssign
	precOr
	precAnd
	precEqual
	precCompare
	precRange
	precSum
	precProduct
	precPower
	precUnary
)

func infixPrec(kind TokenKind) int {
	switch kind {
	case TokEq:
		return precAssign
	case TokPipePipe:
		return precOr
	case TokAmperAmper:
		return precAnd
	case TokEqEq, TokBangEq:
		return precEqual
	case TokLess, TokGreat, TokLessEq, TokGreatEq:
		return precCompare
	case TokDotDot, TokDotDotEq:
		return precRange
	case TokPlus, TokMinus:
		return precSum
	case TokStar, TokSlash, TokPercent:
		return precProduct
	case TokStarStar:
		return precPower
	}

	return precNone
}

var infixOps = map[TokenKind]BinaryOp{
	TokPipePipe:   OpOr,
	TokAmperAmper: OpAnd,
	TokEqEq:       OpEqual,
	TokLess:       OpLess,
	TokGreat:      OpGreat,
	TokLessEq:     OpLessEq,
	TokGreatEq:    OpGreatEq,
	TokPlus:       OpSum,
	TokMinus:      OpSub,
	TokStar:       OpMul,
	TokSlash:      OpDiv,
	TokPercent:    OpMod,
	TokStarStar:   OpPow,
}

// parseExpr parses an expression whose operators bind at least as tightly
// as minPrec.
func (p *parser) parseExpr(minPrec int) (Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()

		prec := infixPrec(tok.Kind)
		if prec == precNone || prec < minPrec {
			return lhs, nil
		}

		p.pos++
		p.skipLines()

		// assignment and power are right-associative
		next := prec + 1
		if prec == precAssign || prec == precPower {
			next = prec
		}

		rhs, err := p.parseExpr(next)
		if err != nil {
			return nil, err
		}

		if lhs, err = p.combine(tok, lhs, rhs); err != nil {
			return nil, err
		}
	}
}

func (p *parser) combine(tok Token, lhs, rhs Expr) (Expr, error) {
	pos := lhs.Position()

	switch tok.Kind {
	case TokEq:
		switch target := lhs.(type) {
		case *Get:
			return &Set{Pos: pos, Name: target.Name, X: rhs}, nil
		case *GetField:
			return &SetField{Pos: pos, Base: target.Base, Index: target.Index, X: rhs}, nil
		case *Field:
			index := &Literal{Pos: target.Pos, Value: String(target.Name)}

			return &SetField{Pos: pos, Base: target.Base, Index: index, X: rhs}, nil
		}

		return nil, p.errorf(tok.Pos, "cannot assign to %s", ExprString(lhs))

	case TokDotDot, TokDotDotEq:
		return &RangeExpr{Pos: pos, L: lhs, R: rhs, Inclusive: tok.Kind == TokDotDotEq}, nil

	case TokBangEq:
		return &Unary{Pos: pos, Op: OpNot, X: &Binary{Pos: pos, Op: OpEqual, L: lhs, R: rhs}}, nil
	}

	return &Binary{Pos: pos, Op: infixOps[tok.Kind], L: lhs, R: rhs}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	tok := p.peek()

	var op UnaryOp

	switch tok.Kind {
	case TokMinus:
		op = OpNeg
	case TokBang:
		op = OpNot
	default:
		x, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		return p.parsePostfix(x)
	}

	p.pos++

	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return &Unary{Pos: tok.Pos, Op: op, X: x}, nil
}

// parsePostfix parses calls, indexing, and field selection. Each must
// immediately follow its operand without whitespace.
func (p *parser) parsePostfix(x Expr) (Expr, error) {
	for {
		tok := p.raw()

		switch tok.Kind {
		case TokLParen:
			p.pos++

			args, err := p.parseList(TokRParen)
			if err != nil {
				return nil, err
			}

			x = &Call{Pos: tok.Pos, Func: x, Args: args}

		case TokLBracket:
			p.pos++
			p.nl++

			index, err := p.parseExpr(precAssign)
			if err != nil {
				return nil, err
			}

			p.nl--

			if _, err := p.expect(TokRBracket); err != nil {
				return nil, err
			}

			x = &GetField{Pos: tok.Pos, Base: x, Index: index}

		case TokDot:
			p.pos++

			name := p.raw()
			if name.Kind != TokIdent {
				return nil, p.errorf(name.Pos, "expected field name, found %s", name)
			}

			p.pos++

			x = &Field{Pos: tok.Pos, Base: x, Name: name.Text}

		default:
			return x, nil
		}
	}
}

// parseList parses comma-separated expressions up to and including end.
// A trailing comma is allowed.
func (p *parser) parseList(end TokenKind) ([]Expr, error) {
	p.nl++
	defer func() { p.nl-- }()

	var list []Expr

	for p.peek().Kind != end {
		x, err := p.parseExpr(precAssign)
		if err != nil {
			return nil, err
		}

		list = append(list, x)

		if p.peek().Kind != TokComma {
			break
		}

		p.pos++
	}

	if _, err := p.expect(end); err != nil {
		return nil, err
	}

	return list, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()

	switch tok.Kind {
	case TokNumber:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid number %q", tok.Text)
		}

		return &Literal{Pos: tok.Pos, Value: Num(f)}, nil

	case TokString, TokRawString:
		return p.parseString(tok)

	case TokIdent:
		switch tok.Text {
		case "true", "false":
			return &Literal{Pos: tok.Pos, Value: Bool(tok.Text == "true")}, nil

		case "nil":
			return &Literal{Pos: tok.Pos, Value: Nil{}}, nil

		case "fn":
			params, body, err := p.parseFuncTail()
			if err != nil {
				return nil, err
			}

			return &Lambda{Pos: tok.Pos, Params: params, Body: body}, nil
		}

		if IsKeyword(tok.Text) {
			return nil, p.errorf(tok.Pos, "unexpected keyword %q", tok.Text)
		}

		return &Get{Pos: tok.Pos, Name: tok.Text}, nil

	case TokLParen:
		p.nl++

		x, err := p.parseExpr(precAssign)
		if err != nil {
			return nil, err
		}

		p.nl--

		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}

		return x, nil

	case TokLBracket:
		elems, err := p.parseList(TokRBracket)
		if err != nil {
			return nil, err
		}

		return &VecLit{Pos: tok.Pos, Elems: elems}, nil

	case TokLBrace:
		return p.parseDict(tok)

	case TokDollarParen:
		return p.parseCmdExpr(tok)
	}

	return nil, p.unexpected(tok)
}

func (p *parser) parseDict(open Token) (Expr, error) {
	p.nl++
	defer func() { p.nl-- }()

	dict := &DictLit{Pos: open.Pos}

	for p.peek().Kind != TokRBrace {
		key := p.next()

		switch {
		case key.Kind == TokIdent:
			dict.Keys = append(dict.Keys, key.Text)
		case key.Kind == TokRawString, key.Kind == TokString && len(key.Exprs) == 0:
			dict.Keys = append(dict.Keys, strings.Join(key.Frags, ""))
		default:
			return nil, p.errorf(key.Pos, "expected dict key, found %s", key)
		}

		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}

		x, err := p.parseExpr(precAssign)
		if err != nil {
			return nil, err
		}

		dict.Values = append(dict.Values, x)

		if p.peek().Kind != TokComma {
			break
		}

		p.pos++
	}

	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}

	return dict, nil
}

// parseString converts a string token to a literal, or to an [Interp] if it
// has interpolations.
func (p *parser) parseString(tok Token) (Expr, error) {
	if len(tok.Exprs) == 0 {
		return &Literal{Pos: tok.Pos, Value: String(strings.Join(tok.Frags, ""))}, nil
	}

	interp := &Interp{Pos: tok.Pos, Strings: tok.Frags}

	for i, src := range tok.Exprs {
		x, err := p.parseEmbedded(src, tok.ExprPos[i])
		if err != nil {
			return nil, err
		}

		interp.Exprs = append(interp.Exprs, x)
	}

	return interp, nil
}

// parseEmbedded parses the source of a {expr} interpolation as a single
// expression.
func (p *parser) parseEmbedded(src string, pos Pos) (Expr, error) {
	toks, err := tokenizeAt(src, p.source, pos)
	if err != nil {
		return nil, err
	}

	sub := &parser{toks: toks, source: p.source, nl: 1}

	if sub.peek().Kind == TokEOF {
		return nil, p.errorf(pos, "empty interpolation")
	}

	x, err := sub.parseExpr(precAssign)
	if err != nil {
		return nil, err
	}

	if tok := sub.peek(); tok.Kind != TokEOF {
		return nil, sub.unexpected(tok)
	}

	return x, nil
}

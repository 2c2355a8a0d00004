package lang

import (
	"github.com/ardnew/psh/proc"
)

// cmdOperators maps tokens to command operators.
var cmdOperators = map[TokenKind]proc.Operator{
	TokAmperAmper: proc.And,
	TokPipePipe:   proc.Or,
	TokPipe:       proc.OutPipe,
	TokStarPipe:   proc.ErrPipe,
	TokAmperPipe:  proc.AllPipe,
	TokGreat:      proc.OutWrite,
	TokStarGreat:  proc.ErrWrite,
	TokAmperGreat: proc.AllWrite,
	TokLess:       proc.OutRead,
	TokStarLess:   proc.ErrRead,
	TokAmperLess:  proc.AllRead,
}

// bindingPower returns the left and right binding power of op. Higher binds
// tighter; a right power above the left makes the operator left-associative.
func bindingPower(op proc.Operator) (left, right int) {
	switch {
	case op.IsWrite(), op.IsRead():
		return 7, 8
	case op.IsPipe():
		return 5, 6
	case op == proc.And:
		return 3, 4
	}

	return 1, 2
}

// parseCmd parses a command tree whose operators have a left binding power
// of at least minBP.
func (p *parser) parseCmd(minBP int) (Cmd, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	var lhs Cmd = atom

	for {
		p.skipBlanks()

		tok := p.raw()

		op, ok := cmdOperators[tok.Kind]
		if !ok {
			return lhs, nil
		}

		left, right := bindingPower(op)
		if left < minBP {
			return lhs, nil
		}

		p.pos++
		p.skipLines()

		rhs, err := p.parseCmd(right)
		if err != nil {
			return nil, err
		}

		lhs = &CmdOp{Pos: tok.Pos, Lhs: lhs, Op: op, Rhs: rhs}
	}
}

// skipBlanks skips spaces but never newlines.
func (p *parser) skipBlanks() {
	for p.toks[p.pos].Kind == TokSpace {
		p.pos++
	}
}

// endsCmd reports whether tok terminates a command.
func (p *parser) endsCmd(tok Token) bool {
	switch tok.Kind {
	case TokEOF, TokNewline, TokSemicolon, TokRBrace:
		return true
	case TokRParen:
		return p.cmdDepth > 0
	}

	_, ok := cmdOperators[tok.Kind]

	return ok
}

// parseAtom parses whitespace-separated words up to an operator or
// terminator.
func (p *parser) parseAtom() (*CmdAtom, error) {
	p.skipBlanks()

	atom := &CmdAtom{Pos: p.raw().Pos}

	for {
		p.skipBlanks()

		if p.endsCmd(p.raw()) {
			break
		}

		word, err := p.parseWord()
		if err != nil {
			return nil, err
		}

		atom.Words = append(atom.Words, word)
	}

	if len(atom.Words) == 0 {
		tok := p.raw()

		return nil, p.errorf(tok.Pos, "expected command, found %s", tok)
	}

	return atom, nil
}

// parseWord concatenates adjacent tokens into one word.
func (p *parser) parseWord() (Word, error) {
	var (
		word Word
		text []byte
		at   Pos
	)

	flush := func() {
		if text != nil {
			word = append(word, &Literal{Pos: at, Value: String(text)})
			text = nil
		}
	}

	lit := func(tok Token, s string) {
		if text == nil {
			at = tok.Pos
			text = []byte{}
		}

		text = append(text, s...)
	}

	for {
		tok := p.raw()
		if tok.Kind == TokSpace || p.endsCmd(tok) {
			break
		}

		p.pos++

		switch tok.Kind {
		case TokString:
			for i, frag := range tok.Frags {
				lit(tok, frag)

				if i < len(tok.Exprs) {
					x, err := p.parseEmbedded(tok.Exprs[i], tok.ExprPos[i])
					if err != nil {
						return nil, err
					}

					flush()

					word = append(word, x)
				}
			}

		case TokRawString:
			lit(tok, tok.Frags[0])

		case TokEscaped:
			lit(tok, tok.Text[1:])

		case TokLBrace:
			saved := p.nl
			p.nl = 1

			x, err := p.parseExpr(precAssign)
			if err != nil {
				return nil, err
			}

			p.nl = saved

			if _, err := p.expect(TokRBrace); err != nil {
				return nil, err
			}

			flush()

			word = append(word, x)

		case TokDollarParen:
			x, err := p.parseCmdExpr(tok)
			if err != nil {
				return nil, err
			}

			flush()

			word = append(word, x)

		default:
			lit(tok, tok.Text)
		}
	}

	flush()

	return word, nil
}

// parseCmdExpr parses the body of $( ) after the opening token.
func (p *parser) parseCmdExpr(open Token) (*CmdExpr, error) {
	p.cmdDepth++

	cmd, err := p.parseCmd(0)
	if err != nil {
		return nil, err
	}

	p.cmdDepth--

	p.skipBlanks()

	if tok := p.raw(); tok.Kind != TokRParen {
		return nil, p.errorf(tok.Pos, "expected ')', found %s", tok)
	}

	p.pos++

	return &CmdExpr{Pos: open.Pos, Cmd: cmd}, nil
}

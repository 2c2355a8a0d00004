package lang

import (
	"strconv"
	"strings"

	"github.com/ardnew/psh/proc"
)

// Pos is a 1-based line and column in source text. Columns count runes.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}

// Position returns p. Embedding Pos in a node implements [Node].
func (p Pos) Position() Pos { return p }

// Node is any element of a parsed program.
type Node interface {
	Position() Pos
}

// Expr is a node that evaluates to a [Value].
type Expr interface {
	Node
	expr()
}

// Stmt is a node executed for its effect.
type Stmt interface {
	Node
	stmt()
}

// Program is a parsed source file.
type Program struct {
	Stmts  []Stmt
	Source string
}

// BinaryOp is an infix operator.
type BinaryOp uint8

const (
	OpSum BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpGreat
	OpLess
	OpEqual
	OpAnd
	OpOr
	OpLessEq
	OpGreatEq
)

var binaryOpText = [...]string{
	OpSum:   "+",
	OpSub:   "-",
	OpMul:   "*",
	OpDiv:   "/",
	OpMod:   "%",
	OpPow:   "**",
	OpGreat: ">",
	OpLess:  "<",
	OpEqual: "==",
	OpAnd:   "&&",
	OpOr:    "||",

	OpLessEq:  "<=",
	OpGreatEq: ">=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}

	return "BinaryOp(" + strconv.Itoa(int(op)) + ")"
}

// UnaryOp is a prefix operator.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
)

func (op UnaryOp) String() string {
	if op == OpNeg {
		return "-"
	}

	return "!"
}

type (
	// Literal is a constant value.
	Literal struct {
		Pos
		Value Value
	}

	// Unary applies a prefix operator.
	Unary struct {
		Pos
		Op UnaryOp
		X  Expr
	}

	// Binary applies an infix operator.
	Binary struct {
		Pos
		Op   BinaryOp
		L, R Expr
	}

	// Interp is an interpolated string. Strings has one more element than
	// Exprs, and the result is Strings[0] + Exprs[0] + Strings[1] + ...
	Interp struct {
		Pos
		Strings []string
		Exprs   []Expr
	}

	// Get reads a variable.
	Get struct {
		Pos
		Name string
	}

	// Set assigns to an existing variable.
	Set struct {
		Pos
		Name string
		X    Expr
	}

	// GetField indexes a vec or dict: Base[Index].
	GetField struct {
		Pos
		Base, Index Expr
	}

	// SetField assigns to an element: Base[Index] = X.
	SetField struct {
		Pos
		Base, Index, X Expr
	}

	// Field selects a dict entry or method: Base.Name.
	Field struct {
		Pos
		Base Expr
		Name string
	}

	VecLit struct {
		Pos
		Elems []Expr
	}

	DictLit struct {
		Pos
		Keys   []string
		Values []Expr
	}

	RangeExpr struct {
		Pos
		L, R      Expr
		Inclusive bool
	}

	Call struct {
		Pos
		Func Expr
		Args []Expr
	}

	// Lambda is an anonymous function expression.
	Lambda struct {
		Pos
		Params []string
		Body   *Block
	}

	// CmdExpr runs a command and yields its captured output.
	CmdExpr struct {
		Pos
		Cmd Cmd
	}
)

func (*Literal) expr()   {}
func (*Unary) expr()     {}
func (*Binary) expr()    {}
func (*Interp) expr()    {}
func (*Get) expr()       {}
func (*Set) expr()       {}
func (*GetField) expr()  {}
func (*SetField) expr()  {}
func (*Field) expr()     {}
func (*VecLit) expr()    {}
func (*DictLit) expr()   {}
func (*RangeExpr) expr() {}
func (*Call) expr()      {}
func (*Lambda) expr()    {}
func (*CmdExpr) expr()   {}

type (
	ExprStmt struct {
		Pos
		X Expr
	}

	// Let defines a new variable in the innermost scope.
	Let struct {
		Pos
		Name   string
		Init   Expr // nil defines nil
		Export bool
	}

	FuncDecl struct {
		Pos
		Name   string
		Params []string
		Body   *Block
	}

	Block struct {
		Pos
		Stmts []Stmt
	}

	If struct {
		Pos
		Cond Expr
		Then *Block
		Else Stmt // nil, *Block, or *If
	}

	While struct {
		Pos
		Cond Expr
		Body *Block
	}

	// For iterates Iter binding Key, and Val if it is not empty.
	For struct {
		Pos
		Key, Val string
		Iter     Expr
		Body     *Block
	}

	Break struct {
		Pos
	}

	Continue struct {
		Pos
	}

	Return struct {
		Pos
		X Expr // nil returns nil
	}

	// CmdStmt runs a command connected to the interpreter's output.
	CmdStmt struct {
		Pos
		Cmd Cmd
	}
)

func (*ExprStmt) stmt() {}
func (*Let) stmt()      {}
func (*FuncDecl) stmt() {}
func (*Block) stmt()    {}
func (*If) stmt()       {}
func (*While) stmt()    {}
func (*For) stmt()      {}
func (*Break) stmt()    {}
func (*Continue) stmt() {}
func (*Return) stmt()   {}
func (*CmdStmt) stmt()  {}

// Cmd is a command tree: a [CmdAtom] or a [CmdOp].
type Cmd interface {
	Node
	String() string
	cmd()
}

// Word is one shell word. Its fragments are evaluated and concatenated
// without separator.
type Word []Expr

// CmdAtom is a single command invocation.
type CmdAtom struct {
	Pos
	Words []Word
}

// CmdOp composes two commands with a logical, pipe, or redirect operator.
type CmdOp struct {
	Pos
	Lhs Cmd
	Op  proc.Operator
	Rhs Cmd
}

func (*CmdAtom) cmd() {}
func (*CmdOp) cmd()   {}

func (a *CmdAtom) String() string {
	words := make([]string, len(a.Words))

	for i, w := range a.Words {
		var sb strings.Builder

		for _, frag := range w {
			if lit, ok := frag.(*Literal); ok {
				if s, ok := lit.Value.(String); ok {
					sb.WriteString(string(s))

					continue
				}
			}

			if c, ok := frag.(*CmdExpr); ok {
				sb.WriteString("$(" + c.Cmd.String() + ")")

				continue
			}

			sb.WriteString("{" + ExprString(frag) + "}")
		}

		words[i] = sb.String()
	}

	return strings.Join(words, " ")
}

// String renders the tree fully parenthesized.
func (o *CmdOp) String() string {
	return "(" + o.Lhs.String() + " " + o.Op.String() + " " + o.Rhs.String() + ")"
}

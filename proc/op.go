package proc

import (
	"strconv"
	"strings"
)

// Stream selects which output streams of a process an operator applies to.
type Stream uint8

const (
	StreamOut Stream = 1 << iota
	StreamErr

	StreamAll = StreamOut | StreamErr
)

// Operator joins two commands.
type Operator uint8

const (
	And Operator = iota + 1
	Or
	OutPipe
	ErrPipe
	AllPipe
	OutWrite
	ErrWrite
	AllWrite
	OutRead
	ErrRead
	AllRead
)

//nolint:gochecknoglobals
var operatorLexeme = [...]string{
	And:      "&&",
	Or:       "||",
	OutPipe:  "|",
	ErrPipe:  "*|",
	AllPipe:  "&|",
	OutWrite: ">",
	ErrWrite: "*>",
	AllWrite: "&>",
	OutRead:  "<",
	ErrRead:  "*<",
	AllRead:  "&<",
}

// ParseOperator returns the operator spelled by lexeme.
func ParseOperator(lexeme string) (Operator, bool) {
	for op, s := range operatorLexeme {
		if s != "" && s == lexeme {
			return Operator(op), true
		}
	}

	return 0, false
}

// String returns the operator's source spelling.
func (o Operator) String() string {
	if int(o) < len(operatorLexeme) && operatorLexeme[o] != "" {
		return operatorLexeme[o]
	}

	return "Operator(" + strconv.Itoa(int(o)) + ")"
}

// IsLogical reports whether o is && or ||.
func (o Operator) IsLogical() bool { return o == And || o == Or }

// IsPipe reports whether o is one of the pipe operators.
func (o Operator) IsPipe() bool { return o >= OutPipe && o <= AllPipe }

// IsWrite reports whether o is one of the write redirections.
func (o Operator) IsWrite() bool { return o >= OutWrite && o <= AllWrite }

// IsRead reports whether o is one of the read redirections.
func (o Operator) IsRead() bool { return o >= OutRead && o <= AllRead }

// Stream returns the streams a pipe or redirection operator applies to.
// Logical operators return 0.
func (o Operator) Stream() Stream {
	switch o {
	case OutPipe, OutWrite, OutRead:
		return StreamOut
	case ErrPipe, ErrWrite, ErrRead:
		return StreamErr
	case AllPipe, AllWrite, AllRead:
		return StreamAll
	}

	return 0
}

// Cmd is a command tree: an [*Atom] or an [*Op].
type Cmd interface {
	String() string
	cmd()
}

// Atom is a single command and its arguments.
type Atom struct {
	Args []string
}

// Op joins two commands with an operator.
type Op struct {
	Lhs Cmd
	Op  Operator
	Rhs Cmd
}

func (*Atom) cmd() {}
func (*Op) cmd()   {}

// String returns the arguments joined by spaces, quoting those that contain
// whitespace or are empty.
func (a *Atom) String() string {
	parts := make([]string, len(a.Args))

	for i, arg := range a.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'") {
			arg = strconv.Quote(arg)
		}

		parts[i] = arg
	}

	return strings.Join(parts, " ")
}

// String returns the fully parenthesized form of the tree.
func (o *Op) String() string {
	return "(" + o.Lhs.String() + " " + o.Op.String() + " " + o.Rhs.String() + ")"
}

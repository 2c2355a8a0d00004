package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"
)

// Format writes prog in psh syntax, one statement per line. Nested blocks
// are indented by indent spaces per level, or a tab if indent is 0.
func (prog *Program) Format(_ context.Context, w io.Writer, indent int) error {
	f := formatter{unit: "\t"}
	if indent > 0 {
		f.unit = strings.Repeat(" ", indent)
	}

	for _, stmt := range prog.Stmts {
		f.stmt(stmt, 0)
		f.sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, f.sb.String())

	return err
}

// FormatJSON writes the AST as JSON to the writer.
func (prog *Program) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(prog.ToMap(), "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(prog.ToMap())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the AST as YAML to the writer.
func (prog *Program) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, prog.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// ExprString renders x in psh syntax with every binary operation
// parenthesized.
func ExprString(x Expr) string {
	var f formatter

	f.expr(x)

	return f.sb.String()
}

type formatter struct {
	sb   strings.Builder
	unit string
}

func (f *formatter) indent(depth int) {
	for range depth {
		f.sb.WriteString(f.unit)
	}
}

func (f *formatter) block(b *Block, depth int) {
	if len(b.Stmts) == 0 {
		f.sb.WriteString("{}")

		return
	}

	if f.unit == "" {
		// inline, as inside ExprString
		f.sb.WriteString("{ ")

		for i, stmt := range b.Stmts {
			if i > 0 {
				f.sb.WriteString("; ")
			}

			f.stmt(stmt, 0)
		}

		f.sb.WriteString(" }")

		return
	}

	f.sb.WriteString("{\n")

	for _, stmt := range b.Stmts {
		f.indent(depth + 1)
		f.stmt(stmt, depth+1)
		f.sb.WriteByte('\n')
	}

	f.indent(depth)
	f.sb.WriteByte('}')
}

func (f *formatter) params(params []string) {
	f.sb.WriteString("(" + strings.Join(params, ", ") + ") ")
}

func (f *formatter) stmt(stmt Stmt, depth int) {
	switch s := stmt.(type) {
	case *ExprStmt:
		sub := formatter{unit: f.unit}
		sub.expr(s.X)

		// a leading brace would parse as a block
		out := sub.sb.String()
		if strings.HasPrefix(out, "{") {
			out = "(" + out + ")"
		}

		f.sb.WriteString(out)

	case *Let:
		if s.Export {
			f.sb.WriteString("export ")
		} else {
			f.sb.WriteString("let ")
		}

		f.sb.WriteString(s.Name)

		if s.Init != nil {
			f.sb.WriteString(" = ")
			f.expr(s.Init)
		}

	case *FuncDecl:
		f.sb.WriteString("fn " + s.Name)
		f.params(s.Params)
		f.block(s.Body, depth)

	case *Block:
		f.block(s, depth)

	case *If:
		f.sb.WriteString("if ")
		f.expr(s.Cond)
		f.sb.WriteByte(' ')
		f.block(s.Then, depth)

		if s.Else != nil {
			f.sb.WriteString(" else ")
			f.stmt(s.Else, depth)
		}

	case *While:
		f.sb.WriteString("while ")
		f.expr(s.Cond)
		f.sb.WriteByte(' ')
		f.block(s.Body, depth)

	case *For:
		f.sb.WriteString("for " + s.Key)

		if s.Val != "" {
			f.sb.WriteString(", " + s.Val)
		}

		f.sb.WriteString(" in ")
		f.expr(s.Iter)
		f.sb.WriteByte(' ')
		f.block(s.Body, depth)

	case *Break:
		f.sb.WriteString("break")

	case *Continue:
		f.sb.WriteString("continue")

	case *Return:
		f.sb.WriteString("return")

		if s.X != nil {
			f.sb.WriteByte(' ')
			f.expr(s.X)
		}

	case *CmdStmt:
		f.sb.WriteString("$ " + cmdSource(s.Cmd))
	}
}

func (f *formatter) exprs(xs []Expr) {
	for i, x := range xs {
		if i > 0 {
			f.sb.WriteString(", ")
		}

		f.expr(x)
	}
}

func (f *formatter) expr(x Expr) {
	switch e := x.(type) {
	case *Literal:
		if s, ok := e.Value.(String); ok {
			f.sb.WriteString(quoteString(string(s)))
		} else {
			f.sb.WriteString(e.Value.String())
		}

	case *Unary:
		f.sb.WriteString(e.Op.String())
		f.expr(e.X)

	case *Binary:
		f.sb.WriteByte('(')
		f.expr(e.L)
		f.sb.WriteString(" " + e.Op.String() + " ")
		f.expr(e.R)
		f.sb.WriteByte(')')

	case *Interp:
		f.sb.WriteByte('"')

		for i, s := range e.Strings {
			f.sb.WriteString(escapeString(s))

			if i < len(e.Exprs) {
				f.sb.WriteByte('{')
				f.expr(e.Exprs[i])
				f.sb.WriteByte('}')
			}
		}

		f.sb.WriteByte('"')

	case *Get:
		f.sb.WriteString(e.Name)

	case *Set:
		f.sb.WriteString(e.Name + " = ")
		f.expr(e.X)

	case *GetField:
		f.expr(e.Base)
		f.sb.WriteByte('[')
		f.expr(e.Index)
		f.sb.WriteByte(']')

	case *SetField:
		f.expr(e.Base)
		f.sb.WriteByte('[')
		f.expr(e.Index)
		f.sb.WriteString("] = ")
		f.expr(e.X)

	case *Field:
		f.expr(e.Base)
		f.sb.WriteString("." + e.Name)

	case *VecLit:
		f.sb.WriteByte('[')
		f.exprs(e.Elems)
		f.sb.WriteByte(']')

	case *DictLit:
		f.sb.WriteByte('{')

		for i, k := range e.Keys {
			if i > 0 {
				f.sb.WriteString(", ")
			}

			f.sb.WriteString(k + ": ")
			f.expr(e.Values[i])
		}

		f.sb.WriteByte('}')

	case *RangeExpr:
		op := ".."
		if e.Inclusive {
			op = "..="
		}

		f.sb.WriteByte('(')
		f.expr(e.L)
		f.sb.WriteString(op)
		f.expr(e.R)
		f.sb.WriteByte(')')

	case *Call:
		f.expr(e.Func)
		f.sb.WriteByte('(')
		f.exprs(e.Args)
		f.sb.WriteByte(')')

	case *Lambda:
		f.sb.WriteString("fn")
		f.params(e.Params)
		f.block(e.Body, 0)

	case *CmdExpr:
		f.sb.WriteString("$(" + cmdSource(e.Cmd) + ")")
	}
}

// cmdSource renders c in psh command syntax. Operators are written without
// grouping since the parser's binding powers rebuild the same tree.
func cmdSource(c Cmd) string {
	switch c := c.(type) {
	case *CmdAtom:
		words := make([]string, len(c.Words))
		for i, w := range c.Words {
			words[i] = wordSource(w)
		}

		return strings.Join(words, " ")

	case *CmdOp:
		return cmdSource(c.Lhs) + " " + c.Op.String() + " " + cmdSource(c.Rhs)
	}

	return ""
}

func wordSource(w Word) string {
	var sb strings.Builder

	for _, frag := range w {
		switch x := frag.(type) {
		case *Literal:
			if s, ok := x.Value.(String); ok {
				sb.WriteString(literalWord(string(s)))

				continue
			}

		case *CmdExpr:
			sb.WriteString("$(" + cmdSource(x.Cmd) + ")")

			continue
		}

		sb.WriteString("{" + ExprString(frag) + "}")
	}

	return sb.String()
}

// literalWord quotes s unless every rune lexes back into the same text.
func literalWord(s string) string {
	if s != "" && !strings.ContainsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			!strings.ContainsRune("-_./=:,+@%^~!?", r)
	}) {
		return s
	}

	return quoteString(s)
}

func escapeString(s string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"{", `\{`,
		"}", `\}`,
		"\n", `\n`,
		"\t", `\t`,
		"\r", `\r`,
	).Replace(s)
}

func quoteString(s string) string { return `"` + escapeString(s) + `"` }

// ToMap converts the program to nested maps for JSON and YAML output.
func (prog *Program) ToMap() map[string]any {
	stmts := make([]any, len(prog.Stmts))
	for i, s := range prog.Stmts {
		stmts[i] = nodeMap(s)
	}

	return map[string]any{"statements": stmts}
}

func nodeList[T Node](nodes []T) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = nodeMap(n)
	}

	return out
}

func nodeMap(n Node) any {
	switch n := n.(type) {
	case nil:
		return nil
	case *Block:
		if n == nil {
			return nil
		}
	}

	m := map[string]any{"pos": n.Position().String()}

	switch n := n.(type) {
	case *Literal:
		m["type"] = "literal"
		m["value"] = ToNative(n.Value, nil)

	case *Unary:
		m["type"] = "unary"
		m["op"] = n.Op.String()
		m["operand"] = nodeMap(n.X)

	case *Binary:
		m["type"] = "binary"
		m["op"] = n.Op.String()
		m["left"] = nodeMap(n.L)
		m["right"] = nodeMap(n.R)

	case *Interp:
		m["type"] = "interp"

		strs := make([]any, len(n.Strings))
		for i, s := range n.Strings {
			strs[i] = s
		}

		m["strings"] = strs
		m["exprs"] = nodeList(n.Exprs)

	case *Get:
		m["type"] = "get"
		m["name"] = n.Name

	case *Set:
		m["type"] = "set"
		m["name"] = n.Name
		m["value"] = nodeMap(n.X)

	case *GetField:
		m["type"] = "index"
		m["base"] = nodeMap(n.Base)
		m["index"] = nodeMap(n.Index)

	case *SetField:
		m["type"] = "set_index"
		m["base"] = nodeMap(n.Base)
		m["index"] = nodeMap(n.Index)
		m["value"] = nodeMap(n.X)

	case *Field:
		m["type"] = "field"
		m["base"] = nodeMap(n.Base)
		m["name"] = n.Name

	case *VecLit:
		m["type"] = "vec"
		m["elements"] = nodeList(n.Elems)

	case *DictLit:
		m["type"] = "dict"

		entries := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			entries[k] = nodeMap(n.Values[i])
		}

		m["entries"] = entries

	case *RangeExpr:
		m["type"] = "range"
		m["left"] = nodeMap(n.L)
		m["right"] = nodeMap(n.R)
		m["inclusive"] = n.Inclusive

	case *Call:
		m["type"] = "call"
		m["func"] = nodeMap(n.Func)
		m["args"] = nodeList(n.Args)

	case *Lambda:
		m["type"] = "lambda"
		m["params"] = stringList(n.Params)
		m["body"] = nodeMap(n.Body)

	case *CmdExpr:
		m["type"] = "capture"
		m["command"] = nodeMap(n.Cmd)

	case *ExprStmt:
		m["type"] = "expr"
		m["expr"] = nodeMap(n.X)

	case *Let:
		m["type"] = "let"
		m["name"] = n.Name
		m["export"] = n.Export

		if n.Init != nil {
			m["value"] = nodeMap(n.Init)
		}

	case *FuncDecl:
		m["type"] = "fn"
		m["name"] = n.Name
		m["params"] = stringList(n.Params)
		m["body"] = nodeMap(n.Body)

	case *Block:
		m["type"] = "block"
		m["statements"] = nodeList(n.Stmts)

	case *If:
		m["type"] = "if"
		m["cond"] = nodeMap(n.Cond)
		m["then"] = nodeMap(n.Then)

		if n.Else != nil {
			m["else"] = nodeMap(n.Else)
		}

	case *While:
		m["type"] = "while"
		m["cond"] = nodeMap(n.Cond)
		m["body"] = nodeMap(n.Body)

	case *For:
		m["type"] = "for"
		m["key"] = n.Key

		if n.Val != "" {
			m["value"] = n.Val
		}

		m["iter"] = nodeMap(n.Iter)
		m["body"] = nodeMap(n.Body)

	case *Break:
		m["type"] = "break"

	case *Continue:
		m["type"] = "continue"

	case *Return:
		m["type"] = "return"

		if n.X != nil {
			m["value"] = nodeMap(n.X)
		}

	case *CmdStmt:
		m["type"] = "command"
		m["command"] = nodeMap(n.Cmd)

	case *CmdAtom:
		m["type"] = "atom"

		words := make([]any, len(n.Words))
		for i, w := range n.Words {
			words[i] = nodeList([]Expr(w))
		}

		m["words"] = words

	case *CmdOp:
		m["type"] = "op"
		m["op"] = n.Op.String()
		m["left"] = nodeMap(n.Lhs)
		m["right"] = nodeMap(n.Rhs)
	}

	return m
}

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}

	return out
}

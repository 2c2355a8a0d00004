package repl

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/psh/lang"
)

// nativeParams names the parameters of the global native functions.
// A leading "..." marks a variadic parameter.
var nativeParams = map[string][]string{
	"print":       {"...values"},
	"len":         {"v"},
	"str":         {"v"},
	"num":         {"v"},
	"type":        {"v"},
	"keys":        {"dict"},
	"env":         {"name"},
	"cwd":         {},
	"platform":    {},
	"exists":      {"path"},
	"path_prefix": {"list", "...items"},
	"to_json":     {"v"},
	"from_json":   {"text"},
	"to_yaml":     {"v"},
	"from_yaml":   {"text"},
	"expr":        {"source"},
}

// methodParams names the parameters of the native methods, excluding the
// receiver.
var methodParams = map[string][]string{
	"push":     {"...items"},
	"join":     {"sep"},
	"contains": {"x"},
	"has":      {"key"},
	"remove":   {"key"},
	"split":    {"sep"},
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall is the innermost call whose argument list holds the cursor.
type functionCall struct {
	name     string // dotted callee path, e.g. "cfg.tags.push"
	argIndex int    // 0-based
	inCall   bool
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' || c >= utf8.RuneSelf ||
		unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

// detectFunctionCall finds the call whose argument list contains cursor and
// the index of the argument being typed.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 && isNameByte(input[start-1]) {
		start--
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	argIndex := 0
	depth = 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// signatureOf returns the call signature of f and its parameter names.
func signatureOf(f *lang.Func) (string, []string) {
	name := f.Name
	if name == "" {
		name = "fn"
	}

	var params []string

	switch {
	case !f.IsNative():
		params = f.Params

	case f.Recv != nil:
		params = paramsOrArity(methodParams[f.Name], f.Arity)

	default:
		params = paramsOrArity(nativeParams[f.Name], f.Arity)
	}

	return name + "(" + strings.Join(params, ", ") + ")", params
}

// paramsOrArity returns known, or generic names derived from arity when no
// names are known.
func paramsOrArity(known []string, arity int) []string {
	if known != nil {
		return known
	}

	if arity < 0 {
		return []string{"...args"}
	}

	params := make([]string, arity)
	for i := range params {
		params[i] = "arg" + strconv.Itoa(i+1)
	}

	return params
}

// getSignature resolves name against the interpreter and returns the
// signature of the function it names. The signature is empty when name does
// not resolve to a function.
func getSignature(ip *lang.Interpreter, name string) (string, []string) {
	v, ok := resolve(ip, name)
	if !ok {
		return "", nil
	}

	f, ok := v.(*lang.Func)
	if !ok {
		return "", nil
	}

	return signatureOf(f)
}

// renderSignatureHint renders signature with the parameter at argIndex
// highlighted. A variadic parameter stays highlighted for every later
// argument.
func renderSignatureHint(signature string, params []string, argIndex int) string {
	open := strings.IndexByte(signature, '(')
	if open < 0 {
		return signatureStyle.Render(signature)
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(signature[:open]))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")
		if argIndex == i || (variadic && argIndex > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}

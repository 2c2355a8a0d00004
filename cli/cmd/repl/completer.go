package repl

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/psh/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "edit", "clear", "quit"}

// isWordBoundary reports whether r delimits a word for completion: spaces,
// the member-access dot, and psh operator or punctuation characters.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', ':', ';',
		'$', '"', '\'':
		return true
	}

	return false
}

// wordBounds returns the word at cursor and its byte boundaries within input.
// The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word at
// wordStart. For "x + cfg.tags.le" with the word "le", it is "cfg.tags".
// Top-level words have an empty parent.
func parentPath(input string, wordStart int) string {
	if wordStart == 0 || input[wordStart-1] != '.' {
		return ""
	}

	prefix := strings.TrimRight(input[:wordStart], ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:])
}

// resolve evaluates a dotted path of names against the interpreter's stack
// without running any code.
func resolve(ip *lang.Interpreter, path string) (lang.Value, bool) {
	if path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")

	v, ok := ip.Stack().Lookup(segments[0])
	if !ok {
		return nil, false
	}

	val := v.Value

	for _, seg := range segments[1:] {
		next, err := lang.Member(val, seg)
		if err != nil {
			return nil, false
		}

		val = next
	}

	return val, true
}

// childCandidates returns the names that complete a word following parent.
// The top level offers every visible binding and the keywords. Below that,
// a dict offers its keys, and any value offers the methods of its kind.
func childCandidates(ip *lang.Interpreter, parent string) []string {
	if parent == "" {
		return slices.Concat(ip.Stack().Names(), lang.Keywords())
	}

	v, ok := resolve(ip, parent)
	if !ok || v == nil {
		return nil
	}

	var names []string

	if d, ok := v.(*lang.Dict); ok {
		names = d.Keys()
	}

	for _, name := range lang.Methods(v.Kind()) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	return names
}

// isFunc reports whether name, completed below parent, refers to a function.
func isFunc(ip *lang.Interpreter, parent, name string) bool {
	path := name
	if parent != "" {
		path = parent + "." + name
	}

	v, ok := resolve(ip, path)

	return ok && v != nil && v.Kind() == lang.KindFunc
}

// computeMatches returns the ranked fuzzy matches for the word at the
// cursor, the candidates they were drawn from, and the word boundaries.
// An empty word matches nothing at the top level and every candidate after
// a dot.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		parent := parentPath(input, wordStart)
		candidates = childCandidates(m.sess.ip, parent)

		if word == "" {
			if parent == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// width. Names for which isFn reports true get a "()" suffix.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
	isFn func(string) bool,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, selected, isFn != nil && isFn(match.Str))

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected, fn bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if fn {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

const previewWidth = 40

// formatPreview renders a short description of a bound value for the vars
// listing.
func formatPreview(v lang.Value) string {
	if v == nil {
		return "nil"
	}

	switch v := v.(type) {
	case *lang.Func:
		sig, _ := signatureOf(v)

		return sig

	case *lang.Vec:
		return fmt.Sprintf("[ %d items ]", v.Len())

	case *lang.Dict:
		return fmt.Sprintf("{ %d entries }", v.Len())
	}

	s := lang.Quoted(v)
	if utf8.RuneCountInString(s) > previewWidth {
		r := []rune(s)

		return string(r[:previewWidth-3]) + "..."
	}

	return s
}

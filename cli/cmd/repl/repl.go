package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/psh/lang"
	"github.com/ardnew/psh/log"
	"github.com/ardnew/psh/proc"
)

// editMsg is sent when an edit session produced a program that parsed.
type editMsg struct {
	source string
	prog   *lang.Program
}

// editCancelledMsg is sent when the user emptied the editor buffer.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a parse
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process failed for another reason.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = ": "
	ctrlPrefix = ":"
)

const helpMessage = `
Commands (press Esc to toggle mode, or prefix with ':' in eval mode):

  help            Print this message
  vars [pattern]  List bindings, fuzzy-filtered by pattern
  edit            Edit the session source in $EDITOR and re-run it
  clear           Clear screen
  quit            Exit REPL

Usage:
  Type a statement to run it; the value of an expression is printed
  Start a line with '$ ' to run a command
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to navigate command history
  Press Ctrl+C on empty line or Ctrl+D to exit
`

// inputMode selects how a submitted line is interpreted.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

func echoLine(mode inputMode, input string) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// outBuffer collects everything the interpreter and its processes write
// between two prompts. Pipeline stages write concurrently.
type outBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *outBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

// flush returns the collected output without its trailing newlines and
// resets the buffer.
func (b *outBuffer) flush() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := strings.TrimRight(b.buf.String(), "\n")
	b.buf.Reset()

	return s
}

// session is the interpreter state shared by every copy of the model.
type session struct {
	ip     *lang.Interpreter
	out    *outBuffer
	opts   []lang.Option
	logger log.Logger
	source []string // inputs that ran without error
}

func newSession(logger log.Logger, opts ...lang.Option) *session {
	s := &session{out: &outBuffer{}, opts: opts, logger: logger}
	s.reset()

	return s
}

// reset replaces the interpreter with a fresh one.
func (s *session) reset() {
	launcher := proc.New(
		proc.WithStdio(strings.NewReader(""), s.out, s.out),
		proc.WithLogger(s.logger),
	)

	s.ip = lang.New(slices.Concat(s.opts, []lang.Option{
		lang.WithStdout(s.out),
		lang.WithLauncher(launcher),
		lang.WithLogger(s.logger),
	})...)
	s.source = nil
}

// eval parses and runs input. It returns the lines to print: the output
// written while running, then the value of a final expression or the error.
func (s *session) eval(ctx context.Context, input string) []string {
	var lines []string

	prog, err := lang.ParseCached(ctx, input, lang.WithParseLogger(s.logger))
	if err == nil {
		var v lang.Value

		v, err = s.ip.Eval(ctx, prog)

		if out := s.out.flush(); out != "" {
			lines = append(lines, out)
		}

		if err == nil {
			s.source = append(s.source, input)

			if v != nil && v.Kind() != lang.KindNil {
				lines = append(lines, resultStyle.Render(lang.Quoted(v)))
			}
		}
	}

	if err != nil {
		s.logger.TraceContext(ctx, "repl eval failed", slog.Any("error", err))
		lines = append(lines, errorStyle.Render("error: "+err.Error()))
	}

	return lines
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	sess             *session
	logger           log.Logger
	history          *History
	historyIdx       int
	matches          fuzzy.Matches // current fuzzy match results
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	saved            [2]struct {
		text   string
		cursor int
	} // per-mode input preserved across mode switches
}

// Run starts an interactive session. History is kept in cacheDir; an empty
// cacheDir keeps it in memory. opts configure every interpreter the session
// creates.
func Run(
	ctx context.Context,
	cacheDir string,
	logger log.Logger,
	opts ...lang.Option,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(ctx, "repl start", slog.String("cache_dir", cacheDir))

	var histPath string
	if cacheDir != "" {
		histPath = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(histPath)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, newSession(logger, opts...), history, logger)

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	sess *session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		sess:       sess,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editMsg:
		m.sess.reset()

		err := m.sess.ip.Run(m.ctxFunc(), msg.prog)
		out := m.sess.out.flush()

		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("statement_count", len(msg.prog.Stmts)),
			slog.Bool("success", err == nil),
		)

		cmds := []tea.Cmd{}
		if out != "" {
			cmds = append(cmds, tea.Println(out))
		}

		if err != nil {
			return m, tea.Sequence(append(cmds,
				tea.Println(errorStyle.Render("error: "+err.Error())))...)
		}

		m.sess.source = []string{strings.TrimRight(msg.source, "\n")}

		return m, tea.Sequence(append(cmds,
			tea.Println(resultStyle.Render("session reloaded")))...)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	call := detectFunctionCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		hint := "Type a statement, '$ ' for a command, or press Esc for REPL commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case call.inCall && m.mode == modeEval && len(m.matches) == 0:
		if sig, params := getSignature(m.sess.ip, call.name); sig != "" {
			b.WriteString(renderSignatureHint(sig, params, call.argIndex))
		}

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(
			m.matches, m.suggIdx, m.tabActive, m.width, m.funcPredicate(),
		))
	}

	b.WriteString("\n")

	return b.String()
}

// funcPredicate reports which completion candidates name functions.
func (m model) funcPredicate() func(string) bool {
	if m.mode != modeEval {
		return nil
	}

	parent := parentPath(m.input.Value(), m.wordStart)

	return func(name string) bool { return isFunc(m.sess.ip, parent, name) }
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		m.setInput("")

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		m.altNavActive = false

		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1), nil
		}

		return m.historyAny(-1), nil

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1), nil
		}

		return m.historyAny(1), nil

	case tea.KeyShiftUp:
		return m.historyInMode(-1), nil

	case tea.KeyShiftDown:
		return m.historyInMode(1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		return m.switchToMode(1 - m.mode), nil

	case tea.KeyRunes, tea.KeySpace:
		// Space ends tab-cycling and keeps the candidate.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Deletions and cursor movement never auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by dir through the current matches. A
// single match is completed and confirmed at once.
func (m model) cycle(dir int) model {
	n := len(m.matches)

	switch {
	case n == 0:
		return m

	case n == 1:
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m

	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + n) % n

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if dir < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word with replacement and moves
// the cursor to its end.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes the fuzzy matches. With autoConfirm, a sole
// candidate equal to the typed word is accepted and the bar is hidden.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, _, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

// setInput replaces the input line and places the cursor at its end.
func (m *model) setInput(s string) {
	m.input.SetValue(s)
	m.input.SetCursor(len(s))
	refreshMatches(m, false)
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	mode := m.mode

	m.saved = [2]struct {
		text   string
		cursor int
	}{}
	m.input.SetValue("")

	_ = m.history.Write(input, mode)
	m.historyIdx = m.history.Len()

	if mode == modeEval {
		if cmd, ok := strings.CutPrefix(input, ctrlPrefix); ok {
			return m.executeCommand(echoLine(mode, input), cmd)
		}
	}

	if mode == modeCtrl {
		return m.executeCommand(echoLine(mode, input), input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval", slog.String("input", input))

	cmds := []tea.Cmd{tea.Println(echoLine(mode, input))}
	for _, line := range m.sess.eval(m.ctxFunc(), input) {
		cmds = append(cmds, tea.Println(line))
	}

	refreshMatches(&m, false)

	return m, tea.Sequence(cmds...)
}

func (m model) executeCommand(echo, input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echoCmd := tea.Println(echo)
	name, args := parts[0], parts[1:]

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl command",
		slog.String("command", name),
		slog.Any("args", args),
	)

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage))

	case "v", "vars":
		return m, tea.Sequence(echoCmd, tea.Println(listVars(m.sess.ip, args)))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.edit())
	}

	return m, tea.Sequence(echoCmd, tea.Println(
		errorStyle.Render("unknown command: "+name+" (try 'help')"),
	))
}

func (m model) edit() tea.Cmd {
	source := strings.Join(m.sess.source, "\n")
	if source != "" {
		source += "\n"
	}

	cmd := &editCommand{
		source:  source,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.prog == nil:
			return editCancelledMsg{}
		}

		return editMsg{source: cmd.newSource, prog: cmd.prog}
	})
}

// listVars renders the visible bindings, other than the built-in functions,
// with a preview of each value. A pattern selects names by fuzzy match.
func listVars(ip *lang.Interpreter, pattern []string) string {
	names := ip.Stack().Names()

	if len(pattern) > 0 {
		matches := fuzzy.Find(strings.Join(pattern, ""), names)
		names = make([]string, len(matches))

		for i, match := range matches {
			names[i] = match.Str
		}
	} else {
		builtins := lang.Builtins()
		names = slices.DeleteFunc(names, func(name string) bool {
			return slices.Contains(builtins, name)
		})
	}

	var b strings.Builder

	for _, name := range names {
		v, ok := ip.Stack().Lookup(name)
		if !ok {
			continue
		}

		prefix := "  "
		if v.Exported {
			prefix = "* "
		}

		fmt.Fprintf(&b, "%s%s %s\n", prefix, name, hintStyle.Render(formatPreview(v.Value)))
	}

	return strings.TrimRight(b.String(), "\n")
}

// historyStep moves the history cursor by dir to the nearest entry accepted
// by keep, switching to that entry's mode. It reports false if there is none.
func (m model) historyStep(dir int, keep func(HistoryEntry) bool) (model, bool) {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		e, err := m.history.Entry(i)
		if err != nil || !keep(e) {
			continue
		}

		m.historyIdx = i

		if m.mode != e.Mode {
			m = m.switchToMode(e.Mode)
		}

		m.setInput(e.Line)

		return m, true
	}

	return m, false
}

// historyAny navigates all history. Moving past the newest entry clears the
// input.
func (m model) historyAny(dir int) model {
	m, ok := m.historyStep(dir, func(HistoryEntry) bool { return true })
	if !ok && dir > 0 {
		m.historyIdx = m.history.Len()
		m.setInput("")
	}

	return m
}

// historyInMode navigates the history of the current mode only.
func (m model) historyInMode(dir int) model {
	mode := m.mode

	m, ok := m.historyStep(dir, func(e HistoryEntry) bool { return e.Mode == mode })
	if !ok && dir > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.setInput("")
	}

	return m
}

// historyCtrl navigates control-mode history, remembering the line being
// edited and restoring it once either end is passed.
func (m model) historyCtrl(dir int) model {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()
	}

	m, ok := m.historyStep(dir, func(e HistoryEntry) bool { return e.Mode == modeCtrl })
	if ok {
		return m
	}

	m.altNavActive = false
	m = m.switchToMode(m.altNavOrigMode)
	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m
}

// switchToMode changes the input mode, preserving each mode's pending input.
func (m model) switchToMode(mode inputMode) model {
	m.saved[m.mode].text = m.input.Value()
	m.saved[m.mode].cursor = m.input.Position()

	m.mode = mode

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	refreshMatches(&m, false)

	return m
}

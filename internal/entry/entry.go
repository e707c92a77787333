// Package entry provides the word-by-word text entry used for typing rounds.
package entry

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Sink receives entry events. It decides completion and scoring; the entry
// only reports what was typed.
type Sink interface {
	// WordTyped is called when a word boundary is typed. Returning true
	// accepts the word and clears the buffer.
	WordTyped(word string) (bool, tea.Cmd)
	// Changed is called with the in-progress word after every edit.
	Changed(current string) tea.Cmd
	// PopPrevWord removes and returns the previously committed word.
	PopPrevWord() string
}

var (
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Entry is a single-word edit buffer.
type Entry struct {
	input  textinput.Model
	active bool
}

// New returns an inactive entry.
func New() *Entry {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "start typing"
	return &Entry{input: input}
}

// SetActive focuses or blurs the entry.
func (e *Entry) SetActive(active bool) tea.Cmd {
	e.active = active
	if active {
		return e.input.Focus()
	}
	e.input.Blur()
	return nil
}

// Active reports whether the entry accepts keys.
func (e *Entry) Active() bool {
	return e.active
}

// Value returns the in-progress word.
func (e *Entry) Value() string {
	return e.input.Value()
}

// Reset clears the buffer without notifying the sink.
func (e *Entry) Reset() {
	e.input.SetValue("")
}

// SetWidth bounds the rendered input.
func (e *Entry) SetWidth(width int) {
	e.input.Width = width
}

// Update handles a key press.
func (e *Entry) Update(msg tea.KeyMsg, sink Sink) tea.Cmd {
	if !e.active {
		return nil
	}
	switch msg.Type {
	case tea.KeySpace, tea.KeyTab, tea.KeyEnter:
		return e.commit(sink)
	case tea.KeyBackspace:
		if e.input.Value() == "" {
			prev := sink.PopPrevWord()
			e.input.SetValue(prev)
			e.input.CursorEnd()
			return sink.Changed(prev)
		}
		return e.edit(msg, sink)
	case tea.KeyRunes:
		if !containsSpace(msg.Runes) {
			return e.edit(msg, sink)
		}
		return e.typeRunes(msg.Runes, sink)
	default:
		return e.edit(msg, sink)
	}
}

// View renders the buffer, flagging it when it diverges from expected.
func (e *Entry) View(expected string) string {
	if strings.HasPrefix(expected, e.input.Value()) {
		e.input.TextStyle = okStyle
	} else {
		e.input.TextStyle = errStyle
	}
	return e.input.View()
}

func (e *Entry) edit(msg tea.KeyMsg, sink Sink) tea.Cmd {
	before := e.input.Value()
	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	if e.input.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, sink.Changed(e.input.Value()))
}

func (e *Entry) commit(sink Sink) tea.Cmd {
	ok, cmd := sink.WordTyped(e.input.Value())
	if ok {
		e.input.SetValue("")
	}
	return cmd
}

// typeRunes handles pasted input, committing at every whitespace rune.
func (e *Entry) typeRunes(runes []rune, sink Sink) tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range runes {
		if !e.active {
			break
		}
		if unicode.IsSpace(r) {
			cmds = append(cmds, e.commit(sink))
			continue
		}
		e.input.SetValue(e.input.Value() + string(r))
		e.input.CursorEnd()
		cmds = append(cmds, sink.Changed(e.input.Value()))
	}
	return tea.Batch(cmds...)
}

func containsSpace(runes []rune) bool {
	for _, r := range runes {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

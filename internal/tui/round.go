package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/session"
)

// initialize starts a fresh round: state is cleared, the readout ticker is
// stopped and a new paragraph is requested. Responses for an earlier round
// are dropped, so after rapid toggles the last request wins.
func (m *Model) initialize() tea.Cmd {
	m.readout.Stop()
	round := m.session.Reset()
	m.session.Prompted = append([]string(nil), session.LoadingPrompt...)
	m.entry.Reset()
	m.entry.SetActive(false)
	m.naming = nil
	m.captcha = nil
	return m.paragraphCmd(round)
}

func (m *Model) handleParagraph(msg paragraphMsg) tea.Cmd {
	if msg.round != m.session.Round {
		return nil
	}
	if m.failed("request_paragraph", msg.err) {
		return nil
	}
	phase := model.PromptPhase(msg.paragraph.PToken)
	if m.session.PigLatin {
		m.session.SetPrompt(msg.round, nil, phase)
		return m.translateCmd(msg.round, msg.paragraph.Text)
	}
	m.session.SetPrompt(msg.round, strings.Split(msg.paragraph.Text, " "), phase)
	return m.activateInput()
}

func (m *Model) handleTranslated(msg translatedMsg) tea.Cmd {
	if msg.round != m.session.Round {
		return nil
	}
	if m.failed("translate_to_pig_latin", msg.err) {
		return nil
	}
	m.session.SetPrompt(msg.round, strings.Split(msg.text, " "), model.Phase{})
	return m.activateInput()
}

func (m *Model) activateInput() tea.Cmd {
	if m.session.Mode != model.ModeSingle && m.session.Mode != model.ModeMulti {
		return nil
	}
	return m.entry.SetActive(m.session.InputActive)
}

// restart starts the round clock and the readout ticker.
func (m *Model) restart() tea.Cmd {
	m.startedAt = m.now()
	m.session.Start(m.startedAt)
	return m.readout.Start(readoutPeriod)
}

// updateReadouts is the readout ticker handler.
func (m *Model) updateReadouts() tea.Cmd {
	return m.analyzeCmd(false)
}

// WordTyped commits a finished word. Empty words are accepted and ignored so
// repeated whitespace is harmless.
func (m *Model) WordTyped(word string) (bool, tea.Cmd) {
	if word == "" {
		return true, nil
	}
	if !m.session.InputActive {
		return false, nil
	}
	index, ok := m.session.Commit(word)
	if !ok {
		return false, nil
	}
	var cmds []tea.Cmd
	if m.session.AutoCorrect && word != m.session.Prompted[index] {
		cmds = append(cmds, m.autocorrectCmd(index, word))
	}
	cmds = append(cmds, m.afterWordTyped(false))
	return true, tea.Batch(cmds...)
}

func (m *Model) afterWordTyped(final bool) tea.Cmd {
	cmds := []tea.Cmd{m.analyzeCmd(final)}
	if m.session.Mode == model.ModeMulti {
		cmds = append(cmds, m.reportProgressCmd())
	}
	return tea.Batch(cmds...)
}

// Changed tracks the in-progress word and detects completion.
func (m *Model) Changed(current string) tea.Cmd {
	if !m.session.InputActive {
		return nil
	}
	m.session.Current = current
	if m.session.IsCompletion(current) {
		return m.complete(current)
	}
	if m.readout.Running() {
		return nil
	}
	if m.session.Started() {
		return m.readout.Start(readoutPeriod)
	}
	return m.restart()
}

// PopPrevWord hands the last committed word back to the entry.
func (m *Model) PopPrevWord() string {
	if !m.session.InputActive {
		return ""
	}
	return m.session.PopPrevWord()
}

// complete ends the round: polling stops, input is disabled, the last word
// is committed and a final analysis is requested. The leaderboard threshold
// is checked once that analysis lands.
func (m *Model) complete(last string) tea.Cmd {
	m.readout.Stop()
	if !m.session.Started() {
		m.startedAt = m.now()
		m.session.Start(m.startedAt)
	}
	if _, ok := m.session.Commit(last); !ok {
		return nil
	}
	m.session.InputActive = false
	m.session.Finished = true
	m.entry.SetActive(false)
	m.entry.Reset()
	return m.afterWordTyped(true)
}

func (m *Model) handleAnalysis(msg analysisMsg) tea.Cmd {
	if msg.round != m.session.Round {
		return nil
	}
	if m.failed("analyze", msg.err) {
		return nil
	}
	if m.session.Finished && !msg.final {
		return nil
	}
	m.session.ApplyAnalysis(msg.round, msg.analysis, m.now())
	if !msg.final {
		return nil
	}
	return tea.Batch(m.thresholdCmd(), m.saveRoundCmd(m.roundRecord()))
}

func (m *Model) handleThreshold(msg thresholdMsg) tea.Cmd {
	if msg.round != m.session.Round {
		return nil
	}
	if m.failed("wpm_threshold", msg.err) {
		return nil
	}
	if m.session.QualifiesForLeaderboard(msg.threshold) {
		return m.openNamePrompt()
	}
	return nil
}

func (m *Model) roundRecord() model.RoundRecord {
	return model.RoundRecord{
		StartedAt:   m.startedAt,
		EndedAt:     m.now(),
		Mode:        m.session.Mode,
		Words:       len(m.session.Typed),
		WPM:         m.session.WPM.Rounded(),
		Accuracy:    m.session.Accuracy.Rounded(),
		PigLatin:    m.session.PigLatin,
		AutoCorrect: m.session.AutoCorrect,
	}
}

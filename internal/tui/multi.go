package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typerace/internal/model"
)

// enterWaiting switches to matchmaking and polls for a match every second.
func (m *Model) enterWaiting() tea.Cmd {
	m.readout.Stop()
	m.entry.SetActive(false)
	m.session.Mode = model.ModeWaiting
	m.matchGen++
	m.match.SetHandler(m.requestMatch)
	return tea.Batch(m.match.Start(matchPeriod), m.spinner.Tick)
}

func (m *Model) leaveWaiting() {
	m.match.Stop()
	m.matchGen++
	m.session.Mode = model.ModeWelcome
}

// leaveMatch tears down the multiplayer poll and state.
func (m *Model) leaveMatch() {
	m.match.Stop()
	m.matchGen++
	m.session.LeaveMatch()
	m.fastest.SetContent("")
}

// requestMatch is the match ticker handler while waiting.
func (m *Model) requestMatch() tea.Cmd {
	return m.requestMatchCmd()
}

// requestProgress is the match ticker handler once a match has started.
func (m *Model) requestProgress() tea.Cmd {
	return m.requestProgressCmd()
}

func (m *Model) handleMatch(msg matchMsg) tea.Cmd {
	if msg.gen != m.matchGen || m.session.Mode != model.ModeWaiting {
		return nil
	}
	if m.failed("request_match", msg.err) {
		return nil
	}
	if !msg.match.Start {
		m.session.NumPlayers = msg.match.NumWaiting
		return nil
	}
	m.readout.Stop()
	m.session.StartMatch(msg.match)
	m.fastest.SetContent("")
	m.naming = nil
	m.captcha = nil
	m.entry.Reset()
	m.match.SetHandler(m.requestProgress)
	return tea.Batch(m.match.Reschedule(progressPeriod), m.entry.SetActive(true))
}

func (m *Model) handleProgress(msg progressMsg) tea.Cmd {
	if msg.round != m.session.Round {
		return nil
	}
	if m.failed("request_progress", msg.err) {
		return nil
	}
	allDone, ok := m.session.ApplyProgress(msg.round, msg.progress)
	if !ok || !allDone || !m.match.Running() {
		return nil
	}
	m.match.Stop()
	return m.fastestWordsCmd()
}

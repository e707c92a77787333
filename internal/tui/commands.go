package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/session"
)

// Every async result carries the round (or board/match generation) it was
// issued for; handlers drop results whose tag is no longer current.

type idMsg struct {
	id  string
	err error
}

type paragraphMsg struct {
	round     uint64
	paragraph model.Paragraph
	err       error
}

type translatedMsg struct {
	round uint64
	text  string
	err   error
}

type analysisMsg struct {
	round    uint64
	final    bool
	analysis model.Analysis
	err      error
}

type correctionMsg struct {
	round     uint64
	index     int
	original  string
	corrected string
	err       error
}

type reportedMsg struct {
	err error
}

type progressMsg struct {
	round    uint64
	progress []model.PlayerProgress
	err      error
}

type fastestWordsMsg struct {
	round uint64
	text  string
	err   error
}

type matchMsg struct {
	gen   uint64
	match model.Match
	err   error
}

type thresholdMsg struct {
	round     uint64
	threshold float64
	err       error
}

type recordedMsg struct {
	err error
}

type captchaMsg struct {
	round   uint64
	captcha model.Captcha
	err     error
}

type captchaResultMsg struct {
	round  uint64
	result model.CaptchaResult
	err    error
}

type boardMsg struct {
	gen     uint64
	entries []model.LeaderboardEntry
	err     error
}

type historyMsg struct {
	rounds []model.RoundRecord
	err    error
}

type savedMsg struct {
	record model.RoundRecord
	err    error
}

// call runs fn on a command goroutine with the configured timeout.
func (m *Model) call(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m *Model) requestIDCmd() tea.Cmd {
	backend := m.backend
	return m.call(func(ctx context.Context) tea.Msg {
		id, err := backend.RequestID(ctx)
		return idMsg{id: id, err: err}
	})
}

func (m *Model) paragraphCmd(round uint64) tea.Cmd {
	backend := m.backend
	return m.call(func(ctx context.Context) tea.Msg {
		p, err := backend.RequestParagraph(ctx)
		return paragraphMsg{round: round, paragraph: p, err: err}
	})
}

func (m *Model) translateCmd(round uint64, text string) tea.Cmd {
	backend := m.backend
	return m.call(func(ctx context.Context) tea.Msg {
		out, err := backend.TranslateToPigLatin(ctx, text)
		return translatedMsg{round: round, text: out, err: err}
	})
}

func (m *Model) analyzeCmd(final bool) tea.Cmd {
	backend := m.backend
	round := m.session.Round
	req := model.AnalyzeRequest{
		PromptedText: m.session.PromptedText(),
		TypedText:    m.session.TypedText(),
		StartTime:    m.session.StartTime,
		EndTime:      session.Seconds(m.now()),
		PToken:       m.session.Phase.PToken(),
		SToken:       m.session.Phase.SToken(),
	}
	return m.call(func(ctx context.Context) tea.Msg {
		a, err := backend.Analyze(ctx, req)
		return analysisMsg{round: round, final: final, analysis: a, err: err}
	})
}

func (m *Model) autocorrectCmd(index int, word string) tea.Cmd {
	backend := m.backend
	round := m.session.Round
	return m.call(func(ctx context.Context) tea.Msg {
		out, err := backend.Autocorrect(ctx, word)
		return correctionMsg{round: round, index: index, original: word, corrected: out, err: err}
	})
}

func (m *Model) reportProgressCmd() tea.Cmd {
	backend := m.backend
	id, typed, prompt := m.session.ID, m.session.TypedText(), m.session.PromptedText()
	return m.call(func(ctx context.Context) tea.Msg {
		return reportedMsg{err: backend.ReportProgress(ctx, id, typed, prompt)}
	})
}

func (m *Model) requestProgressCmd() tea.Cmd {
	backend := m.backend
	round := m.session.Round
	targets := append([]string(nil), m.session.Players...)
	return m.call(func(ctx context.Context) tea.Msg {
		p, err := backend.RequestProgress(ctx, targets)
		return progressMsg{round: round, progress: p, err: err}
	})
}

func (m *Model) fastestWordsCmd() tea.Cmd {
	backend := m.backend
	round := m.session.Round
	targets := append([]string(nil), m.session.Players...)
	prompt := m.session.PromptedText()
	return m.call(func(ctx context.Context) tea.Msg {
		text, err := backend.FastestWords(ctx, targets, prompt)
		return fastestWordsMsg{round: round, text: text, err: err}
	})
}

func (m *Model) requestMatchCmd() tea.Cmd {
	backend := m.backend
	gen, id := m.matchGen, m.session.ID
	return m.call(func(ctx context.Context) tea.Msg {
		match, err := backend.RequestMatch(ctx, id)
		return matchMsg{gen: gen, match: match, err: err}
	})
}

func (m *Model) thresholdCmd() tea.Cmd {
	backend := m.backend
	round := m.session.Round
	return m.call(func(ctx context.Context) tea.Msg {
		th, err := backend.WPMThreshold(ctx)
		return thresholdMsg{round: round, threshold: th, err: err}
	})
}

func (m *Model) recordCmd() tea.Cmd {
	backend := m.backend
	username := m.session.Username
	wpm := m.session.WPM.Rounded()
	token := m.session.Phase.WPMToken()
	return m.call(func(ctx context.Context) tea.Msg {
		return recordedMsg{err: backend.RecordWPM(ctx, username, wpm, token)}
	})
}

func (m *Model) captchaCmd() tea.Cmd {
	backend := m.backend
	round := m.session.Round
	return m.call(func(ctx context.Context) tea.Msg {
		c, err := backend.GetCaptcha(ctx)
		return captchaMsg{round: round, captcha: c, err: err}
	})
}

func (m *Model) submitCaptchaCmd(token, typed string) tea.Cmd {
	backend := m.backend
	round := m.session.Round
	return m.call(func(ctx context.Context) tea.Msg {
		res, err := backend.SubmitCaptcha(ctx, token, typed)
		return captchaResultMsg{round: round, result: res, err: err}
	})
}

func (m *Model) boardCmd(gen uint64, memes bool) tea.Cmd {
	backend := m.backend
	return m.call(func(ctx context.Context) tea.Msg {
		entries, err := backend.Leaderboard(ctx, memes)
		return boardMsg{gen: gen, entries: entries, err: err}
	})
}

func (m *Model) loadHistoryCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	st := m.store
	return m.call(func(ctx context.Context) tea.Msg {
		rounds, err := st.ListRounds(ctx, model.HistoryFilter{})
		return historyMsg{rounds: rounds, err: err}
	})
}

func (m *Model) saveRoundCmd(record model.RoundRecord) tea.Cmd {
	if m.store == nil {
		return nil
	}
	st := m.store
	return m.call(func(ctx context.Context) tea.Msg {
		id, err := st.InsertRound(ctx, record)
		record.ID = id
		return savedMsg{record: record, err: err}
	})
}

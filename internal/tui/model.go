// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typerace/internal/api"
	"github.com/verte-zerg/typerace/internal/entry"
	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/poll"
	"github.com/verte-zerg/typerace/internal/session"
)

const (
	readoutPeriod  = 100 * time.Millisecond
	matchPeriod    = 1000 * time.Millisecond
	progressPeriod = 500 * time.Millisecond
)

// Backend is the typing server as seen by the UI.
type Backend interface {
	RequestID(ctx context.Context) (string, error)
	RequestParagraph(ctx context.Context) (model.Paragraph, error)
	TranslateToPigLatin(ctx context.Context, text string) (string, error)
	Analyze(ctx context.Context, req model.AnalyzeRequest) (model.Analysis, error)
	Autocorrect(ctx context.Context, word string) (string, error)
	ReportProgress(ctx context.Context, id, typed, prompt string) error
	RequestProgress(ctx context.Context, targets []string) ([]model.PlayerProgress, error)
	FastestWords(ctx context.Context, targets []string, prompt string) (string, error)
	RequestMatch(ctx context.Context, id string) (model.Match, error)
	WPMThreshold(ctx context.Context) (float64, error)
	RecordWPM(ctx context.Context, username string, wpm float64, wpmToken string) error
	GetCaptcha(ctx context.Context) (model.Captcha, error)
	SubmitCaptcha(ctx context.Context, captchaToken, typed string) (model.CaptchaResult, error)
	Leaderboard(ctx context.Context, memes bool) ([]model.LeaderboardEntry, error)
}

// RoundStore persists finished rounds. A nil store disables history.
type RoundStore interface {
	InsertRound(ctx context.Context, r model.RoundRecord) (int64, error)
	ListRounds(ctx context.Context, filter model.HistoryFilter) ([]model.RoundRecord, error)
}

// Options configures a Model.
type Options struct {
	Backend Backend
	Store   RoundStore
	Logger  *slog.Logger
	Timeout time.Duration
	// Now overrides the clock; tests pin it.
	Now func() time.Time
}

// Model implements the Bubble Tea typing UI. It is the only writer of the
// session; network results come back as messages tagged with their round.
type Model struct {
	backend Backend
	store   RoundStore
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	session *session.Session
	entry   *entry.Entry

	readout  *poll.Ticker
	match    *poll.Ticker
	matchGen uint64

	width  int
	height int

	spinner spinner.Model
	fastest viewport.Model
	board   leaderboard
	naming  *namePrompt
	captcha *captchaDialog
	notice  string
	isError bool
	footer  footerStats

	startedAt time.Time
}

// NewModel constructs a typing TUI model.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := &Model{
		backend: opts.Backend,
		store:   opts.Store,
		logger:  logger,
		timeout: timeout,
		now:     now,
		session: session.New(),
		entry:   entry.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		fastest: viewport.New(60, 8),
		board:   newLeaderboard(),
	}
	m.readout = poll.New(m.updateReadouts)
	m.match = poll.New(m.requestMatch)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.requestIDCmd(), m.initialize(), m.loadHistoryCmd())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case poll.TickMsg:
		if cmd, ok := m.readout.Update(msg); ok {
			return m, cmd
		}
		cmd, _ := m.match.Update(msg)
		return m, cmd
	case spinner.TickMsg:
		if m.session.Mode != model.ModeWaiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case idMsg:
		if m.failed("request_id", msg.err) {
			return m, nil
		}
		m.session.ID = msg.id
		return m, nil
	case paragraphMsg:
		return m, m.handleParagraph(msg)
	case translatedMsg:
		return m, m.handleTranslated(msg)
	case analysisMsg:
		return m, m.handleAnalysis(msg)
	case correctionMsg:
		if m.failed("autocorrect", msg.err) {
			return m, nil
		}
		m.session.ApplyCorrection(msg.round, msg.index, msg.original, msg.corrected)
		return m, nil
	case reportedMsg:
		m.failed("report_progress", msg.err)
		return m, nil
	case matchMsg:
		return m, m.handleMatch(msg)
	case progressMsg:
		return m, m.handleProgress(msg)
	case fastestWordsMsg:
		if msg.round != m.session.Round || m.failed("fastest_words", msg.err) {
			return m, nil
		}
		m.session.FastestWords = msg.text
		m.fastest.SetContent(msg.text)
		m.fastest.GotoTop()
		return m, nil
	case thresholdMsg:
		return m, m.handleThreshold(msg)
	case recordedMsg:
		if m.failed("record_wpm", msg.err) {
			return m, nil
		}
		m.info("Score recorded.")
		return m, nil
	case captchaMsg:
		return m, m.handleCaptcha(msg)
	case captchaResultMsg:
		return m, m.handleCaptchaResult(msg)
	case boardMsg:
		if msg.gen != m.board.gen {
			return m, nil
		}
		if m.failed("leaderboard", msg.err) {
			m.board.loading = false
			return m, nil
		}
		m.board.apply(msg)
		return m, nil
	case historyMsg:
		if msg.err != nil {
			m.logger.Warn("failed to load history", "err", msg.err)
			return m, nil
		}
		m.footer = newFooterStats(msg.rounds)
		return m, nil
	case savedMsg:
		if msg.err != nil {
			m.logger.Warn("failed to save round", "err", msg.err)
			return m, nil
		}
		m.footer.add(msg.record)
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.readout.Stop()
		m.match.Stop()
		return tea.Quit
	}
	switch {
	case m.captcha != nil:
		return m.updateCaptcha(msg)
	case m.naming != nil:
		return m.updateNamePrompt(msg)
	case m.board.visible:
		return m.updateBoard(msg)
	}

	switch msg.Type {
	case tea.KeyCtrlL:
		return m.showBoard(false)
	case tea.KeyCtrlE:
		return m.showBoard(true)
	}

	switch m.session.Mode {
	case model.ModeWelcome:
		return m.updateWelcome(msg)
	case model.ModeWaiting:
		if msg.Type == tea.KeyEsc {
			m.leaveWaiting()
		}
		return nil
	}

	switch msg.Type {
	case tea.KeyCtrlP:
		if m.session.Mode != model.ModeSingle {
			return nil
		}
		m.session.TogglePigLatin()
		return m.initialize()
	case tea.KeyCtrlT:
		if m.session.Mode != model.ModeSingle {
			return nil
		}
		m.session.ToggleAutoCorrect()
		return m.initialize()
	case tea.KeyCtrlR:
		if m.session.Mode == model.ModeMulti {
			m.leaveMatch()
		}
		m.session.Mode = model.ModeSingle
		return m.initialize()
	case tea.KeyEsc:
		if m.session.Mode == model.ModeMulti {
			m.leaveMatch()
			m.session.Mode = model.ModeWelcome
			return m.initialize()
		}
		m.readout.Stop()
		m.entry.SetActive(false)
		m.session.Mode = model.ModeWelcome
		return nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.fastest, cmd = m.fastest.Update(msg)
		return cmd
	}
	return m.entry.Update(msg, m)
}

func (m *Model) updateWelcome(msg tea.KeyMsg) tea.Cmd {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return nil
	}
	switch msg.Runes[0] {
	case 's', 'S':
		m.session.Mode = model.ModeSingle
		cmd := m.entry.SetActive(m.session.InputActive)
		if m.session.InputActive && m.session.Started() {
			return tea.Batch(cmd, m.readout.Start(readoutPeriod))
		}
		return cmd
	case 'm', 'M':
		if m.session.ID == "" {
			m.info("Still waiting for an identity from the server.")
			return nil
		}
		return m.enterWaiting()
	}
	return nil
}

// failed logs err and shows it as a notice. It reports whether err was set.
func (m *Model) failed(endpoint string, err error) bool {
	if err == nil {
		if m.isError {
			m.notice = ""
			m.isError = false
		}
		return false
	}
	m.logger.Warn("backend call failed", "endpoint", endpoint, "err", err)
	m.isError = true
	var ne *api.NetworkError
	if errors.As(err, &ne) && ne.Message != "" {
		m.notice = ne.Message
		return true
	}
	m.notice = err.Error()
	return true
}

func (m *Model) info(text string) {
	m.notice = text
	m.isError = false
}

func (m *Model) resize() {
	width := m.contentWidth()
	m.entry.SetWidth(width)
	m.fastest.Width = width
	m.board.setWidth(width)
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(1, int(float64(m.width)*0.70))
}

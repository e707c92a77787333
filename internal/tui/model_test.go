package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typerace/internal/api"
	"github.com/verte-zerg/typerace/internal/model"
)

type recordCall struct {
	username string
	wpm      float64
	token    string
}

type fakeBackend struct {
	mu sync.Mutex

	id            string
	paragraph     model.Paragraph
	paragraphErr  error
	analyses      []model.Analysis
	analyzeReqs   []model.AnalyzeRequest
	corrections   map[string]string
	threshold     float64
	match         model.Match
	progress      [][]model.PlayerProgress
	fastest       string
	boards        map[bool][]model.LeaderboardEntry
	captcha       model.Captcha
	captchaResult model.CaptchaResult
	captchaTyped  []string
	recorded      []recordCall
	reports       int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		id:        "me",
		paragraph: model.Paragraph{Text: "hi there", PToken: "p1"},
		analyses: []model.Analysis{
			{WPM: 40, Accuracy: 100, Next: model.ScoringPhase("s1")},
			{WPM: 80, Accuracy: 100, Next: model.RecordablePhase("w1")},
		},
		corrections: map[string]string{},
		threshold:   50,
		boards:      map[bool][]model.LeaderboardEntry{},
	}
}

func (f *fakeBackend) RequestID(context.Context) (string, error) {
	return f.id, nil
}

func (f *fakeBackend) RequestParagraph(context.Context) (model.Paragraph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paragraph, f.paragraphErr
}

func (f *fakeBackend) TranslateToPigLatin(_ context.Context, text string) (string, error) {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = w[1:] + w[:1] + "ay"
	}
	return strings.Join(words, " "), nil
}

func (f *fakeBackend) Analyze(_ context.Context, req model.AnalyzeRequest) (model.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzeReqs = append(f.analyzeReqs, req)
	if len(f.analyses) == 0 {
		return model.Analysis{WPM: 1, Accuracy: 1}, nil
	}
	next := f.analyses[0]
	if len(f.analyses) > 1 {
		f.analyses = f.analyses[1:]
	}
	return next, nil
}

func (f *fakeBackend) Autocorrect(_ context.Context, word string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if out, ok := f.corrections[word]; ok {
		return out, nil
	}
	return word, nil
}

func (f *fakeBackend) ReportProgress(context.Context, string, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports++
	return nil
}

func (f *fakeBackend) RequestProgress(context.Context, []string) ([]model.PlayerProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.progress) == 0 {
		return nil, nil
	}
	next := f.progress[0]
	f.progress = f.progress[1:]
	return next, nil
}

func (f *fakeBackend) FastestWords(context.Context, []string, string) (string, error) {
	return f.fastest, nil
}

func (f *fakeBackend) RequestMatch(context.Context, string) (model.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.match, nil
}

func (f *fakeBackend) WPMThreshold(context.Context) (float64, error) {
	return f.threshold, nil
}

func (f *fakeBackend) RecordWPM(_ context.Context, username string, wpm float64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, recordCall{username: username, wpm: wpm, token: token})
	return nil
}

func (f *fakeBackend) GetCaptcha(context.Context) (model.Captcha, error) {
	return f.captcha, nil
}

func (f *fakeBackend) SubmitCaptcha(_ context.Context, _ string, typed string) (model.CaptchaResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captchaTyped = append(f.captchaTyped, typed)
	return f.captchaResult, nil
}

func (f *fakeBackend) Leaderboard(_ context.Context, memes bool) ([]model.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boards[memes], nil
}

type memoryStore struct {
	mu     sync.Mutex
	rounds []model.RoundRecord
}

func (s *memoryStore) InsertRound(_ context.Context, r model.RoundRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = int64(len(s.rounds) + 1)
	s.rounds = append(s.rounds, r)
	return r.ID, nil
}

func (s *memoryStore) ListRounds(context.Context, model.HistoryFilter) ([]model.RoundRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RoundRecord(nil), s.rounds...), nil
}

func newTestModel(t *testing.T, backend *fakeBackend, st *memoryStore) *Model {
	t.Helper()
	m, _ := newClockedModel(t, backend, st)
	return m
}

// newClockedModel returns a model whose clock only moves when the returned
// time is advanced.
func newClockedModel(t *testing.T, backend *fakeBackend, st *memoryStore) (*Model, *time.Time) {
	t.Helper()
	clock := time.Unix(1700000000, 0)
	opts := Options{
		Backend: backend,
		Timeout: time.Second,
		Now: func() time.Time {
			return clock
		},
	}
	if st != nil {
		opts.Store = st
	}
	m := NewModel(opts)
	run(t, m, m.Init())
	return m, &clock
}

// run executes cmd and feeds every resulting message from this package back
// into m until no work is left. Timer-driven commands are abandoned.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg, ok := execCmd(next)
		if !ok {
			continue
		}
		if batch, isBatch := msg.(tea.BatchMsg); isBatch {
			queue = append(queue, batch...)
			continue
		}
		if !strings.HasPrefix(fmt.Sprintf("%T", msg), "tui.") {
			continue
		}
		_, follow := m.Update(msg)
		queue = append(queue, follow)
	}
}

func execCmd(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() {
		ch <- cmd()
	}()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(50 * time.Millisecond):
		return nil, false
	}
}

func press(t *testing.T, m *Model, msg tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(msg)
	run(t, m, cmd)
}

func typeText(t *testing.T, m *Model, text string) {
	t.Helper()
	for _, r := range text {
		if r == ' ' {
			press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestInitLoadsIdentityAndPrompt(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), nil)
	if m.session.Mode != model.ModeWelcome {
		t.Fatalf("expected welcome mode, got %v", m.session.Mode)
	}
	if m.session.ID != "me" {
		t.Fatalf("expected identity, got %q", m.session.ID)
	}
	if m.session.PromptedText() != "hi there" || m.session.Phase.PToken() != "p1" {
		t.Fatalf("expected prompt installed, got %q %+v", m.session.PromptedText(), m.session.Phase)
	}
	if m.entry.Active() {
		t.Fatalf("entry must stay inactive on the welcome screen")
	}
}

func TestSingleRoundQualifiesAndRecords(t *testing.T) {
	backend := newFakeBackend()
	st := &memoryStore{}
	m := newTestModel(t, backend, st)
	press(t, m, key('s'))
	if !m.entry.Active() {
		t.Fatalf("expected entry active in single mode")
	}

	typeText(t, m, "hi there")

	if !m.session.Finished || m.session.InputActive || m.entry.Active() {
		t.Fatalf("expected finished round with input disabled")
	}
	if m.readout.Running() {
		t.Fatalf("expected readout ticker stopped on completion")
	}
	if got := m.session.TypedText(); got != "hi there" {
		t.Fatalf("expected final word committed, got %q", got)
	}
	if len(backend.analyzeReqs) != 2 || backend.analyzeReqs[1].SToken != "s1" || backend.analyzeReqs[1].PToken != "" {
		t.Fatalf("expected final analysis to carry the scoring token, got %+v", backend.analyzeReqs)
	}
	if m.session.Phase.WPMToken() != "w1" {
		t.Fatalf("expected recordable phase, got %+v", m.session.Phase)
	}
	if m.naming == nil {
		t.Fatalf("expected name prompt for qualifying round")
	}
	if len(st.rounds) != 1 || st.rounds[0].WPM != 80 || st.rounds[0].Words != 2 {
		t.Fatalf("expected round saved to history, got %+v", st.rounds)
	}

	typeText(t, m, "ada")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.naming != nil {
		t.Fatalf("expected name prompt closed")
	}
	if len(backend.recorded) != 1 {
		t.Fatalf("expected one record call, got %d", len(backend.recorded))
	}
	got := backend.recorded[0]
	if got.username != "ada" || got.wpm != 80 || got.token != "w1" {
		t.Fatalf("unexpected record call %+v", got)
	}
	if m.session.Phase.WPMToken() != "" {
		t.Fatalf("expected wpm token consumed")
	}
}

func TestRoundBelowThresholdSkipsNamePrompt(t *testing.T) {
	backend := newFakeBackend()
	backend.threshold = 200
	m := newTestModel(t, backend, nil)
	press(t, m, key('s'))
	typeText(t, m, "hi there")
	if m.naming != nil {
		t.Fatalf("expected no name prompt below threshold")
	}
}

func TestCaptchaGatesRecording(t *testing.T) {
	backend := newFakeBackend()
	backend.analyses[1].CaptchaRequired = true
	backend.analyses[1].HasCaptchaFlag = true
	backend.captcha = model.Captcha{URIs: []string{"data:,x", "data:,y"}, Token: "c1"}
	backend.captchaResult = model.CaptchaResult{Passed: true, WPM: 80, Accuracy: 100, Verified: 80}
	m := newTestModel(t, backend, nil)
	press(t, m, key('s'))
	typeText(t, m, "hi there")
	if !m.session.CaptchaRequired {
		t.Fatalf("expected captcha flag latched")
	}

	typeText(t, m, "ada")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(backend.recorded) != 0 {
		t.Fatalf("score must not be recorded before the captcha")
	}
	if m.captcha == nil || m.session.Captcha == nil {
		t.Fatalf("expected captcha dialog open")
	}

	typeText(t, m, "one two")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.captcha != nil || m.session.Captcha != nil {
		t.Fatalf("expected captcha destroyed on submission")
	}
	if len(backend.captchaTyped) != 1 || backend.captchaTyped[0] != "one two" {
		t.Fatalf("unexpected captcha submission %v", backend.captchaTyped)
	}
	if len(backend.recorded) != 1 || backend.recorded[0].token != "w1" {
		t.Fatalf("expected score recorded after passing, got %+v", backend.recorded)
	}
}

func TestFailedCaptchaDoesNotRecord(t *testing.T) {
	backend := newFakeBackend()
	backend.analyses[1].CaptchaRequired = true
	backend.analyses[1].HasCaptchaFlag = true
	backend.captcha = model.Captcha{URIs: []string{"data:,x"}, Token: "c1"}
	m := newTestModel(t, backend, nil)
	press(t, m, key('s'))
	typeText(t, m, "hi there")
	typeText(t, m, "ada")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	typeText(t, m, "nope")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(backend.recorded) != 0 {
		t.Fatalf("expected no record after failed captcha")
	}
	if !strings.Contains(m.notice, "failed") {
		t.Fatalf("expected failure notice, got %q", m.notice)
	}
}

func TestStaleParagraphIsDropped(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), nil)
	old := m.session.Round
	m.initialize()
	m.Update(paragraphMsg{round: old, paragraph: model.Paragraph{Text: "stale words", PToken: "old"}})
	if m.session.PromptedText() == "stale words" {
		t.Fatalf("stale paragraph must not replace the prompt")
	}
	if m.session.InputActive {
		t.Fatalf("input must stay inactive until the current prompt arrives")
	}
}

func TestPigLatinToggleReinitializes(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), nil)
	press(t, m, key('s'))
	typeText(t, m, "hi")
	round := m.session.Round

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	if !m.session.PigLatin || m.session.AutoCorrect {
		t.Fatalf("expected pig latin on and autocorrect off")
	}
	if m.session.Round == round {
		t.Fatalf("expected a new round")
	}
	if got := m.session.PromptedText(); got != "ihay heretay" {
		t.Fatalf("expected translated prompt, got %q", got)
	}
	if m.session.Current != "" || len(m.session.Typed) != 0 || m.entry.Value() != "" {
		t.Fatalf("expected typed state cleared")
	}
}

func TestAutocorrectSwapsCommittedWord(t *testing.T) {
	backend := newFakeBackend()
	backend.paragraph = model.Paragraph{Text: "the cat sat", PToken: "p1"}
	backend.corrections["teh"] = "the"
	m := newTestModel(t, backend, nil)
	press(t, m, key('s'))
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if !m.session.AutoCorrect {
		t.Fatalf("expected autocorrect on")
	}
	typeText(t, m, "teh ")
	if got := m.session.Typed[0]; got != "the" {
		t.Fatalf("expected corrected word, got %q", got)
	}
}

func TestLateCorrectionIgnoredAfterEdit(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), nil)
	press(t, m, key('s'))
	m.session.Typed = []string{"hx"}
	m.Update(correctionMsg{round: m.session.Round, index: 0, original: "hi", corrected: "hey"})
	if m.session.Typed[0] != "hx" {
		t.Fatalf("correction must not overwrite a changed slot")
	}
}

func TestBackspaceRestoresPreviousWord(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), nil)
	press(t, m, key('s'))
	typeText(t, m, "hi ")
	press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if len(m.session.Typed) != 0 || m.entry.Value() != "hi" {
		t.Fatalf("expected previous word restored, typed=%v buffer=%q", m.session.Typed, m.entry.Value())
	}
}

func TestMultiplayerFlow(t *testing.T) {
	backend := newFakeBackend()
	backend.match = model.Match{Start: true, Players: []string{"me", "p2"}, Text: "go now", PToken: "mp"}
	backend.progress = [][]model.PlayerProgress{
		{{Fraction: 1, Elapsed: 2}, {Fraction: 0.9, Elapsed: 3}},
		{{Fraction: 1, Elapsed: 2}, {Fraction: 1, Elapsed: 4}},
	}
	backend.fastest = "go: me\nnow: p2"
	m := newTestModel(t, backend, nil)

	press(t, m, key('m'))
	if m.session.Mode != model.ModeWaiting || m.match.Period() != matchPeriod {
		t.Fatalf("expected waiting with match poll, got %v %v", m.session.Mode, m.match.Period())
	}

	run(t, m, m.requestMatch())
	if m.session.Mode != model.ModeMulti {
		t.Fatalf("expected multi mode, got %v", m.session.Mode)
	}
	if m.session.PromptedText() != "go now" || m.session.Phase.PToken() != "mp" || m.session.NumPlayers != 2 {
		t.Fatalf("expected match adopted, got %+v", m.session)
	}
	if m.match.Period() != progressPeriod || !m.entry.Active() {
		t.Fatalf("expected progress poll and active input")
	}

	typeText(t, m, "go ")
	if backend.reports != 1 {
		t.Fatalf("expected progress report after commit, got %d", backend.reports)
	}

	run(t, m, m.requestProgress())
	if !m.match.Running() || m.session.FastestWords != "" {
		t.Fatalf("poll must continue until every player is done")
	}
	run(t, m, m.requestProgress())
	if m.match.Running() {
		t.Fatalf("expected progress poll stopped")
	}
	if m.session.FastestWords != backend.fastest {
		t.Fatalf("expected fastest words, got %q", m.session.FastestWords)
	}
}

func TestMatchNotStartedUpdatesWaitingCount(t *testing.T) {
	backend := newFakeBackend()
	backend.match = model.Match{Start: false, NumWaiting: 3}
	m := newTestModel(t, backend, nil)
	press(t, m, key('m'))
	run(t, m, m.requestMatch())
	if m.session.Mode != model.ModeWaiting || m.session.NumPlayers != 3 {
		t.Fatalf("expected waiting count 3, got %v %d", m.session.Mode, m.session.NumPlayers)
	}
}

func TestEscFromWaitingStopsPolling(t *testing.T) {
	backend := newFakeBackend()
	backend.match = model.Match{Start: true, Players: []string{"me"}, Text: "x", PToken: "mp"}
	m := newTestModel(t, backend, nil)
	press(t, m, key('m'))
	cmd := m.requestMatch()
	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.match.Running() || m.session.Mode != model.ModeWelcome {
		t.Fatalf("expected match poll stopped and welcome mode")
	}
	run(t, m, cmd)
	if m.session.Mode != model.ModeWelcome {
		t.Fatalf("late match response must be ignored, got %v", m.session.Mode)
	}
}

func TestEscFromSingleStopsReadout(t *testing.T) {
	m, clock := newClockedModel(t, newFakeBackend(), nil)
	press(t, m, key('s'))
	typeText(t, m, "h")
	if !m.readout.Running() {
		t.Fatalf("expected readout running after first keystroke")
	}
	started := m.session.StartTime

	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.session.Mode != model.ModeWelcome || m.readout.Running() {
		t.Fatalf("expected welcome mode with readout stopped, got %v running=%v", m.session.Mode, m.readout.Running())
	}
	if m.entry.Active() {
		t.Fatalf("entry must be inactive on the welcome screen")
	}

	*clock = clock.Add(30 * time.Second)
	press(t, m, key('s'))
	if !m.readout.Running() {
		t.Fatalf("expected readout resumed on return to single")
	}
	if m.session.StartTime != started {
		t.Fatalf("round clock moved on resume: %.1f -> %.1f", started, m.session.StartTime)
	}
}

func TestCancelledMatchmakingKeepsRoundClock(t *testing.T) {
	backend := newFakeBackend()
	backend.match = model.Match{Start: false, NumWaiting: 1}
	m, clock := newClockedModel(t, backend, nil)
	press(t, m, key('s'))
	typeText(t, m, "h")
	started := m.session.StartTime
	if started == 0 {
		t.Fatalf("expected round clock started")
	}

	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	press(t, m, key('m'))
	if m.session.Mode != model.ModeWaiting || m.readout.Running() {
		t.Fatalf("expected waiting mode without readout")
	}
	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	press(t, m, key('s'))

	*clock = clock.Add(30 * time.Second)
	typeText(t, m, "i")
	if m.session.StartTime != started {
		t.Fatalf("round clock restarted mid-round: %.1f -> %.1f", started, m.session.StartTime)
	}
	if !m.readout.Running() {
		t.Fatalf("expected readout running after typing resumes")
	}
	if m.session.Current != "hi" {
		t.Fatalf("expected current word %q, got %q", "hi", m.session.Current)
	}
}

func TestLeaderboardRefetchesOnEveryShow(t *testing.T) {
	backend := newFakeBackend()
	backend.boards[false] = []model.LeaderboardEntry{{Name: "ada", Score: 120}}
	m := newTestModel(t, backend, nil)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if !m.board.visible || len(m.board.entries) != 1 {
		t.Fatalf("expected board loaded, got %+v", m.board.entries)
	}
	staleGen := m.board.gen

	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.board.visible || m.board.entries != nil {
		t.Fatalf("expected entries cleared on hide")
	}

	backend.boards[false] = []model.LeaderboardEntry{{Name: "bob", Score: 90}}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(m.board.entries) != 0 {
		t.Fatalf("expected no stale entries before the fetch lands")
	}
	m.Update(boardMsg{gen: staleGen, entries: []model.LeaderboardEntry{{Name: "old"}}})
	if len(m.board.entries) != 0 {
		t.Fatalf("response from an earlier showing must be dropped")
	}
	run(t, m, cmd)
	if len(m.board.entries) != 1 || m.board.entries[0].Name != "bob" {
		t.Fatalf("expected refetched entries, got %+v", m.board.entries)
	}
}

func TestNetworkErrorShownAndCleared(t *testing.T) {
	backend := newFakeBackend()
	backend.paragraphErr = &api.NetworkError{Endpoint: "request_paragraph", Status: 500, Message: "server down"}
	m := newTestModel(t, backend, nil)
	if !m.isError || m.notice != "server down" {
		t.Fatalf("expected inline notice, got %q", m.notice)
	}

	backend.mu.Lock()
	backend.paragraphErr = nil
	backend.mu.Unlock()
	press(t, m, key('s'))
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.notice != "" || m.isError {
		t.Fatalf("expected notice cleared after success, got %q", m.notice)
	}
	if m.session.PromptedText() != "hi there" {
		t.Fatalf("expected prompt after retry, got %q", m.session.PromptedText())
	}
}

func TestFailedIgnoresNil(t *testing.T) {
	m := NewModel(Options{Backend: newFakeBackend()})
	if m.failed("x", nil) {
		t.Fatalf("nil error must not count as failure")
	}
	if !m.failed("x", errors.New("boom")) || m.notice != "boom" {
		t.Fatalf("expected plain error notice, got %q", m.notice)
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m := NewModel(Options{Backend: newFakeBackend()})
	m.session.Prompted = []string{"a", "b", "c", "d"}
	m.session.Typed = []string{"a", "b"}
	m.session.InputActive = true
	m.footer = newFooterStats([]model.RoundRecord{
		{WPM: 63.8, Accuracy: 96},
		{WPM: 72.4, Accuracy: 97.8},
	})
	out := m.renderFooter()
	if !containsAll(out, []string{"Progress 50%", "Last 72.4 WPM", "97.8%", "All-time 68.1 WPM", "96.9%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// Package session holds the client-side state of a typing session.
package session

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/typerace/internal/model"
)

// LoadingPrompt is shown until the first paragraph arrives.
var LoadingPrompt = []string{"Please", "wait", "-", "loading!"}

// Session is the state tree owned by the coordinator. Async results are
// applied through methods taking the round they were issued for; results
// from an older round are rejected.
type Session struct {
	Mode model.Mode
	ID   string

	Prompted []string
	Typed    []string
	Current  string

	StartTime float64
	CurrTime  float64
	WPM       model.Metric
	Accuracy  model.Metric

	Phase           model.Phase
	CaptchaRequired bool

	PigLatin    bool
	AutoCorrect bool
	InputActive bool
	Finished    bool

	Round uint64

	Players      []string
	Progress     []model.PlayerProgress
	NumPlayers   int
	FastestWords string

	Username string
	Captcha  *model.Captcha
}

// New returns a session in welcome mode awaiting its identity.
func New() *Session {
	return &Session{
		Mode:       model.ModeWelcome,
		Prompted:   append([]string(nil), LoadingPrompt...),
		NumPlayers: 1,
	}
}

// Reset clears the round and returns the new round number.
func (s *Session) Reset() uint64 {
	s.Round++
	s.Typed = nil
	s.Current = ""
	s.WPM = model.Metric{}
	s.Accuracy = model.Metric{}
	s.StartTime = 0
	s.CurrTime = 0
	s.Phase = model.Phase{}
	s.CaptchaRequired = false
	s.Finished = false
	s.InputActive = false
	return s.Round
}

// SetPrompt installs the prompt for round. Prompt text and token may arrive
// separately (pig-latin translation), so phase is only set when non-empty.
func (s *Session) SetPrompt(round uint64, words []string, phase model.Phase) bool {
	if round != s.Round {
		return false
	}
	if words != nil {
		s.Prompted = words
		s.InputActive = true
	}
	if phase.Kind != model.PhaseNone {
		s.Phase = phase
	}
	return true
}

// Commit appends a finished word. It refuses words past the end of the prompt.
func (s *Session) Commit(word string) (int, bool) {
	if len(s.Typed) >= len(s.Prompted) {
		return -1, false
	}
	index := len(s.Typed)
	s.Typed = append(s.Typed, word)
	s.Current = ""
	return index, true
}

// PopPrevWord removes and returns the last committed word, or "" when none.
func (s *Session) PopPrevWord() string {
	if len(s.Typed) == 0 {
		return ""
	}
	last := s.Typed[len(s.Typed)-1]
	s.Typed = s.Typed[:len(s.Typed)-1]
	return last
}

// ApplyCorrection swaps an autocorrected word into place if the slot still
// holds the word the correction was requested for.
func (s *Session) ApplyCorrection(round uint64, index int, original, corrected string) bool {
	if round != s.Round {
		return false
	}
	if index < 0 || index >= len(s.Typed) || s.Typed[index] != original {
		return false
	}
	s.Typed[index] = corrected
	return true
}

// IsCompletion reports whether curr finishes the round: it equals the final
// prompted word and every earlier word is committed.
func (s *Session) IsCompletion(curr string) bool {
	if len(s.Prompted) == 0 {
		return false
	}
	return len(s.Typed)+1 == len(s.Prompted) && s.Prompted[len(s.Prompted)-1] == curr
}

// Start records the round clock.
func (s *Session) Start(now time.Time) {
	s.StartTime = Seconds(now)
	s.CurrTime = s.StartTime
}

// Started reports whether the round clock is running.
func (s *Session) Started() bool {
	return s.StartTime != 0
}

// ApplyAnalysis merges a scoring response. The token phase only moves to its
// direct successor; a response with no next token leaves it unchanged.
func (s *Session) ApplyAnalysis(round uint64, a model.Analysis, now time.Time) bool {
	if round != s.Round {
		return false
	}
	s.WPM = model.NewMetric(a.WPM)
	s.Accuracy = model.NewMetric(a.Accuracy)
	s.CurrTime = Seconds(now)
	if a.Next.Follows(s.Phase) {
		s.Phase = a.Next
		if a.Next.Kind == model.PhaseRecordable && a.HasCaptchaFlag {
			s.CaptchaRequired = a.CaptchaRequired
		}
	}
	return true
}

// TogglePigLatin flips pig-latin and forces autocorrect off.
func (s *Session) TogglePigLatin() {
	s.PigLatin = !s.PigLatin
	s.AutoCorrect = false
}

// ToggleAutoCorrect flips autocorrect and forces pig-latin off.
func (s *Session) ToggleAutoCorrect() {
	s.AutoCorrect = !s.AutoCorrect
	s.PigLatin = false
}

// StartMatch adopts a started multiplayer match and returns the new round.
func (s *Session) StartMatch(m model.Match) uint64 {
	round := s.Reset()
	s.Mode = model.ModeMulti
	s.Players = append([]string(nil), m.Players...)
	s.NumPlayers = len(m.Players)
	s.Prompted = strings.Split(m.Text, " ")
	s.Progress = make([]model.PlayerProgress, len(m.Players))
	s.PigLatin = false
	s.AutoCorrect = false
	s.FastestWords = ""
	s.Phase = model.PromptPhase(m.PToken)
	s.InputActive = true
	return round
}

// LeaveMatch drops multiplayer state.
func (s *Session) LeaveMatch() {
	s.Players = nil
	s.Progress = nil
	s.NumPlayers = 1
	s.FastestWords = ""
}

// ApplyProgress stores the players' progress. allDone is true when the list
// is non-empty and every player has completed the prompt.
func (s *Session) ApplyProgress(round uint64, progress []model.PlayerProgress) (allDone bool, ok bool) {
	if round != s.Round || s.Mode != model.ModeMulti {
		return false, false
	}
	s.Progress = progress
	if len(progress) == 0 {
		return false, true
	}
	for _, p := range progress {
		if p.Fraction != 1.0 {
			return false, true
		}
	}
	return true, true
}

// QualifiesForLeaderboard applies the name-prompt rule to the displayed readouts.
func (s *Session) QualifiesForLeaderboard(threshold float64) bool {
	if !s.WPM.Valid || !s.Accuracy.Valid {
		return false
	}
	return s.WPM.Rounded() >= threshold && s.Accuracy.Rounded() == 100
}

// PromptedText joins the prompt with single spaces.
func (s *Session) PromptedText() string {
	return strings.Join(s.Prompted, " ")
}

// TypedText joins the committed words with single spaces.
func (s *Session) TypedText() string {
	return strings.Join(s.Typed, " ")
}

// ElapsedLabel formats the round time to a tenth of a second.
func (s *Session) ElapsedLabel() string {
	return fmt.Sprintf("%.1f", math.Max(0, s.CurrTime-s.StartTime))
}

// PlayerIndex returns this client's position in the player list, or -1.
func (s *Session) PlayerIndex() int {
	for i, p := range s.Players {
		if p == s.ID {
			return i
		}
	}
	return -1
}

// Seconds converts a time to fractional Unix seconds.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

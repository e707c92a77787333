// Package model defines shared data structures.
package model

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Mode is the top-level session phase.
type Mode int

const (
	ModeWelcome Mode = iota
	ModeWaiting
	ModeSingle
	ModeMulti
)

func (m Mode) String() string {
	switch m {
	case ModeWelcome:
		return "welcome"
	case ModeWaiting:
		return "waiting"
	case ModeSingle:
		return "single"
	case ModeMulti:
		return "multi"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a mode name back to a Mode. Empty input is not an error and yields ok=false.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "welcome":
		return ModeWelcome, true
	case "waiting":
		return ModeWaiting, true
	case "single":
		return ModeSingle, true
	case "multi":
		return ModeMulti, true
	}
	return ModeWelcome, false
}

// Metric is a readout that is either unset or holds a value.
type Metric struct {
	Value float64
	Valid bool
}

// NewMetric returns a set metric.
func NewMetric(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// Rounded returns the value rounded to one decimal, as displayed.
func (m Metric) Rounded() float64 {
	return math.Round(m.Value*10) / 10
}

func (m Metric) String() string {
	if !m.Valid {
		return "None"
	}
	return fmt.Sprintf("%.1f", m.Value)
}

// Config defines client settings after flags, env and file are merged.
type Config struct {
	Server    string
	Timeout   time.Duration
	LogLevel  slog.Level
	LogFile   string
	NoHistory bool
}

// Paragraph is a prompt issued by the backend.
type Paragraph struct {
	Text   string
	PToken string
}

// AnalyzeRequest is the payload of a scoring call.
type AnalyzeRequest struct {
	PromptedText string
	TypedText    string
	StartTime    float64
	EndTime      float64
	PToken       string
	SToken       string
}

// Analysis is the scoring response. Next carries the next token phase, if any.
type Analysis struct {
	WPM             float64
	Accuracy        float64
	Next            Phase
	CaptchaRequired bool
	HasCaptchaFlag  bool
}

// Match is the matchmaking poll response.
type Match struct {
	Start      bool
	Players    []string
	NumWaiting int
	Text       string
	PToken     string
}

// PlayerProgress is one participant's completion at a point in time.
type PlayerProgress struct {
	Fraction float64
	Elapsed  float64
}

// Captcha is a challenge issued after a qualifying score.
type Captcha struct {
	URIs  []string
	Token string
}

// CaptchaResult is the server's verdict on a challenge.
type CaptchaResult struct {
	Passed   bool
	WPM      float64
	Accuracy float64
	Verified float64
}

// LeaderboardEntry is a ranked name/score pair. Rank is the 1-based position.
type LeaderboardEntry struct {
	Name  string
	Score float64
}

// RoundRecord captures a completed round for local history.
type RoundRecord struct {
	ID          int64
	StartedAt   time.Time
	EndedAt     time.Time
	Mode        Mode
	Words       int
	WPM         float64
	Accuracy    float64
	PigLatin    bool
	AutoCorrect bool
}

// HistoryFilter selects rounds for reporting.
type HistoryFilter struct {
	Mode  *Mode
	Since *time.Time
	Last  int
}

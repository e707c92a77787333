package model

// PhaseKind identifies a step of the token hand-off chain.
type PhaseKind int

const (
	PhaseNone PhaseKind = iota
	PhasePrompt
	PhaseScoring
	PhaseRecordable
)

// Phase is the single live token of a round: pToken, then sToken, then wpmToken.
// Holding one token means the previous one is gone.
type Phase struct {
	Kind  PhaseKind
	Token string
}

// PromptPhase wraps a paragraph token.
func PromptPhase(token string) Phase { return Phase{Kind: PhasePrompt, Token: token} }

// ScoringPhase wraps a scoring token.
func ScoringPhase(token string) Phase { return Phase{Kind: PhaseScoring, Token: token} }

// RecordablePhase wraps a record-eligibility token.
func RecordablePhase(token string) Phase { return Phase{Kind: PhaseRecordable, Token: token} }

// PToken returns the paragraph token, or "" outside the prompt phase.
func (p Phase) PToken() string {
	if p.Kind == PhasePrompt {
		return p.Token
	}
	return ""
}

// SToken returns the scoring token, or "" outside the scoring phase.
func (p Phase) SToken() string {
	if p.Kind == PhaseScoring {
		return p.Token
	}
	return ""
}

// WPMToken returns the record token, or "" outside the recordable phase.
func (p Phase) WPMToken() string {
	if p.Kind == PhaseRecordable {
		return p.Token
	}
	return ""
}

// Follows reports whether p is the direct successor of prev in the chain.
func (p Phase) Follows(prev Phase) bool {
	switch p.Kind {
	case PhaseScoring:
		return prev.Kind == PhasePrompt
	case PhaseRecordable:
		return prev.Kind == PhaseScoring
	default:
		return false
	}
}

func (k PhaseKind) String() string {
	switch k {
	case PhasePrompt:
		return "prompt"
	case PhaseScoring:
		return "scoring"
	case PhaseRecordable:
		return "recordable"
	default:
		return "none"
	}
}

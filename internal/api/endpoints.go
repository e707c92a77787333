package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/verte-zerg/typerace/internal/model"
)

// RequestID asks the backend for this client's identity.
func (c *Client) RequestID(ctx context.Context) (string, error) {
	var raw any
	if err := c.post(ctx, "request_id", nil, &raw); err != nil {
		return "", err
	}
	id := stringify(raw)
	if id == "" {
		return "", fmt.Errorf("request_id returned no identity")
	}
	return id, nil
}

// RequestParagraph fetches a new prompt and its paragraph token.
func (c *Client) RequestParagraph(ctx context.Context) (model.Paragraph, error) {
	var payload struct {
		Paragraph string `json:"paragraph"`
		PToken    string `json:"pToken"`
	}
	if err := c.post(ctx, "request_paragraph", url.Values{}, &payload); err != nil {
		return model.Paragraph{}, err
	}
	return model.Paragraph{Text: payload.Paragraph, PToken: payload.PToken}, nil
}

// TranslateToPigLatin asks the backend to translate text.
func (c *Client) TranslateToPigLatin(ctx context.Context, text string) (string, error) {
	var out string
	if err := c.post(ctx, "translate_to_pig_latin", url.Values{"text": {text}}, &out); err != nil {
		return "", err
	}
	return out, nil
}

type analysisPayload struct {
	WPM             float64 `json:"wpm"`
	Accuracy        float64 `json:"accuracy"`
	SToken          *string `json:"sToken"`
	WPMToken        *string `json:"wpmToken"`
	CaptchaRequired *bool   `json:"captchaRequired"`
}

// Analyze scores the typed text. The next token, if the server issued one,
// is returned as a Phase.
func (c *Client) Analyze(ctx context.Context, req model.AnalyzeRequest) (model.Analysis, error) {
	form := url.Values{
		"promptedText": {req.PromptedText},
		"typedText":    {req.TypedText},
		"startTime":    {formatFloat(req.StartTime)},
		"endTime":      {formatFloat(req.EndTime)},
		"pToken":       {req.PToken},
		"sToken":       {req.SToken},
	}
	var payload analysisPayload
	if err := c.post(ctx, "analyze", form, &payload); err != nil {
		return model.Analysis{}, err
	}
	out := model.Analysis{WPM: payload.WPM, Accuracy: payload.Accuracy}
	switch {
	case payload.SToken != nil:
		out.Next = model.ScoringPhase(*payload.SToken)
	case payload.WPMToken != nil:
		out.Next = model.RecordablePhase(*payload.WPMToken)
		if payload.CaptchaRequired != nil {
			out.HasCaptchaFlag = true
			out.CaptchaRequired = *payload.CaptchaRequired
		}
	}
	return out, nil
}

// Autocorrect returns the backend's correction for word.
func (c *Client) Autocorrect(ctx context.Context, word string) (string, error) {
	var out string
	if err := c.post(ctx, "autocorrect", url.Values{"word": {word}}, &out); err != nil {
		return "", err
	}
	return out, nil
}

// ReportProgress sends this player's typed text during a match.
func (c *Client) ReportProgress(ctx context.Context, id, typed, prompt string) error {
	form := url.Values{"id": {id}, "typed": {typed}, "prompt": {prompt}}
	return c.post(ctx, "report_progress", form, nil)
}

// RequestProgress fetches [fraction, elapsed] for each target, in order.
func (c *Client) RequestProgress(ctx context.Context, targets []string) ([]model.PlayerProgress, error) {
	var rows [][]float64
	if err := c.post(ctx, "request_progress", url.Values{"targets[]": targets}, &rows); err != nil {
		return nil, err
	}
	out := make([]model.PlayerProgress, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("request_progress row %d has %d fields", i, len(row))
		}
		out = append(out, model.PlayerProgress{Fraction: row[0], Elapsed: row[1]})
	}
	return out, nil
}

// FastestWords fetches the end-of-match summary text.
func (c *Client) FastestWords(ctx context.Context, targets []string, prompt string) (string, error) {
	form := url.Values{"targets[]": targets, "prompt": {prompt}}
	var raw any
	if err := c.post(ctx, "fastest_words", form, &raw); err != nil {
		return "", err
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}
	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format fastest words: %w", err)
	}
	return string(pretty), nil
}

// RequestMatch polls matchmaking for id.
func (c *Client) RequestMatch(ctx context.Context, id string) (model.Match, error) {
	var payload struct {
		Start      bool   `json:"start"`
		Players    []any  `json:"players"`
		NumWaiting int    `json:"numWaiting"`
		Text       string `json:"text"`
		PToken     string `json:"pToken"`
	}
	if err := c.post(ctx, "request_match", url.Values{"id": {id}}, &payload); err != nil {
		return model.Match{}, err
	}
	players := make([]string, 0, len(payload.Players))
	for _, p := range payload.Players {
		players = append(players, stringify(p))
	}
	return model.Match{
		Start:      payload.Start,
		Players:    players,
		NumWaiting: payload.NumWaiting,
		Text:       payload.Text,
		PToken:     payload.PToken,
	}, nil
}

// WPMThreshold returns the minimum WPM that places on the leaderboard.
func (c *Client) WPMThreshold(ctx context.Context) (float64, error) {
	var raw any
	if err := c.post(ctx, "wpm_threshold", nil, &raw); err != nil {
		return 0, err
	}
	// Some deployments return the database row instead of the bare value.
	if row, ok := raw.([]any); ok {
		if len(row) == 0 {
			return 0, fmt.Errorf("wpm_threshold returned an empty row")
		}
		raw = row[0]
	}
	return toFloat(raw)
}

// RecordWPM submits a recorded score for username.
func (c *Client) RecordWPM(ctx context.Context, username string, wpm float64, wpmToken string) error {
	form := url.Values{
		"username": {username},
		"wpm":      {strconv.FormatFloat(wpm, 'f', 1, 64)},
		"wpmToken": {wpmToken},
	}
	return c.post(ctx, "record_wpm", form, nil)
}

// GetCaptcha fetches a CAPTCHA challenge.
func (c *Client) GetCaptcha(ctx context.Context) (model.Captcha, error) {
	var payload struct {
		CaptchaURIs  []string `json:"captchaUris"`
		CaptchaToken string   `json:"captchaToken"`
	}
	if err := c.get(ctx, "get_captcha", &payload); err != nil {
		return model.Captcha{}, err
	}
	return model.Captcha{URIs: payload.CaptchaURIs, Token: payload.CaptchaToken}, nil
}

// SubmitCaptcha sends the typed challenge words for server-side verification.
func (c *Client) SubmitCaptcha(ctx context.Context, captchaToken, typed string) (model.CaptchaResult, error) {
	form := url.Values{"captchaToken": {captchaToken}, "typedCaptcha": {typed}}
	var payload struct {
		Passed   bool    `json:"passed"`
		WPM      float64 `json:"wpm"`
		Accuracy float64 `json:"accuracy"`
		Verified float64 `json:"verified"`
	}
	if err := c.post(ctx, "submit_captcha", form, &payload); err != nil {
		return model.CaptchaResult{}, err
	}
	return model.CaptchaResult{
		Passed:   payload.Passed,
		WPM:      payload.WPM,
		Accuracy: payload.Accuracy,
		Verified: payload.Verified,
	}, nil
}

// Leaderboard fetches the ranked board, or the memeboard when memes is set.
// Entries keep server order.
func (c *Client) Leaderboard(ctx context.Context, memes bool) ([]model.LeaderboardEntry, error) {
	endpoint := "leaderboard"
	if memes {
		endpoint = "memeboard"
	}
	var rows [][]any
	if err := c.post(ctx, endpoint, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]model.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%s row %d has %d fields", endpoint, i, len(row))
		}
		score, err := toFloat(row[1])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", endpoint, i, err)
		}
		out = append(out, model.LeaderboardEntry{Name: stringify(row[0]), Score: score})
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

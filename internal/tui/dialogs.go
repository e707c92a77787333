package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typerace/internal/model"
)

const maxNameLength = 32

type namePrompt struct {
	input textinput.Model
}

func newNameInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Enter username"
	input.CharLimit = maxNameLength
	return input
}

func (m *Model) openNamePrompt() tea.Cmd {
	m.naming = &namePrompt{input: newNameInput()}
	return m.naming.input.Focus()
}

func (m *Model) updateNamePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		// Declined: the score is not submitted.
		m.naming = nil
		return nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.naming.input.Value())
		if name == "" {
			return nil
		}
		m.naming = nil
		m.session.Username = name
		if m.session.CaptchaRequired {
			return m.captchaCmd()
		}
		return m.submitUsername()
	}
	var cmd tea.Cmd
	m.naming.input, cmd = m.naming.input.Update(msg)
	return cmd
}

// submitUsername records the score with the round's wpmToken, then forgets
// both so the token is never reused.
func (m *Model) submitUsername() tea.Cmd {
	cmd := m.recordCmd()
	m.session.Username = ""
	if m.session.Phase.Kind == model.PhaseRecordable {
		m.session.Phase = model.Phase{}
	}
	return cmd
}

func (p *namePrompt) view(captchaRequired bool) string {
	lines := []string{
		titleStyle.Render("High Score"),
		"Your WPM is fast enough to place on the leaderboard!",
		"Enter a name to associate with your score:",
		p.input.View(),
	}
	if captchaRequired {
		lines = append(lines, noticeStyle.Render("Because of your high WPM you will need to complete a short CAPTCHA first."))
		lines = append(lines, footerStyle.Render("enter captcha  esc don't include my score"))
	} else {
		lines = append(lines, footerStyle.Render("enter submit  esc don't include my score"))
	}
	return modalStyle.Render(strings.Join(lines, "\n"))
}

type captchaDialog struct {
	challenge model.Captcha
	input     textinput.Model
	images    *captchaImages
}

func (m *Model) handleCaptcha(msg captchaMsg) tea.Cmd {
	if msg.round != m.session.Round {
		return nil
	}
	if m.failed("get_captcha", msg.err) {
		return nil
	}
	challenge := msg.captcha
	m.session.Captcha = &challenge
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "type the words shown"
	m.captcha = &captchaDialog{
		challenge: challenge,
		input:     input,
		images:    newCaptchaImages(challenge.URIs),
	}
	return m.captcha.input.Focus()
}

func (m *Model) updateCaptcha(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.captcha = nil
		m.session.Captcha = nil
		return nil
	case tea.KeyEnter:
		token := m.captcha.challenge.Token
		typed := strings.Join(strings.Fields(m.captcha.input.Value()), " ")
		// The challenge is single-use.
		m.captcha = nil
		m.session.Captcha = nil
		return m.submitCaptchaCmd(token, typed)
	}
	var cmd tea.Cmd
	m.captcha.input, cmd = m.captcha.input.Update(msg)
	return cmd
}

func (m *Model) handleCaptchaResult(msg captchaResultMsg) tea.Cmd {
	if msg.round != m.session.Round {
		return nil
	}
	if m.failed("submit_captcha", msg.err) {
		return nil
	}
	if !msg.result.Passed {
		m.session.Username = ""
		m.info("CAPTCHA failed. Your score was not recorded.")
		return nil
	}
	m.info("CAPTCHA passed.")
	return m.submitUsername()
}

// currentImage is the challenge image for the next word to type.
func (d *captchaDialog) currentImage() int {
	n := len(strings.Fields(d.input.Value()))
	if strings.HasSuffix(d.input.Value(), " ") || n == 0 {
		return min(n, len(d.challenge.URIs)-1)
	}
	return min(n-1, len(d.challenge.URIs)-1)
}

func (d *captchaDialog) view(width int) string {
	lines := []string{titleStyle.Render("CAPTCHA")}
	if idx := d.currentImage(); idx >= 0 {
		lines = append(lines, d.images.render(idx, width))
	}
	lines = append(lines,
		"Type the words you see, separated by spaces:",
		d.input.View(),
		footerStyle.Render("enter submit  esc cancel"),
	)
	return modalStyle.Render(strings.Join(lines, "\n"))
}

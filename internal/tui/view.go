package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/stats"
)

// View implements tea.Model.
func (m *Model) View() string {
	if overlay := m.overlay(); overlay != "" {
		if m.width == 0 || m.height == 0 {
			return overlay
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
	}

	width := m.contentWidth()
	sections := []string{
		titleStyle.Render("typerace") + footerStyle.Render("  "+m.session.Mode.String()),
		m.renderIndicators(),
	}
	if m.session.Mode == model.ModeMulti {
		sections = append(sections, m.renderProgressBars(width))
	}
	prompt := buildPromptRunes(m.session.Prompted, m.session.Typed, m.session.Current, m.session.InputActive)
	sections = append(sections,
		lipgloss.NewStyle().Width(width).Render(wrapStyledRunes(prompt, width)),
		m.entry.View(m.expectedWord()),
		m.renderOptions(),
	)
	if m.notice != "" {
		style := noticeStyle
		if m.isError {
			style = errorStyle
		}
		sections = append(sections, style.Render(m.notice))
	}
	if m.session.Mode == model.ModeMulti && m.session.FastestWords != "" {
		sections = append(sections, titleStyle.Render("Fastest words"), m.fastest.View())
	}
	content := strings.Join(sections, "\n\n")

	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) overlay() string {
	switch {
	case m.captcha != nil:
		return m.captcha.view(m.contentWidth())
	case m.naming != nil:
		return m.naming.view(m.session.CaptchaRequired)
	case m.board.visible:
		return m.board.view()
	case m.session.Mode == model.ModeWelcome:
		return m.renderWelcome()
	case m.session.Mode == model.ModeWaiting:
		return m.renderWaiting()
	}
	return ""
}

func (m *Model) renderWelcome() string {
	lines := []string{
		titleStyle.Render("Welcome to typerace"),
		"",
		"s  single player",
	}
	if m.session.ID != "" {
		lines = append(lines, "m  multiplayer")
	} else {
		lines = append(lines, footerStyle.Render("m  multiplayer (connecting...)"))
	}
	lines = append(lines, "", footerStyle.Render("ctrl+l leaderboard  ctrl+e memeboard  ctrl+c quit"))
	if m.notice != "" && m.isError {
		lines = append(lines, errorStyle.Render(m.notice))
	}
	return modalStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderWaiting() string {
	lines := []string{
		m.spinner.View() + " Waiting for players",
		fmt.Sprintf("%d player(s) waiting", m.session.NumPlayers),
		"",
		footerStyle.Render("esc cancel"),
	}
	return modalStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderIndicators() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		indicatorStyle.Render("WPM: "+m.session.WPM.String()),
		indicatorStyle.Render("Accuracy: "+m.session.Accuracy.String()),
		indicatorStyle.Render("Time: "+m.session.ElapsedLabel()),
	)
}

// renderProgressBars draws one bar per player, marking this client's row.
func (m *Model) renderProgressBars(width int) string {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(max(10, width-24)))
	me := m.session.PlayerIndex()
	lines := make([]string, 0, len(m.session.Progress))
	for i, p := range m.session.Progress {
		label := fmt.Sprintf("Player %d", i+1)
		if i == me {
			label = "You"
		}
		lines = append(lines, fmt.Sprintf("%-9s %s %5.1fs", label, bar.ViewAs(p.Fraction), p.Elapsed))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderOptions() string {
	toggle := func(key, name string, on bool) string {
		state := footerStyle.Render("off")
		if on {
			state = onStyle.Render("on")
		}
		return fmt.Sprintf("%s %s [%s]", key, name, state)
	}
	parts := []string{}
	if m.session.Mode == model.ModeSingle {
		parts = append(parts,
			toggle("ctrl+p", "pig latin", m.session.PigLatin),
			toggle("ctrl+t", "autocorrect", m.session.AutoCorrect),
		)
	}
	parts = append(parts, "ctrl+r restart", "ctrl+l leaderboard", "ctrl+e memeboard", "esc back")
	return footerStyle.Render(strings.Join(parts, "  "))
}

func (m *Model) expectedWord() string {
	if i := len(m.session.Typed); i < len(m.session.Prompted) {
		return m.session.Prompted[i]
	}
	return ""
}

// footerStats summarizes local history for the footer.
type footerStats struct {
	hasLast bool
	last    model.RoundRecord
	rounds  []model.RoundRecord
}

func newFooterStats(rounds []model.RoundRecord) footerStats {
	f := footerStats{rounds: rounds}
	if len(rounds) > 0 {
		f.hasLast = true
		f.last = rounds[len(rounds)-1]
	}
	return f
}

func (f *footerStats) add(r model.RoundRecord) {
	f.rounds = append(f.rounds, r)
	f.last = r
	f.hasLast = true
}

func (m *Model) renderFooter() string {
	progressPct := 0
	if n := len(m.session.Prompted); n > 0 && (m.session.InputActive || m.session.Finished) {
		progressPct = int(float64(len(m.session.Typed)) / float64(n) * 100)
	}
	segments := []string{fmt.Sprintf("Progress %d%%", progressPct)}
	if m.footer.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", m.footer.last.WPM, m.footer.last.Accuracy))
	}
	if len(m.footer.rounds) > 0 {
		sum := stats.RoundMetrics(m.footer.rounds)
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", sum.AvgWPM, sum.AvgAccuracy))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

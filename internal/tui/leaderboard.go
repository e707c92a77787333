package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/stats"
)

const boardHeight = 12

// leaderboard fetches its entries once per showing and forgets them when
// hidden, so reopening never flashes stale data.
type leaderboard struct {
	visible bool
	memes   bool
	loading bool
	gen     uint64
	entries []model.LeaderboardEntry
	table   table.Model
}

func newLeaderboard() leaderboard {
	t := table.New(
		table.WithColumns(boardColumns(60)),
		table.WithHeight(boardHeight),
		table.WithFocused(true),
	)
	t.SetStyles(boardStyles())
	return leaderboard{table: t}
}

func boardColumns(width int) []table.Column {
	name := max(8, width-18)
	return []table.Column{
		{Title: "Rank", Width: 5},
		{Title: "Name", Width: name},
		{Title: "WPM", Width: 8},
	}
}

func boardStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// show opens the board and returns the generation its fetch must carry.
func (b *leaderboard) show(memes bool) uint64 {
	b.gen++
	b.visible = true
	b.memes = memes
	b.loading = true
	b.entries = nil
	b.table.SetRows(nil)
	return b.gen
}

func (b *leaderboard) hide() {
	b.gen++
	b.visible = false
	b.loading = false
	b.entries = nil
	b.table.SetRows(nil)
}

func (b *leaderboard) apply(msg boardMsg) {
	if !b.visible || msg.gen != b.gen {
		return
	}
	b.loading = false
	b.entries = msg.entries
	rows := make([]table.Row, 0, len(msg.entries))
	for _, cells := range stats.BoardRows(msg.entries) {
		rows = append(rows, table.Row(cells))
	}
	b.table.SetRows(rows)
	b.table.GotoTop()
}

func (b *leaderboard) setWidth(width int) {
	b.table.SetColumns(boardColumns(width))
	b.table.SetWidth(width)
}

func (b *leaderboard) title() string {
	if b.memes {
		return "Memeboard"
	}
	return "Leaderboard"
}

func (b *leaderboard) view() string {
	lines := []string{titleStyle.Render(b.title())}
	switch {
	case b.loading:
		lines = append(lines, noticeStyle.Render("Loading..."))
	case len(b.entries) == 0:
		lines = append(lines, noticeStyle.Render("No entries."))
	default:
		lines = append(lines, b.table.View())
	}
	lines = append(lines, footerStyle.Render("ctrl+l leaderboard  ctrl+e memeboard  esc close"))
	return modalStyle.Render(strings.Join(lines, "\n"))
}

// showBoard opens the requested board. Asking for the board that is already
// open closes it.
func (m *Model) showBoard(memes bool) tea.Cmd {
	if m.board.visible && m.board.memes == memes {
		m.board.hide()
		return nil
	}
	gen := m.board.show(memes)
	return m.boardCmd(gen, memes)
}

func (m *Model) updateBoard(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.board.hide()
		return nil
	case tea.KeyCtrlL:
		return m.showBoard(false)
	case tea.KeyCtrlE:
		return m.showBoard(true)
	}
	var cmd tea.Cmd
	m.board.table, cmd = m.board.table.Update(msg)
	return cmd
}

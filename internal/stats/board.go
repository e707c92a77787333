package stats

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/typerace/internal/model"
)

const minNameWidth = 8

// RenderBoard prints a ranked leaderboard. Names wider than the space left
// by width are truncated; width <= 0 disables truncation.
func RenderBoard(w io.Writer, title string, entries []model.LeaderboardEntry, width int) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries.")
		return err
	}
	rows := BoardRows(entries)
	if width > 0 {
		nameWidth := width - rankScoreWidth(rows) - 2
		if nameWidth < minNameWidth {
			nameWidth = minNameWidth
		}
		for i := range rows {
			rows[i][1] = runewidth.Truncate(rows[i][1], nameWidth, "…")
		}
	}
	lines := formatTable([]string{"Rank", "Name", "WPM"}, rows, map[int]bool{0: true, 2: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// BoardRows formats entries as rank/name/score cells. Rank is the 1-based
// position in server order.
func BoardRows(entries []model.LeaderboardEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Name,
			fmt.Sprintf("%.1f", e.Score),
		})
	}
	return rows
}

func rankScoreWidth(rows [][]string) int {
	rank, score := len("Rank"), len("WPM")
	for _, row := range rows {
		rank = max(rank, displayWidth(row[0]))
		score = max(score, displayWidth(row[2]))
	}
	return rank + score
}

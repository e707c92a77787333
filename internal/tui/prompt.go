package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildPromptRunes styles the prompt word by word. Committed words are
// correct or incorrect as a whole; the current word is coloured per rune
// against the in-progress input, with the cursor on the next rune to type.
func buildPromptRunes(prompted, typed []string, current string, active bool) []styledRune {
	out := make([]styledRune, 0, len(strings.Join(prompted, " ")))
	for i, word := range prompted {
		if i > 0 {
			out = append(out, styledRune{s: pendingStyle.Render(" "), width: 1, isSpace: true})
		}
		if i == len(typed) && active {
			out = append(out, currentWordRunes(word, current)...)
			continue
		}
		style := pendingStyle
		if i < len(typed) {
			style = incorrectStyle
			if typed[i] == word {
				style = correctStyle
			}
		}
		for _, r := range word {
			out = append(out, styledRune{s: style.Render(string(r)), width: runewidth.RuneWidth(r)})
		}
	}
	return out
}

func currentWordRunes(word, current string) []styledRune {
	input := []rune(current)
	out := make([]styledRune, 0, len(word))
	for j, r := range []rune(word) {
		style := currentWordStyle
		switch {
		case j < len(input) && input[j] == r:
			style = correctStyle
		case j < len(input):
			style = incorrectStyle
		case j == len(input):
			style = cursorStyle
		}
		out = append(out, styledRune{s: style.Render(string(r)), width: runewidth.RuneWidth(r)})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits within width,
// falling back to a hard break for words longer than a line.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}

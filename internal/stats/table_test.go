package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Rank", "Name", "WPM"}
	rows := [][]string{
		{"1", "ada", "97.5"},
		{"12", "grace", "8.0"},
	}
	rightAlign := map[int]bool{0: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Rank Name   WPM" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "   1 ada   97.5" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "  12 grace  8.0" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "WPM"}, [][]string{{"日本", "1.0"}}, nil)
	if lines[1] != "日本 1.0" {
		t.Fatalf("expected wide runes to count as two cells, got %q", lines[1])
	}
}

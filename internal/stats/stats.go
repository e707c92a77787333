// Package stats contains history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/typerace/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a set of rounds.
type Summary struct {
	Rounds      int
	AvgWPM      float64
	BestWPM     float64
	AvgAccuracy float64
	Words       int
}

// RoundMetrics summarizes rounds. An empty input yields a zero Summary.
func RoundMetrics(rounds []model.RoundRecord) Summary {
	if len(rounds) == 0 {
		return Summary{}
	}
	var sum Summary
	var totalWPM, totalAcc float64
	for _, r := range rounds {
		totalWPM += r.WPM
		totalAcc += r.Accuracy
		sum.Words += r.Words
		if r.WPM > sum.BestWPM {
			sum.BestWPM = r.WPM
		}
	}
	sum.Rounds = len(rounds)
	sum.AvgWPM = totalWPM / float64(len(rounds))
	sum.AvgAccuracy = totalAcc / float64(len(rounds))
	return sum
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary block for rounds.
func RenderSummary(w io.Writer, rounds []model.RoundRecord) error {
	if len(rounds) == 0 {
		_, err := fmt.Fprintln(w, "No rounds found.")
		return err
	}
	sum := RoundMetrics(rounds)
	lines := []string{
		"Summary",
		fmt.Sprintf("Rounds: %d", sum.Rounds),
		fmt.Sprintf("Words: %d", sum.Words),
		fmt.Sprintf("Avg WPM: %.1f", sum.AvgWPM),
		fmt.Sprintf("Best WPM: %.1f", sum.BestWPM),
		fmt.Sprintf("Avg Accuracy: %.1f%%", sum.AvgAccuracy),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints WPM and accuracy sparklines smoothed over window,
// keeping only the most recent points that fit in width.
func RenderCurves(w io.Writer, rounds []model.RoundRecord, window, width int) error {
	if len(rounds) == 0 {
		return nil
	}
	wpms := make([]float64, len(rounds))
	accs := make([]float64, len(rounds))
	for i, r := range rounds {
		wpms[i] = r.WPM
		accs[i] = r.Accuracy
	}
	wpms = MovingAverage(wpms, window)
	accs = MovingAverage(accs, window)

	const label = "Accuracy "
	if span := width - len(label); width > 0 && span > 0 && len(wpms) > span {
		wpms = wpms[len(wpms)-span:]
		accs = accs[len(accs)-span:]
	}
	if _, err := fmt.Fprintf(w, "%-9s%s\n", "WPM", Sparkline(wpms)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-9s%s\n\n", "Accuracy", Sparkline(accs)); err != nil {
		return err
	}
	return nil
}

// RenderHistory prints one aligned row per round.
func RenderHistory(w io.Writer, rounds []model.RoundRecord) error {
	if len(rounds) == 0 {
		return nil
	}
	headers := []string{"#", "Ended", "Mode", "Words", "WPM", "Accuracy", "Options"}
	rows := make([][]string, 0, len(rounds))
	for _, r := range rounds {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.ID),
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			r.Mode.String(),
			fmt.Sprintf("%d", r.Words),
			fmt.Sprintf("%.1f", r.WPM),
			fmt.Sprintf("%.1f%%", r.Accuracy),
			optionsLabel(r),
		})
	}
	rightAlign := map[int]bool{0: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func optionsLabel(r model.RoundRecord) string {
	switch {
	case r.PigLatin:
		return "pig latin"
	case r.AutoCorrect:
		return "autocorrect"
	default:
		return "-"
	}
}

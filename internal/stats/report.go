package stats

import (
	"context"

	"github.com/verte-zerg/typerace/internal/model"
)

// RoundLister is the read side of the history store.
type RoundLister interface {
	ListRounds(ctx context.Context, filter model.HistoryFilter) ([]model.RoundRecord, error)
}

// Report contains precomputed data for history rendering.
type Report struct {
	Rounds  []model.RoundRecord
	Summary Summary
	// Window is the trailing subset used for the "recent" summary.
	Window        []model.RoundRecord
	WindowSummary Summary
}

// BuildReport loads and prepares data for history rendering.
func BuildReport(ctx context.Context, st RoundLister, filter model.HistoryFilter, window int) (Report, error) {
	rounds, err := st.ListRounds(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	recent := lastRounds(rounds, window)
	return Report{
		Rounds:        rounds,
		Summary:       RoundMetrics(rounds),
		Window:        recent,
		WindowSummary: RoundMetrics(recent),
	}, nil
}

func lastRounds(rounds []model.RoundRecord, window int) []model.RoundRecord {
	if window <= 0 || len(rounds) <= window {
		return rounds
	}
	return rounds[len(rounds)-window:]
}

package feature

import (
	"fmt"
	"time"
)

// Stat names the corpus-wide summaries encoders are fit from.
const (
	StatFantasyPoints   = "fantasy_points"
	StatMinutes         = "minutes"
	StatPointsPerMinute = "fantasy_points_per_minute"
	StatPlusMinus       = "plus_minus"
	StatAllowed         = "allowed_to_position"
	StatSalary          = "salary"
	StatHeight          = "height"
	StatWeight          = "weight"
	StatAge             = "age"
	StatExperience      = "experience"
)

// Summary holds the corpus-wide statistics one encoder is fit from,
// computed over valid player-seasons only.
type Summary struct {
	Mean float64
	Min  float64
	Max  float64
}

func (s Summary) Validate() error {
	if s.Max <= s.Min {
		return fmt.Errorf("summary max=%v must be greater than min=%v", s.Max, s.Min)
	}
	return nil
}

// SummarySet maps stat names to their fitted summaries.
type SummarySet map[string]Summary

func (set SummarySet) Get(stat string) (Summary, error) {
	summary, ok := set[stat]
	if !ok {
		return Summary{}, fmt.Errorf("no summary statistics for %q", stat)
	}
	return summary, nil
}

// ComputedRow is the cached rolling-feature payload for one game-player.
// Rows are derived data: idempotent to recompute and safe to delete.
type ComputedRow struct {
	GameID     string
	PlayerID   string
	Payload    []byte
	ComputedAt time.Time
}

package stats

// DraftKings NBA scoring weights.
const (
	weightThrees    = 0.5
	weightRebounds  = 1.25
	weightAssists   = 1.5
	weightSteals    = 2.0
	weightBlocks    = 2.0
	weightTurnovers = 0.5

	// categoryBonus is added once when two of the five counting categories
	// reach double digits and again when a third does.
	categoryBonus    = 1.5
	doubleDigitFloor = 10
	secondsPerMinute = 60.0
)

// FantasyScore derives the single per-game fantasy score for a stat line.
// It returns nil when playing time is unknown and zero when the player did
// not enter the game. Individual counting stats contribute zero when absent.
func FantasyScore(line StatLine) *float64 {
	if line.SecondsPlayed == nil {
		return nil
	}
	if *line.SecondsPlayed == 0 {
		zero := 0.0
		return &zero
	}

	score := float64(line.Points) +
		weightThrees*float64(line.Threes) +
		weightRebounds*float64(line.Rebounds) +
		weightAssists*float64(line.Assists) +
		weightSteals*float64(line.Steals) +
		weightBlocks*float64(line.Blocks) -
		weightTurnovers*float64(line.Turnovers)

	doubleDigit := 0
	for _, v := range []int{line.Points, line.Rebounds, line.Assists, line.Steals, line.Blocks} {
		if v >= doubleDigitFloor {
			doubleDigit++
		}
	}
	if doubleDigit >= 2 {
		score += categoryBonus
	}
	if doubleDigit >= 3 {
		score += categoryBonus
	}

	return &score
}

// FantasyPointsPerMinute is the fantasy score scaled by minutes played,
// with the same unknown/zero playing-time semantics as FantasyScore.
func FantasyPointsPerMinute(line StatLine) *float64 {
	if line.SecondsPlayed == nil {
		return nil
	}
	if *line.SecondsPlayed == 0 {
		zero := 0.0
		return &zero
	}

	score := FantasyScore(line)
	rate := *score / (float64(*line.SecondsPlayed) / secondsPerMinute)
	return &rate
}

// MinutesPlayed converts recorded seconds to minutes, nil when unknown.
func MinutesPlayed(line StatLine) *float64 {
	if line.SecondsPlayed == nil {
		return nil
	}
	minutes := float64(*line.SecondsPlayed) / secondsPerMinute
	return &minutes
}

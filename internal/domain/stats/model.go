package stats

import "time"

// StatLine is one player's counting stats for one game. Lines are immutable
// once recorded. A nil SecondsPlayed means playing time is unknown; zero
// means the player did not enter the game.
type StatLine struct {
	SecondsPlayed     *int
	Points            int
	Threes            int
	Rebounds          int
	Assists           int
	Steals            int
	Blocks            int
	Turnovers         int
	PlusMinus         int
	FieldGoalAttempts int
	FreeThrowAttempts int
}

// GameLine joins a stat line with the game context needed to build
// rolling-window features from it.
type GameLine struct {
	GameID     string
	PlayerID   string
	TeamID     string
	OpponentID string
	Season     int
	GameDate   time.Time
	Home       bool
	Starter    bool
	Line       StatLine
}

// AllowedTotal is the fantasy production an opponent conceded to one
// position across a single game.
type AllowedTotal struct {
	GameID   string
	GameDate time.Time
	Points   float64
}

// PlayerSeason identifies a (season, player) pair that passed the
// minimum-sample validity filter.
type PlayerSeason struct {
	Season   int
	PlayerID string
}

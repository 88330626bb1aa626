package postgres

import (
	"database/sql"
	"time"
)

type teamTableModel struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Abbreviation string `db:"abbreviation"`
}

type playerTableModel struct {
	ID           string    `db:"id"`
	TeamID       string    `db:"team_id"`
	Name         string    `db:"name"`
	Position     string    `db:"position"`
	HeightInches int       `db:"height_inches"`
	WeightPounds int       `db:"weight_pounds"`
	BirthDate    time.Time `db:"birth_date"`
	RookieSeason int       `db:"rookie_season"`
}

type gameTableModel struct {
	ID         string    `db:"id"`
	Season     int       `db:"season"`
	GameDate   time.Time `db:"game_date"`
	HomeTeamID string    `db:"home_team_id"`
	AwayTeamID string    `db:"away_team_id"`
	HomeScore  int       `db:"home_score"`
	AwayScore  int       `db:"away_score"`
}

type statLineTableModel struct {
	GameID            string        `db:"game_id"`
	PlayerID          string        `db:"player_id"`
	TeamID            string        `db:"team_id"`
	OpponentID        string        `db:"opponent_id"`
	Season            int           `db:"season"`
	GameDate          time.Time     `db:"game_date"`
	Home              bool          `db:"home"`
	Starter           bool          `db:"starter"`
	SecondsPlayed     sql.NullInt64 `db:"seconds_played"`
	Points            int           `db:"points"`
	Threes            int           `db:"threes"`
	Rebounds          int           `db:"rebounds"`
	Assists           int           `db:"assists"`
	Steals            int           `db:"steals"`
	Blocks            int           `db:"blocks"`
	Turnovers         int           `db:"turnovers"`
	PlusMinus         int           `db:"plus_minus"`
	FieldGoalAttempts int           `db:"field_goal_attempts"`
	FreeThrowAttempts int           `db:"free_throw_attempts"`
}

// Payload is a string because lib/pq encodes []byte parameters as bytea,
// which the jsonb column rejects.
type computedFeatureTableModel struct {
	GameID     string    `db:"game_id"`
	PlayerID   string    `db:"player_id"`
	Payload    string    `db:"payload"`
	ComputedAt time.Time `db:"computed_at"`
}

package game

import "time"

// Venue restricts a history query to one side of the schedule.
type Venue string

const (
	VenueAny  Venue = "any"
	VenueHome Venue = "home"
	VenueAway Venue = "away"
)

func (v Venue) Valid() bool {
	switch v {
	case VenueAny, VenueHome, VenueAway:
		return true
	}
	return false
}

// Game is one scheduled or completed contest between two teams.
type Game struct {
	ID         string
	Season     int
	Date       time.Time
	HomeTeamID string
	AwayTeamID string
	HomeScore  int
	AwayScore  int
}

// Opponent returns the other side from teamID's perspective, plus whether
// teamID was the home side.
func (g Game) Opponent(teamID string) (string, bool) {
	if g.HomeTeamID == teamID {
		return g.AwayTeamID, true
	}
	return g.HomeTeamID, false
}

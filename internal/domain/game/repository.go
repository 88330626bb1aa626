package game

import (
	"context"
	"time"
)

// Repository describes game persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, gameID string) (Game, error)
	// ListSeason returns a season's games ordered by date ascending.
	ListSeason(ctx context.Context, season int) ([]Game, error)
	// LastMeetingBefore returns the most recent game between the two teams
	// strictly before cutoff, restricted by venue from teamID's perspective.
	LastMeetingBefore(ctx context.Context, teamID, opponentID string, cutoff time.Time, venue Venue) (Game, error)
}

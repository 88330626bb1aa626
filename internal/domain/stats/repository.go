package stats

import (
	"context"
	"time"

	"github.com/draftkit/nba-drafter/internal/domain/game"
)

// PlayerLineQuery selects a player's prior stat lines for one season.
// Cutoff is exclusive: only games strictly before it are returned.
type PlayerLineQuery struct {
	PlayerID   string
	Season     int
	Cutoff     time.Time
	OpponentID string
	Venue      game.Venue
	Limit      int
}

// AllowedQuery selects the fantasy production an opponent conceded per game
// to players of one position, strictly before Cutoff.
type AllowedQuery struct {
	OpponentID string
	Position   string
	Season     int
	Cutoff     time.Time
	Venue      game.Venue
	Limit      int
}

// Repository describes box-score persistence needs from use cases.
type Repository interface {
	// ListPlayerLinesBefore returns stat lines most-recent-first.
	ListPlayerLinesBefore(ctx context.Context, q PlayerLineQuery) ([]GameLine, error)
	// ListAllowedToPosition returns per-game conceded totals most-recent-first.
	ListAllowedToPosition(ctx context.Context, q AllowedQuery) ([]AllowedTotal, error)
	// ListSeasonLines returns every game-player line of a season.
	ListSeasonLines(ctx context.Context, season int) ([]GameLine, error)
	// ValidPlayerSeasons returns the (season, player) pairs with enough
	// playing time and games to be statistically meaningful.
	ValidPlayerSeasons(ctx context.Context, minAvgSeconds, minGames int) ([]PlayerSeason, error)
	// SeasonRange returns the oldest and newest season with recorded games.
	SeasonRange(ctx context.Context) (first, last int, err error)
}

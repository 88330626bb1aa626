package feature

import "context"

// Repository describes computed-feature persistence needs from use cases.
type Repository interface {
	// Replace deletes any prior row for the same game-player and inserts
	// the new one in a single transaction.
	Replace(ctx context.Context, rows []ComputedRow) error
	Get(ctx context.Context, gameID, playerID string) (ComputedRow, error)
	DeleteSeason(ctx context.Context, season int) error
	// SummaryStats computes per-stat mean/min/max over valid player-seasons.
	SummaryStats(ctx context.Context, minAvgSeconds, minGames int) (SummarySet, error)
}

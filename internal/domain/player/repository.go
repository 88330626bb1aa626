package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, playerID string) (Player, error)
	ListByTeam(ctx context.Context, teamID string) ([]Player, error)
	// FindByFormattedName matches the "F. Last" short form produced by
	// FormatName against a team's roster.
	FindByFormattedName(ctx context.Context, teamID, formattedName string) (Player, error)
}

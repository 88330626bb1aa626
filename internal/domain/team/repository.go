package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	ListAll(ctx context.Context) ([]Team, error)
	GetByAbbreviation(ctx context.Context, abbreviation string) (Team, error)
}

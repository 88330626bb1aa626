package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/draftkit/nba-drafter/internal/domain/player"
	qb "github.com/draftkit/nba-drafter/internal/platform/querybuilder"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

type PlayerRepository struct {
	db *sqlx.DB
}

var playerSelectColumns = []string{
	"id",
	"team_id",
	"name",
	"position",
	"height_inches",
	"weight_pounds",
	"birth_date",
	"rookie_season",
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return player.Player{}, fmt.Errorf("build get player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, fmt.Errorf("%w: player %s", usecase.ErrNotFound, playerID)
		}
		return player.Player{}, fmt.Errorf("get player %s: %w", playerID, err)
	}

	return playerFromRow(row), nil
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID string) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list players by team query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list players by team %s: %w", teamID, err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

// FindByFormattedName matches the "F. Last" short form against a team's
// roster. Formatting happens on the Go side so the suffix rules live in
// exactly one place.
func (r *PlayerRepository) FindByFormattedName(ctx context.Context, teamID, formattedName string) (player.Player, error) {
	roster, err := r.ListByTeam(ctx, teamID)
	if err != nil {
		return player.Player{}, err
	}

	for _, pl := range roster {
		if player.FormatName(pl.Name) == formattedName {
			return pl, nil
		}
	}
	return player.Player{}, fmt.Errorf("%w: player %q on team %s", usecase.ErrNotFound, formattedName, teamID)
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:           row.ID,
		TeamID:       row.TeamID,
		Name:         row.Name,
		Position:     player.Position(row.Position),
		HeightInches: row.HeightInches,
		WeightPounds: row.WeightPounds,
		BirthDate:    row.BirthDate,
		RookieSeason: row.RookieSeason,
	}
}

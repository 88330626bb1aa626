package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/draftkit/nba-drafter/internal/domain/game"
	qb "github.com/draftkit/nba-drafter/internal/platform/querybuilder"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

type GameRepository struct {
	db *sqlx.DB
}

var gameSelectColumns = []string{
	"id",
	"season",
	"game_date",
	"home_team_id",
	"away_team_id",
	"home_score",
	"away_score",
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, error) {
	query, args, err := qb.Select(gameSelectColumns...).From("games").
		Where(qb.Eq("id", gameID)).
		ToSQL()
	if err != nil {
		return game.Game{}, fmt.Errorf("build get game query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, fmt.Errorf("%w: game %s", usecase.ErrNotFound, gameID)
		}
		return game.Game{}, fmt.Errorf("get game %s: %w", gameID, err)
	}

	return gameFromRow(row), nil
}

func (r *GameRepository) ListSeason(ctx context.Context, season int) ([]game.Game, error) {
	query, args, err := qb.Select(gameSelectColumns...).From("games").
		Where(qb.Eq("season", season)).
		OrderBy("game_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games season=%d: %w", season, err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row))
	}
	return out, nil
}

func (r *GameRepository) LastMeetingBefore(ctx context.Context, teamID, opponentID string, cutoff time.Time, venue game.Venue) (game.Game, error) {
	var meeting qb.Condition
	switch venue {
	case game.VenueHome:
		meeting = qb.Expr("(home_team_id = ? AND away_team_id = ?)", teamID, opponentID)
	case game.VenueAway:
		meeting = qb.Expr("(home_team_id = ? AND away_team_id = ?)", opponentID, teamID)
	default:
		meeting = qb.Expr(
			"((home_team_id = ? AND away_team_id = ?) OR (home_team_id = ? AND away_team_id = ?))",
			teamID, opponentID, opponentID, teamID,
		)
	}

	query, args, err := qb.Select(gameSelectColumns...).From("games").
		Where(
			meeting,
			qb.Expr("game_date < ?", cutoff),
		).
		OrderBy("game_date DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return game.Game{}, fmt.Errorf("build last meeting query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, fmt.Errorf("%w: no meeting between %s and %s", usecase.ErrNotFound, teamID, opponentID)
		}
		return game.Game{}, fmt.Errorf("last meeting team=%s opponent=%s: %w", teamID, opponentID, err)
	}

	return gameFromRow(row), nil
}

func gameFromRow(row gameTableModel) game.Game {
	return game.Game{
		ID:         row.ID,
		Season:     row.Season,
		Date:       row.GameDate,
		HomeTeamID: row.HomeTeamID,
		AwayTeamID: row.AwayTeamID,
		HomeScore:  row.HomeScore,
		AwayScore:  row.AwayScore,
	}
}

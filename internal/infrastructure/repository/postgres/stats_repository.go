package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/draftkit/nba-drafter/internal/domain/game"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	qb "github.com/draftkit/nba-drafter/internal/platform/querybuilder"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

type StatsRepository struct {
	db *sqlx.DB
}

const statLineFromClause = "game_player_stats s JOIN games g ON g.id = s.game_id"

var statLineSelectColumns = []string{
	"s.game_id",
	"s.player_id",
	"s.team_id",
	"s.opponent_id",
	"g.season",
	"g.game_date",
	"s.home",
	"s.starter",
	"s.seconds_played",
	"s.points",
	"s.threes",
	"s.rebounds",
	"s.assists",
	"s.steals",
	"s.blocks",
	"s.turnovers",
	"s.plus_minus",
	"s.field_goal_attempts",
	"s.free_throw_attempts",
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) ListPlayerLinesBefore(ctx context.Context, q stats.PlayerLineQuery) ([]stats.GameLine, error) {
	conditions := []qb.Condition{
		qb.Eq("s.player_id", q.PlayerID),
		qb.Eq("g.season", q.Season),
		qb.Expr("g.game_date < ?", q.Cutoff),
	}
	if q.OpponentID != "" {
		conditions = append(conditions, qb.Eq("s.opponent_id", q.OpponentID))
	}
	switch q.Venue {
	case game.VenueHome:
		conditions = append(conditions, qb.Eq("s.home", true))
	case game.VenueAway:
		conditions = append(conditions, qb.Eq("s.home", false))
	}

	builder := qb.Select(statLineSelectColumns...).From(statLineFromClause).
		Where(conditions...).
		OrderBy("g.game_date DESC", "s.game_id DESC")
	if q.Limit > 0 {
		builder = builder.Limit(q.Limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player lines query: %w", err)
	}

	var rows []statLineTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list player lines player=%s: %w", q.PlayerID, err)
	}

	out := make([]stats.GameLine, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameLineFromRow(row))
	}
	return out, nil
}

// ListAllowedToPosition pulls the raw lines opposing players of one
// position recorded against the defending team, then folds them into
// per-game conceded totals. Venue is the defending team's side: it hosted
// when the scoring player was away.
func (r *StatsRepository) ListAllowedToPosition(ctx context.Context, q stats.AllowedQuery) ([]stats.AllowedTotal, error) {
	conditions := []qb.Condition{
		qb.Eq("s.opponent_id", q.OpponentID),
		qb.Eq("p.position", q.Position),
		qb.Eq("g.season", q.Season),
		qb.Expr("g.game_date < ?", q.Cutoff),
	}
	switch q.Venue {
	case game.VenueHome:
		conditions = append(conditions, qb.Eq("s.home", false))
	case game.VenueAway:
		conditions = append(conditions, qb.Eq("s.home", true))
	}

	query, args, err := qb.Select(statLineSelectColumns...).
		From(statLineFromClause + " JOIN players p ON p.id = s.player_id").
		Where(conditions...).
		OrderBy("g.game_date DESC", "s.game_id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list allowed lines query: %w", err)
	}

	var rows []statLineTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list allowed lines opponent=%s position=%s: %w", q.OpponentID, q.Position, err)
	}

	totals := make([]stats.AllowedTotal, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		line := gameLineFromRow(row)
		score := stats.FantasyScore(line.Line)
		if score == nil {
			continue
		}

		i, ok := index[line.GameID]
		if !ok {
			i = len(totals)
			index[line.GameID] = i
			totals = append(totals, stats.AllowedTotal{
				GameID:   line.GameID,
				GameDate: line.GameDate,
			})
		}
		totals[i].Points += *score
	}

	if q.Limit > 0 && len(totals) > q.Limit {
		totals = totals[:q.Limit]
	}
	return totals, nil
}

func (r *StatsRepository) ListSeasonLines(ctx context.Context, season int) ([]stats.GameLine, error) {
	query, args, err := qb.Select(statLineSelectColumns...).From(statLineFromClause).
		Where(qb.Eq("g.season", season)).
		OrderBy("g.game_date", "s.game_id", "s.player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season lines query: %w", err)
	}

	var rows []statLineTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list season lines season=%d: %w", season, err)
	}

	out := make([]stats.GameLine, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameLineFromRow(row))
	}
	return out, nil
}

func (r *StatsRepository) ValidPlayerSeasons(ctx context.Context, minAvgSeconds, minGames int) ([]stats.PlayerSeason, error) {
	query, args, err := qb.Select("g.season", "s.player_id").From(statLineFromClause).
		Where(qb.Expr("s.seconds_played IS NOT NULL")).
		GroupBy("g.season", "s.player_id").
		Having(
			qb.Expr("AVG(s.seconds_played) >= ?", minAvgSeconds),
			qb.Expr("COUNT(*) >= ?", minGames),
		).
		OrderBy("g.season", "s.player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build valid player seasons query: %w", err)
	}

	var rows []struct {
		Season   int    `db:"season"`
		PlayerID string `db:"player_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list valid player seasons: %w", err)
	}

	out := make([]stats.PlayerSeason, 0, len(rows))
	for _, row := range rows {
		out = append(out, stats.PlayerSeason{Season: row.Season, PlayerID: row.PlayerID})
	}
	return out, nil
}

func (r *StatsRepository) SeasonRange(ctx context.Context) (int, int, error) {
	query, args, err := qb.Select("MIN(season) AS first_season", "MAX(season) AS last_season").
		From("games").
		ToSQL()
	if err != nil {
		return 0, 0, fmt.Errorf("build season range query: %w", err)
	}

	var row struct {
		First sql.NullInt64 `db:"first_season"`
		Last  sql.NullInt64 `db:"last_season"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return 0, 0, fmt.Errorf("season range: %w", err)
	}
	if !row.First.Valid || !row.Last.Valid {
		return 0, 0, fmt.Errorf("%w: no games recorded", usecase.ErrNotFound)
	}

	return int(row.First.Int64), int(row.Last.Int64), nil
}

func gameLineFromRow(row statLineTableModel) stats.GameLine {
	return stats.GameLine{
		GameID:     row.GameID,
		PlayerID:   row.PlayerID,
		TeamID:     row.TeamID,
		OpponentID: row.OpponentID,
		Season:     row.Season,
		GameDate:   row.GameDate,
		Home:       row.Home,
		Starter:    row.Starter,
		Line: stats.StatLine{
			SecondsPlayed:     intPointer(row.SecondsPlayed),
			Points:            row.Points,
			Threes:            row.Threes,
			Rebounds:          row.Rebounds,
			Assists:           row.Assists,
			Steals:            row.Steals,
			Blocks:            row.Blocks,
			Turnovers:         row.Turnovers,
			PlusMinus:         row.PlusMinus,
			FieldGoalAttempts: row.FieldGoalAttempts,
			FreeThrowAttempts: row.FreeThrowAttempts,
		},
	}
}

package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"github.com/draftkit/nba-drafter/internal/domain/feature"
	"github.com/draftkit/nba-drafter/internal/domain/player"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	qb "github.com/draftkit/nba-drafter/internal/platform/querybuilder"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

type FeatureRepository struct {
	db      *sqlx.DB
	stats   *StatsRepository
	players *PlayerRepository
}

const deleteSeasonFeaturesQuery = `DELETE FROM computed_game_player_features f
USING games g
WHERE g.id = f.game_id AND g.season = $1`

var computedFeatureSelectColumns = []string{
	"game_id",
	"player_id",
	"payload",
	"computed_at",
}

func NewFeatureRepository(db *sqlx.DB) *FeatureRepository {
	return &FeatureRepository{
		db:      db,
		stats:   NewStatsRepository(db),
		players: NewPlayerRepository(db),
	}
}

// Replace deletes any prior row for each game-player and inserts the new
// one inside a single transaction, so rerunning a rebuild is idempotent.
func (r *FeatureRepository) Replace(ctx context.Context, rows []feature.ComputedRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace computed rows: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, row := range rows {
		deleteQuery := "DELETE FROM computed_game_player_features WHERE game_id = $1 AND player_id = $2"
		if _, err := tx.ExecContext(ctx, deleteQuery, row.GameID, row.PlayerID); err != nil {
			return fmt.Errorf("delete computed row game=%s player=%s: %w", row.GameID, row.PlayerID, err)
		}

		insertModel := computedFeatureTableModel{
			GameID:     row.GameID,
			PlayerID:   row.PlayerID,
			Payload:    string(row.Payload),
			ComputedAt: row.ComputedAt,
		}
		query, args, err := qb.InsertModel("computed_game_player_features", insertModel, "")
		if err != nil {
			return fmt.Errorf("build insert computed row query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert computed row game=%s player=%s: %w", row.GameID, row.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace computed rows tx: %w", err)
	}
	return nil
}

func (r *FeatureRepository) Get(ctx context.Context, gameID, playerID string) (feature.ComputedRow, error) {
	query, args, err := qb.Select(computedFeatureSelectColumns...).
		From("computed_game_player_features").
		Where(
			qb.Eq("game_id", gameID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
	if err != nil {
		return feature.ComputedRow{}, fmt.Errorf("build get computed row query: %w", err)
	}

	var row computedFeatureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return feature.ComputedRow{}, fmt.Errorf("%w: computed row game=%s player=%s", usecase.ErrNotFound, gameID, playerID)
		}
		return feature.ComputedRow{}, fmt.Errorf("get computed row game=%s player=%s: %w", gameID, playerID, err)
	}

	return feature.ComputedRow{
		GameID:     row.GameID,
		PlayerID:   row.PlayerID,
		Payload:    []byte(row.Payload),
		ComputedAt: row.ComputedAt,
	}, nil
}

func (r *FeatureRepository) DeleteSeason(ctx context.Context, season int) error {
	if _, err := r.db.ExecContext(ctx, deleteSeasonFeaturesQuery, season); err != nil {
		return fmt.Errorf("delete computed rows season=%d: %w", season, err)
	}
	return nil
}

// SummaryStats folds the whole corpus into per-stat mean/min/max over
// valid player-seasons. The fantasy-score formula lives in the stats
// domain package, so the aggregation happens Go-side off two flat reads.
func (r *FeatureRepository) SummaryStats(ctx context.Context, minAvgSeconds, minGames int) (feature.SummarySet, error) {
	pairs, err := r.stats.ValidPlayerSeasons(ctx, minAvgSeconds, minGames)
	if err != nil {
		return nil, err
	}
	valid := make(map[stats.PlayerSeason]struct{}, len(pairs))
	for _, pair := range pairs {
		valid[pair] = struct{}{}
	}

	first, last, err := r.stats.SeasonRange(ctx)
	if err != nil {
		return nil, err
	}

	byID, err := r.allPlayers(ctx)
	if err != nil {
		return nil, err
	}

	accs := map[string]*summaryAccumulator{
		feature.StatFantasyPoints:   newSummaryAccumulator(),
		feature.StatMinutes:         newSummaryAccumulator(),
		feature.StatPointsPerMinute: newSummaryAccumulator(),
		feature.StatPlusMinus:       newSummaryAccumulator(),
		feature.StatAllowed:         newSummaryAccumulator(),
		feature.StatHeight:          newSummaryAccumulator(),
		feature.StatWeight:          newSummaryAccumulator(),
		feature.StatAge:             newSummaryAccumulator(),
		feature.StatExperience:      newSummaryAccumulator(),
	}

	type allowedKey struct {
		gameID     string
		opponentID string
		position   string
	}
	allowed := make(map[allowedKey]float64)

	for seasonYear := first; seasonYear <= last; seasonYear++ {
		lines, err := r.stats.ListSeasonLines(ctx, seasonYear)
		if err != nil {
			return nil, err
		}

		for _, line := range lines {
			score := stats.FantasyScore(line.Line)
			if score == nil {
				continue
			}

			pl, known := byID[line.PlayerID]
			if known {
				allowed[allowedKey{line.GameID, line.OpponentID, string(pl.Position)}] += *score
			}

			if _, ok := valid[stats.PlayerSeason{Season: line.Season, PlayerID: line.PlayerID}]; !ok {
				continue
			}

			accs[feature.StatFantasyPoints].add(*score)
			if minutes := stats.MinutesPlayed(line.Line); minutes != nil {
				accs[feature.StatMinutes].add(*minutes)
			}
			if rate := stats.FantasyPointsPerMinute(line.Line); rate != nil {
				accs[feature.StatPointsPerMinute].add(*rate)
			}
			accs[feature.StatPlusMinus].add(float64(line.Line.PlusMinus))

			if known {
				accs[feature.StatHeight].add(float64(pl.HeightInches))
				accs[feature.StatWeight].add(float64(pl.WeightPounds))
				accs[feature.StatAge].add(float64(pl.AgeAt(line.GameDate)))
				accs[feature.StatExperience].add(float64(pl.ExperienceIn(line.Season)))
			}
		}
	}

	for _, total := range allowed {
		accs[feature.StatAllowed].add(total)
	}

	set := make(feature.SummarySet, len(accs))
	for stat, acc := range accs {
		summary, ok := acc.summary()
		if !ok {
			return nil, fmt.Errorf("no samples to summarize %q", stat)
		}
		set[stat] = summary
	}
	return set, nil
}

func (r *FeatureRepository) allPlayers(ctx context.Context) (map[string]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	out := make(map[string]player.Player, len(rows))
	for _, row := range rows {
		out[row.ID] = playerFromRow(row)
	}
	return out, nil
}

type summaryAccumulator struct {
	count int
	sum   float64
	min   float64
	max   float64
}

func newSummaryAccumulator() *summaryAccumulator {
	return &summaryAccumulator{min: math.Inf(1), max: math.Inf(-1)}
}

func (a *summaryAccumulator) add(v float64) {
	a.count++
	a.sum += v
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
}

func (a *summaryAccumulator) summary() (feature.Summary, bool) {
	if a.count == 0 {
		return feature.Summary{}, false
	}
	return feature.Summary{
		Mean: a.sum / float64(a.count),
		Min:  a.min,
		Max:  a.max,
	}, true
}

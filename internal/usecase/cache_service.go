package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/panjf2000/ants/v2"

	"github.com/draftkit/nba-drafter/internal/domain/feature"
	"github.com/draftkit/nba-drafter/internal/domain/game"
	"github.com/draftkit/nba-drafter/internal/domain/player"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	"github.com/draftkit/nba-drafter/internal/platform/logging"
)

const replaceBatchSize = 500

// RollingSplit is one venue slice of a player's raw history, most recent
// first. Values are raw, not encoded: encoders can be refit without
// touching cached rows.
type RollingSplit struct {
	FantasyPoints []*float64 `json:"fantasy_points"`
	Minutes       []*float64 `json:"minutes"`
	Rate          []*float64 `json:"fantasy_points_per_minute"`
	PlusMinus     []*float64 `json:"plus_minus"`
}

// RollingFeatureSet is the cached payload for one game-player: everything
// the vector builder derives from history queries, frozen at the game's
// cutoff date.
type RollingFeatureSet struct {
	GameID   string    `json:"game_id"`
	PlayerID string    `json:"player_id"`
	Season   int       `json:"season"`
	GameDate time.Time `json:"game_date"`

	Overall        RollingSplit `json:"overall"`
	AwayAtOpponent RollingSplit `json:"away_at_opponent"`
	HomeVsOpponent RollingSplit `json:"home_vs_opponent"`

	AllowedOverall     []*float64 `json:"allowed_overall"`
	AllowedOpponentIn  []*float64 `json:"allowed_opponent_home"`
	AllowedOpponentOut []*float64 `json:"allowed_opponent_away"`

	DaysSinceHomeMeeting *float64 `json:"days_since_home_meeting"`
	DaysSinceAwayMeeting *float64 `json:"days_since_away_meeting"`
}

// RebuildResult summarizes one cache rebuild run.
type RebuildResult struct {
	Season   int
	Rows     int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// CacheService precomputes rolling-feature payloads per game-player so
// training runs read cached rows instead of replaying history queries.
type CacheService struct {
	cfg      FeatureConfig
	history  *HistoryService
	stats    stats.Repository
	players  player.Repository
	features feature.Repository
	logger   *logging.Logger
	now      func() time.Time
}

func NewCacheService(
	cfg FeatureConfig,
	history *HistoryService,
	statsRepo stats.Repository,
	playerRepo player.Repository,
	featureRepo feature.Repository,
	logger *logging.Logger,
) *CacheService {
	if logger == nil {
		logger = logging.Default()
	}
	return &CacheService{
		cfg:      cfg.normalized(),
		history:  history,
		stats:    statsRepo,
		players:  playerRepo,
		features: featureRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// Rebuild drops and recomputes every cached row for one season. Rows are
// derived data, so a failed run leaves nothing to repair: rerunning is the
// recovery path. Individual row failures are counted and logged, never
// fatal.
func (s *CacheService) Rebuild(ctx context.Context, seasonYear int) (RebuildResult, error) {
	if seasonYear <= 0 {
		return RebuildResult{}, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}

	started := s.now()

	rows, err := s.stats.ListSeasonLines(ctx, seasonYear)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("list season lines season=%d: %w", seasonYear, err)
	}

	validPairs, err := s.stats.ValidPlayerSeasons(ctx, s.cfg.MinAvgSeconds, s.cfg.MinGames)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("list valid player seasons: %w", err)
	}
	valid := make(map[stats.PlayerSeason]struct{}, len(validPairs))
	for _, pair := range validPairs {
		valid[pair] = struct{}{}
	}

	var skipped int
	pending := make([]stats.GameLine, 0, len(rows))
	for _, row := range rows {
		if _, ok := valid[stats.PlayerSeason{Season: row.Season, PlayerID: row.PlayerID}]; !ok {
			skipped++
			continue
		}
		pending = append(pending, row)
	}

	positions, err := s.playerPositions(ctx, pending)
	if err != nil {
		return RebuildResult{}, err
	}

	if err := s.features.DeleteSeason(ctx, seasonYear); err != nil {
		return RebuildResult{}, fmt.Errorf("delete cached season %d: %w", seasonYear, err)
	}

	pool, err := ants.NewPool(s.cfg.workerCount())
	if err != nil {
		return RebuildResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		workers  sync.WaitGroup
		failed   atomic.Int64
		mu       sync.Mutex
		computed = make([]feature.ComputedRow, 0, len(pending))
	)
	for _, row := range pending {
		row := row
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			payload, err := s.buildPayload(ctx, row, positions[row.PlayerID])
			if err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "rolling feature row failed",
					"game_id", row.GameID,
					"player_id", row.PlayerID,
					"error", err,
				)
				return
			}

			mu.Lock()
			computed = append(computed, payload)
			mu.Unlock()
		}); err != nil {
			workers.Done()
			return RebuildResult{}, fmt.Errorf("submit row to worker pool: %w", err)
		}
	}
	workers.Wait()

	sort.Slice(computed, func(i, j int) bool {
		if computed[i].GameID != computed[j].GameID {
			return computed[i].GameID < computed[j].GameID
		}
		return computed[i].PlayerID < computed[j].PlayerID
	})
	for start := 0; start < len(computed); start += replaceBatchSize {
		end := start + replaceBatchSize
		if end > len(computed) {
			end = len(computed)
		}
		if err := s.features.Replace(ctx, computed[start:end]); err != nil {
			return RebuildResult{}, fmt.Errorf("store cached rows: %w", err)
		}
	}

	result := RebuildResult{
		Season:   seasonYear,
		Rows:     len(computed),
		Skipped:  skipped,
		Failed:   int(failed.Load()),
		Duration: s.now().Sub(started),
	}
	s.logger.InfoContext(ctx, "feature cache rebuilt",
		"season", result.Season,
		"rows", result.Rows,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return result, nil
}

// Load returns one cached payload, decoded.
func (s *CacheService) Load(ctx context.Context, gameID, playerID string) (RollingFeatureSet, error) {
	if gameID == "" || playerID == "" {
		return RollingFeatureSet{}, fmt.Errorf("%w: game and player ids are required", ErrInvalidInput)
	}

	row, err := s.features.Get(ctx, gameID, playerID)
	if err != nil {
		return RollingFeatureSet{}, fmt.Errorf("load cached row game=%s player=%s: %w", gameID, playerID, err)
	}

	var set RollingFeatureSet
	if err := sonic.Unmarshal(row.Payload, &set); err != nil {
		return RollingFeatureSet{}, fmt.Errorf("decode cached row game=%s player=%s: %w", gameID, playerID, err)
	}
	return set, nil
}

func (s *CacheService) playerPositions(ctx context.Context, rows []stats.GameLine) (map[string]player.Position, error) {
	out := make(map[string]player.Position)
	for _, row := range rows {
		if _, ok := out[row.PlayerID]; ok {
			continue
		}
		pl, err := s.players.GetByID(ctx, row.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("load player %s: %w", row.PlayerID, err)
		}
		out[row.PlayerID] = pl.Position
	}
	return out, nil
}

func (s *CacheService) buildPayload(ctx context.Context, row stats.GameLine, position player.Position) (feature.ComputedRow, error) {
	set := RollingFeatureSet{
		GameID:   row.GameID,
		PlayerID: row.PlayerID,
		Season:   row.Season,
		GameDate: row.GameDate,
	}

	splits := []struct {
		venue  game.Venue
		target *RollingSplit
	}{
		{game.VenueAny, &set.Overall},
		{game.VenueAway, &set.AwayAtOpponent},
		{game.VenueHome, &set.HomeVsOpponent},
	}
	for _, split := range splits {
		q := stats.PlayerLineQuery{
			PlayerID: row.PlayerID,
			Season:   row.Season,
			Cutoff:   row.GameDate,
			Venue:    split.venue,
		}
		if split.venue != game.VenueAny {
			q.OpponentID = row.OpponentID
		}

		lines, err := s.history.PlayerHistory(ctx, q)
		if err != nil {
			return feature.ComputedRow{}, err
		}
		*split.target = rollingSplitFromLines(lines)
	}

	allowed := []struct {
		venue  game.Venue
		target *[]*float64
	}{
		{game.VenueAny, &set.AllowedOverall},
		{game.VenueHome, &set.AllowedOpponentIn},
		{game.VenueAway, &set.AllowedOpponentOut},
	}
	for _, split := range allowed {
		totals, err := s.history.OpponentAllowed(ctx, stats.AllowedQuery{
			OpponentID: row.OpponentID,
			Position:   string(position),
			Season:     row.Season,
			Cutoff:     row.GameDate,
			Venue:      split.venue,
		})
		if err != nil {
			return feature.ComputedRow{}, err
		}

		values := make([]*float64, 0, len(totals))
		for _, total := range totals {
			total := total
			values = append(values, &total.Points)
		}
		*split.target = values
	}

	var err error
	set.DaysSinceHomeMeeting, err = s.history.DaysSinceLastMeeting(ctx, row.TeamID, row.OpponentID, row.GameDate, game.VenueHome)
	if err != nil {
		return feature.ComputedRow{}, err
	}
	set.DaysSinceAwayMeeting, err = s.history.DaysSinceLastMeeting(ctx, row.TeamID, row.OpponentID, row.GameDate, game.VenueAway)
	if err != nil {
		return feature.ComputedRow{}, err
	}

	payload, err := sonic.Marshal(set)
	if err != nil {
		return feature.ComputedRow{}, fmt.Errorf("encode payload game=%s player=%s: %w", row.GameID, row.PlayerID, err)
	}

	return feature.ComputedRow{
		GameID:     row.GameID,
		PlayerID:   row.PlayerID,
		Payload:    payload,
		ComputedAt: s.now().UTC(),
	}, nil
}

func rollingSplitFromLines(lines []stats.GameLine) RollingSplit {
	split := RollingSplit{
		FantasyPoints: make([]*float64, 0, len(lines)),
		Minutes:       make([]*float64, 0, len(lines)),
		Rate:          make([]*float64, 0, len(lines)),
		PlusMinus:     make([]*float64, 0, len(lines)),
	}
	for _, line := range lines {
		plusMinus := float64(line.Line.PlusMinus)
		split.FantasyPoints = append(split.FantasyPoints, stats.FantasyScore(line.Line))
		split.Minutes = append(split.Minutes, stats.MinutesPlayed(line.Line))
		split.Rate = append(split.Rate, stats.FantasyPointsPerMinute(line.Line))
		split.PlusMinus = append(split.PlusMinus, &plusMinus)
	}
	return split
}

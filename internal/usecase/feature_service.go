package usecase

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/draftkit/nba-drafter/internal/domain/feature"
	"github.com/draftkit/nba-drafter/internal/domain/game"
	"github.com/draftkit/nba-drafter/internal/domain/player"
	"github.com/draftkit/nba-drafter/internal/domain/season"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	"github.com/draftkit/nba-drafter/internal/domain/team"
	"github.com/draftkit/nba-drafter/internal/platform/cache"
	"github.com/draftkit/nba-drafter/internal/platform/encoding"
	"github.com/draftkit/nba-drafter/internal/platform/logging"
)

const (
	defaultWindowSize    = 5
	defaultMinAvgSeconds = 720
	defaultMinGames      = 15
	defaultWorkerReserve = 1

	encoderOutputMin = 0.1
	encoderOutputMax = 1.1

	summaryCacheKey = "feature:summaries"
	daysPerYear     = 365.0
)

// FeatureConfig tunes the rolling-window pipeline.
type FeatureConfig struct {
	WindowSize    int
	MinAvgSeconds int
	MinGames      int
	// WorkerReserve is how many CPU cores are left free for the process
	// driving the pool.
	WorkerReserve int
}

func (c FeatureConfig) normalized() FeatureConfig {
	if c.WindowSize <= 0 {
		c.WindowSize = defaultWindowSize
	}
	if c.MinAvgSeconds <= 0 {
		c.MinAvgSeconds = defaultMinAvgSeconds
	}
	if c.MinGames <= 0 {
		c.MinGames = defaultMinGames
	}
	if c.WorkerReserve <= 0 {
		c.WorkerReserve = defaultWorkerReserve
	}
	return c
}

func (c FeatureConfig) workerCount() int {
	workers := runtime.NumCPU() - c.WorkerReserve
	if workers < 1 {
		workers = 1
	}
	return workers
}

// Encoders is the frozen encoder configuration shared by training and
// inference. It is fit once from corpus-wide summary statistics before any
// parallel work begins and never mutated afterwards.
type Encoders struct {
	window int

	fantasyPoints *encoding.RangeEncoder
	minutes       *encoding.RangeEncoder
	rate          *encoding.RangeEncoder
	plusMinus     *encoding.RangeEncoder
	allowed       *encoding.RangeEncoder
	height        *encoding.RangeEncoder
	weight        *encoding.RangeEncoder
	age           *encoding.RangeEncoder
	experience    *encoding.RangeEncoder
	dayOfMonth    *encoding.CyclicalEncoder
	teams         *encoding.CategoryEncoder
	positions     *encoding.CategoryEncoder
}

// TrainingSet is the {x, y, sample_weight} triple handed to the trainer.
type TrainingSet struct {
	X       [][]float64
	Y       []float64
	Weights []float64
}

// FeatureService turns raw box-score rows into normalized, leakage-free
// model inputs.
type FeatureService struct {
	cfg      FeatureConfig
	history  *HistoryService
	stats    stats.Repository
	features feature.Repository
	players  player.Repository
	teams    team.Repository
	store    *cache.Store
	logger   *logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	encoders *Encoders
}

func NewFeatureService(
	cfg FeatureConfig,
	history *HistoryService,
	statsRepo stats.Repository,
	featureRepo feature.Repository,
	playerRepo player.Repository,
	teamRepo team.Repository,
	store *cache.Store,
	logger *logging.Logger,
) *FeatureService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FeatureService{
		cfg:      cfg.normalized(),
		history:  history,
		stats:    statsRepo,
		features: featureRepo,
		players:  playerRepo,
		teams:    teamRepo,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Encoders fits the encoder configuration from corpus summary statistics on
// first use and returns the frozen set afterwards.
func (s *FeatureService) Encoders(ctx context.Context) (*Encoders, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.encoders != nil {
		return s.encoders, nil
	}

	summaries, err := s.loadSummaries(ctx)
	if err != nil {
		return nil, err
	}

	teamList, err := s.teams.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	if len(teamList) == 0 {
		return nil, fmt.Errorf("%w: no teams to fit the category encoder from", ErrInvalidConfiguration)
	}
	teamIDs := make([]string, 0, len(teamList))
	for _, item := range teamList {
		teamIDs = append(teamIDs, item.ID)
	}
	sort.Strings(teamIDs)

	positions := make([]string, 0, len(player.PositionOrder))
	for _, pos := range player.PositionOrder {
		positions = append(positions, string(pos))
	}

	enc := &Encoders{window: s.cfg.WindowSize}
	for _, bind := range []struct {
		stat   string
		target **encoding.RangeEncoder
	}{
		{feature.StatFantasyPoints, &enc.fantasyPoints},
		{feature.StatMinutes, &enc.minutes},
		{feature.StatPointsPerMinute, &enc.rate},
		{feature.StatPlusMinus, &enc.plusMinus},
		{feature.StatAllowed, &enc.allowed},
		{feature.StatHeight, &enc.height},
		{feature.StatWeight, &enc.weight},
		{feature.StatAge, &enc.age},
		{feature.StatExperience, &enc.experience},
	} {
		summary, err := summaries.Get(bind.stat)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		if err := summary.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfiguration, bind.stat, err)
		}
		fitted, err := encoding.NewRangeEncoder(summary.Mean, summary.Min, summary.Max, encoderOutputMin, encoderOutputMax)
		if err != nil {
			return nil, fmt.Errorf("%w: fit %s encoder: %v", ErrInvalidConfiguration, bind.stat, err)
		}
		*bind.target = fitted
	}

	enc.dayOfMonth, err = encoding.NewCyclicalEncoder(1, 31, 0.5)
	if err != nil {
		return nil, fmt.Errorf("%w: fit day-of-month encoder: %v", ErrInvalidConfiguration, err)
	}
	enc.teams, err = encoding.NewCategoryEncoder(teamIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: fit team encoder: %v", ErrInvalidConfiguration, err)
	}
	enc.positions, err = encoding.NewCategoryEncoder(positions)
	if err != nil {
		return nil, fmt.Errorf("%w: fit position encoder: %v", ErrInvalidConfiguration, err)
	}

	s.encoders = enc
	return enc, nil
}

func (s *FeatureService) loadSummaries(ctx context.Context) (feature.SummarySet, error) {
	load := func(ctx context.Context) (any, error) {
		return s.features.SummaryStats(ctx, s.cfg.MinAvgSeconds, s.cfg.MinGames)
	}

	if s.store == nil {
		value, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("compute summary statistics: %w", err)
		}
		return value.(feature.SummarySet), nil
	}

	value, err := s.store.GetOrLoad(ctx, summaryCacheKey, load)
	if err != nil {
		return nil, fmt.Errorf("compute summary statistics: %w", err)
	}
	return value.(feature.SummarySet), nil
}

// ValidPlayerSeasons returns the player-seasons with enough playing time
// and games to enter training and prediction pools.
func (s *FeatureService) ValidPlayerSeasons(ctx context.Context) (map[stats.PlayerSeason]struct{}, error) {
	pairs, err := s.stats.ValidPlayerSeasons(ctx, s.cfg.MinAvgSeconds, s.cfg.MinGames)
	if err != nil {
		return nil, fmt.Errorf("list valid player seasons: %w", err)
	}

	out := make(map[stats.PlayerSeason]struct{}, len(pairs))
	for _, pair := range pairs {
		out[pair] = struct{}{}
	}
	return out, nil
}

// ComputeFeatures builds the training set for the given game-player rows.
// Rows outside the valid player-season pool or without a known fantasy
// score are skipped. Work is partitioned across a worker pool per player;
// every unit is independent and immutable.
func (s *FeatureService) ComputeFeatures(ctx context.Context, rows []stats.GameLine) (TrainingSet, error) {
	enc, err := s.Encoders(ctx)
	if err != nil {
		return TrainingSet{}, err
	}

	valid, err := s.ValidPlayerSeasons(ctx)
	if err != nil {
		return TrainingSet{}, err
	}

	firstSeason, lastSeason, err := s.stats.SeasonRange(ctx)
	if err != nil {
		return TrainingSet{}, fmt.Errorf("season range: %w", err)
	}

	byPlayer := make(map[string][]stats.GameLine)
	for _, row := range rows {
		if _, ok := valid[stats.PlayerSeason{Season: row.Season, PlayerID: row.PlayerID}]; !ok {
			continue
		}
		if stats.FantasyScore(row.Line) == nil {
			continue
		}
		byPlayer[row.PlayerID] = append(byPlayer[row.PlayerID], row)
	}

	playerIDs := make([]string, 0, len(byPlayer))
	for id := range byPlayer {
		playerIDs = append(playerIDs, id)
	}
	sort.Strings(playerIDs)

	type playerResult struct {
		x [][]float64
		y []float64
		w []float64
	}

	now := s.now().UTC()
	results := make(map[string]playerResult, len(playerIDs))
	errs := make(map[string]error, len(playerIDs))

	pool, err := ants.NewPool(s.cfg.workerCount())
	if err != nil {
		return TrainingSet{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var mu sync.Mutex
	var workers sync.WaitGroup
	for _, playerID := range playerIDs {
		playerID := playerID
		playerRows := byPlayer[playerID]
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			pl, err := s.players.GetByID(ctx, playerID)
			if err != nil {
				mu.Lock()
				errs[playerID] = fmt.Errorf("load player %s: %w", playerID, err)
				mu.Unlock()
				return
			}

			result := playerResult{}
			for _, row := range playerRows {
				vector, err := s.buildVector(ctx, enc, vectorInput{
					player:     pl,
					teamID:     row.TeamID,
					opponentID: row.OpponentID,
					season:     row.Season,
					gameDate:   row.GameDate,
					home:       row.Home,
					starter:    row.Starter,
				})
				if err != nil {
					mu.Lock()
					errs[playerID] = err
					mu.Unlock()
					return
				}

				score := stats.FantasyScore(row.Line)
				result.x = append(result.x, vector)
				result.y = append(result.y, *score)
				result.w = append(result.w, season.SampleWeight(row.GameDate, now, firstSeason, lastSeason))
			}

			mu.Lock()
			results[playerID] = result
			mu.Unlock()
		}); err != nil {
			workers.Done()
			return TrainingSet{}, fmt.Errorf("submit player to worker pool: %w", err)
		}
	}
	workers.Wait()

	for _, playerID := range playerIDs {
		if err := errs[playerID]; err != nil {
			return TrainingSet{}, err
		}
	}

	out := TrainingSet{}
	width := -1
	for _, playerID := range playerIDs {
		result := results[playerID]
		for i, vector := range result.x {
			if width < 0 {
				width = len(vector)
			}
			if len(vector) != width {
				return TrainingSet{}, fmt.Errorf(
					"%w: feature vector length mismatch for player %s: got=%d want=%d",
					ErrInvalidConfiguration, playerID, len(vector), width,
				)
			}
			out.X = append(out.X, vector)
			out.Y = append(out.Y, result.y[i])
			out.Weights = append(out.Weights, result.w[i])
		}
	}

	s.logger.InfoContext(ctx, "training features computed",
		"rows", len(out.X),
		"players", len(playerIDs),
		"vector_width", width,
		"workers", s.cfg.workerCount(),
	)
	return out, nil
}

// LiveInput describes one player on an upcoming slate.
type LiveInput struct {
	Player     player.Player
	TeamID     string
	OpponentID string
	Season     int
	GameDate   time.Time
	Home       bool
	Starter    bool
}

// LiveVector builds the inference-time feature vector for a player. It
// shares buildVector with ComputeFeatures, so field order is identical
// between training and prediction by construction.
func (s *FeatureService) LiveVector(ctx context.Context, input LiveInput) ([]float64, error) {
	enc, err := s.Encoders(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildVector(ctx, enc, vectorInput{
		player:     input.Player,
		teamID:     input.TeamID,
		opponentID: input.OpponentID,
		season:     input.Season,
		gameDate:   input.GameDate,
		home:       input.Home,
		starter:    input.Starter,
	})
}

type vectorInput struct {
	player     player.Player
	teamID     string
	opponentID string
	season     int
	gameDate   time.Time
	home       bool
	starter    bool
}

// buildVector concatenates the feature blocks in their fixed order:
// demographics and context, rolling histories (overall plus venue splits),
// opponent-allowed histories, one-hot blocks, then derived ratios and
// z-scores.
func (s *FeatureService) buildVector(ctx context.Context, enc *Encoders, in vectorInput) ([]float64, error) {
	histories, err := s.loadHistories(ctx, in)
	if err != nil {
		return nil, err
	}

	vector := make([]float64, 0, 16+15*enc.window+2*enc.teams.Width()+enc.positions.Width())

	// Demographics and game context.
	vector = append(vector,
		enc.age.Transform(float64(in.player.AgeAt(in.gameDate))),
		enc.height.Transform(float64(in.player.HeightInches)),
		enc.weight.Transform(float64(in.player.WeightPounds)),
		enc.experience.Transform(float64(in.player.ExperienceIn(in.season))),
		boolFeature(in.home),
		boolFeature(in.starter),
		enc.dayOfMonth.Transform(float64(in.gameDate.Day())),
		season.Progress(in.gameDate),
	)

	// Rolling histories: overall, away at the opponent, home against them.
	for _, split := range histories.playerSplits {
		vector = append(vector, encoding.EncodeSequence(enc.window, enc.fantasyPoints, split.fantasyPoints)...)
		vector = append(vector, encoding.EncodeSequence(enc.window, enc.minutes, split.minutes)...)
		vector = append(vector, encoding.EncodeSequence(enc.window, enc.rate, split.rate)...)
		vector = append(vector, encoding.EncodeSequence(enc.window, enc.plusMinus, split.plusMinus)...)
	}
	for _, split := range histories.allowedSplits {
		vector = append(vector, encoding.EncodeSequence(enc.window, enc.allowed, split)...)
	}

	// Fixed-vocabulary blocks.
	teamBlock, err := enc.teams.Transform(in.teamID)
	if err != nil {
		return nil, fmt.Errorf("%w: team %s: %v", ErrInvalidConfiguration, in.teamID, err)
	}
	opponentBlock, err := enc.teams.Transform(in.opponentID)
	if err != nil {
		return nil, fmt.Errorf("%w: opponent %s: %v", ErrInvalidConfiguration, in.opponentID, err)
	}
	positionBlock, err := enc.positions.Transform(string(in.player.Position))
	if err != nil {
		return nil, fmt.Errorf("%w: position %s: %v", ErrInvalidConfiguration, in.player.Position, err)
	}
	vector = append(vector, teamBlock...)
	vector = append(vector, opponentBlock...)
	vector = append(vector, positionBlock...)

	// Derived ratios and spreads.
	overall := histories.playerSplits[0]
	vector = append(vector,
		minutesTrendRatio(overall.minutes, enc.window),
		normalizedDays(histories.daysSinceHomeMeeting),
		normalizedDays(histories.daysSinceAwayMeeting),
		encoding.RollingStdDev(window(overall.fantasyPoints, enc.window)),
	)

	// Recent form and opponent difficulty standardized against the season.
	vector = append(vector, encoding.ZScoreSequence(enc.window, encoderOutputMin, overall.fantasyPoints, window(overall.fantasyPoints, enc.window))...)
	vector = append(vector, encoding.ZScoreSequence(enc.window, encoderOutputMin, histories.allowedSplits[0], window(histories.allowedSplits[0], enc.window))...)

	return vector, nil
}

type playerHistorySplit struct {
	fantasyPoints []*float64
	minutes       []*float64
	rate          []*float64
	plusMinus     []*float64
}

type vectorHistories struct {
	// playerSplits holds overall, away-at-opponent, home-vs-opponent.
	playerSplits [3]playerHistorySplit
	// allowedSplits holds the opponent's conceded totals with the same
	// venue structure, seen from the opponent's side of the floor.
	allowedSplits        [3][]*float64
	daysSinceHomeMeeting *float64
	daysSinceAwayMeeting *float64
}

func (s *FeatureService) loadHistories(ctx context.Context, in vectorInput) (vectorHistories, error) {
	out := vectorHistories{}

	// The overall split stays season-wide: it doubles as the z-score
	// reference population. Venue splits only ever fill one window, so
	// they are capped at the source.
	venues := []game.Venue{game.VenueAny, game.VenueAway, game.VenueHome}
	for i, venue := range venues {
		q := stats.PlayerLineQuery{
			PlayerID: in.player.ID,
			Season:   in.season,
			Cutoff:   in.gameDate,
			Venue:    venue,
		}
		if venue != game.VenueAny {
			q.OpponentID = in.opponentID
			q.Limit = s.cfg.WindowSize
		}

		lines, err := s.history.PlayerHistory(ctx, q)
		if err != nil {
			return vectorHistories{}, err
		}
		out.playerSplits[i] = splitFromLines(lines)
	}

	// The opponent's venue mirrors the player's: when the player visits,
	// the opponent concedes at home.
	allowedVenues := []game.Venue{game.VenueAny, game.VenueHome, game.VenueAway}
	for i, venue := range allowedVenues {
		q := stats.AllowedQuery{
			OpponentID: in.opponentID,
			Position:   string(in.player.Position),
			Season:     in.season,
			Cutoff:     in.gameDate,
			Venue:      venue,
		}
		if venue != game.VenueAny {
			q.Limit = s.cfg.WindowSize
		}
		totals, err := s.history.OpponentAllowed(ctx, q)
		if err != nil {
			return vectorHistories{}, err
		}

		values := make([]*float64, 0, len(totals))
		for _, total := range totals {
			total := total
			values = append(values, &total.Points)
		}
		out.allowedSplits[i] = values
	}

	var err error
	out.daysSinceHomeMeeting, err = s.history.DaysSinceLastMeeting(ctx, in.teamID, in.opponentID, in.gameDate, game.VenueHome)
	if err != nil {
		return vectorHistories{}, err
	}
	out.daysSinceAwayMeeting, err = s.history.DaysSinceLastMeeting(ctx, in.teamID, in.opponentID, in.gameDate, game.VenueAway)
	if err != nil {
		return vectorHistories{}, err
	}

	return out, nil
}

func splitFromLines(lines []stats.GameLine) playerHistorySplit {
	split := playerHistorySplit{
		fantasyPoints: make([]*float64, 0, len(lines)),
		minutes:       make([]*float64, 0, len(lines)),
		rate:          make([]*float64, 0, len(lines)),
		plusMinus:     make([]*float64, 0, len(lines)),
	}
	for _, line := range lines {
		plusMinus := float64(line.Line.PlusMinus)
		split.fantasyPoints = append(split.fantasyPoints, stats.FantasyScore(line.Line))
		split.minutes = append(split.minutes, stats.MinutesPlayed(line.Line))
		split.rate = append(split.rate, stats.FantasyPointsPerMinute(line.Line))
		split.plusMinus = append(split.plusMinus, &plusMinus)
	}
	return split
}

// minutesTrendRatio compares recent minutes to the season average; one
// means steady usage, above one means a growing role.
func minutesTrendRatio(minutes []*float64, windowSize int) float64 {
	recent, ok := encoding.Mean(window(minutes, windowSize))
	if !ok {
		return 1
	}
	seasonAvg, ok := encoding.Mean(minutes)
	if !ok || seasonAvg == 0 {
		return 1
	}
	return recent / seasonAvg
}

func normalizedDays(days *float64) float64 {
	if days == nil {
		return 1
	}
	fraction := *days / daysPerYear
	if fraction > 1 {
		return 1
	}
	if fraction < 0 {
		return 0
	}
	return fraction
}

func window(values []*float64, size int) []*float64 {
	if len(values) <= size {
		return values
	}
	return values[:size]
}

func boolFeature(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

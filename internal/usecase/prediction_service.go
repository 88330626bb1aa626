package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/draftkit/nba-drafter/internal/domain/game"
	"github.com/draftkit/nba-drafter/internal/domain/player"
	"github.com/draftkit/nba-drafter/internal/domain/roster"
	"github.com/draftkit/nba-drafter/internal/domain/season"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	"github.com/draftkit/nba-drafter/internal/domain/team"
	"github.com/draftkit/nba-drafter/internal/platform/encoding"
	"github.com/draftkit/nba-drafter/internal/platform/logging"
)

const (
	defaultAvgPointsFloor = 15.0
	// rmsePenalty discounts projections by half the model's validation
	// error before computing price per point.
	rmsePenalty        = 0.5
	minConfidentPoints = 1.0
	feedStarterCount   = 5
)

// PredictionConfig tunes candidate pool construction.
type PredictionConfig struct {
	// AvgPointsFloor drops players whose recent and season fantasy-point
	// averages are both below it.
	AvgPointsFloor float64
	WindowSize     int
}

func (c PredictionConfig) normalized() PredictionConfig {
	if c.AvgPointsFloor <= 0 {
		c.AvgPointsFloor = defaultAvgPointsFloor
	}
	if c.WindowSize <= 0 {
		c.WindowSize = defaultWindowSize
	}
	return c
}

// ScoredCandidate is a roster candidate plus the price-per-point ranking
// key the lineup search orders the pool by.
type ScoredCandidate struct {
	roster.Candidate
	// AdjustedCost is salary divided by the risk-discounted projection:
	// lower is better value.
	AdjustedCost float64
	Starter      bool
}

// SlateRequest describes one day's prediction run.
type SlateRequest struct {
	Date     time.Time
	Salaries []SalaryRecord
	// RMSE is the trained model's validation error, used to discount
	// projections when ranking by price per point.
	RMSE float64
}

// PredictionService builds the scored candidate pool for a slate: salary
// sheet rows joined against the starting-lineup feed and the model.
type PredictionService struct {
	cfg       PredictionConfig
	features  *FeatureService
	history   *HistoryService
	players   player.Repository
	teams     team.Repository
	feed      LineupFeed
	predictor Predictor
	logger    *logging.Logger
}

func NewPredictionService(
	cfg PredictionConfig,
	features *FeatureService,
	history *HistoryService,
	playerRepo player.Repository,
	teamRepo team.Repository,
	feed LineupFeed,
	predictor Predictor,
	logger *logging.Logger,
) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionService{
		cfg:       cfg.normalized(),
		features:  features,
		history:   history,
		players:   playerRepo,
		teams:     teamRepo,
		feed:      feed,
		predictor: predictor,
		logger:    logger,
	}
}

type feedStatus struct {
	starters map[string]struct{}
	injured  map[string]struct{}
}

// Candidates resolves every salary row to a player, filters out injured
// non-starters and low-volume players, scores the survivors with the model
// and returns them with their price-per-point ranking key.
func (s *PredictionService) Candidates(ctx context.Context, req SlateRequest) ([]ScoredCandidate, error) {
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: slate date is required", ErrInvalidInput)
	}
	if len(req.Salaries) == 0 {
		return nil, fmt.Errorf("%w: salary sheet is empty", ErrInvalidInput)
	}
	if s.predictor == nil {
		return nil, fmt.Errorf("%w: no predictor configured", ErrInvalidConfiguration)
	}

	lineups, err := s.feed.FetchLineups(ctx, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch lineups: %v", ErrDependencyUnavailable, err)
	}
	statusByTeam := indexFeed(lineups)

	seasonYear := season.ForDate(req.Date)
	valid, err := s.features.ValidPlayerSeasons(ctx)
	if err != nil {
		return nil, err
	}

	var (
		pool       []ScoredCandidate
		vectors    [][]float64
		unresolved int
		dropped    int
	)
	for _, record := range req.Salaries {
		candidate, vector, ok, err := s.resolveRecord(ctx, record, req.Date, seasonYear, statusByTeam, valid)
		if err != nil {
			return nil, err
		}
		if !ok {
			if candidate.PlayerID == "" {
				unresolved++
			} else {
				dropped++
			}
			continue
		}
		pool = append(pool, candidate)
		vectors = append(vectors, vector)
	}

	if len(pool) > 0 {
		predictions, err := s.predictor.Predict(ctx, vectors)
		if err != nil {
			return nil, fmt.Errorf("%w: predict: %v", ErrDependencyUnavailable, err)
		}
		if len(predictions) != len(pool) {
			return nil, fmt.Errorf("%w: prediction count mismatch: got=%d want=%d", ErrInvalidConfiguration, len(predictions), len(pool))
		}
		for i := range pool {
			pool[i].ProjectedPoints = predictions[i]
			pool[i].AdjustedCost = adjustedCost(pool[i].Salary, predictions[i], req.RMSE)
		}
	}

	s.logger.InfoContext(ctx, "candidate pool built",
		"date", req.Date.Format("2006-01-02"),
		"salary_rows", len(req.Salaries),
		"candidates", len(pool),
		"unresolved", unresolved,
		"dropped", dropped,
	)
	return pool, nil
}

func (s *PredictionService) resolveRecord(
	ctx context.Context,
	record SalaryRecord,
	date time.Time,
	seasonYear int,
	statusByTeam map[string]feedStatus,
	valid map[stats.PlayerSeason]struct{},
) (ScoredCandidate, []float64, bool, error) {
	teamRow, err := s.teams.GetByAbbreviation(ctx, record.Team)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "unknown team on salary sheet", "team", record.Team)
			return ScoredCandidate{}, nil, false, nil
		}
		return ScoredCandidate{}, nil, false, fmt.Errorf("resolve team %s: %w", record.Team, err)
	}
	opponentRow, err := s.teams.GetByAbbreviation(ctx, record.OpposingTeam)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "unknown opponent on salary sheet", "team", record.OpposingTeam)
			return ScoredCandidate{}, nil, false, nil
		}
		return ScoredCandidate{}, nil, false, fmt.Errorf("resolve team %s: %w", record.OpposingTeam, err)
	}

	formatted := player.FormatName(record.Name)
	pl, err := s.players.FindByFormattedName(ctx, teamRow.ID, formatted)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "salary row matched no player", "name", record.Name, "team", record.Team)
			return ScoredCandidate{}, nil, false, nil
		}
		return ScoredCandidate{}, nil, false, fmt.Errorf("resolve player %q: %w", record.Name, err)
	}

	candidate := ScoredCandidate{
		Candidate: roster.Candidate{
			PlayerID: pl.ID,
			Name:     pl.Name,
			TeamID:   teamRow.ID,
			Salary:   record.Salary,
		},
	}

	status := statusByTeam[strings.ToUpper(record.Team)]
	candidate.Starter = contains(status.starters, formatted)
	if !candidate.Starter && contains(status.injured, formatted) {
		return candidate, nil, false, nil
	}

	if _, ok := valid[stats.PlayerSeason{Season: seasonYear, PlayerID: pl.ID}]; !ok {
		return candidate, nil, false, nil
	}

	keep, err := s.clearsPointsFloor(ctx, pl.ID, seasonYear, date)
	if err != nil {
		return ScoredCandidate{}, nil, false, err
	}
	if !keep {
		return candidate, nil, false, nil
	}

	candidate.Slots, err = resolveSlots(record)
	if err != nil {
		s.logger.WarnContext(ctx, "salary row has no usable roster positions", "name", record.Name, "error", err)
		return candidate, nil, false, nil
	}

	vector, err := s.features.LiveVector(ctx, LiveInput{
		Player:     pl,
		TeamID:     teamRow.ID,
		OpponentID: opponentRow.ID,
		Season:     seasonYear,
		GameDate:   date,
		Home:       strings.EqualFold(record.Team, homeSideFromGameInfo(record)),
		Starter:    candidate.Starter,
	})
	if err != nil {
		return ScoredCandidate{}, nil, false, err
	}

	return candidate, vector, true, nil
}

// clearsPointsFloor keeps a player when either their recent window or full
// season fantasy-point average reaches the floor.
func (s *PredictionService) clearsPointsFloor(ctx context.Context, playerID string, seasonYear int, date time.Time) (bool, error) {
	lines, err := s.history.PlayerHistory(ctx, stats.PlayerLineQuery{
		PlayerID: playerID,
		Season:   seasonYear,
		Cutoff:   date,
		Venue:    game.VenueAny,
	})
	if err != nil {
		return false, err
	}

	scores := make([]*float64, 0, len(lines))
	for _, line := range lines {
		scores = append(scores, stats.FantasyScore(line.Line))
	}

	recent := scores
	if len(recent) > s.cfg.WindowSize {
		recent = recent[:s.cfg.WindowSize]
	}
	recentAvg, recentOK := encoding.Mean(recent)
	seasonAvg, seasonOK := encoding.Mean(scores)

	if recentOK && recentAvg >= s.cfg.AvgPointsFloor {
		return true, nil
	}
	if seasonOK && seasonAvg >= s.cfg.AvgPointsFloor {
		return true, nil
	}
	return false, nil
}

func indexFeed(lineups []TeamLineup) map[string]feedStatus {
	out := make(map[string]feedStatus, len(lineups))
	for _, lineup := range lineups {
		status := feedStatus{
			starters: make(map[string]struct{}, feedStarterCount),
			injured:  make(map[string]struct{}, len(lineup.Injured)),
		}
		for i, starter := range lineup.Starters {
			if i == feedStarterCount {
				break
			}
			status.starters[player.FormatName(starter.Name)] = struct{}{}
		}
		for _, hurt := range lineup.Injured {
			status.injured[player.FormatName(hurt.Name)] = struct{}{}
		}
		out[strings.ToUpper(lineup.Team)] = status
	}
	return out
}

func resolveSlots(record SalaryRecord) ([]roster.Slot, error) {
	if len(record.RosterPositions) > 0 {
		slots := make([]roster.Slot, 0, len(record.RosterPositions))
		for _, raw := range record.RosterPositions {
			slot, err := roster.ParseSlot(raw)
			if err != nil {
				return nil, err
			}
			slots = append(slots, slot)
		}
		return slots, nil
	}

	positions := make([]player.Position, 0, len(record.Positions))
	for _, raw := range record.Positions {
		pos := player.Position(raw)
		if _, ok := player.AllPositions[pos]; !ok {
			return nil, fmt.Errorf("unknown position %q", raw)
		}
		positions = append(positions, pos)
	}
	slots := roster.DefaultSlots(positions)
	if len(slots) == 0 {
		return nil, fmt.Errorf("no positions listed")
	}
	return slots, nil
}

// homeSideFromGameInfo reports the home abbreviation of a salary row. The
// sheet's Game Info column reads "AWY@HOM"; the parser stores the opposing
// team, so the home side is whichever of the pair is not listed first.
func homeSideFromGameInfo(record SalaryRecord) string {
	if record.HomeTeam != "" {
		return record.HomeTeam
	}
	return record.OpposingTeam
}

func adjustedCost(salary int, projected, rmse float64) float64 {
	confident := projected - rmsePenalty*rmse
	if confident < minConfidentPoints {
		confident = minConfidentPoints
	}
	return float64(salary) / confident
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

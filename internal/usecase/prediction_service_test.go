package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/draftkit/nba-drafter/internal/domain/feature"
	"github.com/draftkit/nba-drafter/internal/domain/player"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	"github.com/draftkit/nba-drafter/internal/domain/team"
)

type stubPlayerRepo struct {
	players []player.Player
}

func (r *stubPlayerRepo) GetByID(ctx context.Context, playerID string) (player.Player, error) {
	for _, pl := range r.players {
		if pl.ID == playerID {
			return pl, nil
		}
	}
	return player.Player{}, ErrNotFound
}

func (r *stubPlayerRepo) ListByTeam(ctx context.Context, teamID string) ([]player.Player, error) {
	out := make([]player.Player, 0, len(r.players))
	for _, pl := range r.players {
		if pl.TeamID == teamID {
			out = append(out, pl)
		}
	}
	return out, nil
}

func (r *stubPlayerRepo) FindByFormattedName(ctx context.Context, teamID, formattedName string) (player.Player, error) {
	for _, pl := range r.players {
		if pl.TeamID == teamID && player.FormatName(pl.Name) == formattedName {
			return pl, nil
		}
	}
	return player.Player{}, ErrNotFound
}

type stubTeamRepo struct {
	teams []team.Team
}

func (r *stubTeamRepo) ListAll(ctx context.Context) ([]team.Team, error) {
	return r.teams, nil
}

func (r *stubTeamRepo) GetByAbbreviation(ctx context.Context, abbreviation string) (team.Team, error) {
	for _, t := range r.teams {
		if t.Abbreviation == abbreviation {
			return t, nil
		}
	}
	return team.Team{}, ErrNotFound
}

type stubFeatureRepo struct {
	summaries feature.SummarySet
	replaced  []feature.ComputedRow
	deleted   []int
	rows      map[string]feature.ComputedRow
}

func (r *stubFeatureRepo) Replace(ctx context.Context, rows []feature.ComputedRow) error {
	r.replaced = append(r.replaced, rows...)
	return nil
}

func (r *stubFeatureRepo) Get(ctx context.Context, gameID, playerID string) (feature.ComputedRow, error) {
	row, ok := r.rows[gameID+"/"+playerID]
	if !ok {
		return feature.ComputedRow{}, ErrNotFound
	}
	return row, nil
}

func (r *stubFeatureRepo) DeleteSeason(ctx context.Context, season int) error {
	r.deleted = append(r.deleted, season)
	return nil
}

func (r *stubFeatureRepo) SummaryStats(ctx context.Context, minAvgSeconds, minGames int) (feature.SummarySet, error) {
	return r.summaries, nil
}

type stubFeed struct {
	lineups []TeamLineup
	err     error
}

func (f *stubFeed) FetchLineups(ctx context.Context, date time.Time) ([]TeamLineup, error) {
	return f.lineups, f.err
}

type stubPredictor struct {
	value float64
}

func (p *stubPredictor) Predict(ctx context.Context, x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = p.value
	}
	return out, nil
}

func testSummaries() feature.SummarySet {
	return feature.SummarySet{
		feature.StatFantasyPoints:   {Mean: 20, Min: 0, Max: 80},
		feature.StatMinutes:         {Mean: 24, Min: 0, Max: 48},
		feature.StatPointsPerMinute: {Mean: 0.8, Min: 0, Max: 3},
		feature.StatPlusMinus:       {Mean: 0, Min: -30, Max: 30},
		feature.StatAllowed:         {Mean: 40, Min: 0, Max: 120},
		feature.StatHeight:          {Mean: 78, Min: 65, Max: 90},
		feature.StatWeight:          {Mean: 220, Min: 150, Max: 320},
		feature.StatAge:             {Mean: 26, Min: 18, Max: 45},
		feature.StatExperience:      {Mean: 5, Min: 0, Max: 25},
	}
}

type predictionFixture struct {
	stats   *stubStatsRepo
	feed    *stubFeed
	service *PredictionService
}

func newPredictionFixture(t *testing.T) *predictionFixture {
	t.Helper()

	seconds := 1800
	lines := make([]stats.GameLine, 0, 5)
	for i := 1; i <= 5; i++ {
		lines = append(lines, stats.GameLine{
			GameID:     "g" + string(rune('0'+i)),
			PlayerID:   "p1",
			TeamID:     "t1",
			OpponentID: "t2",
			Season:     2025,
			GameDate:   day(-i),
			Line:       stats.StatLine{SecondsPlayed: &seconds, Points: 40},
		})
	}

	statsRepo := &stubStatsRepo{
		lines: lines,
		valid: []stats.PlayerSeason{{Season: 2025, PlayerID: "p1"}},
		first: 2024,
		last:  2025,
	}
	playerRepo := &stubPlayerRepo{players: []player.Player{{
		ID:           "p1",
		TeamID:       "t1",
		Name:         "Jayson Tatum",
		Position:     player.PositionSmallForward,
		HeightInches: 80,
		WeightPounds: 210,
		BirthDate:    time.Date(1998, time.March, 3, 0, 0, 0, 0, time.UTC),
		RookieSeason: 2018,
	}}}
	teamRepo := &stubTeamRepo{teams: []team.Team{
		{ID: "t1", Name: "Boston", Abbreviation: "BOS"},
		{ID: "t2", Name: "New York", Abbreviation: "NYK"},
	}}
	featureRepo := &stubFeatureRepo{summaries: testSummaries()}
	feed := &stubFeed{lineups: []TeamLineup{{
		Team:     "BOS",
		Starters: []FeedPlayer{{Name: "Jayson Tatum", Team: "BOS", Position: "SF"}},
	}}}

	history := NewHistoryService(statsRepo, &stubGameRepo{err: ErrNotFound}, nil)
	features := NewFeatureService(FeatureConfig{}, history, statsRepo, featureRepo, playerRepo, teamRepo, nil, nil)
	service := NewPredictionService(
		PredictionConfig{},
		features,
		history,
		playerRepo,
		teamRepo,
		feed,
		&stubPredictor{value: 50},
		nil,
	)

	return &predictionFixture{stats: statsRepo, feed: feed, service: service}
}

func salaryRow() SalaryRecord {
	return SalaryRecord{
		Name:            "Jayson Tatum",
		Team:            "BOS",
		OpposingTeam:    "NYK",
		HomeTeam:        "BOS",
		RosterPositions: []string{"SF", "F", "UTIL"},
		Salary:          9000,
	}
}

func TestCandidatesBuildsScoredPool(t *testing.T) {
	t.Parallel()

	fx := newPredictionFixture(t)
	pool, err := fx.service.Candidates(context.Background(), SlateRequest{
		Date:     day(0),
		Salaries: []SalaryRecord{salaryRow()},
		RMSE:     10,
	})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}

	if len(pool) != 1 {
		t.Fatalf("unexpected pool size: got=%d want=1", len(pool))
	}
	got := pool[0]
	if got.PlayerID != "p1" || !got.Starter {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	if got.ProjectedPoints != 50 {
		t.Fatalf("unexpected projection: got=%v want=50", got.ProjectedPoints)
	}
	// 9000 / (50 - 0.5*10) = 200 dollars per discounted point.
	if got.AdjustedCost != 200 {
		t.Fatalf("unexpected adjusted cost: got=%v want=200", got.AdjustedCost)
	}
	if len(got.Slots) != 3 {
		t.Fatalf("unexpected slots: %v", got.Slots)
	}
}

func TestCandidatesDropsInjuredBench(t *testing.T) {
	t.Parallel()

	fx := newPredictionFixture(t)
	fx.feed.lineups = []TeamLineup{{
		Team:    "BOS",
		Injured: []FeedPlayer{{Name: "Jayson Tatum", Team: "BOS", Injury: "out"}},
	}}

	pool, err := fx.service.Candidates(context.Background(), SlateRequest{
		Date:     day(0),
		Salaries: []SalaryRecord{salaryRow()},
	})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(pool) != 0 {
		t.Fatalf("injured bench player must be dropped, got %d candidates", len(pool))
	}
}

func TestCandidatesKeepsInjuredStarter(t *testing.T) {
	t.Parallel()

	fx := newPredictionFixture(t)
	fx.feed.lineups = []TeamLineup{{
		Team:     "BOS",
		Starters: []FeedPlayer{{Name: "Jayson Tatum", Team: "BOS"}},
		Injured:  []FeedPlayer{{Name: "Jayson Tatum", Team: "BOS", Injury: "questionable"}},
	}}

	pool, err := fx.service.Candidates(context.Background(), SlateRequest{
		Date:     day(0),
		Salaries: []SalaryRecord{salaryRow()},
	})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(pool) != 1 {
		t.Fatalf("listed starter must survive an injury note, got %d candidates", len(pool))
	}
}

func TestCandidatesDropsLowVolumePlayers(t *testing.T) {
	t.Parallel()

	fx := newPredictionFixture(t)
	seconds := 600
	for i := range fx.stats.lines {
		fx.stats.lines[i].Line = stats.StatLine{SecondsPlayed: &seconds, Points: 5}
	}

	pool, err := fx.service.Candidates(context.Background(), SlateRequest{
		Date:     day(0),
		Salaries: []SalaryRecord{salaryRow()},
	})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(pool) != 0 {
		t.Fatalf("low-volume player must be dropped, got %d candidates", len(pool))
	}
}

func TestCandidatesValidation(t *testing.T) {
	t.Parallel()

	fx := newPredictionFixture(t)

	if _, err := fx.service.Candidates(context.Background(), SlateRequest{Salaries: []SalaryRecord{salaryRow()}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing date, got %v", err)
	}
	if _, err := fx.service.Candidates(context.Background(), SlateRequest{Date: day(0)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty sheet, got %v", err)
	}
}

func TestCandidatesFeedFailure(t *testing.T) {
	t.Parallel()

	fx := newPredictionFixture(t)
	fx.feed.err = errors.New("upstream down")

	if _, err := fx.service.Candidates(context.Background(), SlateRequest{
		Date:     day(0),
		Salaries: []SalaryRecord{salaryRow()},
	}); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

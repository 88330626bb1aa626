package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/draftkit/nba-drafter/internal/domain/feature"
	"github.com/draftkit/nba-drafter/internal/domain/game"
	"github.com/draftkit/nba-drafter/internal/domain/player"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	"github.com/draftkit/nba-drafter/internal/domain/team"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

func gameDay(offset int) time.Time {
	return time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func testStore() *Store {
	seconds := 1800
	teams := []team.Team{
		{ID: "t1", Name: "Boston", Abbreviation: "BOS"},
		{ID: "t2", Name: "New York", Abbreviation: "NYK"},
	}
	players := []player.Player{
		{ID: "p1", TeamID: "t1", Name: "Jayson Tatum", Position: player.PositionSmallForward},
		{ID: "p2", TeamID: "t2", Name: "Jalen Brunson", Position: player.PositionPointGuard},
	}
	games := []game.Game{
		{ID: "g1", Season: 2025, Date: gameDay(-3), HomeTeamID: "t1", AwayTeamID: "t2"},
		{ID: "g2", Season: 2025, Date: gameDay(-1), HomeTeamID: "t2", AwayTeamID: "t1"},
	}
	lines := []stats.GameLine{
		{GameID: "g1", PlayerID: "p1", TeamID: "t1", OpponentID: "t2", Season: 2025, GameDate: gameDay(-3), Home: true, Line: stats.StatLine{SecondsPlayed: &seconds, Points: 30}},
		{GameID: "g1", PlayerID: "p2", TeamID: "t2", OpponentID: "t1", Season: 2025, GameDate: gameDay(-3), Home: false, Line: stats.StatLine{SecondsPlayed: &seconds, Points: 25}},
		{GameID: "g2", PlayerID: "p1", TeamID: "t1", OpponentID: "t2", Season: 2025, GameDate: gameDay(-1), Home: false, Line: stats.StatLine{SecondsPlayed: &seconds, Points: 20}},
		{GameID: "g2", PlayerID: "p2", TeamID: "t2", OpponentID: "t1", Season: 2025, GameDate: gameDay(-1), Home: true, Line: stats.StatLine{SecondsPlayed: &seconds, Points: 35}},
	}
	return NewStore(teams, players, games, lines)
}

func TestListPlayerLinesBeforeOrderAndCutoff(t *testing.T) {
	t.Parallel()

	repo := testStore().Stats()
	lines, err := repo.ListPlayerLinesBefore(context.Background(), stats.PlayerLineQuery{
		PlayerID: "p1",
		Season:   2025,
		Cutoff:   gameDay(0),
	})
	if err != nil {
		t.Fatalf("list player lines: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("unexpected line count: got=%d want=2", len(lines))
	}
	if lines[0].GameID != "g2" || lines[1].GameID != "g1" {
		t.Fatalf("lines must be most recent first: %v %v", lines[0].GameID, lines[1].GameID)
	}

	clamped, err := repo.ListPlayerLinesBefore(context.Background(), stats.PlayerLineQuery{
		PlayerID: "p1",
		Season:   2025,
		Cutoff:   gameDay(-2),
	})
	if err != nil {
		t.Fatalf("list player lines: %v", err)
	}
	if len(clamped) != 1 || clamped[0].GameID != "g1" {
		t.Fatalf("cutoff must exclude later games: %+v", clamped)
	}
}

func TestListAllowedToPositionVenue(t *testing.T) {
	t.Parallel()

	repo := testStore().Stats()

	// Points t1 conceded to point guards: Brunson's 25 in g1 (t1 hosting)
	// and 35 in g2 (t1 visiting).
	totals, err := repo.ListAllowedToPosition(context.Background(), stats.AllowedQuery{
		OpponentID: "t1",
		Position:   "PG",
		Season:     2025,
		Cutoff:     gameDay(0),
	})
	if err != nil {
		t.Fatalf("list allowed: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("unexpected total count: got=%d want=2", len(totals))
	}
	if totals[0].GameID != "g2" || totals[0].Points != 35 {
		t.Fatalf("unexpected most recent total: %+v", totals[0])
	}

	home, err := repo.ListAllowedToPosition(context.Background(), stats.AllowedQuery{
		OpponentID: "t1",
		Position:   "PG",
		Season:     2025,
		Cutoff:     gameDay(0),
		Venue:      game.VenueHome,
	})
	if err != nil {
		t.Fatalf("list allowed home: %v", err)
	}
	if len(home) != 1 || home[0].GameID != "g1" {
		t.Fatalf("home split must keep only games t1 hosted: %+v", home)
	}
}

func TestValidPlayerSeasonsThresholds(t *testing.T) {
	t.Parallel()

	repo := testStore().Stats()

	pairs, err := repo.ValidPlayerSeasons(context.Background(), 720, 2)
	if err != nil {
		t.Fatalf("valid player seasons: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("unexpected pair count: got=%d want=2", len(pairs))
	}

	strict, err := repo.ValidPlayerSeasons(context.Background(), 720, 3)
	if err != nil {
		t.Fatalf("valid player seasons: %v", err)
	}
	if len(strict) != 0 {
		t.Fatalf("two games must not satisfy a three-game minimum: %+v", strict)
	}
}

func TestValidPlayerSeasonsAverageSecondsBoundary(t *testing.T) {
	t.Parallel()

	seed := func(playerID string, games, seconds int) []stats.GameLine {
		lines := make([]stats.GameLine, 0, games)
		for i := 0; i < games; i++ {
			s := seconds
			lines = append(lines, stats.GameLine{
				GameID:   fmt.Sprintf("g-%s-%d", playerID, i),
				PlayerID: playerID,
				TeamID:   "t1",
				Season:   2025,
				GameDate: gameDay(-i - 1),
				Line:     stats.StatLine{SecondsPlayed: &s, Points: 10},
			})
		}
		return lines
	}

	players := []player.Player{
		{ID: "p-at", TeamID: "t1", Name: "At Threshold", Position: player.PositionCenter},
		{ID: "p-under", TeamID: "t1", Name: "Under Threshold", Position: player.PositionCenter},
		{ID: "p-few", TeamID: "t1", Name: "Few Games", Position: player.PositionCenter},
	}
	var lines []stats.GameLine
	lines = append(lines, seed("p-at", 15, 720)...)
	lines = append(lines, seed("p-under", 15, 700)...)
	lines = append(lines, seed("p-few", 14, 720)...)

	store := NewStore(
		[]team.Team{{ID: "t1", Name: "Boston", Abbreviation: "BOS"}},
		players, nil, lines,
	)

	history := usecase.NewHistoryService(store.Stats(), store.Games(), nil)
	svc := usecase.NewFeatureService(
		usecase.FeatureConfig{MinAvgSeconds: 720, MinGames: 15},
		history, store.Stats(), store.Features(), store.Players(), store.Teams(), nil, nil,
	)

	valid, err := svc.ValidPlayerSeasons(context.Background())
	if err != nil {
		t.Fatalf("valid player seasons: %v", err)
	}

	if len(valid) != 1 {
		t.Fatalf("unexpected valid pool: %+v", valid)
	}
	if _, ok := valid[stats.PlayerSeason{Season: 2025, PlayerID: "p-at"}]; !ok {
		t.Fatal("an average of exactly 720 seconds over 15 games must qualify")
	}
	if _, ok := valid[stats.PlayerSeason{Season: 2025, PlayerID: "p-under"}]; ok {
		t.Fatal("an average of 700 seconds must not qualify")
	}
	if _, ok := valid[stats.PlayerSeason{Season: 2025, PlayerID: "p-few"}]; ok {
		t.Fatal("fourteen games must not satisfy a fifteen-game minimum")
	}
}

func TestFeatureReplaceIsIdempotent(t *testing.T) {
	t.Parallel()

	store := testStore()
	repo := store.Features()
	row := feature.ComputedRow{GameID: "g1", PlayerID: "p1", Payload: []byte(`{"v":1}`)}

	for i := 0; i < 3; i++ {
		if err := repo.Replace(context.Background(), []feature.ComputedRow{row}); err != nil {
			t.Fatalf("replace: %v", err)
		}
	}

	got, err := repo.Get(context.Background(), "g1", "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Payload) != `{"v":1}` {
		t.Fatalf("unexpected payload: %s", got.Payload)
	}
	if len(store.features) != 1 {
		t.Fatalf("repeated replace must keep one row, got %d", len(store.features))
	}
}

func TestFeatureDeleteSeason(t *testing.T) {
	t.Parallel()

	store := testStore()
	repo := store.Features()
	rows := []feature.ComputedRow{
		{GameID: "g1", PlayerID: "p1", Payload: []byte(`{}`)},
		{GameID: "g2", PlayerID: "p2", Payload: []byte(`{}`)},
	}
	if err := repo.Replace(context.Background(), rows); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := repo.DeleteSeason(context.Background(), 2025); err != nil {
		t.Fatalf("delete season: %v", err)
	}
	if len(store.features) != 0 {
		t.Fatalf("expected season rows gone, got %d", len(store.features))
	}
}

func TestSummaryStatsCoverAllEncoderInputs(t *testing.T) {
	t.Parallel()

	repo := testStore().Features()
	set, err := repo.SummaryStats(context.Background(), 720, 2)
	if err != nil {
		t.Fatalf("summary stats: %v", err)
	}

	for _, stat := range []string{
		feature.StatFantasyPoints,
		feature.StatMinutes,
		feature.StatPointsPerMinute,
		feature.StatPlusMinus,
		feature.StatAllowed,
		feature.StatHeight,
		feature.StatWeight,
		feature.StatAge,
		feature.StatExperience,
	} {
		if _, err := set.Get(stat); err != nil {
			t.Fatalf("missing summary: %v", err)
		}
	}
}

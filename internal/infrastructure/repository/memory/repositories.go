package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/draftkit/nba-drafter/internal/domain/feature"
	"github.com/draftkit/nba-drafter/internal/domain/game"
	"github.com/draftkit/nba-drafter/internal/domain/player"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	"github.com/draftkit/nba-drafter/internal/domain/team"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

type TeamRepository struct {
	store *Store
}

func (r *TeamRepository) ListAll(_ context.Context) ([]team.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := append([]team.Team(nil), r.store.teams...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TeamRepository) GetByAbbreviation(_ context.Context, abbreviation string) (team.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, t := range r.store.teams {
		if t.Abbreviation == abbreviation {
			return t, nil
		}
	}
	return team.Team{}, fmt.Errorf("%w: team %s", usecase.ErrNotFound, abbreviation)
}

type PlayerRepository struct {
	store *Store
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID string) (player.Player, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	pl, ok := r.store.players[playerID]
	if !ok {
		return player.Player{}, fmt.Errorf("%w: player %s", usecase.ErrNotFound, playerID)
	}
	return pl, nil
}

func (r *PlayerRepository) ListByTeam(_ context.Context, teamID string) ([]player.Player, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]player.Player, 0)
	for _, pl := range r.store.players {
		if pl.TeamID == teamID {
			out = append(out, pl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

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

type GameRepository struct {
	store *Store
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	g, ok := r.store.games[gameID]
	if !ok {
		return game.Game{}, fmt.Errorf("%w: game %s", usecase.ErrNotFound, gameID)
	}
	return g, nil
}

func (r *GameRepository) ListSeason(_ context.Context, season int) ([]game.Game, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, g := range r.store.games {
		if g.Season == season {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *GameRepository) LastMeetingBefore(_ context.Context, teamID, opponentID string, cutoff time.Time, venue game.Venue) (game.Game, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var (
		best  game.Game
		found bool
	)
	for _, g := range r.store.games {
		if !g.Date.Before(cutoff) {
			continue
		}
		homeMeeting := g.HomeTeamID == teamID && g.AwayTeamID == opponentID
		awayMeeting := g.HomeTeamID == opponentID && g.AwayTeamID == teamID
		switch venue {
		case game.VenueHome:
			if !homeMeeting {
				continue
			}
		case game.VenueAway:
			if !awayMeeting {
				continue
			}
		default:
			if !homeMeeting && !awayMeeting {
				continue
			}
		}

		if !found || g.Date.After(best.Date) {
			best = g
			found = true
		}
	}
	if !found {
		return game.Game{}, fmt.Errorf("%w: no meeting between %s and %s", usecase.ErrNotFound, teamID, opponentID)
	}
	return best, nil
}

type StatsRepository struct {
	store *Store
}

func (r *StatsRepository) ListPlayerLinesBefore(_ context.Context, q stats.PlayerLineQuery) ([]stats.GameLine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]stats.GameLine, 0)
	for _, line := range r.store.lines {
		if line.PlayerID != q.PlayerID || line.Season != q.Season {
			continue
		}
		if !line.GameDate.Before(q.Cutoff) {
			continue
		}
		if q.OpponentID != "" && line.OpponentID != q.OpponentID {
			continue
		}
		if q.Venue == game.VenueHome && !line.Home {
			continue
		}
		if q.Venue == game.VenueAway && line.Home {
			continue
		}
		out = append(out, line)
	}

	sortLinesMostRecentFirst(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *StatsRepository) ListAllowedToPosition(_ context.Context, q stats.AllowedQuery) ([]stats.AllowedTotal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	totals := make([]stats.AllowedTotal, 0)
	index := make(map[string]int)
	for _, line := range r.store.lines {
		if line.OpponentID != q.OpponentID || line.Season != q.Season {
			continue
		}
		if !line.GameDate.Before(q.Cutoff) {
			continue
		}
		// The defending team hosted when the scoring player was away.
		if q.Venue == game.VenueHome && line.Home {
			continue
		}
		if q.Venue == game.VenueAway && !line.Home {
			continue
		}
		pl, ok := r.store.players[line.PlayerID]
		if !ok || string(pl.Position) != q.Position {
			continue
		}
		score := stats.FantasyScore(line.Line)
		if score == nil {
			continue
		}

		i, ok := index[line.GameID]
		if !ok {
			i = len(totals)
			index[line.GameID] = i
			totals = append(totals, stats.AllowedTotal{GameID: line.GameID, GameDate: line.GameDate})
		}
		totals[i].Points += *score
	}

	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].GameDate.Equal(totals[j].GameDate) {
			return totals[i].GameDate.After(totals[j].GameDate)
		}
		return totals[i].GameID > totals[j].GameID
	})
	if q.Limit > 0 && len(totals) > q.Limit {
		totals = totals[:q.Limit]
	}
	return totals, nil
}

func (r *StatsRepository) ListSeasonLines(_ context.Context, season int) ([]stats.GameLine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]stats.GameLine, 0)
	for _, line := range r.store.lines {
		if line.Season == season {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GameDate.Equal(out[j].GameDate) {
			return out[i].GameDate.Before(out[j].GameDate)
		}
		if out[i].GameID != out[j].GameID {
			return out[i].GameID < out[j].GameID
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (r *StatsRepository) ValidPlayerSeasons(_ context.Context, minAvgSeconds, minGames int) ([]stats.PlayerSeason, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	type sample struct {
		seconds int
		games   int
	}
	samples := make(map[stats.PlayerSeason]*sample)
	for _, line := range r.store.lines {
		if line.Line.SecondsPlayed == nil {
			continue
		}
		key := stats.PlayerSeason{Season: line.Season, PlayerID: line.PlayerID}
		s, ok := samples[key]
		if !ok {
			s = &sample{}
			samples[key] = s
		}
		s.seconds += *line.Line.SecondsPlayed
		s.games++
	}

	out := make([]stats.PlayerSeason, 0, len(samples))
	for key, s := range samples {
		if s.games < minGames {
			continue
		}
		if float64(s.seconds)/float64(s.games) < float64(minAvgSeconds) {
			continue
		}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (r *StatsRepository) SeasonRange(_ context.Context) (int, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if len(r.store.games) == 0 {
		return 0, 0, fmt.Errorf("%w: no games recorded", usecase.ErrNotFound)
	}

	first, last := 0, 0
	for _, g := range r.store.games {
		if first == 0 || g.Season < first {
			first = g.Season
		}
		if g.Season > last {
			last = g.Season
		}
	}
	return first, last, nil
}

type FeatureRepository struct {
	store *Store
}

func (r *FeatureRepository) Replace(_ context.Context, rows []feature.ComputedRow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, row := range rows {
		r.store.features[featureKey{row.GameID, row.PlayerID}] = row
	}
	return nil
}

func (r *FeatureRepository) Get(_ context.Context, gameID, playerID string) (feature.ComputedRow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.features[featureKey{gameID, playerID}]
	if !ok {
		return feature.ComputedRow{}, fmt.Errorf("%w: computed row game=%s player=%s", usecase.ErrNotFound, gameID, playerID)
	}
	return row, nil
}

func (r *FeatureRepository) DeleteSeason(_ context.Context, season int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for key := range r.store.features {
		g, ok := r.store.games[key.gameID]
		if ok && g.Season == season {
			delete(r.store.features, key)
		}
	}
	return nil
}

func (r *FeatureRepository) SummaryStats(ctx context.Context, minAvgSeconds, minGames int) (feature.SummarySet, error) {
	statsRepo := r.store.Stats()

	pairs, err := statsRepo.ValidPlayerSeasons(ctx, minAvgSeconds, minGames)
	if err != nil {
		return nil, err
	}
	valid := make(map[stats.PlayerSeason]struct{}, len(pairs))
	for _, pair := range pairs {
		valid[pair] = struct{}{}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

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

	for _, line := range r.store.lines {
		score := stats.FantasyScore(line.Line)
		if score == nil {
			continue
		}

		pl, known := r.store.players[line.PlayerID]
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

func sortLinesMostRecentFirst(lines []stats.GameLine) {
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].GameDate.Equal(lines[j].GameDate) {
			return lines[i].GameDate.After(lines[j].GameDate)
		}
		return lines[i].GameID > lines[j].GameID
	})
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

package memory

import (
	"sync"

	"github.com/draftkit/nba-drafter/internal/domain/feature"
	"github.com/draftkit/nba-drafter/internal/domain/game"
	"github.com/draftkit/nba-drafter/internal/domain/player"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	"github.com/draftkit/nba-drafter/internal/domain/team"
)

type featureKey struct {
	gameID   string
	playerID string
}

// Store holds a full corpus in memory. It backs the repository
// implementations used by tests and offline runs.
type Store struct {
	mu       sync.RWMutex
	teams    []team.Team
	players  map[string]player.Player
	games    map[string]game.Game
	lines    []stats.GameLine
	features map[featureKey]feature.ComputedRow
}

func NewStore(teams []team.Team, players []player.Player, games []game.Game, lines []stats.GameLine) *Store {
	s := &Store{
		teams:    append([]team.Team(nil), teams...),
		players:  make(map[string]player.Player, len(players)),
		games:    make(map[string]game.Game, len(games)),
		lines:    append([]stats.GameLine(nil), lines...),
		features: make(map[featureKey]feature.ComputedRow),
	}
	for _, pl := range players {
		s.players[pl.ID] = pl
	}
	for _, g := range games {
		s.games[g.ID] = g
	}
	return s
}

func (s *Store) Teams() *TeamRepository       { return &TeamRepository{store: s} }
func (s *Store) Players() *PlayerRepository   { return &PlayerRepository{store: s} }
func (s *Store) Games() *GameRepository       { return &GameRepository{store: s} }
func (s *Store) Stats() *StatsRepository      { return &StatsRepository{store: s} }
func (s *Store) Features() *FeatureRepository { return &FeatureRepository{store: s} }

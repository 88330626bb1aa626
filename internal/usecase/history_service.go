package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/draftkit/nba-drafter/internal/domain/game"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	"github.com/draftkit/nba-drafter/internal/platform/logging"
)

// HistoryService is the leakage boundary: every rolling-window feature is
// built from its queries, which only ever return games strictly before the
// cutoff date.
type HistoryService struct {
	stats  stats.Repository
	games  game.Repository
	logger *logging.Logger
}

func NewHistoryService(statsRepo stats.Repository, gameRepo game.Repository, logger *logging.Logger) *HistoryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &HistoryService{
		stats:  statsRepo,
		games:  gameRepo,
		logger: logger,
	}
}

// PlayerHistory returns a player's stat lines for one season, most recent
// first, strictly before the cutoff date, optionally narrowed to games at
// or against one opponent.
func (s *HistoryService) PlayerHistory(ctx context.Context, q stats.PlayerLineQuery) ([]stats.GameLine, error) {
	if q.PlayerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	if q.Season <= 0 {
		return nil, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if q.Cutoff.IsZero() {
		return nil, fmt.Errorf("%w: cutoff date is required", ErrInvalidInput)
	}
	if q.Venue == "" {
		q.Venue = game.VenueAny
	}
	if !q.Venue.Valid() {
		return nil, fmt.Errorf("%w: invalid venue filter %q", ErrInvalidInput, q.Venue)
	}
	if q.Venue != game.VenueAny && q.OpponentID == "" {
		return nil, fmt.Errorf("%w: venue filter requires an opponent id", ErrInvalidInput)
	}

	lines, err := s.stats.ListPlayerLinesBefore(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list player lines player=%s season=%d: %w", q.PlayerID, q.Season, err)
	}

	return clampToCutoff(lines, q.Cutoff), nil
}

// OpponentAllowed returns the fantasy production an opponent conceded per
// game to players of one position, most recent first, strictly before the
// cutoff date.
func (s *HistoryService) OpponentAllowed(ctx context.Context, q stats.AllowedQuery) ([]stats.AllowedTotal, error) {
	if q.OpponentID == "" {
		return nil, fmt.Errorf("%w: opponent id is required", ErrInvalidInput)
	}
	if q.Position == "" {
		return nil, fmt.Errorf("%w: position is required", ErrInvalidInput)
	}
	if q.Season <= 0 {
		return nil, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if q.Cutoff.IsZero() {
		return nil, fmt.Errorf("%w: cutoff date is required", ErrInvalidInput)
	}
	if q.Venue == "" {
		q.Venue = game.VenueAny
	}
	if !q.Venue.Valid() {
		return nil, fmt.Errorf("%w: invalid venue filter %q", ErrInvalidInput, q.Venue)
	}

	totals, err := s.stats.ListAllowedToPosition(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list allowed to position opponent=%s position=%s: %w", q.OpponentID, q.Position, err)
	}

	out := make([]stats.AllowedTotal, 0, len(totals))
	for _, total := range totals {
		if !total.GameDate.Before(q.Cutoff) {
			continue
		}
		out = append(out, total)
	}
	return out, nil
}

// DaysSinceLastMeeting returns how many days before cutoff the two teams
// last met at the given venue, or nil when they have not met.
func (s *HistoryService) DaysSinceLastMeeting(ctx context.Context, teamID, opponentID string, cutoff time.Time, venue game.Venue) (*float64, error) {
	if teamID == "" || opponentID == "" {
		return nil, fmt.Errorf("%w: team and opponent ids are required", ErrInvalidInput)
	}

	meeting, err := s.games.LastMeetingBefore(ctx, teamID, opponentID, cutoff, venue)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("last meeting team=%s opponent=%s: %w", teamID, opponentID, err)
	}

	days := cutoff.Sub(meeting.Date).Hours() / 24
	return &days, nil
}

// clampToCutoff drops any line at or past the cutoff. The repositories
// already filter by date; this keeps the no-leakage invariant local.
func clampToCutoff(lines []stats.GameLine, cutoff time.Time) []stats.GameLine {
	out := make([]stats.GameLine, 0, len(lines))
	for _, line := range lines {
		if !line.GameDate.Before(cutoff) {
			continue
		}
		out = append(out, line)
	}
	return out
}

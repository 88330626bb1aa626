package roster

import (
	"errors"
	"fmt"

	"github.com/draftkit/nba-drafter/internal/domain/player"
)

var (
	ErrInvalidRosterSize = errors.New("invalid roster size")
	ErrSalaryBelowFloor  = errors.New("salary below minimum spend")
	ErrSalaryOverCap     = errors.New("salary cap exceeded")
	ErrBelowPointsFloor  = errors.New("projected points below floor")
	ErrUnassignable      = errors.New("players cannot fill the roster slots")
	ErrDuplicatePlayer   = errors.New("duplicate player in roster")
	ErrUnknownSlot       = errors.New("unknown roster slot")
)

// Slot is a named lineup position a player may fill if eligible.
type Slot string

const (
	SlotPointGuard    Slot = "PG"
	SlotShootingGuard Slot = "SG"
	SlotSmallForward  Slot = "SF"
	SlotPowerForward  Slot = "PF"
	SlotCenter        Slot = "C"
	SlotGuard         Slot = "G"
	SlotForward       Slot = "F"
	SlotUtility       Slot = "UTIL"
)

// SlotOrder is the fixed DraftKings slot order the greedy assignment walks.
var SlotOrder = []Slot{
	SlotPointGuard,
	SlotShootingGuard,
	SlotSmallForward,
	SlotPowerForward,
	SlotCenter,
	SlotGuard,
	SlotForward,
	SlotUtility,
}

var allSlots = map[Slot]struct{}{
	SlotPointGuard:    {},
	SlotShootingGuard: {},
	SlotSmallForward:  {},
	SlotPowerForward:  {},
	SlotCenter:        {},
	SlotGuard:         {},
	SlotForward:       {},
	SlotUtility:       {},
}

// ParseSlot validates a slot name from an external salary sheet.
func ParseSlot(raw string) (Slot, error) {
	slot := Slot(raw)
	if _, ok := allSlots[slot]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, raw)
	}
	return slot, nil
}

// DefaultSlots derives slot eligibility from listed positions, for rows
// that do not carry an explicit roster-position list.
func DefaultSlots(positions []player.Position) []Slot {
	seen := make(map[Slot]struct{}, len(SlotOrder))
	out := make([]Slot, 0, len(SlotOrder))
	add := func(slots ...Slot) {
		for _, slot := range slots {
			if _, ok := seen[slot]; ok {
				continue
			}
			seen[slot] = struct{}{}
			out = append(out, slot)
		}
	}

	for _, pos := range positions {
		switch pos {
		case player.PositionPointGuard:
			add(SlotPointGuard, SlotGuard, SlotUtility)
		case player.PositionShootingGuard:
			add(SlotShootingGuard, SlotGuard, SlotUtility)
		case player.PositionSmallForward:
			add(SlotSmallForward, SlotForward, SlotUtility)
		case player.PositionPowerForward:
			add(SlotPowerForward, SlotForward, SlotUtility)
		case player.PositionCenter:
			add(SlotCenter, SlotUtility)
		}
	}
	return out
}

// Rules stores lineup validation parameters.
type Rules struct {
	Size               int
	BudgetCap          int
	MinSpend           int
	MinProjectedPoints float64
}

func DefaultRules() Rules {
	return Rules{
		Size:               8,
		BudgetCap:          50000,
		MinSpend:           45000,
		MinProjectedPoints: 250,
	}
}

// Candidate is one player available to the lineup search. Slots lists the
// roster positions the player may fill, as published on the salary sheet.
type Candidate struct {
	PlayerID        string
	Name            string
	TeamID          string
	Slots           []Slot
	Salary          int
	ProjectedPoints float64
}

// Pick is a candidate placed into a lineup slot.
type Pick struct {
	Candidate
	Slot Slot
}

// Lineup is an ephemeral output of the search, never a persisted entity.
type Lineup struct {
	Picks           []Pick
	TotalSalary     int
	ProjectedPoints float64
}

// SharedPlayers counts candidates two lineups have in common.
func (l Lineup) SharedPlayers(other Lineup) int {
	seen := make(map[string]struct{}, len(l.Picks))
	for _, pick := range l.Picks {
		seen[pick.PlayerID] = struct{}{}
	}

	shared := 0
	for _, pick := range other.Picks {
		if _, ok := seen[pick.PlayerID]; ok {
			shared++
		}
	}
	return shared
}

// Assign places each candidate in turn into the first open slot it is
// eligible for, walking SlotOrder. Greedy first-fit can reject rosters an
// optimal assignment would accept; that approximation is part of the
// contract.
func Assign(candidates []Candidate) ([]Pick, error) {
	if len(candidates) != len(SlotOrder) {
		return nil, fmt.Errorf("%w: expected %d players, got %d", ErrInvalidRosterSize, len(SlotOrder), len(candidates))
	}

	taken := make(map[Slot]struct{}, len(SlotOrder))
	picks := make([]Pick, 0, len(candidates))
	for _, candidate := range candidates {
		placed := false
		for _, slot := range SlotOrder {
			if _, used := taken[slot]; used {
				continue
			}
			if !eligibleForSlot(slot, candidate.Slots) {
				continue
			}
			taken[slot] = struct{}{}
			picks = append(picks, Pick{Candidate: candidate, Slot: slot})
			placed = true
			break
		}
		if !placed {
			return nil, fmt.Errorf("%w: no open slot for %s", ErrUnassignable, candidate.PlayerID)
		}
	}

	return picks, nil
}

// Build validates a combination against the rules and assigns slots.
func Build(candidates []Candidate, rules Rules) (Lineup, error) {
	if len(candidates) != rules.Size {
		return Lineup{}, fmt.Errorf("%w: expected %d players, got %d", ErrInvalidRosterSize, rules.Size, len(candidates))
	}

	seen := make(map[string]struct{}, len(candidates))
	totalSalary := 0
	totalPoints := 0.0
	for _, candidate := range candidates {
		if candidate.PlayerID == "" {
			return Lineup{}, fmt.Errorf("player id is required")
		}
		if _, exists := seen[candidate.PlayerID]; exists {
			return Lineup{}, fmt.Errorf("%w: %s", ErrDuplicatePlayer, candidate.PlayerID)
		}
		seen[candidate.PlayerID] = struct{}{}
		totalSalary += candidate.Salary
		totalPoints += candidate.ProjectedPoints
	}

	if totalSalary > rules.BudgetCap {
		return Lineup{}, fmt.Errorf("%w: cap=%d used=%d", ErrSalaryOverCap, rules.BudgetCap, totalSalary)
	}
	if totalSalary < rules.MinSpend {
		return Lineup{}, fmt.Errorf("%w: floor=%d used=%d", ErrSalaryBelowFloor, rules.MinSpend, totalSalary)
	}
	if totalPoints < rules.MinProjectedPoints {
		return Lineup{}, fmt.Errorf("%w: floor=%v projected=%v", ErrBelowPointsFloor, rules.MinProjectedPoints, totalPoints)
	}

	picks, err := Assign(candidates)
	if err != nil {
		return Lineup{}, err
	}

	return Lineup{
		Picks:           picks,
		TotalSalary:     totalSalary,
		ProjectedPoints: totalPoints,
	}, nil
}

func eligibleForSlot(slot Slot, slots []Slot) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

package player

import (
	"fmt"
	"time"
)

// Position represents basketball position categories used in roster rules.
type Position string

const (
	PositionPointGuard    Position = "PG"
	PositionShootingGuard Position = "SG"
	PositionSmallForward  Position = "SF"
	PositionPowerForward  Position = "PF"
	PositionCenter        Position = "C"
)

var AllPositions = map[Position]struct{}{
	PositionPointGuard:    {},
	PositionShootingGuard: {},
	PositionSmallForward:  {},
	PositionPowerForward:  {},
	PositionCenter:        {},
}

// PositionOrder lists positions in their conventional lineup order.
var PositionOrder = []Position{
	PositionPointGuard,
	PositionShootingGuard,
	PositionSmallForward,
	PositionPowerForward,
	PositionCenter,
}

// Player is an athlete in the box-score corpus.
type Player struct {
	ID           string
	TeamID       string
	Name         string
	Position     Position
	HeightInches int
	WeightPounds int
	BirthDate    time.Time
	RookieSeason int
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	return nil
}

// AgeAt returns the player's age in whole years on a given date.
func (p Player) AgeAt(date time.Time) int {
	if p.BirthDate.IsZero() || date.Before(p.BirthDate) {
		return 0
	}

	age := date.Year() - p.BirthDate.Year()
	birthday := time.Date(date.Year(), p.BirthDate.Month(), p.BirthDate.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(birthday) {
		age--
	}
	return age
}

// ExperienceIn returns full seasons completed before the given season.
func (p Player) ExperienceIn(season int) int {
	if p.RookieSeason == 0 || season <= p.RookieSeason {
		return 0
	}
	return season - p.RookieSeason
}

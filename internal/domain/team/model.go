package team

import "fmt"

// Team is one franchise in the box-score corpus.
type Team struct {
	ID           string
	Name         string
	Abbreviation string
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Abbreviation == "" {
		return fmt.Errorf("team abbreviation is required")
	}
	return nil
}

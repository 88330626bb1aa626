package usecase

import (
	"context"
	"time"
)

// FeedPlayer is one player row from the starting-lineup feed.
type FeedPlayer struct {
	Name     string
	Team     string
	Position string
	Injury   string
}

// TeamLineup is the lineup feed's view of one team on one slate:
// confirmed starters plus everyone carrying an injury note.
type TeamLineup struct {
	Team     string
	Starters []FeedPlayer
	Injured  []FeedPlayer
}

// LineupFeed produces per-team starter/injury records for a slate date.
type LineupFeed interface {
	FetchLineups(ctx context.Context, date time.Time) ([]TeamLineup, error)
}

// SalaryRecord is one row of the daily salary sheet. OpposingTeam and
// HomeTeam are both derived from the sheet's "AWY@HOM" game info column.
type SalaryRecord struct {
	Name            string
	Team            string
	OpposingTeam    string
	HomeTeam        string
	Positions       []string
	RosterPositions []string
	Salary          int
	GameTime        time.Time
	AveragePoints   float64
}

// TrainingMetrics reports model fit quality from a training run.
type TrainingMetrics struct {
	MSE  float64
	RMSE float64
}

// Trainer fits a regression model on encoded feature rows. The model
// family is a black box to this package.
type Trainer interface {
	Train(ctx context.Context, x [][]float64, y []float64, sampleWeights []float64) (TrainingMetrics, error)
}

// Predictor scores encoded feature rows with a previously trained model.
type Predictor interface {
	Predict(ctx context.Context, x [][]float64) ([]float64, error)
}

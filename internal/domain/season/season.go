package season

import "time"

// A season is named after the calendar year it finishes in: games played
// after July 31 belong to the following year's season.
const (
	rolloverMonth = time.July
	rolloverDay   = 31

	seasonScale   = 10.0
	recencyBonus  = 3.0
	recencyWindow = 14 * 24 * time.Hour
	seasonDays    = 365.0
)

// ForDate returns the season a game date belongs to.
func ForDate(date time.Time) int {
	if date.Month() > rolloverMonth {
		return date.Year() + 1
	}
	if date.Month() == rolloverMonth && date.Day() > rolloverDay {
		return date.Year() + 1
	}
	return date.Year()
}

// Start returns the first day of a season, August 1 of the prior year.
func Start(season int) time.Time {
	return time.Date(season-1, time.August, 1, 0, 0, 0, 0, time.UTC)
}

// Progress returns how far into its season a date falls, on [0, 1].
func Progress(date time.Time) float64 {
	elapsed := date.Sub(Start(ForDate(date))).Hours() / 24
	fraction := elapsed / seasonDays
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}

// SampleWeight biases model training toward recent, current-form data.
// Older seasons scale linearly down toward zero on a 0-10 range, in-season
// progress adds up to 1, and games inside the trailing two weeks get a flat
// bonus on top.
func SampleWeight(gameDate, now time.Time, firstSeason, lastSeason int) float64 {
	weight := seasonTerm(ForDate(gameDate), firstSeason, lastSeason) + Progress(gameDate)

	age := now.Sub(gameDate)
	if age >= 0 && age <= recencyWindow {
		weight += recencyBonus
	}

	return weight
}

func seasonTerm(s, first, last int) float64 {
	if last <= first {
		return seasonScale
	}
	if s <= first {
		return 0
	}
	if s >= last {
		return seasonScale
	}
	return float64(s-first) / float64(last-first) * seasonScale
}

package season

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestForDateRolloverBoundary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   time.Time
		want int
	}{
		{"last day of old season", date(2023, time.July, 31), 2023},
		{"first day of new season", date(2023, time.August, 1), 2024},
		{"midseason winter game", date(2024, time.January, 15), 2024},
		{"finals game", date(2024, time.June, 10), 2024},
		{"opening night", date(2023, time.October, 24), 2024},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ForDate(tc.in); got != tc.want {
				t.Fatalf("unexpected season: got=%d want=%d", got, tc.want)
			}
		})
	}
}

func TestProgressBounds(t *testing.T) {
	t.Parallel()

	if got := Progress(date(2023, time.August, 1)); got != 0 {
		t.Fatalf("season start must be zero progress: got=%v", got)
	}

	early := Progress(date(2023, time.October, 24))
	late := Progress(date(2024, time.April, 10))
	if early <= 0 || late >= 1 || early >= late {
		t.Fatalf("progress must grow through the season: early=%v late=%v", early, late)
	}
}

func TestSampleWeightSeasonRecency(t *testing.T) {
	t.Parallel()

	now := date(2026, time.February, 1)
	old := SampleWeight(date(2019, time.January, 10), now, 2019, 2026)
	mid := SampleWeight(date(2023, time.January, 10), now, 2019, 2026)
	recent := SampleWeight(date(2026, time.January, 10), now, 2019, 2026)

	if !(old < mid && mid < recent) {
		t.Fatalf("weights must increase with recency: old=%v mid=%v recent=%v", old, mid, recent)
	}
	if recent < seasonScale {
		t.Fatalf("current-season weight must carry the full season term: got=%v", recent)
	}
}

func TestSampleWeightRecentGameBonus(t *testing.T) {
	t.Parallel()

	now := date(2026, time.February, 1)
	inside := SampleWeight(date(2026, time.January, 25), now, 2020, 2026)
	outside := SampleWeight(date(2026, time.January, 2), now, 2020, 2026)

	diff := inside - outside
	if diff < recencyBonus-1 {
		t.Fatalf("trailing-two-week games must get the flat bonus: inside=%v outside=%v", inside, outside)
	}
}

func TestSampleWeightSingleSeasonCorpus(t *testing.T) {
	t.Parallel()

	now := date(2026, time.March, 1)
	got := SampleWeight(date(2026, time.January, 10), now, 2026, 2026)
	if got < seasonScale {
		t.Fatalf("single-season corpus games carry the full season term: got=%v", got)
	}
}

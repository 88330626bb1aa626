package rotowire

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/draftkit/nba-drafter/internal/platform/logging"
	"github.com/draftkit/nba-drafter/internal/platform/resilience"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

const slatePayload = `{
	"date": "2025-01-10",
	"games": [
		{
			"away_team": {
				"abbr": "nyk",
				"players": [
					{"name": "Jalen Brunson", "position": "pg"},
					{"name": "Mikal Bridges", "position": "SG"},
					{"name": "OG Anunoby", "position": "SF"},
					{"name": "Karl-Anthony Towns", "position": "PF"},
					{"name": "Mitchell Robinson", "position": "C"},
					{"name": "Josh Hart", "position": "SG", "injury": "ankle, questionable"}
				]
			},
			"home_team": {
				"abbr": "BOS",
				"players": [
					{"name": "Jrue Holiday", "position": "PG"},
					{"name": "Derrick White", "position": "SG"},
					{"name": "Jaylen Brown", "position": "SF", "injury": "knee, probable"},
					{"name": "Jayson Tatum", "position": "PF"},
					{"name": "Al Horford", "position": "C"}
				]
			}
		}
	]
}`

func newTestClient(t *testing.T, handler http.Handler, cfg ClientConfig) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	cfg.Logger = logging.NewNop()
	return NewClient(cfg)
}

func TestFetchLineupsMapsStartersAndInjured(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("date"); got != "2025-01-10" {
			t.Errorf("unexpected date param: got=%q want=%q", got, "2025-01-10")
		}
		_, _ = w.Write([]byte(slatePayload))
	}), ClientConfig{})

	lineups, err := client.FetchLineups(context.Background(), time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("fetch lineups: %v", err)
	}
	if len(lineups) != 2 {
		t.Fatalf("unexpected lineup count: got=%d want=2", len(lineups))
	}

	bos, nyk := lineups[0], lineups[1]
	if bos.Team != "BOS" || nyk.Team != "NYK" {
		t.Fatalf("teams must be uppercase and sorted: %q %q", bos.Team, nyk.Team)
	}

	if len(nyk.Starters) != 5 {
		t.Fatalf("only the first five listed players are starters: got=%d", len(nyk.Starters))
	}
	if nyk.Starters[0].Name != "Jalen Brunson" || nyk.Starters[0].Position != "PG" {
		t.Fatalf("unexpected first starter: %+v", nyk.Starters[0])
	}
	if len(nyk.Injured) != 1 || nyk.Injured[0].Name != "Josh Hart" {
		t.Fatalf("bench player with a note must be injured: %+v", nyk.Injured)
	}

	if len(bos.Injured) != 1 || bos.Injured[0].Name != "Jaylen Brown" {
		t.Fatalf("injured starter must still carry the note: %+v", bos.Injured)
	}
	if len(bos.Starters) != 5 {
		t.Fatalf("unexpected starter count: got=%d want=5", len(bos.Starters))
	}
}

func TestFetchLineupsCachesSlate(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(slatePayload))
	}), ClientConfig{CacheTTL: time.Minute})

	date := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := client.FetchLineups(context.Background(), date); err != nil {
			t.Fatalf("fetch lineups: %v", err)
		}
	}

	if got := hits.Load(); got != 1 {
		t.Fatalf("repeated fetches for one date must hit the provider once, got=%d", got)
	}
}

func TestFetchLineupsCircuitOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), ClientConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	base := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if _, err := client.FetchLineups(context.Background(), base.AddDate(0, 0, i)); err == nil {
			t.Fatalf("expected failure on attempt %d", i)
		}
	}

	before := hits.Load()
	_, err := client.FetchLineups(context.Background(), base.AddDate(0, 0, 2))
	if !stderrors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("open circuit must surface a dependency error, got %v", err)
	}
	if hits.Load() != before {
		t.Fatalf("open circuit must not reach the provider")
	}
}

func TestFetchLineupsNonRetryableStatusFails(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}), ClientConfig{MaxRetries: 2})

	_, err := client.FetchLineups(context.Background(), time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatalf("expected error on unauthorized response")
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("unauthorized must not be retried, got=%d requests", got)
	}
}

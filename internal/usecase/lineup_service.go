package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/draftkit/nba-drafter/internal/domain/roster"
	"github.com/draftkit/nba-drafter/internal/platform/logging"
)

const (
	defaultPoolSize      = 40
	defaultKeepLimit     = 10000
	defaultMinDifference = 4
	defaultLineupCount   = 5
)

// LineupConfig tunes the combinatorial search.
type LineupConfig struct {
	// PoolSize caps how many candidates enter enumeration, taken from the
	// best price-per-point end of the pool.
	PoolSize int
	Rules    roster.Rules
	// KeepLimit caps how many valid lineups are retained before the
	// diversity pass.
	KeepLimit int
	// MinDifference is how many players each emitted lineup must change
	// versus the previously kept one.
	MinDifference int
	LineupCount   int
	WorkerReserve int
}

func (c LineupConfig) normalized() LineupConfig {
	if c.PoolSize <= 0 {
		c.PoolSize = defaultPoolSize
	}
	if c.Rules.Size <= 0 {
		c.Rules = roster.DefaultRules()
	}
	if c.KeepLimit <= 0 {
		c.KeepLimit = defaultKeepLimit
	}
	if c.MinDifference <= 0 {
		c.MinDifference = defaultMinDifference
	}
	if c.LineupCount <= 0 {
		c.LineupCount = defaultLineupCount
	}
	if c.WorkerReserve <= 0 {
		c.WorkerReserve = defaultWorkerReserve
	}
	return c
}

// SearchReport is the search outcome. An infeasible slate produces an
// empty report, never an error: per-stage counters say where combinations
// died.
type SearchReport struct {
	Lineups           []roster.Lineup
	PoolSize          int
	Considered        int
	RejectedSalary    int
	RejectedPoints    int
	RejectedSlots     int
	RejectedDiversity int
}

// LineupService enumerates roster combinations over the best-value slice
// of the candidate pool and keeps the highest-projected diverse lineups.
type LineupService struct {
	cfg    LineupConfig
	logger *logging.Logger
}

func NewLineupService(cfg LineupConfig, logger *logging.Logger) *LineupService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LineupService{
		cfg:    cfg.normalized(),
		logger: logger,
	}
}

// Search ranks candidates by adjusted cost, enumerates every K-subset of
// the top PoolSize, validates each against the roster rules and returns
// the best diverse lineups. Enumeration is partitioned by first index
// across a goroutine pool; each partition only touches its own counters
// until the final merge.
func (s *LineupService) Search(ctx context.Context, candidates []ScoredCandidate) (SearchReport, error) {
	size := s.cfg.Rules.Size

	ranked := make([]ScoredCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AdjustedCost < ranked[j].AdjustedCost
	})
	if len(ranked) > s.cfg.PoolSize {
		ranked = ranked[:s.cfg.PoolSize]
	}

	report := SearchReport{PoolSize: len(ranked)}
	if len(ranked) < size {
		s.logger.InfoContext(ctx, "lineup search skipped",
			"pool", len(ranked),
			"roster_size", size,
		)
		return report, nil
	}

	fc := FeatureConfig{WorkerReserve: s.cfg.WorkerReserve}.normalized()

	var mu sync.Mutex
	kept := make([]roster.Lineup, 0, s.cfg.KeepLimit)

	workers := pool.New().WithMaxGoroutines(fc.workerCount())
	for first := 0; first <= len(ranked)-size; first++ {
		first := first
		workers.Go(func() {
			local := searchPartition{rules: s.cfg.Rules}
			combo := make([]roster.Candidate, 0, size)
			combo = append(combo, ranked[first].Candidate)
			local.enumerate(ranked, combo, first+1, size)

			mu.Lock()
			report.Considered += local.considered
			report.RejectedSalary += local.rejectedSalary
			report.RejectedPoints += local.rejectedPoints
			report.RejectedSlots += local.rejectedSlots
			kept = append(kept, local.lineups...)
			mu.Unlock()
		})
	}
	workers.Wait()

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ProjectedPoints > kept[j].ProjectedPoints
	})
	if len(kept) > s.cfg.KeepLimit {
		kept = kept[:s.cfg.KeepLimit]
	}

	report.Lineups, report.RejectedDiversity = s.diversePrefix(kept)

	s.logger.InfoContext(ctx, "lineup search finished",
		"pool", report.PoolSize,
		"considered", report.Considered,
		"lineups", len(report.Lineups),
		"rejected_salary", report.RejectedSalary,
		"rejected_points", report.RejectedPoints,
		"rejected_slots", report.RejectedSlots,
		"rejected_diversity", report.RejectedDiversity,
	)
	return report, nil
}

// diversePrefix walks lineups best-first and keeps one only when it swaps
// at least MinDifference players against the previously kept lineup.
func (s *LineupService) diversePrefix(lineups []roster.Lineup) ([]roster.Lineup, int) {
	out := make([]roster.Lineup, 0, s.cfg.LineupCount)
	rejected := 0
	maxShared := s.cfg.Rules.Size - s.cfg.MinDifference

	for _, lineup := range lineups {
		if len(out) == s.cfg.LineupCount {
			break
		}
		if len(out) > 0 && out[len(out)-1].SharedPlayers(lineup) > maxShared {
			rejected++
			continue
		}
		out = append(out, lineup)
	}
	return out, rejected
}

type searchPartition struct {
	rules          roster.Rules
	considered     int
	rejectedSalary int
	rejectedPoints int
	rejectedSlots  int
	lineups        []roster.Lineup
}

func (p *searchPartition) enumerate(ranked []ScoredCandidate, combo []roster.Candidate, next, size int) {
	if len(combo) == size {
		p.considered++
		lineup, err := roster.Build(combo, p.rules)
		switch {
		case err == nil:
			p.lineups = append(p.lineups, lineup)
		case errors.Is(err, roster.ErrSalaryOverCap), errors.Is(err, roster.ErrSalaryBelowFloor):
			p.rejectedSalary++
		case errors.Is(err, roster.ErrBelowPointsFloor):
			p.rejectedPoints++
		default:
			p.rejectedSlots++
		}
		return
	}

	remaining := size - len(combo)
	for i := next; i <= len(ranked)-remaining; i++ {
		p.enumerate(ranked, append(combo, ranked[i].Candidate), i+1, size)
	}
}

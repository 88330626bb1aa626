package usecase

import (
	"context"
	"testing"

	"github.com/draftkit/nba-drafter/internal/domain/roster"
)

func scored(id string, salary int, points float64, slots ...roster.Slot) ScoredCandidate {
	return ScoredCandidate{
		Candidate: roster.Candidate{
			PlayerID:        id,
			Name:            id,
			Slots:           slots,
			Salary:          salary,
			ProjectedPoints: points,
		},
		AdjustedCost: float64(salary) / points,
	}
}

func feasiblePool() []ScoredCandidate {
	return []ScoredCandidate{
		scored("p1", 6000, 40, roster.SlotPointGuard, roster.SlotGuard, roster.SlotUtility),
		scored("p2", 6000, 40, roster.SlotShootingGuard, roster.SlotGuard, roster.SlotUtility),
		scored("p3", 6000, 40, roster.SlotSmallForward, roster.SlotForward, roster.SlotUtility),
		scored("p4", 6000, 40, roster.SlotPowerForward, roster.SlotForward, roster.SlotUtility),
		scored("p5", 6000, 40, roster.SlotCenter, roster.SlotUtility),
		scored("p6", 6000, 40, roster.SlotPointGuard, roster.SlotGuard, roster.SlotUtility),
		scored("p7", 6000, 40, roster.SlotSmallForward, roster.SlotForward, roster.SlotUtility),
		scored("p8", 6000, 40, roster.SlotCenter, roster.SlotUtility),
	}
}

func TestSearchSingleCombination(t *testing.T) {
	t.Parallel()

	svc := NewLineupService(LineupConfig{}, nil)
	report, err := svc.Search(context.Background(), feasiblePool())
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if report.Considered != 1 {
		t.Fatalf("unexpected considered count: got=%d want=1", report.Considered)
	}
	if len(report.Lineups) != 1 {
		t.Fatalf("unexpected lineup count: got=%d want=1", len(report.Lineups))
	}
	if report.Lineups[0].TotalSalary != 48000 {
		t.Fatalf("unexpected salary: got=%d want=48000", report.Lineups[0].TotalSalary)
	}
}

func TestSearchShortPoolIsNotAnError(t *testing.T) {
	t.Parallel()

	svc := NewLineupService(LineupConfig{}, nil)
	report, err := svc.Search(context.Background(), feasiblePool()[:5])
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(report.Lineups) != 0 {
		t.Fatalf("expected no lineups, got %d", len(report.Lineups))
	}
	if report.PoolSize != 5 {
		t.Fatalf("unexpected pool size: got=%d want=5", report.PoolSize)
	}
	if report.Considered != 0 {
		t.Fatalf("unexpected considered count: got=%d want=0", report.Considered)
	}
}

func TestSearchCountsSalaryRejections(t *testing.T) {
	t.Parallel()

	pool := feasiblePool()
	for i := range pool {
		pool[i].Salary = 7000
	}

	svc := NewLineupService(LineupConfig{}, nil)
	report, err := svc.Search(context.Background(), pool)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(report.Lineups) != 0 {
		t.Fatalf("expected no lineups, got %d", len(report.Lineups))
	}
	if report.RejectedSalary != 1 {
		t.Fatalf("unexpected salary rejections: got=%d want=1", report.RejectedSalary)
	}
}

func TestSearchDiversityRejectsNearDuplicates(t *testing.T) {
	t.Parallel()

	// Nine candidates yield overlapping valid lineups that share seven of
	// eight players; only the best survives the diversity pass.
	pool := append(feasiblePool(), scored("p9", 6000, 39, roster.SlotCenter, roster.SlotUtility))

	svc := NewLineupService(LineupConfig{}, nil)
	report, err := svc.Search(context.Background(), pool)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(report.Lineups) != 1 {
		t.Fatalf("unexpected lineup count: got=%d want=1", len(report.Lineups))
	}
	if report.Lineups[0].ProjectedPoints != 320 {
		t.Fatalf("best lineup must be kept first: got=%v want=320", report.Lineups[0].ProjectedPoints)
	}
	if report.RejectedDiversity == 0 {
		t.Fatal("expected near-duplicate lineups to be rejected for diversity")
	}
}

func TestSearchPoolTruncation(t *testing.T) {
	t.Parallel()

	pool := feasiblePool()
	// A terrible-value candidate must fall outside a pool capped at eight.
	pool = append(pool, scored("expensive", 9000, 10, roster.SlotUtility))

	svc := NewLineupService(LineupConfig{PoolSize: 8}, nil)
	report, err := svc.Search(context.Background(), pool)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if report.PoolSize != 8 {
		t.Fatalf("unexpected pool size: got=%d want=8", report.PoolSize)
	}
	for _, lineup := range report.Lineups {
		for _, pick := range lineup.Picks {
			if pick.PlayerID == "expensive" {
				t.Fatal("low-value candidate must be truncated from the pool")
			}
		}
	}
}

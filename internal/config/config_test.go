package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "nba-drafter" {
		t.Fatalf("unexpected ServiceName: %q", cfg.ServiceName)
	}
	if cfg.WindowSize != 5 || cfg.MinAvgSeconds != 720 || cfg.MinGames != 15 {
		t.Fatalf("unexpected feature defaults: %+v", cfg)
	}
	if cfg.SalaryBudget != 50000 || cfg.MinSalarySpend != 45000 || cfg.MinLineupPoints != 250 {
		t.Fatalf("unexpected lineup budget defaults: %+v", cfg)
	}
	if cfg.LineupPoolSize != 40 || cfg.LineupKeepLimit != 10000 || cfg.LineupMinDifference != 4 || cfg.LineupCount != 5 {
		t.Fatalf("unexpected lineup search defaults: %+v", cfg)
	}
	if cfg.AvgPointsFloor != 15 {
		t.Fatalf("unexpected AvgPointsFloor: %v", cfg.AvgPointsFloor)
	}
	if cfg.RotowireTimeout != 20*time.Second || cfg.RotowireCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected rotowire timing defaults: %+v", cfg)
	}
	if !cfg.RotowireCircuitEnabled || cfg.RotowireCircuitFailureCount != 5 {
		t.Fatalf("unexpected rotowire circuit defaults: %+v", cfg)
	}
}

func TestLoad_LineupKnobParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("LINEUP_SALARY_BUDGET", "60000")
	t.Setenv("LINEUP_MIN_SALARY_SPEND", "55000")
	t.Setenv("LINEUP_MIN_POINTS", "280.5")
	t.Setenv("LINEUP_POOL_SIZE", "30")
	t.Setenv("LINEUP_COUNT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SalaryBudget != 60000 || cfg.MinSalarySpend != 55000 {
		t.Fatalf("unexpected salary bounds: %+v", cfg)
	}
	if cfg.MinLineupPoints != 280.5 {
		t.Fatalf("unexpected MinLineupPoints: %v", cfg.MinLineupPoints)
	}
	if cfg.LineupPoolSize != 30 || cfg.LineupCount != 3 {
		t.Fatalf("unexpected search knobs: %+v", cfg)
	}
}

func TestLoad_MinSpendCannotExceedBudget(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("LINEUP_SALARY_BUDGET", "50000")
	t.Setenv("LINEUP_MIN_SALARY_SPEND", "50001")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when min spend exceeds budget")
	}
}

func TestLoad_WindowSizeValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("FEATURE_WINDOW_SIZE", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for FEATURE_WINDOW_SIZE=0")
	}
}

func TestLoad_PprofParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", ":7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.PprofEnabled || cfg.PprofAddr != ":7070" {
		t.Fatalf("unexpected pprof config: enabled=%v addr=%q", cfg.PprofEnabled, cfg.PprofAddr)
	}
}

func TestLoad_LogLevelParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel.String() != "warn" {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel.String())
	}
}

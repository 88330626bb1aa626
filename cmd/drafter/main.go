package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/draftkit/nba-drafter/internal/app"
	"github.com/draftkit/nba-drafter/internal/config"
	"github.com/draftkit/nba-drafter/internal/domain/stats"
	"github.com/draftkit/nba-drafter/internal/infrastructure/salaries"
	"github.com/draftkit/nba-drafter/internal/model"
	"github.com/draftkit/nba-drafter/internal/observability"
	"github.com/draftkit/nba-drafter/internal/platform/logging"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = observability.StopPprofServer(pprofSrv, logger, 5*time.Second)
	}()

	cmd := strings.ToLower(strings.TrimSpace(os.Args[1]))
	args := os.Args[2:]

	var runErr error
	switch cmd {
	case "cache-features":
		runErr = runCacheFeatures(ctx, cfg, logger, args)
	case "export-training":
		runErr = runExportTraining(ctx, cfg, logger, args)
	case "lineups":
		runErr = runLineups(ctx, cfg, logger, args)
	default:
		printUsage()
		os.Exit(2)
	}

	if runErr != nil {
		logger.Error("command failed", "command", cmd, "error", runErr)
		os.Exit(1)
	}
}

func runCacheFeatures(ctx context.Context, cfg config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("cache-features", flag.ExitOnError)
	season := fs.Int("season", 0, "season year to rebuild, e.g. 2025")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close()
	}()

	result, err := c.Cache.Rebuild(ctx, *season)
	if err != nil {
		return err
	}

	logger.Info("feature cache rebuilt",
		"season", result.Season,
		"rows", result.Rows,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return nil
}

func runExportTraining(ctx context.Context, cfg config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("export-training", flag.ExitOnError)
	outPath := fs.String("out", "training.json", "path to write the training set to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close()
	}()

	set, err := computeTrainingSet(ctx, c)
	if err != nil {
		return err
	}

	payload, err := sonic.Marshal(struct {
		X       [][]float64 `json:"x"`
		Y       []float64   `json:"y"`
		Weights []float64   `json:"sample_weight"`
	}{set.X, set.Y, set.Weights})
	if err != nil {
		return fmt.Errorf("encode training set: %w", err)
	}
	if err := os.WriteFile(*outPath, payload, 0o644); err != nil {
		return fmt.Errorf("write training set: %w", err)
	}

	logger.Info("training set exported", "rows", len(set.X), "path", *outPath)
	return nil
}

func runLineups(ctx context.Context, cfg config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("lineups", flag.ExitOnError)
	salaryPath := fs.String("salaries", "", "path to the DraftKings salary sheet CSV")
	dateFlag := fs.String("date", time.Now().Format("2006-01-02"), "slate date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*salaryPath) == "" {
		return fmt.Errorf("-salaries is required")
	}
	slateDate, err := time.Parse("2006-01-02", *dateFlag)
	if err != nil {
		return fmt.Errorf("parse -date: %w", err)
	}

	sheet, err := os.Open(*salaryPath)
	if err != nil {
		return fmt.Errorf("open salary sheet: %w", err)
	}
	defer func() {
		_ = sheet.Close()
	}()

	records, err := salaries.NewParser(logger).Parse(sheet)
	if err != nil {
		return err
	}

	c, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close()
	}()

	set, err := computeTrainingSet(ctx, c)
	if err != nil {
		return err
	}

	regressor := model.NewLinear(model.LinearConfig{})
	metrics, err := regressor.Train(ctx, set.X, set.Y, set.Weights)
	if err != nil {
		return fmt.Errorf("train model: %w", err)
	}
	logger.Info("model trained", "rows", len(set.X), "mse", metrics.MSE, "rmse", metrics.RMSE)

	candidates, err := c.Predictions(regressor).Candidates(ctx, usecase.SlateRequest{
		Date:     slateDate,
		Salaries: records,
		RMSE:     metrics.RMSE,
	})
	if err != nil {
		return err
	}

	report, err := c.Lineups.Search(ctx, candidates)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

// computeTrainingSet feeds every recorded season through the feature
// pipeline.
func computeTrainingSet(ctx context.Context, c *app.Container) (usecase.TrainingSet, error) {
	first, last, err := c.Stats.SeasonRange(ctx)
	if err != nil {
		return usecase.TrainingSet{}, err
	}

	var lines []stats.GameLine
	for season := first; season <= last; season++ {
		seasonLines, err := c.Stats.ListSeasonLines(ctx, season)
		if err != nil {
			return usecase.TrainingSet{}, err
		}
		lines = append(lines, seasonLines...)
	}

	return c.Features.ComputeFeatures(ctx, lines)
}

func printReport(report usecase.SearchReport) {
	if len(report.Lineups) == 0 {
		fmt.Printf("no lineups found (pool=%d considered=%d rejected: salary=%d points=%d slots=%d diversity=%d)\n",
			report.PoolSize,
			report.Considered,
			report.RejectedSalary,
			report.RejectedPoints,
			report.RejectedSlots,
			report.RejectedDiversity,
		)
		return
	}

	for i, lineup := range report.Lineups {
		fmt.Printf("lineup %d: projected=%.1f salary=%d\n", i+1, lineup.ProjectedPoints, lineup.TotalSalary)
		for _, pick := range lineup.Picks {
			fmt.Printf("  %-4s %-24s %-4s $%d (%.1f pts)\n", pick.Slot, pick.Name, pick.TeamID, pick.Salary, pick.ProjectedPoints)
		}
	}
}

func printUsage() {
	fmt.Println("usage: drafter <command> [flags]")
	fmt.Println("commands:")
	fmt.Println("  cache-features  -season <year>   rebuild the computed-feature cache for a season")
	fmt.Println("  export-training -out <path>      export the {x, y, sample_weight} training set")
	fmt.Println("  lineups -salaries <csv> [-date YYYY-MM-DD]   propose lineups for a slate")
}

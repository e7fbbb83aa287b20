// Package main is the factorflow command line tool. It computes price
// adjustment factors, resolves adjusted price series, and evaluates
// technical indicators against a PostgreSQL market-data store.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"factorflow/adjust"
	"factorflow/config"
	"factorflow/indicator"
	"factorflow/models"
	"factorflow/observability"
	"factorflow/repository"
	"factorflow/resolver"
)

const usage = `usage: factorflow <command> [flags] [args]

commands:
  compute  <instrument>...   compute and store adjustment factors
  price    <instrument>      print a resolved price series
  change   <instrument>      print the trailing price change
  indicators <instrument>    evaluate technical indicators
  runs                       list recent compute runs
`

func main() {
	if err := godotenv.Load(); err != nil {
		observability.Debug("no .env file found, using environment variables")
	}

	production := os.Getenv("ENV") == "production"
	observability.InitLogger(production)
	observability.InitMetrics()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}
	if !cfg.HasDatabase() {
		observability.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	repo, err := repository.NewRepository(ctx, cfg.Database.URL)
	if err != nil {
		observability.Fatal("failed to connect to database", "error", err)
	}
	defer repo.Close()

	switch os.Args[1] {
	case "compute":
		err = runCompute(ctx, cfg, repo, os.Args[2:])
	case "price":
		err = runPrice(ctx, cfg, repo, os.Args[2:])
	case "change":
		err = runChange(ctx, cfg, repo, os.Args[2:])
	case "indicators":
		err = runIndicators(ctx, cfg, repo, os.Args[2:])
	case "runs":
		err = runRuns(ctx, repo, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		observability.Fatal("command failed", "command", os.Args[1], "error", err)
	}
}

func runCompute(ctx context.Context, cfg *config.Config, repo *repository.Repository, args []string) error {
	fs := flag.NewFlagSet("compute", flag.ExitOnError)
	from := fs.String("from", "", "start of the bar range (YYYY-MM-DD)")
	to := fs.String("to", "", "end of the bar range (YYYY-MM-DD)")
	fs.Parse(args)

	instruments := fs.Args()
	if len(instruments) == 0 {
		return fmt.Errorf("compute requires at least one instrument")
	}

	opts := adjust.BatchOptions{}
	var err error
	if opts.From, err = parseDate(*from); err != nil {
		return err
	}
	if opts.To, err = parseDate(*to); err != nil {
		return err
	}

	runner := adjust.NewRunner(adjust.NewEngine(), repo, cfg.Engine)
	result, err := runner.BatchCalculateAndSave(ctx, instruments, opts)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %d/%d instruments succeeded\n", result.RunID, result.Succeeded, result.Total)
	for _, instrument := range result.FailedInstruments {
		fmt.Printf("  failed: %s\n", instrument)
	}
	return nil
}

func runPrice(ctx context.Context, cfg *config.Config, repo *repository.Repository, args []string) error {
	fs := flag.NewFlagSet("price", flag.ExitOnError)
	mode := fs.String("mode", "qfq", "adjustment mode: none, qfq, or hfq")
	from := fs.String("from", "", "start of the range (YYYY-MM-DD)")
	to := fs.String("to", "", "end of the range (YYYY-MM-DD)")
	tail := fs.Int("tail", 10, "number of trailing rows to print, 0 for all")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("price requires exactly one instrument")
	}

	adjustMode, err := models.ParseAdjustMode(*mode)
	if err != nil {
		return err
	}
	fromT, err := parseDate(*from)
	if err != nil {
		return err
	}
	toT, err := parseDate(*to)
	if err != nil {
		return err
	}

	r := resolver.NewResolver(repo, cfg.Resolver)
	series, err := r.GetPrice(ctx, fs.Arg(0), fromT, toT, adjustMode)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s (source=%s", series.Instrument, series.Mode, series.Source)
	if series.Fallback {
		fmt.Print(", degraded to raw")
	}
	fmt.Printf(", %d rows)\n", len(series.Points))

	points := series.Points
	if *tail > 0 && len(points) > *tail {
		points = points[len(points)-*tail:]
	}
	for _, p := range points {
		fmt.Printf("%s  o=%.4f h=%.4f l=%.4f c=%.4f vol=%d factor=%.6f\n",
			p.TradeDate.Format("2006-01-02"), p.Open, p.High, p.Low, p.Close, p.Volume, p.Factor)
	}
	return nil
}

func runChange(ctx context.Context, cfg *config.Config, repo *repository.Repository, args []string) error {
	fs := flag.NewFlagSet("change", flag.ExitOnError)
	mode := fs.String("mode", "qfq", "adjustment mode: none, qfq, or hfq")
	days := fs.Int("days", 20, "trailing trading days")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("change requires exactly one instrument")
	}

	adjustMode, err := models.ParseAdjustMode(*mode)
	if err != nil {
		return err
	}

	r := resolver.NewResolver(repo, cfg.Resolver)
	change, err := r.PriceChange(ctx, fs.Arg(0), *days, adjustMode)
	if err != nil {
		return err
	}

	fmt.Printf("%s over %d days: %.4f -> %.4f (%+.2f%%)\n",
		change.Instrument, change.Days, change.PastClose, change.LatestClose, change.PctChange)
	return nil
}

func runIndicators(ctx context.Context, cfg *config.Config, repo *repository.Repository, args []string) error {
	fs := flag.NewFlagSet("indicators", flag.ExitOnError)
	mode := fs.String("mode", "qfq", "adjustment mode: none, qfq, or hfq")
	kindsArg := fs.String("kinds", "", "comma-separated indicator families, empty for all")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("indicators requires exactly one instrument")
	}

	adjustMode, err := models.ParseAdjustMode(*mode)
	if err != nil {
		return err
	}

	var kinds []indicator.Kind
	if *kindsArg != "" {
		for _, name := range strings.Split(*kindsArg, ",") {
			k, err := indicator.ParseKind(strings.TrimSpace(name))
			if err != nil {
				return err
			}
			kinds = append(kinds, k)
		}
	}

	r := resolver.NewResolver(repo, cfg.Resolver)
	series, err := r.GetPrice(ctx, fs.Arg(0), nil, nil, adjustMode)
	if err != nil {
		return err
	}

	frame := indicator.NewFrameFromSeries(series)
	pipeline := indicator.NewPipeline(cfg.Indicators)
	if err := pipeline.Apply(frame, kinds...); err != nil {
		return err
	}

	last := frame.Len() - 1
	fmt.Printf("%s %s, latest row %s:\n",
		series.Instrument, series.Mode, frame.Dates()[last].Format("2006-01-02"))
	for _, name := range frame.Columns() {
		col, ok := frame.Column(name)
		if !ok {
			continue
		}
		v := col[last]
		if math.IsNaN(float64(v)) {
			fmt.Printf("  %-12s NaN\n", name)
			continue
		}
		fmt.Printf("  %-12s %.4f\n", name, v)
	}
	return nil
}

func runRuns(ctx context.Context, repo *repository.Repository, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 10, "number of runs to list")
	fs.Parse(args)

	runs, err := repo.GetRecentComputeRuns(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no compute runs recorded")
		return nil
	}

	for _, run := range runs {
		completed := "running"
		if run.CompletedAt != nil {
			completed = run.CompletedAt.Format(time.RFC3339)
		}
		fmt.Printf("%s  %-9s  %d/%d succeeded  started=%s  completed=%s\n",
			run.ID, run.Status, run.Succeeded, run.Total,
			run.StartedAt.Format(time.RFC3339), completed)
	}
	return nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return &t, nil
}

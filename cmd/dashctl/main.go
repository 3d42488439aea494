package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"zomato-dashboard/internal/config"
	"zomato-dashboard/internal/engine"
	"zomato-dashboard/internal/logging"
	"zomato-dashboard/internal/render"
	"zomato-dashboard/internal/storage"
)

const usage = `usage: dashctl <command> [flags]

commands:
  report   print the dashboard for a selection, optionally writing chart PNGs
  import   normalise the CSV dataset into the SQL snapshot table
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "report":
		err = runReport(ctx, cfg, logger, os.Args[2:], os.Stdout)
	case "import":
		err = runImport(ctx, cfg, logger, os.Args[2:], os.Stdout)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logger.Error(os.Args[1]+" failed", zap.Error(err))
		os.Exit(1)
	}
}

// categoryList collects repeated -category flags. Passing it at all, even
// with an empty value, replaces the default of every category.
type categoryList struct {
	set    bool
	values []string
}

func (l *categoryList) String() string { return strings.Join(l.values, ",") }

func (l *categoryList) Set(v string) error {
	l.set = true
	if v = strings.TrimSpace(v); v != "" {
		l.values = append(l.values, v)
	}
	return nil
}

func runReport(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	mode := fs.String("mode", string(engine.OrderModeAll), "order mode: All, Yes or No")
	costMin := fs.String("cost-min", "", "lower cost bound (default: observed minimum)")
	costMax := fs.String("cost-max", "", "upper cost bound (default: observed maximum)")
	chartsDir := fs.String("charts", "", "directory to write chart PNGs into")
	asJSON := fs.Bool("json", false, "print the dashboard as JSON")
	var categories categoryList
	fs.Var(&categories, "category", "restaurant type to include (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	src, closeSrc, err := storage.NewSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSrc()
	cs, err := src.Load(ctx)
	if err != nil {
		return err
	}

	crit := cs.DefaultCriteria()
	crit.Mode = engine.OrderMode(*mode)
	if categories.set {
		crit.Categories = categories.values
	}
	if crit.CostMin, err = bound(*costMin, crit.CostMin); err != nil {
		return err
	}
	if crit.CostMax, err = bound(*costMax, crit.CostMax); err != nil {
		return err
	}
	if err := crit.Validate(cs); err != nil {
		return err
	}

	data := cs.Filter(crit).Aggregate()
	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return err
		}
	} else {
		printReport(out, data)
	}

	if *chartsDir == "" {
		return nil
	}
	if err := os.MkdirAll(*chartsDir, 0o755); err != nil {
		return fmt.Errorf("charts dir: %w", err)
	}
	charts, err := render.Gallery(ctx, data)
	if err != nil {
		return err
	}
	for name, png := range charts {
		if err := os.WriteFile(filepath.Join(*chartsDir, name+".png"), png, 0o644); err != nil {
			return fmt.Errorf("write chart %s: %w", name, err)
		}
	}
	logger.Info("charts written", zap.String("dir", *chartsDir), zap.Int("count", len(charts)))
	return nil
}

func bound(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: cost bound %q", engine.ErrInvalidCriteria, raw)
	}
	return v, nil
}

// runImport writes the normalised CSV into the SQL snapshot table: the
// configured PostgreSQL database, or SQLite otherwise.
func runImport(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	csvPath := fs.String("csv", cfg.DataPath, "CSV dataset to import")
	policy := fs.String("rating-policy", cfg.RatingPolicy, "unparseable ratings: absent, drop or strict")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := engine.ParseRatingPolicy(*policy)
	if err != nil {
		return err
	}
	cs, report, err := engine.LoadColumnar(*csvPath, engine.LoadOptions{RatingPolicy: p, Logger: logger})
	if err != nil {
		return err
	}

	driver, dsn := "sqlite3", cfg.SQLitePath
	if cfg.DataSource == "postgres" {
		driver, dsn = cfg.Driver(), cfg.DSN()
	}
	db, err := storage.OpenSQL(ctx, driver, dsn, cfg.SnapshotTable, cfg.DBConnectRetries, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Save(ctx, cs); err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d rows into %s (%s), %d dropped, %d unparseable ratings\n",
		report.Rows, cfg.SnapshotTable, driver, report.Dropped, report.RatingErrorCount)
	return nil
}

// guardctl works directly against the local database, for the jobs that
// should not require a running server: taking backups, restoring them, and
// quick month summaries.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/evansmunsha/expense-guard/internal/cli"
	"github.com/evansmunsha/expense-guard/internal/core"
	"github.com/evansmunsha/expense-guard/internal/services"
)

func main() {
	cli.LoadEnvFile()

	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		usage()
		if len(os.Args) < 2 {
			os.Exit(2)
		}
		return
	}

	cfg := cli.LoadAndValidateConfig()
	// Keep command output clean unless the user asked for logs.
	if os.Getenv("EXPENSE_GUARD_LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	logger := cli.SetupLogger(cfg)

	store := cli.OpenStore(logger, cfg)
	tracker := cli.BuildTracker(logger, cfg, store)
	defer func() { _ = tracker.Close() }()

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "export-csv":
		err = runExportCSV(tracker, os.Args[2:])
	case "export-backup":
		err = runExportBackup(tracker, os.Args[2:])
	case "import":
		err = runImport(ctx, tracker, os.Args[2:])
	case "stats":
		err = runStats(ctx, tracker, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage:
  guardctl <command> [flags]

Commands:
  export-csv      write records as CSV (-month, -out)
  export-backup   write a full backup document (-out)
  import          restore a backup document (-in, -yes)
  stats           print the month summary (-month)

The database location comes from EXPENSE_GUARD_DB or a .env file.
`)
}

func runExportCSV(tracker *services.Tracker, args []string) error {
	fs := flag.NewFlagSet("export-csv", flag.ExitOnError)
	month := fs.String("month", "", "restrict the export to one YYYY-MM month")
	out := fs.String("out", "expenses.csv", "output file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *month != "" && !core.ValidMonthKey(*month) {
		return fmt.Errorf("invalid month %q, want YYYY-MM", *month)
	}

	data, err := tracker.ExportCSV(*month)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(data))
	return nil
}

func runExportBackup(tracker *services.Tracker, args []string) error {
	fs := flag.NewFlagSet("export-backup", flag.ExitOnError)
	out := fs.String("out", "expense-guard-backup.json", "output file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := tracker.ExportBackup()
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(data))
	return nil
}

func runImport(ctx context.Context, tracker *services.Tracker, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("in", "", "backup file to restore")
	yes := fs.Bool("yes", false, "confirm replacing all existing records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("missing -in FILE")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	summary, err := tracker.Import(ctx, data, *yes)
	if err != nil {
		if errors.Is(err, services.ErrNotConfirmed) {
			return errors.New("importing replaces every existing record; re-run with -yes to confirm")
		}
		return err
	}
	fmt.Printf("imported %d records, skipped %d\n", summary.Imported, summary.Skipped)
	return nil
}

func runStats(ctx context.Context, tracker *services.Tracker, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	month := fs.String("month", "", "month to summarize as YYYY-MM, defaults to the current one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *month != "" && !core.ValidMonthKey(*month) {
		return fmt.Errorf("invalid month %q, want YYYY-MM", *month)
	}

	stats := tracker.Stats(ctx, *month)
	fmt.Printf("%s: %s across %d records\n", stats.MonthKey, stats.TotalDisplay, stats.RecordCount)
	if stats.HasBudget {
		fmt.Printf("budget: %s, %d%% used\n", core.FormatMoney(stats.Budget, stats.Currency), stats.UsagePercent)
	}
	if stats.Notice != "" {
		fmt.Println(stats.Notice)
	}
	return nil
}

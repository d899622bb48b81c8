package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/helitech/journal_backend/config"
	"github.com/helitech/journal_backend/ingest"
	"github.com/helitech/journal_backend/models"
	"github.com/helitech/journal_backend/utils"
	"github.com/helitech/journal_backend/verify"
)

// Exit statuses: 0 clean load, 2 loaded but review needed (skips,
// rejections, unbalanced vouchers or failed verification), 1 fatal.
const (
	exitClean  = 0
	exitFatal  = 1
	exitReview = 2
)

type loadOptions struct {
	DataDir      string `validate:"required,dir"`
	DSN          string
	Reset        bool
	ValidateOnly bool
}

func main() {
	dataDir := flag.String("data-dir", "", "Required: directory with ledger export files (.csv/.xlsx)")
	dsn := flag.String("dsn", "", "Optional: MySQL DSN, defaults to DB_* environment")
	reset := flag.Bool("reset", false, "Drop and recreate all tables before loading")
	validateOnly := flag.Bool("validate-only", false, "Skip loading, only verify the store against the source files")
	flag.Parse()

	opts := loadOptions{
		DataDir:      strings.TrimSpace(*dataDir),
		DSN:          strings.TrimSpace(*dsn),
		Reset:        *reset,
		ValidateOnly: *validateOnly,
	}
	if problems := utils.ValidateStruct(opts); len(problems) > 0 {
		for field, problem := range problems {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, problem)
		}
		flag.Usage()
		os.Exit(exitFatal)
	}

	logger := config.GetLogger()

	if err := config.ConnectDatabase(opts.DSN); err != nil {
		config.LogError(logger, "journal-load", "main", "store connection", nil, err)
		os.Exit(exitFatal)
	}
	db := config.GetDB()

	if opts.Reset {
		if opts.ValidateOnly {
			fmt.Fprintln(os.Stderr, "--reset and --validate-only are mutually exclusive")
			os.Exit(exitFatal)
		}
		if err := models.DropAllTables(); err != nil {
			config.LogError(logger, "journal-load", "main", "reset", nil, err)
			os.Exit(exitFatal)
		}
	}
	if err := models.MigrateTable(); err != nil {
		config.LogError(logger, "journal-load", "main", "migration", nil, err)
		os.Exit(exitFatal)
	}

	checker := verify.NewChecker(db, logger)

	if opts.ValidateOnly {
		report, err := checker.Check(opts.DataDir)
		if err != nil {
			config.LogError(logger, "journal-load", "main", "verification", nil, err)
			os.Exit(exitFatal)
		}
		printJSON(report)
		if report.Passed {
			os.Exit(exitClean)
		}
		os.Exit(exitReview)
	}

	loader := ingest.NewLoader(db, logger)
	summary, err := loader.LoadDir(opts.DataDir)
	if err != nil {
		config.LogError(logger, "journal-load", "main", "load run", nil, err)
		os.Exit(exitFatal)
	}

	report, err := checker.Check(opts.DataDir)
	if err != nil {
		config.LogError(logger, "journal-load", "main", "verification", nil, err)
		os.Exit(exitFatal)
	}

	printJSON(struct {
		Summary      *ingest.RunSummary `json:"summary"`
		Verification *verify.Report     `json:"verification"`
	}{summary, report})

	if summary.Clean() && report.Passed {
		os.Exit(exitClean)
	}
	os.Exit(exitReview)
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "render report: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

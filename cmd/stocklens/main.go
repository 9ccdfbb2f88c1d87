package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"stocklens/internal/config"
	"stocklens/internal/pipeline"
	"stocklens/internal/report"
	"stocklens/internal/server"
	"stocklens/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := pipeline.NewProcessingService(cfg, db, logger)

	cmd := os.Args[1]
	switch cmd {
	case "process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input xlsx workbook")
		export := fs.String("export", "", "optional output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}

		res, err := svc.ProcessFile(*input)
		must(err)

		s := res.Summary
		fmt.Printf("processed %s: %d records\n", res.FileName, len(res.Table.Rows))
		fmt.Printf("  balance qty=%.0f sales qty=%.0f products=%d pct sold=%.1f%%\n",
			s.TotalBalanceQty, s.TotalSalesQty, s.UniqueProducts, s.PctSold)
		fmt.Printf("  duplicates: balance=%d sales=%d\n", s.DuplicateBalance, s.DuplicateSales)
		if res.Features.TwoSheet {
			fmt.Printf("  join: matched=%d no-sales=%d sales-only keys dropped=%d\n",
				res.Join.Matched, res.Join.LeftOnly, res.Join.RightOnly)
		}

		if strings.TrimSpace(*export) != "" {
			out := *export
			if !filepath.IsAbs(out) {
				out = filepath.Join(cfg.OutputDir, out)
			}
			must(report.ExportTableToXLSX(res.Table, out))
			fmt.Printf("exported %d rows to %s\n", len(res.Table.Rows), out)
		}
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.ServerAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		cfg.ServerAddr = *addr

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		must(server.New(cfg, svc, logger).Run(ctx))
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs to list")
		_ = fs.Parse(os.Args[2:])

		runs, err := db.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%d  %s  %s  records=%d matched=%d rightOnly=%d  %s\n",
				r.ID, r.ProcessedAt, r.FileName, r.Records, r.Matched, r.RightOnly, r.FileHash[:12])
		}
	default:
		usage()
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func usage() {
	fmt.Println(`usage: stocklens <command> [flags]

commands:
  process  --input report.xlsx [--export out.xlsx]   run the pipeline once
  serve    [--addr :8080]                            start the dashboard API
  runs     [--limit 20]                              list recent processing runs`)
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

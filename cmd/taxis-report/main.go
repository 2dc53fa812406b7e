// Command taxis-report loads a trip CSV and writes one destination report
// or the global rollup to a file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"taxis/internal/cli"
	"taxis/internal/config"
	"taxis/internal/export"
	"taxis/internal/log"
	"taxis/internal/services"
	"taxis/internal/trips/memory"
)

func main() {
	var (
		file        = flag.String("file", "", "CSV file to load (default DATA_FILE)")
		destination = flag.String("destination", "", "destination zone to report on")
		global      = flag.Bool("global", false, "write the rollup of every destination")
		list        = flag.Bool("list", false, "list destinations and exit")
		format      = flag.String("format", "md", "output format: csv, json, md, png, xlsx, pdf")
		out         = flag.String("out", "", "output directory (default EXPORT_DIR)")
	)
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentExport)
	cfg := config.Load()
	if cfg.ConfigFile != "" {
		if err := cfg.ApplyFile(cfg.ConfigFile); err != nil {
			fatal(logger, err)
		}
	}
	if *file != "" {
		cfg.DataFile = *file
	}
	if *out != "" {
		cfg.ExportDir = *out
	}

	if err := run(context.Background(), cfg, *destination, *global, *list, *format); err != nil {
		fatal(logger, err)
	}
}

func run(ctx context.Context, cfg *config.Config, destination string, global, list bool, format string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if !list && !global && destination == "" {
		return fmt.Errorf("one of -destination, -global or -list is required")
	}

	store := memory.New(cfg.Columns, cfg.Delimiter())
	if err := store.Load(ctx, cfg.DataFile); err != nil {
		return fmt.Errorf("load %s: %w", cfg.DataFile, err)
	}
	reports := services.NewReportService(store, cfg.Columns)

	if list {
		dests, err := reports.Destinations(ctx)
		if err != nil {
			return err
		}
		for _, d := range dests {
			fmt.Println(d)
		}
		return nil
	}

	exports := services.NewExportService(reports, nil)
	var path string
	if global {
		path, err = exports.SaveGlobal(ctx, cfg.ExportDir, f)
	} else {
		path, err = exports.SaveReport(ctx, cfg.ExportDir, destination, f)
	}
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func fatal(logger *log.Logger, err error) {
	logger.Error("taxis-report failed", log.FieldError, err)
	os.Exit(1)
}

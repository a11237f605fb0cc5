// RoomLoad: electrical load estimation from DXF floor plans
//
// Reads a DXF drawing (or a pre-parsed JSON entity stream), reconstructs
// rooms from closed polylines, matches room labels and prints the estimated
// lighting and socket loads as JSON on stdout. Logs go to stderr.
//
// Build:
//   go build -o roomload ./cmd/roomload
//
// Usage:
//   roomload [flags] <drawing.dxf>
//
// Exit status is 0 on success, 1 when the drawing could not be processed
// (the failure JSON is still printed) and 2 on invalid arguments.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/engine"
	"github.com/piwi3910/RoomLoad/internal/export"
	"github.com/piwi3910/RoomLoad/internal/logging"
	"github.com/piwi3910/RoomLoad/internal/model"
	"github.com/piwi3910/RoomLoad/internal/project"
	"github.com/piwi3910/RoomLoad/internal/store"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	serviceName = "roomload"
)

type options struct {
	configPath string
	factors    string
	pdf        string
	tags       string
	xlsx       string
	geojson    string
	png        string
	chart      string
	history    string
	chainLines bool
	compact    bool
	diag       bool
	compare    bool
	logLevel   string
	logFormat  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, time.Now))
}

func run(args []string, stdout, stderr io.Writer, now func() time.Time) int {
	var opts options
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", project.DefaultConfigPath(), "application config file")
	fs.StringVar(&opts.factors, "factors", "", "load-factor table (.json, .csv or .xlsx); overrides the config")
	fs.StringVar(&opts.pdf, "pdf", "", "write a PDF load report")
	fs.StringVar(&opts.tags, "labels", "", "write a PDF of QR-coded room tags")
	fs.StringVar(&opts.xlsx, "xlsx", "", "write an Excel workbook")
	fs.StringVar(&opts.geojson, "geojson", "", "write room polygons as GeoJSON")
	fs.StringVar(&opts.png, "png", "", "write a floor-plan image")
	fs.StringVar(&opts.chart, "chart", "", "write an HTML load chart")
	fs.StringVar(&opts.history, "history", "", "record the run in this SQLite database; overrides the config")
	fs.BoolVar(&opts.chainLines, "chain-lines", false, "join loose LINE segments into room boundaries")
	fs.BoolVar(&opts.compact, "compact", false, "print the result on one line")
	fs.BoolVar(&opts.diag, "diagnostics", false, "print skipped entities and rejected boundaries to stderr")
	fs.BoolVar(&opts.compare, "compare", false, "print a what-if comparison of alternative settings to stderr")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error; overrides the config")
	fs.StringVar(&opts.logFormat, "log-format", "", "json or console; overrides the config")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <drawing.dxf>\n", serviceName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		writeResult(stdout, stderr, engine.Failure(err, now()), opts.compact)
		return exitUsage
	}
	if fs.NArg() < 1 {
		writeResult(stdout, stderr, engine.Failure(errors.New("No file path provided"), now()), opts.compact)
		return exitUsage
	}
	drawing := fs.Arg(0)

	config, err := project.LoadAppConfig(opts.configPath)
	if err != nil {
		writeResult(stdout, stderr, engine.Failure(fmt.Errorf("cannot read config: %w", err), now()), opts.compact)
		return exitFailed
	}
	project.ApplyEnv(&config)
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyFlags(&config, opts, set)

	logger, err := logging.New(config.LogLevel, config.LogFormat, serviceName, "stderr")
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	table, warnings, err := project.LoadFactorTableFile(config.FactorsPath)
	if err != nil {
		writeResult(stdout, stderr, engine.Failure(err, now()), opts.compact)
		return exitFailed
	}
	for _, w := range warnings {
		logger.Warn("load factor table", zap.String("file", config.FactorsPath), zap.String("warning", w))
	}

	settings := config.Settings()
	processor := engine.NewProcessor(table, settings, logger).WithClock(now)
	result := processor.ProcessFile(drawing)
	if !writeResult(stdout, stderr, result, opts.compact) {
		return exitFailed
	}

	if opts.diag {
		for _, line := range result.Diagnostics.Lines() {
			fmt.Fprintln(stderr, line)
		}
	}
	if opts.compare {
		if err := printComparison(stderr, drawing, table, settings, logger); err != nil {
			logger.Warn("comparison skipped", zap.Error(err))
		}
	}
	if config.HistoryDB != "" {
		recordRun(config.HistoryDB, drawing, result, logger)
	}

	if !result.Success {
		return exitFailed
	}

	reportOpts := export.Options{
		Drawing:     filepath.Base(drawing),
		Settings:    settings,
		PowerFactor: config.PowerFactor,
	}
	if !writeReports(opts, result, reportOpts, logger) {
		return exitFailed
	}
	return exitOK
}

// applyFlags lets command-line values win over file and environment. Only
// flags present in set, the names given on the command line, are applied,
// so -chain-lines=false can switch off a configured default.
func applyFlags(config *model.AppConfig, opts options, set map[string]bool) {
	if set["factors"] {
		config.FactorsPath = opts.factors
	}
	if set["history"] {
		config.HistoryDB = opts.history
	}
	if set["chain-lines"] {
		config.DefaultChainLines = opts.chainLines
	}
	if set["log-level"] {
		config.LogLevel = opts.logLevel
	}
	if set["log-format"] {
		config.LogFormat = opts.logFormat
	}
}

// writeResult prints result as JSON. When result cannot be encoded a failure
// payload carrying the encoder error is printed instead and false returned,
// so stdout always holds a JSON document.
func writeResult(w, stderr io.Writer, result model.Result, compact bool) bool {
	err := export.WriteJSON(w, result, compact)
	if err == nil {
		return true
	}
	fmt.Fprintf(stderr, "cannot write result: %v\n", err)
	fallback := model.Result{
		Success:   false,
		Error:     fmt.Sprintf("cannot encode result: %v", err),
		Timestamp: result.Timestamp,
	}
	if err := export.WriteJSON(w, fallback, compact); err != nil {
		fmt.Fprintf(stderr, "cannot write failure result: %v\n", err)
	}
	return false
}

// writeReports runs every requested exporter and reports whether all of
// them succeeded.
func writeReports(opts options, result model.Result, reportOpts export.Options, logger *zap.Logger) bool {
	reports := []struct {
		kind  string
		path  string
		write func(string, model.Result, export.Options) error
	}{
		{"pdf", opts.pdf, export.ExportPDF},
		{"labels", opts.tags, export.ExportRoomTags},
		{"xlsx", opts.xlsx, export.ExportExcel},
		{"geojson", opts.geojson, export.WriteGeoJSON},
		{"png", opts.png, export.WriteFloorPlanPNG},
		{"chart", opts.chart, export.WriteLoadChart},
	}

	ok := true
	for _, r := range reports {
		if r.path == "" {
			continue
		}
		if err := r.write(r.path, result, reportOpts); err != nil {
			logger.Error("export failed", zap.String("kind", r.kind), zap.String("path", r.path), zap.Error(err))
			ok = false
			continue
		}
		logger.Info("exported", zap.String("kind", r.kind), zap.String("path", r.path))
	}
	return ok
}

func recordRun(dbPath, drawing string, result model.Result, logger *zap.Logger) {
	runs, err := store.Open(dbPath, logger)
	if err != nil {
		logger.Error("cannot open run history", zap.String("path", dbPath), zap.Error(err))
		return
	}
	defer runs.Close()

	run, err := runs.SaveRun(filepath.Base(drawing), store.SourceCLI, result)
	if err != nil {
		logger.Error("cannot record run", zap.Error(err))
		return
	}
	logger.Info("run recorded", zap.String("run_id", run.ID), zap.String("path", dbPath))
}

func printComparison(w io.Writer, drawing string, table model.LoadFactorTable, settings model.Settings, logger *zap.Logger) error {
	entities, err := engine.ReadEntities(drawing)
	if err != nil {
		return err
	}
	results := engine.CompareScenarios(engine.BuildDefaultScenarios(table, settings), entities, logger)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tROOMS\tUNKNOWN\tTOTAL (W)")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\n", r.Scenario.Name, r.RoomCount, r.UnknownCount, r.TotalLoad)
	}
	return tw.Flush()
}

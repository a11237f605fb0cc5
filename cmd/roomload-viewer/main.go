// RoomLoad Viewer: desktop viewer for room-load estimates
//
// Opens DXF floor plans, shows the reconstructed rooms with their
// estimated loads and exports reports.
//
// Build:
//   go build -o roomload-viewer ./cmd/roomload-viewer
//
// Using fyne-cross (recommended for proper packaging):
//   go install github.com/fyne-io/fyne-cross@latest
//   fyne-cross windows -arch=amd64
//   fyne-cross darwin  -arch=amd64,arm64

package main

import (
	"flag"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/logging"
	"github.com/piwi3910/RoomLoad/internal/project"
	"github.com/piwi3910/RoomLoad/internal/store"
	"github.com/piwi3910/RoomLoad/internal/ui"
)

func main() {
	configPath := flag.String("config", project.DefaultConfigPath(), "application config file")
	flag.Parse()

	config, err := project.LoadAppConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to read config: %v", err)
	}
	project.ApplyEnv(&config)

	logger, err := logging.New(config.LogLevel, "console", "roomload-viewer", "stderr")
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	table, warnings, err := project.LoadFactorTableFile(config.FactorsPath)
	if err != nil {
		logger.Fatal("failed to load load-factor table", zap.String("path", config.FactorsPath), zap.Error(err))
	}
	for _, w := range warnings {
		logger.Warn("load factor table", zap.String("warning", w))
	}

	var runs *store.Store
	if config.HistoryDB != "" {
		runs, err = store.Open(config.HistoryDB, logger)
		if err != nil {
			logger.Error("run history disabled", zap.String("path", config.HistoryDB), zap.Error(err))
			runs = nil
		} else {
			defer runs.Close()
		}
	}

	application := app.NewWithID("com.piwi3910.roomload")
	window := application.NewWindow("RoomLoad - Electrical Load Estimator")

	appUI := ui.NewApp(window, config, *configPath, table, runs, logger)
	application.Settings().SetTheme(appUI.Theme())
	appUI.SetupMenus()
	window.SetContent(fynetooltip.AddWindowToolTipLayer(appUI.Build(), window.Canvas()))
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	if flag.NArg() > 0 {
		appUI.OpenDrawing(flag.Arg(0))
	}

	window.ShowAndRun()
}

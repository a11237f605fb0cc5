package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"github.com/piwi3910/RoomLoad/internal/engine"
	"github.com/piwi3910/RoomLoad/internal/export"
	"github.com/piwi3910/RoomLoad/internal/model"
	"github.com/piwi3910/RoomLoad/internal/project"
	"github.com/piwi3910/RoomLoad/internal/store"
	"github.com/piwi3910/RoomLoad/internal/ui/widgets"
)

const maxRecentDrawings = 10

// App holds all viewer state and UI references.
type App struct {
	window     fyne.Window
	config     model.AppConfig
	configPath string
	logger     *zap.Logger
	runs       *store.Store // nil when run history is disabled
	theme      *RoomLoadTheme

	table    model.LoadFactorTable
	settings model.Settings

	// Currently shown drawing
	path    string
	result  model.Result
	history *History

	tabs *container.AppTabs

	// UI references for dynamic updates
	roomsContainer *fyne.Container
	planContainer  *fyne.Container
	runsContainer  *fyne.Container
	statusLabel    *widget.Label
	backBtn        *ttwidget.Button
	forwardBtn     *ttwidget.Button
}

// NewApp creates the viewer. runs may be nil.
func NewApp(window fyne.Window, config model.AppConfig, configPath string, table model.LoadFactorTable, runs *store.Store, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		window:     window,
		config:     config,
		configPath: configPath,
		logger:     logger,
		runs:       runs,
		theme:      NewRoomLoadTheme(config.Theme),
		table:      table,
		settings:   config.Settings(),
		history:    NewHistory(),
	}
}

// Theme returns the theme the viewer was configured with.
func (a *App) Theme() fyne.Theme {
	return a.theme
}

// SetupMenus creates the native menu bar for the application.
func (a *App) SetupMenus() {
	recent := fyne.NewMenuItem("Open Recent", nil)
	recent.ChildMenu = a.recentMenu()

	exportItem := fyne.NewMenuItem("Export", nil)
	exportItem.ChildMenu = fyne.NewMenu("",
		fyne.NewMenuItem("PDF Report...", func() { a.exportReport("PDF report", ".pdf", export.ExportPDF) }),
		fyne.NewMenuItem("Room Tags...", func() { a.exportReport("room tags", "-tags.pdf", export.ExportRoomTags) }),
		fyne.NewMenuItem("Excel Workbook...", func() { a.exportReport("workbook", ".xlsx", export.ExportExcel) }),
		fyne.NewMenuItem("GeoJSON...", func() { a.exportReport("GeoJSON", ".geojson", export.WriteGeoJSON) }),
		fyne.NewMenuItem("Floor Plan Image...", func() { a.exportReport("floor plan", ".png", export.WriteFloorPlanPNG) }),
		fyne.NewMenuItem("Load Chart...", func() { a.exportReport("load chart", ".html", export.WriteLoadChart) }),
		fyne.NewMenuItem("Result JSON...", func() { a.exportReport("result", ".json", writeResultFile) }),
	)

	// File Menu
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Drawing...", func() {
			a.showOpenDrawingDialog()
		}),
		recent,
		fyne.NewMenuItem("Reprocess", func() {
			a.reprocess()
		}),
		fyne.NewMenuItemSeparator(),
		exportItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Load Factor Table...", func() {
			a.showFactorTableDialog()
		}),
		fyne.NewMenuItem("Import / Export Data...", func() {
			a.showImportExportDialog()
		}),
		fyne.NewMenuItem("Settings...", func() {
			a.showSettingsDialog()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			a.window.Close()
		}),
	)

	// View Menu
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Back", func() { a.goBack() }),
		fyne.NewMenuItem("Forward", func() { a.goForward() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Diagnostics...", func() { a.showDiagnosticsDialog() }),
		fyne.NewMenuItem("Compare Scenarios...", func() { a.showCompareDialog() }),
	)

	// Help Menu
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", func() {
			a.showAboutDialog()
		}),
	)

	a.window.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

func (a *App) recentMenu() *fyne.Menu {
	if len(a.config.RecentDrawings) == 0 {
		item := fyne.NewMenuItem("(none)", nil)
		item.Disabled = true
		return fyne.NewMenu("", item)
	}
	items := make([]*fyne.MenuItem, 0, len(a.config.RecentDrawings))
	for _, p := range a.config.RecentDrawings {
		path := p
		items = append(items, fyne.NewMenuItem(path, func() { a.openDrawing(path) }))
	}
	return fyne.NewMenu("", items...)
}

func (a *App) showAboutDialog() {
	dialog.ShowInformation(
		"About RoomLoad",
		"RoomLoad - Electrical Load Estimator\n\n"+
			"Reconstructs rooms from DXF floor plans, matches room\n"+
			"labels and estimates lighting and socket loads.\n\n"+
			"Version 1.0.0",
		a.window,
	)
}

// Build constructs the full UI and returns the root container.
func (a *App) Build() fyne.CanvasObject {
	roomsTab := container.NewTabItem("Rooms", a.buildRoomsPanel())
	planTab := container.NewTabItem("Floor Plan", a.buildPlanPanel())
	settingsTab := container.NewTabItem("Settings", a.buildSettingsPanel())

	a.tabs = container.NewAppTabs(roomsTab, planTab, settingsTab)
	if a.runs != nil {
		a.tabs.Append(container.NewTabItem("History", a.buildRunsPanel()))
	}
	a.tabs.SetTabLocation(container.TabLocationTop)

	a.statusLabel = widget.NewLabel("Open a DXF drawing to begin.")

	return container.NewBorder(a.buildToolbar(), a.statusLabel, nil, nil, a.tabs)
}

func (a *App) buildToolbar() fyne.CanvasObject {
	a.backBtn = newIconButtonWithTooltip(theme.NavigateBackIcon(), "Previous drawing", a.goBack)
	a.forwardBtn = newIconButtonWithTooltip(theme.NavigateNextIcon(), "Next drawing", a.goForward)
	a.updateNavButtons()

	return newToolbar(
		newIconButtonWithTooltip(theme.FolderOpenIcon(), "Open drawing", a.showOpenDrawingDialog),
		newIconButtonWithTooltip(theme.ViewRefreshIcon(), "Reprocess with current settings", a.reprocess),
		a.backBtn,
		a.forwardBtn,
		newIconButtonWithTooltip(theme.DocumentPrintIcon(), "Export PDF report", func() {
			a.exportReport("PDF report", ".pdf", export.ExportPDF)
		}),
		newIconButtonWithTooltip(theme.ListIcon(), "Load factor table", a.showFactorTableDialog),
	)
}

func (a *App) updateNavButtons() {
	if a.backBtn == nil {
		return
	}
	if a.history.CanBack() {
		a.backBtn.Enable()
	} else {
		a.backBtn.Disable()
	}
	if a.history.CanForward() {
		a.forwardBtn.Enable()
	} else {
		a.forwardBtn.Disable()
	}
}

func (a *App) setStatus(format string, args ...interface{}) {
	if a.statusLabel != nil {
		a.statusLabel.SetText(fmt.Sprintf(format, args...))
	}
}

// ─── Rooms Panel ───────────────────────────────────────────

func (a *App) buildRoomsPanel() fyne.CanvasObject {
	a.roomsContainer = container.NewStack()
	a.refreshRooms()
	return a.roomsContainer
}

func (a *App) refreshRooms() {
	a.roomsContainer.RemoveAll()
	defer a.roomsContainer.Refresh()

	if a.path == "" {
		a.roomsContainer.Add(widget.NewLabel("No drawing loaded. Use File > Open Drawing."))
		return
	}
	if !a.result.Success {
		msg := widget.NewLabel("Processing failed: " + a.result.Error)
		msg.Importance = widget.DangerImportance
		msg.Wrapping = fyne.TextWrapWord
		a.roomsContainer.Add(msg)
		return
	}

	rows := widgets.RoomRows(a.result, a.config.PowerFactor)
	rooms := a.result.Rooms
	a.roomsContainer.Add(widgets.NewRoomsTable(rows, func(row int) {
		if row < len(rooms) {
			a.showRoomStatus(rooms[row].ID)
		}
	}))
}

func (a *App) showRoomStatus(roomID int) {
	for _, r := range a.result.Rooms {
		if r.ID == roomID {
			a.setStatus("%s (%s): %.2f m², lighting %.2f W, sockets %.2f W, total %.2f W",
				r.Name, r.Type, r.Area, r.LightingLoad, r.SocketsLoad, r.TotalLoad)
			return
		}
	}
}

// ─── Floor Plan Panel ──────────────────────────────────────

func (a *App) buildPlanPanel() fyne.CanvasObject {
	a.planContainer = container.NewStack()
	a.refreshPlan()
	return a.planContainer
}

func (a *App) refreshPlan() {
	a.planContainer.RemoveAll()
	a.planContainer.Add(widgets.RenderFloorPlan(&a.result, a.config.PowerFactor, a.showRoomStatus))
	a.planContainer.Refresh()
}

// ─── Settings Panel ────────────────────────────────────────

// buildSettingsPanel edits the reconstruction settings of the current
// session. Defaults for new sessions live in the Settings dialog.
func (a *App) buildSettingsPanel() fyne.CanvasObject {
	s := &a.settings

	floatEntry := func(val *float64, format string) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(fmt.Sprintf(format, *val))
		e.OnChanged = func(text string) {
			if v, err := strconv.ParseFloat(text, 64); err == nil {
				*val = v
			}
		}
		return e
	}

	chainCheck := widget.NewCheck("", func(b bool) { s.ChainLines = b })
	chainCheck.Checked = s.ChainLines

	reconstruction := widget.NewCard("Room Reconstruction", "", container.NewGridWithColumns(2,
		widget.NewLabel("Minimum Room Area (m²)"), floatEntry(&s.MinRoomArea, "%.2f"),
		widget.NewLabel("Outer Boundary Area (m²)"), floatEntry(&s.OuterBoundaryArea, "%.0f"),
		widget.NewLabel("Join Loose Lines"), chainCheck,
		widget.NewLabel("Line Join Tolerance (m)"), floatEntry(&s.ChainTolerance, "%.3f"),
	))

	loads := widget.NewCard("Loads", "", container.NewGridWithColumns(2,
		widget.NewLabel("Power Factor"), floatEntry(&a.config.PowerFactor, "%.2f"),
		widget.NewLabel("Load Factor Table"), widget.NewLabel(a.factorSourceLabel()),
	))

	applyBtn := widget.NewButtonWithIcon("Apply and Reprocess", theme.ViewRefreshIcon(), func() {
		a.reprocess()
	})
	resetBtn := widget.NewButton("Reset to Defaults", func() {
		a.settings = a.config.Settings()
		a.tabs.Items[2].Content = a.buildSettingsPanel()
		a.tabs.Refresh()
	})

	return container.NewVScroll(container.NewVBox(
		reconstruction,
		loads,
		container.NewHBox(layout.NewSpacer(), resetBtn, applyBtn),
	))
}

func (a *App) factorSourceLabel() string {
	if a.config.FactorsPath == "" {
		return fmt.Sprintf("built-in (%d types)", a.table.Len())
	}
	return fmt.Sprintf("%s (%d types)", filepath.Base(a.config.FactorsPath), a.table.Len())
}

// ─── Actions ───────────────────────────────────────────────

func (a *App) showOpenDrawingDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		a.openDrawing(path)
	}, a.window)
	d.Show()
}

// OpenDrawing processes path and shows the result; the previous drawing
// stays reachable through Back.
func (a *App) OpenDrawing(path string) {
	a.openDrawing(path)
}

func (a *App) openDrawing(path string) {
	if a.path != "" {
		a.history.Push(a.snapshot())
	}
	a.process(path)
}

func (a *App) reprocess() {
	if a.path == "" {
		dialog.ShowInformation("Nothing to process", "Open a DXF drawing first.", a.window)
		return
	}
	a.process(a.path)
}

func (a *App) snapshot() Snapshot {
	return MakeSnapshot(a.path, a.settings, a.result, filepath.Base(a.path))
}

func (a *App) process(path string) {
	processor := engine.NewProcessor(a.table, a.settings, a.logger)
	result := processor.ProcessFile(path)

	a.path = path
	a.result = result

	project.AddRecentDrawing(&a.config, path, maxRecentDrawings)
	if err := a.saveConfig(); err != nil {
		a.logger.Warn("cannot save config", zap.Error(err))
	}
	a.SetupMenus()
	a.recordRun()
	a.refreshAll()

	if !result.Success {
		dialog.ShowError(fmt.Errorf("%s", result.Error), a.window)
		a.setStatus("%s: processing failed", filepath.Base(path))
		return
	}
	a.setStatus("%s: %d rooms, %.2f W (%.2f kVA)",
		filepath.Base(path), result.RoomCount(), result.TotalLoad,
		engine.WattsToKVA(result.TotalLoad, a.config.PowerFactor))
}

func (a *App) showSnapshot(s Snapshot) {
	a.path = s.Path
	a.settings = s.Settings
	a.result = s.Result
	a.refreshAll()
	a.setStatus("%s", s.Label)
}

func (a *App) goBack() {
	s, ok := a.history.Back(a.snapshot())
	if !ok {
		return
	}
	a.showSnapshot(s)
}

func (a *App) goForward() {
	s, ok := a.history.Forward(a.snapshot())
	if !ok {
		return
	}
	a.showSnapshot(s)
}

func (a *App) refreshAll() {
	a.refreshRooms()
	a.refreshPlan()
	if a.runsContainer != nil {
		a.refreshRuns()
	}
	a.updateNavButtons()
}

func (a *App) recordRun() {
	if a.runs == nil {
		return
	}
	run, err := a.runs.SaveRun(filepath.Base(a.path), store.SourceViewer, a.result)
	if err != nil {
		a.logger.Error("cannot record run", zap.Error(err))
		return
	}
	a.logger.Info("run recorded", zap.String("run_id", run.ID))
}

// reportOptions describes the current drawing for exporters.
func (a *App) reportOptions() export.Options {
	return export.Options{
		Drawing:     filepath.Base(a.path),
		Settings:    a.settings,
		PowerFactor: a.config.PowerFactor,
	}
}

func (a *App) exportReport(kind, suffix string, write func(string, model.Result, export.Options) error) {
	if a.path == "" || !a.result.Success {
		dialog.ShowInformation("No results", "Open and process a drawing before exporting.", a.window)
		return
	}

	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := write(path, a.result, a.reportOptions()); err != nil {
			a.logger.Error("export failed", zap.String("kind", kind), zap.Error(err))
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Export Complete",
			fmt.Sprintf("Saved %s to %s", kind, path), a.window)
	}, a.window)
	d.SetFileName(strings.TrimSuffix(filepath.Base(a.path), filepath.Ext(a.path)) + suffix)
	d.Show()
}

func writeResultFile(path string, result model.Result, _ export.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteJSON(f, result, false); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ─── Diagnostics & Comparison ──────────────────────────────

func (a *App) showDiagnosticsDialog() {
	lines := a.result.Diagnostics.Lines()
	text := "No entities were skipped."
	if len(lines) > 0 {
		text = strings.Join(lines, "\n")
	}
	entry := widget.NewMultiLineEntry()
	entry.SetText(text)
	entry.Wrapping = fyne.TextWrapOff

	d := dialog.NewCustom("Diagnostics", "Close", entry, a.window)
	d.Resize(fyne.NewSize(650, 400))
	d.Show()
}

func (a *App) showCompareDialog() {
	if a.path == "" {
		dialog.ShowInformation("Nothing to compare", "Open a DXF drawing first.", a.window)
		return
	}
	entities, err := engine.ReadEntities(a.path)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	results := engine.CompareScenarios(engine.BuildDefaultScenarios(a.table, a.settings), entities, a.logger)

	grid := container.NewGridWithColumns(4,
		widget.NewLabelWithStyle("Scenario", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Rooms", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Unknown", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Total (W)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	)
	for _, r := range results {
		grid.Add(widget.NewLabel(r.Scenario.Name))
		grid.Add(widget.NewLabel(fmt.Sprintf("%d", r.RoomCount)))
		grid.Add(widget.NewLabel(fmt.Sprintf("%d", r.UnknownCount)))
		grid.Add(widget.NewLabel(fmt.Sprintf("%.2f", r.TotalLoad)))
	}

	d := dialog.NewCustom("Compare Scenarios", "Close", container.NewVScroll(grid), a.window)
	d.Resize(fyne.NewSize(600, 300))
	d.Show()
}

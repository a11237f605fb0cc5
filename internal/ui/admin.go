package ui

import (
	"errors"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/RoomLoad/internal/model"
	"github.com/piwi3910/RoomLoad/internal/project"
)

// checkAppConfig rejects values the pipeline cannot use.
func checkAppConfig(cfg model.AppConfig) error {
	var errs []error
	if cfg.PowerFactor <= 0 || cfg.PowerFactor > 1 {
		errs = append(errs, fmt.Errorf("power factor must be in (0, 1], got %g", cfg.PowerFactor))
	}
	if cfg.DefaultMinRoomArea < 0 {
		errs = append(errs, errors.New("minimum room area must not be negative"))
	}
	if cfg.DefaultOuterBoundaryArea <= cfg.DefaultMinRoomArea {
		errs = append(errs, errors.New("outer boundary area must exceed the minimum room area"))
	}
	if cfg.DefaultChainTolerance < 0 {
		errs = append(errs, errors.New("line join tolerance must not be negative"))
	}
	return errors.Join(errs...)
}

// numberEntry edits *val in place; text that does not parse leaves it alone.
func numberEntry(val *float64) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.FormatFloat(*val, 'f', -1, 64))
	e.OnChanged = func(text string) {
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			*val = v
		}
	}
	return e
}

// showSettingsDialog edits a copy of the application config. Nothing is
// applied until the copy passes checkAppConfig.
func (a *App) showSettingsDialog() {
	draft := a.config

	themeSelect := widget.NewSelect([]string{"system", "light", "dark"}, func(v string) { draft.Theme = v })
	themeSelect.SetSelected(draft.Theme)

	levelSelect := widget.NewSelect([]string{"debug", "info", "warn", "error"}, func(v string) { draft.LogLevel = v })
	levelSelect.SetSelected(draft.LogLevel)

	chainCheck := widget.NewCheck("", func(on bool) { draft.DefaultChainLines = on })
	chainCheck.Checked = draft.DefaultChainLines

	historyEntry := widget.NewEntry()
	historyEntry.SetPlaceHolder(project.DefaultHistoryPath())
	historyEntry.SetText(draft.HistoryDB)
	historyEntry.OnChanged = func(text string) { draft.HistoryDB = text }

	items := []*widget.FormItem{
		widget.NewFormItem("Theme", themeSelect),
		widget.NewFormItem("Log Level", levelSelect),
		widget.NewFormItem("Run History Database", historyEntry),
		widget.NewFormItem("", widget.NewSeparator()),
		widget.NewFormItem("Default Minimum Room Area (m²)", numberEntry(&draft.DefaultMinRoomArea)),
		widget.NewFormItem("Default Outer Boundary Area (m²)", numberEntry(&draft.DefaultOuterBoundaryArea)),
		widget.NewFormItem("Join Loose Lines by Default", chainCheck),
		widget.NewFormItem("Default Line Join Tolerance (m)", numberEntry(&draft.DefaultChainTolerance)),
		widget.NewFormItem("Power Factor", numberEntry(&draft.PowerFactor)),
	}

	d := dialog.NewForm("Settings", "Save", "Cancel", items, func(ok bool) {
		if ok {
			a.saveSettings(draft)
		}
	}, a.window)
	d.Resize(fyne.NewSize(520, 520))
	d.Show()
}

func (a *App) saveSettings(draft model.AppConfig) {
	if err := checkAppConfig(draft); err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	reopen := draft.HistoryDB != a.config.HistoryDB

	a.config = draft
	a.applyTheme()
	if err := a.saveConfig(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save settings: %w", err), a.window)
		return
	}

	msg := "Application settings have been saved."
	if reopen {
		msg += "\n\nThe run history database is opened at startup; restart to use the new path."
	}
	dialog.ShowInformation("Settings Saved", msg, a.window)
}

func (a *App) applyTheme() {
	a.theme.SetMode(a.config.Theme)
	if app := fyne.CurrentApp(); app != nil {
		app.Settings().SetTheme(a.theme)
	}
}

// ─── Backup ────────────────────────────────────────────────

// showImportExportDialog offers a backup of the settings and the active
// load factor table, or a restore from one.
func (a *App) showImportExportDialog() {
	content := container.NewVBox(
		widget.NewLabel("A backup holds the application settings and the\nactive load factor table."),
		widget.NewSeparator(),
		widget.NewButtonWithIcon("Export All Data...", theme.DocumentSaveIcon(), a.exportBackup),
		widget.NewButtonWithIcon("Import All Data...", theme.FolderOpenIcon(), func() {
			dialog.ShowConfirm("Import Data",
				"Importing replaces the current settings and load factor table.\n\nContinue?",
				func(ok bool) {
					if ok {
						a.importBackup()
					}
				}, a.window)
		}),
	)

	d := dialog.NewCustom("Import / Export Data", "Close", content, a.window)
	d.Resize(fyne.NewSize(450, 250))
	d.Show()
}

func (a *App) exportBackup() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		if err := project.ExportAllData(path, a.config, a.table); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Export Complete",
			fmt.Sprintf("Settings and %d room types exported to:\n%s", a.table.Len(), path), a.window)
	}, a.window)
	d.SetFileName("roomload-backup.json")
	d.Show()
}

func (a *App) importBackup() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		backup, err := project.ImportAllData(path)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if err := checkAppConfig(backup.Config); err != nil {
			dialog.ShowError(fmt.Errorf("backup settings are invalid: %w", err), a.window)
			return
		}

		a.config = backup.Config
		a.settings = a.config.Settings()
		a.applyTheme()
		if backup.Factors != nil {
			// Saves the config and reprocesses the open drawing.
			a.applyFactorTable(*backup.Factors)
		} else if err := a.saveConfig(); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save imported settings: %w", err), a.window)
			return
		}
		a.SetupMenus()
		dialog.ShowInformation("Import Complete",
			fmt.Sprintf("Restored the backup created at %s.", backup.CreatedAt), a.window)
	}, a.window)
}

// saveConfig persists the current app config to disk.
func (a *App) saveConfig() error {
	return project.SaveAppConfig(a.configPath, a.config)
}

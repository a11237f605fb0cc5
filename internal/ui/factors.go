package ui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/export"
	"github.com/piwi3910/RoomLoad/internal/model"
	"github.com/piwi3910/RoomLoad/internal/project"
)

// factorsFileName is where edited tables are saved, next to the config.
const factorsFileName = "factors.json"

// parseFactorEntry validates the text of an add/edit form.
func parseFactorEntry(code, lighting, sockets string) (string, model.LoadFactors, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", model.LoadFactors{}, fmt.Errorf("room type must not be empty")
	}
	l, err := strconv.ParseFloat(strings.TrimSpace(lighting), 64)
	if err != nil || l < 0 {
		return "", model.LoadFactors{}, fmt.Errorf("lighting must be a number >= 0")
	}
	s, err := strconv.ParseFloat(strings.TrimSpace(sockets), 64)
	if err != nil || s < 0 {
		return "", model.LoadFactors{}, fmt.Errorf("sockets must be a number >= 0")
	}
	return code, model.LoadFactors{Lighting: l, Sockets: s}, nil
}

// removeFactor deletes code from entries. DEFAULT cannot be removed.
func removeFactor(entries map[string]model.LoadFactors, code string) error {
	if code == model.DefaultRoomType {
		return fmt.Errorf("the %s entry is required", model.DefaultRoomType)
	}
	delete(entries, code)
	return nil
}

func sortedCodes(entries map[string]model.LoadFactors) []string {
	codes := make([]string, 0, len(entries))
	for code := range entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ─── Load Factor Table Dialog ──────────────────────────────

// showFactorTableDialog edits a working copy of the table. Apply validates
// it, saves it as the configured table and reprocesses the drawing.
func (a *App) showFactorTableDialog() {
	entries := a.table.Entries()
	factorList := container.NewVBox()
	var refreshList func()

	refreshList = func() {
		factorList.RemoveAll()

		header := container.NewGridWithColumns(5,
			widget.NewLabelWithStyle("Room Type", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Lighting (W/m²)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Sockets (W/m²)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{}),
			widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{}),
		)
		factorList.Add(header)
		factorList.Add(widget.NewSeparator())

		for _, c := range sortedCodes(entries) {
			code := c
			f := entries[code]
			deleteBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
				if err := removeFactor(entries, code); err != nil {
					dialog.ShowError(err, a.window)
					return
				}
				refreshList()
			})
			if code == model.DefaultRoomType {
				deleteBtn.Disable()
			}
			row := container.NewGridWithColumns(5,
				widget.NewLabel(code),
				widget.NewLabel(fmt.Sprintf("%g", f.Lighting)),
				widget.NewLabel(fmt.Sprintf("%g", f.Sockets)),
				widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
					a.showFactorEntryDialog(entries, code, refreshList)
				}),
				deleteBtn,
			)
			factorList.Add(row)
		}
	}

	refreshList()

	addBtn := widget.NewButtonWithIcon("Add Room Type", theme.ContentAddIcon(), func() {
		a.showFactorEntryDialog(entries, "", refreshList)
	})

	importBtn := widget.NewButtonWithIcon("Import...", theme.FolderOpenIcon(), func() {
		a.importFactorTable(func(table model.LoadFactorTable) {
			entries = table.Entries()
			refreshList()
		})
	})

	exportBtn := widget.NewButtonWithIcon("Export...", theme.DocumentSaveIcon(), func() {
		a.exportFactorTable()
	})

	toolbar := container.NewHBox(addBtn, layout.NewSpacer(), importBtn, exportBtn)

	content := container.NewBorder(
		toolbar,
		nil, nil, nil,
		container.NewVScroll(factorList),
	)

	d := dialog.NewCustomConfirm("Load Factor Table", "Apply", "Cancel", content, func(ok bool) {
		if !ok {
			return
		}
		table, err := model.NewLoadFactorTable(entries)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.applyFactorTable(table)
	}, a.window)
	d.Resize(fyne.NewSize(650, 500))
	d.Show()
}

// showFactorEntryDialog adds a room type, or edits code when it is set.
func (a *App) showFactorEntryDialog(entries map[string]model.LoadFactors, code string, onDone func()) {
	codeEntry := widget.NewEntry()
	codeEntry.SetPlaceHolder("e.g. MEETING")
	lightingEntry := widget.NewEntry()
	socketsEntry := widget.NewEntry()

	title, confirm := "Add Room Type", "Add"
	if code != "" {
		f := entries[code]
		title, confirm = "Edit "+code, "Save"
		codeEntry.SetText(code)
		codeEntry.Disable()
		lightingEntry.SetText(fmt.Sprintf("%g", f.Lighting))
		socketsEntry.SetText(fmt.Sprintf("%g", f.Sockets))
	} else {
		def := entries[model.DefaultRoomType]
		lightingEntry.SetText(fmt.Sprintf("%g", def.Lighting))
		socketsEntry.SetText(fmt.Sprintf("%g", def.Sockets))
	}

	form := dialog.NewForm(title, confirm, "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Room Type", codeEntry),
			widget.NewFormItem("Lighting (W/m²)", lightingEntry),
			widget.NewFormItem("Sockets (W/m²)", socketsEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			key, f, err := parseFactorEntry(codeEntry.Text, lightingEntry.Text, socketsEntry.Text)
			if err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			entries[key] = f
			onDone()
		},
		a.window,
	)
	form.Resize(fyne.NewSize(400, 250))
	form.Show()
}

// applyFactorTable makes table the active one, persists it and reprocesses
// the current drawing.
func (a *App) applyFactorTable(table model.LoadFactorTable) {
	a.table = table

	path := filepath.Join(filepath.Dir(a.configPath), factorsFileName)
	if err := project.SaveFactorTable(path, table); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save load factor table: %w", err), a.window)
		return
	}
	a.config.FactorsPath = path
	if err := a.saveConfig(); err != nil {
		a.logger.Warn("cannot save config", zap.Error(err))
	}
	a.logger.Info("load factor table updated", zap.String("path", path), zap.Int("types", table.Len()))

	if a.path != "" {
		a.process(a.path)
	}
}

// ─── Import / Export ───────────────────────────────────────

func (a *App) importFactorTable(onDone func(model.LoadFactorTable)) {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		table, warnings, err := project.LoadFactorTableFile(path)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		onDone(table)

		msg := fmt.Sprintf("Imported %d room types.", table.Len())
		if len(warnings) > 0 {
			msg += "\n\nWarnings:\n" + strings.Join(warnings, "\n")
		}
		dialog.ShowInformation("Import Complete", msg, a.window)
	}, a.window)
}

func (a *App) exportFactorTable() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			err = export.ExportFactorsExcel(path, a.table)
		} else {
			err = project.SaveFactorTable(path, a.table)
		}
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Export Complete",
			fmt.Sprintf("Load factor table exported to %s", path), a.window)
	}, a.window)
	d.SetFileName(factorsFileName)
	d.Show()
}

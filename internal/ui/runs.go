package ui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/store"
)

const runsShown = 50

// ─── Run History Panel ─────────────────────────────────────

func (a *App) buildRunsPanel() fyne.CanvasObject {
	a.runsContainer = container.NewVBox()
	a.refreshRuns()

	refreshBtn := widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), func() {
		a.refreshRuns()
	})

	return container.NewBorder(
		container.NewHBox(
			widget.NewLabelWithStyle("Recorded Runs", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			layout.NewSpacer(),
			refreshBtn,
		),
		nil, nil, nil,
		container.NewVScroll(a.runsContainer),
	)
}

func (a *App) refreshRuns() {
	a.runsContainer.RemoveAll()
	defer a.runsContainer.Refresh()

	runs, err := a.runs.ListRuns(runsShown)
	if err != nil {
		a.logger.Error("cannot list runs", zap.Error(err))
		a.runsContainer.Add(widget.NewLabel("Run history is unavailable: " + err.Error()))
		return
	}
	if len(runs) == 0 {
		a.runsContainer.Add(widget.NewLabel("No runs recorded yet."))
		return
	}

	header := container.NewGridWithColumns(7,
		widget.NewLabelWithStyle("When", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Drawing", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Source", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Rooms", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Total (W)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{}),
		widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{}),
	)
	a.runsContainer.Add(header)
	a.runsContainer.Add(widget.NewSeparator())

	for i := range runs {
		run := runs[i]
		total := widget.NewLabel(fmt.Sprintf("%.2f", run.TotalLoad))
		if !run.Success {
			total = widget.NewLabel("failed")
			total.Importance = widget.DangerImportance
		}
		row := container.NewGridWithColumns(7,
			widget.NewLabel(run.CreatedAt.Local().Format(time.DateTime)),
			widget.NewLabel(run.Drawing),
			widget.NewLabel(run.Source),
			widget.NewLabel(fmt.Sprintf("%d", run.RoomCount)),
			total,
			widget.NewButtonWithIcon("", theme.VisibilityIcon(), func() {
				a.showRun(run)
			}),
			widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
				a.deleteRun(run)
			}),
		)
		a.runsContainer.Add(row)
	}
}

// showRun displays a stored result. Stored results carry no outlines, so
// the floor plan falls back to the breakdown only.
func (a *App) showRun(run store.Run) {
	if a.path != "" {
		a.history.Push(a.snapshot())
	}
	label := fmt.Sprintf("%s (run %s)", run.Drawing, run.ID)
	a.showSnapshot(MakeSnapshot(run.Drawing, a.settings, run.Result, label))
	a.tabs.SelectIndex(0)
}

func (a *App) deleteRun(run store.Run) {
	dialog.ShowConfirm("Delete Run",
		fmt.Sprintf("Delete the run of %s recorded %s?", run.Drawing, run.CreatedAt.Local().Format(time.DateTime)),
		func(ok bool) {
			if !ok {
				return
			}
			if err := a.runs.DeleteRun(run.ID); err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			a.refreshRuns()
		},
		a.window,
	)
}

package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
)

// newIconButtonWithTooltip creates an icon-only button with a tooltip that appears on hover.
func newIconButtonWithTooltip(icon fyne.Resource, tooltip string, tapped func()) *ttwidget.Button {
	btn := ttwidget.NewButtonWithIcon("", icon, tapped)
	btn.SetToolTip(tooltip)
	return btn
}

// newToolbar lays out tooltip buttons in a row.
func newToolbar(buttons ...*ttwidget.Button) fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, len(buttons)+1)
	for _, b := range buttons {
		objs = append(objs, b)
	}
	objs = append(objs, widget.NewSeparator())
	return container.NewHBox(objs...)
}

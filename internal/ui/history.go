package ui

import "github.com/piwi3910/RoomLoad/internal/model"

const defaultMaxDepth = 50

// Snapshot captures one viewed drawing: its path, the settings it was
// processed with and the result.
type Snapshot struct {
	Path     string
	Settings model.Settings
	Result   model.Result
	Label    string // Human-readable description (e.g. "level1.dxf")
}

// History manages back/forward stacks of viewed drawings.
type History struct {
	backStack    []Snapshot
	forwardStack []Snapshot
	maxDepth     int
}

// NewHistory creates a History with the default max depth of 50.
func NewHistory() *History {
	return &History{
		maxDepth: defaultMaxDepth,
	}
}

// Push saves the snapshot being left onto the back stack and clears the
// forward stack. Call it before showing a newly opened drawing.
func (h *History) Push(s Snapshot) {
	h.backStack = append(h.backStack, s)
	if len(h.backStack) > h.maxDepth {
		h.backStack = h.backStack[len(h.backStack)-h.maxDepth:]
	}
	h.forwardStack = nil
}

// Back pops the most recent snapshot from the back stack and pushes
// the current view onto the forward stack. Returns the snapshot to show
// and true, or an empty snapshot and false if there is nothing to go back to.
func (h *History) Back(current Snapshot) (Snapshot, bool) {
	if len(h.backStack) == 0 {
		return Snapshot{}, false
	}
	last := h.backStack[len(h.backStack)-1]
	h.backStack = h.backStack[:len(h.backStack)-1]
	h.forwardStack = append(h.forwardStack, current)
	return last, true
}

// Forward pops the most recent snapshot from the forward stack and pushes
// the current view onto the back stack.
func (h *History) Forward(current Snapshot) (Snapshot, bool) {
	if len(h.forwardStack) == 0 {
		return Snapshot{}, false
	}
	last := h.forwardStack[len(h.forwardStack)-1]
	h.forwardStack = h.forwardStack[:len(h.forwardStack)-1]
	h.backStack = append(h.backStack, current)
	return last, true
}

// CanBack returns true if there is at least one snapshot to go back to.
func (h *History) CanBack() bool {
	return len(h.backStack) > 0
}

// CanForward returns true if there is at least one snapshot to go forward to.
func (h *History) CanForward() bool {
	return len(h.forwardStack) > 0
}

// Clear removes all navigation history.
func (h *History) Clear() {
	h.backStack = nil
	h.forwardStack = nil
}

// copyRooms returns a copy of the rooms slice with its own outline and
// anchor storage, so later edits of a live result never leak into history.
func copyRooms(rooms []model.Room) []model.Room {
	if rooms == nil {
		return nil
	}
	cp := make([]model.Room, len(rooms))
	for i, r := range rooms {
		cp[i] = r
		if r.Outline != nil {
			cp[i].Outline = make(model.Outline, len(r.Outline))
			copy(cp[i].Outline, r.Outline)
		}
		if r.Anchor != nil {
			anchor := *r.Anchor
			cp[i].Anchor = &anchor
		}
	}
	return cp
}

// MakeSnapshot creates a snapshot of the current view with a label.
func MakeSnapshot(path string, settings model.Settings, result model.Result, label string) Snapshot {
	result.Rooms = copyRooms(result.Rooms)
	return Snapshot{
		Path:     path,
		Settings: settings,
		Result:   result,
		Label:    label,
	}
}

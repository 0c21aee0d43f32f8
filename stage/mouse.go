package stage

import (
	"github.com/chazu/kestrel/display"
	"github.com/chazu/kestrel/vm"
)

// mouseButtonState tracks the entity under the pointer between mouse
// events. active is the entity that last received a button event;
// topmost is whatever is under the pointer now.
type mouseButtonState struct {
	active    display.Character
	topmost   display.Character
	wasDown   bool
	isDown    bool
	wasInside bool
}

func (ms *mouseButtonState) markReachableResources(c *vm.Collector) {
	if ms.active != nil {
		c.MarkResource(ms.active)
	}
	if ms.topmost != nil {
		c.MarkResource(ms.topmost)
	}
}

// MousePosition returns the pointer position in stage pixels.
func (s *Stage) MousePosition() (float64, float64) { return s.mouseX, s.mouseY }

// ActiveEntity returns the entity that last received a button event.
func (s *Stage) ActiveEntity() display.Character { return s.mouse.active }

// MouseMoved records a new pointer position and dispatches MOUSE_MOVE.
func (s *Stage) MouseMoved(x, y float64) {
	s.mouseX, s.mouseY = x, y
	s.notifyMouseListeners(display.Event(display.EventMouseMove))
}

// MouseClick records a button change and dispatches MOUSE_DOWN or
// MOUSE_UP.
func (s *Stage) MouseClick(down bool) {
	s.mouse.isDown = down
	if down {
		s.notifyMouseListeners(display.Event(display.EventMouseDown))
	} else {
		s.notifyMouseListeners(display.Event(display.EventMouseUp))
	}
}

// AddMouseListener registers ch for mouse notifications in addition to
// the live characters.
func (s *Stage) AddMouseListener(ch display.Character) {
	for _, l := range s.mouseListeners {
		if sameChar(l, ch) {
			return
		}
	}
	s.mouseListeners = append(s.mouseListeners, ch)
}

func (s *Stage) RemoveMouseListener(ch display.Character) {
	for i, l := range s.mouseListeners {
		if sameChar(l, ch) {
			s.mouseListeners = append(s.mouseListeners[:i], s.mouseListeners[i+1:]...)
			return
		}
	}
}

// listenerSnapshot returns the live characters followed by the explicit
// listeners not already among them.
func (s *Stage) listenerSnapshot(explicit []display.Character) []display.Character {
	out := s.LiveChars()
	seen := make(map[*display.DisplayObject]struct{}, len(out))
	for _, ch := range out {
		seen[ch.Base()] = struct{}{}
	}
	for _, ch := range explicit {
		if _, dup := seen[ch.Base()]; !dup {
			out = append(out, ch)
		}
	}
	return out
}

// notifyMouseListeners delivers id to clip listeners, broadcasts it to
// Mouse listeners, recomputes the entity under the pointer and the drop
// target, runs the button state machine and finally the action queue.
func (s *Stage) notifyMouseListeners(id display.EventID) {
	for _, ch := range s.listenerSnapshot(s.mouseListeners) {
		if ch.Base().Unloaded() {
			continue
		}
		ch := ch
		s.guard("mouse listener", func() { ch.NotifyEvent(id) })
	}
	if mouse := s.builtins.mouse; mouse != nil {
		s.guard("Mouse listeners", func() { broadcast(mouse, id.FunctionName()) })
	}

	s.mouse.topmost = s.topmostMouseEntity(s.mouseX, s.mouseY)
	if s.drag != nil {
		s.updateDropTarget()
	}
	s.guard("button events", s.generateMouseButtonEvents)
	s.ProcessActionQueue()
}

// topmostMouseEntity searches the levels from the top down.
func (s *Stage) topmostMouseEntity(x, y float64) display.Character {
	levels := s.levelsByDepth()
	for i := len(levels) - 1; i >= 0; i-- {
		m := levels[i]
		if !m.Visible() {
			continue
		}
		if ch := m.TopmostMouseEntity(x, y); ch != nil {
			return ch
		}
	}
	return nil
}

// generateMouseButtonEvents moves the button state machine on by one
// step, firing at most one transition event plus a press or release.
func (s *Stage) generateMouseButtonEvents() {
	ms := &s.mouse

	if ms.wasDown {
		if !ms.wasInside {
			if sameChar(ms.topmost, ms.active) {
				if ms.active != nil {
					ms.active.NotifyEvent(display.Event(display.EventDragOver))
				}
				ms.wasInside = true
			}
		} else if !sameChar(ms.topmost, ms.active) {
			if ms.active != nil {
				ms.active.NotifyEvent(display.Event(display.EventDragOut))
			}
			ms.wasInside = false
		}

		if !ms.isDown {
			ms.wasDown = false
			if ms.active != nil {
				if ms.wasInside {
					ms.active.NotifyEvent(display.Event(display.EventRelease))
				} else {
					ms.active.NotifyEvent(display.Event(display.EventReleaseOutside))
					ms.active = nil
				}
			}
		}
		return
	}

	if !sameChar(ms.topmost, ms.active) {
		if ms.active != nil {
			ms.active.NotifyEvent(display.Event(display.EventRollOut))
		}
		ms.active = ms.topmost
		if ms.active != nil {
			ms.active.NotifyEvent(display.Event(display.EventRollOver))
		}
		ms.wasInside = true
	}

	if ms.isDown {
		if ms.active != nil {
			s.SetFocus(ms.active)
			ms.active.NotifyEvent(display.Event(display.EventPress))
		}
		ms.wasInside = true
		ms.wasDown = true
	}
}

// ---------------------------------------------------------------------------
// Focus
// ---------------------------------------------------------------------------

// Focus returns the character holding keyboard focus.
func (s *Stage) Focus() display.Character { return s.focus }

// SetFocus moves the focus to to, which may be nil. The old holder's
// onKillFocus, the new holder's onSetFocus and the Selection listeners'
// onSetFocus are queued in that order. It reports whether the focus
// changed.
func (s *Stage) SetFocus(to display.Character) bool {
	if sameChar(to, s.focus) {
		return false
	}
	if to != nil {
		if m, ok := to.(*display.Movie); ok && m == s.root {
			return false
		}
		if !to.HandleFocus() {
			return false
		}
	}

	from := s.focus
	if obj := objectOf(from); obj != nil {
		s.PushAction(&display.DelayedFunctionCall{
			This: obj, Name: "onKillFocus", Args: []vm.Value{vm.ObjectValue(objectOf(to))}, Owner: from,
		}, display.PriorityDoAction)
	}
	s.focus = to
	if obj := objectOf(to); obj != nil {
		s.PushAction(&display.DelayedFunctionCall{
			This: obj, Name: "onSetFocus", Args: []vm.Value{vm.ObjectValue(objectOf(from))}, Owner: to,
		}, display.PriorityDoAction)
	}
	if sel := s.builtins.selection; sel != nil {
		s.PushAction(&display.DelayedFunctionCall{
			This: sel, Name: "broadcastMessage",
			Args: []vm.Value{vm.String("onSetFocus"), vm.ObjectValue(objectOf(from)), vm.ObjectValue(objectOf(to))},
		}, display.PriorityDoAction)
	}
	return true
}

// ---------------------------------------------------------------------------
// Drag
// ---------------------------------------------------------------------------

// DragState describes a startDrag in progress. Bounds, when set, are in
// the parent's coordinate space.
type DragState struct {
	Character  display.Character
	LockCenter bool
	Bounds     *display.Rect

	xOffset, yOffset float64
}

// StartDrag makes the pointer carry d.Character. Without LockCenter the
// character keeps its offset from the pointer.
func (s *Stage) StartDrag(d DragState) {
	if d.Character == nil {
		return
	}
	if !d.LockCenter {
		ox, oy := d.Character.Base().WorldMatrix().Transform(0, 0)
		d.xOffset = s.mouseX - ox
		d.yOffset = s.mouseY - oy
	}
	s.drag = &d
	s.doMouseDrag()
}

// StopDrag ends any drag in progress.
func (s *Stage) StopDrag() { s.drag = nil }

// DraggingCharacter returns the character being dragged, or nil.
func (s *Stage) DraggingCharacter() display.Character {
	if s.drag == nil {
		return nil
	}
	return s.drag.Character
}

func (s *Stage) doMouseDrag() {
	d := s.drag
	if d == nil {
		return
	}
	ch := d.Character
	b := ch.Base()
	if b.Unloaded() {
		s.drag = nil
		return
	}

	x, y := s.mouseX, s.mouseY
	if !d.LockCenter {
		x -= d.xOffset
		y -= d.yOffset
	}

	parentWorld := display.Identity
	if p := b.Parent(); p != nil {
		parentWorld = p.WorldMatrix()
	}
	if d.Bounds != nil {
		wb := parentWorld.TransformRect(*d.Bounds)
		x = clamp(x, wb.XMin, wb.XMax)
		y = clamp(y, wb.YMin, wb.YMax)
	}

	px, py := parentWorld.Invert().Transform(x, y)
	m := b.Matrix()
	m.TX, m.TY = px, py
	b.SetMatrix(m, false)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// updateDropTarget records the path of the scriptable node under the
// pointer on the dragged clip.
func (s *Stage) updateDropTarget() {
	dragged := clipOf(s.drag.Character)
	if dragged == nil {
		return
	}
	hit := s.findDropTarget(s.mouseX, s.mouseY, s.drag.Character)
	for hit != nil && hit.Base().Object() == nil {
		p := hit.Base().Parent()
		if p == nil {
			hit = nil
			break
		}
		hit = p.Self()
	}
	if hit == nil {
		dragged.SetDropTarget("")
		return
	}
	dragged.SetDropTarget(hit.Base().TargetPath())
}

func (s *Stage) findDropTarget(x, y float64, dragging display.Character) display.Character {
	levels := s.levelsByDepth()
	for i := len(levels) - 1; i >= 0; i-- {
		if ch := dropTargetIn(levels[i], x, y, dragging); ch != nil {
			return ch
		}
	}
	return nil
}

// dropTargetIn returns the deepest node under the point, ignoring the
// dragged character and masks.
func dropTargetIn(ch display.Character, x, y float64, dragging display.Character) display.Character {
	b := ch.Base()
	if sameChar(ch, dragging) || !b.Visible() || b.IsMaskLayer() || b.IsDynamicMask() {
		return nil
	}
	if mc := clipOf(ch); mc != nil {
		children := mc.DisplayList().Children()
		for i := len(children) - 1; i >= 0; i-- {
			if display.IsRemovedDepth(children[i].Base().Depth()) {
				continue
			}
			if hit := dropTargetIn(children[i], x, y, dragging); hit != nil {
				return hit
			}
		}
	}
	if ch.PointInShape(x, y) {
		return ch
	}
	return nil
}

// clipOf returns the clip part of ch, or nil for nodes that are not
// clips.
func clipOf(ch display.Character) *display.MovieClip {
	switch c := ch.(type) {
	case *display.MovieClip:
		return c
	case *display.Movie:
		return &c.MovieClip
	}
	return nil
}

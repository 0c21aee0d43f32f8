package display

import (
	"sort"

	"github.com/chazu/kestrel/vm"
)

// DisplayList holds a container's children ordered by depth.
type DisplayList struct {
	chars []Character
}

func (dl *DisplayList) Len() int { return len(dl.chars) }

// Children returns a snapshot of the list in depth order.
func (dl *DisplayList) Children() []Character {
	return append([]Character(nil), dl.chars...)
}

// search returns the index of the first entry at depth or deeper.
func (dl *DisplayList) search(depth int) int {
	return sort.Search(len(dl.chars), func(i int) bool {
		return dl.chars[i].Base().depth >= depth
	})
}

func (dl *DisplayList) insert(ch Character) {
	i := dl.search(ch.Base().depth)
	dl.chars = append(dl.chars, nil)
	copy(dl.chars[i+1:], dl.chars[i:])
	dl.chars[i] = ch
}

func (dl *DisplayList) removeAt(i int) {
	dl.chars = append(dl.chars[:i], dl.chars[i+1:]...)
}

func (dl *DisplayList) indexOf(ch Character) int {
	for i, c := range dl.chars {
		if c.Base() == ch.Base() {
			return i
		}
	}
	return -1
}

// AtDepth returns the child at depth, or nil.
func (dl *DisplayList) AtDepth(depth int) Character {
	i := dl.search(depth)
	if i < len(dl.chars) && dl.chars[i].Base().depth == depth {
		return dl.chars[i]
	}
	return nil
}

// HighestDepth returns the highest depth in use, or -1 when the list is
// empty.
func (dl *DisplayList) HighestDepth() int {
	if len(dl.chars) == 0 {
		return -1
	}
	return dl.chars[len(dl.chars)-1].Base().depth
}

// NextHighestDepth returns the first free depth above every child,
// never below zero.
func (dl *DisplayList) NextHighestDepth() int {
	next := dl.HighestDepth() + 1
	if next < 0 {
		return 0
	}
	return next
}

// retire finishes with a child that left the list: it goes to the
// removed depth range if it still has an unload handler to run, and is
// destroyed otherwise.
func (dl *DisplayList) retire(old Character) {
	if old.Unload() {
		b := old.Base()
		b.depth = RemovedDepthOffset - b.depth
		dl.insert(old)
		return
	}
	old.Destroy()
}

// Place puts ch at depth, retiring any child already there.
func (dl *DisplayList) Place(ch Character, depth int) {
	b := ch.Base()
	if b.unloaded {
		panic("display: placing unloaded " + b.Target())
	}
	b.SetInvalidated()
	b.depth = depth

	i := dl.search(depth)
	if i == len(dl.chars) || dl.chars[i].Base().depth != depth {
		dl.insert(ch)
		return
	}

	var oldRanges InvalidatedRanges
	old := dl.chars[i]
	old.AddInvalidatedBounds(&oldRanges, true)
	dl.chars[i] = ch
	dl.retire(old)
	b.ExtendInvalidatedBounds(&oldRanges)
}

// Replace swaps the child at depth for ch. Unless the new character is
// meant to bring its own transform, the old matrix and colour transform
// are kept.
func (dl *DisplayList) Replace(ch Character, depth int, keepCxForm, keepMatrix bool) {
	old := dl.AtDepth(depth)
	if old == nil {
		dl.Place(ch, depth)
		return
	}
	b, ob := ch.Base(), old.Base()
	b.depth = depth
	if keepCxForm {
		b.cxform = ob.cxform
	}
	if keepMatrix {
		b.SetMatrix(ob.matrix, true)
	}

	var oldRanges InvalidatedRanges
	old.AddInvalidatedBounds(&oldRanges, true)
	dl.chars[dl.indexOf(old)] = ch
	dl.retire(old)
	b.ExtendInvalidatedBounds(&oldRanges)
}

// Remove takes the child at depth off the list.
func (dl *DisplayList) Remove(depth int) {
	i := dl.search(depth)
	if i == len(dl.chars) || dl.chars[i].Base().depth != depth {
		return
	}
	old := dl.chars[i]
	dl.removeAt(i)
	dl.retire(old)
}

// SwapDepths moves ch to depth, exchanging places with the child found
// there.
func (dl *DisplayList) SwapDepths(ch Character, depth int) {
	b := ch.Base()
	src := b.depth
	if src == depth {
		return
	}
	i := dl.indexOf(ch)
	if i < 0 {
		log.Errorf("swapDepths: %s is not in this display list", b.Target())
		return
	}
	if other := dl.AtDepth(depth); other != nil {
		j := dl.indexOf(other)
		other.Base().depth = src
		other.Base().SetInvalidated()
		b.depth = depth
		dl.chars[i], dl.chars[j] = dl.chars[j], dl.chars[i]
	} else {
		dl.removeAt(i)
		b.depth = depth
		dl.insert(ch)
	}
	b.SetInvalidated()
	b.markTransformed()
}

// ChildByName finds a live child by instance name.
func (dl *DisplayList) ChildByName(st *vm.StringTable, uri vm.ObjectURI, caseless bool) Character {
	for _, ch := range dl.chars {
		b := ch.Base()
		if b.destroyed || b.name == "" {
			continue
		}
		if uri.Equal(st, vm.ObjectURI{Name: st.Intern(b.name), Namespace: uri.Namespace}, caseless) {
			return ch
		}
	}
	return nil
}

// Unload unloads every child. Children without an unload handler are
// destroyed and dropped at once; the rest wait for their handlers. It
// reports whether any handler is pending.
func (dl *DisplayList) Unload() bool {
	pending := false
	kept := dl.chars[:0]
	for _, ch := range dl.chars {
		if ch.Base().unloaded {
			kept = append(kept, ch)
			continue
		}
		if ch.Unload() {
			pending = true
			kept = append(kept, ch)
			continue
		}
		ch.Destroy()
	}
	dl.chars = kept
	return pending
}

// Destroy destroys every child and empties the list.
func (dl *DisplayList) Destroy() {
	for _, ch := range dl.chars {
		if !ch.Base().destroyed {
			ch.Destroy()
		}
	}
	dl.chars = nil
}

// RemoveUnloaded drops unloaded children and cleans up the ones that
// remain.
func (dl *DisplayList) RemoveUnloaded() {
	kept := dl.chars[:0]
	for _, ch := range dl.chars {
		if ch.Base().unloaded {
			continue
		}
		kept = append(kept, ch)
		if mc, ok := ch.(interface{ CleanupDisplayList() }); ok {
			mc.CleanupDisplayList()
		}
	}
	for i := len(kept); i < len(dl.chars); i++ {
		dl.chars[i] = nil
	}
	dl.chars = kept
}

// RemoveScriptless drops timeline-placed children that scripts have not
// taken over, as when a timeline rewinds.
func (dl *DisplayList) RemoveScriptless() {
	for _, ch := range dl.Children() {
		b := ch.Base()
		if b.depth >= StaticDepthOffset && b.depth < 0 && !b.dynamic {
			dl.Remove(b.depth)
		}
	}
}

// Advance advances every live child.
func (dl *DisplayList) Advance() {
	for _, ch := range dl.Children() {
		if !ch.Base().unloaded {
			ch.Advance()
		}
	}
}

// Bounds returns the union of the children's bounds in the container's
// space.
func (dl *DisplayList) Bounds() Rect {
	out := NullRect()
	for _, ch := range dl.chars {
		b := ch.Base()
		if b.unloaded {
			continue
		}
		out = out.Union(b.matrix.TransformRect(ch.Bounds()))
	}
	return out
}

// AddInvalidatedBounds collects the children's invalidated regions.
func (dl *DisplayList) AddInvalidatedBounds(ranges *InvalidatedRanges, force bool) {
	for _, ch := range dl.chars {
		ch.AddInvalidatedBounds(ranges, force)
	}
}

// Display draws the children in depth order. Script masks wrap the one
// node they mask; timeline masks cover every node up to their clip
// depth.
func (dl *DisplayList) Display(r Renderer, base Transform) {
	var clipStack []int
	for _, ch := range dl.chars {
		b := ch.Base()
		if IsRemovedDepth(b.depth) {
			continue
		}

		if mask := b.mask; mask != nil && b.visible && !mask.Base().unloaded {
			r.BeginSubmitMask()
			mask.Display(r, base)
			r.EndSubmitMask()
			ch.Display(r, base)
			r.DisableMask()
			continue
		}
		if b.IsDynamicMask() {
			continue
		}

		renderAsMask := b.IsMaskLayer()
		for p := b.parent; !renderAsMask && p != nil; p = p.parent {
			renderAsMask = p.IsMaskLayer()
		}
		if !renderAsMask && !b.visible {
			continue
		}

		for len(clipStack) > 0 && b.depth > clipStack[len(clipStack)-1] {
			clipStack = clipStack[:len(clipStack)-1]
			r.DisableMask()
		}
		if b.IsMaskLayer() {
			clipStack = append(clipStack, b.clipDepth)
			r.BeginSubmitMask()
		}
		ch.Display(r, base)
		if b.IsMaskLayer() {
			r.EndSubmitMask()
		}
	}
	for range clipStack {
		r.DisableMask()
	}
}

// TopmostMouseEntity searches the children front to back for a mouse
// target. x, y are in the container's space, wx, wy in world space.
func (dl *DisplayList) TopmostMouseEntity(x, y, wx, wy float64) Character {
	var candidates []Character
	for i := len(dl.chars) - 1; i >= 0; i-- {
		ch := dl.chars[i]
		b := ch.Base()
		if IsRemovedDepth(b.depth) || b.IsMaskLayer() || b.IsDynamicMask() {
			continue
		}
		candidates = append(candidates, ch)
	}
	for _, ch := range candidates {
		b := ch.Base()
		if m := b.mask; m != nil && m.Base().visible && !m.PointInShape(wx, wy) {
			continue
		}
		if te := ch.TopmostMouseEntity(x, y); te != nil {
			return te
		}
	}
	return nil
}

// VisitNames reports the names of live named children.
func (dl *DisplayList) VisitNames(fn func(name string)) {
	for _, ch := range dl.chars {
		b := ch.Base()
		if b.destroyed || b.name == "" {
			continue
		}
		fn(b.name)
	}
}

func (dl *DisplayList) markReachable(c *vm.Collector) {
	for _, ch := range dl.chars {
		c.MarkResource(ch)
	}
}

package display

import (
	"github.com/chazu/kestrel/vm"
)

// Character is a node of the display tree. Every implementation embeds
// *DisplayObject through one of the concrete node types and is also the
// magic-property provider of its script object.
type Character interface {
	vm.Resource
	vm.Magic

	Base() *DisplayObject
	Advance()
	Display(r Renderer, base Transform)
	// Bounds returns the local bounds, before the node's own matrix.
	Bounds() Rect
	// PointInShape tests a point in world coordinates.
	PointInShape(x, y float64) bool
	// TopmostMouseEntity returns the mouse-enabled node under a point
	// given in the parent's coordinate space.
	TopmostMouseEntity(x, y float64) Character
	MouseEnabled() bool
	NotifyEvent(id EventID)
	AddInvalidatedBounds(ranges *InvalidatedRanges, force bool)
	// Unload marks the node unloaded and reports whether it, or a
	// descendant, has an unload handler that must still run.
	Unload() bool
	Destroy()
	PathElement(name string) *vm.Object
	HandleFocus() bool
}

// DisplayObject holds the state shared by every node type.
type DisplayObject struct {
	vm.GcBase

	self   Character
	stage  Stage
	parent *MovieClip
	object *vm.Object

	name      string
	depth     int
	clipDepth int
	dynamic   bool

	matrix   Matrix
	xscale   float64
	yscale   float64
	rotation float64
	cxform   ColorTransform
	visible  bool

	mask   Character
	maskee Character

	handlers map[EventID][]ActionBuffer

	invalidated      bool
	childInvalidated bool
	oldRanges        InvalidatedRanges

	transformedByScript bool
	unloaded            bool
	destroyed           bool
}

// initNode wires a freshly allocated node. A nil proto leaves the node
// without a script object, which is how static shapes are built.
func (d *DisplayObject) initNode(self Character, stage Stage, parent *MovieClip, proto *vm.Object) {
	d.self = self
	d.stage = stage
	d.parent = parent
	d.clipDepth = NoClipDepthValue
	d.matrix = Identity
	d.xscale = 100
	d.yscale = 100
	d.cxform = IdentityCxForm
	d.visible = true
	if proto != nil {
		d.object = stage.VM().NewObjectWithProto(proto)
		d.object.AttachMagic(self)
	}
	stage.VM().Collector().Add(self)
}

// Base returns the shared node state.
func (d *DisplayObject) Base() *DisplayObject { return d }

// Self returns the concrete node this state belongs to.
func (d *DisplayObject) Self() Character { return d.self }

// Object returns the script object, or nil for nodes scripts cannot see.
func (d *DisplayObject) Object() *vm.Object { return d.object }

func (d *DisplayObject) Stage() Stage { return d.stage }
func (d *DisplayObject) VM() *vm.VM   { return d.stage.VM() }

// Parent returns the containing clip, or nil for a level root.
func (d *DisplayObject) Parent() *MovieClip { return d.parent }

func (d *DisplayObject) Name() string           { return d.name }
func (d *DisplayObject) SetName(name string)    { d.name = name }
func (d *DisplayObject) Depth() int             { return d.depth }
func (d *DisplayObject) SetDepth(depth int)     { d.depth = depth }
func (d *DisplayObject) ClipDepth() int         { return d.clipDepth }
func (d *DisplayObject) SetClipDepth(cd int)    { d.clipDepth = cd }
func (d *DisplayObject) IsDynamic() bool        { return d.dynamic }
func (d *DisplayObject) SetDynamic()            { d.dynamic = true }
func (d *DisplayObject) Unloaded() bool         { return d.unloaded }
func (d *DisplayObject) Destroyed() bool        { return d.destroyed }
func (d *DisplayObject) Visible() bool          { return d.visible }
func (d *DisplayObject) Invalidated() bool      { return d.invalidated }
func (d *DisplayObject) ChildInvalidated() bool { return d.childInvalidated }

// TransformedByScript reports whether a script moved, scaled or
// otherwise altered the node, detaching it from timeline transforms.
func (d *DisplayObject) TransformedByScript() bool { return d.transformedByScript }

func (d *DisplayObject) SetVisible(v bool) {
	if d.visible == v {
		return
	}
	d.SetInvalidated()
	d.visible = v
}

func (d *DisplayObject) version() int { return d.stage.VM().Version() }

// TopLevel returns the parent-less ancestor.
func (d *DisplayObject) TopLevel() Character {
	ch := d
	for ch.parent != nil {
		ch = ch.parent.Base()
	}
	return ch.self
}

// Movie returns the root movie this node was loaded with.
func (d *DisplayObject) Movie() *Movie {
	for ch := d; ch != nil; {
		if m, ok := ch.self.(*Movie); ok {
			return m
		}
		if ch.parent == nil {
			return nil
		}
		ch = ch.parent.Base()
	}
	return nil
}

func (d *DisplayObject) isRootMovie() bool {
	m, ok := d.self.(*Movie)
	return ok && m == d.stage.RootMovie()
}

// ---------------------------------------------------------------------------
// Invalidation
// ---------------------------------------------------------------------------

// SetInvalidated records that the node's appearance is about to change.
// Only the first call after a clean state snapshots the current bounds,
// so the renderer repaints both the old and the new area.
func (d *DisplayObject) SetInvalidated() {
	if d.parent != nil {
		d.parent.SetChildInvalidated()
	}
	if d.invalidated {
		return
	}
	d.invalidated = true
	d.oldRanges.SetNull()
	d.self.AddInvalidatedBounds(&d.oldRanges, true)
}

// SetChildInvalidated flags that a descendant changed, up to the root.
func (d *DisplayObject) SetChildInvalidated() {
	if d.childInvalidated {
		return
	}
	d.childInvalidated = true
	if d.parent != nil {
		d.parent.SetChildInvalidated()
	}
}

// ClearInvalidated resets the invalidation state after a render.
func (d *DisplayObject) ClearInvalidated() {
	d.invalidated = false
	d.childInvalidated = false
	d.oldRanges.SetNull()
}

// AddInvalidatedBounds adds the snapshot taken at invalidation time and,
// when the node is visible and dirty (or force is set), its current world
// bounds.
func (d *DisplayObject) AddInvalidatedBounds(ranges *InvalidatedRanges, force bool) {
	ranges.AddRanges(&d.oldRanges)
	if d.visible && (d.invalidated || force) {
		ranges.Add(d.WorldMatrix().TransformRect(d.self.Bounds()))
	}
}

// ExtendInvalidatedBounds folds extra regions into the snapshot, used
// when a node takes the place of another one.
func (d *DisplayObject) ExtendInvalidatedBounds(ranges *InvalidatedRanges) {
	d.SetInvalidated()
	d.oldRanges.AddRanges(ranges)
}

// OldInvalidatedRanges returns the bounds snapshot.
func (d *DisplayObject) OldInvalidatedRanges() *InvalidatedRanges { return &d.oldRanges }

// ---------------------------------------------------------------------------
// Masks
// ---------------------------------------------------------------------------

func (d *DisplayObject) Mask() Character   { return d.mask }
func (d *DisplayObject) Maskee() Character { return d.maskee }

// IsMaskLayer reports a timeline mask, one placed with a clip depth.
func (d *DisplayObject) IsMaskLayer() bool {
	return d.clipDepth != NoClipDepthValue && d.maskee == nil
}

// IsDynamicMask reports a mask assigned by script.
func (d *DisplayObject) IsDynamicMask() bool { return d.maskee != nil }

// SetMask makes mask the node's mask, or removes it when nil. The
// previous mask is released first and the new one is linked back.
func (d *DisplayObject) SetMask(mask Character) {
	if sameChar(d.mask, mask) {
		return
	}
	d.SetInvalidated()

	prev := d.mask
	prevMaskee := d.maskee
	if prev != nil {
		// the old mask clears our reference before we get called back
		prev.Base().SetMaskee(nil)
	}
	// a node is never mask and maskee at once
	if prevMaskee != nil {
		prevMaskee.Base().SetMask(nil)
	}
	d.clipDepth = NoClipDepthValue
	d.mask = mask
	d.maskee = nil
	if mask != nil {
		mask.Base().SetMaskee(d.self)
	}
}

// SetMaskee records the node this one masks.
func (d *DisplayObject) SetMaskee(maskee Character) {
	if sameChar(d.maskee, maskee) {
		return
	}
	if d.maskee != nil {
		d.maskee.Base().mask = nil
	}
	d.maskee = maskee
	if maskee == nil {
		d.clipDepth = NoClipDepthValue
	}
}

func sameChar(a, b Character) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Base() == b.Base()
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// AddEventHandler registers a clip event buffer.
func (d *DisplayObject) AddEventHandler(id EventID, buf ActionBuffer) {
	if d.handlers == nil {
		d.handlers = make(map[EventID][]ActionBuffer)
	}
	d.handlers[id] = append(d.handlers[id], buf)
}

// HasClipHandlers reports whether any clip event buffer is registered.
func (d *DisplayObject) HasClipHandlers() bool { return len(d.handlers) > 0 }

// EventHandler returns the clip event code for id, or nil.
func (d *DisplayObject) EventHandler(id EventID) ExecutableCode {
	bufs := d.handlers[id]
	if len(bufs) == 0 {
		return nil
	}
	return &EventCode{Buffers: bufs, Owner: d.self}
}

// userHandler returns the script method handling id, if defined.
func (d *DisplayObject) userHandler(id EventID) *vm.Object {
	if d.object == nil {
		return nil
	}
	name := id.FunctionName()
	if name == "" {
		return nil
	}
	fn := d.object.Get(name).Object()
	if fn == nil || !fn.IsFunction() {
		return nil
	}
	return fn
}

// HasEventHandler reports a clip event buffer or script method for id.
func (d *DisplayObject) HasEventHandler(id EventID) bool {
	if len(d.handlers[id]) > 0 {
		return true
	}
	return d.userHandler(id) != nil
}

// QueueEvent defers delivery of id to the action queue.
func (d *DisplayObject) QueueEvent(id EventID, lvl ActionLevel) {
	if d.object == nil {
		return
	}
	d.stage.PushAction(&QueuedEvent{Owner: d.self, Event: id}, lvl)
}

// NotifyEvent runs the clip handlers for id, then the script method
// unless the event is one scripts never see directly.
func (d *DisplayObject) NotifyEvent(id EventID) {
	if code := d.EventHandler(id); code != nil {
		code.Execute()
	}
	if id.Kind == EventInitialize || id.IsKeyEvent() {
		return
	}
	d.callUserHandler(id)
}

func (d *DisplayObject) callUserHandler(id EventID, args ...vm.Value) {
	if d.object == nil || d.destroyed {
		return
	}
	d.object.CallMethod(id.FunctionName(), args...)
}

// isEnabled reads the script-visible "enabled" switch; an absent member
// counts as enabled.
func (d *DisplayObject) isEnabled() bool {
	if d.object == nil {
		return false
	}
	val, ok := d.object.GetMember(d.VM().URI("enabled"))
	if !ok {
		return true
	}
	return val.ToBool(d.version())
}

func (d *DisplayObject) MouseEnabled() bool { return false }
func (d *DisplayObject) HandleFocus() bool  { return false }
func (d *DisplayObject) Advance()           {}

func (d *DisplayObject) TopmostMouseEntity(x, y float64) Character { return nil }

// Bounds of a bare node are empty.
func (d *DisplayObject) Bounds() Rect { return NullRect() }

// PointInShape tests x, y against the node's world bounds.
func (d *DisplayObject) PointInShape(x, y float64) bool {
	lx, ly := d.WorldMatrix().Invert().Transform(x, y)
	return d.self.Bounds().Contains(lx, ly)
}

// PointInVisibleShape is PointInShape restricted to visible nodes that
// are not acting as masks.
func (d *DisplayObject) PointInVisibleShape(x, y float64) bool {
	if !d.visible {
		return false
	}
	if d.IsDynamicMask() && !d.self.MouseEnabled() {
		return false
	}
	if m := d.mask; m != nil && m.Base().visible && !m.PointInShape(x, y) {
		return false
	}
	return d.self.PointInShape(x, y)
}

// Display draws the node itself.
func (d *DisplayObject) Display(r Renderer, base Transform) {
	r.DrawCharacter(d.self, base.Concat(d.Transform()))
	d.ClearInvalidated()
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Unload queues the unload event the first time it is called and always
// drops mask links.
func (d *DisplayObject) Unload() bool {
	return d.unloadSelf(false)
}

func (d *DisplayObject) unloadSelf(childHandler bool) bool {
	if !d.unloaded {
		d.QueueEvent(Event(EventUnload), PriorityDoAction)
	}
	if d.maskee != nil {
		d.maskee.Base().SetMask(nil)
	}
	if d.mask != nil {
		d.mask.Base().SetMaskee(nil)
	}
	d.unloaded = true
	return childHandler || d.HasEventHandler(Event(EventUnload))
}

// Destroy ends the node's life. It implies unloading and may not be
// repeated.
func (d *DisplayObject) Destroy() {
	d.unloaded = true
	if d.object != nil {
		d.object.Members().Clear()
	}
	if d.destroyed {
		panic("display: " + d.Target() + " destroyed twice")
	}
	d.destroyed = true
}

// MarkReachableResources marks the script object, the parent and the
// mask links.
func (d *DisplayObject) MarkReachableResources(c *vm.Collector) {
	c.Mark(d.object)
	if d.parent != nil {
		c.MarkResource(d.parent.self)
	}
	markTarget(c, d.mask)
	markTarget(c, d.maskee)
}

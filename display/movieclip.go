package display

import (
	"github.com/chazu/kestrel/vm"
)

// Timeline supplies a clip's frames. Implementations decode whatever
// format the frames come in; the clip only asks for frame n.
type Timeline interface {
	FrameCount() int
	// ExecuteFrame runs frame n: display list commands always, action
	// code only when actions is set.
	ExecuteFrame(clip *MovieClip, n int, actions bool)
}

// Frame is one frame of a Frames timeline.
type Frame struct {
	Place   func(clip *MovieClip)
	Actions []ActionBuffer
}

// Frames is a Timeline held in memory.
type Frames []Frame

func (f Frames) FrameCount() int { return len(f) }

func (f Frames) ExecuteFrame(clip *MovieClip, n int, actions bool) {
	fr := f[n]
	if fr.Place != nil {
		fr.Place(clip)
	}
	if !actions {
		return
	}
	for _, a := range fr.Actions {
		clip.QueueAction(a)
	}
}

type PlayState int

const (
	Playing PlayState = iota
	Stopped
)

// MovieClip is a timeline-driven container.
type MovieClip struct {
	DisplayObject

	timeline     Timeline
	displayList  DisplayList
	drawable     Rect
	currentFrame int
	playState    PlayState
	hasLooped    bool

	registeredClass *vm.Object
	dropTarget      string
}

// NewMovieClip creates a clip under parent. A nil timeline makes an empty
// one-frame clip.
func NewMovieClip(stage Stage, parent *MovieClip, timeline Timeline) *MovieClip {
	mc := &MovieClip{timeline: timeline, drawable: NullRect()}
	mc.initNode(mc, stage, parent, clipPrototype(stage))
	return mc
}

func clipPrototype(stage Stage) *vm.Object {
	if proto := stage.ClipPrototype(); proto != nil {
		return proto
	}
	return stage.VM().ObjectPrototype()
}

func (mc *MovieClip) DisplayList() *DisplayList { return &mc.displayList }
func (mc *MovieClip) PlayState() PlayState      { return mc.playState }
func (mc *MovieClip) Play()                     { mc.playState = Playing }
func (mc *MovieClip) Stop()                     { mc.playState = Stopped }
func (mc *MovieClip) DropTarget() string        { return mc.dropTarget }
func (mc *MovieClip) SetDropTarget(t string)    { mc.dropTarget = t }

// CurrentFrame returns the zero-based frame index.
func (mc *MovieClip) CurrentFrame() int { return mc.currentFrame }

func (mc *MovieClip) FrameCount() int {
	if mc.timeline == nil {
		return 1
	}
	return mc.timeline.FrameCount()
}

func (mc *MovieClip) FramesLoaded() int { return mc.FrameCount() }

// SetRegisteredClass attaches a script class whose constructor runs when
// the clip is constructed.
func (mc *MovieClip) SetRegisteredClass(ctor *vm.Object) { mc.registeredClass = ctor }

// SetDrawableBounds sets the bounds of the clip's own graphics.
func (mc *MovieClip) SetDrawableBounds(r Rect) {
	mc.SetInvalidated()
	mc.drawable = r
}

// QueueAction schedules a frame action buffer at do-action priority.
func (mc *MovieClip) QueueAction(buf ActionBuffer) {
	mc.stage.PushAction(&GlobalCode{Buffer: buf, Owner: mc.self}, PriorityDoAction)
}

func (mc *MovieClip) executeFrame(n int, actions bool) {
	if mc.timeline == nil || n < 0 || n >= mc.timeline.FrameCount() {
		return
	}
	mc.timeline.ExecuteFrame(mc, n, actions)
}

// ---------------------------------------------------------------------------
// Construction and playback
// ---------------------------------------------------------------------------

// Construct gives the clip life once it is on the display list: it is
// registered for advancement, runs its first frame and queues the
// INITIALIZE, construction and LOAD notifications. Clips created by
// script construct at once instead of waiting on the queue.
func (mc *MovieClip) Construct(initObj *vm.Object) {
	if mc.unloaded {
		panic("display: constructing unloaded " + mc.Target())
	}
	mc.stage.AddLiveChar(mc.self)
	mc.executeFrame(0, true)

	if mc.dynamic {
		if initObj != nil && mc.object != nil {
			mc.object.CopyProperties(initObj)
		}
		mc.constructAsScriptObject()
		mc.QueueEvent(Event(EventInitialize), PriorityInit)
	} else {
		mc.QueueEvent(Event(EventInitialize), PriorityInit)
		mc.stage.PushAction(&ConstructEvent{Clip: mc}, PriorityConstruct)
	}
	mc.QueueEvent(Event(EventLoad), PriorityDoAction)
}

func (mc *MovieClip) constructAsScriptObject() {
	ctor := mc.registeredClass
	obj := mc.object
	if ctor == nil || obj == nil || mc.destroyed {
		return
	}
	v := mc.VM()
	if p := ctor.Members().Get(v.URI("prototype")); p != nil {
		obj.SetPrototype(p.GetValue(ctor).Object())
	}
	// handlers see the new prototype but run before the constructor
	mc.self.NotifyEvent(Event(EventConstruct))

	if v.Version() > 5 {
		ctorURI := v.URI("__constructor__")
		obj.SetMember(ctorURI, vm.ObjectValue(ctor), true)
		obj.SetMemberFlags(ctorURI, vm.DontEnum, 0)
		if v.Version() == 6 {
			obj.SetMember(v.URI("constructor"), vm.ObjectValue(ctor), true)
			obj.SetMemberFlags(v.URI("constructor"), vm.DontEnum, 0)
		}
		ctor.Call(obj)
	}
}

// Advance queues ENTER_FRAME and steps the timeline when playing.
func (mc *MovieClip) Advance() {
	mc.QueueEvent(Event(EventEnterFrame), PriorityEnterFrame)

	if mc.playState == Stopped || mc.FrameCount() <= 1 {
		return
	}
	prev := mc.currentFrame
	if mc.currentFrame < mc.FramesLoaded()-1 {
		mc.currentFrame++
	} else if mc.FramesLoaded() == mc.FrameCount() {
		mc.currentFrame = 0
		mc.hasLooped = true
	}
	if mc.currentFrame == prev {
		return
	}
	if mc.currentFrame == 0 && mc.hasLooped {
		mc.restoreDisplayList(0)
		return
	}
	mc.executeFrame(mc.currentFrame, true)
}

// restoreDisplayList rebuilds the timeline state of frame target from
// scratch.
func (mc *MovieClip) restoreDisplayList(target int) {
	mc.displayList.RemoveScriptless()
	for f := 0; f < target; f++ {
		mc.executeFrame(f, false)
	}
	mc.executeFrame(target, true)
}

// GotoFrame jumps to the zero-based frame target. Intermediate frames
// only replay display list commands; the target frame's actions are
// queued.
func (mc *MovieClip) GotoFrame(target int) {
	if total := mc.FrameCount(); target >= total {
		target = total - 1
	}
	if target < 0 || target == mc.currentFrame {
		return
	}
	if target < mc.currentFrame {
		mc.currentFrame = target
		mc.restoreDisplayList(target)
		return
	}
	for f := mc.currentFrame + 1; f < target; f++ {
		mc.executeFrame(f, false)
	}
	mc.currentFrame = target
	mc.executeFrame(target, true)
}

// ---------------------------------------------------------------------------
// Children
// ---------------------------------------------------------------------------

type constructor interface {
	Construct(initObj *vm.Object)
}

// PlaceCharacter puts a timeline character at depth and constructs it.
func (mc *MovieClip) PlaceCharacter(ch Character, depth int, name string) {
	if name != "" {
		ch.Base().name = name
	}
	mc.displayList.Place(ch, depth)
	if c, ok := ch.(constructor); ok {
		c.Construct(nil)
	}
}

// ReplaceCharacter swaps the character at depth for ch.
func (mc *MovieClip) ReplaceCharacter(ch Character, depth int, keepCxForm, keepMatrix bool) {
	mc.displayList.Replace(ch, depth, keepCxForm, keepMatrix)
	if c, ok := ch.(constructor); ok {
		c.Construct(nil)
	}
}

// RemoveCharacter removes the child at depth.
func (mc *MovieClip) RemoveCharacter(depth int) {
	mc.SetInvalidated()
	mc.displayList.Remove(depth)
}

// CreateEmptyMovieClip creates a script clip at depth.
func (mc *MovieClip) CreateEmptyMovieClip(name string, depth int) *MovieClip {
	child := NewMovieClip(mc.stage, mc, nil)
	child.name = name
	child.SetDynamic()
	mc.displayList.Place(child, depth)
	child.Construct(nil)
	return child
}

// DuplicateMovieClip copies the clip to a new depth of the same parent.
// The copy shares the timeline and clip events and starts at frame one.
func (mc *MovieClip) DuplicateMovieClip(name string, depth int, initObj *vm.Object) *MovieClip {
	parent := mc.parent
	if parent == nil {
		asCodingLog.Warningf("duplicateMovieClip: %s has no parent", mc.Target())
		return nil
	}
	dup := NewMovieClip(mc.stage, parent, mc.timeline)
	dup.name = name
	dup.SetDynamic()
	for id, bufs := range mc.handlers {
		for _, b := range bufs {
			dup.AddEventHandler(id, b)
		}
	}
	dup.drawable = mc.drawable
	dup.matrix = mc.matrix
	dup.xscale, dup.yscale, dup.rotation = mc.xscale, mc.yscale, mc.rotation
	dup.cxform = mc.cxform
	dup.registeredClass = mc.registeredClass
	parent.displayList.Place(dup, depth)
	dup.Construct(initObj)
	return dup
}

// RemoveMovieClip removes a script-created clip. Clips outside the
// dynamic depth range stay where they are.
func (mc *MovieClip) RemoveMovieClip() {
	depth := mc.depth
	if depth < 0 || depth > 1048575 {
		asCodingLog.Warningf("removeMovieClip(%s): depth %d out of the removable range", mc.Target(), depth)
		return
	}
	if mc.parent != nil {
		mc.parent.RemoveCharacter(depth)
		return
	}
	mc.stage.DropLevel(depth)
}

// SwapDepths moves the clip to depth within its parent, or between
// levels for a level root.
func (mc *MovieClip) SwapDepths(depth int) {
	if mc.parent == nil {
		if m, ok := mc.self.(*Movie); ok {
			mc.stage.SwapLevels(m, depth)
		}
		return
	}
	if depth < StaticDepthOffset || depth > UpperAccessibleBound {
		asCodingLog.Warningf("%s.swapDepths(%d): depth out of range", mc.Target(), depth)
		return
	}
	mc.parent.SetInvalidated()
	mc.parent.displayList.SwapDepths(mc.self, depth)
}

// ChildByURI finds a child by instance name, without case below
// version 7.
func (mc *MovieClip) ChildByURI(uri vm.ObjectURI) Character {
	v := mc.VM()
	return mc.displayList.ChildByName(v.Strings(), uri, v.Version() < 7)
}

// ChildByName is ChildByURI for a plain name.
func (mc *MovieClip) ChildByName(name string) Character {
	return mc.ChildByURI(mc.VM().URI(name))
}

// LoadedMovie puts m in this clip's place, as loadMovie does. The new
// movie inherits the name, clip events, clip depth and transform; a
// level root is replaced in the level table instead.
func (mc *MovieClip) LoadedMovie(m *Movie) {
	p := mc.parent
	if p == nil {
		mc.stage.SetLevel(DepthLevel(mc.depth), m)
		return
	}
	m.parent = p
	for id, bufs := range mc.handlers {
		for _, b := range bufs {
			m.AddEventHandler(id, b)
		}
	}
	if mc.name != "" {
		m.name = mc.name
	}
	m.clipDepth = mc.clipDepth
	p.displayList.Replace(m, mc.depth, true, true)
	m.Construct(nil)
}

// CleanupDisplayList drops unloaded descendants.
func (mc *MovieClip) CleanupDisplayList() {
	mc.displayList.RemoveUnloaded()
}

// ---------------------------------------------------------------------------
// Geometry, rendering and hit testing
// ---------------------------------------------------------------------------

// Bounds covers the clip's own graphics and every child.
func (mc *MovieClip) Bounds() Rect {
	return mc.drawable.Union(mc.displayList.Bounds())
}

func (mc *MovieClip) Display(r Renderer, base Transform) {
	xf := base.Concat(mc.Transform())
	if !mc.drawable.IsNull() {
		r.DrawCharacter(mc.self, xf)
	}
	mc.displayList.Display(r, xf)
	mc.ClearInvalidated()
}

func (mc *MovieClip) AddInvalidatedBounds(ranges *InvalidatedRanges, force bool) {
	if !mc.visible || mc.cxform.IsInvisible() {
		ranges.AddRanges(&mc.oldRanges)
		return
	}
	if !mc.invalidated && !mc.childInvalidated && !force {
		return
	}
	if mc.invalidated || force {
		ranges.AddRanges(&mc.oldRanges)
	}
	mc.displayList.AddInvalidatedBounds(ranges, force || mc.invalidated)
	ranges.Add(mc.WorldMatrix().TransformRect(mc.drawable))
}

// PointInShape tests a world point against the clip's mask, children
// and own graphics.
func (mc *MovieClip) PointInShape(x, y float64) bool {
	if m := mc.mask; m != nil && m.Base().visible && !m.PointInShape(x, y) {
		return false
	}
	chars := mc.displayList.chars
	for i := len(chars) - 1; i >= 0; i-- {
		b := chars[i].Base()
		if IsRemovedDepth(b.depth) || b.IsMaskLayer() || b.IsDynamicMask() {
			continue
		}
		if chars[i].PointInShape(x, y) {
			return true
		}
	}
	lx, ly := mc.WorldMatrix().Invert().Transform(x, y)
	return mc.drawable.Contains(lx, ly)
}

func (mc *MovieClip) TopmostMouseEntity(x, y float64) Character {
	if !mc.visible {
		return nil
	}
	wx, wy := x, y
	if mc.parent != nil {
		wx, wy = mc.parent.WorldMatrix().Transform(x, y)
	}
	if mc.self.MouseEnabled() {
		if mc.PointInVisibleShape(wx, wy) {
			return mc.self
		}
		return nil
	}
	lx, ly := mc.matrix.Invert().Transform(x, y)
	return mc.displayList.TopmostMouseEntity(lx, ly, wx, wy)
}

// MouseEnabled reports whether the clip takes button events: it must be
// enabled and handle at least one of them.
func (mc *MovieClip) MouseEnabled() bool {
	if !mc.isEnabled() {
		return false
	}
	for _, kind := range buttonEvents {
		if mc.HasEventHandler(Event(kind)) {
			return true
		}
	}
	return false
}

// HandleFocus reports whether the clip can take keyboard focus.
func (mc *MovieClip) HandleFocus() bool {
	if mc.object != nil && mc.version() > 5 {
		if fe, ok := mc.object.GetMember(mc.VM().URI("focusEnabled")); ok && fe.ToBool(mc.version()) {
			return true
		}
	}
	return mc.self.MouseEnabled()
}

// ---------------------------------------------------------------------------
// Events and lifecycle
// ---------------------------------------------------------------------------

// NotifyEvent delivers id: clip handlers first, then the script method.
// Disabled clips ignore button events, unloaded ones ENTER_FRAME, and
// timeline clips without clip events never see a script onLoad.
func (mc *MovieClip) NotifyEvent(id EventID) {
	if id.Kind == EventEnterFrame && mc.unloaded {
		return
	}
	if id.IsButtonEvent() && !mc.isEnabled() {
		return
	}
	if code := mc.EventHandler(id); code != nil {
		code.Execute()
	}
	if id.Kind == EventInitialize {
		return
	}
	if id.Kind == EventLoad && mc.skipsScriptOnLoad() {
		return
	}
	if !id.IsKeyEvent() {
		mc.callUserHandler(id)
	}
}

func (mc *MovieClip) skipsScriptOnLoad() bool {
	if mc.parent == nil || mc.HasClipHandlers() || mc.dynamic || mc.registeredClass != nil {
		return false
	}
	_, isMovie := mc.self.(*Movie)
	return !isMovie
}

// Unload unloads the children before the clip itself. A clip without an
// unload handler also loses any construction still waiting in the queue.
func (mc *MovieClip) Unload() bool {
	mc.drawable = NullRect()
	childHandler := mc.displayList.Unload()
	if !mc.HasEventHandler(Event(EventUnload)) {
		mc.stage.RemoveQueuedConstructor(mc.self)
	}
	return mc.unloadSelf(childHandler)
}

func (mc *MovieClip) Destroy() {
	mc.displayList.Destroy()
	mc.DisplayObject.Destroy()
}

// PathElement adds children and object-valued members to the base
// path elements.
func (mc *MovieClip) PathElement(name string) *vm.Object {
	if obj := mc.DisplayObject.PathElement(name); obj != nil {
		return obj
	}
	if mc.object == nil {
		return nil
	}
	uri := mc.VM().URI(name)
	if ch := mc.ChildByURI(uri); ch != nil && ch.Base().object != nil {
		return ch.Base().object
	}
	val, ok := mc.object.GetMember(uri)
	if !ok {
		return nil
	}
	return val.Object()
}

// VisitNonProperties reports the names of the children.
func (mc *MovieClip) VisitNonProperties(fn func(uri vm.ObjectURI)) {
	v := mc.VM()
	mc.displayList.VisitNames(func(name string) {
		fn(v.URI(name))
	})
}

func (mc *MovieClip) MarkReachableResources(c *vm.Collector) {
	mc.DisplayObject.MarkReachableResources(c)
	mc.displayList.markReachable(c)
	c.Mark(mc.registeredClass)
}

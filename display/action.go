package display

import (
	"github.com/chazu/kestrel/vm"
)

// ActionLevel is an action queue priority. Lower levels always drain
// before higher ones.
type ActionLevel int

const (
	PriorityInit ActionLevel = iota
	PriorityConstruct
	PriorityEnterFrame
	PriorityDoAction
	NumActionLevels
)

func (l ActionLevel) String() string {
	switch l {
	case PriorityInit:
		return "init"
	case PriorityConstruct:
		return "construct"
	case PriorityEnterFrame:
		return "enter-frame"
	case PriorityDoAction:
		return "do-action"
	}
	return "invalid"
}

// ExecutableCode is a unit of deferred work on the action queue.
type ExecutableCode interface {
	Execute()
	MarkReachableResources(c *vm.Collector)
	// Target is the display object the code runs against, if any.
	Target() Character
}

// ActionBuffer is a block of compiled action code. Decoding and
// interpreting it belongs to the embedding player; the core only decides
// when it runs and against which target.
type ActionBuffer interface {
	Execute(target Character)
}

// ActionFunc adapts a Go function to ActionBuffer.
type ActionFunc func(target Character)

func (f ActionFunc) Execute(target Character) { f(target) }

// Stage is the part of the scheduler display objects call back into.
type Stage interface {
	VM() *vm.VM
	PushAction(code ExecutableCode, lvl ActionLevel)
	RemoveQueuedConstructor(ch Character)
	AddLiveChar(ch Character)
	RootMovie() *Movie
	Level(n int) *Movie
	SetLevel(n int, m *Movie)
	DropLevel(depth int)
	SwapLevels(m *Movie, depth int)
	MousePosition() (x, y float64)
	ClipPrototype() *vm.Object
}

func markTarget(c *vm.Collector, ch Character) {
	if ch != nil {
		c.MarkResource(ch)
	}
}

// GlobalCode runs a frame's action buffer unless the target was unloaded
// in the meantime.
type GlobalCode struct {
	Buffer ActionBuffer
	Owner  Character
}

func (g *GlobalCode) Execute() {
	if g.Owner.Base().Unloaded() {
		return
	}
	g.Buffer.Execute(g.Owner)
}

func (g *GlobalCode) MarkReachableResources(c *vm.Collector) { markTarget(c, g.Owner) }
func (g *GlobalCode) Target() Character                      { return g.Owner }

// EventCode runs the clip event buffers registered for one event. It
// stops as soon as the target is destroyed.
type EventCode struct {
	Buffers []ActionBuffer
	Owner   Character
}

func (e *EventCode) Execute() {
	for _, b := range e.Buffers {
		if e.Owner.Base().Destroyed() {
			return
		}
		b.Execute(e.Owner)
	}
}

func (e *EventCode) MarkReachableResources(c *vm.Collector) { markTarget(c, e.Owner) }
func (e *EventCode) Target() Character                      { return e.Owner }

// QueuedEvent delivers an event notification later.
type QueuedEvent struct {
	Owner Character
	Event EventID
}

func (q *QueuedEvent) Execute() {
	if q.Owner.Base().Destroyed() {
		return
	}
	q.Owner.NotifyEvent(q.Event)
}

func (q *QueuedEvent) MarkReachableResources(c *vm.Collector) { markTarget(c, q.Owner) }
func (q *QueuedEvent) Target() Character                      { return q.Owner }

// DelayedFunctionCall calls a named method of a script object.
type DelayedFunctionCall struct {
	This  *vm.Object
	Name  string
	Args  []vm.Value
	Owner Character
}

func (d *DelayedFunctionCall) Execute() {
	if d.This == nil {
		return
	}
	d.This.CallMethod(d.Name, d.Args...)
}

func (d *DelayedFunctionCall) MarkReachableResources(c *vm.Collector) {
	c.Mark(d.This)
	for _, a := range d.Args {
		c.MarkValue(a)
	}
	markTarget(c, d.Owner)
}

func (d *DelayedFunctionCall) Target() Character { return d.Owner }

// FunctionCode runs a Go closure. Owner may be nil.
type FunctionCode struct {
	Fn    func()
	Owner Character
}

func (f *FunctionCode) Execute()                               { f.Fn() }
func (f *FunctionCode) MarkReachableResources(c *vm.Collector) { markTarget(c, f.Owner) }
func (f *FunctionCode) Target() Character                      { return f.Owner }

// ConstructEvent runs the script construction of a timeline-placed clip.
type ConstructEvent struct {
	Clip *MovieClip
}

func (e *ConstructEvent) Execute() {
	e.Clip.constructAsScriptObject()
}

func (e *ConstructEvent) MarkReachableResources(c *vm.Collector) { c.MarkResource(e.Clip.self) }
func (e *ConstructEvent) Target() Character                      { return e.Clip.self }

// IsConstructEvent reports whether code is a pending construction.
func IsConstructEvent(code ExecutableCode) bool {
	_, ok := code.(*ConstructEvent)
	return ok
}

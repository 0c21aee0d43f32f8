package stage

import (
	"sort"

	"github.com/chazu/kestrel/vm"
)

// Timer is an interval or timeout registered by setInterval or
// setTimeout. It calls either a function or a named method of an object,
// the method being looked up each time the timer fires.
type Timer struct {
	id       int
	fn       *vm.Object
	object   *vm.Object
	method   string
	args     []vm.Value
	interval uint64
	start    uint64
	runOnce  bool
	cleared  bool
}

// NewFunctionTimer creates a timer calling fn every interval ms.
func NewFunctionTimer(fn *vm.Object, interval uint64, args []vm.Value, runOnce bool) *Timer {
	return &Timer{fn: fn, interval: interval, args: args, runOnce: runOnce}
}

// NewMethodTimer creates a timer calling obj[method] every interval ms.
func NewMethodTimer(obj *vm.Object, method string, interval uint64, args []vm.Value, runOnce bool) *Timer {
	return &Timer{object: obj, method: method, interval: interval, args: args, runOnce: runOnce}
}

func (t *Timer) ID() int          { return t.id }
func (t *Timer) Interval() uint64 { return t.interval }
func (t *Timer) Cleared() bool    { return t.cleared }

// expired reports how far past its deadline the timer is at now, and
// whether it is due at all.
func (t *Timer) expired(now uint64) (overdue int64, due bool) {
	if t.cleared {
		return 0, false
	}
	deadline := t.start + t.interval
	if now < deadline {
		return 0, false
	}
	return int64(now - deadline), true
}

// reschedule moves the deadline one interval on, or clears a timeout.
func (t *Timer) reschedule() {
	if t.runOnce {
		t.cleared = true
		return
	}
	t.start += t.interval
}

func (t *Timer) execute() {
	if t.fn != nil {
		t.fn.Call(nil, t.args...)
		return
	}
	if t.object == nil {
		return
	}
	if _, ok := t.object.CallMethod(t.method, t.args...); !ok {
		asCodingLog.Warningf("interval method %q not found", t.method)
	}
}

func (t *Timer) markReachableResources(c *vm.Collector) {
	c.Mark(t.fn)
	c.Mark(t.object)
	for _, a := range t.args {
		c.MarkValue(a)
	}
}

// AddIntervalTimer registers t, starting its interval now, and returns
// its id. Ids start at 1 and are never reused.
func (s *Stage) AddIntervalTimer(t *Timer) int {
	s.lastTimerID++
	t.id = s.lastTimerID
	t.start = s.vm.Time()
	if n := s.activeTimers(); n >= s.opts.MaxTimers {
		asCodingLog.Errorf("%d interval timers active, limit is %d", n, s.opts.MaxTimers)
	}
	s.timers[t.id] = t
	return t.id
}

// ClearIntervalTimer cancels the timer with id. The entry is dropped
// after the current timer pass.
func (s *Stage) ClearIntervalTimer(id int) bool {
	t, ok := s.timers[id]
	if !ok || t.cleared {
		return false
	}
	t.cleared = true
	return true
}

// ClearIntervalTimers cancels every timer.
func (s *Stage) ClearIntervalTimers() {
	s.timers = make(map[int]*Timer)
}

// Timer returns the registered timer with id.
func (s *Stage) Timer(id int) (*Timer, bool) {
	t, ok := s.timers[id]
	return t, ok
}

func (s *Stage) activeTimers() int {
	n := 0
	for _, t := range s.timers {
		if !t.cleared {
			n++
		}
	}
	return n
}

// executeTimers fires every due timer, most overdue first. Timers with
// equal lateness fire in registration order. A timer is rescheduled
// before it runs, so clearing itself from its own callback sticks.
func (s *Stage) executeTimers() {
	if s.scriptsDisabled || len(s.timers) == 0 {
		return
	}
	now := s.vm.Time()

	type dueTimer struct {
		t       *Timer
		overdue int64
	}
	ids := make([]int, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var due []dueTimer
	for _, id := range ids {
		t := s.timers[id]
		if overdue, ok := t.expired(now); ok {
			due = append(due, dueTimer{t, overdue})
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].overdue > due[j].overdue })

	for _, d := range due {
		if d.t.cleared {
			continue
		}
		d.t.reschedule()
		s.guard("interval timer", d.t.execute)
		if s.scriptsDisabled {
			break
		}
	}

	for id, t := range s.timers {
		if t.cleared {
			delete(s.timers, id)
		}
	}
	if len(due) > 0 {
		s.ProcessActionQueue()
	}
}

package stage

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/kestrel/vm"
)

func TestTimersFireMostOverdueFirst(t *testing.T) {
	s, clock := newTestStage(t, Options{})
	v := s.VM()
	clock.Set(1000)

	var fired []string
	ids := map[string]int{}
	for _, tt := range []struct {
		tag      string
		interval uint64
	}{{"a", 10}, {"b", 20}, {"c", 10}} {
		fn := recorder(v, &fired, tt.tag).Object()
		ids[tt.tag] = s.AddIntervalTimer(NewFunctionTimer(fn, tt.interval, nil, false))
	}

	clock.Advance(25)
	s.Advance()

	if diff := cmp.Diff([]string{"a", "c", "b"}, fired); diff != "" {
		t.Errorf("firing order mismatch (-want +got):\n%s", diff)
	}

	deadlines := map[string]uint64{}
	for tag, id := range ids {
		tm, ok := s.Timer(id)
		if !ok {
			t.Fatalf("timer %s disappeared", tag)
		}
		deadlines[tag] = tm.start + tm.interval
	}
	want := map[string]uint64{"a": 1020, "b": 1040, "c": 1020}
	if diff := cmp.Diff(want, deadlines); diff != "" {
		t.Errorf("next deadlines mismatch (-want +got):\n%s", diff)
	}
}

func TestTimerIDs(t *testing.T) {
	s, _ := newTestStage(t, Options{})
	noop := s.VM().NewFunction(func(*vm.FnCall) vm.Value { return vm.Undefined })

	first := s.AddIntervalTimer(NewFunctionTimer(noop, 10, nil, false))
	second := s.AddIntervalTimer(NewFunctionTimer(noop, 10, nil, false))
	if first != 1 || second != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", first, second)
	}
	if !s.ClearIntervalTimer(first) {
		t.Errorf("ClearIntervalTimer(%d) = false", first)
	}
	if s.ClearIntervalTimer(first) {
		t.Errorf("clearing twice succeeded")
	}
	if s.ClearIntervalTimer(99) {
		t.Errorf("clearing an unknown id succeeded")
	}
	if third := s.AddIntervalTimer(NewFunctionTimer(noop, 10, nil, false)); third != 3 {
		t.Errorf("id after clear = %d, want 3", third)
	}
}

func TestTimeoutRunsOnce(t *testing.T) {
	s, clock := newTestStage(t, Options{})
	var fired []string
	id := s.AddIntervalTimer(NewFunctionTimer(recorder(s.VM(), &fired, "once").Object(), 10, nil, true))

	for i := 0; i < 3; i++ {
		clock.Advance(10)
		s.Advance()
	}
	if len(fired) != 1 {
		t.Errorf("timeout fired %d times, want 1", len(fired))
	}
	if _, ok := s.Timer(id); ok {
		t.Errorf("timeout still registered after firing")
	}
}

func TestTimerClearingItself(t *testing.T) {
	s, clock := newTestStage(t, Options{})
	v := s.VM()
	var id, calls int
	fn := v.NewFunction(func(*vm.FnCall) vm.Value {
		calls++
		s.ClearIntervalTimer(id)
		return vm.Undefined
	})
	id = s.AddIntervalTimer(NewFunctionTimer(fn, 10, nil, false))

	clock.Advance(30)
	s.Advance()
	clock.Advance(30)
	s.Advance()
	if calls != 1 {
		t.Errorf("self-clearing interval ran %d times, want 1", calls)
	}
}

func TestMethodTimerLooksUpMethodEachTime(t *testing.T) {
	s, clock := newTestStage(t, Options{})
	v := s.VM()
	obj := v.NewObject()
	var fired []string
	obj.Set("tick", recorder(v, &fired, "first"))
	s.AddIntervalTimer(NewMethodTimer(obj, "tick", 10, []vm.Value{vm.Int(1)}, false))

	clock.Advance(10)
	s.Advance()
	obj.Set("tick", recorder(v, &fired, "second"))
	clock.Advance(10)
	s.Advance()
	obj.Delete(v.URI("tick"))
	clock.Advance(10)
	s.Advance()

	if diff := cmp.Diff([]string{"first", "second"}, fired); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestTimersSkippedWhileScriptsDisabled(t *testing.T) {
	s, clock := newTestStage(t, Options{})
	var fired []string
	s.AddIntervalTimer(NewFunctionTimer(recorder(s.VM(), &fired, "t").Object(), 10, nil, false))
	s.DisableScripts()

	clock.Advance(50)
	s.Advance()
	if len(fired) != 0 {
		t.Errorf("timer fired with scripts disabled")
	}
}

func TestMaxTimersStillAdds(t *testing.T) {
	s, _ := newTestStage(t, Options{MaxTimers: 2})
	noop := s.VM().NewFunction(func(*vm.FnCall) vm.Value { return vm.Undefined })
	for i := 0; i < 3; i++ {
		s.AddIntervalTimer(NewFunctionTimer(noop, 10, nil, false))
	}
	if n := s.activeTimers(); n != 3 {
		t.Errorf("%d timers active, want 3", n)
	}
}

func TestSetIntervalNatives(t *testing.T) {
	s, clock := newTestStage(t, Options{})
	v := s.VM()
	g := v.Global()

	var got []string
	cb := v.NewFunction(func(fn *vm.FnCall) vm.Value {
		got = append(got, fn.Arg(0).ToString()+fn.Arg(1).ToString())
		return vm.Undefined
	})
	idVal, _ := g.CallMethod("setInterval", vm.ObjectValue(cb), vm.Int(10), vm.String("x"), vm.String("y"))
	if idVal.ToInt() != 1 {
		t.Fatalf("setInterval returned %s, want 1", idVal)
	}

	obj := v.NewObject()
	obj.Set("poke", recorder(v, &got, "poked"))
	g.CallMethod("setTimeout", vm.ObjectValue(obj), vm.String("poke"), vm.Int(15))

	clock.Advance(20)
	s.Advance()
	if cleared, _ := g.CallMethod("clearInterval", idVal); !cleared.ToBool(8) {
		t.Errorf("clearInterval returned false")
	}
	clock.Advance(20)
	s.Advance()

	if diff := cmp.Diff([]string{"xy", "poked"}, got); diff != "" {
		t.Errorf("callbacks mismatch (-want +got):\n%s", diff)
	}

	if bad, _ := g.CallMethod("setInterval", vm.Int(3)); !bad.IsUndefined() {
		t.Errorf("setInterval with no function returned %s", bad)
	}
}

package vm

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tliron/commonlog"
)

// warningRecorder keeps the warnings logged through it.
type warningRecorder struct {
	commonlog.MockLogger
	warnings []string
}

func (r *warningRecorder) Warningf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// recordCodingErrors routes coding errors to a recorder for the rest of
// the test.
func recordCodingErrors(t *testing.T) *warningRecorder {
	r := &warningRecorder{}
	saved := asCodingLog
	asCodingLog = r
	t.Cleanup(func() { asCodingLog = saved })
	return r
}

func TestWatchTransformsAssignedValue(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	obj.Set("n", Int(1))

	var seen [][]string
	watcher := v.NewFunction(func(fn *FnCall) Value {
		seen = append(seen, []string{fn.Arg(0).ToString(), fn.Arg(1).ToString(), fn.Arg(2).ToString(), fn.Arg(3).ToString()})
		return Number(fn.Arg(2).ToNumber() * 10)
	})
	if !obj.Watch(v.URI("n"), watcher, String("tag")) {
		t.Fatalf("Watch returned false")
	}

	obj.Set("n", Int(2))
	if got := obj.Get("n").ToNumber(); got != 20 {
		t.Errorf("n = %v, want 20", got)
	}
	want := [][]string{{"n", "1", "2", "tag"}}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("watch arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchReentrantAssignment(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	obj.Set("n", Int(0))

	calls := 0
	watcher := v.NewFunction(func(fn *FnCall) Value {
		calls++
		// runs without re-triggering; the outer return value wins
		fn.This.Set("n", Int(99))
		return Int(5)
	})
	obj.Watch(v.URI("n"), watcher, Undefined)

	obj.Set("n", Int(1))
	if calls != 1 {
		t.Errorf("watch ran %d times, want 1", calls)
	}
	if got := obj.Get("n").ToNumber(); got != 5 {
		t.Errorf("n = %v, want the watch's return value 5", got)
	}
}

func TestUnwatchIsLazy(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	obj.Set("n", Int(0))
	calls := 0
	obj.Watch(v.URI("n"), v.NewFunction(func(fn *FnCall) Value {
		calls++
		return fn.Arg(2)
	}), Undefined)

	if !obj.Unwatch(v.URI("n")) {
		t.Fatalf("Unwatch returned false")
	}
	if obj.findTrigger(v.URI("n")) == nil {
		t.Errorf("trigger removed eagerly, want it kept until the next assignment")
	}
	obj.Set("n", Int(3))
	if calls != 0 {
		t.Errorf("dead watch ran %d times", calls)
	}
	if obj.findTrigger(v.URI("n")) != nil {
		t.Errorf("dead trigger still installed after assignment")
	}
	if got := obj.Get("n").ToNumber(); got != 3 {
		t.Errorf("n = %v, want 3", got)
	}
	if obj.Unwatch(v.URI("n")) {
		t.Errorf("second Unwatch returned true")
	}
}

func TestUnwatchRefusesGetterSetter(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	uri := v.URI("acc")
	getter := v.NewFunction(func(*FnCall) Value { return Int(1) })
	obj.AddProperty(uri, getter, nil)
	obj.Watch(uri, v.NewFunction(func(fn *FnCall) Value { return fn.Arg(2) }), Undefined)

	coding := recordCodingErrors(t)
	if obj.Unwatch(uri) {
		t.Errorf("Unwatch on a getter/setter returned true")
	}
	if obj.Unwatch(v.URI("never")) {
		t.Errorf("Unwatch without a watch returned true")
	}
	want := []string{
		`unwatch("acc"): property is a getter/setter`,
		`unwatch("never"): no watch installed`,
	}
	if diff := cmp.Diff(want, coding.warnings); diff != "" {
		t.Errorf("coding errors mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchDeletingPropertyDropsAssignment(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	obj.Set("gone", Int(1))
	obj.Watch(v.URI("gone"), v.NewFunction(func(fn *FnCall) Value {
		fn.This.Delete(v.URI("gone"))
		return fn.Arg(2)
	}), Undefined)

	obj.Set("gone", Int(2))
	if obj.HasOwnProperty(v.URI("gone")) {
		t.Errorf("property deleted by its watch was re-created")
	}
}

func TestWatchFiresOnCreation(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	var old Value = Null
	obj.Watch(v.URI("fresh"), v.NewFunction(func(fn *FnCall) Value {
		old = fn.Arg(1)
		return String("watched")
	}), Undefined)

	obj.Set("fresh", Int(1))
	if !old.IsUndefined() {
		t.Errorf("old value on creation = %v, want undefined", old)
	}
	if got := obj.Get("fresh").ToString(); got != "watched" {
		t.Errorf("fresh = %q, want \"watched\"", got)
	}
}

package vm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ownNames(o *Object) []string {
	var names []string
	for _, p := range o.members.props {
		names = append(names, o.vm.Name(p.uri))
	}
	return names
}

func TestReserveSlot(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObjectWithProto(nil)
	l := obj.Members()

	if !l.ReserveSlot(v.URI("a"), 0) {
		t.Fatalf("ReserveSlot(a, 0) = false")
	}
	if p := l.BySlot(0); p == nil || !p.Cache().IsUndefined() {
		t.Errorf("slot 0 = %v, want undefined placeholder", p)
	}
	if l.ReserveSlot(v.URI("b"), 0) {
		t.Errorf("ReserveSlot on a taken slot succeeded")
	}
	if l.ReserveSlot(v.URI("a"), 1) {
		t.Errorf("ReserveSlot on an already bound property succeeded")
	}

	obj.Set("a", Int(3))
	if got := l.BySlot(0).Cache().ToNumber(); got != 3 {
		t.Errorf("slot 0 = %v after assignment, want 3", got)
	}
	l.Delete(v.URI("a"))
	if l.BySlot(0) != nil {
		t.Errorf("slot 0 still bound after delete")
	}
}

func TestAddGetterSetterKeepsPosition(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObjectWithProto(nil)
	obj.Set("a", Int(1))
	obj.InitMember(v.URI("b"), Int(2), Flags(DontEnum))
	obj.Set("c", Int(3))

	getter := v.NewFunction(func(*FnCall) Value { return Int(42) })
	obj.Members().AddGetterSetter(v.URI("b"), getter, nil, Undefined, PropFlags{})

	if diff := cmp.Diff([]string{"a", "b", "c"}, ownNames(obj)); diff != "" {
		t.Errorf("order after replacing b mismatch (-want +got):\n%s", diff)
	}
	p := obj.Members().Get(v.URI("b"))
	if !p.Flags().DontEnum() {
		t.Errorf("replacement lost the existing flags")
	}
	if got := p.Cache().ToNumber(); got != 2 {
		t.Errorf("replacement cache = %v, want the old value 2", got)
	}
	if got := obj.Get("b").ToNumber(); got != 42 {
		t.Errorf("b = %v, want 42", got)
	}
}

func TestDestructiveGetter(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	calls := 0
	obj.InitDestructiveProperty(v.URI("lazy"), v.NewFunction(func(*FnCall) Value {
		calls++
		return String("computed")
	}), PropFlags{})

	for i := 0; i < 3; i++ {
		if got := obj.Get("lazy").ToString(); got != "computed" {
			t.Errorf("lazy = %q, want \"computed\"", got)
		}
	}
	if calls != 1 {
		t.Errorf("destructive getter ran %d times, want 1", calls)
	}
	if obj.Members().Get(v.URI("lazy")).IsGetterSetter() {
		t.Errorf("destructive getter still installed after first read")
	}
}

func TestGetterReentrancyUsesCache(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	uri := v.URI("self")
	getter := v.NewFunction(func(fn *FnCall) Value {
		inner := fn.This.Get("self")
		return Number(inner.ToNumber() + 1)
	})
	obj.Members().AddGetterSetter(uri, getter, nil, Int(10), PropFlags{})

	if got := obj.Get("self").ToNumber(); got != 11 {
		t.Errorf("self = %v, want 11", got)
	}

	// without a setter assignments land in the cache
	obj.Set("self", Int(20))
	if got := obj.Get("self").ToNumber(); got != 21 {
		t.Errorf("self = %v after assignment, want 21", got)
	}
}

func TestSetValueReadOnly(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	uri := v.URI("ro")
	obj.InitMember(uri, Int(1), Flags(ReadOnly))
	if err := obj.Members().SetValue(uri, Int(2), PropFlags{}); err != ErrReadOnly {
		t.Errorf("SetValue on read-only = %v, want ErrReadOnly", err)
	}
}

func TestVisitKeysSkipsInvisible(t *testing.T) {
	v := newTestVM(5)
	obj := v.NewObjectWithProto(nil)
	obj.Set("old", Int(1))
	obj.InitMember(v.URI("new"), Int(2), Flags(OnlySWF6Up))

	var got []string
	obj.Members().VisitKeys(map[ObjectURI]struct{}{}, func(uri ObjectURI) {
		got = append(got, v.Name(uri))
	})
	if diff := cmp.Diff([]string{"old"}, got); diff != "" {
		t.Errorf("VisitKeys mismatch (-want +got):\n%s", diff)
	}
}

package vm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestVM(version int) *VM {
	return NewVM(version, &ManualClock{})
}

// chainOf builds n objects, each inheriting from the previous one, and
// returns the last.
func chainOf(v *VM, n int) *Object {
	var proto *Object
	for i := 0; i < n; i++ {
		proto = v.NewObjectWithProto(proto)
	}
	return proto
}

func lookupHitsLimit(o *Object, uri ObjectURI) (limited bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*ActionLimitError); ok {
				limited = true
				return
			}
			panic(r)
		}
	}()
	o.FindProperty(uri)
	return false
}

func TestGetMemberOwnAndInherited(t *testing.T) {
	v := newTestVM(7)
	proto := v.NewObject()
	proto.Set("a", Int(1))
	obj := v.NewObjectWithProto(proto)
	obj.Set("b", Int(2))

	if got := obj.Get("a").ToNumber(); got != 1 {
		t.Errorf("obj.a = %v, want 1", got)
	}
	if got := obj.Get("b").ToNumber(); got != 2 {
		t.Errorf("obj.b = %v, want 2", got)
	}
	if _, ok := obj.GetMember(v.URI("missing")); ok {
		t.Errorf("obj.missing found, want not found")
	}
	if _, owner := obj.FindProperty(v.URI("a")); owner != proto {
		t.Errorf("owner of a = %p, want prototype %p", owner, proto)
	}
}

func TestPrototypeCycleTerminates(t *testing.T) {
	v := newTestVM(7)
	a := v.NewObject()
	b := v.NewObjectWithProto(a)
	a.SetPrototype(b)

	if p, _ := a.FindProperty(v.URI("nothing")); p != nil {
		t.Errorf("lookup in cyclic chain found %v, want nil", p)
	}
	if a.InstanceOf(v.NewFunction(func(*FnCall) Value { return Undefined })) {
		t.Errorf("instanceof on cyclic chain = true, want false")
	}
}

func TestLookupDepthLimit(t *testing.T) {
	tests := []struct {
		version int
		length  int
		limited bool
	}{
		{7, 257, false},
		{7, 258, true},
		{8, 258, true},
		{6, 255, false},
		{6, 256, true},
		{5, 256, true},
	}
	for _, tt := range tests {
		v := newTestVM(tt.version)
		head := chainOf(v, tt.length)
		if got := lookupHitsLimit(head, v.URI("absent")); got != tt.limited {
			t.Errorf("version %d, chain of %d: limited = %v, want %v", tt.version, tt.length, got, tt.limited)
		}
	}
}

func TestLookupDepthLimitNotHitWhenFoundEarly(t *testing.T) {
	v := newTestVM(7)
	head := chainOf(v, 400)
	head.Set("near", Int(1))
	if lookupHitsLimit(head, v.URI("near")) {
		t.Errorf("lookup of own property hit the depth limit")
	}
}

func TestInvisiblePropertiesCountTowardDepth(t *testing.T) {
	v := newTestVM(6)
	head := chainOf(v, 256)
	// hidden at version 6; the walk must continue past it
	head.InitMember(v.URI("gated"), Int(1), Flags(OnlySWF7Up))
	if !lookupHitsLimit(head, v.URI("gated")) {
		t.Errorf("invisible property stopped the walk before the depth limit")
	}
}

func TestReadOnlyAssignment(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	uri := v.URI("k")
	obj.InitMember(uri, Int(1), Flags(ReadOnly))

	if obj.SetMember(uri, Int(2), true) {
		t.Errorf("SetMember on read-only property returned true")
	}
	if got := obj.Get("k").ToNumber(); got != 1 {
		t.Errorf("k = %v after write, want 1", got)
	}
}

func TestInheritedGetterSetterIsShadowed(t *testing.T) {
	v := newTestVM(7)
	proto := v.NewObject()
	obj := v.NewObjectWithProto(proto)
	uri := v.URI("x")

	getter := v.NewFunction(func(fn *FnCall) Value {
		return Number(proto.Members().Get(uri).Cache().ToNumber() * 2)
	})
	setter := v.NewFunction(func(fn *FnCall) Value {
		proto.Members().Get(uri).SetCache(fn.Arg(0))
		return Undefined
	})
	proto.Members().AddGetterSetter(uri, getter, setter, Int(5), PropFlags{})

	if got := obj.Get("x").ToNumber(); got != 10 {
		t.Fatalf("obj.x = %v, want 10", got)
	}
	if got := proto.Members().Get(uri).Cache().ToNumber(); got != 5 {
		t.Errorf("cache after read = %v, want 5", got)
	}

	obj.Set("x", Int(7))
	if !obj.HasOwnProperty(uri) {
		t.Fatalf("assignment did not create an own property")
	}
	if got := obj.Get("x").ToNumber(); got != 7 {
		t.Errorf("obj.x = %v, want 7", got)
	}
	if got := proto.Get("x").ToNumber(); got != 10 {
		t.Errorf("proto.x = %v, want 10", got)
	}
}

func TestInheritedStaticPropertyIntercepts(t *testing.T) {
	v := newTestVM(7)
	proto := v.NewObject()
	uri := v.URI("shared")
	proto.InitMember(uri, Int(1), Flags(IsStatic))
	obj := v.NewObjectWithProto(proto)

	obj.Set("shared", Int(9))
	if obj.HasOwnProperty(uri) {
		t.Errorf("static inherited property was shadowed")
	}
	if got := proto.Get("shared").ToNumber(); got != 9 {
		t.Errorf("proto.shared = %v, want 9", got)
	}
}

func TestResolveHandler(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	var asked []string
	obj.Set("__resolve", ObjectValue(v.NewFunction(func(fn *FnCall) Value {
		asked = append(asked, fn.Arg(0).ToString())
		return String("resolved")
	})))

	val, ok := obj.GetMember(v.URI("ghost"))
	if !ok || val.ToString() != "resolved" {
		t.Errorf("obj.ghost = %v, %v; want \"resolved\", true", val, ok)
	}
	if diff := cmp.Diff([]string{"ghost"}, asked); diff != "" {
		t.Errorf("__resolve arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestInitMemberTwicePanics(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	obj.InitMember(v.URI("once"), Int(1), PropFlags{})

	defer func() {
		if recover() == nil {
			t.Errorf("second InitMember did not panic")
		}
	}()
	obj.InitMember(v.URI("once"), Int(2), PropFlags{})
}

func TestVersionGatedVisibility(t *testing.T) {
	v := newTestVM(5)
	obj := v.NewObject()
	uri := v.URI("modern")
	obj.InitMember(uri, Int(1), Flags(OnlySWF6Up))

	if _, ok := obj.GetMember(uri); ok {
		t.Errorf("OnlySWF6Up property visible at version 5")
	}
	v.SetVersion(6)
	if _, ok := obj.GetMember(uri); !ok {
		t.Errorf("OnlySWF6Up property hidden at version 6")
	}
}

func TestAssignmentClearsVersionGate(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	uri := v.URI("later")
	obj.InitMember(uri, Int(1), Flags(OnlySWF6Up))

	obj.Set("later", Int(2))
	v.SetVersion(5)
	if got := obj.Get("later").ToNumber(); got != 2 {
		t.Errorf("later = %v at version 5 after a version 7 assignment, want 2", got)
	}
}

func TestAssignmentRevealsHiddenProperty(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	uri := v.URI("later")
	obj.InitMember(uri, Int(1), Flags(OnlySWF8Up))
	if _, ok := obj.GetMember(uri); ok {
		t.Fatalf("later visible at version 7 before assignment")
	}

	var olds []string
	obj.Watch(uri, v.NewFunction(func(fn *FnCall) Value {
		olds = append(olds, fn.Arg(1).ToString())
		return fn.Arg(2)
	}), Undefined)

	if !obj.Set("later", Int(2)) {
		t.Fatalf("Set returned false")
	}
	got, ok := obj.GetMember(uri)
	if !ok || got.ToNumber() != 2 {
		t.Errorf("later = %v (found %v), want 2", got, ok)
	}
	if diff := cmp.Diff([]string{"1"}, olds); diff != "" {
		t.Errorf("watch old values mismatch (-want +got):\n%s", diff)
	}
	if n := obj.members.Len(); n != 1 {
		t.Errorf("%d properties after assignment, want 1", n)
	}
}

func TestCaseInsensitiveBelowVersion7(t *testing.T) {
	v := newTestVM(6)
	obj := v.NewObject()
	obj.Set("Name", String("a"))
	if got := obj.Get("NAME").ToString(); got != "a" {
		t.Errorf("NAME = %q at version 6, want \"a\"", got)
	}

	v7 := newTestVM(7)
	obj7 := v7.NewObject()
	obj7.Set("Name", String("a"))
	if _, ok := obj7.GetMember(v7.URI("NAME")); ok {
		t.Errorf("NAME resolved at version 7, want case-sensitive miss")
	}
}

func TestCopyPropertiesSkipsProto(t *testing.T) {
	v := newTestVM(7)
	src := v.NewObjectWithProto(v.NewObject())
	src.Set("a", Int(1))
	src.Set("b", Int(2))
	dst := v.NewObject()
	dst.CopyProperties(src)

	if dst.Prototype() != v.ObjectPrototype() {
		t.Errorf("CopyProperties replaced __proto__")
	}
	if got := dst.Get("a").ToNumber() + dst.Get("b").ToNumber(); got != 3 {
		t.Errorf("a + b = %v, want 3", got)
	}
}

func TestEnumerateKeysOrder(t *testing.T) {
	v := newTestVM(7)
	proto := v.NewObject()
	proto.Set("inherited", Int(0))
	proto.Set("shadowed", Int(0))
	obj := v.NewObjectWithProto(proto)
	obj.Set("first", Int(1))
	obj.Set("second", Int(2))
	obj.Set("shadowed", Int(3))
	obj.InitMember(v.URI("hidden"), Int(4), Flags(DontEnum))

	want := []string{"first", "second", "shadowed", "inherited"}
	if diff := cmp.Diff(want, obj.EnumerateNames()); diff != "" {
		t.Errorf("enumeration mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteHonoursDontDelete(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	obj.Set("free", Int(1))
	obj.InitMember(v.URI("pinned"), Int(2), Flags(DontDelete))

	if !obj.Delete(v.URI("free")) {
		t.Errorf("delete free = false, want true")
	}
	if obj.Delete(v.URI("pinned")) {
		t.Errorf("delete pinned = true, want false")
	}
	if obj.Delete(v.URI("never")) {
		t.Errorf("delete of missing property = true, want false")
	}
}

func TestInstanceOfWithInterfaces(t *testing.T) {
	v := newTestVM(7)
	base := v.NewFunction(func(*FnCall) Value { return Undefined })
	iface := v.NewFunction(func(*FnCall) Value { return Undefined })
	other := v.NewFunction(func(*FnCall) Value { return Undefined })

	inst := v.Construct(base)
	if !inst.InstanceOf(base) {
		t.Errorf("instance not instanceof its constructor")
	}
	if inst.InstanceOf(iface) {
		t.Errorf("instanceof unrelated interface before AddInterface")
	}
	baseProto := base.Get("prototype").Object()
	baseProto.AddInterface(iface.Get("prototype").Object())
	if !inst.InstanceOf(iface) {
		t.Errorf("instanceof interface = false, want true")
	}
	if inst.InstanceOf(other) {
		t.Errorf("instanceof unrelated constructor = true")
	}
}

func TestASSetPropFlags(t *testing.T) {
	v := newTestVM(7)
	obj := v.NewObject()
	obj.Set("a", Int(1))
	obj.Set("b", Int(2))
	obj.Set("c", Int(3))

	v.Global().CallMethod("ASSetPropFlags", ObjectValue(obj), String("a,c"), Int(int(DontEnum)))
	if diff := cmp.Diff([]string{"b"}, obj.EnumerateNames()); diff != "" {
		t.Errorf("enumeration after ASSetPropFlags mismatch (-want +got):\n%s", diff)
	}

	v.Global().CallMethod("ASSetPropFlags", ObjectValue(obj), String("a"), Int(0), Int(int(DontEnum)))
	if diff := cmp.Diff([]string{"a", "b"}, obj.EnumerateNames()); diff != "" {
		t.Errorf("enumeration after clearing DontEnum mismatch (-want +got):\n%s", diff)
	}

	v.Global().CallMethod("ASSetPropFlags", ObjectValue(obj), Null, Int(int(ReadOnly)))
	obj.Set("b", Int(20))
	if got := obj.Get("b").ToNumber(); got != 2 {
		t.Errorf("b = %v after making every property read-only, want 2", got)
	}
}

func TestRecursionLimit(t *testing.T) {
	v := newTestVM(7)
	v.SetRecursionLimit(16)
	var recurse *Object
	recurse = v.NewFunction(func(fn *FnCall) Value {
		return recurse.Call(fn.This)
	})

	defer func() {
		r := recover()
		if _, ok := r.(*ActionLimitError); !ok {
			t.Fatalf("recover() = %v, want *ActionLimitError", r)
		}
		if v.CallDepth() != 0 {
			t.Errorf("call depth after unwinding = %d, want 0", v.CallDepth())
		}
	}()
	recurse.Call(nil)
}

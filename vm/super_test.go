package vm

import "testing"

// classChain builds grand <- parent <- child prototypes, each defining
// "who" to return its own name.
func classChain(v *VM) (grand, parent, child *Object) {
	grand = v.NewObject()
	parent = v.NewObjectWithProto(grand)
	child = v.NewObjectWithProto(parent)
	for name, o := range map[string]*Object{"grand": grand, "parent": parent, "child": child} {
		name := name
		o.Set("who", ObjectValue(v.NewFunction(func(*FnCall) Value { return String(name) })))
	}
	return
}

func TestSuperReadsPrototypesPrototype(t *testing.T) {
	v := newTestVM(6)
	_, _, child := classChain(v)
	inst := v.NewObjectWithProto(child)

	got, _ := inst.GetSuper("").CallMethod("who")
	if got.ToString() != "parent" {
		t.Errorf("super.who() = %v, want \"parent\"", got)
	}
}

func TestSuperAnchorsAtMethodOwner(t *testing.T) {
	v := newTestVM(7)
	_, _, child := classChain(v)
	child.Delete(v.URI("who"))
	inst := v.NewObjectWithProto(child)

	// "who" is first defined on parent, so super must skip to grand
	got, _ := inst.GetSuper("who").CallMethod("who")
	if got.ToString() != "grand" {
		t.Errorf("super.who() = %v, want \"grand\"", got)
	}

	// without the hint the proxy reads child.__proto__
	got, _ = inst.GetSuper("").CallMethod("who")
	if got.ToString() != "parent" {
		t.Errorf("unanchored super.who() = %v, want \"parent\"", got)
	}
}

func TestSuperOfSuperWalksFurther(t *testing.T) {
	v := newTestVM(6)
	_, _, child := classChain(v)
	inst := v.NewObjectWithProto(child)

	got, _ := inst.GetSuper("").GetSuper("").CallMethod("who")
	if got.ToString() != "grand" {
		t.Errorf("super.super.who() = %v, want \"grand\"", got)
	}
}

func TestSuperWriteIsIgnored(t *testing.T) {
	v := newTestVM(7)
	_, parent, child := classChain(v)
	inst := v.NewObjectWithProto(child)

	s := inst.GetSuper("")
	if s.Set("who", Int(1)) {
		t.Errorf("assignment through super returned true")
	}
	if !parent.Get("who").IsFunction() {
		t.Errorf("assignment through super modified the prototype")
	}
}

func TestSuperCallRunsConstructor(t *testing.T) {
	v := newTestVM(7)
	var gotThis *Object
	base := v.NewFunction(func(fn *FnCall) Value {
		gotThis = fn.This
		fn.This.Set("initialised", True)
		return Undefined
	})
	derivedProto := v.Construct(base)
	inst := v.NewObjectWithProto(derivedProto)

	inst.GetSuper("").Call(inst)
	if gotThis != inst {
		t.Errorf("super() ran with this = %p, want %p", gotThis, inst)
	}
	if !inst.Get("initialised").ToBool(7) {
		t.Errorf("super() did not initialise the instance")
	}

	orphan := v.NewObjectWithProto(nil)
	if got := orphan.GetSuper("").Call(orphan); !got.IsUndefined() {
		t.Errorf("super() without a constructor = %v, want undefined", got)
	}
}

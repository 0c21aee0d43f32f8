package vm

// NativeFunction implements a callable object in Go.
type NativeFunction func(fn *FnCall) Value

// FnCall carries the arguments of a single call.
type FnCall struct {
	VM              *VM
	This            *Object
	Callee          *Object
	Args            []Value
	IsInstantiation bool
}

// NArgs returns the number of arguments passed.
func (fn *FnCall) NArgs() int { return len(fn.Args) }

// Arg returns argument i, or undefined if it was not passed.
func (fn *FnCall) Arg(i int) Value {
	if i < 0 || i >= len(fn.Args) {
		return Undefined
	}
	return fn.Args[i]
}

// IsFunction returns true for callable objects: native functions and
// super proxies.
func (o *Object) IsFunction() bool {
	return o.fn != nil || o.super != nil
}

// Call invokes the object as a function with the given this. Calling a
// non-function is a coding error and returns undefined.
func (o *Object) Call(this *Object, args ...Value) Value {
	return o.invoke(&FnCall{VM: o.vm, This: this, Callee: o, Args: args})
}

func (o *Object) invoke(call *FnCall) Value {
	if o.super != nil {
		return o.superCall(call)
	}
	if o.fn == nil {
		asCodingLog.Warningf("attempt to call a non-function object")
		return Undefined
	}
	v := o.vm
	if v.callDepth >= v.recursionLimit {
		throwActionLimit("recursion depth", v.recursionLimit)
	}
	v.callDepth++
	defer func() { v.callDepth-- }()
	return o.fn(call)
}

// CallMethod looks up name on o and calls it with o as this. The second
// result is false if no function of that name exists.
func (o *Object) CallMethod(name string, args ...Value) (Value, bool) {
	m, ok := o.GetMember(o.vm.URI(name))
	if !ok || !m.IsFunction() {
		return Undefined, false
	}
	return m.Object().Call(o, args...), true
}

// NewFunction creates a native function object. Like script functions it
// gets a fresh prototype object whose constructor points back at it.
func (v *VM) NewFunction(fn NativeFunction) *Object {
	f := v.newObject(v.functionProto)
	f.fn = fn
	proto := v.newObject(v.objectProto)
	proto.InitMember(v.keys.Constructor, ObjectValue(f), Flags(DontEnum))
	f.InitMember(v.keys.Prototype, ObjectValue(proto), Flags(DontEnum|DontDelete))
	return f
}

// Construct runs ctor as a constructor: a new object inheriting from
// ctor.prototype is passed as this. An object returned by ctor replaces
// the new object.
func (v *VM) Construct(ctor *Object, args ...Value) *Object {
	protoVal, _ := ctor.GetMember(v.keys.Prototype)
	proto := protoVal.Object()
	if proto == nil {
		proto = v.objectProto
	}
	obj := v.newObject(proto)
	obj.InitMember(v.keys.Ctor, ObjectValue(ctor), Flags(DontEnum))
	if v.Version() < 7 {
		obj.InitMember(v.keys.Constructor, ObjectValue(ctor), Flags(DontEnum))
	}
	ret := ctor.invoke(&FnCall{VM: v, This: obj, Callee: ctor, Args: args, IsInstantiation: true})
	if r := ret.Object(); r != nil {
		return r
	}
	return obj
}

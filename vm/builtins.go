package vm

// ---------------------------------------------------------------------------
// Built-in objects
// ---------------------------------------------------------------------------

// swf6Method hides a method from SWF 5 content.
var swf6Method = PropFlags{Bits: DontEnum | DontDelete | OnlySWF6Up}

var defaultMethod = Flags(DontEnum | DontDelete)

func (v *VM) bootstrap() {
	v.objectProto = v.newObject(nil)
	v.functionProto = v.newObject(v.objectProto)
	v.global = v.newObject(v.objectProto)

	objectCtor := v.newObject(v.functionProto)
	objectCtor.fn = objectConstruct
	objectCtor.InitMember(v.keys.Prototype, ObjectValue(v.objectProto), Flags(DontEnum|DontDelete|ReadOnly))
	v.objectProto.InitMember(v.keys.Constructor, ObjectValue(objectCtor), Flags(DontEnum))

	functionCtor := v.newObject(v.functionProto)
	functionCtor.fn = func(fn *FnCall) Value { return Undefined }
	functionCtor.InitMember(v.keys.Prototype, ObjectValue(v.functionProto), Flags(DontEnum|DontDelete|ReadOnly))
	v.functionProto.InitMember(v.keys.Constructor, ObjectValue(functionCtor), Flags(DontEnum))

	proto := v.objectProto
	v.InitMethod(proto, "toString", objectToString, defaultMethod)
	v.InitMethod(proto, "valueOf", objectValueOf, defaultMethod)
	v.InitMethod(proto, "hasOwnProperty", objectHasOwnProperty, swf6Method)
	v.InitMethod(proto, "isPropertyEnumerable", objectIsPropertyEnumerable, swf6Method)
	v.InitMethod(proto, "isPrototypeOf", objectIsPrototypeOf, swf6Method)
	v.InitMethod(proto, "watch", objectWatch, swf6Method)
	v.InitMethod(proto, "unwatch", objectUnwatch, swf6Method)
	v.InitMethod(proto, "addProperty", objectAddProperty, swf6Method)

	g := v.global
	g.InitMember(v.URI("Object"), ObjectValue(objectCtor), defaultMethod)
	g.InitMember(v.URI("Function"), ObjectValue(functionCtor), defaultMethod)
	g.InitMember(v.URI("_global"), ObjectValue(g), Flags(DontEnum|DontDelete|OnlySWF6Up))
	v.InitMethod(g, "ASSetPropFlags", asSetPropFlags, defaultMethod)
}

// InitMethod installs a native method on o.
func (v *VM) InitMethod(o *Object, name string, fn NativeFunction, flags PropFlags) *Object {
	f := v.NewFunction(fn)
	o.InitMember(v.URI(name), ObjectValue(f), flags)
	return f
}

func objectConstruct(fn *FnCall) Value {
	if arg := fn.Arg(0).Object(); arg != nil {
		return ObjectValue(arg)
	}
	if fn.IsInstantiation {
		return Undefined
	}
	return ObjectValue(fn.VM.NewObject())
}

func objectToString(fn *FnCall) Value {
	return String(ObjectValue(fn.This).ToString())
}

func objectValueOf(fn *FnCall) Value {
	if fn.This == nil {
		return Undefined
	}
	if p, ok := fn.This.primitive(); ok {
		return p
	}
	return ObjectValue(fn.This)
}

func objectHasOwnProperty(fn *FnCall) Value {
	if fn.This == nil || fn.NArgs() < 1 {
		return False
	}
	return Bool(fn.This.HasOwnProperty(fn.VM.URI(fn.Arg(0).ToString())))
}

func objectIsPropertyEnumerable(fn *FnCall) Value {
	if fn.This == nil || fn.NArgs() < 1 {
		return False
	}
	p := fn.This.members.Get(fn.VM.URI(fn.Arg(0).ToString()))
	if p == nil || !p.flags.Visible(fn.VM.Version()) {
		return False
	}
	return Bool(!p.flags.DontEnum())
}

func objectIsPrototypeOf(fn *FnCall) Value {
	instance := fn.Arg(0).Object()
	if fn.This == nil || instance == nil {
		return False
	}
	return Bool(fn.This.IsPrototypeOf(instance))
}

func objectWatch(fn *FnCall) Value {
	if fn.This == nil || fn.NArgs() < 2 {
		asCodingLog.Warningf("Object.watch(%v): missing arguments", fn.Args)
		return False
	}
	uri := fn.VM.URI(fn.Arg(0).ToString())
	return Bool(fn.This.Watch(uri, fn.Arg(1).Object(), fn.Arg(2)))
}

func objectUnwatch(fn *FnCall) Value {
	if fn.This == nil || fn.NArgs() < 1 {
		asCodingLog.Warningf("Object.unwatch: missing property name")
		return False
	}
	return Bool(fn.This.Unwatch(fn.VM.URI(fn.Arg(0).ToString())))
}

func objectAddProperty(fn *FnCall) Value {
	if fn.This == nil || fn.NArgs() < 2 {
		asCodingLog.Warningf("Object.addProperty(%v): missing arguments", fn.Args)
		return False
	}
	name := fn.Arg(0).ToString()
	if name == "" {
		asCodingLog.Warningf("Object.addProperty: empty property name")
		return False
	}
	getter := fn.Arg(1).Object()
	if getter == nil || !getter.IsFunction() {
		asCodingLog.Warningf("Object.addProperty(%q): getter is not a function", name)
		return False
	}
	var setter *Object
	if s := fn.Arg(2); fn.NArgs() > 2 && !s.IsNull() {
		setter = s.Object()
		if setter == nil || !setter.IsFunction() {
			asCodingLog.Warningf("Object.addProperty(%q): setter is not a function or null", name)
			return False
		}
	}
	fn.This.AddProperty(fn.VM.URI(name), getter, setter)
	return True
}

// asSetPropFlags implements ASSetPropFlags(obj, props, setTrue, setFalse)
// where props is a comma-separated list, or null for every property.
func asSetPropFlags(fn *FnCall) Value {
	obj := fn.Arg(0).Object()
	if obj == nil || fn.NArgs() < 3 {
		asCodingLog.Warningf("ASSetPropFlags(%v): invalid arguments", fn.Args)
		return Undefined
	}
	setTrue := Flag(fn.Arg(2).ToInt())
	setFalse := Flag(fn.Arg(3).ToInt())
	var names []string
	if props := fn.Arg(1); !props.IsNull() {
		names = SplitPropList(props.ToString())
	}
	obj.SetPropFlags(names, setTrue, setFalse)
	return Undefined
}

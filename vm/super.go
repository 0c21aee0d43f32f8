package vm

// superState marks an object as a super proxy. Reads go to the
// prototype of target; calls go to target's __constructor__.
type superState struct {
	target *Object
}

// IsSuper returns true for super proxies.
func (o *Object) IsSuper() bool { return o.super != nil }

func (v *VM) newSuper(target *Object) *Object {
	s := v.newObject(nil)
	s.super = &superState{target: target}
	if target != nil {
		if proto := target.Prototype(); proto != nil {
			s.SetPrototype(proto)
		}
	}
	return s
}

// GetSuper returns the super proxy for code running with o as this.
// From SWF version 7, when method names the running method, the proxy is
// anchored at the ancestor that actually defines it, so super calls made
// from inherited methods skip the right number of levels. Called on a
// proxy, GetSuper moves one level further up.
func (o *Object) GetSuper(method string) *Object {
	v := o.vm
	start := o
	if o.super != nil {
		if o.super.target == nil {
			return v.newSuper(nil)
		}
		start = o.super.target.Prototype()
		if start == nil {
			return v.newSuper(nil)
		}
	}

	proto := start
	if o.super == nil {
		proto = o.Prototype()
		if proto == nil {
			return v.newSuper(nil)
		}
	}
	if method != "" && v.Version() > 6 {
		_, owner := start.FindProperty(v.URI(method))
		if owner != start {
			proto = owner
		}
	}
	return v.newSuper(proto)
}

func (o *Object) superGetMember(uri ObjectURI) (Value, bool) {
	proto := o.Prototype()
	if proto == nil {
		log.Debugf("super has no prototype, %q is undefined", o.vm.Name(uri))
		return Undefined, false
	}
	return proto.GetMember(uri)
}

// superCall dispatches a call on a super proxy to the constructor of the
// proxied prototype, keeping the caller's this.
func (o *Object) superCall(call *FnCall) Value {
	target := o.super.target
	if target == nil {
		return Undefined
	}
	ctorVal, ok := target.GetMember(o.vm.keys.Ctor)
	ctor := ctorVal.Object()
	if !ok || ctor == nil || !ctor.IsFunction() {
		log.Debugf("super() has no constructor to call")
		return Undefined
	}
	return ctor.invoke(&FnCall{
		VM:              call.VM,
		This:            call.This,
		Callee:          ctor,
		Args:            call.Args,
		IsInstantiation: true,
	})
}

package vm

import (
	"fmt"
	"strings"
)

// Magic is implemented by native companions whose script-visible
// properties are computed rather than stored, such as the transform
// properties of a display object. Magic properties are consulted before
// the property list on reads and after it on writes.
type Magic interface {
	GetMagic(uri ObjectURI) (Value, bool)
	SetMagic(uri ObjectURI, v Value) bool
	// VisitNonProperties reports enumerable names that are not stored as
	// properties (child clips, for instance).
	VisitNonProperties(fn func(uri ObjectURI))
}

// Relay is an opaque native resource owned by an object. Clean is called
// once, when the owning object is collected.
type Relay interface {
	Clean()
}

// ---------------------------------------------------------------------------
// Object: the script object model
// ---------------------------------------------------------------------------

// Object is a script object: an ordered property list, a prototype link
// stored as the __proto__ property, watch triggers, interface prototypes
// and optional native companions. Functions and super proxies are Objects
// too.
type Object struct {
	GcBase
	vm         *VM
	members    PropertyList
	fn         NativeFunction
	super      *superState
	magic      Magic
	relay      Relay
	triggers   map[ObjectURI]*Trigger
	interfaces []*Object
	prim       *Value
}

func (v *VM) newObject(proto *Object) *Object {
	o := &Object{vm: v}
	o.members = newPropertyList(o)
	if proto != nil {
		o.members.add(newProperty(v.keys.Proto, ObjectValue(proto), Flags(DontEnum|DontDelete)))
	}
	v.collector.Add(o)
	return o
}

// VM returns the VM that owns the object.
func (o *Object) VM() *VM { return o.vm }

// Members exposes the object's own property list.
func (o *Object) Members() *PropertyList { return &o.members }

// Magic returns the attached native companion, if any.
func (o *Object) Magic() Magic { return o.magic }

// AttachMagic attaches a native companion providing magic properties.
func (o *Object) AttachMagic(m Magic) { o.magic = m }

// Relay returns the object's native resource, if any.
func (o *Object) Relay() Relay { return o.relay }

// SetRelay replaces the object's native resource. The previous relay is
// cleaned first.
func (o *Object) SetRelay(r Relay) {
	if o.relay != nil && o.relay != r {
		o.relay.Clean()
	}
	o.relay = r
}

// SetPrimitive makes the object a wrapper around a primitive value, as
// created by new Number(1) or new String("a").
func (o *Object) SetPrimitive(v Value) { o.prim = &v }

func (o *Object) primitive() (Value, bool) {
	if o.prim == nil {
		return Undefined, false
	}
	return *o.prim, true
}

// ---------------------------------------------------------------------------
// Prototype chain
// ---------------------------------------------------------------------------

// Prototype returns the object referenced by the visible __proto__
// property, or nil.
func (o *Object) Prototype() *Object {
	p := o.members.Get(o.vm.keys.Proto)
	if p == nil || !p.flags.Visible(o.vm.Version()) {
		return nil
	}
	return p.GetValue(o).Object()
}

// SetPrototype replaces the __proto__ link. A nil proto stores null.
func (o *Object) SetPrototype(proto *Object) {
	if p := o.members.Get(o.vm.keys.Proto); p != nil {
		p.SetValue(o, ObjectValue(proto))
		return
	}
	o.members.add(newProperty(o.vm.keys.Proto, ObjectValue(proto), Flags(DontEnum|DontDelete)))
}

// lookupLimit is the number of objects a prototype walk may visit.
func (v *VM) lookupLimit() int {
	if v.Version() <= 6 {
		return 255
	}
	return 257
}

// FindProperty searches the object and its prototype chain for a visible
// property, returning it with the object that owns it. __proto__ is only
// ever looked up on the object itself. Cycles end the search; chains
// longer than the lookup limit panic with *ActionLimitError.
func (o *Object) FindProperty(uri ObjectURI) (*Property, *Object) {
	v := o.vm
	version := v.Version()
	if uri.Equal(v.strings, v.keys.Proto, version < 7) {
		p := o.members.Get(uri)
		if p == nil || !p.flags.Visible(version) {
			return nil, nil
		}
		return p, o
	}

	limit := v.lookupLimit()
	visited := make(map[*Object]struct{})
	depth := 0
	for cur := o; cur != nil; cur = cur.Prototype() {
		depth++
		if depth > limit {
			throwActionLimit("prototype lookup depth", limit)
		}
		if _, seen := visited[cur]; seen {
			return nil, nil
		}
		visited[cur] = struct{}{}
		if p := cur.members.Get(uri); p != nil && p.flags.Visible(version) {
			return p, cur
		}
	}
	return nil, nil
}

// findUpdatableProperty returns the property an assignment to uri should
// update: an own property, visible or not, or an inherited static one.
// Assigning to a hidden own property makes it visible.
func (o *Object) findUpdatableProperty(uri ObjectURI) *Property {
	if p := o.members.Get(uri); p != nil {
		return p
	}
	proto := o.Prototype()
	if proto == nil {
		return nil
	}
	p, _ := proto.FindProperty(uri)
	if p != nil && p.flags.IsStatic() {
		return p
	}
	return nil
}

// ---------------------------------------------------------------------------
// Member access
// ---------------------------------------------------------------------------

// Get is a convenience wrapper around GetMember for a plain name.
func (o *Object) Get(name string) Value {
	v, _ := o.GetMember(o.vm.URI(name))
	return v
}

// Set is a convenience wrapper around SetMember for a plain name,
// creating the property if needed.
func (o *Object) Set(name string, val Value) bool {
	return o.SetMember(o.vm.URI(name), val, true)
}

// GetMember resolves uri: magic properties first, then the object and its
// prototype chain, then a __resolve handler. The second result is false
// when nothing answered.
func (o *Object) GetMember(uri ObjectURI) (Value, bool) {
	if o.super != nil {
		return o.superGetMember(uri)
	}
	if o.magic != nil {
		if val, ok := o.magic.GetMagic(uri); ok {
			return val, true
		}
	}
	if p, _ := o.FindProperty(uri); p != nil {
		return p.GetValue(o), true
	}

	resolve := o.vm.keys.Resolve
	if uri.Equal(o.vm.strings, resolve, o.vm.Version() < 7) {
		return Undefined, false
	}
	p, _ := o.FindProperty(resolve)
	if p == nil {
		return Undefined, false
	}
	handler := p.GetValue(o).Object()
	if handler == nil || !handler.IsFunction() {
		return Undefined, false
	}
	return handler.Call(o, String(o.vm.Name(uri))), true
}

// SetMember assigns val to uri and reports whether a property took the
// value. Own properties and inherited static properties are updated in
// place, running watch triggers and setters; read-only properties are
// left unchanged. Otherwise magic properties are tried, and finally a new
// own property is created if createIfMissing is set.
func (o *Object) SetMember(uri ObjectURI, val Value, createIfMissing bool) bool {
	v := o.vm
	if o.super != nil {
		asCodingLog.Warningf("assignment to %q through super ignored", v.Name(uri))
		return false
	}
	if uri.Equal(v.strings, v.keys.Proto, v.Version() < 7) {
		o.SetPrototype(val.Object())
		return true
	}

	if p := o.findUpdatableProperty(uri); p != nil {
		if p.flags.ReadOnly() && !p.IsDestructive() {
			asCodingLog.Warningf("attempt to set read-only property %q", v.Name(uri))
			return false
		}
		o.executeTriggers(p, uri, val)
		return true
	}

	if o.magic != nil && o.magic.SetMagic(uri, val) {
		return true
	}
	if !createIfMissing {
		return false
	}

	if err := o.members.SetValue(uri, val, PropFlags{}); err != nil {
		asCodingLog.Warningf("attempt to set read-only property %q", v.Name(uri))
		return false
	}
	if t := o.findTrigger(uri); t != nil {
		o.executeTriggersOnCreate(t, uri, val)
	}
	return true
}

// InitMember adds a property during object setup. Initialising the same
// key twice without deleting it first is a programming error.
func (o *Object) InitMember(uri ObjectURI, val Value, flags PropFlags) {
	if o.members.Get(uri) != nil {
		panic(fmt.Sprintf("Object.InitMember: %q already initialised", o.vm.Name(uri)))
	}
	o.members.add(newProperty(uri, val, flags))
}

// InitReadOnlyMember adds a read-only, non-deletable, non-enumerable
// property.
func (o *Object) InitReadOnlyMember(uri ObjectURI, val Value) {
	o.InitMember(uri, val, Flags(ReadOnly|DontDelete|DontEnum))
}

// InitProperty adds a getter/setter pair during object setup.
func (o *Object) InitProperty(uri ObjectURI, getter, setter *Object, flags PropFlags) {
	if o.members.Get(uri) != nil {
		panic(fmt.Sprintf("Object.InitProperty: %q already initialised", o.vm.Name(uri)))
	}
	o.members.AddGetterSetter(uri, getter, setter, Undefined, flags)
}

// InitDestructiveProperty adds a getter that is replaced by its own
// result the first time the property is read or written.
func (o *Object) InitDestructiveProperty(uri ObjectURI, getter *Object, flags PropFlags) {
	if !o.members.AddDestructiveGetter(uri, getter, flags) {
		panic(fmt.Sprintf("Object.InitDestructiveProperty: %q already initialised", o.vm.Name(uri)))
	}
}

// AddProperty installs a getter/setter pair at run time, replacing any
// existing own property of that name.
func (o *Object) AddProperty(uri ObjectURI, getter, setter *Object) {
	o.members.AddGetterSetter(uri, getter, setter, Undefined, PropFlags{})
}

// HasOwnProperty reports whether uri is a visible own property.
func (o *Object) HasOwnProperty(uri ObjectURI) bool {
	p := o.members.Get(uri)
	return p != nil && p.flags.Visible(o.vm.Version())
}

// Delete removes an own property. It returns false if the property does
// not exist or is protected by DontDelete.
func (o *Object) Delete(uri ObjectURI) bool {
	_, deleted := o.members.Delete(uri)
	return deleted
}

// SetMemberFlags changes the attributes of an own property.
func (o *Object) SetMemberFlags(uri ObjectURI, setTrue, setFalse Flag) bool {
	return o.members.SetFlags(uri, setTrue, setFalse)
}

// SetPropFlags changes the attributes of the named own properties, or of
// every own property when names is nil. Names that cannot be changed are
// reported as coding errors.
func (o *Object) SetPropFlags(names []string, setTrue, setFalse Flag) {
	if names == nil {
		o.members.SetFlagsAll(setTrue, setFalse)
		return
	}
	for _, name := range names {
		if !o.SetMemberFlags(o.vm.URI(name), setTrue, setFalse) {
			asCodingLog.Warningf("can't set property flags on %q (not found)", name)
		}
	}
}

// SplitPropList splits a comma-separated property list as accepted by
// ASSetPropFlags.
func SplitPropList(list string) []string {
	return strings.Split(list, ",")
}

// CopyProperties assigns every visible property of src to o, except
// __proto__.
func (o *Object) CopyProperties(src *Object) {
	proto := o.vm.keys.Proto
	src.members.VisitValues(func(uri ObjectURI, val Value) bool {
		if uri != proto {
			o.SetMember(uri, val, true)
		}
		return true
	})
}

// VisitValues calls fn for every visible own property with its resolved
// value.
func (o *Object) VisitValues(fn func(uri ObjectURI, val Value) bool) {
	o.members.VisitValues(fn)
}

// EnumerateKeys reports the names a for..in loop visits: non-property
// names from the magic companion, then enumerable names of the object
// and its prototypes, each once.
func (o *Object) EnumerateKeys(fn func(uri ObjectURI)) {
	if o.magic != nil {
		o.magic.VisitNonProperties(fn)
	}
	seen := make(map[ObjectURI]struct{})
	visited := make(map[*Object]struct{})
	for cur := o; cur != nil; cur = cur.Prototype() {
		if _, dup := visited[cur]; dup {
			break
		}
		visited[cur] = struct{}{}
		cur.members.VisitKeys(seen, fn)
	}
}

// EnumerateNames returns the names EnumerateKeys visits.
func (o *Object) EnumerateNames() []string {
	var names []string
	o.EnumerateKeys(func(uri ObjectURI) {
		names = append(names, o.vm.Name(uri))
	})
	return names
}

// ---------------------------------------------------------------------------
// Inheritance
// ---------------------------------------------------------------------------

// AddInterface records proto as an interface implemented by instances
// whose chain passes through o.
func (o *Object) AddInterface(proto *Object) {
	if proto == nil {
		return
	}
	for _, i := range o.interfaces {
		if i == proto {
			return
		}
	}
	o.interfaces = append(o.interfaces, proto)
}

// InstanceOf reports whether ctor.prototype appears in o's prototype
// chain, directly or as an interface of one of its prototypes.
func (o *Object) InstanceOf(ctor *Object) bool {
	if ctor == nil {
		return false
	}
	protoVal, ok := ctor.GetMember(o.vm.keys.Prototype)
	if !ok {
		return false
	}
	ctorProto := protoVal.Object()
	if ctorProto == nil {
		return false
	}

	visited := make(map[*Object]struct{})
	cur := o
	for cur != nil {
		if _, seen := visited[cur]; seen {
			asCodingLog.Warningf("circular inheritance chain detected during instanceof")
			return false
		}
		visited[cur] = struct{}{}
		proto := cur.Prototype()
		if proto == nil {
			return false
		}
		if proto == ctorProto {
			return true
		}
		for _, i := range proto.interfaces {
			if i == ctorProto {
				return true
			}
		}
		cur = proto
	}
	return false
}

// IsPrototypeOf reports whether o appears in instance's prototype chain.
func (o *Object) IsPrototypeOf(instance *Object) bool {
	visited := make(map[*Object]struct{})
	for cur := instance.Prototype(); cur != nil; cur = cur.Prototype() {
		if cur == o {
			return true
		}
		if _, seen := visited[cur]; seen {
			return false
		}
		visited[cur] = struct{}{}
	}
	return false
}

// ---------------------------------------------------------------------------
// Collection
// ---------------------------------------------------------------------------

// MarkReachableResources marks everything the object references.
func (o *Object) MarkReachableResources(c *Collector) {
	o.members.markReachable(c)
	for _, t := range o.triggers {
		c.Mark(t.fn)
		c.MarkValue(t.custom)
	}
	for _, i := range o.interfaces {
		c.Mark(i)
	}
	if o.super != nil {
		c.Mark(o.super.target)
	}
	if o.prim != nil {
		c.MarkValue(*o.prim)
	}
	if r, ok := o.magic.(Resource); ok {
		c.MarkResource(r)
	}
	if r, ok := o.relay.(Root); ok {
		r.MarkReachableResources(c)
	}
}

// Finalize releases the relay of a collected object.
func (o *Object) Finalize() {
	if o.relay != nil {
		o.relay.Clean()
		o.relay = nil
	}
}

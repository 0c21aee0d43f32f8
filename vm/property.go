package vm

// ---------------------------------------------------------------------------
// Property: a single named binding
// ---------------------------------------------------------------------------

// Property binds a key to either a simple value or a getter/setter pair.
// Accessor properties keep an underlying value that is returned when the
// accessor is already running or has no getter.
type Property struct {
	uri   ObjectURI
	flags PropFlags
	value Value // simple value, or the underlying value of an accessor
	acc   *accessor
	slot  int // -1 when no slot is reserved
}

type accessor struct {
	getter      *Object
	setter      *Object
	destructive bool
	busy        bool
}

func newProperty(uri ObjectURI, v Value, flags PropFlags) *Property {
	return &Property{uri: uri, flags: flags, value: v, slot: -1}
}

func newAccessorProperty(uri ObjectURI, getter, setter *Object, flags PropFlags) *Property {
	return &Property{
		uri:   uri,
		flags: flags,
		acc:   &accessor{getter: getter, setter: setter},
		slot:  -1,
	}
}

// URI returns the property's key.
func (p *Property) URI() ObjectURI { return p.uri }

// Flags returns the property's attributes.
func (p *Property) Flags() PropFlags { return p.flags }

// SetFlags replaces the property's attributes.
func (p *Property) SetFlags(f PropFlags) { p.flags = f }

// ClearVisible drops the version gate; see PropFlags.ClearVisible.
func (p *Property) ClearVisible(version int) { p.flags.ClearVisible(version) }

// IsGetterSetter returns true for accessor properties.
func (p *Property) IsGetterSetter() bool { return p.acc != nil }

// IsDestructive returns true while a destructive getter is still installed.
func (p *Property) IsDestructive() bool { return p.acc != nil && p.acc.destructive }

// Slot returns the reserved positional index, if any.
func (p *Property) Slot() (int, bool) { return p.slot, p.slot >= 0 }

// Cache returns the last known value without invoking a getter.
func (p *Property) Cache() Value { return p.value }

// SetCache overwrites the underlying value without invoking a setter.
func (p *Property) SetCache(v Value) { p.value = v }

// GetValue resolves the property for this. Accessors run their getter
// unless the accessor is already active, in which case the underlying
// value is returned.
func (p *Property) GetValue(this *Object) Value {
	if p.acc == nil {
		return p.value
	}
	a := p.acc
	if a.destructive {
		v := a.getter.Call(this)
		// the getter may have assigned the property itself
		if p.acc == a {
			p.acc = nil
			p.value = v
		}
		return v
	}
	if a.busy || a.getter == nil {
		return p.value
	}
	a.busy = true
	defer func() { a.busy = false }()
	return a.getter.Call(this)
}

// SetValue assigns v for this. A destructive accessor is replaced by the
// plain value; other accessors call their setter, or store v as the
// underlying value when re-entered or setter-less.
func (p *Property) SetValue(this *Object, v Value) {
	if p.acc == nil {
		p.value = v
		return
	}
	a := p.acc
	if a.destructive {
		p.acc = nil
		p.value = v
		return
	}
	if a.busy || a.setter == nil {
		p.value = v
		return
	}
	a.busy = true
	defer func() { a.busy = false }()
	a.setter.Call(this, v)
}

func (p *Property) markReachable(c *Collector) {
	c.MarkValue(p.value)
	if p.acc != nil {
		c.Mark(p.acc.getter)
		c.Mark(p.acc.setter)
	}
}

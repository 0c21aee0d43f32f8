package vm

import "github.com/pkg/errors"

// ErrReadOnly is returned when assigning to a read-only property. Callers
// treat it as a coding error rather than a failure.
var ErrReadOnly = errors.New("property is read-only")

// ---------------------------------------------------------------------------
// PropertyList: ordered property store
// ---------------------------------------------------------------------------

// PropertyList stores an object's own properties in insertion order with
// a key index. Lookups fold case when the owner's SWF version is below 7.
type PropertyList struct {
	owner *Object
	props []*Property
	index map[ObjectURI][]*Property // folded key -> properties
	slots map[int]*Property
}

func newPropertyList(owner *Object) PropertyList {
	return PropertyList{
		owner: owner,
		index: make(map[ObjectURI][]*Property),
	}
}

func (l *PropertyList) strings() *StringTable { return l.owner.vm.strings }

func (l *PropertyList) caseless() bool { return l.owner.vm.Version() < 7 }

func (l *PropertyList) foldKey(uri ObjectURI) ObjectURI {
	return uri.NoCase(l.strings())
}

// Len returns the number of stored properties, including invisible ones.
func (l *PropertyList) Len() int { return len(l.props) }

// Get returns the property stored under uri, or nil. The match is
// case-insensitive below SWF version 7.
func (l *PropertyList) Get(uri ObjectURI) *Property {
	bucket := l.index[l.foldKey(uri)]
	if len(bucket) == 0 {
		return nil
	}
	if l.caseless() {
		return bucket[0]
	}
	for _, p := range bucket {
		if p.uri == uri {
			return p
		}
	}
	return nil
}

func (l *PropertyList) add(p *Property) {
	l.props = append(l.props, p)
	k := l.foldKey(p.uri)
	l.index[k] = append(l.index[k], p)
}

// replace swaps old for p keeping the enumeration position.
func (l *PropertyList) replace(old, p *Property) {
	for i, q := range l.props {
		if q == old {
			l.props[i] = p
			break
		}
	}
	k := l.foldKey(old.uri)
	bucket := l.index[k]
	for i, q := range bucket {
		if q == old {
			bucket[i] = p
			break
		}
	}
	if old.slot >= 0 {
		p.slot = old.slot
		l.slots[old.slot] = p
	}
}

// SetValue assigns v to uri, appending a property with flagsIfMissing when
// none exists. Read-only properties are left untouched and ErrReadOnly is
// returned.
func (l *PropertyList) SetValue(uri ObjectURI, v Value, flagsIfMissing PropFlags) error {
	p := l.Get(uri)
	if p == nil {
		l.add(newProperty(uri, v, flagsIfMissing))
		return nil
	}
	if p.flags.ReadOnly() && !p.IsDestructive() {
		return ErrReadOnly
	}
	p.SetValue(l.owner, v)
	return nil
}

// AddGetterSetter installs an accessor under uri. An existing property is
// replaced in place, keeping its flags, cached value and position.
func (l *PropertyList) AddGetterSetter(uri ObjectURI, getter, setter *Object, cache Value, flagsIfMissing PropFlags) {
	p := newAccessorProperty(uri, getter, setter, flagsIfMissing)
	if old := l.Get(uri); old != nil {
		p.flags = old.flags
		p.value = old.value
		l.replace(old, p)
		return
	}
	p.value = cache
	l.add(p)
}

// AddDestructiveGetter installs a getter that is replaced by its result on
// first access. It returns false if uri already exists.
func (l *PropertyList) AddDestructiveGetter(uri ObjectURI, getter *Object, flags PropFlags) bool {
	if l.Get(uri) != nil {
		return false
	}
	p := newAccessorProperty(uri, getter, nil, flags)
	p.acc.destructive = true
	l.add(p)
	return true
}

// ReserveSlot binds slot to uri, creating an undefined placeholder when
// uri is absent. It fails if the slot is taken or uri already has one.
func (l *PropertyList) ReserveSlot(uri ObjectURI, slot int) bool {
	if slot < 0 {
		return false
	}
	if _, taken := l.slots[slot]; taken {
		return false
	}
	p := l.Get(uri)
	if p != nil && p.slot >= 0 {
		return false
	}
	if p == nil {
		p = newProperty(uri, Undefined, PropFlags{})
		l.add(p)
	}
	if l.slots == nil {
		l.slots = make(map[int]*Property)
	}
	p.slot = slot
	l.slots[slot] = p
	return true
}

// BySlot returns the property bound to slot, or nil.
func (l *PropertyList) BySlot(slot int) *Property {
	return l.slots[slot]
}

// Delete removes uri. found reports whether the key existed, deleted
// whether it was removed; DontDelete properties are kept.
func (l *PropertyList) Delete(uri ObjectURI) (found, deleted bool) {
	p := l.Get(uri)
	if p == nil {
		return false, false
	}
	if p.flags.DontDelete() {
		return true, false
	}
	l.remove(p)
	return true, true
}

func (l *PropertyList) remove(p *Property) {
	for i, q := range l.props {
		if q == p {
			l.props = append(l.props[:i], l.props[i+1:]...)
			break
		}
	}
	k := l.foldKey(p.uri)
	bucket := l.index[k]
	for i, q := range bucket {
		if q == p {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(l.index, k)
	} else {
		l.index[k] = bucket
	}
	if p.slot >= 0 {
		delete(l.slots, p.slot)
	}
}

// SetFlags changes the attributes of uri. It returns false if uri does
// not exist.
func (l *PropertyList) SetFlags(uri ObjectURI, setTrue, setFalse Flag) bool {
	p := l.Get(uri)
	if p == nil {
		return false
	}
	p.flags.Set(setTrue, setFalse)
	return true
}

// SetFlagsAll changes the attributes of every property.
func (l *PropertyList) SetFlagsAll(setTrue, setFalse Flag) {
	for _, p := range l.props {
		p.flags.Set(setTrue, setFalse)
	}
}

// VisitValues calls fn with the resolved value of every property visible
// at the owner's version, in insertion order, until fn returns false.
// Getters run with the owner as this.
func (l *PropertyList) VisitValues(fn func(uri ObjectURI, v Value) bool) {
	version := l.owner.vm.Version()
	// a getter may add or delete properties
	props := append([]*Property(nil), l.props...)
	for _, p := range props {
		if !p.flags.Visible(version) {
			continue
		}
		if !fn(p.uri, p.GetValue(l.owner)) {
			return
		}
	}
}

// VisitKeys calls fn with the key of every visible, enumerable property
// not already present in seen, and records it in seen. Getters are never
// invoked.
func (l *PropertyList) VisitKeys(seen map[ObjectURI]struct{}, fn func(uri ObjectURI)) {
	version := l.owner.vm.Version()
	caseless := l.caseless()
	for _, p := range l.props {
		if !p.flags.Visible(version) || p.flags.DontEnum() {
			continue
		}
		k := p.uri
		if caseless {
			k = l.foldKey(k)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		fn(p.uri)
	}
}

// Clear removes every property.
func (l *PropertyList) Clear() {
	l.props = nil
	l.index = make(map[ObjectURI][]*Property)
	l.slots = nil
}

func (l *PropertyList) markReachable(c *Collector) {
	for _, p := range l.props {
		p.markReachable(c)
	}
}

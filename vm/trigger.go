package vm

// ---------------------------------------------------------------------------
// Trigger: Object.watch support
// ---------------------------------------------------------------------------

// Trigger is a watch installed on a property. The callback receives the
// property name, the old value, the proposed value and the custom
// argument, and returns the value actually stored.
type Trigger struct {
	name      string
	fn        *Object
	custom    Value
	executing bool
	dead      bool
}

// Dead reports whether the trigger was removed by Unwatch.
func (t *Trigger) Dead() bool { return t.dead }

// call runs the callback. A re-entrant call, made while the callback is
// already running, returns the proposed value unchanged.
func (t *Trigger) call(this *Object, oldVal, newVal Value) Value {
	if t.executing {
		return newVal
	}
	t.executing = true
	defer func() { t.executing = false }()
	return t.fn.Call(this, String(t.name), oldVal, newVal, t.custom)
}

// Watch installs fn as the trigger for uri, replacing any previous one.
// Watching a property that does not exist yet is allowed; the trigger
// fires when it is created.
func (o *Object) Watch(uri ObjectURI, fn *Object, custom Value) bool {
	if fn == nil || !fn.IsFunction() {
		asCodingLog.Warningf("watch(%q): callback is not a function", o.vm.Name(uri))
		return false
	}
	if p, _ := o.FindProperty(uri); p == nil {
		asCodingLog.Warningf("watch(%q): property does not exist yet", o.vm.Name(uri))
	}
	if o.triggers == nil {
		o.triggers = make(map[ObjectURI]*Trigger)
	}
	if old := o.findTrigger(uri); old != nil {
		delete(o.triggers, old.key(o, uri))
	}
	o.triggers[uri] = &Trigger{name: o.vm.Name(uri), fn: fn, custom: custom}
	return true
}

// Unwatch marks the trigger for uri dead. It refuses, returning false,
// when there is no watch or the property is a getter/setter.
func (o *Object) Unwatch(uri ObjectURI) bool {
	t := o.findTrigger(uri)
	if t == nil {
		asCodingLog.Warningf("unwatch(%q): no watch installed", o.vm.Name(uri))
		return false
	}
	if p := o.members.Get(uri); p != nil && p.IsGetterSetter() {
		asCodingLog.Warningf("unwatch(%q): property is a getter/setter", o.vm.Name(uri))
		return false
	}
	t.dead = true
	return true
}

// key returns the map key under which t is stored, which may differ in
// case from uri below SWF version 7.
func (t *Trigger) key(o *Object, uri ObjectURI) ObjectURI {
	for k, v := range o.triggers {
		if v == t {
			return k
		}
	}
	return uri
}

func (o *Object) findTrigger(uri ObjectURI) *Trigger {
	if len(o.triggers) == 0 {
		return nil
	}
	if t, ok := o.triggers[uri]; ok {
		return t
	}
	if o.vm.Version() >= 7 {
		return nil
	}
	for k, t := range o.triggers {
		if k.Equal(o.vm.strings, uri, true) {
			return t
		}
	}
	return nil
}

func (o *Object) removeTrigger(t *Trigger, uri ObjectURI) {
	delete(o.triggers, t.key(o, uri))
}

func (o *Object) pruneDeadTriggers() {
	for k, t := range o.triggers {
		if t.dead {
			delete(o.triggers, k)
		}
	}
}

// executeTriggers stores val into p, routing it through a live watch on
// uri first. The property is fetched again after the callback since the
// callback may have deleted it.
func (o *Object) executeTriggers(p *Property, uri ObjectURI, val Value) {
	version := o.vm.Version()
	t := o.findTrigger(uri)
	if t == nil {
		p.SetValue(o, val)
		p.ClearVisible(version)
		return
	}
	if t.dead {
		o.removeTrigger(t, uri)
		p.SetValue(o, val)
		p.ClearVisible(version)
		return
	}

	newVal := t.call(o, p.Cache(), val)
	o.pruneDeadTriggers()

	p = o.findUpdatableProperty(uri)
	if p == nil {
		log.Debugf("property %q deleted by its watch, assignment dropped", o.vm.Name(uri))
		return
	}
	p.SetValue(o, newVal)
	p.ClearVisible(version)
}

// executeTriggersOnCreate runs a watch installed before its property was
// created. The old value passed to the callback is undefined.
func (o *Object) executeTriggersOnCreate(t *Trigger, uri ObjectURI, val Value) {
	if t.dead {
		o.removeTrigger(t, uri)
		return
	}
	newVal := t.call(o, Undefined, val)
	o.pruneDeadTriggers()

	p := o.members.Get(uri)
	if p == nil {
		log.Debugf("property %q deleted by its watch, assignment dropped", o.vm.Name(uri))
		return
	}
	p.SetValue(o, newVal)
}

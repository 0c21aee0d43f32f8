package vm

// DefaultRecursionLimit is the call depth at which scripts are stopped.
const DefaultRecursionLimit = 256

// VM holds the state shared by every object of a player session: the SWF
// version in effect, the string table, the built-in prototypes, the
// collector and the virtual clock.
//
// A VM is confined to the player's main goroutine; only the string table
// may be used concurrently.
type VM struct {
	version int
	strings *StringTable
	keys    wellKnown

	global        *Object
	objectProto   *Object
	functionProto *Object

	collector *Collector
	clock     VirtualClock

	recursionLimit int
	callDepth      int
}

// NewVM creates a VM for the given SWF version. A nil clock uses a
// SystemClock.
func NewVM(version int, clock VirtualClock) *VM {
	if clock == nil {
		clock = NewSystemClock()
	}
	strings := NewStringTable()
	v := &VM{
		version:        version,
		strings:        strings,
		keys:           newWellKnown(strings),
		collector:      NewCollector(),
		clock:          clock,
		recursionLimit: DefaultRecursionLimit,
	}
	v.bootstrap()
	v.collector.AddRoot(v)
	return v
}

// Version returns the SWF version scripts run under.
func (v *VM) Version() int { return v.version }

// SetVersion changes the SWF version, normally when the root movie is
// replaced.
func (v *VM) SetVersion(version int) { v.version = version }

// Strings returns the VM's string table.
func (v *VM) Strings() *StringTable { return v.strings }

// URI interns name as a key in the empty namespace.
func (v *VM) URI(name string) ObjectURI {
	return ObjectURI{Name: v.strings.Intern(name)}
}

// NamespacedURI interns name in namespace ns.
func (v *VM) NamespacedURI(name, ns string) ObjectURI {
	return ObjectURI{Name: v.strings.Intern(name), Namespace: v.strings.Intern(ns)}
}

// Name returns the string form of a key.
func (v *VM) Name(uri ObjectURI) string {
	return v.strings.Value(uri.Name)
}

// Global returns the global object.
func (v *VM) Global() *Object { return v.global }

// ObjectPrototype returns Object.prototype.
func (v *VM) ObjectPrototype() *Object { return v.objectProto }

// FunctionPrototype returns Function.prototype.
func (v *VM) FunctionPrototype() *Object { return v.functionProto }

// NewObject creates a plain object inheriting from Object.prototype.
func (v *VM) NewObject() *Object {
	return v.newObject(v.objectProto)
}

// NewObjectWithProto creates an object with the given prototype, which
// may be nil.
func (v *VM) NewObjectWithProto(proto *Object) *Object {
	return v.newObject(proto)
}

// Collector returns the VM's resource collector.
func (v *VM) Collector() *Collector { return v.collector }

// Clock returns the VM's virtual clock.
func (v *VM) Clock() VirtualClock { return v.clock }

// Time returns the current virtual time in milliseconds.
func (v *VM) Time() uint64 { return v.clock.Elapsed() }

// SetRecursionLimit changes the maximum call depth.
func (v *VM) SetRecursionLimit(n int) {
	if n <= 0 {
		n = DefaultRecursionLimit
	}
	v.recursionLimit = n
}

// CallDepth returns the number of native calls currently on the stack.
func (v *VM) CallDepth() int { return v.callDepth }

// MarkReachableResources marks the global object and the built-in
// prototypes.
func (v *VM) MarkReachableResources(c *Collector) {
	c.Mark(v.global)
	c.Mark(v.objectProto)
	c.Mark(v.functionProto)
}

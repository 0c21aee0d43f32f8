package vm

// ObjectURI is a property key: an interned name plus an optional interned
// namespace. Namespace 0 is the empty namespace.
type ObjectURI struct {
	Name      uint32
	Namespace uint32
}

// NoCase returns the case-folded form of the key.
func (u ObjectURI) NoCase(st *StringTable) ObjectURI {
	return ObjectURI{Name: st.NoCase(u.Name), Namespace: u.Namespace}
}

// Equal compares two keys, folding case when caseless is set.
func (u ObjectURI) Equal(st *StringTable, other ObjectURI, caseless bool) bool {
	if u == other {
		return true
	}
	if !caseless || u.Namespace != other.Namespace {
		return false
	}
	return st.NoCase(u.Name) == st.NoCase(other.Name)
}

// Well-known keys are interned first so their IDs are fixed for every
// string table created by NewVM.
var wellKnownNames = []string{
	"__proto__",
	"prototype",
	"constructor",
	"__constructor__",
	"__resolve",
	"length",
	"this",
	"onLoadStart",
	"onLoadProgress",
	"onLoadComplete",
	"onLoadInit",
	"onLoadError",
	"focusEnabled",
	"toString",
	"valueOf",
}

// Keys used by the object model itself.
type wellKnown struct {
	Proto       ObjectURI
	Prototype   ObjectURI
	Constructor ObjectURI
	Ctor        ObjectURI // __constructor__
	Resolve     ObjectURI
	Length      ObjectURI
	This        ObjectURI
}

func newWellKnown(st *StringTable) wellKnown {
	for _, name := range wellKnownNames {
		st.Intern(name)
	}
	key := func(name string) ObjectURI {
		return ObjectURI{Name: st.Intern(name)}
	}
	return wellKnown{
		Proto:       key("__proto__"),
		Prototype:   key("prototype"),
		Constructor: key("constructor"),
		Ctor:        key("__constructor__"),
		Resolve:     key("__resolve"),
		Length:      key("length"),
		This:        key("this"),
	}
}

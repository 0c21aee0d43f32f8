package vm

// Flag is a single property attribute bit. The numeric values match the
// bits accepted by ASSetPropFlags.
type Flag uint16

const (
	// DontEnum hides the property from for..in enumeration.
	DontEnum Flag = 1 << 0
	// DontDelete protects the property from the delete operator.
	DontDelete Flag = 1 << 1
	// ReadOnly rejects assignments.
	ReadOnly Flag = 1 << 2
	// IsStatic makes an inherited property intercept assignments on
	// derived objects instead of being shadowed by a new own property.
	IsStatic Flag = 1 << 3

	// OnlySWF6Up hides the property below SWF version 6.
	OnlySWF6Up Flag = 1 << 7
	// IgnoreSWF6 hides the property at exactly SWF version 6.
	IgnoreSWF6 Flag = 1 << 8
	// OnlySWF7Up hides the property below SWF version 7.
	OnlySWF7Up Flag = 1 << 10
	// OnlySWF8Up hides the property below SWF version 8.
	OnlySWF8Up Flag = 1 << 12
	// OnlySWF9Up hides the property below SWF version 9.
	OnlySWF9Up Flag = 1 << 13

	versionMask = OnlySWF6Up | IgnoreSWF6 | OnlySWF7Up | OnlySWF8Up | OnlySWF9Up
)

// PropFlags holds a property's attribute bits plus an optional visibility
// gate. MinVersion and MaxVersion of 0 mean unbounded.
type PropFlags struct {
	Bits       Flag
	MinVersion int
	MaxVersion int
}

// Flags returns PropFlags with the given bits and no version gate.
func Flags(bits Flag) PropFlags {
	return PropFlags{Bits: bits}
}

func (f PropFlags) Has(bit Flag) bool  { return f.Bits&bit != 0 }
func (f PropFlags) DontEnum() bool     { return f.Has(DontEnum) }
func (f PropFlags) DontDelete() bool   { return f.Has(DontDelete) }
func (f PropFlags) ReadOnly() bool     { return f.Has(ReadOnly) }
func (f PropFlags) IsStatic() bool     { return f.Has(IsStatic) }

// Visible reports whether the property exists for code compiled for the
// given SWF version.
func (f PropFlags) Visible(version int) bool {
	if f.MinVersion != 0 && version < f.MinVersion {
		return false
	}
	if f.MaxVersion != 0 && version > f.MaxVersion {
		return false
	}
	if f.Has(OnlySWF6Up) && version < 6 {
		return false
	}
	if f.Has(IgnoreSWF6) && version == 6 {
		return false
	}
	if f.Has(OnlySWF7Up) && version < 7 {
		return false
	}
	if f.Has(OnlySWF8Up) && version < 8 {
		return false
	}
	if f.Has(OnlySWF9Up) && version < 9 {
		return false
	}
	return true
}

// ClearVisible removes the version gate once a script has assigned the
// property under SWF version 6 or later.
func (f *PropFlags) ClearVisible(version int) {
	if version < 6 {
		return
	}
	f.Bits &^= versionMask
	f.MinVersion = 0
	f.MaxVersion = 0
}

// Set applies setTrue then clears setFalse.
func (f *PropFlags) Set(setTrue, setFalse Flag) {
	f.Bits |= setTrue
	f.Bits &^= setFalse
}

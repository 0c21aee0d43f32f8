package vm

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	KindUndefined ValueKind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	}
	return "invalid"
}

// Value is a script value: undefined, null, boolean, number, string or a
// reference to an Object. The zero Value is undefined.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
	o    *Object
}

// Pre-defined values
var (
	Undefined = Value{}
	Null      = Value{kind: KindNull}
	True      = Value{kind: KindBool, b: true}
	False     = Value{kind: KindBool}
)

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// Bool returns a boolean value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Number returns a numeric value.
func Number(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

// Int returns a numeric value from an integer.
func Int(n int) Value {
	return Value{kind: KindNumber, n: float64(n)}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// ObjectValue returns a reference to obj, or Null if obj is nil.
func ObjectValue(obj *Object) Value {
	if obj == nil {
		return Null
	}
	return Value{kind: KindObject, o: obj}
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

func (v Value) Kind() ValueKind   { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsBool() bool      { return v.kind == KindBool }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsObject() bool    { return v.kind == KindObject }

// IsFunction returns true if v references a callable object.
func (v Value) IsFunction() bool {
	return v.kind == KindObject && v.o.IsFunction()
}

// Object returns the referenced object, or nil for non-object values.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.o
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

// ToBool converts v to a boolean. For SWF versions below 7 a string is
// converted to a number first; from version 7 any non-empty string is true.
func (v Value) ToBool(version int) bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		if version >= 7 {
			return v.s != ""
		}
		n := parseNumber(v.s)
		return n != 0 && !math.IsNaN(n)
	case KindObject:
		return true
	}
	return false
}

// ToNumber converts v to a number.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindNumber:
		return v.n
	case KindString:
		return parseNumber(v.s)
	case KindNull:
		return 0
	case KindObject:
		if p, ok := v.o.primitive(); ok {
			return p.ToNumber()
		}
	}
	return math.NaN()
}

// ToInt converts v to an integer, truncating toward zero. NaN and the
// infinities convert to 0.
func (v Value) ToInt() int {
	n := v.ToNumber()
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int(n)
}

// ToString converts v to its script string form.
func (v Value) ToString() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return v.s
	case KindObject:
		if p, ok := v.o.primitive(); ok {
			return p.ToString()
		}
		if v.o.IsFunction() {
			return "[type Function]"
		}
		return "[object Object]"
	}
	return ""
}

// String implements fmt.Stringer for debugging output.
func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	return v.ToString()
}

// Equals reports strict equality: same kind and same value, objects by
// identity. NaN is not equal to itself.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindObject:
		return v.o == other.o
	}
	return false
}

// FormatNumber renders a number the way scripts print it: integers without
// a fractional part, up to 15 significant digits otherwise.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	s := strconv.FormatFloat(n, 'g', 15, 64)
	if strings.ContainsAny(s, "e") {
		// 1e+21 style exponents keep their sign
		return s
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func parseNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return math.NaN()
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		if n, err := strconv.ParseInt(t[2:], 16, 64); err == nil {
			return float64(n)
		}
		return math.NaN()
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

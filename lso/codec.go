package lso

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/chazu/kestrel/vm"
	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("lso: failed to create CBOR enc mode: %v", err))
	}
	encMode = em

	dm, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("lso: failed to create CBOR dec mode: %v", err))
	}
	decMode = dm
}

// Encode serializes the enumerable members of o. Functions and
// undefined values are skipped, as are references back to an object
// already being encoded.
func Encode(o *vm.Object) ([]byte, error) {
	return encMode.Marshal(ToPlain(o))
}

// Decode parses data produced by Encode into plain Go values.
func Decode(data []byte) (map[string]any, error) {
	m := make(map[string]any)
	if len(data) == 0 {
		return m, nil
	}
	if err := decMode.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ToPlain converts the enumerable own members of o to a map of nil,
// bool, float64, string and nested maps.
func ToPlain(o *vm.Object) map[string]any {
	return objectToPlain(o, map[*vm.Object]bool{})
}

func objectToPlain(o *vm.Object, active map[*vm.Object]bool) map[string]any {
	out := make(map[string]any)
	active[o] = true
	defer delete(active, o)

	v := o.VM()
	o.VisitValues(func(uri vm.ObjectURI, val vm.Value) bool {
		if p := o.Members().Get(uri); p != nil && p.Flags().DontEnum() {
			return true
		}
		if plain, ok := valueToPlain(val, active); ok {
			out[v.Name(uri)] = plain
		}
		return true
	})
	return out
}

func valueToPlain(val vm.Value, active map[*vm.Object]bool) (any, bool) {
	switch val.Kind() {
	case vm.KindUndefined:
		return nil, false
	case vm.KindNull:
		return nil, true
	case vm.KindBool:
		return val.ToBool(7), true
	case vm.KindNumber:
		return val.ToNumber(), true
	case vm.KindString:
		return val.ToString(), true
	}
	o := val.Object()
	if o == nil || o.IsFunction() {
		return nil, false
	}
	if active[o] {
		log.Debugf("cutting circular reference while encoding")
		return nil, false
	}
	return objectToPlain(o, active), true
}

// FromPlain stores every entry of m as a member of o. Maps become new
// objects and keys are set in sorted order.
func FromPlain(o *vm.Object, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.Set(k, plainToValue(o.VM(), m[k]))
	}
}

func plainToValue(v *vm.VM, x any) vm.Value {
	switch x := x.(type) {
	case nil:
		return vm.Null
	case bool:
		return vm.Bool(x)
	case float64:
		return vm.Number(x)
	case float32:
		return vm.Number(float64(x))
	case int64:
		return vm.Number(float64(x))
	case uint64:
		return vm.Number(float64(x))
	case string:
		return vm.String(x)
	case map[string]any:
		o := v.NewObject()
		FromPlain(o, x)
		return vm.ObjectValue(o)
	case []any:
		o := v.NewObject()
		for i, e := range x {
			o.Set(strconv.Itoa(i), plainToValue(v, e))
		}
		return vm.ObjectValue(o)
	}
	log.Warningf("cannot restore stored value of type %T", x)
	return vm.Undefined
}

package stage

import (
	"github.com/chazu/kestrel/display"
	"github.com/chazu/kestrel/vm"
)

// KeyEvent dispatches a key press or release. The key state is updated
// first, so listeners already see it. Clip listeners get KEY_DOWN
// followed by KEY_PRESS for the key, or KEY_UP; Key listeners then get
// onKeyDown or onKeyUp.
func (s *Stage) KeyEvent(k display.KeyCode, down bool) {
	s.lastKey = k
	if k > display.KeyNone && k < 256 {
		if down {
			s.keys.Insert(int(k))
		} else {
			s.keys.Remove(int(k))
		}
	}

	for _, ch := range s.listenerSnapshot(s.keyListeners) {
		if ch.Base().Unloaded() {
			continue
		}
		ch := ch
		s.guard("key listener", func() {
			if down {
				ch.NotifyEvent(display.Event(display.EventKeyDown))
				ch.NotifyEvent(display.EventID{Kind: display.EventKeyPress, Key: k})
			} else {
				ch.NotifyEvent(display.Event(display.EventKeyUp))
			}
		})
	}

	if key := s.builtins.key; key != nil {
		name := "onKeyUp"
		if down {
			name = "onKeyDown"
		}
		s.guard("Key listeners", func() { broadcast(key, name) })
	}
	s.ProcessActionQueue()
}

// IsKeyDown reports whether k is currently held.
func (s *Stage) IsKeyDown(k display.KeyCode) bool {
	return s.keys.Has(int(k))
}

// LastKeyEvent returns the code of the most recent key event.
func (s *Stage) LastKeyEvent() display.KeyCode { return s.lastKey }

// AddKeyListener registers ch for key notifications in addition to the
// live characters.
func (s *Stage) AddKeyListener(ch display.Character) {
	for _, l := range s.keyListeners {
		if sameChar(l, ch) {
			return
		}
	}
	s.keyListeners = append(s.keyListeners, ch)
}

func (s *Stage) RemoveKeyListener(ch display.Character) {
	for i, l := range s.keyListeners {
		if sameChar(l, ch) {
			s.keyListeners = append(s.keyListeners[:i], s.keyListeners[i+1:]...)
			return
		}
	}
}

var keyConstants = []struct {
	name string
	code display.KeyCode
}{
	{"BACKSPACE", display.KeyBackspace},
	{"TAB", display.KeyTab},
	{"ENTER", display.KeyEnter},
	{"SHIFT", display.KeyShift},
	{"CONTROL", display.KeyControl},
	{"ESCAPE", display.KeyEscape},
	{"SPACE", display.KeySpace},
	{"PGUP", display.KeyPageUp},
	{"PGDN", display.KeyPageDown},
	{"END", display.KeyEnd},
	{"HOME", display.KeyHome},
	{"LEFT", display.KeyLeft},
	{"UP", display.KeyUp},
	{"RIGHT", display.KeyRight},
	{"DOWN", display.KeyDown},
	{"INSERT", display.KeyInsert},
	{"DELETEKEY", display.KeyDelete},
}

func (s *Stage) installKey(g *vm.Object) *vm.Object {
	v := s.vm
	key := newBroadcaster(v)
	for _, c := range keyConstants {
		key.InitMember(v.URI(c.name), vm.Int(int(c.code)), vm.Flags(vm.DontEnum|vm.DontDelete|vm.ReadOnly))
	}
	v.InitMethod(key, "isDown", func(fn *vm.FnCall) vm.Value {
		return vm.Bool(s.IsKeyDown(display.KeyCode(fn.Arg(0).ToInt())))
	}, nativeMethod)
	v.InitMethod(key, "getCode", func(fn *vm.FnCall) vm.Value {
		return vm.Int(int(s.lastKey))
	}, nativeMethod)
	g.InitMember(v.URI("Key"), vm.ObjectValue(key), nativeMethod)
	return key
}

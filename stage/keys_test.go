package stage

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/kestrel/display"
	"github.com/chazu/kestrel/vm"
)

func TestKeyEvents(t *testing.T) {
	s, _ := newTestStage(t, Options{})
	root := withRoot(t, s)
	v := s.VM()

	var calls []string
	clip := root.CreateEmptyMovieClip("player", 1)
	for _, id := range []display.EventID{
		display.Event(display.EventKeyDown),
		display.Event(display.EventKeyUp),
		{Kind: display.EventKeyPress, Key: display.KeyLeft},
		{Kind: display.EventKeyPress, Key: display.KeySpace},
	} {
		id := id
		clip.AddEventHandler(id, display.ActionFunc(func(display.Character) {
			calls = append(calls, "clip "+id.String())
		}))
	}

	key := v.Global().Get("Key").Object()
	l := v.NewObject()
	l.Set("onKeyDown", vm.ObjectValue(v.NewFunction(func(fn *vm.FnCall) vm.Value {
		held, _ := key.CallMethod("isDown", vm.Int(int(display.KeyLeft)))
		code, _ := key.CallMethod("getCode")
		calls = append(calls, "Key.onKeyDown "+code.ToString()+" held="+held.ToString())
		return vm.Undefined
	})))
	l.Set("onKeyUp", recorder(v, &calls, "Key.onKeyUp"))
	key.CallMethod("addListener", vm.ObjectValue(l))

	s.KeyEvent(display.KeyLeft, true)
	if !s.IsKeyDown(display.KeyLeft) {
		t.Errorf("LEFT not held after press")
	}
	s.KeyEvent(display.KeyLeft, false)
	if s.IsKeyDown(display.KeyLeft) {
		t.Errorf("LEFT still held after release")
	}

	want := []string{
		"clip onKeyDown",
		"clip onKeyPress(37)",
		"Key.onKeyDown 37 held=true",
		"clip onKeyUp",
		"Key.onKeyUp",
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("key events mismatch (-want +got):\n%s", diff)
	}
	if s.LastKeyEvent() != display.KeyLeft {
		t.Errorf("LastKeyEvent = %d, want LEFT", s.LastKeyEvent())
	}
}

func TestKeyConstants(t *testing.T) {
	s, _ := newTestStage(t, Options{})
	key := s.VM().Global().Get("Key").Object()
	for _, c := range []struct {
		name string
		want int
	}{{"LEFT", 37}, {"ENTER", 13}, {"DELETEKEY", 46}, {"SPACE", 32}} {
		if got := key.Get(c.name).ToInt(); got != c.want {
			t.Errorf("Key.%s = %d, want %d", c.name, got, c.want)
		}
	}
	key.Set("LEFT", vm.Int(0))
	if key.Get("LEFT").ToInt() != 37 {
		t.Errorf("Key.LEFT is writable")
	}
}

func TestExplicitKeyListener(t *testing.T) {
	s, _ := newTestStage(t, Options{})
	root := withRoot(t, s)
	var calls []string
	clip := root.CreateEmptyMovieClip("c", 1)
	clip.AddEventHandler(display.Event(display.EventKeyDown), display.ActionFunc(func(display.Character) {
		calls = append(calls, "down")
	}))

	s.AddKeyListener(clip)
	s.AddKeyListener(clip)
	s.KeyEvent(display.KeySpace, true)
	if len(calls) != 1 {
		t.Errorf("listener that is also live notified %d times, want 1", len(calls))
	}

	s.RemoveKeyListener(clip)
	if len(s.keyListeners) != 0 {
		t.Errorf("listener not removed")
	}
}

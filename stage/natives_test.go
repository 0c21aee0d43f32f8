package stage

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/kestrel/display"
	"github.com/chazu/kestrel/lso"
	"github.com/chazu/kestrel/vm"
)

func TestMovieClipPlayback(t *testing.T) {
	s, _ := newTestStage(t, Options{})
	root := withRoot(t, s)
	clip := display.NewMovieClip(s, &root.MovieClip, display.Frames{{}, {}, {}, {}})
	root.PlaceCharacter(clip, display.StaticDepthOffset+1, "anim")
	s.ProcessActionQueue()
	obj := clip.Object()

	steps := []struct {
		method string
		args   []vm.Value
		frame  int
		state  display.PlayState
	}{
		{"gotoAndStop", []vm.Value{vm.Int(3)}, 2, display.Stopped},
		{"gotoAndPlay", []vm.Value{vm.String("2")}, 1, display.Playing},
		{"gotoAndStop", []vm.Value{vm.String("intro")}, 1, display.Playing},
		{"nextFrame", nil, 2, display.Stopped},
		{"prevFrame", nil, 1, display.Stopped},
		{"play", nil, 1, display.Playing},
		{"stop", nil, 1, display.Stopped},
	}
	for _, st := range steps {
		obj.CallMethod(st.method, st.args...)
		if clip.CurrentFrame() != st.frame || clip.PlayState() != st.state {
			t.Errorf("after %s(%v): frame %d state %d, want frame %d state %d",
				st.method, st.args, clip.CurrentFrame(), clip.PlayState(), st.frame, st.state)
		}
	}
}

func TestMovieClipDepthNatives(t *testing.T) {
	s, _ := newTestStage(t, Options{})
	root := withRoot(t, s)
	v := s.VM()
	r := root.Object()

	kidVal, _ := r.CallMethod("createEmptyMovieClip", vm.String("kid"), vm.Int(5))
	kid := kidVal.Object()
	if kid == nil {
		t.Fatalf("createEmptyMovieClip returned %s", kidVal)
	}
	depth := func(o *vm.Object) int {
		d, _ := o.CallMethod("getDepth")
		return d.ToInt()
	}
	if depth(kid) != 5 {
		t.Errorf("getDepth = %d, want 5", depth(kid))
	}
	if next, _ := r.CallMethod("getNextHighestDepth"); next.ToInt() != 6 {
		t.Errorf("getNextHighestDepth = %s, want 6", next)
	}

	kid.CallMethod("swapDepths", vm.Int(10))
	if depth(kid) != 10 {
		t.Errorf("depth after swapDepths = %d, want 10", depth(kid))
	}

	initObj := v.NewObject()
	initObj.Set("speed", vm.Int(3))
	dupVal, _ := kid.CallMethod("duplicateMovieClip", vm.String("twin"), vm.Int(11), vm.ObjectValue(initObj))
	dup := dupVal.Object()
	if dup == nil {
		t.Fatalf("duplicateMovieClip returned %s", dupVal)
	}
	if dup.Get("speed").ToInt() != 3 || dup.Get("_name").ToString() != "twin" {
		t.Errorf("duplicate has speed %s, name %s", dup.Get("speed"), dup.Get("_name"))
	}

	kid.CallMethod("swapDepths", dupVal)
	if depth(kid) != 11 || depth(dup) != 10 {
		t.Errorf("depths after swapping with a sibling: %d, %d", depth(kid), depth(dup))
	}

	dup.CallMethod("removeMovieClip")
	if !r.Get("twin").IsUndefined() {
		t.Errorf("removed clip still reachable by name")
	}

	mask := root.CreateEmptyMovieClip("mask", 20)
	if ok, _ := kid.CallMethod("setMask", vm.ObjectValue(mask.Object())); !ok.ToBool(8) {
		t.Errorf("setMask returned false")
	}
	if !mask.IsDynamicMask() {
		t.Errorf("mask not registered")
	}
	kid.CallMethod("setMask", vm.Null)
	if mask.IsDynamicMask() {
		t.Errorf("mask still registered after setMask(null)")
	}

	kid.CallMethod("startDrag", vm.True, vm.Int(0), vm.Int(0), vm.Int(10), vm.Int(10))
	if s.DraggingCharacter() == nil || s.DraggingCharacter().Base().Object() != kid {
		t.Errorf("startDrag did not start dragging the clip")
	}
	kid.CallMethod("stopDrag")
	if s.DraggingCharacter() != nil {
		t.Errorf("stopDrag left a drag in progress")
	}
}

func TestSharedObjectNatives(t *testing.T) {
	lib, err := lso.Open(filepath.Join(t.TempDir(), "lso.db"))
	if err != nil {
		t.Fatalf("lso.Open: %v", err)
	}
	s, _ := newTestStage(t, Options{SharedObjects: lib})
	withRoot(t, s)
	v := s.VM()
	so := v.Global().Get("SharedObject").Object()

	prefsVal, _ := so.CallMethod("getLocal", vm.String("prefs"))
	prefs := prefsVal.Object()
	if prefs == nil {
		t.Fatalf("getLocal returned %s", prefsVal)
	}
	again, _ := so.CallMethod("getLocal", vm.String("prefs"))
	if again.Object() != prefs {
		t.Errorf("second getLocal returned a different object")
	}

	data := prefs.Get("data").Object()
	data.Set("volume", vm.Int(7))
	if ok, _ := prefs.CallMethod("flush"); !ok.ToBool(8) {
		t.Fatalf("flush returned false")
	}
	stored, err := lib.Load("prefs", "/movies/main.swf")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"volume": 7.0}, stored); diff != "" {
		t.Errorf("stored data mismatch (-want +got):\n%s", diff)
	}
	if size, _ := prefs.CallMethod("getSize"); size.ToInt() <= 0 {
		t.Errorf("getSize = %s", size)
	}

	prefs.CallMethod("clear")
	if !data.Get("volume").IsUndefined() {
		t.Errorf("clear left volume behind")
	}

	bad, _ := so.CallMethod("getLocal", vm.String("no spaces"))
	if !bad.IsNull() {
		t.Errorf("getLocal with an invalid name returned %s", bad)
	}
	scoped, _ := so.CallMethod("getLocal", vm.String("prefs"), vm.String("/"))
	if scoped.Object() == prefs {
		t.Errorf("explicit root shared the default root's object")
	}
}

func TestSharedObjectsFlushedOnReset(t *testing.T) {
	lib, err := lso.Open(filepath.Join(t.TempDir(), "lso.db"))
	if err != nil {
		t.Fatalf("lso.Open: %v", err)
	}
	s, _ := newTestStage(t, Options{SharedObjects: lib})
	withRoot(t, s)
	so := s.VM().Global().Get("SharedObject").Object()
	val, _ := so.CallMethod("getLocal", vm.String("save"), vm.String("/"))
	val.Object().Get("data").Object().Set("level", vm.Int(4))

	s.Reset()

	stored, err := lib.Load("save", "/")
	if err != nil {
		t.Fatalf("Load after Reset: %v", err)
	}
	if stored["level"] != 4.0 {
		t.Errorf("stored level = %v, want 4", stored["level"])
	}
}

func TestSharedObjectWithoutStorage(t *testing.T) {
	s, _ := newTestStage(t, Options{})
	so := s.VM().Global().Get("SharedObject").Object()
	if val, _ := so.CallMethod("getLocal", vm.String("prefs")); !val.IsNull() {
		t.Errorf("getLocal without storage returned %s", val)
	}
}

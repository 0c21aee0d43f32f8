package display

import (
	"github.com/chazu/kestrel/vm"
)

// testStage is a minimal scheduler: one FIFO per priority, drained
// lowest level first.
type testStage struct {
	vm     *vm.VM
	queues [NumActionLevels][]ExecutableCode
	live   []Character
	levels map[int]*Movie
	root   *Movie
	mouseX float64
	mouseY float64
	proto  *vm.Object
}

func newTestStage(version int) *testStage {
	v := vm.NewVM(version, &vm.ManualClock{})
	return &testStage{
		vm:     v,
		levels: make(map[int]*Movie),
		proto:  v.NewObject(),
	}
}

func (s *testStage) VM() *vm.VM { return s.vm }

func (s *testStage) PushAction(code ExecutableCode, lvl ActionLevel) {
	s.queues[lvl] = append(s.queues[lvl], code)
}

func (s *testStage) RemoveQueuedConstructor(ch Character) {
	for lvl, q := range s.queues {
		kept := q[:0]
		for _, code := range q {
			if IsConstructEvent(code) && code.Target().Base() == ch.Base() {
				continue
			}
			kept = append(kept, code)
		}
		s.queues[lvl] = kept
	}
}

func (s *testStage) AddLiveChar(ch Character) { s.live = append(s.live, ch) }
func (s *testStage) RootMovie() *Movie        { return s.root }
func (s *testStage) Level(n int) *Movie       { return s.levels[LevelDepth(n)] }

func (s *testStage) SetLevel(n int, m *Movie) {
	m.SetDepth(LevelDepth(n))
	if old := s.levels[m.Depth()]; old != nil {
		old.Destroy()
	}
	s.levels[m.Depth()] = m
	if n == 0 {
		s.root = m
	}
	m.Construct(nil)
}

func (s *testStage) DropLevel(depth int) {
	if m := s.levels[depth]; m != nil {
		m.Unload()
		m.Destroy()
		delete(s.levels, depth)
	}
}

func (s *testStage) SwapLevels(m *Movie, depth int) {
	delete(s.levels, m.Depth())
	m.SetDepth(depth)
	s.levels[depth] = m
}

func (s *testStage) MousePosition() (float64, float64) { return s.mouseX, s.mouseY }
func (s *testStage) ClipPrototype() *vm.Object         { return s.proto }

func (s *testStage) drain() {
	for {
		lvl := -1
		for i := range s.queues {
			if len(s.queues[i]) > 0 {
				lvl = i
				break
			}
		}
		if lvl < 0 {
			return
		}
		code := s.queues[lvl][0]
		s.queues[lvl] = s.queues[lvl][1:]
		code.Execute()
	}
}

// queued counts pending notifications of kind for ch.
func (s *testStage) queued(ch Character, kind EventKind) int {
	n := 0
	for _, q := range s.queues {
		for _, code := range q {
			if ev, ok := code.(*QueuedEvent); ok && ev.Event.Kind == kind && ev.Owner.Base() == ch.Base() {
				n++
			}
		}
	}
	return n
}

// rootMovie installs an empty movie as _level0.
func (s *testStage) rootMovie() *Movie {
	m := NewMovie(s, &MovieDefinition{Version: s.vm.Version(), FrameSize: NewRect(0, 0, 550, 400), URL: "file:///main.swf"})
	s.SetLevel(0, m)
	return m
}

// recorder is a function that counts its calls.
func recorder(v *vm.VM, calls *[]string, tag string) *vm.Object {
	return v.NewFunction(func(fn *vm.FnCall) vm.Value {
		*calls = append(*calls, tag)
		return vm.Undefined
	})
}

type recordingRenderer struct {
	ops []string
}

func (r *recordingRenderer) DrawCharacter(ch Character, world Transform) {
	r.ops = append(r.ops, "draw "+ch.Base().Name())
}
func (r *recordingRenderer) BeginSubmitMask() { r.ops = append(r.ops, "begin-mask") }
func (r *recordingRenderer) EndSubmitMask()   { r.ops = append(r.ops, "end-mask") }
func (r *recordingRenderer) DisableMask()     { r.ops = append(r.ops, "disable-mask") }

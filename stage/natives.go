package stage

import (
	"math"
	"net/url"
	"strconv"

	"github.com/chazu/kestrel/display"
	"github.com/chazu/kestrel/lso"
	"github.com/chazu/kestrel/vm"
)

// Host commands for Mouse.show and Mouse.hide.
const (
	HostShowMouse = "Mouse.show"
	HostHideMouse = "Mouse.hide"
)

var nativeMethod = vm.Flags(vm.DontEnum | vm.DontDelete)

// builtins are the script globals the stage itself implements.
type builtins struct {
	clipProto *vm.Object
	mouse     *vm.Object
	key       *vm.Object
	selection *vm.Object

	mouseHidden bool

	sharedProto   *vm.Object
	sharedObjects map[*vm.Object]*lso.SharedObject
}

func (b *builtins) markReachableResources(c *vm.Collector) {
	c.Mark(b.clipProto)
	c.Mark(b.mouse)
	c.Mark(b.key)
	c.Mark(b.selection)
	c.Mark(b.sharedProto)
	for o := range b.sharedObjects {
		c.Mark(o)
	}
}

// ClipPrototype returns MovieClip.prototype.
func (s *Stage) ClipPrototype() *vm.Object { return s.builtins.clipProto }

func (s *Stage) installBuiltins() {
	g := s.vm.Global()
	s.builtins.key = s.installKey(g)
	s.builtins.mouse = s.installMouse(g)
	s.builtins.selection = s.installSelection(g)
	s.installTimers(g)
	s.builtins.clipProto = s.installMovieClip(g)
	s.installMovieClipLoader(g)
	s.installSharedObject(g)
}

// ---------------------------------------------------------------------------
// Broadcasters
// ---------------------------------------------------------------------------

// broadcaster is the listener list behind Key, Mouse, Selection and
// MovieClipLoader objects.
type broadcaster struct {
	listeners []*vm.Object
}

func (b *broadcaster) Clean() { b.listeners = nil }

func (b *broadcaster) MarkReachableResources(c *vm.Collector) {
	for _, l := range b.listeners {
		c.Mark(l)
	}
}

func (b *broadcaster) add(o *vm.Object) bool {
	for _, l := range b.listeners {
		if l == o {
			return false
		}
	}
	b.listeners = append(b.listeners, o)
	return true
}

func (b *broadcaster) remove(o *vm.Object) bool {
	for i, l := range b.listeners {
		if l == o {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of listeners.
func (b *broadcaster) Len() int { return len(b.listeners) }

// broadcast calls name on every listener of o. Listeners added or
// removed by a callback take effect on the next broadcast.
func broadcast(o *vm.Object, name string, args ...vm.Value) {
	b, ok := o.Relay().(*broadcaster)
	if !ok {
		return
	}
	listeners := append([]*vm.Object(nil), b.listeners...)
	for _, l := range listeners {
		l.CallMethod(name, args...)
	}
}

func broadcasterOf(fn *vm.FnCall, method string) *broadcaster {
	if fn.This != nil {
		if b, ok := fn.This.Relay().(*broadcaster); ok {
			return b
		}
	}
	asCodingLog.Warningf("%s called on an object that is not a broadcaster", method)
	return nil
}

func addListener(fn *vm.FnCall) vm.Value {
	b := broadcasterOf(fn, "addListener")
	l := fn.Arg(0).Object()
	if b == nil || l == nil {
		return vm.False
	}
	b.add(l)
	return vm.True
}

func removeListener(fn *vm.FnCall) vm.Value {
	b := broadcasterOf(fn, "removeListener")
	l := fn.Arg(0).Object()
	if b == nil || l == nil {
		return vm.False
	}
	return vm.Bool(b.remove(l))
}

func broadcastMessage(fn *vm.FnCall) vm.Value {
	if fn.NArgs() < 1 || broadcasterOf(fn, "broadcastMessage") == nil {
		return vm.Undefined
	}
	broadcast(fn.This, fn.Arg(0).ToString(), fn.Args[1:]...)
	return vm.Undefined
}

func initBroadcasterMethods(v *vm.VM, o *vm.Object) {
	v.InitMethod(o, "addListener", addListener, nativeMethod)
	v.InitMethod(o, "removeListener", removeListener, nativeMethod)
	v.InitMethod(o, "broadcastMessage", broadcastMessage, nativeMethod)
}

// newBroadcaster creates an object with its own listener list.
func newBroadcaster(v *vm.VM) *vm.Object {
	o := v.NewObject()
	o.SetRelay(&broadcaster{})
	initBroadcasterMethods(v, o)
	return o
}

// ---------------------------------------------------------------------------
// Mouse and Selection
// ---------------------------------------------------------------------------

func (s *Stage) installMouse(g *vm.Object) *vm.Object {
	v := s.vm
	mouse := newBroadcaster(v)
	v.InitMethod(mouse, "show", func(fn *vm.FnCall) vm.Value {
		return vm.Bool(s.setMouseVisible(true))
	}, nativeMethod)
	v.InitMethod(mouse, "hide", func(fn *vm.FnCall) vm.Value {
		return vm.Bool(s.setMouseVisible(false))
	}, nativeMethod)
	g.InitMember(v.URI("Mouse"), vm.ObjectValue(mouse), nativeMethod)
	return mouse
}

// setMouseVisible shows or hides the pointer and reports whether it was
// visible before.
func (s *Stage) setMouseVisible(show bool) bool {
	was := !s.builtins.mouseHidden
	s.builtins.mouseHidden = !show
	if s.host != nil {
		cmd := HostHideMouse
		if show {
			cmd = HostShowMouse
		}
		s.host.Call(cmd, "")
	}
	return was
}

func (s *Stage) installSelection(g *vm.Object) *vm.Object {
	v := s.vm
	sel := newBroadcaster(v)
	v.InitMethod(sel, "getFocus", func(fn *vm.FnCall) vm.Value {
		if s.focus == nil {
			return vm.Null
		}
		return vm.String(s.focus.Base().TargetPath())
	}, nativeMethod)
	v.InitMethod(sel, "setFocus", func(fn *vm.FnCall) vm.Value {
		arg := fn.Arg(0)
		if arg.IsNull() || arg.IsUndefined() {
			return vm.Bool(s.SetFocus(nil))
		}
		var to display.Character
		if o := arg.Object(); o != nil {
			to = characterOf(o)
		} else {
			to = s.FindCharacterByTarget(arg.ToString())
		}
		if to == nil {
			asCodingLog.Warningf("Selection.setFocus(%s): not a display object", arg)
			return vm.False
		}
		return vm.Bool(s.SetFocus(to))
	}, nativeMethod)
	g.InitMember(v.URI("Selection"), vm.ObjectValue(sel), nativeMethod)
	return sel
}

// ---------------------------------------------------------------------------
// Timers
// ---------------------------------------------------------------------------

func (s *Stage) installTimers(g *vm.Object) {
	v := s.vm
	v.InitMethod(g, "setInterval", s.timerNative("setInterval", false), nativeMethod)
	v.InitMethod(g, "setTimeout", s.timerNative("setTimeout", true), nativeMethod)
	v.InitMethod(g, "clearInterval", s.clearTimerNative, nativeMethod)
	v.InitMethod(g, "clearTimeout", s.clearTimerNative, nativeMethod)
}

// timerNative accepts (function, interval, args...) or
// (object, methodName, interval, args...).
func (s *Stage) timerNative(name string, runOnce bool) vm.NativeFunction {
	return func(fn *vm.FnCall) vm.Value {
		first := fn.Arg(0).Object()
		if first == nil || fn.NArgs() < 2 {
			asCodingLog.Warningf("%s(%v): invalid arguments", name, fn.Args)
			return vm.Undefined
		}
		var t *Timer
		if first.IsFunction() {
			t = NewFunctionTimer(first, interval(fn.Arg(1)), extraArgs(fn, 2), runOnce)
		} else {
			if fn.NArgs() < 3 {
				asCodingLog.Warningf("%s(%v): missing interval", name, fn.Args)
				return vm.Undefined
			}
			t = NewMethodTimer(first, fn.Arg(1).ToString(), interval(fn.Arg(2)), extraArgs(fn, 3), runOnce)
		}
		return vm.Int(s.AddIntervalTimer(t))
	}
}

func (s *Stage) clearTimerNative(fn *vm.FnCall) vm.Value {
	return vm.Bool(s.ClearIntervalTimer(fn.Arg(0).ToInt()))
}

func interval(v vm.Value) uint64 {
	ms := v.ToNumber()
	if math.IsNaN(ms) || ms < 0 {
		return 0
	}
	return uint64(ms)
}

func extraArgs(fn *vm.FnCall, from int) []vm.Value {
	if fn.NArgs() <= from {
		return nil
	}
	return append([]vm.Value(nil), fn.Args[from:]...)
}

// ---------------------------------------------------------------------------
// MovieClip
// ---------------------------------------------------------------------------

func (s *Stage) installMovieClip(g *vm.Object) *vm.Object {
	v := s.vm
	ctor := v.NewFunction(func(fn *vm.FnCall) vm.Value { return vm.Undefined })
	proto := ctor.Get("prototype").Object()
	g.InitMember(v.URI("MovieClip"), vm.ObjectValue(ctor), nativeMethod)

	method := func(name string, impl func(fn *vm.FnCall, mc *display.MovieClip) vm.Value) {
		v.InitMethod(proto, name, func(fn *vm.FnCall) vm.Value {
			mc := clipOf(characterOf(fn.This))
			if mc == nil {
				asCodingLog.Warningf("MovieClip.%s called on a non-clip", name)
				return vm.Undefined
			}
			return impl(fn, mc)
		}, nativeMethod)
	}

	method("play", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		mc.Play()
		return vm.Undefined
	})
	method("stop", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		mc.Stop()
		return vm.Undefined
	})
	method("nextFrame", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		mc.GotoFrame(mc.CurrentFrame() + 1)
		mc.Stop()
		return vm.Undefined
	})
	method("prevFrame", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		mc.GotoFrame(mc.CurrentFrame() - 1)
		mc.Stop()
		return vm.Undefined
	})
	method("gotoAndPlay", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		if f, ok := frameArg(fn); ok {
			mc.GotoFrame(f)
			mc.Play()
		}
		return vm.Undefined
	})
	method("gotoAndStop", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		if f, ok := frameArg(fn); ok {
			mc.GotoFrame(f)
			mc.Stop()
		}
		return vm.Undefined
	})
	method("createEmptyMovieClip", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		if fn.NArgs() < 2 {
			asCodingLog.Warningf("createEmptyMovieClip(%v): needs a name and a depth", fn.Args)
			return vm.Undefined
		}
		child := mc.CreateEmptyMovieClip(fn.Arg(0).ToString(), fn.Arg(1).ToInt())
		return vm.ObjectValue(child.Object())
	})
	method("duplicateMovieClip", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		if fn.NArgs() < 2 {
			asCodingLog.Warningf("duplicateMovieClip(%v): needs a name and a depth", fn.Args)
			return vm.Undefined
		}
		dup := mc.DuplicateMovieClip(fn.Arg(0).ToString(), fn.Arg(1).ToInt(), fn.Arg(2).Object())
		if dup == nil {
			return vm.Undefined
		}
		return vm.ObjectValue(dup.Object())
	})
	method("removeMovieClip", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		mc.RemoveMovieClip()
		return vm.Undefined
	})
	method("swapDepths", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		depth := fn.Arg(0).ToInt()
		if other := characterOf(fn.Arg(0).Object()); other != nil {
			if other.Base().Parent() != mc.Parent() {
				asCodingLog.Warningf("%s.swapDepths(%s): not a sibling", mc.Target(), other.Base().Target())
				return vm.Undefined
			}
			depth = other.Base().Depth()
		}
		mc.SwapDepths(depth)
		return vm.Undefined
	})
	method("getNextHighestDepth", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		return vm.Int(mc.DisplayList().NextHighestDepth())
	})
	method("getDepth", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		return vm.Int(mc.Depth())
	})
	method("loadMovie", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		if _, err := s.LoadMovie(fn.Arg(0).ToString(), mc.Target(), nil, nil); err != nil {
			log.Errorf("%s.loadMovie: %s", mc.Target(), err)
		}
		return vm.Undefined
	})
	method("startDrag", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		d := DragState{Character: mc.Self(), LockCenter: fn.Arg(0).ToBool(v.Version())}
		if fn.NArgs() >= 5 {
			r := display.NewRect(fn.Arg(1).ToNumber(), fn.Arg(2).ToNumber(), fn.Arg(3).ToNumber(), fn.Arg(4).ToNumber())
			d.Bounds = &r
		}
		s.StartDrag(d)
		return vm.Undefined
	})
	method("stopDrag", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		s.StopDrag()
		return vm.Undefined
	})
	method("setMask", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		arg := fn.Arg(0)
		if arg.IsNull() || arg.IsUndefined() {
			mc.SetMask(nil)
			return vm.True
		}
		mask := characterOf(arg.Object())
		if mask == nil {
			asCodingLog.Warningf("%s.setMask(%s): not a display object", mc.Target(), arg)
			return vm.False
		}
		mc.SetMask(mask)
		return vm.True
	})
	method("getBytesLoaded", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		if m := mc.Movie(); m != nil {
			return vm.Int(m.BytesLoaded())
		}
		return vm.Int(0)
	})
	method("getBytesTotal", func(fn *vm.FnCall, mc *display.MovieClip) vm.Value {
		if m := mc.Movie(); m != nil {
			return vm.Int(m.BytesTotal())
		}
		return vm.Int(0)
	})
	return proto
}

// frameArg reads a one-based frame number. Frame labels are not
// supported.
func frameArg(fn *vm.FnCall) (int, bool) {
	arg := fn.Arg(0)
	if arg.IsString() {
		if n, err := strconv.Atoi(arg.ToString()); err == nil {
			return n - 1, true
		}
		asCodingLog.Warningf("frame label %q not found", arg.ToString())
		return 0, false
	}
	return arg.ToInt() - 1, true
}

// ---------------------------------------------------------------------------
// MovieClipLoader
// ---------------------------------------------------------------------------

func (s *Stage) installMovieClipLoader(g *vm.Object) {
	v := s.vm
	ctor := v.NewFunction(func(fn *vm.FnCall) vm.Value {
		if fn.This == nil {
			return vm.Undefined
		}
		b := &broadcaster{}
		fn.This.SetRelay(b)
		b.add(fn.This)
		return vm.Undefined
	})
	proto := ctor.Get("prototype").Object()
	initBroadcasterMethods(v, proto)

	v.InitMethod(proto, "loadClip", func(fn *vm.FnCall) vm.Value {
		if fn.NArgs() < 2 {
			asCodingLog.Warningf("MovieClipLoader.loadClip(%v): needs a url and a target", fn.Args)
			return vm.False
		}
		target := loadTarget(fn.Arg(1))
		if target == "" {
			asCodingLog.Warningf("MovieClipLoader.loadClip: invalid target %s", fn.Arg(1))
			return vm.False
		}
		if _, err := s.LoadMovie(fn.Arg(0).ToString(), target, nil, fn.This); err != nil {
			log.Errorf("MovieClipLoader.loadClip: %s", err)
			return vm.False
		}
		return vm.True
	}, nativeMethod)
	v.InitMethod(proto, "unloadClip", func(fn *vm.FnCall) vm.Value {
		ch := characterOf(fn.Arg(0).Object())
		if ch == nil {
			ch = s.FindCharacterByTarget(loadTarget(fn.Arg(0)))
		}
		mc := clipOf(ch)
		if mc == nil {
			return vm.False
		}
		mc.RemoveMovieClip()
		return vm.True
	}, nativeMethod)

	g.InitMember(v.URI("MovieClipLoader"), vm.ObjectValue(ctor), nativeMethod)
}

// loadTarget turns a loadClip target into a path: a clip, a level
// number or a path string.
func loadTarget(arg vm.Value) string {
	if ch := characterOf(arg.Object()); ch != nil {
		return ch.Base().Target()
	}
	if arg.IsNumber() {
		return "_level" + strconv.Itoa(arg.ToInt())
	}
	return arg.ToString()
}

// ---------------------------------------------------------------------------
// SharedObject
// ---------------------------------------------------------------------------

func (s *Stage) installSharedObject(g *vm.Object) {
	v := s.vm
	ctor := v.NewFunction(func(fn *vm.FnCall) vm.Value { return vm.Undefined })
	proto := ctor.Get("prototype").Object()
	s.builtins.sharedProto = proto
	s.builtins.sharedObjects = make(map[*vm.Object]*lso.SharedObject)

	v.InitMethod(ctor, "getLocal", func(fn *vm.FnCall) vm.Value {
		if s.shared == nil {
			log.Warningf("SharedObject.getLocal: no shared object storage configured")
			return vm.Null
		}
		root := ""
		if fn.NArgs() > 1 && !fn.Arg(1).IsUndefined() {
			root = fn.Arg(1).ToString()
		} else if s.root != nil {
			root = moviePath(s.root.URL())
		}
		so, err := s.shared.GetLocal(v, fn.Arg(0).ToString(), root)
		if err != nil {
			asCodingLog.Warningf("SharedObject.getLocal(%s): %s", fn.Arg(0), err)
			return vm.Null
		}
		return vm.ObjectValue(s.sharedObjectFor(so))
	}, nativeMethod)

	method := func(name string, impl func(so *lso.SharedObject) vm.Value) {
		v.InitMethod(proto, name, func(fn *vm.FnCall) vm.Value {
			so, ok := s.builtins.sharedObjects[fn.This]
			if !ok {
				asCodingLog.Warningf("SharedObject.%s called on a non-SharedObject", name)
				return vm.Undefined
			}
			return impl(so)
		}, nativeMethod)
	}
	method("flush", func(so *lso.SharedObject) vm.Value {
		if err := so.Flush(); err != nil {
			log.Errorf("SharedObject.flush(%s): %s", so.Name(), err)
			return vm.False
		}
		return vm.True
	})
	method("clear", func(so *lso.SharedObject) vm.Value {
		if err := so.Clear(); err != nil {
			log.Errorf("SharedObject.clear(%s): %s", so.Name(), err)
		}
		return vm.Undefined
	})
	method("getSize", func(so *lso.SharedObject) vm.Value {
		n, err := so.Size()
		if err != nil {
			log.Errorf("SharedObject.getSize(%s): %s", so.Name(), err)
			return vm.Int(0)
		}
		return vm.Int(n)
	})

	g.InitMember(v.URI("SharedObject"), vm.ObjectValue(ctor), nativeMethod)
}

// sharedObjectFor returns the script object wrapping so, creating it on
// first use so that repeated getLocal calls see the same object.
func (s *Stage) sharedObjectFor(so *lso.SharedObject) *vm.Object {
	for o, known := range s.builtins.sharedObjects {
		if known == so {
			return o
		}
	}
	v := s.vm
	o := v.NewObjectWithProto(s.builtins.sharedProto)
	o.InitMember(v.URI("data"), vm.ObjectValue(so.Data()), vm.Flags(vm.DontDelete|vm.ReadOnly))
	s.builtins.sharedObjects[o] = so
	return o
}

// moviePath returns the path part of a movie URL, the default shared
// object root.
func moviePath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

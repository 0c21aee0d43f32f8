package display

import (
	"math"

	"github.com/chazu/kestrel/vm"
)

// Script-visible node properties. They are computed from node state, not
// stored on the script object, and their names match without case in
// every version.

type displayProp struct {
	get func(d *DisplayObject) vm.Value
	// set is nil for read-only properties
	set func(d *DisplayObject, v vm.Value)
}

var displayProps = map[string]displayProp{
	"_x":            {getX, setX},
	"_y":            {getY, setY},
	"_xscale":       {getXScale, setXScale},
	"_yscale":       {getYScale, setYScale},
	"_rotation":     {getRotation, setRotation},
	"_alpha":        {getAlpha, setAlpha},
	"_visible":      {getVisible, setVisible},
	"_width":        {getWidth, setWidth},
	"_height":       {getHeight, setHeight},
	"_name":         {getName, setName},
	"_target":       {getTarget, nil},
	"_parent":       {getParent, nil},
	"_currentframe": {getCurrentFrame, nil},
	"_totalframes":  {getTotalFrames, nil},
	"_framesloaded": {getFramesLoaded, nil},
	"_droptarget":   {getDropTarget, nil},
	"_url":          {getURL, nil},
	"_xmouse":       {getMouseX, nil},
	"_ymouse":       {getMouseY, nil},
}

type childFinder interface {
	ChildByURI(uri vm.ObjectURI) Character
}

type frameCounter interface {
	CurrentFrame() int
	FrameCount() int
	FramesLoaded() int
}

func (d *DisplayObject) lookupProp(uri vm.ObjectURI) (displayProp, bool) {
	st := d.VM().Strings()
	p, ok := displayProps[st.Value(st.NoCase(uri.Name))]
	return p, ok
}

// GetMagic resolves _levelN, child names, _root, _global and the
// display properties, in that order.
func (d *DisplayObject) GetMagic(uri vm.ObjectURI) (vm.Value, bool) {
	v := d.VM()
	name := v.Name(uri)
	version := v.Version()

	if n, ok := IsLevelTarget(version, name); ok {
		if m := d.stage.Level(n); m != nil {
			return vm.ObjectValue(m.object), true
		}
	}
	if cf, ok := d.self.(childFinder); ok {
		if ch := cf.ChildByURI(uri); ch != nil && ch.Base().object != nil {
			return vm.ObjectValue(ch.Base().object), true
		}
	}

	caseless := version < 7
	switch {
	case uri.Equal(v.Strings(), v.URI("_root"), caseless):
		return vm.ObjectValue(d.TopLevel().Base().object), true
	case version >= 6 && uri.Equal(v.Strings(), v.URI("_global"), caseless):
		return vm.ObjectValue(v.Global()), true
	}

	p, ok := d.lookupProp(uri)
	if !ok {
		return vm.Undefined, false
	}
	return p.get(d), true
}

// SetMagic assigns a display property. Read-only ones swallow the
// assignment with a coding error.
func (d *DisplayObject) SetMagic(uri vm.ObjectURI, val vm.Value) bool {
	p, ok := d.lookupProp(uri)
	if !ok {
		return false
	}
	if p.set == nil {
		asCodingLog.Warningf("attempt to set read-only property %s.%s", d.Target(), d.VM().Name(uri))
		return true
	}
	p.set(d, val)
	return true
}

// VisitNonProperties has nothing to report for plain nodes.
func (d *DisplayObject) VisitNonProperties(fn func(uri vm.ObjectURI)) {}

// numberArg converts val and rejects NaN with a coding error.
func numberArg(d *DisplayObject, prop string, val vm.Value) (float64, bool) {
	n := val.ToNumber()
	if math.IsNaN(n) {
		asCodingLog.Warningf("%s.%s: ignoring NaN (%v)", d.Target(), prop, val)
		return 0, false
	}
	return n, true
}

func getX(d *DisplayObject) vm.Value        { return vm.Number(d.X()) }
func getY(d *DisplayObject) vm.Value        { return vm.Number(d.Y()) }
func getXScale(d *DisplayObject) vm.Value   { return vm.Number(d.xscale) }
func getYScale(d *DisplayObject) vm.Value   { return vm.Number(d.yscale) }
func getRotation(d *DisplayObject) vm.Value { return vm.Number(d.rotation) }
func getAlpha(d *DisplayObject) vm.Value    { return vm.Number(d.cxform.AA * 100) }
func getVisible(d *DisplayObject) vm.Value  { return vm.Bool(d.visible) }
func getWidth(d *DisplayObject) vm.Value    { return vm.Number(d.Width()) }
func getHeight(d *DisplayObject) vm.Value   { return vm.Number(d.Height()) }
func getName(d *DisplayObject) vm.Value     { return vm.String(d.name) }
func getTarget(d *DisplayObject) vm.Value   { return vm.String(d.TargetPath()) }

func setX(d *DisplayObject, val vm.Value) {
	if n, ok := numberArg(d, "_x", val); ok {
		d.SetX(n)
	}
}

func setY(d *DisplayObject, val vm.Value) {
	if n, ok := numberArg(d, "_y", val); ok {
		d.SetY(n)
	}
}

func setXScale(d *DisplayObject, val vm.Value) {
	if n, ok := numberArg(d, "_xscale", val); ok {
		d.SetScaleX(n)
	}
}

func setYScale(d *DisplayObject, val vm.Value) {
	if n, ok := numberArg(d, "_yscale", val); ok {
		d.SetScaleY(n)
	}
}

func setRotation(d *DisplayObject, val vm.Value) {
	if n, ok := numberArg(d, "_rotation", val); ok {
		d.SetRotation(n)
	}
}

func setAlpha(d *DisplayObject, val vm.Value) {
	n, ok := numberArg(d, "_alpha", val)
	if !ok {
		return
	}
	cx := d.cxform
	cx.AA = infiniteToZero(n) / 100
	d.SetCxForm(cx)
	d.markTransformed()
}

// setVisible goes through a number so the string "0" hides the node;
// NaN and infinities count as true.
func setVisible(d *DisplayObject, val vm.Value) {
	n := val.ToNumber()
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 1
	}
	d.SetVisible(n != 0)
	d.markTransformed()
}

func setWidth(d *DisplayObject, val vm.Value) {
	n, ok := numberArg(d, "_width", val)
	if !ok {
		return
	}
	if n <= 0 {
		asCodingLog.Warningf("%s._width = %v", d.Target(), n)
	}
	d.SetWidth(n)
}

func setHeight(d *DisplayObject, val vm.Value) {
	n, ok := numberArg(d, "_height", val)
	if !ok {
		return
	}
	if n <= 0 {
		asCodingLog.Warningf("%s._height = %v", d.Target(), n)
	}
	d.SetHeight(n)
}

func setName(d *DisplayObject, val vm.Value) {
	d.SetName(val.ToString())
}

func getParent(d *DisplayObject) vm.Value {
	if d.parent == nil {
		return vm.Undefined
	}
	return vm.ObjectValue(d.parent.object)
}

func getCurrentFrame(d *DisplayObject) vm.Value {
	if fc, ok := d.self.(frameCounter); ok {
		return vm.Int(fc.CurrentFrame() + 1)
	}
	return vm.Undefined
}

func getTotalFrames(d *DisplayObject) vm.Value {
	if fc, ok := d.self.(frameCounter); ok {
		return vm.Int(fc.FrameCount())
	}
	return vm.Undefined
}

func getFramesLoaded(d *DisplayObject) vm.Value {
	if fc, ok := d.self.(frameCounter); ok {
		return vm.Int(fc.FramesLoaded())
	}
	return vm.Undefined
}

func getDropTarget(d *DisplayObject) vm.Value {
	if mc, ok := d.self.(interface{ DropTarget() string }); ok {
		return vm.String(mc.DropTarget())
	}
	return vm.Undefined
}

func getURL(d *DisplayObject) vm.Value {
	if m := d.Movie(); m != nil {
		return vm.String(m.URL())
	}
	return vm.Undefined
}

func (d *DisplayObject) localMouse() (float64, float64) {
	x, y := d.stage.MousePosition()
	return d.WorldMatrix().Invert().Transform(x, y)
}

func getMouseX(d *DisplayObject) vm.Value {
	x, _ := d.localMouse()
	return vm.Number(x)
}

func getMouseY(d *DisplayObject) vm.Value {
	_, y := d.localMouse()
	return vm.Number(y)
}

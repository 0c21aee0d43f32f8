package display

import "math"

// Transform pairs a matrix with a colour transform.
type Transform struct {
	Matrix Matrix
	CxForm ColorTransform
}

// IdentityTransform changes nothing.
var IdentityTransform = Transform{Matrix: Identity, CxForm: IdentityCxForm}

// Concat returns t applied after inner.
func (t Transform) Concat(inner Transform) Transform {
	return Transform{
		Matrix: t.Matrix.Concat(inner.Matrix),
		CxForm: t.CxForm.Concat(inner.CxForm),
	}
}

// Transform returns the node's local transform.
func (d *DisplayObject) Transform() Transform {
	return Transform{Matrix: d.matrix, CxForm: d.cxform}
}

// Matrix returns the local matrix.
func (d *DisplayObject) Matrix() Matrix { return d.matrix }

// WorldMatrix returns the matrix mapping local coordinates to the stage.
func (d *DisplayObject) WorldMatrix() Matrix {
	m := d.matrix
	for p := d.parent; p != nil; p = p.parent {
		m = p.matrix.Concat(m)
	}
	return m
}

func (d *DisplayObject) CxForm() ColorTransform { return d.cxform }

// WorldCxForm returns the colour transform combined with every ancestor's.
func (d *DisplayObject) WorldCxForm() ColorTransform {
	cx := d.cxform
	for p := d.parent; p != nil; p = p.parent {
		cx = p.cxform.Concat(cx)
	}
	return cx
}

func (d *DisplayObject) SetCxForm(cx ColorTransform) {
	if cx == d.cxform {
		return
	}
	d.SetInvalidated()
	d.cxform = cx
}

// SetMatrix replaces the local matrix. With updateCache the cached
// scale and rotation are decomposed from the new matrix; setters that
// maintain the caches themselves pass false.
func (d *DisplayObject) SetMatrix(m Matrix, updateCache bool) {
	if m == d.matrix {
		return
	}
	d.SetInvalidated()
	d.matrix = m
	if updateCache {
		d.xscale = m.XScale() * 100
		d.yscale = m.YScale() * 100
		d.rotation = m.Rotation() * 180 / math.Pi
	}
}

// ScaleX returns the cached x scale in percent.
func (d *DisplayObject) ScaleX() float64 { return d.xscale }

// ScaleY returns the cached y scale in percent.
func (d *DisplayObject) ScaleY() float64 { return d.yscale }

// Rotation returns the cached rotation in degrees.
func (d *DisplayObject) Rotation() float64 { return d.rotation }

func (d *DisplayObject) X() float64 { return d.matrix.TX }
func (d *DisplayObject) Y() float64 { return d.matrix.TY }

func (d *DisplayObject) markTransformed() { d.transformedByScript = true }

// SetScaleX sets the x scale in percent. A sign change against the
// cached value mirrors the axis; otherwise the magnitude is applied with
// the matrix's current orientation.
func (d *DisplayObject) SetScaleX(percent float64) {
	xscale := percent / 100
	if xscale != 0 && d.xscale != 0 {
		if percent*d.xscale < 0 {
			xscale = -math.Abs(xscale)
		} else {
			xscale = math.Abs(xscale)
		}
	}
	d.xscale = percent

	m := d.matrix
	m.SetXScale(xscale)
	d.SetMatrix(m, false)
	d.markTransformed()
}

// SetScaleY is the y counterpart of SetScaleX.
func (d *DisplayObject) SetScaleY(percent float64) {
	yscale := percent / 100
	if yscale != 0 && d.yscale != 0 {
		if percent*d.yscale < 0 {
			yscale = -math.Abs(yscale)
		} else {
			yscale = math.Abs(yscale)
		}
	}
	d.yscale = percent

	m := d.matrix
	m.SetYScale(yscale)
	d.SetMatrix(m, false)
	d.markTransformed()
}

// SetRotation sets the rotation in degrees, normalised to (-180, 180].
// The reported rotation stays what was asked for even when a negative x
// scale turns the matrix half a turn further.
func (d *DisplayObject) SetRotation(deg float64) {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	rad := deg * math.Pi / 180
	if d.xscale < 0 {
		rad += math.Pi
	}

	m := d.matrix
	m.SetRotation(rad)
	// rebuild the x axis from the cache to keep rounding from piling up
	m.SetXScale(math.Abs(d.xscale / 100))
	d.SetMatrix(m, false)
	d.rotation = deg
	d.markTransformed()
}

// SetX moves the node horizontally, in pixels.
func (d *DisplayObject) SetX(x float64) {
	m := d.matrix
	m.TX = infiniteToZero(x)
	d.SetMatrix(m, false)
	d.markTransformed()
}

// SetY moves the node vertically, in pixels.
func (d *DisplayObject) SetY(y float64) {
	m := d.matrix
	m.TY = infiniteToZero(y)
	d.SetMatrix(m, false)
	d.markTransformed()
}

// Width returns the width of the bounds in the parent's space.
func (d *DisplayObject) Width() float64 {
	return d.matrix.TransformRect(d.self.Bounds()).Width()
}

// Height returns the height of the bounds in the parent's space.
func (d *DisplayObject) Height() float64 {
	return d.matrix.TransformRect(d.self.Bounds()).Height()
}

// SetWidth scales the node so its local bounds span w pixels.
func (d *DisplayObject) SetWidth(w float64) {
	old := d.self.Bounds().Width()
	xscale := 0.0
	if old != 0 {
		xscale = w / old
	}
	m := d.matrix
	m.SetScaleRotation(xscale, m.YScale(), d.rotation*math.Pi/180)
	d.SetMatrix(m, true)
	d.markTransformed()
}

// SetHeight scales the node so its local bounds span h pixels.
func (d *DisplayObject) SetHeight(h float64) {
	old := d.self.Bounds().Height()
	yscale := 0.0
	if old != 0 {
		yscale = h / old
	}
	m := d.matrix
	m.SetScaleRotation(m.XScale(), yscale, d.rotation*math.Pi/180)
	d.SetMatrix(m, true)
	d.markTransformed()
}

func infiniteToZero(f float64) float64 {
	if math.IsInf(f, 0) {
		return 0
	}
	return f
}

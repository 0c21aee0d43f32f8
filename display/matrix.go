package display

import "math"

// Matrix is a 2D affine transform:
//
//	x' = A*x + C*y + TX
//	y' = B*x + D*y + TY
//
// Translation is in pixels.
type Matrix struct {
	A, B, C, D float64
	TX, TY     float64
}

// Identity is the identity transform.
var Identity = Matrix{A: 1, D: 1}

// Translate returns a pure translation.
func Translate(x, y float64) Matrix {
	return Matrix{A: 1, D: 1, TX: x, TY: y}
}

// XScale returns the length of the transformed x unit vector.
func (m Matrix) XScale() float64 { return math.Hypot(m.A, m.B) }

// YScale returns the length of the transformed y unit vector.
func (m Matrix) YScale() float64 { return math.Hypot(m.C, m.D) }

// Rotation returns the angle of the transformed x axis in radians.
func (m Matrix) Rotation() float64 { return math.Atan2(m.B, m.A) }

// SetXScale rescales the x axis keeping its direction.
func (m *Matrix) SetXScale(xscale float64) {
	rot := m.Rotation()
	m.A = xscale * math.Cos(rot)
	m.B = xscale * math.Sin(rot)
}

// SetYScale rescales the y axis keeping its direction.
func (m *Matrix) SetYScale(yscale float64) {
	angle := math.Atan2(m.D, m.C)
	if m.C == 0 && m.D == 0 {
		angle = m.Rotation() + math.Pi/2
	}
	m.C = yscale * math.Cos(angle)
	m.D = yscale * math.Sin(angle)
}

// SetRotation rotates both axes to the given angle in radians, keeping
// their scales and any skew between them.
func (m *Matrix) SetRotation(rotation float64) {
	rotX := math.Atan2(m.B, m.A)
	rotY := math.Atan2(-m.C, m.D)
	sx := m.XScale()
	sy := m.YScale()
	m.A = sx * math.Cos(rotation)
	m.B = sx * math.Sin(rotation)
	m.C = -sy * math.Sin(rotY-rotX+rotation)
	m.D = sy * math.Cos(rotY-rotX+rotation)
}

// SetScaleRotation replaces the linear part with an unskewed scale and
// rotation.
func (m *Matrix) SetScaleRotation(xscale, yscale, rotation float64) {
	cos, sin := math.Cos(rotation), math.Sin(rotation)
	m.A = xscale * cos
	m.B = xscale * sin
	m.C = -yscale * sin
	m.D = yscale * cos
}

// Concat returns m applied after other: the result maps a point through
// other first.
func (m Matrix) Concat(other Matrix) Matrix {
	return Matrix{
		A:  m.A*other.A + m.C*other.B,
		B:  m.B*other.A + m.D*other.B,
		C:  m.A*other.C + m.C*other.D,
		D:  m.B*other.C + m.D*other.D,
		TX: m.A*other.TX + m.C*other.TY + m.TX,
		TY: m.B*other.TX + m.D*other.TY + m.TY,
	}
}

// Transform maps a point.
func (m Matrix) Transform(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.TX, m.B*x + m.D*y + m.TY
}

// Invert returns the inverse transform. A singular matrix inverts to a
// pure inverse translation.
func (m Matrix) Invert() Matrix {
	det := m.A*m.D - m.B*m.C
	if det == 0 {
		return Matrix{A: 1, D: 1, TX: -m.TX, TY: -m.TY}
	}
	inv := Matrix{
		A: m.D / det,
		B: -m.B / det,
		C: -m.C / det,
		D: m.A / det,
	}
	inv.TX = -(inv.A*m.TX + inv.C*m.TY)
	inv.TY = -(inv.B*m.TX + inv.D*m.TY)
	return inv
}

// TransformRect returns the bounding box of r mapped through m.
func (m Matrix) TransformRect(r Rect) Rect {
	if r.IsNull() {
		return r
	}
	out := NullRect()
	for _, p := range [][2]float64{
		{r.XMin, r.YMin}, {r.XMax, r.YMin}, {r.XMin, r.YMax}, {r.XMax, r.YMax},
	} {
		x, y := m.Transform(p[0], p[1])
		out.ExpandTo(x, y)
	}
	return out
}

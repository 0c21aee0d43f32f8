package display

import "math"

// Rect is an axis-aligned rectangle in pixels. The null rectangle
// contains nothing and is the identity for Union.
type Rect struct {
	XMin, YMin, XMax, YMax float64
	null                   bool
}

// NullRect returns the empty rectangle.
func NullRect() Rect { return Rect{null: true} }

// NewRect builds a rectangle from two corners.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{
		XMin: math.Min(x0, x1), YMin: math.Min(y0, y1),
		XMax: math.Max(x0, x1), YMax: math.Max(y0, y1),
	}
}

func (r Rect) IsNull() bool { return r.null }

func (r Rect) Width() float64 {
	if r.null {
		return 0
	}
	return r.XMax - r.XMin
}

func (r Rect) Height() float64 {
	if r.null {
		return 0
	}
	return r.YMax - r.YMin
}

// ExpandTo grows r to include the point.
func (r *Rect) ExpandTo(x, y float64) {
	if r.null {
		*r = Rect{XMin: x, YMin: y, XMax: x, YMax: y}
		return
	}
	r.XMin = math.Min(r.XMin, x)
	r.YMin = math.Min(r.YMin, y)
	r.XMax = math.Max(r.XMax, x)
	r.YMax = math.Max(r.YMax, y)
}

// Union returns the smallest rectangle containing both.
func (r Rect) Union(o Rect) Rect {
	if r.null {
		return o
	}
	if o.null {
		return r
	}
	r.ExpandTo(o.XMin, o.YMin)
	r.ExpandTo(o.XMax, o.YMax)
	return r
}

// Contains reports whether the point lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return !r.null && x >= r.XMin && x <= r.XMax && y >= r.YMin && y <= r.YMax
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	if r.null || o.null {
		return false
	}
	return r.XMin <= o.XMax && o.XMin <= r.XMax && r.YMin <= o.YMax && o.YMin <= r.YMax
}

// ---------------------------------------------------------------------------
// InvalidatedRanges: regions needing a repaint
// ---------------------------------------------------------------------------

// InvalidatedRanges collects the screen regions that changed since the
// last render. The world flag means "repaint everything".
type InvalidatedRanges struct {
	ranges []Rect
	world  bool
}

// Add records a region. Overlapping regions are merged.
func (ir *InvalidatedRanges) Add(r Rect) {
	if ir.world || r.IsNull() {
		return
	}
	for i, existing := range ir.ranges {
		if existing.Intersects(r) {
			merged := existing.Union(r)
			ir.ranges = append(ir.ranges[:i], ir.ranges[i+1:]...)
			ir.Add(merged)
			return
		}
	}
	ir.ranges = append(ir.ranges, r)
}

// AddRanges merges every region of o.
func (ir *InvalidatedRanges) AddRanges(o *InvalidatedRanges) {
	if o.world {
		ir.SetWorld()
		return
	}
	for _, r := range o.ranges {
		ir.Add(r)
	}
}

// SetWorld marks the whole stage as invalid.
func (ir *InvalidatedRanges) SetWorld() {
	ir.world = true
	ir.ranges = nil
}

// SetNull clears every region.
func (ir *InvalidatedRanges) SetNull() {
	ir.world = false
	ir.ranges = nil
}

func (ir *InvalidatedRanges) IsWorld() bool { return ir.world }
func (ir *InvalidatedRanges) IsNull() bool  { return !ir.world && len(ir.ranges) == 0 }
func (ir *InvalidatedRanges) Len() int      { return len(ir.ranges) }

// Ranges returns a copy of the recorded regions.
func (ir *InvalidatedRanges) Ranges() []Rect {
	return append([]Rect(nil), ir.ranges...)
}

// Bounds returns the union of every region.
func (ir *InvalidatedRanges) Bounds() Rect {
	out := NullRect()
	for _, r := range ir.ranges {
		out = out.Union(r)
	}
	return out
}

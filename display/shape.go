package display

// Shape is static artwork. It has no script object and never takes
// mouse events.
type Shape struct {
	DisplayObject
	bounds Rect
}

func NewShape(stage Stage, parent *MovieClip, bounds Rect) *Shape {
	s := &Shape{bounds: bounds}
	s.initNode(s, stage, parent, nil)
	return s
}

func (s *Shape) Bounds() Rect { return s.bounds }

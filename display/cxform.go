package display

// ColorTransform multiplies and offsets each colour channel. Multipliers
// are fractions (1 = unchanged), offsets are in the 0..255 range.
type ColorTransform struct {
	RA, GA, BA, AA float64
	RB, GB, BB, AB float64
}

// IdentityCxForm leaves colours unchanged.
var IdentityCxForm = ColorTransform{RA: 1, GA: 1, BA: 1, AA: 1}

// Concat returns c applied after inner.
func (c ColorTransform) Concat(inner ColorTransform) ColorTransform {
	return ColorTransform{
		RA: c.RA * inner.RA, GA: c.GA * inner.GA, BA: c.BA * inner.BA, AA: c.AA * inner.AA,
		RB: c.RA*inner.RB + c.RB, GB: c.GA*inner.GB + c.GB,
		BB: c.BA*inner.BB + c.BB, AB: c.AA*inner.AB + c.AB,
	}
}

// IsInvisible reports whether the transform makes everything fully
// transparent.
func (c ColorTransform) IsInvisible() bool {
	return c.AA*255+c.AB <= 0
}

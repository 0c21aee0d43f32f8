package display

// Renderer receives draw calls for the display tree. Rasterisation is
// entirely the implementation's business.
type Renderer interface {
	// DrawCharacter draws the node's own graphics, not its children.
	DrawCharacter(ch Character, world Transform)
	BeginSubmitMask()
	EndSubmitMask()
	DisableMask()
}

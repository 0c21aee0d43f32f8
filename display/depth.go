package display

// Depth ranges. Timeline placements use depths from StaticDepthOffset
// upward, script-created clips use depth 0 and above, and clips waiting
// for their unload handlers are parked below RemovedDepthOffset.
const (
	StaticDepthOffset    = -16384
	RemovedDepthOffset   = -32769
	NoClipDepthValue     = -1000000
	UpperAccessibleBound = 2130690044
	LowerAccessibleBound = StaticDepthOffset
)

// LevelDepth returns the depth of the root movie of level n.
func LevelDepth(n int) int { return n + StaticDepthOffset }

// DepthLevel returns the level number a root movie depth stands for.
func DepthLevel(depth int) int { return depth - StaticDepthOffset }

// IsRemovedDepth reports whether depth lies in the removed range.
func IsRemovedDepth(depth int) bool { return depth < StaticDepthOffset }

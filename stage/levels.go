package stage

import (
	"fmt"
	"strings"

	"github.com/chazu/kestrel/display"
	"github.com/chazu/kestrel/vm"
)

// RootMovie returns the movie in _level0.
func (s *Stage) RootMovie() *display.Movie { return s.root }

// Level returns the movie in _levelN, or nil.
func (s *Stage) Level(n int) *display.Movie {
	return s.levels[display.LevelDepth(n)]
}

// SetRootMovie installs m as _level0 and runs its first frame. The VM
// switches to the movie's SWF version and the stage takes its size.
func (s *Stage) SetRootMovie(m *display.Movie) {
	s.lastAdvance = s.vm.Time()
	if m.Version() > 0 {
		s.vm.SetVersion(m.Version())
	}
	s.stageWidth, s.stageHeight = m.WidthPixels(), m.HeightPixels()

	s.guard("root movie construction", func() { s.SetLevel(0, m) })
	s.ProcessActionQueue()
	s.cleanupAndCollect()
}

// SetLevel puts m in _levelN and constructs it. Replacing _level0 also
// drops every interval timer and tells the host the stage was resized.
func (s *Stage) SetLevel(n int, m *display.Movie) {
	depth := display.LevelDepth(n)
	m.SetDepth(depth)

	if old, ok := s.levels[depth]; ok {
		if n == 0 {
			s.ClearIntervalTimers()
			s.stageWidth, s.stageHeight = m.WidthPixels(), m.HeightPixels()
			if s.host != nil {
				s.host.Call(HostResizeStage, fmt.Sprintf("%dx%d", s.stageWidth, s.stageHeight))
			}
		}
		if !old.Destroyed() {
			old.Unload()
			old.Destroy()
		}
	}

	s.levels[depth] = m
	if n == 0 {
		s.root = m
	}
	m.SetInvalidated()
	m.Construct(nil)
}

// DropLevel unloads and removes the level at depth. _level0 cannot be
// dropped.
func (s *Stage) DropLevel(depth int) {
	if depth < 0 || depth > 1048575 {
		log.Errorf("DropLevel(%d): depth out of range", depth)
		return
	}
	m, ok := s.levels[depth]
	if !ok {
		log.Errorf("DropLevel(%d): no movie at that depth", depth)
		return
	}
	if m == s.root {
		log.Errorf("original root movie cannot be removed")
		return
	}
	m.Unload()
	m.Destroy()
	delete(s.levels, depth)
}

// SwapLevels moves m to depth, exchanging places with any movie already
// there. Only movies in the timeline depth range can be swapped.
func (s *Stage) SwapLevels(m *display.Movie, depth int) {
	oldDepth := m.Depth()
	if oldDepth < display.StaticDepthOffset || oldDepth >= 0 {
		asCodingLog.Warningf("%s.swapDepth(%d): movie has a depth (%d) out of the static range",
			m.Target(), depth, oldDepth)
		return
	}
	if oldDepth == display.StaticDepthOffset {
		asCodingLog.Warningf("%s.swapDepth(%d): cannot swap the root movie", m.Target(), depth)
		return
	}
	if depth == oldDepth {
		return
	}
	if s.levels[oldDepth] != m {
		log.Errorf("%s is not in the level table", m.Target())
		return
	}

	delete(s.levels, oldDepth)
	if other, ok := s.levels[depth]; ok {
		other.SetDepth(oldDepth)
		other.SetInvalidated()
		s.levels[oldDepth] = other
	}
	m.SetDepth(depth)
	m.SetInvalidated()
	s.levels[depth] = m
}

// Levels returns the level movies from the bottom up.
func (s *Stage) Levels() []*display.Movie { return s.levelsByDepth() }

// IsLevelTarget reports whether name has the form _levelN under the
// current SWF version.
func (s *Stage) IsLevelTarget(name string) (int, bool) {
	return display.IsLevelTarget(s.vm.Version(), name)
}

// FindCharacterByTarget resolves a dot-separated path such as
// "_level0.menu.button" to a display node. Paths that do not start with
// a level are resolved from the lowest level.
func (s *Stage) FindCharacterByTarget(path string) display.Character {
	if path == "" {
		return nil
	}
	levels := s.levelsByDepth()
	if len(levels) == 0 {
		return nil
	}
	obj := levels[0].Object()
	for _, part := range strings.Split(path, ".") {
		if obj == nil {
			return nil
		}
		if n, ok := s.IsLevelTarget(part); ok {
			m := s.Level(n)
			if m == nil {
				return nil
			}
			obj = m.Object()
			continue
		}
		if ch, ok := obj.Magic().(display.Character); ok {
			obj = ch.PathElement(part)
			continue
		}
		val, ok := obj.GetMember(s.vm.URI(part))
		if !ok {
			return nil
		}
		obj = val.Object()
	}
	return characterOf(obj)
}

// characterOf returns the display node behind a script object.
func characterOf(obj *vm.Object) display.Character {
	if obj == nil {
		return nil
	}
	ch, _ := obj.Magic().(display.Character)
	return ch
}

package display

import (
	"net/url"
	"sort"

	"github.com/chazu/kestrel/vm"
)

// MovieDefinition describes a parsed movie.
type MovieDefinition struct {
	Version     int
	FrameSize   Rect
	FrameRate   float64
	URL         string
	BytesLoaded int
	BytesTotal  int
	Timeline    Timeline
}

// Movie is the root clip of a level, or of a movie loaded into a clip.
type Movie struct {
	MovieClip
	def *MovieDefinition
}

// NewMovie instantiates def. The movie has no parent until it is placed
// in a level or in another movie's clip.
func NewMovie(stage Stage, def *MovieDefinition) *Movie {
	m := &Movie{def: def}
	m.timeline = def.Timeline
	m.drawable = NullRect()
	m.initNode(m, stage, nil, clipPrototype(stage))
	return m
}

func (m *Movie) Definition() *MovieDefinition { return m.def }
func (m *Movie) Version() int                 { return m.def.Version }
func (m *Movie) URL() string                  { return m.def.URL }
func (m *Movie) FrameRate() float64           { return m.def.FrameRate }
func (m *Movie) FrameSize() Rect              { return m.def.FrameSize }
func (m *Movie) WidthPixels() int             { return int(m.def.FrameSize.Width()) }
func (m *Movie) HeightPixels() int            { return int(m.def.FrameSize.Height()) }
func (m *Movie) BytesLoaded() int             { return m.def.BytesLoaded }
func (m *Movie) BytesTotal() int              { return m.def.BytesTotal }

// Bounds of an empty movie fall back to its frame size.
func (m *Movie) Bounds() Rect {
	if b := m.MovieClip.Bounds(); !b.IsNull() {
		return b
	}
	return m.def.FrameSize
}

// SetVariables stores each pair as a member of the movie's script
// object, in name order.
func (m *Movie) SetVariables(vars map[string]string) {
	if m.object == nil {
		return
	}
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		m.object.Set(k, vm.String(vars[k]))
	}
}

// QueryVariables returns the query string parameters of the movie URL.
// Repeated keys keep their first value.
func (m *Movie) QueryVariables() map[string]string {
	out := make(map[string]string)
	u, err := url.Parse(m.def.URL)
	if err != nil {
		log.Warningf("cannot parse movie URL %q: %s", m.def.URL, err)
		return out
	}
	for k, vals := range u.Query() {
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	return out
}

package stage

import (
	"fmt"
	"sort"

	"github.com/chazu/kestrel/display"
	"github.com/chazu/kestrel/lso"
	"github.com/chazu/kestrel/vm"
	"golang.org/x/tools/container/intsets"
)

// Stage is the top of the display tree and the owner of everything that
// happens between heartbeats.
type Stage struct {
	vm   *vm.VM
	opts Options

	host     HostInterface
	renderer Renderer
	media    MediaHandler
	loader   *MovieLoader
	shared   *lso.Library

	queues          [display.NumActionLevels][]display.ExecutableCode
	processingLevel display.ActionLevel
	scriptsDisabled bool

	levels    map[int]*display.Movie
	root      *display.Movie
	liveChars []display.Character

	timers      map[int]*Timer
	lastTimerID int

	mouseListeners []display.Character
	keyListeners   []display.Character
	mouseX, mouseY float64
	mouse          mouseButtonState
	focus          display.Character
	drag           *DragState

	keys    intsets.Sparse
	lastKey display.KeyCode

	lastAdvance uint64
	stageWidth  int
	stageHeight int
	background  uint32
	invalidated bool
	builtins    builtins
}

// New creates a stage with its own VM.
func New(opts Options) *Stage {
	if opts.Version <= 0 {
		opts.Version = DefaultOptions().Version
	}
	if opts.MaxTimers <= 0 {
		opts.MaxTimers = DefaultMaxTimers
	}
	v := vm.NewVM(opts.Version, opts.Clock)
	v.SetRecursionLimit(opts.RecursionLimit)
	if opts.GCThreshold > 0 {
		v.Collector().Threshold = opts.GCThreshold
	}

	s := &Stage{
		vm:              v,
		opts:            opts,
		host:            opts.Host,
		renderer:        opts.Renderer,
		media:           opts.Media,
		shared:          opts.SharedObjects,
		processingLevel: display.NumActionLevels,
		scriptsDisabled: opts.ScriptsDisabled,
		levels:          make(map[int]*display.Movie),
		timers:          make(map[int]*Timer),
		background:      opts.Background,
	}
	if opts.Streams != nil && opts.Factory != nil {
		s.loader = NewMovieLoader(s, opts.Streams, opts.Factory)
	}
	s.installBuiltins()
	v.Collector().AddRoot(s)
	return s
}

// VM returns the stage's script VM.
func (s *Stage) VM() *vm.VM { return s.vm }

// Loader returns the movie loader, or nil when no stream provider was
// configured.
func (s *Stage) Loader() *MovieLoader { return s.loader }

func (s *Stage) ScriptsDisabled() bool { return s.scriptsDisabled }

// DisableScripts stops all script execution for the rest of the session.
func (s *Stage) DisableScripts() {
	s.scriptsDisabled = true
}

// ---------------------------------------------------------------------------
// Action queue
// ---------------------------------------------------------------------------

// PushAction queues code at priority lvl.
func (s *Stage) PushAction(code display.ExecutableCode, lvl display.ActionLevel) {
	s.queues[lvl] = append(s.queues[lvl], code)
}

// PushFunction queues a Go callback.
func (s *Stage) PushFunction(fn func(), owner display.Character, lvl display.ActionLevel) {
	s.PushAction(&display.FunctionCode{Fn: fn, Owner: owner}, lvl)
}

// QueueLen returns the number of entries waiting at lvl.
func (s *Stage) QueueLen(lvl display.ActionLevel) int { return len(s.queues[lvl]) }

// RemoveQueuedConstructor drops the pending construction of ch.
func (s *Stage) RemoveQueuedConstructor(ch display.Character) {
	q := s.queues[display.PriorityConstruct]
	kept := q[:0]
	for _, code := range q {
		if display.IsConstructEvent(code) && sameChar(code.Target(), ch) {
			continue
		}
		kept = append(kept, code)
	}
	for i := len(kept); i < len(q); i++ {
		q[i] = nil
	}
	s.queues[display.PriorityConstruct] = kept
}

func (s *Stage) minPopulatedLevel() display.ActionLevel {
	for lvl := display.ActionLevel(0); lvl < display.NumActionLevels; lvl++ {
		if len(s.queues[lvl]) > 0 {
			return lvl
		}
	}
	return display.NumActionLevels
}

// ProcessActionQueue drains the queue. After every entry it restarts
// from the lowest populated level, so work queued at a higher priority
// always runs before anything left at a lower one. Nested calls return
// at once; the outer drain picks up whatever they would have run.
func (s *Stage) ProcessActionQueue() {
	if s.scriptsDisabled {
		s.clearQueues()
		return
	}
	if s.processingLevel != display.NumActionLevels {
		log.Debugf("action queue already being processed at level %s", s.processingLevel)
		return
	}
	defer func() { s.processingLevel = display.NumActionLevels }()

	s.processingLevel = s.minPopulatedLevel()
	for s.processingLevel < display.NumActionLevels {
		s.processingLevel = s.processLevel(s.processingLevel)
	}
}

func (s *Stage) processLevel(lvl display.ActionLevel) display.ActionLevel {
	for len(s.queues[lvl]) > 0 {
		code := s.queues[lvl][0]
		s.queues[lvl][0] = nil
		s.queues[lvl] = s.queues[lvl][1:]

		s.guard("action execution", code.Execute)

		if min := s.minPopulatedLevel(); min < lvl {
			return min
		}
	}
	return s.minPopulatedLevel()
}

func (s *Stage) clearQueues() {
	for lvl := range s.queues {
		s.queues[lvl] = nil
	}
}

// guard runs fn and turns a script resource limit into the question of
// disabling scripts. Only the code running inside fn is abandoned.
func (s *Stage) guard(what string, fn func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		limit, ok := r.(*vm.ActionLimitError)
		if !ok {
			panic(r)
		}
		s.handleActionLimit(fmt.Sprintf("action limit hit during %s: %s. Disable scripts?", what, limit))
	}()
	fn()
}

func (s *Stage) handleActionLimit(msg string) {
	log.Errorf("%s", msg)
	disable := true
	if s.host != nil {
		disable = s.host.YesNo(msg)
	} else {
		log.Warningf("no host interface registered, assuming yes")
	}
	if disable {
		s.DisableScripts()
		s.clearQueues()
	}
}

// ---------------------------------------------------------------------------
// Heartbeat
// ---------------------------------------------------------------------------

// AddLiveChar registers ch for per-frame advancement.
func (s *Stage) AddLiveChar(ch display.Character) {
	for _, c := range s.liveChars {
		if sameChar(c, ch) {
			panic("stage: " + ch.Base().Target() + " registered twice")
		}
	}
	s.liveChars = append(s.liveChars, ch)
}

// LiveChars returns the advancing characters, last registered first.
func (s *Stage) LiveChars() []display.Character {
	out := make([]display.Character, len(s.liveChars))
	for i, ch := range s.liveChars {
		out[len(out)-1-i] = ch
	}
	return out
}

// FrameDelay returns the milliseconds between movie advancements.
func (s *Stage) FrameDelay() uint64 {
	rate := s.opts.FrameRate
	if s.root != nil && s.root.FrameRate() > 0 {
		rate = s.root.FrameRate()
	}
	if rate <= 0 {
		return 0
	}
	return uint64(1000 / rate)
}

// Advance is the heartbeat. The movie advances when a frame delay has
// passed since its last advancement; timers run on every call. It
// reports whether the movie advanced.
func (s *Stage) Advance() bool {
	now := s.vm.Time()
	if now < s.lastAdvance {
		now = s.lastAdvance
	}
	advanced := false
	if now-s.lastAdvance >= s.FrameDelay() {
		advanced = true
		s.advanceMovie()
		s.lastAdvance = now
	}
	s.executeTimers()
	return advanced
}

// advanceMovie runs one frame: drag, live characters, finished loads,
// the action queue, cleanup and collection, in that order.
func (s *Stage) advanceMovie() {
	s.guard("advance", func() {
		s.doMouseDrag()
		s.advanceLiveChars()
		if s.loader != nil {
			s.loader.ProcessCompletedRequests()
		}
	})
	s.ProcessActionQueue()
	s.cleanupAndCollect()
}

func (s *Stage) advanceLiveChars() {
	for _, ch := range s.LiveChars() {
		if !ch.Base().Unloaded() {
			ch.Advance()
		}
	}
}

func (s *Stage) cleanupAndCollect() {
	s.cleanupDisplayList()
	s.vm.Collector().FuzzyCollect()
}

// cleanupDisplayList removes unloaded characters from the levels and
// the live list. Destroying one can unload others, so the live list is
// rescanned until nothing changes.
func (s *Stage) cleanupDisplayList() {
	levels := s.levelsByDepth()
	for i := len(levels) - 1; i >= 0; i-- {
		levels[i].CleanupDisplayList()
	}

	for {
		needScan := false
		kept := s.liveChars[:0]
		for _, ch := range s.liveChars {
			b := ch.Base()
			if !b.Unloaded() {
				kept = append(kept, ch)
				continue
			}
			if !b.Destroyed() {
				ch.Destroy()
				needScan = true
			}
		}
		for i := len(kept); i < len(s.liveChars); i++ {
			s.liveChars[i] = nil
		}
		s.liveChars = kept
		if !needScan {
			break
		}
	}

	s.mouseListeners = pruneUnloaded(s.mouseListeners)
	s.keyListeners = pruneUnloaded(s.keyListeners)
}

func pruneUnloaded(list []display.Character) []display.Character {
	kept := list[:0]
	for _, ch := range list {
		if !ch.Base().Unloaded() {
			kept = append(kept, ch)
		}
	}
	for i := len(kept); i < len(list); i++ {
		list[i] = nil
	}
	return kept
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// SetBackgroundColor changes the stage colour, invalidating the whole
// stage if it differs.
func (s *Stage) SetBackgroundColor(rgb uint32) {
	if s.background == rgb {
		return
	}
	s.background = rgb
	s.invalidated = true
}

func (s *Stage) BackgroundColor() uint32 { return s.background }

// StageSize returns the stage dimensions in pixels.
func (s *Stage) StageSize() (int, int) { return s.stageWidth, s.stageHeight }

// Display draws every visible level with a frame size.
func (s *Stage) Display() {
	s.ClearInvalidated()
	if s.root == nil || s.renderer == nil {
		return
	}
	frame := s.root.FrameSize()
	if frame.IsNull() {
		log.Debugf("root movie has null bounds, not displaying")
		return
	}

	s.renderer.BeginDisplay(s.background, s.stageWidth, s.stageHeight, frame)
	for _, m := range s.levelsByDepth() {
		m.ClearInvalidated()
		if !m.Visible() {
			continue
		}
		if m.FrameSize().IsNull() {
			log.Debugf("%s has null frame size, skipping", m.Target())
			continue
		}
		m.Display(s.renderer, display.IdentityTransform)
	}
	s.renderer.EndDisplay()
}

// AddInvalidatedBounds collects the regions that need redrawing.
func (s *Stage) AddInvalidatedBounds(ranges *display.InvalidatedRanges, force bool) {
	if s.invalidated {
		ranges.SetWorld()
		return
	}
	for _, m := range s.levelsByDepth() {
		m.AddInvalidatedBounds(ranges, force)
	}
}

// ClearInvalidated forgets the stage-wide invalidation.
func (s *Stage) ClearInvalidated() {
	s.invalidated = false
	for _, m := range s.levelsByDepth() {
		m.ClearInvalidated()
	}
}

// ---------------------------------------------------------------------------
// Reset and shutdown
// ---------------------------------------------------------------------------

// Reset returns the stage to its state before any movie was loaded and
// re-enables scripts. Shared objects are flushed first.
func (s *Stage) Reset() {
	s.flushSharedObjects()
	if s.media != nil {
		s.media.Reset()
	}
	s.clear()
	s.scriptsDisabled = s.opts.ScriptsDisabled
}

func (s *Stage) clear() {
	s.background = s.opts.Background
	s.liveChars = nil
	s.clearQueues()
	for _, m := range s.levels {
		if !m.Destroyed() {
			m.Destroy()
		}
	}
	s.levels = make(map[int]*display.Movie)
	s.root = nil
	s.timers = make(map[int]*Timer)
	s.mouseListeners = nil
	s.keyListeners = nil
	s.mouse = mouseButtonState{}
	s.focus = nil
	s.drag = nil
	s.keys.Clear()
	if s.loader != nil {
		s.loader.Clear()
	}
	s.vm.Collector().FuzzyCollect()
}

// Close stops the loader and closes the shared object library.
func (s *Stage) Close() error {
	if s.loader != nil {
		s.loader.Close()
	}
	if s.shared != nil {
		return s.shared.Close()
	}
	return nil
}

func (s *Stage) flushSharedObjects() {
	if s.shared == nil {
		return
	}
	if err := s.shared.Flush(); err != nil {
		log.Errorf("flushing shared objects: %s", err)
	}
}

// MarkReachableResources marks everything the stage keeps alive: the
// levels, queued code, timers, listeners, focus, the mouse and drag
// targets and pending load handlers.
func (s *Stage) MarkReachableResources(c *vm.Collector) {
	for _, m := range s.levels {
		c.MarkResource(m)
	}
	if s.root != nil {
		c.MarkResource(s.root)
	}
	for lvl := range s.queues {
		for _, code := range s.queues[lvl] {
			code.MarkReachableResources(c)
		}
	}
	for _, t := range s.timers {
		t.markReachableResources(c)
	}
	for _, ch := range s.mouseListeners {
		c.MarkResource(ch)
	}
	for _, ch := range s.keyListeners {
		c.MarkResource(ch)
	}
	s.mouse.markReachableResources(c)
	if s.focus != nil {
		c.MarkResource(s.focus)
	}
	if s.drag != nil && s.drag.Character != nil {
		c.MarkResource(s.drag.Character)
	}
	if s.loader != nil {
		s.loader.markReachableResources(c)
	}
	s.builtins.markReachableResources(c)
	if s.shared != nil {
		s.shared.MarkReachableResources(c)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func sameChar(a, b display.Character) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Base() == b.Base()
}

// objectOf returns the script object of ch, or nil.
func objectOf(ch display.Character) *vm.Object {
	if ch == nil {
		return nil
	}
	return ch.Base().Object()
}

func (s *Stage) levelsByDepth() []*display.Movie {
	depths := make([]int, 0, len(s.levels))
	for d := range s.levels {
		depths = append(depths, d)
	}
	sort.Ints(depths)
	out := make([]*display.Movie, len(depths))
	for i, d := range depths {
		out[i] = s.levels[d]
	}
	return out
}

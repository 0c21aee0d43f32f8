package stage

import (
	"context"
	"net/url"
	"sync"

	"github.com/chazu/kestrel/display"
	"github.com/chazu/kestrel/vm"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// LoadRequest is a movie being fetched for a target. Its goroutine fills
// in the result; the stage picks it up on a later heartbeat.
type LoadRequest struct {
	id       uuid.UUID
	url      string
	target   string
	postData []byte
	handler  *vm.Object

	mu        sync.Mutex
	completed bool
	def       *display.MovieDefinition
	err       error
}

func (r *LoadRequest) ID() uuid.UUID  { return r.id }
func (r *LoadRequest) URL() string    { return r.url }
func (r *LoadRequest) Target() string { return r.target }

// Completed reports whether the fetch has finished, successfully or not.
func (r *LoadRequest) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

func (r *LoadRequest) finish(def *display.MovieDefinition, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = def
	r.err = err
	r.completed = true
}

func (r *LoadRequest) result() (*display.MovieDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.def, r.err
}

// ErrLoaderClosed is the result of a request made after Close.
var ErrLoaderClosed = errors.New("movie loader closed")

// MovieLoader fetches movies, one goroutine per request, so a slow
// fetch never holds up the stage. Everything that touches the VM or the
// display tree happens in ProcessCompletedRequests, on the stage's
// goroutine.
type MovieLoader struct {
	stage   *Stage
	streams StreamProvider
	factory MovieFactory

	requests []*LoadRequest

	ctx      context.Context
	cancel   context.CancelFunc
	inFlight sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewMovieLoader creates a MovieLoader.
func NewMovieLoader(s *Stage, streams StreamProvider, factory MovieFactory) *MovieLoader {
	ctx, cancel := context.WithCancel(context.Background())
	return &MovieLoader{
		stage:   s,
		streams: streams,
		factory: factory,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// fetch opens and parses one movie, recovering from panics in the
// provider or the factory.
func (l *MovieLoader) fetch(req *LoadRequest) {
	defer func() {
		if r := recover(); r != nil {
			req.finish(nil, errors.Errorf("loading %s: %v", req.url, r))
		}
	}()

	var headers map[string]string
	if req.postData != nil {
		headers = map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	}
	rc, err := l.streams.GetStream(l.ctx, req.url, req.postData, headers)
	if err != nil {
		req.finish(nil, errors.Wrapf(err, "fetching %s", req.url))
		return
	}
	defer rc.Close()

	def, err := l.factory.MakeMovie(req.url, rc)
	if err != nil {
		req.finish(nil, errors.Wrapf(err, "parsing %s", req.url))
		return
	}
	if def.URL == "" {
		def.URL = req.url
	}
	req.finish(def, nil)
}

// Load starts fetching a request and returns at once.
func (l *MovieLoader) Load(rawURL, target string, postData []byte, handler *vm.Object) *LoadRequest {
	req := &LoadRequest{
		id:       uuid.New(),
		url:      rawURL,
		target:   target,
		postData: postData,
		handler:  handler,
	}
	loaderLog.Infof("[%s] loading %s into %s", req.id, rawURL, target)
	l.requests = append(l.requests, req)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		req.finish(nil, errors.Wrapf(ErrLoaderClosed, "loading %s", rawURL))
		return req
	}
	l.inFlight.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.inFlight.Done()
		l.fetch(req)
	}()
	return req
}

// Wait blocks until every queued fetch has finished.
func (l *MovieLoader) Wait() { l.inFlight.Wait() }

// Pending returns the number of requests not yet processed.
func (l *MovieLoader) Pending() int { return len(l.requests) }

// Clear forgets every request. Fetches still running complete into
// requests nobody looks at.
func (l *MovieLoader) Clear() { l.requests = nil }

// Close cancels running fetches. Requests made afterwards complete
// with ErrLoaderClosed.
func (l *MovieLoader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.cancel()
}

// ProcessCompletedRequests installs every finished movie, in request
// order, and runs the handler callbacks.
func (l *MovieLoader) ProcessCompletedRequests() {
	var done []*LoadRequest
	kept := l.requests[:0]
	for _, req := range l.requests {
		if req.Completed() {
			done = append(done, req)
		} else {
			kept = append(kept, req)
		}
	}
	for i := len(kept); i < len(l.requests); i++ {
		l.requests[i] = nil
	}
	l.requests = kept

	for _, req := range done {
		req := req
		l.stage.guard("load completion", func() { l.processRequest(req) })
	}
}

func (l *MovieLoader) processRequest(req *LoadRequest) {
	s := l.stage
	def, err := req.result()
	if def == nil {
		loaderLog.Errorf("[%s] %s", req.id, err)
		if req.handler == nil {
			return
		}
		if target := objectOf(s.FindCharacterByTarget(req.target)); target != nil {
			dispatchLoadEvent(req.handler, "onLoadError", vm.ObjectValue(target), vm.String("URLNotFound"), vm.Int(0))
		}
		return
	}

	m := display.NewMovie(s, def)
	if vars := m.QueryVariables(); len(vars) > 0 {
		m.SetVariables(vars)
	}

	if n, ok := s.IsLevelTarget(req.target); ok {
		if n == 0 && s.root == nil {
			s.SetRootMovie(m)
		} else {
			s.SetLevel(n, m)
		}
	} else {
		target := clipOf(s.FindCharacterByTarget(req.target))
		if target == nil {
			loaderLog.Warningf("[%s] target %s of %s no longer exists", req.id, req.target, req.url)
			return
		}
		target.LoadedMovie(m)
	}
	loaderLog.Infof("[%s] loaded %s into %s", req.id, req.url, req.target)

	if req.handler == nil {
		return
	}
	target := vm.ObjectValue(m.Object())
	dispatchLoadEvent(req.handler, "onLoadStart", target)
	dispatchLoadEvent(req.handler, "onLoadProgress", target, vm.Int(m.BytesLoaded()), vm.Int(m.BytesTotal()))
	dispatchLoadEvent(req.handler, "onLoadComplete", target, vm.Int(0))

	onInit := &display.DelayedFunctionCall{This: req.handler, Name: "onLoadInit", Args: []vm.Value{target}, Owner: m}
	if hasMethod(req.handler, "broadcastMessage") {
		onInit.Name = "broadcastMessage"
		onInit.Args = []vm.Value{vm.String("onLoadInit"), target}
	}
	s.PushAction(onInit, display.PriorityDoAction)
}

// dispatchLoadEvent calls name on handler, through broadcastMessage when
// the handler is a broadcaster.
func dispatchLoadEvent(handler *vm.Object, name string, args ...vm.Value) {
	if hasMethod(handler, "broadcastMessage") {
		handler.CallMethod("broadcastMessage", append([]vm.Value{vm.String(name)}, args...)...)
		return
	}
	handler.CallMethod(name, args...)
}

func hasMethod(o *vm.Object, name string) bool {
	return o.Get(name).IsFunction()
}

func (l *MovieLoader) markReachableResources(c *vm.Collector) {
	for _, req := range l.requests {
		c.Mark(req.handler)
	}
}

// LoadMovie starts loading rawURL, resolved against the root movie's
// URL, into target: a level name such as "_level1" or the path of a
// clip. handler, when set, receives the MovieClipLoader callbacks.
func (s *Stage) LoadMovie(rawURL, target string, postData []byte, handler *vm.Object) (*LoadRequest, error) {
	if s.loader == nil {
		return nil, errors.Errorf("no stream provider, cannot load %s", rawURL)
	}
	return s.loader.Load(s.resolveURL(rawURL), target, postData, handler), nil
}

func (s *Stage) resolveURL(raw string) string {
	if s.root == nil || s.root.URL() == "" {
		return raw
	}
	base, err := url.Parse(s.root.URL())
	if err != nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

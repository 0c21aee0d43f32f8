package stage

import (
	"github.com/pkg/errors"

	"github.com/chazu/kestrel/config"
	"github.com/chazu/kestrel/lso"
	"github.com/chazu/kestrel/stream"
	"github.com/chazu/kestrel/vm"
)

// DefaultMaxTimers is the number of active interval timers above which
// adding another is reported as an error.
const DefaultMaxTimers = 255

// Options configures a Stage. Collaborators are optional: a stage with
// no Renderer draws nothing, one without Streams cannot load movies.
type Options struct {
	// Version is the SWF version scripts see until a root movie is set.
	Version int
	// FrameRate is used when the root movie does not declare one.
	FrameRate  float64
	Background uint32

	ScriptsDisabled bool
	RecursionLimit  int
	MaxTimers       int
	GCThreshold     int

	Clock vm.VirtualClock

	Host          HostInterface
	Renderer      Renderer
	Media         MediaHandler
	Streams       StreamProvider
	Factory       MovieFactory
	SharedObjects *lso.Library
}

// DefaultOptions matches config.Default.
func DefaultOptions() Options {
	opts, _ := OptionsFromConfig(config.Default())
	return opts
}

// OptionsFromConfig copies the player, scripts and gc sections of c.
// Collaborators are left for the caller to fill in.
func OptionsFromConfig(c *config.Config) (Options, error) {
	bg, err := c.BackgroundColor()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Version:         c.Player.Version,
		FrameRate:       c.Player.FrameRate,
		Background:      bg,
		ScriptsDisabled: c.Scripts.Disabled,
		RecursionLimit:  c.Scripts.RecursionLimit,
		MaxTimers:       c.Scripts.MaxTimers,
		GCThreshold:     c.GC.Threshold,
	}, nil
}

// NewFromConfig builds a stage from c with a sandboxed stream provider
// and the shared object database c names. The caller owns the returned
// stage and must Close it.
func NewFromConfig(c *config.Config, factory MovieFactory, host HostInterface, renderer Renderer) (*Stage, error) {
	opts, err := OptionsFromConfig(c)
	if err != nil {
		return nil, err
	}
	lib, err := lso.Open(c.SharedObjectsPath())
	if err != nil {
		return nil, errors.Wrap(err, "opening shared objects")
	}
	opts.Clock = vm.NewSystemClock()
	opts.Host = host
	opts.Renderer = renderer
	opts.Streams = stream.FromConfig(c)
	opts.Factory = factory
	opts.SharedObjects = lib
	return New(opts), nil
}

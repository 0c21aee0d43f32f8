package stage

import (
	"context"
	"io"

	"github.com/chazu/kestrel/display"
)

// Host commands passed to HostInterface.Call.
const (
	HostResizeStage = "Stage.resize"
	HostStageAlign  = "Stage.align"
)

// HostInterface is the bridge to the embedding application. A stage
// without one assumes the answer "yes" to every question.
type HostInterface interface {
	// Call runs a synchronous host command and returns its answer.
	Call(cmd, arg string) string
	// YesNo asks the user a question.
	YesNo(prompt string) bool
}

// Renderer draws the stage. BeginDisplay and EndDisplay frame the
// per-level display calls of one Display.
type Renderer interface {
	display.Renderer
	BeginDisplay(background uint32, width, height int, frame display.Rect)
	EndDisplay()
}

// StreamProvider opens URLs for the loader. A rejected or missing URL is
// an error, never a panic.
type StreamProvider interface {
	GetStream(ctx context.Context, url string, postData []byte, headers map[string]string) (io.ReadCloser, error)
}

// MovieFactory parses a fetched movie.
type MovieFactory interface {
	MakeMovie(url string, r io.Reader) (*display.MovieDefinition, error)
}

// MediaHandler is the sound and video backend. The stage only resets it.
type MediaHandler interface {
	Reset()
}

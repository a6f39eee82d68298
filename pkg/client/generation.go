package client

import (
	"sync"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/db"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/stream"
)

// State is the client-side lifecycle of one generation.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateComplete   State = "complete"
	StateCancelled  State = "cancelled"
	StateError      State = "error"
)

// Terminal reports whether the state can no longer change.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateCancelled || s == StateError
}

const cancelledMessage = "Generation cancelled"

// progressFullLength is the content length treated as a "typical" full
// report for the progress heuristic. Longer reports just sit at the cap
// until the terminal frame arrives.
const (
	progressFullLength = 4000
	progressCap        = 0.95
)

// Generation accumulates the result of one streaming generation.
// It transitions idle -> generating -> one of complete, cancelled or
// error, and never leaves a terminal state. All methods are safe for
// concurrent use.
type Generation struct {
	mu       sync.Mutex
	state    State
	content  []byte
	sections []db.Section
	reportID string
	errMsg   string
	progress float64

	cancelled bool
	done      chan struct{}
}

func newGeneration() *Generation {
	return &Generation{
		state: StateIdle,
		done:  make(chan struct{}),
	}
}

// apply folds one frame into the state machine. Frames arriving after a
// terminal transition are ignored.
func (g *Generation) apply(f stream.Frame) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Terminal() {
		return
	}

	switch f.Type {
	case stream.FrameContent:
		g.state = StateGenerating
		g.content = append(g.content, f.Content...)
		g.updateProgressLocked()
	case stream.FrameSections:
		g.state = StateGenerating
		g.sections = append(g.sections, f.Data...)
	case stream.FrameComplete:
		g.reportID = f.ReportID
		g.finishLocked(StateComplete)
	case stream.FrameError:
		g.errMsg = f.Error
		if g.cancelled || f.Error == cancelledMessage {
			g.finishLocked(StateCancelled)
		} else {
			g.finishLocked(StateError)
		}
	}
}

// finishAbnormal closes out a generation whose stream ended without a
// terminal frame. Accumulated content is kept; no report id is invented.
func (g *Generation) finishAbnormal(msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Terminal() {
		return
	}
	if g.cancelled {
		g.errMsg = cancelledMessage
		g.finishLocked(StateCancelled)
	} else {
		g.errMsg = msg
		g.finishLocked(StateError)
	}
}

func (g *Generation) finishLocked(s State) {
	g.state = s
	if s == StateComplete {
		g.progress = 1
	}
	close(g.done)
}

// updateProgressLocked advances the heuristic estimate from content
// length. It only ever moves forward and stays below 1 until a complete
// frame confirms the real end.
func (g *Generation) updateProgressLocked() {
	p := float64(len(g.content)) / progressFullLength
	if p > progressCap {
		p = progressCap
	}
	if p > g.progress {
		g.progress = p
	}
}

func (g *Generation) markCancelled() {
	g.mu.Lock()
	g.cancelled = true
	g.mu.Unlock()
}

// State returns the current lifecycle state.
func (g *Generation) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Content returns the report text received so far.
func (g *Generation) Content() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return string(g.content)
}

// Sections returns the accumulated sections in arrival order.
func (g *Generation) Sections() []db.Section {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]db.Section, len(g.sections))
	copy(out, g.sections)
	return out
}

// ReportID returns the persisted report id. Empty unless the
// generation completed.
func (g *Generation) ReportID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reportID
}

// Progress returns a rough completion estimate in [0, 1]. It grows
// monotonically with streamed content, stays below 1 until a complete
// frame arrives, and reaches 1 only on completion.
func (g *Generation) Progress() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.progress
}

// Err returns the error message for error or cancelled generations.
func (g *Generation) Err() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errMsg
}

// Done is closed when the generation reaches a terminal state.
func (g *Generation) Done() <-chan struct{} {
	return g.done
}

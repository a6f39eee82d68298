// Package stream implements the generation frame protocol: typed frames
// serialized as Server-Sent Events, an incremental section parser for model
// output, and a client-side frame reader.
//
// A generation's frame sequence is any number of content/sections frames
// followed by exactly one terminal frame (complete or error), never both.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/db"
)

// Frame types
const (
	FrameContent  = "content"
	FrameSections = "sections"
	FrameComplete = "complete"
	FrameError    = "error"
)

// Frame is one discrete, typed message in the generation event stream.
// The payload field in use is determined by Type; constructors below keep
// the variants statically shaped.
type Frame struct {
	Type string `json:"type"`

	// content frames
	Content string `json:"content,omitempty"`

	// sections frames: newly finalized sections since the last sections
	// frame, not the full list. Clients accumulate.
	Data []db.Section `json:"data,omitempty"`

	// complete frames
	ReportID string `json:"reportId,omitempty"`

	// error frames
	Error string `json:"error,omitempty"`
}

// ContentFrame wraps a text delta to append.
func ContentFrame(delta string) Frame {
	return Frame{Type: FrameContent, Content: delta}
}

// SectionsFrame wraps newly finalized sections.
func SectionsFrame(sections []db.Section) Frame {
	return Frame{Type: FrameSections, Data: sections}
}

// CompleteFrame is the success terminal frame carrying the persisted report id.
func CompleteFrame(reportID string) Frame {
	return Frame{Type: FrameComplete, ReportID: reportID}
}

// ErrorFrame is the failure terminal frame.
func ErrorFrame(msg string) Frame {
	return Frame{Type: FrameError, Error: msg}
}

// Terminal reports whether the frame ends a generation's sequence.
func (f Frame) Terminal() bool {
	return f.Type == FrameComplete || f.Type == FrameError
}

// Valid reports whether the frame has a known type.
func (f Frame) Valid() bool {
	switch f.Type {
	case FrameContent, FrameSections, FrameComplete, FrameError:
		return true
	}
	return false
}

// Encoder writes frames as SSE records. Each frame is one JSON object in a
// single `data: <json>\n\n` record, so the frame boundary is always a blank
// line and a frame is never split across flushes.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEncoder creates an encoder on w, flushing after every frame when w
// supports it (an http.ResponseWriter does).
func NewEncoder(w io.Writer) *Encoder {
	enc := &Encoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

// Encode writes one frame as a complete SSE record.
func (e *Encoder) Encode(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", f.Type, err)
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

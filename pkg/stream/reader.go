package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// Reader consumes an SSE byte stream and reconstructs frames. A malformed
// record (bad JSON, unknown type, foreign field lines) is counted, logged
// and skipped; it never aborts the stream: subsequent valid frames must
// still be delivered.
type Reader struct {
	br      *bufio.Reader
	logger  *slog.Logger
	skipped int

	dataLines []string
}

// NewReader wraps r. logger may be nil.
func NewReader(r io.Reader, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{br: bufio.NewReader(r), logger: logger}
}

// Next returns the next well-formed frame. It returns io.EOF when the
// underlying stream ends, whether or not a terminal frame was seen; callers
// decide what an EOF without a terminal frame means.
func (r *Reader) Next() (Frame, error) {
	for {
		line, err := r.br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// A final record without a trailing blank line still counts.
				if line != "" {
					r.acceptLine(strings.TrimRight(line, "\r\n"))
				}
				if f, ok := r.flush(); ok {
					return f, nil
				}
				return Frame{}, io.EOF
			}
			return Frame{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		// Blank line ends the record.
		if line == "" {
			if f, ok := r.flush(); ok {
				return f, nil
			}
			continue
		}
		r.acceptLine(line)
	}
}

// Skipped returns how many malformed records were dropped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

func (r *Reader) acceptLine(line string) {
	// SSE comment.
	if strings.HasPrefix(line, ":") {
		return
	}
	if strings.HasPrefix(line, "data:") {
		r.dataLines = append(r.dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		return
	}
	// Field we don't speak (event:, id:, retry:, or garbage from a split
	// record). Ignore it; the data lines decide the frame.
}

func (r *Reader) flush() (Frame, bool) {
	if len(r.dataLines) == 0 {
		return Frame{}, false
	}
	data := strings.Join(r.dataLines, "\n")
	r.dataLines = nil

	var f Frame
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		r.skipped++
		r.logger.Warn("skipping malformed frame", "error", err, "skipped", r.skipped)
		return Frame{}, false
	}
	if !f.Valid() {
		r.skipped++
		r.logger.Warn("skipping frame with unknown type", "type", f.Type, "skipped", r.skipped)
		return Frame{}, false
	}
	return f, true
}

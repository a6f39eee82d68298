package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func readAll(t *testing.T, r *Reader) []Frame {
	t.Helper()
	var frames []Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		frames = append(frames, f)
	}
}

func TestReader_ParsesFrameSequence(t *testing.T) {
	raw := "data: {\"type\":\"content\",\"content\":\"abc\"}\n\n" +
		"data: {\"type\":\"sections\",\"data\":[{\"title\":\"A\",\"order\":0,\"status\":\"complete\"}]}\n\n" +
		"data: {\"type\":\"complete\",\"reportId\":\"r-1\"}\n\n"

	frames := readAll(t, NewReader(strings.NewReader(raw), nil))

	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	if frames[0].Type != FrameContent || frames[0].Content != "abc" {
		t.Fatalf("frames[0] = %+v", frames[0])
	}
	if frames[1].Type != FrameSections || len(frames[1].Data) != 1 || frames[1].Data[0].Title != "A" {
		t.Fatalf("frames[1] = %+v", frames[1])
	}
	if frames[2].Type != FrameComplete || frames[2].ReportID != "r-1" {
		t.Fatalf("frames[2] = %+v", frames[2])
	}
}

func TestReader_SkipsMalformedFrame(t *testing.T) {
	raw := "data: {\"type\":\"content\",\"content\":\"ok\"}\n\n" +
		"data: {\"type\":\"content\",\"conten\n\n" + // truncated JSON
		"data: {\"type\":\"wat\"}\n\n" + // unknown type
		"data: {\"type\":\"complete\",\"reportId\":\"r-2\"}\n\n"

	r := NewReader(strings.NewReader(raw), nil)
	frames := readAll(t, r)

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[1].Type != FrameComplete || frames[1].ReportID != "r-2" {
		t.Fatalf("terminal frame after malformed records = %+v", frames[1])
	}
	if r.Skipped() != 2 {
		t.Fatalf("Skipped() = %d, want 2", r.Skipped())
	}
}

func TestReader_IgnoresCommentsAndForeignFields(t *testing.T) {
	raw := ": keepalive\n\n" +
		"event: message\nid: 7\ndata: {\"type\":\"content\",\"content\":\"x\"}\n\n"

	frames := readAll(t, NewReader(strings.NewReader(raw), nil))

	if len(frames) != 1 || frames[0].Content != "x" {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestReader_FinalRecordWithoutTrailingBlankLine(t *testing.T) {
	raw := "data: {\"type\":\"error\",\"error\":\"upstream failed\"}"

	frames := readAll(t, NewReader(strings.NewReader(raw), nil))

	if len(frames) != 1 || frames[0].Type != FrameError || frames[0].Error != "upstream failed" {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestReader_EmptyStream(t *testing.T) {
	frames := readAll(t, NewReader(strings.NewReader(""), nil))
	if len(frames) != 0 {
		t.Fatalf("frames = %+v, want none", frames)
	}
}

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/db"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/models"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/stream"
)

// sseServer streams the given raw SSE payload for generate requests.
func sseServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/generate" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, payload)
	}))
}

func waitDone(t *testing.T, gen *Generation) {
	t.Helper()
	select {
	case <-gen.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not settle")
	}
}

func TestGenerateCompletes(t *testing.T) {
	payload := "data: {\"type\":\"content\",\"content\":\"# Overview\\nBody\"}\n\n" +
		"data: {\"type\":\"sections\",\"data\":[{\"id\":\"s1\",\"title\":\"Overview\",\"content\":\"Body\",\"order\":0}]}\n\n" +
		"data: {\"type\":\"complete\",\"reportId\":\"r-123\"}\n\n"
	srv := sseServer(t, payload)
	defer srv.Close()

	c := New(srv.URL, "")
	gen, _, err := c.Generate(context.Background(), &models.GenerateRequest{
		ThreadID: "t1", Prompt: "go", Model: "m",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	waitDone(t, gen)

	if got := gen.State(); got != StateComplete {
		t.Fatalf("state = %q, want complete", got)
	}
	if gen.ReportID() != "r-123" {
		t.Fatalf("report id = %q, want r-123", gen.ReportID())
	}
	if gen.Content() != "# Overview\nBody" {
		t.Fatalf("content = %q", gen.Content())
	}
	sections := gen.Sections()
	if len(sections) != 1 || sections[0].Title != "Overview" {
		t.Fatalf("sections = %+v", sections)
	}
}

func TestGenerateErrorFrame(t *testing.T) {
	payload := "data: {\"type\":\"content\",\"content\":\"partial\"}\n\n" +
		"data: {\"type\":\"error\",\"error\":\"Generation failed: provider down\"}\n\n"
	srv := sseServer(t, payload)
	defer srv.Close()

	c := New(srv.URL, "")
	gen, _, err := c.Generate(context.Background(), &models.GenerateRequest{
		ThreadID: "t1", Prompt: "go", Model: "m",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	waitDone(t, gen)

	if got := gen.State(); got != StateError {
		t.Fatalf("state = %q, want error", got)
	}
	if gen.Err() == "" {
		t.Fatal("error message is empty")
	}
	// Partial content survives the failure.
	if gen.Content() != "partial" {
		t.Fatalf("content = %q, want partial", gen.Content())
	}
	if gen.ReportID() != "" {
		t.Fatalf("report id = %q, want empty on error", gen.ReportID())
	}
}

func TestGenerateStreamDropsWithoutTerminal(t *testing.T) {
	// Connection ends after content with no terminal frame.
	payload := "data: {\"type\":\"content\",\"content\":\"half a rep\"}\n\n"
	srv := sseServer(t, payload)
	defer srv.Close()

	c := New(srv.URL, "")
	gen, _, err := c.Generate(context.Background(), &models.GenerateRequest{
		ThreadID: "t1", Prompt: "go", Model: "m",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	waitDone(t, gen)

	if got := gen.State(); got != StateError {
		t.Fatalf("state = %q, want error", got)
	}
	if gen.Content() != "half a rep" {
		t.Fatalf("content = %q, accumulated content must be kept", gen.Content())
	}
	// A report id is only ever known from an explicit complete frame.
	if gen.ReportID() != "" {
		t.Fatalf("report id = %q, want empty", gen.ReportID())
	}
}

func TestGenerateCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"content\",\"content\":\"tick\"}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Hold the stream open until the client disconnects.
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	gen, cancel, err := c.Generate(context.Background(), &models.GenerateRequest{
		ThreadID: "t1", Prompt: "go", Model: "m",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// Let the first frame arrive, then abort.
	deadline := time.Now().Add(2 * time.Second)
	for gen.Content() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	waitDone(t, gen)

	if got := gen.State(); got != StateCancelled {
		t.Fatalf("state = %q, want cancelled", got)
	}
	if gen.Err() != "Generation cancelled" {
		t.Fatalf("error = %q, want %q", gen.Err(), "Generation cancelled")
	}
	if gen.Content() != "tick" {
		t.Fatalf("content = %q, want tick", gen.Content())
	}
}

func TestGenerateRejectedBeforeStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":"a generation is already in progress for this thread"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, _, err := c.Generate(context.Background(), &models.GenerateRequest{
		ThreadID: "t1", Prompt: "go", Model: "m",
	})
	if err == nil {
		t.Fatal("expected error for 409 response")
	}
}

func TestGenerationStateMachineIgnoresFramesAfterTerminal(t *testing.T) {
	gen := newGeneration()
	gen.state = StateGenerating

	gen.apply(stream.ContentFrame("abc"))
	gen.apply(stream.CompleteFrame("r-1"))

	// A slow reader must not re-animate a finished generation.
	gen.apply(stream.ContentFrame("zzz"))
	gen.apply(stream.ErrorFrame("late failure"))
	gen.apply(stream.SectionsFrame([]db.Section{{ID: "s9"}}))

	if gen.State() != StateComplete {
		t.Fatalf("state = %q, want complete", gen.State())
	}
	if gen.Content() != "abc" {
		t.Fatalf("content = %q, want abc", gen.Content())
	}
	if gen.ReportID() != "r-1" {
		t.Fatalf("report id = %q, want r-1", gen.ReportID())
	}
	if len(gen.Sections()) != 0 {
		t.Fatal("sections appended after terminal state")
	}
}

func TestGenerationProgressEstimate(t *testing.T) {
	gen := newGeneration()
	gen.state = StateGenerating

	if gen.Progress() != 0 {
		t.Fatalf("initial progress = %v, want 0", gen.Progress())
	}

	gen.apply(stream.ContentFrame(strings.Repeat("a", 1000)))
	first := gen.Progress()
	if first <= 0 || first >= 1 {
		t.Fatalf("progress after first frame = %v, want in (0, 1)", first)
	}

	gen.apply(stream.ContentFrame(strings.Repeat("b", 1000)))
	second := gen.Progress()
	if second <= first {
		t.Fatalf("progress did not advance: %v -> %v", first, second)
	}

	// Arbitrarily long content stays pinned below 1 until completion.
	gen.apply(stream.ContentFrame(strings.Repeat("c", 20000)))
	if p := gen.Progress(); p >= 1 {
		t.Fatalf("progress = %v, must stay below 1 while generating", p)
	}

	gen.apply(stream.CompleteFrame("r-1"))
	if p := gen.Progress(); p != 1 {
		t.Fatalf("progress after complete = %v, want 1", p)
	}
}

func TestGenerationStateMachineCancelledFrame(t *testing.T) {
	gen := newGeneration()
	gen.state = StateGenerating

	gen.apply(stream.ErrorFrame("Generation cancelled"))

	if gen.State() != StateCancelled {
		t.Fatalf("state = %q, want cancelled", gen.State())
	}
}

package stream

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/db"
)

func TestEncoder_FrameBoundary(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	frames := []Frame{
		ContentFrame("hello "),
		SectionsFrame([]db.Section{{Title: "A", Order: 0, Status: db.SectionStatusComplete}}),
		CompleteFrame("report-1"),
	}
	for _, f := range frames {
		if err := enc.Encode(f); err != nil {
			t.Fatalf("Encode(%s) error = %v", f.Type, err)
		}
	}

	records := strings.Split(strings.TrimSuffix(buf.String(), "\n\n"), "\n\n")
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3: %q", len(records), buf.String())
	}
	for i, rec := range records {
		if !strings.HasPrefix(rec, "data: ") {
			t.Fatalf("records[%d] missing data prefix: %q", i, rec)
		}
		var f Frame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(rec, "data: ")), &f); err != nil {
			t.Fatalf("records[%d] not valid JSON: %v", i, err)
		}
		if f.Type != frames[i].Type {
			t.Fatalf("records[%d].Type = %q, want %q", i, f.Type, frames[i].Type)
		}
	}
}

func TestFrame_Terminal(t *testing.T) {
	if ContentFrame("x").Terminal() || SectionsFrame(nil).Terminal() {
		t.Fatalf("content/sections must not be terminal")
	}
	if !CompleteFrame("r").Terminal() || !ErrorFrame("boom").Terminal() {
		t.Fatalf("complete/error must be terminal")
	}
}

func TestFrame_CompletePayloadFieldName(t *testing.T) {
	b, err := json.Marshal(CompleteFrame("r-123"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"reportId":"r-123"`) {
		t.Fatalf("complete frame JSON = %s, want reportId field", b)
	}
}

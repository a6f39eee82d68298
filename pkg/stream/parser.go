package stream

import (
	"regexp"
	"strings"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/db"
	"github.com/google/uuid"
)

// boldHeading matches a line that is nothing but a bold run, which financial
// models frequently emit instead of a markdown heading.
var boldHeading = regexp.MustCompile(`^\*\*([^*]+)\*\*:?\s*$`)

// Parser incrementally splits an append-only stream of model output into
// ordered, titled sections. Boundaries are markdown headings (or bold-only
// lines); crossing a boundary finalizes the previous section with the next
// order index. Finalized sections are never mutated and order indexes are
// never reassigned.
//
// Text before the first recognized heading is kept as an untitled section
// with order 0: discarding it would make the content frames and the final
// report disagree.
//
// Feeding the same text through a fresh Parser in different chunkings yields
// identical boundaries: only complete lines are classified, and a trailing
// partial line stays pending until its newline arrives (or Finish is called).
type Parser struct {
	pending   string // partial last line awaiting its newline
	nextOrder int

	open     bool
	title    string
	body     strings.Builder
	hasBody  bool
	finished bool
}

// NewParser returns a parser with no sections.
func NewParser() *Parser {
	return &Parser{}
}

// Feed appends a delta to the buffer and returns any sections finalized by
// it, in order. The returned sections have status complete.
func (p *Parser) Feed(delta string) []db.Section {
	if p.finished || delta == "" {
		return nil
	}

	var done []db.Section
	buf := p.pending + delta
	for {
		nl := strings.IndexByte(buf, '\n')
		if nl < 0 {
			break
		}
		line := strings.TrimSuffix(buf[:nl], "\r")
		buf = buf[nl+1:]
		if sec, ok := p.consumeLine(line); ok {
			done = append(done, sec)
		}
	}
	p.pending = buf
	return done
}

// Finish flushes the trailing partial line and the open section, returning
// any remaining finalized sections. The parser accepts no input afterwards.
func (p *Parser) Finish() []db.Section {
	if p.finished {
		return nil
	}
	p.finished = true

	var done []db.Section
	if p.pending != "" {
		line := strings.TrimSuffix(p.pending, "\r")
		p.pending = ""
		if sec, ok := p.consumeLine(line); ok {
			done = append(done, sec)
		}
	}
	if sec, ok := p.finalizeOpen(); ok {
		done = append(done, sec)
	}
	return done
}

// consumeLine classifies one complete line. It returns the previous section
// when the line starts a new one.
func (p *Parser) consumeLine(line string) (db.Section, bool) {
	if title, ok := headingTitle(line); ok {
		sec, had := p.finalizeOpen()
		p.open = true
		p.title = title
		return sec, had
	}

	if !p.open {
		// Preamble: hold off opening until there is visible content so a
		// report that starts with a heading gets order 0 for that heading.
		if strings.TrimSpace(line) == "" {
			return db.Section{}, false
		}
		p.open = true
		p.title = ""
	}
	p.body.WriteString(line)
	p.body.WriteByte('\n')
	if strings.TrimSpace(line) != "" {
		p.hasBody = true
	}
	return db.Section{}, false
}

// finalizeOpen closes the open section, assigning it the next order index.
// Untitled sections with no visible content are dropped.
func (p *Parser) finalizeOpen() (db.Section, bool) {
	if !p.open {
		return db.Section{}, false
	}
	content := strings.TrimRight(p.body.String(), "\n")
	p.body.Reset()
	defer func() {
		p.open = false
		p.title = ""
		p.hasBody = false
	}()

	if p.title == "" && !p.hasBody {
		return db.Section{}, false
	}
	sec := db.Section{
		ID:      uuid.New().String(),
		Title:   p.title,
		Content: content,
		Order:   p.nextOrder,
		Status:  db.SectionStatusComplete,
	}
	p.nextOrder++
	return sec, true
}

// headingTitle reports whether line is a section boundary and returns its title.
func headingTitle(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "#") {
		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		if level <= 6 && level < len(trimmed) && trimmed[level] == ' ' {
			title := strings.TrimSpace(trimmed[level:])
			title = strings.TrimRight(title, "# ")
			if title != "" {
				return title, true
			}
		}
		return "", false
	}

	if m := boldHeading.FindStringSubmatch(trimmed); m != nil {
		title := strings.TrimSpace(m[1])
		if title != "" {
			return title, true
		}
	}
	return "", false
}

package hosts

import (
	"fmt"
	"strings"
)

const (
	StartMarker = "# WEBBLOCKER START"
	EndMarker   = "# WEBBLOCKER END"
)

// document is a hosts file split into lines, with the position of the
// managed block section if one exists.
type document struct {
	lines    []string
	crlf     bool
	trailing bool
	start    int
	end      int
}

// parseDocument splits content into lines and locates the block section.
// Lines keep any trailing '\r' so they can be written back unchanged.
func parseDocument(content []byte) (*document, error) {
	doc := &document{start: -1, end: -1}
	s := string(content)
	if s != "" {
		doc.trailing = strings.HasSuffix(s, "\n")
		s = strings.TrimSuffix(s, "\n")
		doc.lines = strings.Split(s, "\n")
	}

	for i, line := range doc.lines {
		if strings.HasSuffix(line, "\r") {
			doc.crlf = true
		}
		switch strings.TrimSuffix(line, "\r") {
		case StartMarker:
			if doc.start >= 0 && doc.end < 0 {
				return nil, fmt.Errorf("%w: start marker on line %d is nested in the section opened on line %d",
					ErrMalformedSection, i+1, doc.start+1)
			}
			if doc.start >= 0 {
				return nil, fmt.Errorf("%w: second start marker on line %d", ErrMalformedSection, i+1)
			}
			doc.start = i
		case EndMarker:
			if doc.start < 0 {
				return nil, fmt.Errorf("%w: end marker on line %d has no start marker", ErrMalformedSection, i+1)
			}
			if doc.end >= 0 {
				return nil, fmt.Errorf("%w: second end marker on line %d", ErrMalformedSection, i+1)
			}
			doc.end = i
		}
	}
	if doc.start >= 0 && doc.end < 0 {
		return nil, fmt.Errorf("%w: start marker on line %d has no matching end marker",
			ErrMalformedSection, doc.start+1)
	}
	return doc, nil
}

func (d *document) hasSection() bool {
	return d.start >= 0
}

func (d *document) body() []string {
	if !d.hasSection() {
		return nil
	}
	return d.lines[d.start+1 : d.end]
}

// line adds the file's line terminator style to a generated line.
func (d *document) line(s string) string {
	if d.crlf {
		return s + "\r"
	}
	return s
}

func (d *document) replaceBody(entries []string) {
	lines := make([]string, 0, len(d.lines)-len(d.body())+len(entries))
	lines = append(lines, d.lines[:d.start+1]...)
	for _, e := range entries {
		lines = append(lines, d.line(e))
	}
	lines = append(lines, d.lines[d.end:]...)
	d.lines = lines
	d.end = d.start + 1 + len(entries)
}

// appendSection adds a new section at the end of the file, separated from
// existing content by one blank line.
func (d *document) appendSection(entries []string) {
	if len(d.lines) > 0 {
		d.lines = append(d.lines, d.line(""))
	}
	d.start = len(d.lines)
	d.lines = append(d.lines, d.line(StartMarker))
	for _, e := range entries {
		d.lines = append(d.lines, d.line(e))
	}
	d.end = len(d.lines)
	d.lines = append(d.lines, d.line(EndMarker))
	d.trailing = true
}

// removeSection drops both markers, the body, and the blank separator line
// right above the start marker.
func (d *document) removeSection() {
	from := d.start
	if from > 0 && strings.TrimSpace(d.lines[from-1]) == "" {
		from--
	}
	lines := append([]string{}, d.lines[:from]...)
	d.lines = append(lines, d.lines[d.end+1:]...)
	d.start, d.end = -1, -1
	if len(d.lines) == 0 {
		d.trailing = false
	}
}

// purgeHosts removes every line that maps one of names, used when the file
// carries blocking entries written without markers.
func (d *document) purgeHosts(names []string) int {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[strings.ToLower(n)] = true
	}

	kept := d.lines[:0:0]
	removed := 0
	for _, line := range d.lines {
		if matchesAny(hostnames(line), drop) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	d.lines = kept
	if len(d.lines) == 0 {
		d.trailing = false
	}
	return removed
}

func (d *document) bytes() []byte {
	if len(d.lines) == 0 {
		return []byte{}
	}
	var b strings.Builder
	b.WriteString(strings.Join(d.lines, "\n"))
	if d.trailing {
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// entryLines renders one "<redirect>\t<domain>" line per domain.
func entryLines(redirect string, domains []string) []string {
	lines := make([]string, 0, len(domains))
	for _, domain := range domains {
		lines = append(lines, redirect+"\t"+domain)
	}
	return lines
}

// hostnames returns the hostname fields of a hosts line, ignoring comments
// and lines without an address.
func hostnames(line string) []string {
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

func matchesAny(names []string, set map[string]bool) bool {
	for _, n := range names {
		if set[strings.ToLower(n)] {
			return true
		}
	}
	return false
}

// Package helper runs external helper programs and parses their line
// protocol: "#!begin <label>" lines set the active section, comma-separated
// rows carry detail, and every other line is ignored.
package helper

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const (
	beginMarker = "#!begin "
	linkMarker  = "~link"
	maxLine     = 4 << 20
)

// Protocol describes how rows are recognized in a helper's output.
type Protocol struct {
	// RowPrefix, when set, must start every row.
	RowPrefix string
	// HeaderPrefix, when set, identifies the header line naming the columns.
	HeaderPrefix string
	// Columns is the required row width when there is no header.
	Columns int
	// Quoted rows are parsed as CSV; otherwise rows are split on commas with
	// the last column taking the remainder.
	Quoted bool
}

// Row is one recognized detail row.
type Row struct {
	Cols []string
	head map[string]int
}

// Get returns column i, or "" when out of range.
func (r Row) Get(i int) string {
	if i < 0 || i >= len(r.Cols) {
		return ""
	}
	return r.Cols[i]
}

// Field returns the column named by the header, or "" when absent.
func (r Row) Field(name string) string {
	i, ok := r.head[name]
	if !ok {
		return ""
	}
	return r.Get(i)
}

// Header returns the header column names that satisfy match.
func (r Row) Header(match func(string) bool) []string {
	var names []string
	for name := range r.head {
		if match(name) {
			names = append(names, name)
		}
	}
	return names
}

// Handler receives each row with the section active when it was read.
type Handler func(section string, row Row) error

// Parser is the line state machine behind Parse.
type Parser struct {
	proto   Protocol
	section string
	head    map[string]int
	width   int
}

// NewParser returns a parser in its initial state.
func NewParser(proto Protocol) *Parser {
	p := &Parser{proto: proto}
	if proto.HeaderPrefix == "" {
		p.width = proto.Columns
	}
	return p
}

// Feed consumes one line without its terminator. It reports the row and
// whether the line was a row.
func (p *Parser) Feed(line string) (Row, bool) {
	line = strings.TrimSuffix(line, "\r")
	switch {
	case strings.HasPrefix(line, beginMarker):
		label := strings.TrimPrefix(line, beginMarker)
		label, _, _ = strings.Cut(label, linkMarker)
		p.section = strings.TrimSpace(label)
		return Row{}, false
	case line == "" || strings.HasPrefix(line, "#!"):
		return Row{}, false
	case p.proto.HeaderPrefix != "" && strings.HasPrefix(line, p.proto.HeaderPrefix):
		cols, err := p.split(line, -1)
		if err != nil {
			return Row{}, false
		}
		p.head = make(map[string]int, len(cols))
		for i, c := range cols {
			p.head[c] = i
		}
		p.width = len(cols)
		return Row{}, false
	case p.proto.RowPrefix != "" && !strings.HasPrefix(line, p.proto.RowPrefix):
		return Row{}, false
	case p.width == 0:
		return Row{}, false
	}
	cols, err := p.split(line, p.width)
	if err != nil || len(cols) != p.width {
		return Row{}, false
	}
	return Row{Cols: cols, head: p.head}, true
}

func (p *Parser) split(line string, n int) ([]string, error) {
	if !p.proto.Quoted {
		return strings.SplitN(line, ",", n), nil
	}
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

// Parse feeds every line of r through a parser for proto and passes rows to fn.
// Parsing stops at the first handler error.
func Parse(r io.Reader, proto Protocol, fn Handler) error {
	p := NewParser(proto)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		row, ok := p.Feed(sc.Text())
		if !ok {
			continue
		}
		if err := fn(p.section, row); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("error reading helper output: %w", err)
	}
	return nil
}

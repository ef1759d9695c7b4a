// Package record writes the framed, tab-separated record stream that gopher
// emits on standard output for downstream ingestion.
package record

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"
)

// ErrBrokenPipe is returned when the consumer of the stream has gone away.
var ErrBrokenPipe = errors.New("broken pipe")

// TimeFormat is the local timestamp layout used in begin and end markers.
const TimeFormat = "2006-01-02T15:04:05.000000"

// Record holds field values by column name; absent columns are written empty.
type Record map[string]string

var cleaner = strings.NewReplacer("\r", "", "\n", " ", `"`, `""`)

// Writer frames records for one model. It is not safe for concurrent use.
type Writer struct {
	out     io.Writer
	model   string
	cols    []string
	section string
	pending string
	count   int
	closed  bool
	onEmit  func()
	now     func() time.Time
}

// NewWriter creates a writer for model with the given column order. The begin
// marker is stamped with now() at creation but nothing is written until the
// first Emit or Close. A nil now uses time.Now.
func NewWriter(out io.Writer, model string, cols []string, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	begin := fmt.Sprintf("#!begin gopher %s # at %s\n%s\n",
		model, now().Format(TimeFormat), strings.Join(cols, "\t"))
	return &Writer{
		out:     out,
		model:   model,
		cols:    append([]string(nil), cols...),
		pending: begin,
		now:     now,
	}
}

// OnEmit registers a hook called after each record is written.
func (w *Writer) OnEmit(fn func()) {
	w.onEmit = fn
}

// Count returns the number of records written so far.
func (w *Writer) Count() int {
	return w.count
}

// Emit writes rec under section. An empty section keeps the active one.
func (w *Writer) Emit(section string, rec Record) error {
	if w.closed {
		return fmt.Errorf("emit on closed %s writer", w.model)
	}
	var b strings.Builder
	b.WriteString(w.pending)
	w.pending = ""
	if section != "" && section != w.section {
		w.section = section
		b.WriteString("\n#!section ")
		b.WriteString(section)
		b.WriteByte('\n')
	}
	for i, c := range w.cols {
		if i > 0 {
			b.WriteByte('\t')
		}
		b.WriteByte('"')
		b.WriteString(cleaner.Replace(rec[c]))
		b.WriteByte('"')
	}
	b.WriteByte('\n')

	if err := w.write(b.String()); err != nil {
		return err
	}
	w.count++
	if w.onEmit != nil {
		w.onEmit()
	}
	return nil
}

// Close writes any staged begin marker and header followed by the end marker.
// Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	var b strings.Builder
	b.WriteString(w.pending)
	w.pending = ""
	fmt.Fprintf(&b, "\n#!end gopher %s # at %s\n", w.model, w.now().Format(TimeFormat))
	return w.write(b.String())
}

func (w *Writer) write(s string) error {
	if _, err := io.WriteString(w.out, s); err != nil {
		return fmt.Errorf("%s output: %w", w.model, PipeError(err))
	}
	return nil
}

// PipeError maps a write error caused by a closed reader to ErrBrokenPipe.
func PipeError(err error) error {
	if errors.Is(err, syscall.EPIPE) {
		return ErrBrokenPipe
	}
	return err
}

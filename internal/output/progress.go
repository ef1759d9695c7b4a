// Package output renders operator-facing progress on standard error.
package output

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress counts emitted records with a spinner. A nil *Progress is a no-op.
type Progress struct {
	bar   *progressbar.ProgressBar
	count int64
}

// NewProgress creates a spinner labeled desc that writes to w.
func NewProgress(w io.Writer, desc string) *Progress {
	return &Progress{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		),
	}
}

// Describe relabels the spinner.
func (p *Progress) Describe(desc string) {
	if p == nil {
		return
	}
	p.bar.Describe(desc)
}

// Add records n more items.
func (p *Progress) Add(n int) {
	if p == nil {
		return
	}
	p.count += int64(n)
	// display errors are not worth failing a fetch over
	_ = p.bar.Add(n)
}

// Count returns the number of items recorded.
func (p *Progress) Count() int64 {
	if p == nil {
		return 0
	}
	return p.count
}

// Done clears the spinner.
func (p *Progress) Done() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}

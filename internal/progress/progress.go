// Package progress renders byte-level transfer progress to a terminal line.
package progress

import (
	"fmt"
	"io"
	"time"

	pb "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Factory builds a Meter for one transfer. A total <= 0 means the size is
// unknown up front and the meter falls back to a plain byte counter.
type Factory func(label string, total int64) *Meter

// Writer returns a Factory rendering to w.
func Writer(w io.Writer) Factory {
	return func(label string, total int64) *Meter {
		return NewMeter(w, label, total)
	}
}

// Discard is a Factory that renders nothing. Useful in tests and quiet mode.
func Discard(label string, total int64) *Meter {
	return NewMeter(io.Discard, label, total)
}

const (
	barWidth      = 30
	renderEvery   = 80 * time.Millisecond
	labelMaxWidth = 32
)

var labelStyle = lipgloss.NewStyle().Faint(true)

// Meter tracks bytes moved for a single transfer and repaints one line as it
// advances. It is not safe for concurrent use; each transfer owns its own
// meter.
type Meter struct {
	w       io.Writer
	label   string
	total   int64
	written int64
	bar     pb.Model
	last    time.Time
	done    bool
}

// NewMeter builds a meter writing to w.
func NewMeter(w io.Writer, label string, total int64) *Meter {
	if len(label) > labelMaxWidth {
		label = label[:labelMaxWidth-1] + "…"
	}
	return &Meter{
		w:     w,
		label: label,
		total: total,
		bar:   pb.New(pb.WithDefaultGradient(), pb.WithWidth(barWidth), pb.WithoutPercentage()),
	}
}

// Add advances the meter by n bytes.
func (m *Meter) Add(n int) {
	if m.done {
		return
	}
	m.written += int64(n)
	if time.Since(m.last) < renderEvery {
		return
	}
	m.render()
}

// Write implements io.Writer so the meter can sit behind a TeeReader.
func (m *Meter) Write(p []byte) (int, error) {
	m.Add(len(p))
	return len(p), nil
}

// Finish paints the final state and terminates the line. It is safe to call
// more than once.
func (m *Meter) Finish() {
	if m.done {
		return
	}
	m.render()
	m.done = true
	fmt.Fprintln(m.w)
}

func (m *Meter) render() {
	m.last = time.Now()
	if m.total > 0 {
		frac := float64(m.written) / float64(m.total)
		if frac > 1 {
			frac = 1
		}
		fmt.Fprintf(m.w, "\r%s %s %s / %s",
			labelStyle.Render(m.label),
			m.bar.ViewAs(frac),
			humanBytes(m.written),
			humanBytes(m.total))
		return
	}
	fmt.Fprintf(m.w, "\r%s %s", labelStyle.Render(m.label), humanBytes(m.written))
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

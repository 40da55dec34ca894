package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Progress follows a batch render: scenes finished, pixels rendered and the
// names of failed variations.
type Progress struct {
	startTime time.Time
	output    io.Writer
	failed    []string
	total     int
	completed int
	pixels    int64
	mu        sync.Mutex
	enabled   bool
}

// NewProgress creates a tracker for total scenes. When enabled, a progress
// bar is redrawn on stderr after every scene.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// Record accounts for one finished render.
func (p *Progress) Record(r Result, completed, total int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	if r.Err != nil {
		p.failed = append(p.failed, r.Task.Name)
	} else {
		p.pixels += r.Task.Pixels()
	}
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Record
}

// Failed returns the names of failed renders in completion order.
func (p *Progress) Failed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.failed...)
}

type progressSnapshot struct {
	elapsed   time.Duration
	completed int
	total     int
	failed    int
	pixels    int64
}

func (p *Progress) snapshot() progressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return progressSnapshot{
		elapsed:   time.Since(p.startTime),
		completed: p.completed,
		total:     p.total,
		failed:    len(p.failed),
		pixels:    p.pixels,
	}
}

// megapixelRate is rendered megapixels per second.
func (s progressSnapshot) megapixelRate() float64 {
	if s.elapsed <= 0 {
		return 0
	}
	return float64(s.pixels) / 1e6 / s.elapsed.Seconds()
}

// Print redraws the progress line.
func (p *Progress) Print() {
	s := p.snapshot()

	var eta time.Duration
	if s.completed > 0 && s.completed < s.total {
		perScene := s.elapsed / time.Duration(s.completed)
		eta = perScene * time.Duration(s.total-s.completed)
	}

	const barWidth = 30
	filled := 0
	if s.total > 0 {
		filled = s.completed * barWidth / s.total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	line := fmt.Sprintf("\r[%s] %d/%d scenes", bar, s.completed, s.total)
	if s.failed > 0 {
		line += fmt.Sprintf(" (%d failed)", s.failed)
	}
	line += fmt.Sprintf(" - %.1f Mpx/s", s.megapixelRate())
	if eta > 0 {
		line += " - ETA: " + formatDuration(eta)
	}
	if s.completed == s.total {
		line += " - Done in " + formatDuration(s.elapsed)
	}

	// Pad to clear previous line content
	fmt.Fprint(p.output, line+"          ")
}

// Done prints the final progress and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary describes the finished batch, naming failed variations.
func (p *Progress) Summary() string {
	s := p.snapshot()
	failed := p.Failed()

	summary := fmt.Sprintf("Rendered %d/%d scenes, %.1f Mpx in %s (%.1f Mpx/s)",
		s.completed-s.failed, s.total, float64(s.pixels)/1e6, formatDuration(s.elapsed), s.megapixelRate())
	if len(failed) > 0 {
		summary += fmt.Sprintf("; %d failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return summary
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

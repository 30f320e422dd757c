// Package report provides the sinks generation passes write their
// progress and summary lines to.
package report

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
)

// Writer prints each line to w, like a console.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a reporter that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Log writes line followed by a newline.
func (r *Writer) Log(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, line)
}

// Logger forwards lines to a structured logger at info level.
type Logger struct {
	log logging.Logger
}

// NewLogger wraps l.
func NewLogger(l logging.Logger) *Logger {
	if l == nil {
		l = logging.Noop()
	}
	return &Logger{log: l}
}

// Log emits line as a "report" message.
func (r *Logger) Log(line string) {
	if line == "" {
		return
	}
	r.log.Info(context.Background(), "report", logging.String("line", line))
}

// Recorder keeps every line in memory, bounded to the most recent Limit
// lines when Limit > 0.
type Recorder struct {
	mu    sync.Mutex
	lines []string
	Limit int
}

// Log appends line.
func (r *Recorder) Log(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	if r.Limit > 0 && len(r.lines) > r.Limit {
		r.lines = append([]string(nil), r.lines[len(r.lines)-r.Limit:]...)
	}
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Reset drops every recorded line.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}

type multi []core.Reporter

// Multi fans every line out to each non-nil reporter in rs.
func Multi(rs ...core.Reporter) core.Reporter {
	out := make(multi, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Log(line string) {
	for _, r := range m {
		r.Log(line)
	}
}

package scanner

import (
	"sync"
	"time"
)

// ScanProgress represents real-time scan progress
type ScanProgress struct {
	Operation  string  // "listing", "parsing", "grouping", "storing", "reporting"
	Stage      string  // "scanning", "complete"
	Current    int     // Current item number
	Total      int     // Total items
	Percentage float64 // 0-100
	Message    string  // Human-readable status

	StartTime      time.Time
	ElapsedSeconds int
}

// ProgressReporter helps send progress updates. A nil channel turns every
// call into a no-op. Start and Complete always deliver; Update drops the
// message when the receiver is behind so workers never stall on it.
type ProgressReporter struct {
	mu        sync.Mutex
	ch        chan<- ScanProgress
	operation string
	startTime time.Time
	total     int
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(ch chan<- ScanProgress, operation string) *ProgressReporter {
	return &ProgressReporter{
		ch:        ch,
		operation: operation,
		startTime: time.Now(),
	}
}

// Start sends initial progress with total count
func (pr *ProgressReporter) Start(total int, message string) {
	pr.mu.Lock()
	pr.total = total
	pr.mu.Unlock()
	pr.send(pr.build(0, "scanning", message), true)
}

// Update sends progress update
func (pr *ProgressReporter) Update(current int, message string) {
	pr.send(pr.build(current, "scanning", message), false)
}

// Complete sends completion message
func (pr *ProgressReporter) Complete(message string) {
	pr.mu.Lock()
	total := pr.total
	pr.mu.Unlock()
	pr.send(pr.build(total, "complete", message), true)
}

func (pr *ProgressReporter) build(current int, stage, message string) ScanProgress {
	pr.mu.Lock()
	total := pr.total
	pr.mu.Unlock()

	percentage := 0.0
	if total > 0 {
		percentage = (float64(current) / float64(total)) * 100.0
	}
	if stage == "complete" {
		percentage = 100.0
	}

	return ScanProgress{
		Operation:      pr.operation,
		Stage:          stage,
		Current:        current,
		Total:          total,
		Percentage:     percentage,
		Message:        message,
		StartTime:      pr.startTime,
		ElapsedSeconds: int(time.Since(pr.startTime).Seconds()),
	}
}

func (pr *ProgressReporter) send(p ScanProgress, wait bool) {
	if pr == nil || pr.ch == nil {
		return
	}
	if wait {
		pr.ch <- p
		return
	}
	select {
	case pr.ch <- p:
	default:
	}
}

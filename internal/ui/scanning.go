package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nomadcxx/mediaclue/internal/reporter"
	"github.com/Nomadcxx/mediaclue/internal/scanner"
)

const maxLogLines = 1000

// ScanFunc runs a scan, sending progress on the channel, and returns the
// finished report.
type ScanFunc func(ctx context.Context, progressCh chan<- scanner.ScanProgress) (reporter.Report, error)

type scanDoneMsg struct {
	report reporter.Report
	err    error
}

// ScanningModel shows live progress while a scan runs, then hands over to
// the report viewer.
type ScanningModel struct {
	ctx        context.Context
	cancel     context.CancelFunc
	run        ScanFunc
	progressCh chan scanner.ScanProgress

	current   scanner.ScanProgress
	logs      []string
	width     int
	height    int
	err       error
	cancelled bool
}

// NewScanningModel creates a new scanning screen for run.
func NewScanningModel(ctx context.Context, run ScanFunc) ScanningModel {
	ctx, cancel := context.WithCancel(ctx)
	return ScanningModel{
		ctx:        ctx,
		cancel:     cancel,
		run:        run,
		progressCh: make(chan scanner.ScanProgress, 64),
	}
}

// Err returns the scan error, if the scan failed.
func (m ScanningModel) Err() error {
	return m.err
}

// Cancelled reports whether the user aborted the scan.
func (m ScanningModel) Cancelled() bool {
	return m.cancelled
}

// Init starts the scan and the progress listener
func (m ScanningModel) Init() tea.Cmd {
	return tea.Batch(m.startScan, m.waitForProgress)
}

func (m ScanningModel) startScan() tea.Msg {
	report, err := m.run(m.ctx, m.progressCh)
	close(m.progressCh)
	return scanDoneMsg{report: report, err: err}
}

func (m ScanningModel) waitForProgress() tea.Msg {
	p, ok := <-m.progressCh
	if !ok {
		return nil
	}
	return progressMsg(p)
}

// Update handles messages
func (m ScanningModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			m.cancelled = true
			return m, tea.Quit
		case "q", "esc":
			if m.err != nil {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case progressMsg:
		m.current = scanner.ScanProgress(msg)
		line := fmt.Sprintf("%02d:%02d %-9s %s",
			msg.ElapsedSeconds/60, msg.ElapsedSeconds%60, msg.Operation, msg.Message)
		m.logs = append(m.logs, line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		return m, m.waitForProgress

	case scanDoneMsg:
		m.cancel()
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		width, height := m.width, m.height
		return NewModel(msg.report), func() tea.Msg {
			return tea.WindowSizeMsg{Width: width, Height: height}
		}
	}

	return m, nil
}

// View renders the scanning screen
func (m ScanningModel) View() string {
	var sb strings.Builder

	sb.WriteString(FormatBanner("scanning...") + "\n\n")
	sb.WriteString(renderProgressBar(m.current.Percentage, 50) + "\n")
	sb.WriteString(fmt.Sprintf("  %s %.1f%%\n\n", m.current.Message, m.current.Percentage))

	sb.WriteString(TitleStyle.Render("SCAN LOG") + "\n")
	start := 0
	visible := 15
	if m.height > 0 {
		visible = max(m.height-14, 5)
	}
	if len(m.logs) > visible {
		start = len(m.logs) - visible
	}
	for _, line := range m.logs[start:] {
		sb.WriteString(MutedStyle.Render(line) + "\n")
	}

	if m.err != nil {
		sb.WriteString("\n" + FormatStatusFail(m.err.Error()) + "\n")
		sb.WriteString(FormatFooter(m.width, FormatKeybinding("q", "Quit")))
		return sb.String()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		sb.String(),
		FormatFooter(m.width, FormatKeybinding("Ctrl+C", "Cancel Scan"), MutedStyle.Render("Please wait...")),
	)
}

// renderProgressBar creates a text-based progress bar
func renderProgressBar(percent float64, width int) string {
	filled := int((percent / 100.0) * float64(width))
	filled = min(max(filled, 0), width)
	bar := "[" + strings.Repeat("█", filled) + strings.Repeat(" ", width-filled) + "]"
	return SuccessStyle.Render(bar)
}

// View opens the report viewer and blocks until the user quits.
func View(report reporter.Report) error {
	_, err := tea.NewProgram(NewModel(report), tea.WithAltScreen()).Run()
	return err
}

// RunScan runs the scan behind the progress screen, then shows the report.
// A scan aborted from the keyboard returns context.Canceled.
func RunScan(ctx context.Context, run ScanFunc) error {
	final, err := tea.NewProgram(NewScanningModel(ctx, run), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if sm, ok := final.(ScanningModel); ok {
		if sm.Cancelled() {
			return context.Canceled
		}
		return sm.Err()
	}
	return nil
}

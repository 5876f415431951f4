// Package ui is the terminal report viewer.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nomadcxx/mediaclue/internal/parser"
	"github.com/Nomadcxx/mediaclue/internal/reporter"
	"github.com/Nomadcxx/mediaclue/internal/scanner"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewSummary ViewMode = iota
	ViewGroups
	ViewUnknown
	ViewResults
)

const chromeHeight = 4 // header, footer and their spacing

// Model represents the TUI state
type Model struct {
	report   reporter.Report
	mode     ViewMode
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	filtering bool
	filter    textinput.Model
}

// NewModel creates a new TUI model with a scan report
func NewModel(report reporter.Report) Model {
	ti := textinput.New()
	ti.Placeholder = "filter titles..."
	ti.CharLimit = 200
	ti.Width = 40

	return Model{
		report: report,
		mode:   ViewSummary,
		filter: ti,
	}
}

// Mode returns the active view.
func (m Model) Mode() ViewMode {
	return m.mode
}

// Filter returns the current title filter.
func (m Model) Filter() string {
	return strings.TrimSpace(m.filter.Value())
}

// Init initializes the TUI
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "esc":
				m.filtering = false
				m.filter.Blur()
				m.filter.SetValue("")
				m.refresh()
				return m, nil
			case "enter":
				m.filtering = false
				m.filter.Blur()
				m.refresh()
				return m, nil
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.refresh()
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "esc":
			if m.Filter() != "" {
				m.filter.SetValue("")
				m.refresh()
				return m, nil
			}
			if m.mode != ViewSummary {
				m.setMode(ViewSummary)
				return m, nil
			}
			return m, tea.Quit

		case "1", "f1":
			m.setMode(ViewSummary)
			return m, nil
		case "2", "f2":
			m.setMode(ViewGroups)
			return m, nil
		case "3", "f3":
			m.setMode(ViewUnknown)
			return m, nil
		case "4", "f4":
			m.setMode(ViewResults)
			return m, nil

		case "/":
			if m.mode == ViewGroups || m.mode == ViewResults {
				m.filtering = true
				m.filter.Focus()
				m.refresh()
				return m, textinput.Blink
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chromeHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chromeHeight
		}
		m.refresh()
		return m, nil
	}

	// Handle viewport updates (scrolling)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) setMode(mode ViewMode) {
	m.mode = mode
	m.refresh()
	m.viewport.GotoTop()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.render())
}

func (m Model) render() string {
	switch m.mode {
	case ViewGroups:
		return m.renderGroups()
	case ViewUnknown:
		return m.renderUnknown()
	case ViewResults:
		return m.renderResults()
	default:
		return m.renderSummary()
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var header string
	switch m.mode {
	case ViewSummary:
		header = "SCAN SUMMARY"
	case ViewGroups:
		header = "TITLE GROUPS"
	case ViewUnknown:
		header = "UNKNOWN WORDS"
	case ViewResults:
		header = "PARSED NAMES"
	}

	keys := []string{
		FormatKeybinding("1", "Summary"),
		FormatKeybinding("2", "Groups"),
		FormatKeybinding("3", "Unknown"),
		FormatKeybinding("4", "Names"),
	}
	if m.mode == ViewGroups || m.mode == ViewResults {
		keys = append(keys, FormatKeybinding("/", "Filter"))
	}
	keys = append(keys,
		FormatKeybinding("↑↓", "Scroll"),
		FormatKeybinding("Esc", "Back"),
		MutedStyle.Render(fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100))),
	)

	footer := FormatFooter(m.width, keys...)
	if m.filtering {
		footer = FormatFooter(m.width, "Filter: "+m.filter.View())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		FormatHeader(header, m.width),
		m.viewport.View(),
		footer,
	)
}

// renderSummary renders the summary view
func (m Model) renderSummary() string {
	var sb strings.Builder
	r := m.report

	sb.WriteString(FormatBanner("media release name parser") + "\n\n")

	sb.WriteString(InfoStyle.Render("Generated: ") + ContentStyle.Render(r.GeneratedAt.Format("2006-01-02 15:04:05")) + "\n")
	sb.WriteString(InfoStyle.Render("Directory: ") + ContentStyle.Render(r.ScannedDir) + "\n")
	mode := string(r.Mode)
	if r.Recursive {
		mode += " (recursive)"
	}
	sb.WriteString(InfoStyle.Render("Mode: ") + ContentStyle.Render(mode) + "\n")

	sb.WriteString(TitleStyle.Render("TOTALS") + "\n")
	sb.WriteString(InfoStyle.Render("Names parsed: ") + StatStyle.Render(fmt.Sprintf("%d", r.Totals.Items)) + "\n")
	sb.WriteString(InfoStyle.Render("Title groups: ") + StatStyle.Render(fmt.Sprintf("%d", r.Totals.Groups)) + "\n")
	for _, mt := range []parser.MediaType{parser.MediaMovie, parser.MediaTV, parser.MediaAnime, parser.MediaUnknown} {
		sb.WriteString(fmt.Sprintf("  %s %s\n", MediaTypeBadge(string(mt)), StatStyle.Render(fmt.Sprintf("%d", r.Totals.ByType[string(mt)]))))
	}
	if r.Totals.Untitled > 0 {
		sb.WriteString(WarningStyle.Render(fmt.Sprintf("No title recovered: %d", r.Totals.Untitled)) + "\n")
	}

	if top := reporter.TopGroups(r, 5); len(top) > 0 {
		sb.WriteString(TitleStyle.Render("LARGEST GROUPS") + "\n")
		for i, g := range top {
			sb.WriteString(fmt.Sprintf("  %s %s - %s\n",
				WarningStyle.Render(fmt.Sprintf("%d.", i+1)),
				ContentStyle.Render(reporter.GroupLabel(g)),
				StatStyle.Render(fmt.Sprintf("%d paths", len(g.Paths)))))
		}
	}

	if len(r.Unknown) > 0 {
		sb.WriteString(TitleStyle.Render("UNKNOWN WORDS") + "\n")
		sb.WriteString(InfoStyle.Render(fmt.Sprintf("%d words were not recognized. Press 3 to review them.", len(r.Unknown))) + "\n")
	}

	return sb.String()
}

func (m Model) matches(title string) bool {
	f := strings.ToLower(m.Filter())
	return f == "" || strings.Contains(strings.ToLower(title), f)
}

// renderGroups renders every title group with its paths
func (m Model) renderGroups() string {
	var sb strings.Builder

	if len(m.report.Groups) == 0 {
		sb.WriteString(MutedStyle.Render("No title groups.") + "\n")
		return sb.String()
	}

	shown := 0
	for _, g := range m.report.Groups {
		if !m.matches(g.CleanTitle) {
			continue
		}
		shown++
		title := g.CleanTitle
		if g.Year != "" {
			title += " (" + g.Year + ")"
		}
		sb.WriteString(HighlightStyle.Render(title) + " " + MediaTypeBadge(string(g.MediaType)) +
			MutedStyle.Render(fmt.Sprintf(" %d paths", len(g.Paths))) + "\n")
		for _, p := range g.Paths {
			sb.WriteString("  " + MutedStyle.Render(p) + "\n")
		}
		sb.WriteString("\n")
	}
	if shown == 0 {
		sb.WriteString(MutedStyle.Render(fmt.Sprintf("No groups match %q.", m.Filter())) + "\n")
	}
	return sb.String()
}

// renderUnknown renders the unknown word tally
func (m Model) renderUnknown() string {
	var sb strings.Builder

	if len(m.report.Unknown) == 0 {
		sb.WriteString(SuccessStyle.Render("Every word was recognized.") + "\n")
		return sb.String()
	}

	sb.WriteString(InfoStyle.Render("Words that matched no clue, most frequent first:") + "\n\n")
	for _, c := range m.report.Unknown {
		sb.WriteString(fmt.Sprintf("  %-28s %s\n", ContentStyle.Render(c.Word), StatStyle.Render(fmt.Sprintf("%d", c.Count))))
	}
	sb.WriteString("\n" + MutedStyle.Render("Promote a word with: mediaclue unknowns classify <category> <word>") + "\n")
	return sb.String()
}

// renderResults renders each parsed name
func (m Model) renderResults() string {
	var sb strings.Builder

	for _, item := range m.report.Results {
		r := item.Result
		if !m.matches(r.CleanTitle) && !m.matches(filepath.Base(item.Path)) {
			continue
		}
		sb.WriteString(ContentStyle.Render(filepath.Base(item.Path)) + "\n")
		title := r.CleanTitle
		if title == "" {
			title = ErrorStyle.Render("(no title)")
		}
		sb.WriteString(fmt.Sprintf("  %s %s", title, MediaTypeBadge(string(r.MediaType))))
		if clues := resultClues(r); clues != "" {
			sb.WriteString(" " + InfoStyle.Render(clues))
		}
		sb.WriteString("\n")
		if len(r.UnmatchedWords) > 0 {
			sb.WriteString("  " + MutedStyle.Render("unmatched: "+strings.Join(r.UnmatchedWords, ", ")) + "\n")
		}
	}
	return sb.String()
}

func resultClues(r parser.Result) string {
	var parts []string
	parts = append(parts, r.TVClues...)
	parts = append(parts, r.AnimeClues...)
	parts = append(parts, r.MovieClues...)
	return strings.Join(parts, " ")
}

// progressMsg wraps a scan progress update for the scanning model.
type progressMsg scanner.ScanProgress

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nomadcxx/mediaclue/internal/config"
	"github.com/Nomadcxx/mediaclue/internal/daemon"
	"github.com/Nomadcxx/mediaclue/internal/ui"
)

var binaries = []string{"mediaclue", "mediaclued"}

const (
	serviceName = "mediaclued.service"
	timerName   = "mediaclued.timer"
)

var (
	checkMark = ui.OKMarker
	failMark  = ui.FailMarker
	skipMark  = ui.WarnMarker.SetString("[SKIP]")
)

type installStep int

const (
	stepWelcome installStep = iota
	stepConfigPrompt
	stepInstalling
	stepComplete
)

type taskStatus int

const (
	statusPending taskStatus = iota
	statusRunning
	statusComplete
	statusFailed
	statusSkipped
)

// installPaths says where things are built from and installed to. Everything
// lives under the user's home, so no root access is needed.
type installPaths struct {
	srcDir     string
	buildDir   string
	binDir     string
	unitDir    string
	configPath string
}

func defaultPaths() (installPaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return installPaths{}, err
	}
	configPath, err := config.ConfigPath()
	if err != nil {
		return installPaths{}, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return installPaths{}, err
	}
	return installPaths{
		srcDir:     wd,
		buildDir:   filepath.Join(os.TempDir(), "mediaclue-build"),
		binDir:     filepath.Join(home, ".local", "bin"),
		unitDir:    filepath.Join(home, ".config", "systemd", "user"),
		configPath: configPath,
	}, nil
}

// installEnv is the read-only state a task runs against.
type installEnv struct {
	paths          installPaths
	overrideConfig bool
}

type installTask struct {
	name        string
	description string
	execute     func(installEnv) error
	optional    bool
	status      taskStatus
}

type model struct {
	step               installStep
	paths              installPaths
	tasks              []installTask
	currentTaskIndex   int
	width              int
	height             int
	spinner            spinner.Model
	errors             []string
	uninstallMode      bool
	selectedOption     int // 0 = Install, 1 = Uninstall
	overrideConfig     bool
	configPromptOption int // 0 = Override, 1 = Keep existing
	binariesExist      bool
}

type taskCompleteMsg struct {
	index   int
	success bool
	error   string
}

func newModel(paths installPaths) model {
	s := spinner.New()
	s.Style = lipgloss.NewStyle().Foreground(ui.ColorAccentDark)
	s.Spinner = spinner.Dot

	return model{
		step:             stepWelcome,
		paths:            paths,
		currentTaskIndex: -1,
		spinner:          s,
		errors:           []string{},
		binariesExist:    checkExistingBinaries(paths.binDir),
	}
}

// checkExistingBinaries reports whether every binary is already installed.
func checkExistingBinaries(binDir string) bool {
	for _, name := range binaries {
		if _, err := os.Stat(filepath.Join(binDir, name)); err != nil {
			return false
		}
	}
	return true
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.step != stepInstalling {
				return m, tea.Quit
			}
		case "up", "k":
			if m.step == stepWelcome && m.selectedOption > 0 {
				m.selectedOption--
			}
			if m.step == stepConfigPrompt && m.configPromptOption > 0 {
				m.configPromptOption--
			}
		case "down", "j":
			if m.step == stepWelcome && m.selectedOption < 1 {
				m.selectedOption++
			}
			if m.step == stepConfigPrompt && m.configPromptOption < 1 {
				m.configPromptOption++
			}
		case "enter":
			switch m.step {
			case stepWelcome:
				m.uninstallMode = m.selectedOption == 1
				if !m.uninstallMode {
					if _, err := os.Stat(m.paths.configPath); err == nil {
						m.step = stepConfigPrompt
						m.configPromptOption = 1
						return m, nil
					}
				}
				return m.start()
			case stepConfigPrompt:
				m.overrideConfig = m.configPromptOption == 0
				return m.start()
			case stepComplete:
				return m, tea.Quit
			}
		}

	case taskCompleteMsg:
		if msg.success {
			m.tasks[msg.index].status = statusComplete
		} else if m.tasks[msg.index].optional {
			m.tasks[msg.index].status = statusSkipped
			m.errors = append(m.errors, fmt.Sprintf("%s (skipped): %s", m.tasks[msg.index].name, msg.error))
		} else {
			m.tasks[msg.index].status = statusFailed
			m.errors = append(m.errors, fmt.Sprintf("%s: %s", m.tasks[msg.index].name, msg.error))
			m.step = stepComplete
			return m, nil
		}

		m.currentTaskIndex++
		if m.currentTaskIndex >= len(m.tasks) {
			m.step = stepComplete
			return m, nil
		}
		m.tasks[m.currentTaskIndex].status = statusRunning
		return m, m.executeTask(m.currentTaskIndex)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) start() (tea.Model, tea.Cmd) {
	m.initTasks()
	m.step = stepInstalling
	m.currentTaskIndex = 0
	m.tasks[0].status = statusRunning
	return m, tea.Batch(m.spinner.Tick, m.executeTask(0))
}

func (m *model) initTasks() {
	if m.uninstallMode {
		m.tasks = []installTask{
			{name: "Stop timer", description: "Stopping the mediaclued timer", execute: stopTimer, optional: true},
			{name: "Remove binaries", description: "Removing mediaclue binaries", execute: removeBinaries},
			{name: "Remove systemd units", description: "Removing service and timer", execute: removeUnits},
		}
		return
	}
	m.tasks = []installTask{
		{name: "Build binaries", description: "Building mediaclue and mediaclued", execute: buildBinaries},
		{name: "Install binaries", description: "Installing to " + m.paths.binDir, execute: installBinaries},
		{name: "Create config", description: "Writing the default configuration", execute: createConfig},
		{name: "Install systemd units", description: "Installing service and timer", execute: installUnits},
		{name: "Enable timer", description: "Enabling the mediaclued timer", execute: enableTimer, optional: true},
	}
}

func (m model) executeTask(index int) tea.Cmd {
	env := installEnv{paths: m.paths, overrideConfig: m.overrideConfig}
	execute := m.tasks[index].execute
	return func() tea.Msg {
		// Short pause so each step is visible.
		time.Sleep(200 * time.Millisecond)
		if err := execute(env); err != nil {
			return taskCompleteMsg{index: index, error: err.Error()}
		}
		return taskCompleteMsg{index: index, success: true}
	}
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content strings.Builder

	title := "installer"
	if m.uninstallMode {
		title = "uninstaller"
	}
	content.WriteString(ui.FormatBanner(title))
	content.WriteString("\n\n")

	var mainContent string
	switch m.step {
	case stepWelcome:
		mainContent = m.renderWelcome()
	case stepConfigPrompt:
		mainContent = m.renderConfigPrompt()
	case stepInstalling:
		mainContent = m.renderInstalling()
	case stepComplete:
		mainContent = m.renderComplete()
	}

	mainStyle := lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorAccent).
		Width(m.width - 4)
	content.WriteString(mainStyle.Render(mainContent))
	content.WriteString("\n")

	if help := m.helpText(); help != "" {
		content.WriteString("\n" + ui.MutedStyle.Italic(true).Render(help))
	}

	return lipgloss.NewStyle().
		Background(ui.ColorBackground).
		Foreground(ui.ColorForeground).
		Width(m.width).
		Height(m.height).
		Render(content.String())
}

func option(selected bool, label, detail string) string {
	prefix := "  "
	if selected {
		prefix = lipgloss.NewStyle().Foreground(ui.ColorAccent).Render("▸ ")
	}
	return prefix + label + "\n    " + detail + "\n\n"
}

func (m model) renderWelcome() string {
	var b strings.Builder

	if m.binariesExist {
		b.WriteString(ui.SuccessStyle.Render("✓ mediaclue is already installed") + "\n")
		b.WriteString(ui.MutedStyle.Render("  Binaries found in "+m.paths.binDir) + "\n\n")
	}

	b.WriteString("Select an option:\n\n")
	b.WriteString(option(m.selectedOption == 0, "Install mediaclue", "Builds the binaries and installs them for your user"))
	b.WriteString(option(m.selectedOption == 1, "Uninstall mediaclue", "Removes binaries and systemd units, keeps your data"))
	return b.String()
}

func (m model) renderConfigPrompt() string {
	var b strings.Builder

	b.WriteString(ui.WarningStyle.Render("⚠ Existing Configuration Detected") + "\n\n")
	b.WriteString("A mediaclue configuration file was found at:\n")
	b.WriteString(ui.MutedStyle.Render(m.paths.configPath) + "\n\n")
	b.WriteString("What would you like to do?\n\n")
	b.WriteString(option(m.configPromptOption == 0, "Override with the default configuration", "Your current config will be backed up to config.toml.backup"))
	b.WriteString(option(m.configPromptOption == 1, "Keep existing configuration", "Your current settings will be preserved"))
	b.WriteString(ui.MutedStyle.Render("Binaries will be updated either way"))
	return b.String()
}

func (m model) renderInstalling() string {
	var b strings.Builder

	for i, task := range m.tasks {
		var line string
		switch task.status {
		case statusPending:
			line = ui.MutedStyle.Render("  " + task.name)
		case statusRunning:
			line = m.spinner.View() + " " + lipgloss.NewStyle().Foreground(ui.ColorAccentDark).Render(task.description)
		case statusComplete:
			line = checkMark.String() + " " + task.name
		case statusFailed:
			line = failMark.String() + " " + task.name
		case statusSkipped:
			line = skipMark.String() + " " + task.name
		}
		b.WriteString(line)
		if i < len(m.tasks)-1 {
			b.WriteString("\n")
		}
	}

	if len(m.errors) > 0 {
		b.WriteString("\n\n")
		for _, err := range m.errors {
			b.WriteString(ui.WarningStyle.Render(err) + "\n")
		}
	}
	return b.String()
}

func (m model) failed() bool {
	for _, task := range m.tasks {
		if task.status == statusFailed {
			return true
		}
	}
	return false
}

func (m model) renderComplete() string {
	var b strings.Builder

	b.WriteString(m.renderInstalling() + "\n\n")

	switch {
	case m.failed() && m.uninstallMode:
		b.WriteString(ui.ErrorStyle.Render("Uninstallation failed"))
	case m.failed():
		b.WriteString(ui.ErrorStyle.Render("Installation failed"))
	case m.uninstallMode:
		b.WriteString(ui.SuccessStyle.Render("✓ Uninstallation complete!") + "\n\n")
		b.WriteString(ui.MutedStyle.Render("Configuration and data were left in place"))
	default:
		b.WriteString(ui.SuccessStyle.Render("✓ Installation complete!") + "\n\n")
		b.WriteString(ui.TitleStyle.Render("Get Started:") + "\n")
		for _, line := range []string{
			"  mediaclue config add-dir <dir>  - Add a library directory",
			"  mediaclue scan                  - Scan configured directories",
			"  mediaclue view                  - Browse the latest report",
			"  mediaclue parse <name>          - Parse a single release name",
		} {
			b.WriteString(ui.MutedStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n\nPress Enter to exit")
	return b.String()
}

func (m model) helpText() string {
	switch m.step {
	case stepWelcome, stepConfigPrompt:
		return "↑/↓: Navigate  •  Enter: Continue  •  Q/Ctrl+C: Quit"
	case stepComplete:
		return "Enter: Exit  •  Q/Ctrl+C: Quit"
	default:
		return "Installation in progress..."
	}
}

// Task execution functions

func buildBinaries(env installEnv) error {
	if err := os.MkdirAll(env.paths.buildDir, 0755); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}
	for _, name := range binaries {
		cmd := exec.Command("go", "build", "-buildvcs=false", "-o", filepath.Join(env.paths.buildDir, name), "./cmd/"+name+"/")
		cmd.Dir = env.paths.srcDir
		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("failed to build %s: %s", name, strings.TrimSpace(string(output)))
		}
	}
	return nil
}

func installBinaries(env installEnv) error {
	if err := os.MkdirAll(env.paths.binDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", env.paths.binDir, err)
	}
	for _, name := range binaries {
		src := filepath.Join(env.paths.buildDir, name)
		dst := filepath.Join(env.paths.binDir, name)
		if err := copyExecutable(src, dst); err != nil {
			return fmt.Errorf("failed to install %s: %w", name, err)
		}
	}
	return nil
}

// copyExecutable writes through a temp file so a running binary is replaced,
// not truncated.
func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func createConfig(env installEnv) error {
	path := env.paths.configPath
	_, err := os.Stat(path)
	exists := err == nil

	if exists && !env.overrideConfig {
		_, err := config.ReadFile(path)
		return err
	}
	if exists {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config: %w", err)
		}
		if err := os.WriteFile(path+".backup", data, 0644); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}
	return config.SaveTo(config.DefaultConfig(), path)
}

// serviceUnit runs one scan pass per activation; the timer decides when.
func serviceUnit(binary, configPath string) string {
	return fmt.Sprintf(`[Unit]
Description=mediaclue library scan
After=local-fs.target

[Service]
Type=oneshot
ExecStart=%s --once --config %s

[Install]
WantedBy=default.target
`, binary, configPath)
}

func installUnits(env installEnv) error {
	cfg, err := config.ReadFile(env.paths.configPath)
	if err != nil {
		return err
	}
	timer, err := daemon.GenerateSystemdTimer(cfg.Daemon.ScanFrequency)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(env.paths.unitDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", env.paths.unitDir, err)
	}

	units := map[string]string{
		serviceName: serviceUnit(filepath.Join(env.paths.binDir, "mediaclued"), env.paths.configPath),
		timerName:   timer,
	}
	for name, content := range units {
		if err := os.WriteFile(filepath.Join(env.paths.unitDir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to install %s: %w", name, err)
		}
	}
	return nil
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("systemctl %s: %s", strings.Join(args, " "), strings.TrimSpace(string(output)))
	}
	return nil
}

func enableTimer(installEnv) error {
	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", "--now", timerName)
}

func stopTimer(installEnv) error {
	return systemctl("disable", "--now", timerName)
}

func removeBinaries(env installEnv) error {
	for _, name := range binaries {
		path := filepath.Join(env.paths.binDir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

func removeUnits(env installEnv) error {
	for _, name := range []string{serviceName, timerName} {
		path := filepath.Join(env.paths.unitDir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	// Best effort; the units are already gone.
	_ = systemctl("daemon-reload")
	return nil
}

func main() {
	if _, err := exec.LookPath("go"); err != nil {
		fmt.Println("Error: Go is not installed or not in PATH")
		fmt.Println("Please install Go from https://go.dev/dl/")
		os.Exit(1)
	}

	paths, err := defaultPaths()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(paths), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

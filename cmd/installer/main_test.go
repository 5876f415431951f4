package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Nomadcxx/mediaclue/internal/config"
)

func testPaths(t *testing.T) installPaths {
	t.Helper()
	base := t.TempDir()
	return installPaths{
		srcDir:     base,
		buildDir:   filepath.Join(base, "build"),
		binDir:     filepath.Join(base, "bin"),
		unitDir:    filepath.Join(base, "systemd"),
		configPath: filepath.Join(base, "config", "config.toml"),
	}
}

func TestInstallAndRemoveBinaries(t *testing.T) {
	paths := testPaths(t)
	if err := os.MkdirAll(paths.buildDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range binaries {
		if err := os.WriteFile(filepath.Join(paths.buildDir, name), []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatalf("write fake binary: %v", err)
		}
	}
	env := installEnv{paths: paths}

	if err := installBinaries(env); err != nil {
		t.Fatalf("installBinaries failed: %v", err)
	}
	if !checkExistingBinaries(paths.binDir) {
		t.Fatal("binaries not found after install")
	}
	info, err := os.Stat(filepath.Join(paths.binDir, "mediaclued"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm()&0100 == 0 {
		t.Errorf("installed binary is not executable: %v", info.Mode())
	}

	if err := removeBinaries(env); err != nil {
		t.Fatalf("removeBinaries failed: %v", err)
	}
	if checkExistingBinaries(paths.binDir) {
		t.Error("binaries still present after removal")
	}
	if err := removeBinaries(env); err != nil {
		t.Errorf("second removeBinaries failed: %v", err)
	}
}

func TestCreateConfig(t *testing.T) {
	paths := testPaths(t)

	if err := createConfig(installEnv{paths: paths}); err != nil {
		t.Fatalf("createConfig failed: %v", err)
	}
	if _, err := os.Stat(paths.configPath); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	custom := "[daemon]\nscan_frequency = \"hourly\"\n"
	if err := os.WriteFile(paths.configPath, []byte(custom), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := createConfig(installEnv{paths: paths}); err != nil {
		t.Fatalf("createConfig (keep) failed: %v", err)
	}
	data, _ := os.ReadFile(paths.configPath)
	if string(data) != custom {
		t.Error("existing config was modified without override")
	}

	if err := createConfig(installEnv{paths: paths, overrideConfig: true}); err != nil {
		t.Fatalf("createConfig (override) failed: %v", err)
	}
	backup, err := os.ReadFile(paths.configPath + ".backup")
	if err != nil || string(backup) != custom {
		t.Errorf("backup = %q, %v; want the previous config", backup, err)
	}
	cfg, err := config.ReadFile(paths.configPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if cfg.Daemon.ScanFrequency != "daily" {
		t.Errorf("frequency after override = %q, want daily", cfg.Daemon.ScanFrequency)
	}
}

func TestInstallUnits(t *testing.T) {
	paths := testPaths(t)
	cfg := config.DefaultConfig()
	cfg.Daemon.ScanFrequency = "weekly"
	if err := config.SaveTo(cfg, paths.configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	if err := installUnits(installEnv{paths: paths}); err != nil {
		t.Fatalf("installUnits failed: %v", err)
	}

	service, err := os.ReadFile(filepath.Join(paths.unitDir, serviceName))
	if err != nil {
		t.Fatalf("service unit missing: %v", err)
	}
	wantExec := "ExecStart=" + filepath.Join(paths.binDir, "mediaclued") + " --once"
	if !strings.Contains(string(service), wantExec) {
		t.Errorf("service unit missing %q:\n%s", wantExec, service)
	}

	timer, err := os.ReadFile(filepath.Join(paths.unitDir, timerName))
	if err != nil {
		t.Fatalf("timer unit missing: %v", err)
	}
	if !strings.Contains(string(timer), "OnCalendar=Sun *-*-* 02:00:00") {
		t.Errorf("timer unit has wrong schedule:\n%s", timer)
	}
}

func TestWelcomeSelectsUninstall(t *testing.T) {
	m := newModel(testPaths(t))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := next.(model)

	if !got.uninstallMode {
		t.Fatal("expected uninstall mode")
	}
	if got.step != stepInstalling {
		t.Errorf("step = %v, want installing", got.step)
	}
	if len(got.tasks) != 3 || got.tasks[0].status != statusRunning {
		t.Errorf("unexpected uninstall tasks: %+v", got.tasks)
	}
	if cmd == nil {
		t.Error("expected the first task to be scheduled")
	}
}

func TestExistingConfigPrompts(t *testing.T) {
	paths := testPaths(t)
	if err := config.SaveTo(config.DefaultConfig(), paths.configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	m := newModel(paths)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := next.(model)
	if got.step != stepConfigPrompt {
		t.Fatalf("step = %v, want config prompt", got.step)
	}
	if got.configPromptOption != 1 {
		t.Error("keeping the existing config should be preselected")
	}

	next, _ = got.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got = next.(model)
	if got.overrideConfig {
		t.Error("override chosen without selecting it")
	}
	if got.step != stepInstalling || len(got.tasks) != 5 {
		t.Errorf("install did not start: step=%v tasks=%d", got.step, len(got.tasks))
	}
}

func TestOptionalTaskFailureIsSkipped(t *testing.T) {
	m := newModel(testPaths(t))
	m.uninstallMode = true
	m.initTasks()
	m.step = stepInstalling
	m.currentTaskIndex = 0

	next, _ := m.Update(taskCompleteMsg{index: 0, error: "systemctl not found"})
	got := next.(model)
	if got.tasks[0].status != statusSkipped {
		t.Errorf("optional task status = %v, want skipped", got.tasks[0].status)
	}
	if got.step != stepInstalling || got.currentTaskIndex != 1 {
		t.Errorf("installer did not move on: step=%v index=%d", got.step, got.currentTaskIndex)
	}

	next, _ = got.Update(taskCompleteMsg{index: 1, error: "permission denied"})
	got = next.(model)
	if got.step != stepComplete || !got.failed() {
		t.Error("required task failure should end the run")
	}
}

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cadence/internal/config"
	"cadence/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	courseID   string
	coursePath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t,
		testsupport.WithCalibrationWindow(2),
		testsupport.WithNewUnitBudget(4),
	)
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.CacheDir, cfg.Paths.LogDir, cfg.Paths.CoursesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	coursePath := testsupport.WriteCourse(t, cfg.Paths.CoursesDir, testsupport.CourseSpec{Units: 4, Threads: 2})

	configPath := filepath.Join(homeDir, ".config", "cadence", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		courseID:   "es-demo",
		coursePath: coursePath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
cache_dir = %q
log_dir = %q
courses_dir = %q

[learner]
id = %q

[session]
new_unit_budget = %d

[baseline]
calibration_window = %d
`,
		cfg.Paths.DataDir,
		cfg.Paths.CacheDir,
		cfg.Paths.LogDir,
		cfg.Paths.CoursesDir,
		cfg.Learner.ID,
		cfg.Session.NewUnitBudget,
		cfg.Baseline.CalibrationWindow,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

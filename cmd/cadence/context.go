package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// A project-local .env can supply overrides such as
		// CADENCE_LEARNER before the config file is read.
		_ = godotenv.Load()

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(cfg, st)
}

// logFilePattern matches the dated files newLogger writes. The logs
// command and retention cleanup both key off it.
const logFilePattern = "cadence-*.log"

func logFileName(now time.Time) string {
	return "cadence-" + now.UTC().Format("20060102") + ".log"
}

// newLogger builds the engine logger for commands that run sessions or
// sweeps. Output always lands in a dated file under the log directory;
// console mirroring is for foreground watch modes.
func (c *commandContext) newLogger(toConsole bool) (*slog.Logger, string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logFileName(time.Now()))
	outputs := []string{logPath}
	errorOutputs := []string{logPath}
	if toConsole {
		outputs = append([]string{"stdout"}, outputs...)
		errorOutputs = append([]string{"stderr"}, errorOutputs...)
	}
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      outputs,
		ErrorOutputPaths: errorOutputs,
	})
	if err != nil {
		return nil, "", fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: logFilePattern, Exclude: []string{logPath}},
	)
	return logger, logPath, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

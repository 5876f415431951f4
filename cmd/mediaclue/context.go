package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/Nomadcxx/mediaclue/internal/config"
	"github.com/Nomadcxx/mediaclue/internal/daemon"
	"github.com/Nomadcxx/mediaclue/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	strictFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string, strictFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		strictFlag:   strictFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			p, err := config.ConfigPath()
			if err != nil {
				c.configErr = err
				return
			}
			path = p
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Log.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// loggerValue builds the CLI logger. Output goes to stderr so that stdout
// stays clean for tables and JSON.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Log.Level,
			Format:      cfg.Log.Format,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) strictClues() bool {
	return c.strictFlag != nil && *c.strictFlag
}

func (c *commandContext) service() (*daemon.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return daemon.NewService(cfg, c.loggerValue(), c.strictClues()), nil
}

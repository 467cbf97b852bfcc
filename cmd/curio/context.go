package main

import (
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"curio/internal/config"
	"curio/internal/confirm"
	"curio/internal/library"
	"curio/internal/logging"
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

// withLibrary opens the library for the duration of fn. gate may be nil for
// commands that never confirm.
func (c *commandContext) withLibrary(cmd *cobra.Command, gate confirm.Gate, fn func(*library.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	ctx := logging.WithCommand(cmd.Context(), cmd.CommandPath())
	logger = logging.WithContext(ctx, logger)

	opts := []library.Option{library.WithLogger(logger)}
	if gate != nil {
		opts = append(opts, library.WithGate(gate))
	}
	svc, err := library.Open(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

// gateFor returns the confirmation gate for a destructive command. --yes
// skips the prompt; otherwise the command's input is asked.
func gateFor(cmd *cobra.Command, assumeYes bool) confirm.Gate {
	if assumeYes {
		return confirm.Always(true)
	}
	if in := cmd.InOrStdin(); in != os.Stdin {
		return confirm.NewPrompt(in, cmd.ErrOrStderr())
	}
	return confirm.ForStdin()
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

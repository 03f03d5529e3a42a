package main

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"clipstudio/internal/backend"
	"clipstudio/internal/config"
	"clipstudio/internal/jobs"
	"clipstudio/internal/logging"
	"clipstudio/internal/session"
	"clipstudio/internal/workflow"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// wizardEnv bundles the per-invocation wiring every wizard command needs.
type wizardEnv struct {
	store   *session.Store
	machine *workflow.Machine
}

// withMachine acquires the single-instance lock, opens the session store,
// restores any persisted session into a fresh Machine, runs fn, and persists
// the session back on the way out.
func (c *commandContext) withMachine(cmd *cobra.Command, fn func(ctx context.Context, env *wizardEnv) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Backend.AccessToken) == "" {
		return errors.New("backend access token is not configured; set backend.access_token in the config file")
	}

	lock := session.NewLock(cfg)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	store, err := session.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	tokens := backend.NewStaticTokenSource(cfg.Backend.AccessToken)
	client := backend.NewClient(cfg, tokens, logger)
	bridge := jobs.NewBridge(client, cfg.Workflow.MaxClips, logger)
	machine := workflow.NewMachine(cfg, client, bridge, logger, workflow.WithStore(store))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := machine.Restore(ctx); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Backend.WebSocketURL) != "" {
		hub := backend.NewHub(cfg, tokens, logger)
		defer hub.Close()
		go func() {
			// Push delivery is best effort; the pull path covers recovery.
			if err := bridge.Listen(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
				logger.Debug("push channel unavailable", logging.Args(logging.Error(err))...)
			}
		}()
	}

	runErr := fn(ctx, &wizardEnv{store: store, machine: machine})

	if err := machine.Close(context.WithoutCancel(ctx)); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			logger.Warn("session close failed", logging.Args(logging.Error(err))...)
		}
	}
	return runErr
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

package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/daemonctl"
	"github.com/mpklu/pinyinMate-sub004/internal/library"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
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

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// withService runs fn against an in-process library facade built from the
// resolved configuration. The catalog is loaded before fn runs and the
// facade is closed afterwards.
func (c *commandContext) withService(cmd *cobra.Command, fn func(*library.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	svc, err := library.New(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := svc.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	return fn(svc)
}

// daemonClient builds an HTTP client for a running daemon. The --api flag
// wins over the configured bind address.
func (c *commandContext) daemonClient() (*daemonctl.Client, error) {
	var bind string
	if c.apiFlag != nil {
		bind = strings.TrimSpace(*c.apiFlag)
	}

	var token string
	cfg, err := c.ensureConfig()
	if err != nil {
		if bind == "" {
			return nil, err
		}
	} else {
		if bind == "" {
			bind = strings.TrimSpace(cfg.Paths.APIBind)
		}
		token = cfg.Paths.APIToken
	}

	if bind == "" {
		return nil, errors.New("daemon API address not configured; set paths.api_bind or pass --api")
	}
	return daemonctl.New(bind, token)
}

func (c *commandContext) apiAddress() string {
	if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
		return strings.TrimSpace(*c.apiFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return strings.TrimSpace(cfg.Paths.APIBind)
	}
	return ""
}

func wrapDaemonError(err error, bind string) error {
	if daemonctl.IsUnavailable(err) {
		return fmt.Errorf("connect to daemon at %s: no daemon is listening; start it with `pmated`", bind)
	}
	return err
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
